package cmd

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/comalice/procession"
	"github.com/comalice/procession/internal/primitives"
	"github.com/comalice/procession/internal/production"
	"github.com/comalice/procession/internal/tui/watch"
	"github.com/comalice/procession/realtime"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	var actor, routeFile, points, load string
	c := &cobra.Command{
		Use:     "watch",
		GroupID: GroupRun,
		Short:   "Run a procession in real time with a live progress view",
		Example: `  procession watch --actor rocio --points "700,420 700,600 640,600"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !stdoutIsTerminal() {
				return errors.New("watch needs a terminal; use simulate for headless runs")
			}
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			// Log lines would tear the TUI; only warnings go to stderr.
			if cfg.Log.Level < zerolog.WarnLevel {
				cfg.Log.Level = zerolog.WarnLevel
			}
			sim, err := procession.New(
				procession.WithConfig(cfg),
				procession.WithLogger(logger(cmd.ErrOrStderr(), cfg)),
			)
			if err != nil {
				return err
			}
			defer sim.Close()

			if load != "" {
				if err := sim.LoadGame(cmd.Context(), load); err != nil {
					return err
				}
			}
			if actor != "" {
				if err := sim.SelectActor(actor); err != nil {
					return err
				}
			}
			r, err := resolveRoute(sim, routeFile, points)
			if err != nil {
				return err
			}
			return runWatch(cmd, sim, r)
		},
	}
	c.Flags().StringVarP(&actor, "actor", "a", "", "actor id from the roster")
	c.Flags().StringVarP(&routeFile, "route", "r", "", "YAML route file")
	c.Flags().StringVarP(&points, "points", "p", "", `route waypoints, "x,y x,y ..."`)
	c.Flags().StringVar(&load, "load", "", "load this save slot first")
	c.MarkFlagsMutuallyExclusive("route", "points")
	return c
}

func runWatch(cmd *cobra.Command, sim *procession.Simulation, r *primitives.Route) error {
	pub := production.NewChannelPublisher("watch", 64).Attach(sim.World.Bus)
	defer pub.Close()

	rt := sim.NewRuntime()
	if err := rt.Start(cmd.Context()); err != nil {
		return err
	}
	defer rt.Stop()

	if !sim.Controller.State().Running() {
		if err := rt.Send(realtime.StartCommand(sim.World.Actor(), r)); err != nil {
			return err
		}
	}

	title := fmt.Sprintf("%s  %.0f units", displayName(sim.World.Actor()), r.Length())
	poll := func() watch.Status {
		st := watch.Status{State: sim.Controller.State(), Progress: sim.Controller.Progress()}
		if snap := sim.Controller.Snapshot(); snap != nil {
			st.ElapsedMs, st.Home, st.Total = snap.ElapsedMs, snap.CompletedCount, len(snap.Participants)
		}
		return st
	}
	p := tea.NewProgram(watch.New(title, rt, pub.Events(), poll),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	_, err := p.Run()
	return err
}
