package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/comalice/procession"
	"github.com/comalice/procession/internal/primitives"
	"github.com/comalice/procession/internal/production"
)

type simulateOptions struct {
	actor    string
	route    string
	points   string
	load     string
	save     string
	journal  string
	maxTicks int
	advance  int
	quiet    bool
}

func newSimulateCmd(root *rootOptions) *cobra.Command {
	o := &simulateOptions{}
	c := &cobra.Command{
		Use:     "simulate",
		GroupID: GroupRun,
		Short:   "Run a procession headless and print its events",
		Long: `simulate runs a procession to completion without waiting on the wall
clock. The route comes from --route (a YAML route file), --points (authored
on the fly from the actor's seat) or a save loaded with --load.`,
		Example: `  procession simulate --actor macarena --points "300,80 300,260"
  procession simulate --route carrera.yaml --save evening
  procession simulate --load evening
  procession simulate --actor rocio --advance 20 --points "700,420 700,560"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd, root, o)
		},
	}
	f := c.Flags()
	f.StringVarP(&o.actor, "actor", "a", "", "actor id from the roster")
	f.StringVarP(&o.route, "route", "r", "", "YAML route file")
	f.StringVarP(&o.points, "points", "p", "", `route waypoints, "x,y x,y ..."`)
	f.StringVar(&o.load, "load", "", "load this save slot before running")
	f.StringVar(&o.save, "save", "", "save the session to this slot when done")
	f.StringVar(&o.journal, "journal", "", "append every event as JSON lines to this file")
	f.IntVar(&o.maxTicks, "max-ticks", 100000, "give up after this many ticks")
	f.IntVar(&o.advance, "advance", 0, "let this many years pass before the procession")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "print only the summary")
	c.MarkFlagsMutuallyExclusive("route", "points")
	return c
}

func runSimulate(cmd *cobra.Command, root *rootOptions, o *simulateOptions) error {
	var extra []procession.Option
	if o.journal != "" {
		f, err := os.OpenFile(o.journal, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer f.Close()
		extra = append(extra, procession.WithJournal(f))
	}
	sim, err := root.newSession(cmd, extra...)
	if err != nil {
		return err
	}
	defer sim.Close()

	out := cmd.OutOrStdout()
	if !o.quiet {
		sub := sim.World.Bus.OnAll(func(ev primitives.Event) {
			fmt.Fprintln(out, formatEvent(ev))
		})
		defer sub.Cancel()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.load != "" {
		if err := sim.LoadGame(ctx, o.load); err != nil {
			return err
		}
	}
	if o.actor != "" {
		if err := sim.SelectActor(o.actor); err != nil {
			return err
		}
	}

	if o.advance > 0 {
		if _, err := sim.AdvanceYears(o.advance); err != nil {
			return err
		}
	}

	switch sim.Controller.State() {
	case primitives.StateActive:
	case primitives.StatePaused:
		if _, err := sim.Controller.TogglePause(); err != nil {
			return err
		}
	default:
		r, err := resolveRoute(sim, o.route, o.points)
		if err != nil {
			return err
		}
		if err := sim.Start(r); err != nil {
			return err
		}
	}

	ticks, runErr := sim.RunHeadless(o.maxTicks)
	printSummary(out, sim, ticks)

	if o.save != "" {
		if err := sim.SaveGame(ctx, o.save); err != nil {
			return errors.Join(runErr, err)
		}
		fmt.Fprintln(out, DimStyle.Render("saved to slot "+o.save))
	}
	return runErr
}

// resolveRoute picks the route to run: a file, authored points, or the last
// route of a loaded save.
func resolveRoute(sim *procession.Simulation, file, points string) (*primitives.Route, error) {
	switch {
	case file != "":
		r, err := production.ReadRouteFile(file)
		if err != nil {
			return nil, err
		}
		sim.AddRoute(r)
		return r, nil
	case points != "":
		return authorRoute(sim, points)
	}
	if r := sim.LastRoute(); r != nil {
		return r, nil
	}
	return nil, fmt.Errorf("%w: no route, pass --route or --points", primitives.ErrValidation)
}

// authorRoute parses points and authors a route from them.
func authorRoute(sim *procession.Simulation, points string) (*primitives.Route, error) {
	pts, err := parsePoints(points)
	if err != nil {
		return nil, err
	}
	return sim.AuthorRoute(pts)
}

func printSummary(w io.Writer, sim *procession.Simulation, ticks int) {
	snap := sim.Controller.Snapshot()
	if snap == nil {
		return
	}
	rows := [][2]string{
		{"actor", displayName(snap.Actor)},
		{"route", fmt.Sprintf("%s (%d points, %.1f units)", snap.Route.ID, len(snap.Route.Points), snap.Route.Length())},
		{"participants", fmt.Sprintf("%d (%d home)", len(snap.Participants), snap.CompletedCount)},
		{"state", string(sim.Controller.State())},
		{"progress", fmt.Sprintf("%.1f%%", sim.Controller.Progress()*100)},
		{"elapsed", elapsed(snap.ElapsedMs).String()},
		{"ticks", fmt.Sprintf("%d this run, %d total", ticks, snap.StepCount)},
	}
	fmt.Fprintln(w, summary(fmt.Sprintf("Procession %d", sim.World.Year()), rows))
}
