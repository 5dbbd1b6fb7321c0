package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comalice/procession/internal/primitives"
	"github.com/comalice/procession/internal/production"
)

func newRouteCmd(root *rootOptions) *cobra.Command {
	c := &cobra.Command{
		Use:     "route",
		GroupID: GroupAuthor,
		Short:   "Author and inspect routes",
		RunE:    requireSubcommand,
	}
	c.AddCommand(newRouteBuildCmd(root), newRouteShowCmd())
	return c
}

func newRouteBuildCmd(root *rootOptions) *cobra.Command {
	var actor, points, outPath string
	c := &cobra.Command{
		Use:   "build",
		Short: "Author a route from the actor's seat through the given points",
		Long: `build replays the points as clicks on the map. The first click seeds the
route at the actor's seat; a click back near the seat is not added and
suggests finishing. The route is closed at the seat when finished.`,
		Example: `  procession route build --actor macarena --points "300,80 300,260" --out carrera.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sim, err := root.newSession(cmd)
			if err != nil {
				return err
			}
			defer sim.Close()
			out := cmd.OutOrStdout()
			sub := sim.World.Bus.OnAll(func(ev primitives.Event) {
				fmt.Fprintln(out, formatEvent(ev))
			})
			defer sub.Cancel()

			if actor != "" {
				if err := sim.SelectActor(actor); err != nil {
					return err
				}
			}
			r, err := authorRoute(sim, points)
			if err != nil {
				return err
			}
			if outPath != "" {
				if err := production.WriteRouteFile(outPath, r); err != nil {
					return err
				}
				fmt.Fprintln(out, DimStyle.Render("wrote "+outPath))
			}
			return nil
		},
	}
	c.Flags().StringVarP(&actor, "actor", "a", "", "actor id from the roster")
	c.Flags().StringVarP(&points, "points", "p", "", `waypoints, "x,y x,y ..."`)
	c.Flags().StringVarP(&outPath, "out", "o", "", "write the route to this YAML file")
	_ = c.MarkFlagRequired("points")
	return c
}

func newRouteShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE",
		Short: "Print a route file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := production.ReadRouteFile(args[0])
			if err != nil {
				return err
			}
			rows := [][2]string{
				{"id", r.ID},
				{"owner", r.OwnerID},
				{"points", fmt.Sprintf("%d", len(r.Points))},
				{"length", fmt.Sprintf("%.1f", r.Length())},
			}
			for i, p := range r.Points {
				rows = append(rows, [2]string{fmt.Sprintf("  %d", i), fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary("Route", rows))
			return nil
		},
	}
}

// requireSubcommand returns an error for parent commands run without a
// known subcommand, instead of printing help and exiting 0.
func requireSubcommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("requires a subcommand\n\nRun '%s --help' for usage", cmd.CommandPath())
	}
	return fmt.Errorf("unknown command %q for %q\n\nRun '%s --help' for available commands",
		args[0], cmd.CommandPath(), cmd.CommandPath())
}
