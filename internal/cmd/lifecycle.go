package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comalice/procession/internal/primitives"
	"github.com/comalice/procession/internal/production"
)

func newLifecycleCmd() *cobra.Command {
	var format, state string
	c := &cobra.Command{
		Use:     "lifecycle",
		GroupID: GroupData,
		Short:   "Print the procession lifecycle as Graphviz DOT or JSON",
		Example: `  procession lifecycle --state paused | dot -Tsvg > lifecycle.svg`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l := primitives.ProcessionLifecycle()
			current := primitives.LifecycleState(state)
			if state != "" && !current.Valid() {
				return fmt.Errorf("%w: unknown state %q", primitives.ErrValidation, state)
			}
			v := &production.DefaultVisualizer{}
			switch format {
			case "dot":
				fmt.Fprint(cmd.OutOrStdout(), v.ExportDOT(l, current))
			case "json":
				data, err := v.ExportJSON(l)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			default:
				return fmt.Errorf("%w: unknown format %q, want dot or json", primitives.ErrValidation, format)
			}
			return nil
		},
	}
	c.Flags().StringVarP(&format, "format", "f", "dot", "output format (dot, json)")
	c.Flags().StringVarP(&state, "state", "s", "", "highlight this state")
	return c
}
