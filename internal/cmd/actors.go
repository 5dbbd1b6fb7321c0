package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comalice/procession/internal/formation"
)

func newActorsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "actors",
		GroupID: GroupData,
		Short:   "List the actor roster and the formation each would field",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			composer := formation.NewComposer(cfg.Formation)
			out := cmd.OutOrStdout()
			for i := range cfg.Actors {
				a := &cfg.Actors[i]
				stages := "1 float"
				if a.HasSecondaryStage {
					stages = "2 floats"
				}
				rows := [][2]string{
					{"id", a.ID},
					{"popularity", fmt.Sprintf("%d", a.Popularity)},
					{"seat", fmt.Sprintf("(%.0f, %.0f)", a.Anchor.X, a.Anchor.Y)},
					{"stage", fmt.Sprintf("%s, %s", a.Kind, stages)},
					{"formation", fmt.Sprintf("%d participants, %d bearers",
						composer.ParticipantCount(a), formation.BearerCount(a.Popularity, cfg.Formation.MaxBearers))},
				}
				if a.FoundingYear != 0 {
					rows = append(rows, [2]string{"founded", fmt.Sprintf("%d", a.FoundingYear)})
				}
				fmt.Fprintln(out, summary(displayName(a), rows))
			}
			return nil
		},
	}
}
