package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSavesCmd(root *rootOptions) *cobra.Command {
	c := &cobra.Command{
		Use:     "saves",
		GroupID: GroupData,
		Short:   "Manage saved games",
		RunE:    requireSubcommand,
	}
	c.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List save slots",
			RunE: func(cmd *cobra.Command, _ []string) error {
				sim, err := root.newSession(cmd)
				if err != nil {
					return err
				}
				defer sim.Close()
				store, err := sim.Store()
				if err != nil {
					return err
				}
				ids, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), DimStyle.Render("no saves in "+sim.Config.Storage.Dir))
					return nil
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete SLOT",
			Short: "Delete a save slot",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sim, err := root.newSession(cmd)
				if err != nil {
					return err
				}
				defer sim.Close()
				store, err := sim.Store()
				if err != nil {
					return err
				}
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), DimStyle.Render("deleted "+args[0]))
				return nil
			},
		},
	)
	return c
}
