package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the shared content-addressed store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Remove all packages from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.StorePrune(cmd.Context())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the resolved store directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.StorePath(cmd.Context(), cmd.OutOrStdout())
		},
	})

	return cmd
}
