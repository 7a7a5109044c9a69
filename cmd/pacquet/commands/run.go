package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script> [args...]",
		Short: "Run a script defined in package.json",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ifPresent, _ := cmd.Flags().GetBool("if-present")
			return c.app.Run(cmd.Context(), args[0], args[1:], ifPresent)
		},
	}
	cmd.Flags().Bool("if-present", false, "Exit zero when the script is not defined")
	return cmd
}
