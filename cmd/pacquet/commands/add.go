package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/pacquet/internal/app"
)

func (c *CLI) newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <package>[@<range>]",
		Short: "Add a dependency to package.json and install it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyOutputMode(cmd)

			saveDev, _ := cmd.Flags().GetBool("save-dev")
			saveOptional, _ := cmd.Flags().GetBool("save-optional")
			saveExact, _ := cmd.Flags().GetBool("save-exact")

			return c.app.Add(cmd.Context(), args[0], app.AddOptions{
				SaveDev:      saveDev,
				SaveOptional: saveOptional,
				SaveExact:    saveExact,
			})
		},
	}
	cmd.Flags().BoolP("save-dev", "D", false, "Save to devDependencies")
	cmd.Flags().BoolP("save-optional", "O", false, "Save to optionalDependencies")
	cmd.Flags().BoolP("save-exact", "E", false, "Save the exact version instead of a caret range")
	return cmd
}
