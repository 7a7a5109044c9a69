package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/pacquet/internal/app"
)

func (c *CLI) newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "install",
		Aliases: []string{"i"},
		Short:   "Install all dependencies declared in package.json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.applyOutputMode(cmd)

			prod, _ := cmd.Flags().GetBool("prod")
			noOptional, _ := cmd.Flags().GetBool("no-optional")
			frozen, _ := cmd.Flags().GetBool("frozen-lockfile")

			return c.app.Install(cmd.Context(), app.InstallOptions{
				Prod:           prod,
				NoOptional:     noOptional,
				FrozenLockfile: frozen,
			})
		},
	}
	cmd.Flags().BoolP("prod", "P", false, "Skip devDependencies")
	cmd.Flags().Bool("no-optional", false, "Skip optionalDependencies")
	cmd.Flags().Bool("frozen-lockfile", false, "Install from pnpm-lock.yaml without resolution")
	return cmd
}
