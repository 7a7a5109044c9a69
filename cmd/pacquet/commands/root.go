// Package commands implements the CLI commands for the pacquet package
// manager.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/pacquet/internal/app"
	"go.trai.ch/pacquet/internal/build"
)

// CLI represents the command line interface for pacquet.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Install(ctx context.Context, opts app.InstallOptions) error
	Add(ctx context.Context, arg string, opts app.AddOptions) error
	Run(ctx context.Context, script string, args []string, ifPresent bool) error
	StorePrune(ctx context.Context) error
	StorePath(ctx context.Context, w io.Writer) error
	WithOutputMode(mode string) *app.App
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "pacquet",
		Short:         "An experimental pnpm-compatible package manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("output-mode", "o", "auto", "Progress output: auto, tui, or linear")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newInstallCmd())
	rootCmd.AddCommand(c.newAddCmd())
	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newStoreCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// applyOutputMode forwards the persistent --output-mode flag to the app.
func (c *CLI) applyOutputMode(cmd *cobra.Command) {
	mode, _ := cmd.Flags().GetString("output-mode")
	c.app.WithOutputMode(mode)
}
