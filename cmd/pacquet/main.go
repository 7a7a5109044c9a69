// Package main is the entry point for the pacquet package manager.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/pacquet/cmd/pacquet/commands"
	"go.trai.ch/pacquet/internal/app"
	"go.trai.ch/pacquet/internal/core/domain"
	_ "go.trai.ch/pacquet/internal/wiring"
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr, func(ctx context.Context) (*app.Components, error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		return c, err
	}))
}

func run(ctx context.Context, args []string, stderr io.Writer, provider ComponentProvider) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, err := provider(ctx)
	if err != nil {
		// The logger is not available when initialization fails.
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 2
	}

	// 2. Interface - CLI
	cli := commands.New(components.App)
	cli.SetArgs(args)
	cli.SetOutput(os.Stdout, stderr)

	// 3. Execution
	if err := cli.Execute(ctx); err != nil {
		components.Logger.Error(err)
		return exitCode(err)
	}
	return 0
}

// exitCode maps failures onto the documented exit statuses: scripts
// propagate their own code, user-facing errors exit 1, anything else is
// internal and exits 2.
func exitCode(err error) int {
	var scriptErr *domain.ScriptError
	if errors.As(err, &scriptErr) {
		return scriptErr.ExitCode
	}

	userFacing := []error{
		domain.ErrInvalidPackageSpec,
		domain.ErrPackageNotFound,
		domain.ErrNoMatchingVersion,
		domain.ErrInvalidRange,
		domain.ErrRegistryRequest,
		domain.ErrRegistryUnavailable,
		domain.ErrIntegrityMismatch,
		domain.ErrTarballFormat,
		domain.ErrTarballDownload,
		domain.ErrManifestFormat,
		domain.ErrManifestNotFound,
		domain.ErrLockfileFormat,
		domain.ErrLockfileMissing,
		domain.ErrFrozenLockfileStale,
		domain.ErrFilesystemConflict,
		domain.ErrScriptMissing,
		domain.ErrUnsupportedImportMethod,
	}
	for _, sentinel := range userFacing {
		if errors.Is(err, sentinel) {
			return 1
		}
	}
	return 2
}
