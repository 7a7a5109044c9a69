package ports

import (
	"context"

	"go.trai.ch/pacquet/internal/core/domain"
)

// Reporter is the abstraction for install progress output. It decouples
// the engine from presentation, allowing the same event stream to drive
// either a live TUI or linear CI logs.
type Reporter interface {
	// Start initializes the reporter. Asynchronous reporters may launch
	// background goroutines here.
	Start(ctx context.Context) error

	// Stop flushes buffered output and shuts the reporter down.
	Stop() error

	// OnResolved is called once per package when a version is selected.
	OnResolved(name, version string)

	// OnFetched is called when a package's tarball is present in the
	// store. reused reports a CAS hit that skipped the download.
	OnFetched(name, version string, reused bool)

	// OnLinked is called when a package's virtual-store directory is
	// complete.
	OnLinked(name, version string)

	// OnSummary is called once after the install finishes.
	OnSummary(summary domain.InstallSummary)
}
