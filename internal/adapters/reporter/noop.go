package reporter

import (
	"context"

	"go.trai.ch/pacquet/internal/core/domain"
)

// Noop discards all progress events. Used by tests and script runs.
type Noop struct{}

func (Noop) Start(context.Context) error           { return nil }
func (Noop) Stop() error                           { return nil }
func (Noop) OnResolved(string, string)             {}
func (Noop) OnFetched(string, string, bool)        {}
func (Noop) OnLinked(string, string)               {}
func (Noop) OnSummary(domain.InstallSummary)       {}
