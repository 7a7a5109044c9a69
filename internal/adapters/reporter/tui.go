package reporter

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/pacquet/internal/core/domain"
)

// TUI drives the bubbletea progress model. Events arrive from engine
// goroutines and are forwarded through the program's message loop.
type TUI struct {
	program *tea.Program
	done    chan struct{}
	err     error
}

// NewTUI creates a TUI reporter. Extra program options are mainly for
// tests.
func NewTUI(opts ...tea.ProgramOption) *TUI {
	return &TUI{
		program: tea.NewProgram(NewModel(), opts...),
		done:    make(chan struct{}),
	}
}

// Start launches the program loop in the background.
func (r *TUI) Start(ctx context.Context) error {
	go func() {
		defer close(r.done)
		_, r.err = r.program.Run()
	}()

	go func() {
		select {
		case <-ctx.Done():
			r.program.Quit()
		case <-r.done:
		}
	}()
	return nil
}

// Stop waits for the program to finish rendering.
func (r *TUI) Stop() error {
	r.program.Quit()
	<-r.done
	return r.err
}

// OnResolved forwards a resolution event.
func (r *TUI) OnResolved(name, version string) {
	r.program.Send(MsgResolved{Name: name, Version: version})
}

// OnFetched forwards a fetch event.
func (r *TUI) OnFetched(name, version string, reused bool) {
	r.program.Send(MsgFetched{Name: name, Version: version, Reused: reused})
}

// OnLinked forwards a link event.
func (r *TUI) OnLinked(name, version string) {
	r.program.Send(MsgLinked{Name: name, Version: version})
}

// OnSummary forwards the final counts; the model quits on receipt.
func (r *TUI) OnSummary(summary domain.InstallSummary) {
	r.program.Send(MsgSummary{Summary: summary})
}
