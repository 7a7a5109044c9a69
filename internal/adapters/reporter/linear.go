package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/muesli/termenv"
	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/pacquet/internal/ui/output"
	"go.trai.ch/pacquet/internal/ui/style"
)

// Linear prints chronological progress lines, one per linked package.
// Suitable for CI and piped output.
type Linear struct {
	mu  sync.Mutex
	w   io.Writer
	out *termenv.Output
}

// NewLinear creates a linear reporter writing to w (stdout by default).
func NewLinear(w io.Writer) *Linear {
	if w == nil {
		w = os.Stdout
	}
	return &Linear{
		w:   w,
		out: termenv.NewOutput(w, termenv.WithProfile(output.ColorProfileANSI())),
	}
}

// Start is a no-op; the linear reporter is synchronous.
func (r *Linear) Start(context.Context) error { return nil }

// Stop is a no-op.
func (r *Linear) Stop() error { return nil }

// OnResolved is silent; resolution is chatty and linear output stays
// terse.
func (r *Linear) OnResolved(string, string) {}

// OnFetched is silent.
func (r *Linear) OnFetched(string, string, bool) {}

// OnLinked prints one line per completed package.
func (r *Linear) OnLinked(name, version string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plus := r.out.String(style.Plus).Foreground(termenv.RGBColor(string(style.Green)))
	fmt.Fprintf(r.w, "%s %s %s\n", plus, name, r.out.String(version).Faint())
}

// OnSummary prints the closing counts.
func (r *Linear) OnSummary(summary domain.InstallSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	check := r.out.String(style.Check).Foreground(termenv.RGBColor(string(style.Green)))
	fmt.Fprintf(r.w, "%s resolved %d, downloaded %d, reused %d, linked %d\n",
		check, summary.Resolved, summary.Downloaded, summary.Reused, summary.Linked)
}
