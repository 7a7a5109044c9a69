// Package reporter renders install progress, either as a live TUI or as
// linear logs for CI and pipes.
package reporter

import (
	"os"

	"golang.org/x/term"
)

// Mode selects the progress rendering.
type Mode int

const (
	// ModeAuto picks TUI on interactive terminals, linear elsewhere.
	ModeAuto Mode = iota
	// ModeTUI forces the interactive renderer.
	ModeTUI
	// ModeLinear forces linear output.
	ModeLinear
)

// DetectMode returns the recommended mode: linear when stdout is not a
// TTY or a CI environment variable is set.
func DetectMode() Mode {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return ModeLinear
	}
	return ModeTUI
}

// ResolveMode applies the user's flag on top of auto-detection. The flag
// is one of "auto", "tui", "linear", or empty.
func ResolveMode(detected Mode, userFlag string) Mode {
	switch userFlag {
	case "tui":
		return ModeTUI
	case "linear", "ci":
		return ModeLinear
	default:
		return detected
	}
}
