// Package shell runs manifest scripts through the system shell.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/creack/pty"
	"golang.org/x/term"

	"go.trai.ch/pacquet/internal/core/domain"
	"go.trai.ch/pacquet/internal/core/ports"
	"go.trai.ch/zerr"
)

// Executor implements ports.ScriptExecutor using os/exec and a PTY when
// the session is interactive, so scripts that probe for a terminal (test
// runners, spinners) behave as they do under other package managers.
type Executor struct {
	logger ports.Logger

	stdout io.Writer
	stderr io.Writer
}

// NewExecutor creates an Executor writing script output to the process
// streams.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// WithOutput redirects script output. Used for testing.
func (e *Executor) WithOutput(stdout, stderr io.Writer) *Executor {
	e.stdout = stdout
	e.stderr = stderr
	return e
}

// RunScript executes one manifest script. The script command runs under
// the shell with node_modules/.bin prepended to PATH; a non-zero exit
// maps to *domain.ScriptError carrying the script's exit code.
func (e *Executor) RunScript(ctx context.Context, inv ports.ScriptInvocation) error {
	command := inv.Command
	if len(inv.Args) > 0 {
		command += " " + strings.Join(inv.Args, " ")
	}

	shellName, shellFlag := systemShell()
	cmd := exec.CommandContext(ctx, shellName, shellFlag, command) //nolint:gosec // manifest scripts are user-provided by design
	cmd.Dir = inv.Dir
	cmd.Env = scriptEnv(os.Environ(), inv)

	e.logger.Debug("running script " + inv.Name + ": " + command)

	if f, ok := e.stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) && runtime.GOOS != "windows" {
		return e.runWithPty(cmd, inv.Name)
	}

	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr
	cmd.Stdin = os.Stdin
	return exitError(cmd.Run(), inv.Name)
}

// runWithPty starts the script under a pseudo-terminal and streams its
// merged output.
func (e *Executor) runWithPty(cmd *exec.Cmd, scriptName string) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to start pty"), "script", scriptName)
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		defer func() { _ = ptmx.Close() }()
		_, _ = io.Copy(e.stdout, ptmx)
	}()

	err = cmd.Wait()
	<-ioDone
	return exitError(err, scriptName)
}

// exitError converts a command failure into a *domain.ScriptError so the
// CLI can propagate the script's own exit code.
func exitError(err error, scriptName string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &domain.ScriptError{Script: scriptName, ExitCode: exitErr.ExitCode()}
	}
	return zerr.With(zerr.Wrap(err, "failed to run script"), "script", scriptName)
}

// scriptEnv builds the script environment: the parent environment with
// the .bin directory prepended to PATH and the npm lifecycle variable
// set.
func scriptEnv(parent []string, inv ports.ScriptInvocation) []string {
	env := make([]string, 0, len(parent)+2)
	pathSet := false
	for _, kv := range parent {
		key, value, ok := strings.Cut(kv, "=")
		if ok && strings.EqualFold(key, "PATH") && inv.ExtraPathDir != "" {
			env = append(env, key+"="+inv.ExtraPathDir+string(os.PathListSeparator)+value)
			pathSet = true
			continue
		}
		env = append(env, kv)
	}
	if !pathSet && inv.ExtraPathDir != "" {
		env = append(env, "PATH="+inv.ExtraPathDir)
	}
	env = append(env, "npm_lifecycle_event="+inv.Name)
	return env
}

func systemShell() (name, flag string) {
	if runtime.GOOS == "windows" {
		return "cmd", "/C"
	}
	return "sh", "-c"
}
