// Package runner executes child processes inside the application root,
// either captured (probes) or wired to the terminal (installer, application).
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
)

const defaultMaxOutput = 64 << 10

// Runner executes commands within a workspace boundary.
type Runner struct {
	Workspace string
	MaxOutput int // bytes kept from captured runs

	// Terminal streams for interactive runs. Nil means the process's own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes argv with its output captured and never shown. The first
// element is the binary name (resolved via PATH), and the rest are arguments.
// cwd is resolved relative to the workspace root and must remain within it.
// A binary that cannot be started is reported as an error, not an exit code.
func (r *Runner) Run(ctx context.Context, argv []string, cwd string) (*Result, error) {
	cmd, err := r.command(ctx, argv, cwd)
	if err != nil {
		return nil, err
	}

	maxOutput := r.MaxOutput
	if maxOutput <= 0 {
		maxOutput = defaultMaxOutput
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitWriter{buf: &stdout, limit: maxOutput}
	cmd.Stderr = &limitWriter{buf: &stderr, limit: maxOutput}

	exitCode, err := wait(cmd.Run(), argv[0])
	if err != nil {
		return nil, err
	}

	return &Result{
		RunID:     uuid.New().String(),
		ExitCode:  exitCode,
		Stdout:    stdout.Bytes(),
		Stderr:    stderr.Bytes(),
		Truncated: stdout.Len() >= maxOutput || stderr.Len() >= maxOutput,
	}, nil
}

// RunInteractive executes argv in the foreground with the terminal streams
// connected, and blocks until it exits. There is no timeout.
func (r *Runner) RunInteractive(ctx context.Context, argv []string, cwd string) (*Result, error) {
	cmd, err := r.command(ctx, argv, cwd)
	if err != nil {
		return nil, err
	}

	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if r.Stdin != nil {
		cmd.Stdin = r.Stdin
	}
	if r.Stdout != nil {
		cmd.Stdout = r.Stdout
	}
	if r.Stderr != nil {
		cmd.Stderr = r.Stderr
	}

	exitCode, err := wait(cmd.Run(), argv[0])
	if err != nil {
		return nil, err
	}
	return &Result{RunID: uuid.New().String(), ExitCode: exitCode}, nil
}

func (r *Runner) command(ctx context.Context, argv []string, cwd string) (*exec.Cmd, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty argv")
	}
	dir, err := r.resolveDir(cwd)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	return cmd, nil
}

// wait converts the error of cmd.Run into an exit code. Errors other than
// a non-zero exit (binary not found, permission denied) are returned.
func wait(runErr error, name string) (int, error) {
	if runErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return exitCode(exitErr), nil
	}
	return 0, fmt.Errorf("executing %s: %w", name, runErr)
}

// exitCode returns the process exit status; a process killed by a signal
// reports 128 plus the signal number, as shells do.
func exitCode(exitErr *exec.ExitError) int {
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
		if status.Signaled() {
			return 128 + int(status.Signal())
		}
		if status.Exited() {
			return status.ExitStatus()
		}
	}
	if code := exitErr.ExitCode(); code > 0 {
		return code
	}
	return 1
}

// resolveDir resolves cwd relative to the workspace and validates it
// is within the workspace boundary.
func (r *Runner) resolveDir(cwd string) (string, error) {
	if cwd == "" {
		return r.Workspace, nil
	}

	var dir string
	if filepath.IsAbs(cwd) {
		dir = filepath.Clean(cwd)
	} else {
		dir = filepath.Clean(filepath.Join(r.Workspace, cwd))
	}

	rel, err := filepath.Rel(r.Workspace, dir)
	if err != nil {
		return "", fmt.Errorf("resolving cwd: %w", err)
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("cwd %q is outside workspace %q", cwd, r.Workspace)
	}
	return dir, nil
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Report all bytes as consumed so the copy goroutine never sees a short write.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
