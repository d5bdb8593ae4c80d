// Package execx provides a testable abstraction for command execution.
package execx

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Runner defines an interface for executing external commands.
//
// Every container-runtime and host-control invocation in convergd goes
// through this interface so it can be faked in tests.
type Runner interface {
	// CombinedOutput executes a command and returns its combined
	// stdout and stderr output.
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)

	// Run executes a command and returns stdout, stderr and the exit
	// code separately. A non-zero exit code is not an error by itself;
	// err is set for start failures, timeouts and cancellation.
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, exitCode int, err error)
}

// RealRunner implements Runner using os/exec. If Timeout is non-zero,
// every call is bounded by it in addition to the caller's context.
type RealRunner struct {
	Timeout time.Duration
}

// NewRealRunner creates a new RealRunner with the given per-call timeout.
// A zero timeout means calls are bounded only by the caller's context.
func NewRealRunner(timeout time.Duration) *RealRunner {
	return &RealRunner{Timeout: timeout}
}

// CombinedOutput executes a command and returns its combined stdout and stderr output.
func (r *RealRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Run executes a command and returns stdout, stderr and the exit code.
func (r *RealRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	if ctx.Err() != nil {
		return outBuf.Bytes(), errBuf.Bytes(), -1, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return outBuf.Bytes(), errBuf.Bytes(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return outBuf.Bytes(), errBuf.Bytes(), -1, err
	}
	return outBuf.Bytes(), errBuf.Bytes(), 0, nil
}

func (r *RealRunner) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.Timeout)
}
