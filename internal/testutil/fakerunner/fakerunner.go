// Package fakerunner provides a fake implementation of execx.Runner for testing.
package fakerunner

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Result describes a canned response for a command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Err      error
}

// Runner is a fake implementation of execx.Runner for testing.
// It is safe for concurrent use so parallel appliers can share one.
type Runner struct {
	mu      sync.Mutex
	results map[string]Result
	calls   []Call
}

// Call represents a captured command execution call.
type Call struct {
	Name string
	Args []string
}

// New creates a new fake runner.
func New() *Runner {
	return &Runner{
		results: make(map[string]Result),
	}
}

// SetOutput sets the stdout output for a specific command.
func (r *Runner) SetOutput(name string, args []string, output []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.results[makeKey(name, args)]
	res.Stdout = output
	r.results[makeKey(name, args)] = res
}

// SetError sets the error for a specific command.
func (r *Runner) SetError(name string, args []string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.results[makeKey(name, args)]
	res.Err = err
	r.results[makeKey(name, args)] = res
}

// SetResult sets the full result for a specific command.
func (r *Runner) SetResult(name string, args []string, res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[makeKey(name, args)] = res
}

// CombinedOutput implements execx.Runner.
func (r *Runner) CombinedOutput(_ context.Context, name string, args ...string) ([]byte, error) {
	res := r.record(name, args)
	if res.Err != nil {
		return nil, res.Err
	}
	out := append([]byte{}, res.Stdout...)
	return append(out, res.Stderr...), nil
}

// Run implements execx.Runner.
func (r *Runner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, int, error) {
	res := r.record(name, args)
	return res.Stdout, res.Stderr, res.ExitCode, res.Err
}

// GetCalls returns all captured command calls.
func (r *Runner) GetCalls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := make([]Call, len(r.calls))
	copy(calls, r.calls)
	return calls
}

// CallCount returns the number of captured calls.
func (r *Runner) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Reset clears all stored results and captured calls.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = make(map[string]Result)
	r.calls = nil
}

func (r *Runner) record(name string, args []string) Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Name: name, Args: args})
	return r.results[makeKey(name, args)]
}

func makeKey(name string, args []string) string {
	return fmt.Sprintf("%s %s", name, strings.Join(args, " "))
}
