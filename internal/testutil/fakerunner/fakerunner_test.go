package fakerunner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeRunner(t *testing.T) {
	t.Run("new runner starts empty", func(t *testing.T) {
		runner := New()
		assert.Empty(t, runner.GetCalls())
	})

	t.Run("set and get output", func(t *testing.T) {
		runner := New()
		runner.SetOutput("echo", []string{"hello"}, []byte("test output"))

		output, err := runner.CombinedOutput(context.Background(), "echo", "hello")
		require.NoError(t, err)
		assert.Equal(t, []byte("test output"), output)
	})

	t.Run("set and get error", func(t *testing.T) {
		runner := New()
		expectedErr := errors.New("test error")
		runner.SetError("failing-command", []string{}, expectedErr)

		output, err := runner.CombinedOutput(context.Background(), "failing-command")
		assert.Nil(t, output)
		assert.Equal(t, expectedErr, err)
	})

	t.Run("run returns full result", func(t *testing.T) {
		runner := New()
		runner.SetResult("podman", []string{"inspect", "web"}, Result{
			Stdout:   []byte("running"),
			Stderr:   []byte("warning"),
			ExitCode: 2,
		})

		stdout, stderr, code, err := runner.Run(context.Background(), "podman", "inspect", "web")
		require.NoError(t, err)
		assert.Equal(t, []byte("running"), stdout)
		assert.Equal(t, []byte("warning"), stderr)
		assert.Equal(t, 2, code)
	})

	t.Run("captures calls", func(t *testing.T) {
		runner := New()

		_, _ = runner.CombinedOutput(context.Background(), "echo", "hello")
		_, _, _, _ = runner.Run(context.Background(), "ls", "-la")

		calls := runner.GetCalls()
		require.Len(t, calls, 2)
		assert.Equal(t, "echo", calls[0].Name)
		assert.Equal(t, []string{"hello"}, calls[0].Args)
		assert.Equal(t, "ls", calls[1].Name)
	})

	t.Run("default behavior returns empty output", func(t *testing.T) {
		runner := New()
		output, err := runner.CombinedOutput(context.Background(), "unknown-command")
		require.NoError(t, err)
		assert.Empty(t, output)
	})

	t.Run("reset clears state", func(t *testing.T) {
		runner := New()
		runner.SetOutput("echo", []string{"test"}, []byte("output"))
		_, _ = runner.CombinedOutput(context.Background(), "echo", "test")

		runner.Reset()

		assert.Zero(t, runner.CallCount())
		output, err := runner.CombinedOutput(context.Background(), "echo", "test")
		require.NoError(t, err)
		assert.Empty(t, output)
	})
}
