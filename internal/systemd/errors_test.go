package systemd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("unit masked")
	err := NewError("Start", "nginx", cause)

	assert.Equal(t, "systemd Start failed for nginx: unit masked", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestConnectionErrorFormatting(t *testing.T) {
	cause := errors.New("dial error")

	systemErr := NewConnectionError(false, cause)
	assert.Contains(t, systemErr.Error(), "system bus")

	userErr := NewConnectionError(true, cause)
	assert.Contains(t, userErr.Error(), "user bus")
	assert.ErrorIs(t, userErr, cause)
}

func TestJobErrorFormatting(t *testing.T) {
	err := NewJobError("Restart", "sshd", "timeout")

	assert.Contains(t, err.Error(), "Restart")
	assert.Contains(t, err.Error(), "sshd")
	assert.Contains(t, err.Error(), "timeout")
}

func TestErrorTypeChecks(t *testing.T) {
	cause := errors.New("cause")

	assert.True(t, IsError(NewError("Stop", "x", cause)))
	assert.False(t, IsError(cause))

	assert.True(t, IsConnectionError(NewConnectionError(false, cause)))
	assert.False(t, IsConnectionError(cause))

	assert.True(t, IsJobError(NewJobError("Start", "x", "failed")))
	assert.False(t, IsJobError(cause))
}
