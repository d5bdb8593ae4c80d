package systemd

import (
	"errors"
	"fmt"
)

// Error represents a failed service operation.
type Error struct {
	Operation string // The operation that failed (Start, Stop, ReloadOrRestart, etc.)
	Service   string // The service name
	Cause     error  // The underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("systemd %s failed for %s: %v", e.Operation, e.Service, e.Cause)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given details.
func NewError(operation, service string, cause error) *Error {
	return &Error{
		Operation: operation,
		Service:   service,
		Cause:     cause,
	}
}

// ConnectionError represents an error connecting to systemd.
type ConnectionError struct {
	UserMode bool  // Whether this was a user or system connection attempt
	Cause    error // The underlying error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	mode := "system"
	if e.UserMode {
		mode = "user"
	}
	return fmt.Sprintf("failed to connect to systemd %s bus: %v", mode, e.Cause)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(userMode bool, cause error) *ConnectionError {
	return &ConnectionError{
		UserMode: userMode,
		Cause:    cause,
	}
}

// JobError represents a systemd job that completed with a result other
// than "done".
type JobError struct {
	Operation string
	Service   string
	Result    string // failed, timeout, canceled, dependency, skipped
}

// Error implements the error interface.
func (e *JobError) Error() string {
	return fmt.Sprintf("systemd %s job for %s finished with result %q", e.Operation, e.Service, e.Result)
}

// NewJobError creates a new JobError.
func NewJobError(operation, service, result string) *JobError {
	return &JobError{
		Operation: operation,
		Service:   service,
		Result:    result,
	}
}

// IsConnectionError checks if an error is a ConnectionError.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// IsError checks if an error is a systemd Error.
func IsError(err error) bool {
	var sysErr *Error
	return errors.As(err, &sysErr)
}

// IsJobError checks if an error is a JobError.
func IsJobError(err error) bool {
	var jobErr *JobError
	return errors.As(err, &jobErr)
}
