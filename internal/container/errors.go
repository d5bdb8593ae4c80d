package container

import (
	"fmt"
)

// Error represents a failed container operation. Step names the sub-step
// that failed when an operation has several (create, start,
// install-packages, post-create).
type Error struct {
	Op        string // The operation that failed (Create, Start, Exec, ...)
	Container string // The container name
	Step      string // The sub-step that failed, if the operation has several
	Cause     error  // The underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("container %s failed for %s at step %s: %v", e.Op, e.Container, e.Step, e.Cause)
	}
	return fmt.Sprintf("container %s failed for %s: %v", e.Op, e.Container, e.Cause)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given details.
func NewError(op, container, step string, cause error) *Error {
	return &Error{Op: op, Container: container, Step: step, Cause: cause}
}

// NotFoundError represents an error when a container is not in the registry.
type NotFoundError struct {
	Container string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("container not found: %s", e.Container)
}

// AlreadyExistsError represents a name collision in the registry.
type AlreadyExistsError struct {
	Container string
}

// Error implements the error interface.
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("container already exists: %s", e.Container)
}

// IsNotFound checks if an error is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAlreadyExists checks if an error is an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	_, ok := err.(*AlreadyExistsError)
	return ok
}
