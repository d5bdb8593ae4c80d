package update

import (
	"errors"
	"fmt"
)

// RollbackError reports that restoring the pre-update snapshot failed
// after an apply failure. The system is in an indeterminate state; this is
// the most severe error class the engine produces.
type RollbackError struct {
	ApplyErr error // the failure that triggered the rollback
	Cause    error // the rollback failure itself
}

// Error implements the error interface.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed, system state is indeterminate: %v (apply failure: %v)", e.Cause, e.ApplyErr)
}

// Unwrap returns the rollback failure.
func (e *RollbackError) Unwrap() error {
	return e.Cause
}

// NewRollbackError creates a new RollbackError.
func NewRollbackError(applyErr, cause error) *RollbackError {
	return &RollbackError{
		ApplyErr: applyErr,
		Cause:    cause,
	}
}

// IsRollbackError checks if an error is a RollbackError.
func IsRollbackError(err error) bool {
	var rbErr *RollbackError
	return errors.As(err, &rbErr)
}
