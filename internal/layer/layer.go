// Package layer orchestrates named software layers on top of the
// container manager.
//
// A layer wraps exactly one container plus activation policy: dependencies
// on other layers, a start strategy and a priority. Deployment is
// dependency-ordered; a dependency graph that cannot make progress is a
// fatal configuration error, never retried.
package layer

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a layer.
type Status string

// Layer lifecycle states.
const (
	StatusCreated  Status = "created"
	StatusDeployed Status = "deployed"
	StatusRunning  Status = "running"
	StatusStopped  Status = "stopped"
	StatusFailed   Status = "failed"
)

// Info describes a managed layer.
type Info struct {
	Name         string
	Purpose      string
	Container    string
	Strategy     string
	Priority     int
	Dependencies []string
	Status       Status
}

// Result reports the outcome of deploying one layer.
type Result struct {
	Layer  string
	Status Status
	Err    error
}

// CircularDependencyError reports a dependency graph that cannot make
// progress: the remaining layers each wait on something in the set (a
// cycle) or on a dependency that does not exist.
type CircularDependencyError struct {
	Remaining []string
}

// Error implements the error interface.
func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular or unresolvable layer dependencies: %s", strings.Join(e.Remaining, ", "))
}

// IsCircularDependency checks if an error is a CircularDependencyError.
func IsCircularDependency(err error) bool {
	_, ok := err.(*CircularDependencyError)
	return ok
}
