// Package validate checks configuration snapshots before any mutation.
package validate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/volkov-io/convergd/internal/execx"
	"github.com/volkov-io/convergd/internal/log"
	"github.com/volkov-io/convergd/internal/sysconfig"
)

// Resource names must be valid for runtime identifiers and filesystem
// paths. Allow alphanumeric, hyphen, underscore, and dot.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Config validates a configuration snapshot. All findings are collected
// into one ValidationErrors value; a nil return means the snapshot is
// safe to deploy.
func Config(cfg *sysconfig.Config) error {
	var errs ValidationErrors

	if cfg.Hostname == "" {
		errs = append(errs, ValidationError{Field: "Hostname", Message: "hostname is required"})
	}

	seen := make(map[string]struct{}, len(cfg.Containers))
	for i, c := range cfg.Containers {
		field := fmt.Sprintf("Containers[%d]", i)
		switch {
		case c.Name == "":
			errs = append(errs, ValidationError{Field: field, Message: "container name is required"})
		case !nameRegex.MatchString(c.Name):
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid container name %q: must start with alphanumeric and contain only alphanumeric, hyphen, underscore, or dot", c.Name),
			})
		}
		if c.Image == "" {
			errs = append(errs, ValidationError{Field: field, Message: "container image is required"})
		}
		if c.Name != "" {
			if _, dup := seen[c.Name]; dup {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("duplicate container name %q", c.Name),
				})
			}
			seen[c.Name] = struct{}{}
		}
	}

	errs = append(errs, validateLayers(cfg)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// validateLayers checks layer references and rejects dependency cycles.
func validateLayers(cfg *sysconfig.Config) ValidationErrors {
	var errs ValidationErrors

	byName := make(map[string]struct{}, len(cfg.Layers))
	for i, l := range cfg.Layers {
		field := fmt.Sprintf("Layers[%d]", i)
		if l.Name == "" {
			errs = append(errs, ValidationError{Field: field, Message: "layer name is required"})
			continue
		}
		if _, dup := byName[l.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate layer name %q", l.Name),
			})
		}
		byName[l.Name] = struct{}{}

		if l.Container != "" {
			if _, ok := cfg.FindContainer(l.Container); !ok {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("layer %q references unknown container %q", l.Name, l.Container),
				})
			}
		}
	}

	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, l := range cfg.Layers {
		if l.Name != "" {
			_ = g.AddVertex(l.Name)
		}
	}

	for _, l := range cfg.Layers {
		for _, dep := range l.Dependencies {
			if _, ok := byName[dep]; !ok {
				errs = append(errs, ValidationError{
					Field:   "Layers",
					Message: fmt.Sprintf("layer %q depends on unknown layer %q", l.Name, dep),
				})
				continue
			}
			if dep == l.Name {
				errs = append(errs, ValidationError{
					Field:   "Layers",
					Message: fmt.Sprintf("layer %q cannot depend on itself", l.Name),
				})
				continue
			}
			if err := g.AddEdge(dep, l.Name); err != nil {
				if errors.Is(err, graph.ErrEdgeCreatesCycle) {
					errs = append(errs, ValidationError{
						Field:   "Layers",
						Message: fmt.Sprintf("circular dependency involving layers %q and %q", dep, l.Name),
					})
				}
				continue
			}
		}
	}

	return errs
}

// Validator checks host prerequisites before the engine runs.
type Validator struct {
	logger log.Logger
	runner execx.Runner
}

// NewValidator creates a new Validator with the provided logger and
// command runner.
func NewValidator(logger log.Logger, runner execx.Runner) *Validator {
	return &Validator{
		logger: logger,
		runner: runner,
	}
}

// SystemRequirements checks that the configured container runtime is
// installed and responding.
func (v *Validator) SystemRequirements(ctx context.Context, runtimeName string) error {
	v.logger.Debug("Validating container runtime availability", "runtime", runtimeName)

	output, err := v.runner.CombinedOutput(ctx, runtimeName, "--version")
	if err != nil {
		return fmt.Errorf("container runtime %s is not available: %w", runtimeName, err)
	}

	v.logger.Debug("Container runtime available", "version", strings.TrimSpace(string(output)))
	return nil
}
