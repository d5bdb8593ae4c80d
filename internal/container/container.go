// Package container manages the lifecycle of OS-level containers through
// an OCI command-line runtime.
//
// The manager owns a registry keyed by container name. The registry is the
// source of truth for identity and declared spec only; runtime status is
// re-queried from the runtime on every status or health call.
package container

import "strings"

// State is the lifecycle state of a managed container.
type State string

// Container lifecycle states.
const (
	StateCreated State = "created"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
	StateError   State = "error"
	StateUnknown State = "unknown"
)

// HealthState is the result of a container health check.
type HealthState string

// Health states.
const (
	Healthy   HealthState = "healthy"
	Starting  HealthState = "starting"
	Unhealthy HealthState = "unhealthy"
	Unknown   HealthState = "unknown"
)

// Info describes a registered container: its declared spec plus cached
// runtime metadata.
type Info struct {
	Name     string
	Image    string
	Runtime  string
	ID       string
	State    State
	Exported []string
}

// Stats holds point-in-time resource usage reported by the runtime.
type Stats struct {
	CPUPercent string
	MemUsage   string
}

// parseState maps a runtime-reported status string to a State. Runtimes
// agree on the common values; anything else maps to StateUnknown.
func parseState(raw string) State {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "created", "configured", "initialized":
		return StateCreated
	case "running", "up":
		return StateRunning
	case "paused":
		return StatePaused
	case "stopped", "exited":
		return StateStopped
	case "error", "dead", "removing":
		return StateError
	default:
		return StateUnknown
	}
}
