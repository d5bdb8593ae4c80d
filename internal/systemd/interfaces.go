// Package systemd controls host services over the systemd D-Bus API.
package systemd

import (
	"context"

	"github.com/coreos/go-systemd/v22/dbus"
)

// Connection wraps systemd D-Bus operations for testability.
type Connection interface {
	// GetUnitProperty gets a property of a systemd unit.
	GetUnitProperty(ctx context.Context, unitName, propertyName string) (*dbus.Property, error)

	// GetUnitProperties gets all properties of a systemd unit.
	GetUnitProperties(ctx context.Context, unitName string) (map[string]interface{}, error)

	// StartUnit starts a systemd unit.
	StartUnit(ctx context.Context, unitName, mode string) (chan string, error)

	// StopUnit stops a systemd unit.
	StopUnit(ctx context.Context, unitName, mode string) (chan string, error)

	// RestartUnit restarts a systemd unit.
	RestartUnit(ctx context.Context, unitName, mode string) (chan string, error)

	// ReloadOrRestartUnit reloads a unit if it supports it, restarts otherwise.
	ReloadOrRestartUnit(ctx context.Context, unitName, mode string) (chan string, error)

	// EnableUnitFiles enables units to start at boot.
	EnableUnitFiles(ctx context.Context, files []string) error

	// DisableUnitFiles disables units from starting at boot.
	DisableUnitFiles(ctx context.Context, files []string) error

	// ResetFailedUnit resets the failed state of a unit.
	ResetFailedUnit(ctx context.Context, unitName string) error

	// Reload reloads systemd configuration.
	Reload(ctx context.Context) error

	// Close closes the connection.
	Close() error
}

// ConnectionFactory creates Connection instances.
type ConnectionFactory interface {
	// NewConnection creates a new systemd connection based on configuration.
	NewConnection(ctx context.Context, userMode bool) (Connection, error)
}

// ServiceManager is the high-level surface the reconciler uses to drive
// host services.
type ServiceManager interface {
	// ActiveState reports the unit's ActiveState property.
	ActiveState(ctx context.Context, service string) (string, error)

	// IsActive reports whether a service is active.
	IsActive(ctx context.Context, service string) (bool, error)

	// Start starts a service.
	Start(ctx context.Context, service string) error

	// Stop stops a service.
	Stop(ctx context.Context, service string) error

	// Restart restarts a service.
	Restart(ctx context.Context, service string) error

	// ReloadOrRestart reloads a service in place when it supports reload,
	// restarting it otherwise.
	ReloadOrRestart(ctx context.Context, service string) error

	// Enable enables a service to start at boot.
	Enable(ctx context.Context, service string) error

	// Disable disables a service from starting at boot.
	Disable(ctx context.Context, service string) error

	// DaemonReload reloads the systemd configuration.
	DaemonReload(ctx context.Context) error
}
