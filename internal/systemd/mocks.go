package systemd

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
)

// MockConnection implements Connection for testing.
type MockConnection struct {
	GetUnitPropertyFunc     func(ctx context.Context, unitName, propertyName string) (*dbus.Property, error)
	GetUnitPropertiesFunc   func(ctx context.Context, unitName string) (map[string]interface{}, error)
	StartUnitFunc           func(ctx context.Context, unitName, mode string) (chan string, error)
	StopUnitFunc            func(ctx context.Context, unitName, mode string) (chan string, error)
	RestartUnitFunc         func(ctx context.Context, unitName, mode string) (chan string, error)
	ReloadOrRestartUnitFunc func(ctx context.Context, unitName, mode string) (chan string, error)
	EnableUnitFilesFunc     func(ctx context.Context, files []string) error
	DisableUnitFilesFunc    func(ctx context.Context, files []string) error
	ResetFailedUnitFunc     func(ctx context.Context, unitName string) error
	ReloadFunc              func(ctx context.Context) error
	CloseFunc               func() error
}

// GetUnitProperty gets a property of a systemd unit.
func (m *MockConnection) GetUnitProperty(ctx context.Context, unitName, propertyName string) (*dbus.Property, error) {
	if m.GetUnitPropertyFunc != nil {
		return m.GetUnitPropertyFunc(ctx, unitName, propertyName)
	}
	return nil, fmt.Errorf("mock not implemented")
}

// GetUnitProperties gets all properties of a systemd unit.
func (m *MockConnection) GetUnitProperties(ctx context.Context, unitName string) (map[string]interface{}, error) {
	if m.GetUnitPropertiesFunc != nil {
		return m.GetUnitPropertiesFunc(ctx, unitName)
	}
	return nil, fmt.Errorf("mock not implemented")
}

// StartUnit starts a systemd unit.
func (m *MockConnection) StartUnit(ctx context.Context, unitName, mode string) (chan string, error) {
	if m.StartUnitFunc != nil {
		return m.StartUnitFunc(ctx, unitName, mode)
	}
	return nil, fmt.Errorf("mock not implemented")
}

// StopUnit stops a systemd unit.
func (m *MockConnection) StopUnit(ctx context.Context, unitName, mode string) (chan string, error) {
	if m.StopUnitFunc != nil {
		return m.StopUnitFunc(ctx, unitName, mode)
	}
	return nil, fmt.Errorf("mock not implemented")
}

// RestartUnit restarts a systemd unit.
func (m *MockConnection) RestartUnit(ctx context.Context, unitName, mode string) (chan string, error) {
	if m.RestartUnitFunc != nil {
		return m.RestartUnitFunc(ctx, unitName, mode)
	}
	return nil, fmt.Errorf("mock not implemented")
}

// ReloadOrRestartUnit reloads or restarts a systemd unit.
func (m *MockConnection) ReloadOrRestartUnit(ctx context.Context, unitName, mode string) (chan string, error) {
	if m.ReloadOrRestartUnitFunc != nil {
		return m.ReloadOrRestartUnitFunc(ctx, unitName, mode)
	}
	return nil, fmt.Errorf("mock not implemented")
}

// EnableUnitFiles enables units to start at boot.
func (m *MockConnection) EnableUnitFiles(ctx context.Context, files []string) error {
	if m.EnableUnitFilesFunc != nil {
		return m.EnableUnitFilesFunc(ctx, files)
	}
	return fmt.Errorf("mock not implemented")
}

// DisableUnitFiles disables units from starting at boot.
func (m *MockConnection) DisableUnitFiles(ctx context.Context, files []string) error {
	if m.DisableUnitFilesFunc != nil {
		return m.DisableUnitFilesFunc(ctx, files)
	}
	return fmt.Errorf("mock not implemented")
}

// ResetFailedUnit resets the failed state of a unit.
func (m *MockConnection) ResetFailedUnit(ctx context.Context, unitName string) error {
	if m.ResetFailedUnitFunc != nil {
		return m.ResetFailedUnitFunc(ctx, unitName)
	}
	return fmt.Errorf("mock not implemented")
}

// Reload reloads systemd configuration.
func (m *MockConnection) Reload(ctx context.Context) error {
	if m.ReloadFunc != nil {
		return m.ReloadFunc(ctx)
	}
	return fmt.Errorf("mock not implemented")
}

// Close closes the connection.
func (m *MockConnection) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockConnectionFactory implements ConnectionFactory for testing.
type MockConnectionFactory struct {
	NewConnectionFunc func(ctx context.Context, userMode bool) (Connection, error)
	Connection        Connection
}

// NewConnection creates a new systemd connection based on configuration.
func (m *MockConnectionFactory) NewConnection(ctx context.Context, userMode bool) (Connection, error) {
	if m.NewConnectionFunc != nil {
		return m.NewConnectionFunc(ctx, userMode)
	}
	if m.Connection != nil {
		return m.Connection, nil
	}
	return nil, fmt.Errorf("mock not configured")
}

// MockServiceManager implements ServiceManager for testing.
type MockServiceManager struct {
	ActiveStateFunc     func(ctx context.Context, service string) (string, error)
	IsActiveFunc        func(ctx context.Context, service string) (bool, error)
	StartFunc           func(ctx context.Context, service string) error
	StopFunc            func(ctx context.Context, service string) error
	RestartFunc         func(ctx context.Context, service string) error
	ReloadOrRestartFunc func(ctx context.Context, service string) error
	EnableFunc          func(ctx context.Context, service string) error
	DisableFunc         func(ctx context.Context, service string) error
	DaemonReloadFunc    func(ctx context.Context) error
}

// ActiveState reports the unit's ActiveState property.
func (m *MockServiceManager) ActiveState(ctx context.Context, service string) (string, error) {
	if m.ActiveStateFunc != nil {
		return m.ActiveStateFunc(ctx, service)
	}
	return "active", nil
}

// IsActive reports whether a service is active.
func (m *MockServiceManager) IsActive(ctx context.Context, service string) (bool, error) {
	if m.IsActiveFunc != nil {
		return m.IsActiveFunc(ctx, service)
	}
	return true, nil
}

// Start starts a service.
func (m *MockServiceManager) Start(ctx context.Context, service string) error {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, service)
	}
	return nil
}

// Stop stops a service.
func (m *MockServiceManager) Stop(ctx context.Context, service string) error {
	if m.StopFunc != nil {
		return m.StopFunc(ctx, service)
	}
	return nil
}

// Restart restarts a service.
func (m *MockServiceManager) Restart(ctx context.Context, service string) error {
	if m.RestartFunc != nil {
		return m.RestartFunc(ctx, service)
	}
	return nil
}

// ReloadOrRestart reloads or restarts a service.
func (m *MockServiceManager) ReloadOrRestart(ctx context.Context, service string) error {
	if m.ReloadOrRestartFunc != nil {
		return m.ReloadOrRestartFunc(ctx, service)
	}
	return nil
}

// Enable enables a service to start at boot.
func (m *MockServiceManager) Enable(ctx context.Context, service string) error {
	if m.EnableFunc != nil {
		return m.EnableFunc(ctx, service)
	}
	return nil
}

// Disable disables a service from starting at boot.
func (m *MockServiceManager) Disable(ctx context.Context, service string) error {
	if m.DisableFunc != nil {
		return m.DisableFunc(ctx, service)
	}
	return nil
}

// DaemonReload reloads the systemd configuration.
func (m *MockServiceManager) DaemonReload(ctx context.Context) error {
	if m.DaemonReloadFunc != nil {
		return m.DaemonReloadFunc(ctx)
	}
	return nil
}
