package systemd

import (
	"context"
	"strings"

	"github.com/volkov-io/convergd/internal/log"
)

// Client drives host services through a systemd connection. It implements
// ServiceManager.
type Client struct {
	factory  ConnectionFactory
	logger   log.Logger
	userMode bool
}

// NewClient creates a service client using the given connection factory.
func NewClient(factory ConnectionFactory, logger log.Logger, userMode bool) *Client {
	return &Client{
		factory:  factory,
		logger:   logger,
		userMode: userMode,
	}
}

// UnitName normalizes a service name to a full unit name.
func UnitName(service string) string {
	if strings.Contains(service, ".") {
		return service
	}
	return service + ".service"
}

// ActiveState reports the unit's ActiveState property.
func (c *Client) ActiveState(ctx context.Context, service string) (string, error) {
	conn, err := c.factory.NewConnection(ctx, c.userMode)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()

	prop, err := conn.GetUnitProperty(ctx, UnitName(service), "ActiveState")
	if err != nil {
		return "", NewError("ActiveState", service, err)
	}

	state, ok := prop.Value.Value().(string)
	if !ok {
		return "unknown", nil
	}
	return state, nil
}

// IsActive reports whether a service is active.
func (c *Client) IsActive(ctx context.Context, service string) (bool, error) {
	state, err := c.ActiveState(ctx, service)
	if err != nil {
		return false, err
	}
	return state == "active", nil
}

// Start starts a service and waits for the job to finish.
func (c *Client) Start(ctx context.Context, service string) error {
	return c.runJob(ctx, "Start", service, Connection.StartUnit)
}

// Stop stops a service and waits for the job to finish.
func (c *Client) Stop(ctx context.Context, service string) error {
	return c.runJob(ctx, "Stop", service, Connection.StopUnit)
}

// Restart restarts a service and waits for the job to finish.
func (c *Client) Restart(ctx context.Context, service string) error {
	return c.runJob(ctx, "Restart", service, Connection.RestartUnit)
}

// ReloadOrRestart reloads the service in place when it supports reload,
// restarting it otherwise.
func (c *Client) ReloadOrRestart(ctx context.Context, service string) error {
	return c.runJob(ctx, "ReloadOrRestart", service, Connection.ReloadOrRestartUnit)
}

// Enable enables a service to start at boot.
func (c *Client) Enable(ctx context.Context, service string) error {
	conn, err := c.factory.NewConnection(ctx, c.userMode)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if err := conn.EnableUnitFiles(ctx, []string{UnitName(service)}); err != nil {
		return NewError("Enable", service, err)
	}
	return conn.Reload(ctx)
}

// Disable disables a service from starting at boot.
func (c *Client) Disable(ctx context.Context, service string) error {
	conn, err := c.factory.NewConnection(ctx, c.userMode)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if err := conn.DisableUnitFiles(ctx, []string{UnitName(service)}); err != nil {
		return NewError("Disable", service, err)
	}
	return conn.Reload(ctx)
}

// DaemonReload reloads the systemd configuration.
func (c *Client) DaemonReload(ctx context.Context) error {
	conn, err := c.factory.NewConnection(ctx, c.userMode)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	return conn.Reload(ctx)
}

type jobFunc func(Connection, context.Context, string, string) (chan string, error)

func (c *Client) runJob(ctx context.Context, operation, service string, start jobFunc) error {
	conn, err := c.factory.NewConnection(ctx, c.userMode)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	unit := UnitName(service)
	c.logger.Debug("Running systemd job", "operation", operation, "unit", unit)

	ch, err := start(conn, ctx, unit, "replace")
	if err != nil {
		return NewError(operation, service, err)
	}

	select {
	case result := <-ch:
		if result != "done" {
			return NewJobError(operation, service, result)
		}
	case <-ctx.Done():
		return NewError(operation, service, ctx.Err())
	}

	c.logger.Debug("Systemd job finished", "operation", operation, "unit", unit)
	return nil
}
