/*
Copyright © 2026 Andrei Volkov andrei@volkov.io

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	sddaemon "github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/volkov-io/convergd/internal/sysconfig"
	"github.com/volkov-io/convergd/internal/update"
)

// watchdogInterval is how often the daemon pings the systemd watchdog.
const watchdogInterval = 30 * time.Second

// DaemonCommand represents the daemon command for the convergd CLI.
type DaemonCommand struct {
	clock clock.Clock
}

// NewDaemonCommand creates a new DaemonCommand.
func NewDaemonCommand() *DaemonCommand {
	return &DaemonCommand{clock: clock.New()}
}

// getApp retrieves the App from the command context.
func (c *DaemonCommand) getApp(cmd *cobra.Command) *App {
	return cmd.Context().Value(appContextKey).(*App)
}

var (
	daemonInterval     time.Duration
	daemonFile         string
	daemonAllowPartial bool
)

// GetCobraCommand returns the cobra command for daemon operations.
func (c *DaemonCommand) GetCobraCommand() *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run convergd as a daemon with periodic reconciliation",
		Long: `Run convergd as a daemon with periodic reconciliation against the
configuration snapshot. The daemon performs an initial reconciliation and
then keeps running, re-reading the snapshot and applying drift at the
configured interval.

The daemon integrates with systemd, sending readiness and watchdog
notifications when running under systemd supervision.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			app := c.getApp(cmd)
			return app.Validator.SystemRequirements(cmd.Context(), app.Config.Runtime)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := c.getApp(cmd)

			if daemonInterval > 0 {
				app.Config.ReconcileInterval = daemonInterval
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if app.Config.Verbose {
				app.Logger.Info("Performing initial reconciliation")
			}
			c.reconcile(ctx, app)

			return c.runDaemon(ctx, app)
		},
	}

	daemonCmd.Flags().DurationVarP(&daemonInterval, "interval", "i", 0, "Interval between reconciliation passes (0 uses the configured default)")
	daemonCmd.Flags().StringVarP(&daemonFile, "file", "f", "", "Path to the configuration snapshot")
	daemonCmd.Flags().BoolVar(&daemonAllowPartial, "allow-partial", false, "Apply live changes even when some changes require a reboot")

	return daemonCmd
}

// reconcile performs one reconciliation pass against the configuration snapshot.
func (c *DaemonCommand) reconcile(ctx context.Context, app *App) {
	desired, err := sysconfig.LoadFile(resolveSnapshotFile(app, daemonFile))
	if err != nil {
		app.Logger.Error("Failed to load configuration snapshot", "error", err)
		return
	}

	result, err := app.System.Update(ctx, desired, update.Options{
		AllowPartialUpdate:    daemonAllowPartial,
		RollbackOnFailure:     true,
		MaxParallelOperations: app.Config.MaxParallelOps,
	})
	if err != nil {
		app.Logger.Error("Reconciliation failed", "error", err)
		return
	}

	switch result.Outcome {
	case update.OutcomeNoChangesRequired:
		app.Logger.Debug("Reconciliation finished", "outcome", result.Outcome)
	case update.OutcomeRebootRequired:
		app.Logger.Warn("Reconciliation blocked on reboot-required changes",
			"pending", len(result.Pending))
	default:
		app.Logger.Info("Reconciliation finished",
			"outcome", result.Outcome,
			"applied", len(result.Applied),
			"failed", len(result.Failed))
	}
}

// runDaemon starts the daemon loop with periodic reconciliation passes.
func (c *DaemonCommand) runDaemon(ctx context.Context, app *App) error {
	app.Logger.Info("Starting reconciliation daemon", "interval", app.Config.ReconcileInterval)

	if sent, err := sddaemon.SdNotify(false, sddaemon.SdNotifyReady); err != nil {
		app.Logger.Warn("Failed to notify systemd of readiness", "error", err)
	} else if sent {
		app.Logger.Info("Notified systemd that daemon is ready")
	}

	ticker := c.clock.Ticker(app.Config.ReconcileInterval)
	defer ticker.Stop()

	watchdogTicker := c.clock.Ticker(watchdogInterval)
	defer watchdogTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			app.Logger.Info("Shutting down reconciliation daemon")
			if _, err := sddaemon.SdNotify(false, sddaemon.SdNotifyStopping); err != nil {
				app.Logger.Debug("Failed to notify systemd of shutdown", "error", err)
			}
			return nil
		case <-ticker.C:
			app.Logger.Debug("Starting scheduled reconciliation")
			c.reconcile(ctx, app)
		case <-watchdogTicker.C:
			if sent, err := sddaemon.SdNotify(false, sddaemon.SdNotifyWatchdog); err != nil {
				app.Logger.Debug("Failed to send watchdog notification", "error", err)
			} else if sent {
				app.Logger.Debug("Sent watchdog notification to systemd")
			}
		}
	}
}
