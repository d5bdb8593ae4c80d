// Package cmd provides the command line interface for convergd
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/volkov-io/convergd/internal/audit"
	"github.com/volkov-io/convergd/internal/change"
	"github.com/volkov-io/convergd/internal/config"
	"github.com/volkov-io/convergd/internal/container"
	"github.com/volkov-io/convergd/internal/execx"
	"github.com/volkov-io/convergd/internal/layer"
	"github.com/volkov-io/convergd/internal/log"
	"github.com/volkov-io/convergd/internal/notify"
	"github.com/volkov-io/convergd/internal/snapshot"
	"github.com/volkov-io/convergd/internal/system"
	"github.com/volkov-io/convergd/internal/systemd"
	"github.com/volkov-io/convergd/internal/update"
	"github.com/volkov-io/convergd/internal/validate"
)

type contextKey string

// appContextKey carries the App through the cobra command context.
const appContextKey contextKey = "convergd-app"

// App holds the application dependencies for the command line interface.
type App struct {
	Logger         log.Logger
	Config         *config.Settings
	ConfigProvider config.Provider
	Runner         execx.Runner
	Services       systemd.ServiceManager
	Containers     *container.Manager
	Layers         *layer.Manager
	Snapshots      *snapshot.Manager
	Audit          *audit.Store
	Notifier       *notify.Notifier
	Updates        *update.Manager
	System         *system.Manager
	Validator      *validate.Validator
}

// NewApp creates a new App with all dependencies initialized.
func NewApp(logger log.Logger, configProv config.Provider) (*App, error) {
	cfg := configProv.GetConfig()

	if err := os.MkdirAll(cfg.StateDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	runner := execx.NewRealRunner(cfg.CommandTimeout)
	services := systemd.NewClient(systemd.NewConnectionFactory(logger), logger, cfg.UserMode)

	containers := container.NewManager(logger, runner, container.Options{
		Runtime:      cfg.Runtime,
		BinExportDir: cfg.BinExportDir,
	})
	layers := layer.NewManager(logger, containers)
	snapshots := snapshot.NewManager(logger, cfg.StatePath, cfg.SnapshotDir, cfg.SnapshotKeep)

	auditStore, err := audit.Open(cfg.AuditDBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit store: %w", err)
	}

	notifier := notify.NewNotifier(logger,
		notify.NewLogSink(logger),
		notify.NewFileSink(filepath.Join(cfg.StateDir, "notifications.log")),
		notify.NewJournalSink(),
		auditStore,
	)

	applier := update.NewHostApplier(runner, services, logger, update.DefaultRepoDir)
	classifier := change.NewClassifier(cfg.ReloadableServices, cfg.SecurityService)
	updates := update.NewManager(logger, notifier, classifier, applier, snapshots,
		&update.FileStateSyncer{Path: cfg.StatePath})

	sys := system.NewManager(logger, notifier, containers, layers, services,
		updates, snapshots, cfg.StatePath, cfg.ExpectedServices)

	return &App{
		Logger:         logger,
		Config:         cfg,
		ConfigProvider: configProv,
		Runner:         runner,
		Services:       services,
		Containers:     containers,
		Layers:         layers,
		Snapshots:      snapshots,
		Audit:          auditStore,
		Notifier:       notifier,
		Updates:        updates,
		System:         sys,
		Validator:      validate.NewValidator(logger, runner),
	}, nil
}

// Close releases resources held by the App.
func (a *App) Close() error {
	if a.Audit != nil {
		return a.Audit.Close()
	}
	return nil
}
