package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volkov-io/convergd/internal/audit"
	"github.com/volkov-io/convergd/internal/change"
	"github.com/volkov-io/convergd/internal/config"
	"github.com/volkov-io/convergd/internal/container"
	"github.com/volkov-io/convergd/internal/layer"
	"github.com/volkov-io/convergd/internal/log"
	"github.com/volkov-io/convergd/internal/notify"
	"github.com/volkov-io/convergd/internal/snapshot"
	"github.com/volkov-io/convergd/internal/system"
	"github.com/volkov-io/convergd/internal/systemd"
	"github.com/volkov-io/convergd/internal/testutil/fakerunner"
	"github.com/volkov-io/convergd/internal/update"
	"github.com/volkov-io/convergd/internal/validate"
)

// ExecuteCommandWithCapture executes a cobra command and captures all output
// (stdout/stderr). This handles both cmd.Print* and fmt.Print* outputs by
// redirecting os.Stdout/os.Stderr.
func ExecuteCommandWithCapture(t *testing.T, cmd *cobra.Command, args []string) (output string, err error) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr
	oldTableWriter := table.DefaultWriter

	r, w, _ := os.Pipe()
	os.Stdout = w
	os.Stderr = w
	// table.DefaultWriter is bound to the original os.Stdout at package init,
	// so it must be redirected separately for table output to be captured.
	table.DefaultWriter = w

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)

	outputCh := make(chan string, 1)

	go func() {
		var captured bytes.Buffer
		_, _ = io.Copy(&captured, r)
		outputCh <- captured.String()
	}()

	err = cmd.Execute()

	_ = w.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr
	table.DefaultWriter = oldTableWriter

	capturedOutput := <-outputCh

	return capturedOutput + buf.String(), err
}

// AssertCommandOutput verifies command output contains expected strings.
func AssertCommandOutput(t *testing.T, cmd *cobra.Command, args []string, expectedOutputs ...string) {
	t.Helper()
	output, err := ExecuteCommandWithCapture(t, cmd, args)
	assert.NoError(t, err)

	for _, expected := range expectedOutputs {
		assert.Contains(t, output, expected, "Expected output to contain: %s\nActual output: %s", expected, output)
	}
}

// SetupCommandContext creates a command with app context for testing.
func SetupCommandContext(cmd *cobra.Command, app *App) {
	ctx := context.WithValue(context.Background(), appContextKey, app)
	cmd.SetContext(ctx)
}

// newTestApp builds an App wired to fakes and temp directories.
func newTestApp(t *testing.T) (*App, *fakerunner.Runner) {
	t.Helper()

	dir := t.TempDir()
	logger := log.NewLogger(false)
	runner := fakerunner.New()
	services := &systemd.MockServiceManager{}

	cfg := &config.Settings{
		StateDir:           dir,
		StatePath:          filepath.Join(dir, "state.json"),
		SnapshotDir:        filepath.Join(dir, "snapshots"),
		SnapshotKeep:       5,
		AuditDBPath:        filepath.Join(dir, "audit.db"),
		BinExportDir:       filepath.Join(dir, "bin"),
		Runtime:            "podman",
		MaxParallelOps:     2,
		ReloadableServices: config.DefaultReloadableServices,
		SecurityService:    config.DefaultSecurityService,
		ExpectedServices:   []string{"dbus"},
	}
	provider := config.NewDefaultConfigProvider()
	provider.SetConfig(cfg)

	containers := container.NewManager(logger, runner, container.Options{
		Runtime:      cfg.Runtime,
		BinExportDir: cfg.BinExportDir,
	})
	layers := layer.NewManager(logger, containers)
	snapshots := snapshot.NewManager(logger, cfg.StatePath, cfg.SnapshotDir, cfg.SnapshotKeep)

	auditStore, err := audit.Open(cfg.AuditDBPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = auditStore.Close() })

	notifier := notify.NewNotifier(logger, notify.NewLogSink(logger), auditStore)

	applier := update.NewHostApplier(runner, services, logger, filepath.Join(dir, "repos"))
	classifier := change.NewClassifier(cfg.ReloadableServices, cfg.SecurityService)
	updates := update.NewManager(logger, notifier, classifier, applier, snapshots,
		&update.FileStateSyncer{Path: cfg.StatePath})

	sys := system.NewManager(logger, notifier, containers, layers, services,
		updates, snapshots, cfg.StatePath, cfg.ExpectedServices)

	return &App{
		Logger:         logger,
		Config:         cfg,
		ConfigProvider: provider,
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
	}, runner
}
