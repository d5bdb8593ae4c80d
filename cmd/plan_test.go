package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/volkov-io/convergd/internal/sysconfig"
)

func writeSnapshotFile(t *testing.T, cfg *sysconfig.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "system.yaml")
	require.NoError(t, sysconfig.WriteFile(path, cfg))
	return path
}

func TestPlanCommandListsDetectedChanges(t *testing.T) {
	app, _ := newTestApp(t)

	desired := &sysconfig.Config{
		Hostname: "workstation",
		Packages: sysconfig.Packages{Install: []string{"htop"}},
	}
	path := writeSnapshotFile(t, desired)

	cmd := NewPlanCommand().GetCobraCommand()
	SetupCommandContext(cmd, app)

	AssertCommandOutput(t, cmd, []string{"--file", path, "--output", "text"},
		"package-install", "htop", "Live")
}

func TestPlanCommandNoChanges(t *testing.T) {
	app, _ := newTestApp(t)

	path := writeSnapshotFile(t, &sysconfig.Config{Hostname: "workstation"})

	cmd := NewPlanCommand().GetCobraCommand()
	SetupCommandContext(cmd, app)

	AssertCommandOutput(t, cmd, []string{"--file", path, "--output", "text"},
		"No changes required.")
}

func TestPlanCommandDoesNotMutate(t *testing.T) {
	app, runner := newTestApp(t)

	desired := &sysconfig.Config{
		Hostname: "workstation",
		Packages: sysconfig.Packages{Install: []string{"htop"}},
	}
	path := writeSnapshotFile(t, desired)

	cmd := NewPlanCommand().GetCobraCommand()
	SetupCommandContext(cmd, app)

	_, err := ExecuteCommandWithCapture(t, cmd, []string{"--file", path, "--output", "text"})
	require.NoError(t, err)
	require.Zero(t, runner.CallCount())
}
