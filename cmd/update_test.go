package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volkov-io/convergd/internal/sysconfig"
)

func TestUpdateCommandAppliesLiveChanges(t *testing.T) {
	app, runner := newTestApp(t)

	desired := &sysconfig.Config{
		Hostname: "workstation",
		Packages: sysconfig.Packages{Install: []string{"htop"}},
	}
	path := writeSnapshotFile(t, desired)

	cmd := NewUpdateCommand().GetCobraCommand()
	SetupCommandContext(cmd, app)

	AssertCommandOutput(t, cmd, []string{"--file", path},
		"Outcome: Success", "applied: 1", "snapshot:")

	require.NotZero(t, runner.CallCount())

	st, err := app.System.Status()
	require.NoError(t, err)
	require.NotNil(t, st.Applied)
	assert.Equal(t, []string{"htop"}, st.Applied.Packages.Install)
}

func TestUpdateCommandNoChanges(t *testing.T) {
	app, _ := newTestApp(t)

	path := writeSnapshotFile(t, &sysconfig.Config{Hostname: "workstation"})

	cmd := NewUpdateCommand().GetCobraCommand()
	SetupCommandContext(cmd, app)

	AssertCommandOutput(t, cmd, []string{"--file", path},
		"Outcome: No Changes Required")
}

func TestUpdateCommandFailureRollsBackAndReturnsError(t *testing.T) {
	app, runner := newTestApp(t)

	packages := sysconfig.Packages{Install: []string{"htop"}}

	// Seed the applied configuration with a successful update first.
	seedPath := writeSnapshotFile(t, &sysconfig.Config{Hostname: "workstation", Packages: packages})
	seedCmd := NewUpdateCommand().GetCobraCommand()
	SetupCommandContext(seedCmd, app)
	_, err := ExecuteCommandWithCapture(t, seedCmd, []string{"--file", seedPath})
	require.NoError(t, err)

	runner.SetError("hostnamectl", []string{"set-hostname", "renamed-host"}, errors.New("boom"))

	path := writeSnapshotFile(t, &sysconfig.Config{Hostname: "renamed-host", Packages: packages})
	cmd := NewUpdateCommand().GetCobraCommand()
	SetupCommandContext(cmd, app)

	output, err := ExecuteCommandWithCapture(t, cmd, []string{"--file", path})
	require.Error(t, err)
	assert.Contains(t, output, "rolled back")

	// The applied configuration still carries the seeded hostname.
	st, err := app.System.Status()
	require.NoError(t, err)
	require.NotNil(t, st.Applied)
	assert.Equal(t, "workstation", st.Applied.Hostname)
}
