package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/volkov-io/convergd/internal/state"
)

func TestStatusCommandWithoutStateRecord(t *testing.T) {
	app, _ := newTestApp(t)

	cmd := NewStatusCommand().GetCobraCommand()
	SetupCommandContext(cmd, app)

	AssertCommandOutput(t, cmd, []string{"--output", "text"},
		"No state record found.")
}

func TestStatusCommandShowsPersistedRecord(t *testing.T) {
	app, _ := newTestApp(t)

	st, err := state.Load(app.Config.StatePath)
	require.NoError(t, err)
	st.Containers = []state.ContainerRecord{
		{Name: "utils", Image: "fedora-toolbox:41", Runtime: "podman", State: "running"},
	}
	st.Layers = []state.LayerRecord{
		{Name: "development", Status: "active", Strategy: "always-on"},
	}
	require.NoError(t, st.Save(app.Config.StatePath))

	cmd := NewStatusCommand().GetCobraCommand()
	SetupCommandContext(cmd, app)

	AssertCommandOutput(t, cmd, []string{"--output", "text"},
		"Last updated:", "utils", "fedora-toolbox:41", "development", "always-on")
}
