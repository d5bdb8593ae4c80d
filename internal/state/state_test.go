package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volkov-io/convergd/internal/sysconfig"
)

func TestLoadNonExistentFile(t *testing.T) {
	s, err := Load("/nonexistent/path/state.json")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, s.SchemaVersion)
	assert.Nil(t, s.Applied)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "state.json")

	s := New()
	s.SetApplied(sysconfig.NewBuilder().Hostname("workstation").BuildPin("sha256:pin").Build())
	s.Containers = []ContainerRecord{{Name: "dev", Image: "fedora:41", State: "running"}}
	s.Layers = []LayerRecord{{Name: "development", Status: "running"}}

	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, loaded.SchemaVersion)
	assert.False(t, loaded.Timestamp.IsZero())
	require.NotNil(t, loaded.Applied)
	assert.Equal(t, "workstation", loaded.Applied.Hostname)
	assert.Equal(t, "sha256:pin", loaded.BuildPin)
	require.Len(t, loaded.Containers, 1)
	require.Len(t, loaded.Layers, 1)
}

func TestSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	s := New()
	require.NoError(t, s.Save(path))

	// No temp files are left behind after a successful save.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, strings.HasPrefix(entries[0].Name(), ".state-"))
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSetHealth(t *testing.T) {
	s := New()
	s.SetHealth("healthy", map[string]string{"container/dev": "healthy"})

	require.NotNil(t, s.LastHealth)
	assert.Equal(t, "healthy", s.LastHealth.Overall)
	assert.False(t, s.LastHealth.CheckedAt.IsZero())
}
