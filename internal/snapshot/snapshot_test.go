package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volkov-io/convergd/internal/log"
)

func newTestManager(t *testing.T, keep int) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	mgr := NewManager(log.NewLogger(false), statePath, filepath.Join(dir, "snapshots"), keep)
	return mgr, statePath
}

func TestCaptureAndRestoreRoundTrip(t *testing.T) {
	mgr, statePath := newTestManager(t, 10)

	original := []byte(`{"schema_version":1,"hostname":"before"}`)
	require.NoError(t, os.WriteFile(statePath, original, 0o644))

	id, err := mgr.Capture()
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// Mutate state, then restore.
	require.NoError(t, os.WriteFile(statePath, []byte(`{"hostname":"after"}`), 0o644))
	require.NoError(t, mgr.Restore(id))

	restored, err := os.ReadFile(statePath)
	require.NoError(t, err)
	// Byte-for-byte identity with the captured state.
	assert.Equal(t, original, restored)
}

func TestCaptureWithoutStateFile(t *testing.T) {
	mgr, statePath := newTestManager(t, 10)

	id, err := mgr.Capture()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(statePath, []byte("{}"), 0o644))
	require.NoError(t, mgr.Restore(id))

	// Restoring a pre-state snapshot removes the state file again.
	_, err = os.Stat(statePath)
	assert.True(t, os.IsNotExist(err))
}

func TestRestoreUnknownSnapshot(t *testing.T) {
	mgr, _ := newTestManager(t, 10)
	assert.Error(t, mgr.Restore("20000101T000000.000000000Z"))
}

func TestListNewestFirstAndLatest(t *testing.T) {
	mgr, statePath := newTestManager(t, 10)
	require.NoError(t, os.WriteFile(statePath, []byte("{}"), 0o644))

	first, err := mgr.Capture()
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := mgr.Capture()
	require.NoError(t, err)

	metas, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, second, metas[0].ID)
	assert.Equal(t, first, metas[1].ID)

	latest, err := mgr.Latest()
	require.NoError(t, err)
	assert.Equal(t, second, latest)
}

func TestLatestWithNoSnapshots(t *testing.T) {
	mgr, _ := newTestManager(t, 10)
	latest, err := mgr.Latest()
	require.NoError(t, err)
	assert.Empty(t, latest)
}

func TestPruneKeepsNewest(t *testing.T) {
	mgr, statePath := newTestManager(t, 2)
	require.NoError(t, os.WriteFile(statePath, []byte("{}"), 0o644))

	var last string
	for range 4 {
		id, err := mgr.Capture()
		require.NoError(t, err)
		last = id
		time.Sleep(5 * time.Millisecond)
	}

	metas, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, last, metas[0].ID)
}
