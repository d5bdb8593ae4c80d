// Package snapshot captures and restores point-in-time copies of the
// persisted system state for rollback.
//
// A snapshot is a verbatim byte copy of the state file: restoring one
// makes the persisted state byte-for-byte identical to the moment of
// capture.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/volkov-io/convergd/internal/log"
)

// Meta describes one stored snapshot.
type Meta struct {
	ID        string
	CreatedAt time.Time
	Size      int64
}

// Manager stores snapshots of the state file in a directory, one file per
// snapshot, named by capture timestamp.
type Manager struct {
	logger    log.Logger
	statePath string
	dir       string
	keep      int
}

// NewManager creates a snapshot manager. keep bounds how many snapshots
// are retained; older ones are pruned after each capture.
func NewManager(logger log.Logger, statePath, dir string, keep int) *Manager {
	return &Manager{logger: logger, statePath: statePath, dir: dir, keep: keep}
}

// Capture copies the current state file into a new snapshot and returns
// its ID. Capturing with no state file yet is not an error: the returned
// snapshot is empty and restoring it removes the state file.
func (m *Manager) Capture() (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := os.ReadFile(m.statePath)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read state for snapshot: %w", err)
	}

	id := time.Now().UTC().Format("20060102T150405.000000000Z")
	if err := os.WriteFile(m.path(id), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot %s: %w", id, err)
	}

	m.logger.Debug("Captured state snapshot", "id", id, "bytes", len(data))
	m.prune()
	return id, nil
}

// Restore replaces the state file with the snapshot's content. An empty
// snapshot (captured before any state existed) removes the state file.
func (m *Manager) Restore(id string) error {
	data, err := os.ReadFile(m.path(id))
	if err != nil {
		return fmt.Errorf("failed to read snapshot %s: %w", id, err)
	}

	if len(data) == 0 {
		if err := os.Remove(m.statePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to clear state for snapshot %s: %w", id, err)
		}
		return nil
	}

	// Same atomic discipline as state.Save: temp file plus rename.
	dir := filepath.Dir(m.statePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".restore-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file for restore: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write restored state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close restored state: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set restored state mode: %w", err)
	}
	if err := os.Rename(tmpPath, m.statePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state with snapshot %s: %w", id, err)
	}

	m.logger.Info("Restored state snapshot", "id", id)
	return nil
}

// List returns stored snapshots, newest first.
func (m *Manager) List() ([]Meta, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var metas []Meta
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		created, err := time.Parse("20060102T150405.000000000Z", entry.Name())
		if err != nil {
			continue
		}
		metas = append(metas, Meta{ID: entry.Name(), CreatedAt: created, Size: info.Size()})
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].ID > metas[j].ID })
	return metas, nil
}

// Latest returns the most recent snapshot ID, or empty when none exist.
func (m *Manager) Latest() (string, error) {
	metas, err := m.List()
	if err != nil {
		return "", err
	}
	if len(metas) == 0 {
		return "", nil
	}
	return metas[0].ID, nil
}

func (m *Manager) prune() {
	if m.keep <= 0 {
		return
	}
	metas, err := m.List()
	if err != nil {
		m.logger.Warn("Failed to list snapshots for pruning", "error", err)
		return
	}
	for _, meta := range metas[minInt(m.keep, len(metas)):] {
		if err := os.Remove(m.path(meta.ID)); err != nil {
			m.logger.Warn("Failed to prune snapshot", "id", meta.ID, "error", err)
		}
	}
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.dir, id)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
