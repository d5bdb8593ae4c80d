// Package state manages the persisted system-state record for convergd.
//
// The record seeds the "current state" side of the next reconciliation and
// tracks what was deployed. It is rewritten after every successful deploy
// or update, atomically, so a concurrent reader never observes a torn
// file.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/volkov-io/convergd/internal/sysconfig"
)

// SchemaVersion is the on-disk schema version written by this build.
const SchemaVersion = 1

// ContainerRecord tracks one deployed container.
type ContainerRecord struct {
	Name    string `json:"name"`
	Image   string `json:"image"`
	Runtime string `json:"runtime,omitempty"`
	ID      string `json:"id,omitempty"`
	State   string `json:"state,omitempty"`
}

// LayerRecord tracks one deployed layer.
type LayerRecord struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Strategy string `json:"strategy,omitempty"`
}

// HealthRecord is the last observed health snapshot.
type HealthRecord struct {
	Overall   string            `json:"overall"`
	Details   map[string]string `json:"details,omitempty"`
	CheckedAt time.Time         `json:"checked_at"`
}

// State is the persisted system-state record.
type State struct {
	SchemaVersion int               `json:"schema_version"`
	Timestamp     time.Time         `json:"timestamp"`
	Applied       *sysconfig.Config `json:"applied,omitempty"`
	Containers    []ContainerRecord `json:"containers,omitempty"`
	Layers        []LayerRecord     `json:"layers,omitempty"`
	BuildPin      string            `json:"build_pin,omitempty"`
	LastHealth    *HealthRecord     `json:"last_health,omitempty"`
}

// New returns an empty state record at the current schema version.
func New() *State {
	return &State{SchemaVersion: SchemaVersion}
}

// Load reads the state file from disk. Returns an empty state if the file
// does not exist.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	s := &State{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	if s.SchemaVersion == 0 {
		s.SchemaVersion = SchemaVersion
	}
	return s, nil
}

// Save writes the state to disk, creating parent directories as needed.
// The write goes to a temp file in the same directory followed by a
// rename, so a concurrent Load never sees a partial record.
func (s *State) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	s.SchemaVersion = SchemaVersion
	s.Timestamp = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set state file mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// SetApplied records the configuration snapshot this machine now runs.
func (s *State) SetApplied(cfg *sysconfig.Config) {
	s.Applied = cfg
	if cfg != nil {
		s.BuildPin = cfg.BuildPin
	}
}

// SetHealth records the latest health aggregation result.
func (s *State) SetHealth(overall string, details map[string]string) {
	s.LastHealth = &HealthRecord{
		Overall:   overall,
		Details:   details,
		CheckedAt: time.Now().UTC(),
	}
}
