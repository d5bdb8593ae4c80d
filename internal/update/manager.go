package update

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/volkov-io/convergd/internal/change"
	"github.com/volkov-io/convergd/internal/log"
	"github.com/volkov-io/convergd/internal/notify"
	"github.com/volkov-io/convergd/internal/state"
	"github.com/volkov-io/convergd/internal/sysconfig"
)

// Snapshotter captures and restores point-in-time state copies.
type Snapshotter interface {
	Capture() (string, error)
	Restore(id string) error
}

// StateSyncer persists the applied configuration after a successful run.
type StateSyncer interface {
	SyncApplied(desired *sysconfig.Config) error
}

// FileStateSyncer syncs the durable state record at a fixed path.
type FileStateSyncer struct {
	Path string
}

// SyncApplied loads the state record, marks the desired snapshot as
// applied and writes it back atomically.
func (f *FileStateSyncer) SyncApplied(desired *sysconfig.Config) error {
	st, err := state.Load(f.Path)
	if err != nil {
		return err
	}
	st.SetApplied(desired)
	return st.Save(f.Path)
}

// Manager orchestrates reconciliation runs.
type Manager struct {
	logger     log.Logger
	notifier   *notify.Notifier
	classifier *change.Classifier
	applier    Applier
	snapshots  Snapshotter
	state      StateSyncer

	mu    sync.Mutex
	phase Phase
}

// NewManager creates a reconciliation manager.
func NewManager(logger log.Logger, notifier *notify.Notifier, classifier *change.Classifier, applier Applier, snapshots Snapshotter, stateSync StateSyncer) *Manager {
	return &Manager{
		logger:     logger,
		notifier:   notifier,
		classifier: classifier,
		applier:    applier,
		snapshots:  snapshots,
		state:      stateSync,
		phase:      PhaseIdle,
	}
}

// Phase reports the phase of the current or most recent run.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Manager) setPhase(p Phase) {
	m.mu.Lock()
	m.phase = p
	m.mu.Unlock()
}

// Plan detects and classifies changes without touching the system.
func (m *Manager) Plan(current, desired *sysconfig.Config) change.Buckets {
	return m.classifier.Classify(change.Detect(current, desired))
}

// Apply runs one reconciliation pass from current to desired.
//
// A non-empty RebootRequired bucket without AllowPartialUpdate aborts the
// run before any mutation. Live changes are applied before ServiceReload
// changes; each change failure is recorded as a (Change, error) pair. An
// aborted run restores the pre-update snapshot when RollbackOnFailure is
// set; a failure of that restore is reported as a RollbackError.
func (m *Manager) Apply(ctx context.Context, current, desired *sysconfig.Config, opts Options) Result {
	m.setPhase(PhaseDetecting)
	changes := change.Detect(current, desired)
	if len(changes) == 0 {
		m.setPhase(PhaseIdle)
		m.logger.Debug("No changes detected")
		return Result{Outcome: OutcomeNoChangesRequired}
	}

	m.setPhase(PhaseClassifying)
	buckets := m.classifier.Classify(changes)
	m.logger.Info("Classified changes",
		"live", len(buckets.Live),
		"serviceReload", len(buckets.ServiceReload),
		"rebootRequired", len(buckets.RebootRequired))

	if len(buckets.RebootRequired) > 0 && !opts.AllowPartialUpdate {
		m.setPhase(PhaseRebootBlocked)
		m.notifier.Critical("Reboot required",
			fmt.Sprintf("%d change(s) require a reboot; no changes were applied", len(buckets.RebootRequired)))
		return Result{Outcome: OutcomeRebootRequired, Pending: buckets.RebootRequired}
	}

	snapshotID, err := m.snapshots.Capture()
	if err != nil {
		m.setPhase(PhaseFailed)
		err = fmt.Errorf("failed to capture pre-update snapshot: %w", err)
		m.notifier.Error("Update aborted", err.Error())
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	m.setPhase(PhaseApplying)
	m.notifier.Info("Update started", fmt.Sprintf("applying %d change(s)", len(buckets.Live)+len(buckets.ServiceReload)))

	applied, failed, aborted := m.applyLive(ctx, buckets.Live, opts)
	if !aborted {
		moreApplied, moreFailed, reloadAborted := m.applySerial(ctx, buckets.ServiceReload, opts)
		applied = append(applied, moreApplied...)
		failed = append(failed, moreFailed...)
		aborted = reloadAborted
	}

	if aborted {
		return m.abort(snapshotID, applied, failed, opts)
	}

	if err := m.state.SyncApplied(desired); err != nil {
		m.setPhase(PhaseFailed)
		err = fmt.Errorf("failed to sync state record: %w", err)
		m.notifier.Error("Update failed", err.Error())
		return Result{Outcome: OutcomeFailed, Applied: applied, Failed: failed, SnapshotID: snapshotID, Err: err}
	}

	m.setPhase(PhaseCommitted)

	outcome := OutcomeSuccess
	if len(failed) > 0 || len(buckets.RebootRequired) > 0 {
		outcome = OutcomePartialSuccess
	}
	m.notifier.Info("Update finished",
		fmt.Sprintf("applied %d change(s), %d failed, %d pending reboot", len(applied), len(failed), len(buckets.RebootRequired)))

	return Result{
		Outcome:    outcome,
		Applied:    applied,
		Failed:     failed,
		Pending:    buckets.RebootRequired,
		SnapshotID: snapshotID,
	}
}

func (m *Manager) abort(snapshotID string, applied []change.Change, failed []Failure, opts Options) Result {
	applyErr := failed[len(failed)-1].Err
	m.logger.Error("Update aborted", "error", applyErr)

	if !opts.RollbackOnFailure {
		m.setPhase(PhaseFailed)
		m.notifier.Error("Update failed", applyErr.Error())
		return Result{Outcome: OutcomeFailed, Applied: applied, Failed: failed, SnapshotID: snapshotID, Err: applyErr}
	}

	if err := m.snapshots.Restore(snapshotID); err != nil {
		m.setPhase(PhaseFailed)
		rbErr := NewRollbackError(applyErr, err)
		m.notifier.Critical("Rollback failed", rbErr.Error())
		return Result{Outcome: OutcomeFailed, Applied: applied, Failed: failed, SnapshotID: snapshotID, Err: rbErr}
	}

	m.setPhase(PhaseRolledBack)
	m.notifier.Critical("Update rolled back",
		fmt.Sprintf("restored snapshot %s after apply failure: %v", snapshotID, applyErr))
	return Result{
		Outcome:    OutcomeFailed,
		Applied:    applied,
		Failed:     failed,
		SnapshotID: snapshotID,
		RolledBack: true,
		Err:        applyErr,
	}
}

// applyLive applies the Live bucket, parallel up to the configured cap.
// Changes touching the same resource key are grouped and applied serially
// within the group, in detection order.
func (m *Manager) applyLive(ctx context.Context, changes []change.Change, opts Options) (applied []change.Change, failed []Failure, aborted bool) {
	if len(changes) == 0 {
		return nil, nil, false
	}

	limit := opts.MaxParallelOperations
	if limit < 1 {
		limit = 1
	}

	groups := make(map[string][]change.Change)
	var order []string
	for _, c := range changes {
		key := c.ResourceKey()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], c)
	}

	var mu sync.Mutex
	var stop bool

	var g errgroup.Group
	g.SetLimit(limit)

	for _, key := range order {
		group := groups[key]
		g.Go(func() error {
			for _, c := range group {
				mu.Lock()
				halted := stop
				mu.Unlock()
				if halted {
					return nil
				}

				err := m.applier.Apply(ctx, c)

				mu.Lock()
				if err != nil {
					failed = append(failed, Failure{Change: c, Err: err})
					if !opts.ContinueOnError {
						stop = true
					}
					mu.Unlock()
					m.logger.Error("Change failed", "change", c.String(), "error", err)
					if !opts.ContinueOnError {
						return nil
					}
					continue
				}
				applied = append(applied, c)
				mu.Unlock()
				m.notifier.Info("Change applied", c.String())
			}
			return nil
		})
	}
	_ = g.Wait()

	return applied, failed, stop
}

// applySerial applies changes one at a time in detection order.
func (m *Manager) applySerial(ctx context.Context, changes []change.Change, opts Options) (applied []change.Change, failed []Failure, aborted bool) {
	for _, c := range changes {
		if err := m.applier.Apply(ctx, c); err != nil {
			failed = append(failed, Failure{Change: c, Err: err})
			m.logger.Error("Change failed", "change", c.String(), "error", err)
			if !opts.ContinueOnError {
				return applied, failed, true
			}
			continue
		}
		applied = append(applied, c)
		m.notifier.Info("Change applied", c.String())
	}
	return applied, failed, false
}
