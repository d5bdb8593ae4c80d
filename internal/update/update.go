// Package update implements the live reconciliation orchestrator: detect,
// classify, apply with snapshot-backed rollback, report.
package update

import "github.com/volkov-io/convergd/internal/change"

// Phase tracks where a reconciliation run currently is.
type Phase string

// Reconciliation phases.
const (
	PhaseIdle          Phase = "idle"
	PhaseDetecting     Phase = "detecting"
	PhaseClassifying   Phase = "classifying"
	PhaseRebootBlocked Phase = "reboot-blocked"
	PhaseApplying      Phase = "applying"
	PhaseCommitted     Phase = "committed"
	PhaseRolledBack    Phase = "rolled-back"
	PhaseFailed        Phase = "failed"
)

// Outcome is the terminal result of a reconciliation run.
type Outcome string

// Run outcomes.
const (
	OutcomeNoChangesRequired Outcome = "no-changes-required"
	OutcomeSuccess           Outcome = "success"
	OutcomePartialSuccess    Outcome = "partial-success"
	OutcomeRebootRequired    Outcome = "reboot-required"
	OutcomeFailed            Outcome = "failed"
)

// Options control how a reconciliation run applies changes.
type Options struct {
	// AllowPartialUpdate permits applying Live and ServiceReload changes
	// even when RebootRequired changes were detected. Without it a
	// non-empty RebootRequired bucket aborts the run before any mutation.
	AllowPartialUpdate bool

	// ContinueOnError keeps applying remaining changes after one fails.
	ContinueOnError bool

	// RollbackOnFailure restores the pre-update snapshot when the run
	// aborts on a failed change.
	RollbackOnFailure bool

	// MaxParallelOperations bounds concurrent Live change application.
	// Values below one mean serial application.
	MaxParallelOperations int
}

// Failure records one change that could not be applied.
type Failure struct {
	Change change.Change
	Err    error
}

// Result describes a finished reconciliation run.
type Result struct {
	Outcome    Outcome
	Applied    []change.Change
	Failed     []Failure
	Pending    []change.Change // RebootRequired changes awaiting a maintenance window
	SnapshotID string
	RolledBack bool
	Err        error
}
