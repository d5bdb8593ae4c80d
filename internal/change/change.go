// Package change implements change detection and classification between
// two configuration snapshots.
//
// Detection is a pure function over (current, desired) pairs; it produces a
// flat list of typed changes in deterministic order. Classification assigns
// each change an update strategy from a policy table and partitions the
// list into apply buckets. Neither step touches the system.
package change

import "fmt"

// Type identifies the kind of difference a Change describes.
type Type string

// Change types.
const (
	TypeSystemConfig        Type = "system-config"
	TypePackageInstall      Type = "package-install"
	TypePackageRemove       Type = "package-remove"
	TypeServiceAdd          Type = "service-add"
	TypeServiceRemove       Type = "service-remove"
	TypeServiceStateToggle  Type = "service-state-toggle"
	TypeServiceConfigUpdate Type = "service-config-update"
	TypeUserAdd             Type = "user-add"
	TypeUserModify          Type = "user-modify"
	TypeUserRemove          Type = "user-remove"
	TypeRepositoryAdd       Type = "repository-add"
	TypeRepositoryUpdate    Type = "repository-update"
	TypeRepositoryRemove    Type = "repository-remove"
	TypeDesktopConfig       Type = "desktop-config"
	TypeSecurityConfig      Type = "security-config"
	TypeAutomationWorkflow  Type = "automation-workflow"
)

// Strategy describes the mechanism required to apply a change.
type Strategy string

// Update strategies, ordered from least to most disruptive.
const (
	StrategyLive           Strategy = "live"
	StrategyServiceReload  Strategy = "service-reload"
	StrategyRebootRequired Strategy = "reboot-required"
)

// Impact grades how risky a change is for the running system.
type Impact string

// Impact levels.
const (
	ImpactLow      Impact = "low"
	ImpactMedium   Impact = "medium"
	ImpactHigh     Impact = "high"
	ImpactCritical Impact = "critical"
)

// Change is one detected difference between two configuration snapshots.
// Changes are derived data: recomputed on every reconciliation pass and
// never persisted.
type Change struct {
	Type            Type
	Field           string
	Old             any
	New             any
	AffectedService string
	Description     string
	Strategy        Strategy
	Impact          Impact
}

// ResourceKey returns the identity of the system resource this change
// touches. Changes sharing a key must never be applied concurrently.
func (c Change) ResourceKey() string {
	switch c.Type {
	case TypePackageInstall, TypePackageRemove:
		return "package/" + c.Field
	case TypeServiceAdd, TypeServiceRemove, TypeServiceStateToggle, TypeServiceConfigUpdate:
		return "service/" + c.AffectedService
	case TypeUserAdd, TypeUserModify, TypeUserRemove:
		return "user/" + c.Field
	case TypeRepositoryAdd, TypeRepositoryUpdate, TypeRepositoryRemove:
		return "repository/" + c.Field
	case TypeDesktopConfig:
		return "desktop"
	case TypeSecurityConfig:
		return "security"
	case TypeAutomationWorkflow:
		return "workflow/" + c.Field
	default:
		return "system/" + c.Field
	}
}

// String implements fmt.Stringer for log output.
func (c Change) String() string {
	return fmt.Sprintf("%s(%s): %s", c.Type, c.Field, c.Description)
}

// Buckets groups classified changes by update strategy. Input order is
// preserved within each bucket.
type Buckets struct {
	Live           []Change
	ServiceReload  []Change
	RebootRequired []Change
}

// Total returns the number of changes across all buckets.
func (b Buckets) Total() int {
	return len(b.Live) + len(b.ServiceReload) + len(b.RebootRequired)
}
