// Package system is the top-level façade over the reconciliation engine:
// full-system deploy, health aggregation, update, rollback and status.
package system

import (
	"context"
	"fmt"

	"github.com/volkov-io/convergd/internal/container"
	"github.com/volkov-io/convergd/internal/layer"
	"github.com/volkov-io/convergd/internal/log"
	"github.com/volkov-io/convergd/internal/notify"
	"github.com/volkov-io/convergd/internal/snapshot"
	"github.com/volkov-io/convergd/internal/state"
	"github.com/volkov-io/convergd/internal/sysconfig"
	"github.com/volkov-io/convergd/internal/systemd"
	"github.com/volkov-io/convergd/internal/update"
	"github.com/volkov-io/convergd/internal/validate"
)

// HealthStatus is the aggregated system health.
type HealthStatus string

// Aggregated health values.
const (
	HealthHealthy   HealthStatus = "healthy"
	HealthStarting  HealthStatus = "starting"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// DeploymentResult summarizes a full-system deploy.
type DeploymentResult struct {
	Success            bool
	ContainersDeployed int
	LayersDeployed     int
	Errors             []error
}

// HealthReport is the result of one health aggregation pass.
type HealthReport struct {
	Overall HealthStatus
	Details map[string]string
}

// Manager composes the engine components behind one surface.
type Manager struct {
	logger     log.Logger
	notifier   *notify.Notifier
	containers *container.Manager
	layers     *layer.Manager
	services   systemd.ServiceManager
	updates    *update.Manager
	snapshots  *snapshot.Manager

	statePath        string
	expectedServices []string
}

// NewManager creates the system façade.
func NewManager(
	logger log.Logger,
	notifier *notify.Notifier,
	containers *container.Manager,
	layers *layer.Manager,
	services systemd.ServiceManager,
	updates *update.Manager,
	snapshots *snapshot.Manager,
	statePath string,
	expectedServices []string,
) *Manager {
	return &Manager{
		logger:           logger,
		notifier:         notifier,
		containers:       containers,
		layers:           layers,
		services:         services,
		updates:          updates,
		snapshots:        snapshots,
		statePath:        statePath,
		expectedServices: expectedServices,
	}
}

// Deploy validates the configuration and deploys its containers and
// layers, then persists the state record. Validation failures abort
// before any mutation.
func (m *Manager) Deploy(ctx context.Context, cfg *sysconfig.Config) DeploymentResult {
	result := DeploymentResult{}

	if err := validate.Config(cfg); err != nil {
		m.notifier.Error("Deploy rejected", err.Error())
		result.Errors = append(result.Errors, err)
		return result
	}

	m.notifier.Info("Deploy started", fmt.Sprintf("host %s", cfg.Hostname))

	layered := make(map[string]struct{}, len(cfg.Layers))
	for _, l := range cfg.Layers {
		layered[l.Container] = struct{}{}
	}

	// Standalone containers first; layer-owned containers are created by
	// the layer manager in dependency order.
	for _, spec := range cfg.Containers {
		if _, owned := layered[spec.Name]; owned {
			continue
		}
		if err := m.containers.Create(ctx, spec); err != nil && !container.IsAlreadyExists(err) {
			result.Errors = append(result.Errors, err)
			continue
		}
		if len(spec.ExportBinaries) > 0 {
			if err := m.containers.ExportBinaries(spec); err != nil {
				m.logger.Warn("Failed to export binaries", "container", spec.Name, "error", err)
			}
		}
		result.ContainersDeployed++
	}

	layerResults, err := m.layers.Deploy(ctx, cfg)
	if err != nil {
		result.Errors = append(result.Errors, err)
	}
	for _, lr := range layerResults {
		if lr.Err != nil {
			result.Errors = append(result.Errors, lr.Err)
			continue
		}
		result.LayersDeployed++
		result.ContainersDeployed += countLayerContainer(cfg, lr.Layer)
	}

	if err := m.persistState(cfg); err != nil {
		result.Errors = append(result.Errors, err)
	}

	result.Success = len(result.Errors) == 0
	if result.Success {
		m.notifier.Info("Deploy finished",
			fmt.Sprintf("%d container(s), %d layer(s)", result.ContainersDeployed, result.LayersDeployed))
	} else {
		m.notifier.Error("Deploy finished with errors", fmt.Sprintf("%d error(s)", len(result.Errors)))
	}
	return result
}

func countLayerContainer(cfg *sysconfig.Config, layerName string) int {
	spec, ok := cfg.FindLayer(layerName)
	if !ok || spec.Container == "" {
		return 0
	}
	// Ephemeral layers hold no persistent container after deploy.
	if spec.Strategy == sysconfig.StrategyEphemeral {
		return 0
	}
	return 1
}

// Health aggregates container health, layer health and expected host
// services into one report, and records it in the state file.
func (m *Manager) Health(ctx context.Context) HealthReport {
	details := make(map[string]string)
	healthy, unhealthy, starting := 0, 0, 0

	grade := func(key string, state container.HealthState) {
		details[key] = string(state)
		switch state {
		case container.Healthy:
			healthy++
		case container.Unhealthy:
			unhealthy++
		default:
			starting++
		}
	}

	for _, info := range m.containers.List() {
		hs, err := m.containers.HealthCheck(ctx, info.Name)
		if err != nil {
			hs = container.Unknown
		}
		grade("container/"+info.Name, hs)
	}

	for _, info := range m.layers.List() {
		hs, err := m.layers.Health(ctx, info.Name)
		if err != nil {
			hs = container.Unknown
		}
		grade("layer/"+info.Name, hs)
	}

	for _, svc := range m.expectedServices {
		active, err := m.services.IsActive(ctx, svc)
		switch {
		case err != nil:
			grade("service/"+svc, container.Unknown)
		case active:
			grade("service/"+svc, container.Healthy)
		default:
			grade("service/"+svc, container.Unhealthy)
		}
	}

	overall := HealthHealthy
	switch {
	case unhealthy > 0:
		overall = HealthUnhealthy
	case starting > 0:
		overall = HealthStarting
	}

	if overall == HealthUnhealthy {
		m.notifier.Warning("System health degraded", fmt.Sprintf("%d component(s) unhealthy", unhealthy))
	}

	if err := m.recordHealth(string(overall), details); err != nil {
		m.logger.Warn("Failed to record health snapshot", "error", err)
	}

	return HealthReport{Overall: overall, Details: details}
}

// Update runs one reconciliation pass against the desired snapshot,
// seeding "current" from the persisted state record.
func (m *Manager) Update(ctx context.Context, desired *sysconfig.Config, opts update.Options) (update.Result, error) {
	st, err := state.Load(m.statePath)
	if err != nil {
		return update.Result{}, err
	}

	current := st.Applied
	if current == nil {
		current = &sysconfig.Config{Hostname: desired.Hostname}
	}

	return m.updates.Apply(ctx, current, desired, opts), nil
}

// Plan reports the classified changes a reconciliation run would apply,
// without touching the system.
func (m *Manager) Plan(desired *sysconfig.Config) (update.Result, error) {
	st, err := state.Load(m.statePath)
	if err != nil {
		return update.Result{}, err
	}

	current := st.Applied
	if current == nil {
		current = &sysconfig.Config{Hostname: desired.Hostname}
	}

	buckets := m.updates.Plan(current, desired)
	outcome := update.OutcomeNoChangesRequired
	if buckets.Total() > 0 {
		outcome = update.OutcomeSuccess
	}
	return update.Result{
		Outcome: outcome,
		Applied: append(buckets.Live, buckets.ServiceReload...),
		Pending: buckets.RebootRequired,
	}, nil
}

// Rollback restores a snapshot. An empty id restores the most recent one.
func (m *Manager) Rollback(id string) error {
	if id == "" {
		latest, err := m.snapshots.Latest()
		if err != nil {
			return err
		}
		id = latest
	}

	if err := m.snapshots.Restore(id); err != nil {
		m.notifier.Critical("Rollback failed", err.Error())
		return err
	}

	m.notifier.Critical("System rolled back", fmt.Sprintf("restored snapshot %s", id))
	return nil
}

// Status returns the persisted state record.
func (m *Manager) Status() (*state.State, error) {
	return state.Load(m.statePath)
}

// persistState rewrites the state record from the live registries.
func (m *Manager) persistState(cfg *sysconfig.Config) error {
	st, err := state.Load(m.statePath)
	if err != nil {
		return err
	}

	st.SetApplied(cfg)

	st.Containers = nil
	for _, info := range m.containers.List() {
		st.Containers = append(st.Containers, state.ContainerRecord{
			Name:    info.Name,
			Image:   info.Image,
			Runtime: info.Runtime,
			ID:      info.ID,
			State:   string(info.State),
		})
	}

	st.Layers = nil
	for _, info := range m.layers.List() {
		st.Layers = append(st.Layers, state.LayerRecord{
			Name:     info.Name,
			Status:   string(info.Status),
			Strategy: info.Strategy,
		})
	}

	return st.Save(m.statePath)
}

func (m *Manager) recordHealth(overall string, details map[string]string) error {
	st, err := state.Load(m.statePath)
	if err != nil {
		return err
	}
	st.SetHealth(overall, details)
	return st.Save(m.statePath)
}
