package layer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/volkov-io/convergd/internal/container"
	"github.com/volkov-io/convergd/internal/log"
	"github.com/volkov-io/convergd/internal/sysconfig"
)

// Manager deploys and controls layers. Container work is delegated to the
// container manager; this manager owns only layer identity, ordering and
// activation policy.
type Manager struct {
	mu         sync.Mutex
	logger     log.Logger
	containers *container.Manager
	layers     map[string]*state
}

type state struct {
	spec   sysconfig.LayerSpec
	cspec  sysconfig.ContainerSpec
	status Status
}

// NewManager creates a layer manager on top of a container manager.
func NewManager(logger log.Logger, containers *container.Manager) *Manager {
	return &Manager{
		logger:     logger,
		containers: containers,
		layers:     make(map[string]*state),
	}
}

// Deploy deploys all enabled layers in dependency order and returns one
// result per layer. Ordering is decided by deployOrder; when the layer
// set cannot make progress the orderable prefix is still deployed and
// the CircularDependencyError is returned.
func (m *Manager) Deploy(ctx context.Context, cfg *sysconfig.Config) ([]Result, error) {
	var specs []sysconfig.LayerSpec
	for _, spec := range cfg.Layers {
		if spec.Enabled {
			specs = append(specs, spec)
		}
	}

	ordered, orderErr := deployOrder(specs)

	var results []Result
	for _, spec := range ordered {
		results = append(results, m.deployOne(ctx, cfg, spec))
	}
	return results, orderErr
}

func (m *Manager) deployOne(ctx context.Context, cfg *sysconfig.Config, spec sysconfig.LayerSpec) Result {
	cspec, ok := cfg.FindContainer(spec.Container)
	if !ok {
		err := fmt.Errorf("layer %s references unknown container %s", spec.Name, spec.Container)
		m.register(spec, sysconfig.ContainerSpec{}, StatusFailed)
		return Result{Layer: spec.Name, Status: StatusFailed, Err: err}
	}

	// Ephemeral layers create their container fresh on every start, so
	// deployment only records them.
	if spec.Strategy == sysconfig.StrategyEphemeral {
		m.register(spec, cspec, StatusDeployed)
		m.logger.Info("Layer deployed", "layer", spec.Name, "strategy", spec.Strategy)
		return Result{Layer: spec.Name, Status: StatusDeployed}
	}

	if err := m.containers.Create(ctx, cspec); err != nil && !container.IsAlreadyExists(err) {
		m.register(spec, cspec, StatusFailed)
		return Result{Layer: spec.Name, Status: StatusFailed, Err: err}
	}

	if len(cspec.ExportBinaries) > 0 {
		if err := m.containers.ExportBinaries(cspec); err != nil {
			m.logger.Warn("Failed to export layer binaries", "layer", spec.Name, "error", err)
		}
	}

	status := StatusDeployed
	if spec.Strategy == sysconfig.StrategyAlwaysOn || spec.Strategy == "" {
		if err := m.containers.Start(ctx, cspec.Name); err != nil {
			m.register(spec, cspec, StatusFailed)
			return Result{Layer: spec.Name, Status: StatusFailed, Err: err}
		}
		status = StatusRunning
	}

	m.register(spec, cspec, status)
	m.logger.Info("Layer deployed", "layer", spec.Name, "status", status)
	return Result{Layer: spec.Name, Status: status}
}

// Start starts a deployed layer. Ephemeral layers get a fresh container on
// every start.
func (m *Manager) Start(ctx context.Context, name string) error {
	st, err := m.lookup(name)
	if err != nil {
		return err
	}

	if st.spec.Strategy == sysconfig.StrategyEphemeral {
		// Tear down any leftover instance before the fresh create.
		if rmErr := m.containers.Remove(ctx, st.cspec.Name, true); rmErr != nil && !container.IsNotFound(rmErr) {
			return fmt.Errorf("failed to reset ephemeral layer %s: %w", name, rmErr)
		}
		if err := m.containers.Create(ctx, st.cspec); err != nil {
			m.setStatus(name, StatusFailed)
			return err
		}
	}

	if err := m.containers.Start(ctx, st.cspec.Name); err != nil {
		m.setStatus(name, StatusFailed)
		return err
	}
	m.setStatus(name, StatusRunning)
	return nil
}

// Stop stops a running layer. Ephemeral layers are torn down entirely.
func (m *Manager) Stop(ctx context.Context, name string) error {
	st, err := m.lookup(name)
	if err != nil {
		return err
	}

	if err := m.containers.Stop(ctx, st.cspec.Name); err != nil && !container.IsNotFound(err) {
		return err
	}

	if st.spec.Strategy == sysconfig.StrategyEphemeral {
		if err := m.containers.Remove(ctx, st.cspec.Name, true); err != nil && !container.IsNotFound(err) {
			return err
		}
		m.setStatus(name, StatusDeployed)
		return nil
	}

	m.setStatus(name, StatusStopped)
	return nil
}

// List returns the managed layers sorted by name.
func (m *Manager) List() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]Info, 0, len(m.layers))
	for name, st := range m.layers {
		infos = append(infos, Info{
			Name:         name,
			Purpose:      st.spec.Purpose,
			Container:    st.spec.Container,
			Strategy:     string(st.spec.Strategy),
			Priority:     st.spec.Priority,
			Dependencies: append([]string(nil), st.spec.Dependencies...),
			Status:       st.status,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Health reports whether every non-ephemeral layer that should be running
// has a healthy container.
func (m *Manager) Health(ctx context.Context, name string) (container.HealthState, error) {
	st, err := m.lookup(name)
	if err != nil {
		return container.Unknown, err
	}
	if st.spec.Strategy == sysconfig.StrategyEphemeral && st.status != StatusRunning {
		// A dormant ephemeral layer has no container to probe.
		return container.Healthy, nil
	}
	return m.containers.HealthCheck(ctx, st.cspec.Name)
}

func (m *Manager) register(spec sysconfig.LayerSpec, cspec sysconfig.ContainerSpec, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layers[spec.Name] = &state{spec: spec, cspec: cspec, status: status}
}

func (m *Manager) lookup(name string) (*state, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.layers[name]
	if !ok {
		return nil, fmt.Errorf("unknown layer: %s", name)
	}
	return st, nil
}

func (m *Manager) setStatus(name string, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.layers[name]; ok {
		st.status = status
	}
}
