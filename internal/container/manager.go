package container

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/volkov-io/convergd/internal/execx"
	"github.com/volkov-io/convergd/internal/log"
	"github.com/volkov-io/convergd/internal/sysconfig"
)

// Options configures a Manager.
type Options struct {
	// Runtime is the OCI command-line front-end (podman, docker,
	// nerdctl). Per-container specs may override it.
	Runtime string
	// BinExportDir is where host-side binary shims are written.
	BinExportDir string
	// GlobalMounts are unioned into every container's mount list.
	GlobalMounts []string
}

type managed struct {
	spec  sysconfig.ContainerSpec
	id    string
	state State
	shims []string
}

// Manager owns the container registry and performs all runtime operations
// through the injected command runner. The registry mutex enforces the
// single-writer rule: concurrent Create/Remove for the same name never
// interleave.
type Manager struct {
	mu       sync.Mutex
	logger   log.Logger
	runner   execx.Runner
	opts     Options
	registry map[string]*managed
}

// NewManager creates a container manager.
func NewManager(logger log.Logger, runner execx.Runner, opts Options) *Manager {
	if opts.Runtime == "" {
		opts.Runtime = "podman"
	}
	return &Manager{
		logger:   logger,
		runner:   runner,
		opts:     opts,
		registry: make(map[string]*managed),
	}
}

func (m *Manager) runtimeFor(spec sysconfig.ContainerSpec) string {
	if spec.Runtime != "" {
		return spec.Runtime
	}
	return m.opts.Runtime
}

// Create creates a container from its spec, then provisions it: declared
// packages are installed and post-create commands run inside the new
// container. A failed sub-step surfaces as a typed error naming the step;
// the container stays registered in Error state rather than being silently
// discarded.
func (m *Manager) Create(ctx context.Context, spec sysconfig.ContainerSpec) error {
	m.mu.Lock()
	if _, exists := m.registry[spec.Name]; exists {
		m.mu.Unlock()
		return &AlreadyExistsError{Container: spec.Name}
	}
	entry := &managed{spec: spec, state: StateCreated}
	m.registry[spec.Name] = entry
	m.mu.Unlock()

	runtime := m.runtimeFor(spec)
	args := BuildCreateArgs(spec, m.opts.GlobalMounts)

	m.logger.Debug("Creating container", "name", spec.Name, "image", spec.ImageRef(), "runtime", runtime)

	out, err := m.runner.CombinedOutput(ctx, runtime, args...)
	if err != nil {
		m.setState(spec.Name, StateError)
		return NewError("Create", spec.Name, "create", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out))))
	}
	m.setID(spec.Name, strings.TrimSpace(string(out)))

	needsProvisioning := len(spec.Packages) > 0 || len(spec.PostCreate) > 0
	if !needsProvisioning {
		return nil
	}

	// Provisioning runs inside the container, so it has to be up first.
	if out, err := m.runner.CombinedOutput(ctx, runtime, "start", spec.Name); err != nil {
		m.setState(spec.Name, StateError)
		return NewError("Create", spec.Name, "start", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out))))
	}
	m.setState(spec.Name, StateRunning)

	if len(spec.Packages) > 0 {
		install := buildInstallCommand(spec.Packages)
		execArgs := append([]string{"exec", spec.Name}, install...)
		if out, err := m.runner.CombinedOutput(ctx, runtime, execArgs...); err != nil {
			m.setState(spec.Name, StateError)
			return NewError("Create", spec.Name, "install-packages", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out))))
		}
	}

	for _, cmd := range spec.PostCreate {
		execArgs := []string{"exec", spec.Name, "sh", "-c", cmd}
		if out, err := m.runner.CombinedOutput(ctx, runtime, execArgs...); err != nil {
			m.setState(spec.Name, StateError)
			return NewError("Create", spec.Name, "post-create", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out))))
		}
	}

	m.logger.Info("Container created", "name", spec.Name, "image", spec.ImageRef())
	return nil
}

// Start starts a registered container.
func (m *Manager) Start(ctx context.Context, name string) error {
	entry, err := m.lookup(name)
	if err != nil {
		return err
	}

	runtime := m.runtimeFor(entry.spec)
	if out, err := m.runner.CombinedOutput(ctx, runtime, "start", name); err != nil {
		m.setState(name, StateError)
		return NewError("Start", name, "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out))))
	}
	m.setState(name, StateRunning)
	return nil
}

// Stop stops a registered container.
func (m *Manager) Stop(ctx context.Context, name string) error {
	entry, err := m.lookup(name)
	if err != nil {
		return err
	}

	runtime := m.runtimeFor(entry.spec)
	if out, err := m.runner.CombinedOutput(ctx, runtime, "stop", name); err != nil {
		return NewError("Stop", name, "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out))))
	}
	m.setState(name, StateStopped)
	return nil
}

// Remove removes a container from the runtime and the registry, reversing
// any exported binary shims.
func (m *Manager) Remove(ctx context.Context, name string, force bool) error {
	entry, err := m.lookup(name)
	if err != nil {
		return err
	}

	runtime := m.runtimeFor(entry.spec)
	args := []string{"rm"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, name)

	if out, err := m.runner.CombinedOutput(ctx, runtime, args...); err != nil {
		return NewError("Remove", name, "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out))))
	}

	m.removeShims(entry)

	m.mu.Lock()
	delete(m.registry, name)
	m.mu.Unlock()

	m.logger.Info("Container removed", "name", name)
	return nil
}

// Status queries the runtime for the container's current state. The
// registry's cached state is refreshed as a side effect but is never the
// answer by itself.
func (m *Manager) Status(ctx context.Context, name string) (State, error) {
	entry, err := m.lookup(name)
	if err != nil {
		return StateUnknown, err
	}

	runtime := m.runtimeFor(entry.spec)
	out, err := m.runner.CombinedOutput(ctx, runtime, "inspect", "--format", "{{.State.Status}}", name)
	if err != nil {
		return StateUnknown, NewError("Status", name, "", err)
	}

	state := parseState(string(out))
	m.setState(name, state)
	return state, nil
}

// Stats returns point-in-time resource usage for a container.
func (m *Manager) Stats(ctx context.Context, name string) (Stats, error) {
	entry, err := m.lookup(name)
	if err != nil {
		return Stats{}, err
	}

	runtime := m.runtimeFor(entry.spec)
	out, err := m.runner.CombinedOutput(ctx, runtime, "stats", "--no-stream", "--format", "json", name)
	if err != nil {
		return Stats{}, NewError("Stats", name, "", err)
	}

	var rows []struct {
		CPUPerc  string `json:"CPUPerc"`
		CPU      string `json:"cpu_percent"`
		MemUsage string `json:"MemUsage"`
		Mem      string `json:"mem_usage"`
	}
	if err := json.Unmarshal(out, &rows); err != nil || len(rows) == 0 {
		return Stats{}, NewError("Stats", name, "", fmt.Errorf("unexpected stats output: %q", strings.TrimSpace(string(out))))
	}

	stats := Stats{CPUPercent: rows[0].CPUPerc, MemUsage: rows[0].MemUsage}
	if stats.CPUPercent == "" {
		stats.CPUPercent = rows[0].CPU
	}
	if stats.MemUsage == "" {
		stats.MemUsage = rows[0].Mem
	}
	return stats, nil
}

// Exec runs a command inside a container and returns its combined output.
func (m *Manager) Exec(ctx context.Context, name string, command []string) ([]byte, error) {
	entry, err := m.lookup(name)
	if err != nil {
		return nil, err
	}

	runtime := m.runtimeFor(entry.spec)
	args := append([]string{"exec", name}, command...)
	out, err := m.runner.CombinedOutput(ctx, runtime, args...)
	if err != nil {
		return out, NewError("Exec", name, "", err)
	}
	return out, nil
}

// ExportBinaries writes a host-side shim for every binary the spec
// declares. Shims forward invocations into the container and are tracked
// so Remove and Cleanup can reverse them.
func (m *Manager) ExportBinaries(spec sysconfig.ContainerSpec) error {
	entry, err := m.lookup(spec.Name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(m.opts.BinExportDir, 0o755); err != nil {
		return NewError("ExportBinaries", spec.Name, "", err)
	}

	runtime := m.runtimeFor(entry.spec)
	var written []string
	for _, binary := range spec.ExportBinaries {
		shimPath := filepath.Join(m.opts.BinExportDir, binary)
		shim := fmt.Sprintf("#!/bin/sh\nexec %s exec -i %s %s \"$@\"\n", runtime, spec.Name, binary)
		if err := os.WriteFile(shimPath, []byte(shim), 0o755); err != nil {
			return NewError("ExportBinaries", spec.Name, binary, err)
		}
		written = append(written, shimPath)
		m.logger.Debug("Exported binary", "container", spec.Name, "binary", binary, "path", shimPath)
	}

	m.mu.Lock()
	if entry, ok := m.registry[spec.Name]; ok {
		entry.shims = append(entry.shims, written...)
	}
	m.mu.Unlock()
	return nil
}

// HealthCheck probes a container. With a configured health command the
// probe runs inside the container; without one the check degrades to
// liveness (Running means Healthy).
func (m *Manager) HealthCheck(ctx context.Context, name string) (HealthState, error) {
	entry, err := m.lookup(name)
	if err != nil {
		return Unknown, err
	}

	state, err := m.Status(ctx, name)
	if err != nil {
		return Unknown, err
	}

	if entry.spec.HealthCheck == nil || len(entry.spec.HealthCheck.Command) == 0 {
		switch state {
		case StateRunning:
			return Healthy, nil
		case StateCreated:
			return Starting, nil
		case StateStopped, StateError, StatePaused:
			return Unhealthy, nil
		default:
			return Unknown, nil
		}
	}

	if state != StateRunning {
		return Unhealthy, nil
	}

	runtime := m.runtimeFor(entry.spec)
	args := append([]string{"exec", name}, entry.spec.HealthCheck.Command...)
	if _, err := m.runner.CombinedOutput(ctx, runtime, args...); err != nil {
		return Unhealthy, nil
	}
	return Healthy, nil
}

// List returns the registered containers sorted by name.
func (m *Manager) List() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]Info, 0, len(m.registry))
	for name, entry := range m.registry {
		infos = append(infos, Info{
			Name:     name,
			Image:    entry.spec.ImageRef(),
			Runtime:  m.runtimeFor(entry.spec),
			ID:       entry.id,
			State:    entry.state,
			Exported: append([]string(nil), entry.shims...),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Cleanup force-removes every registered container and its shims. Errors
// are collected per container; the sweep never stops early.
func (m *Manager) Cleanup(ctx context.Context) []error {
	var errs []error
	for _, info := range m.List() {
		if err := m.Remove(ctx, info.Name, true); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Spec returns the declared spec for a registered container.
func (m *Manager) Spec(name string) (sysconfig.ContainerSpec, error) {
	entry, err := m.lookup(name)
	if err != nil {
		return sysconfig.ContainerSpec{}, err
	}
	return entry.spec, nil
}

func (m *Manager) lookup(name string) (*managed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.registry[name]
	if !ok {
		return nil, &NotFoundError{Container: name}
	}
	return entry, nil
}

func (m *Manager) setState(name string, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.registry[name]; ok {
		entry.state = state
	}
}

func (m *Manager) setID(name, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.registry[name]; ok {
		entry.id = id
	}
}

func (m *Manager) removeShims(entry *managed) {
	m.mu.Lock()
	shims := entry.shims
	entry.shims = nil
	m.mu.Unlock()

	for _, shim := range shims {
		if err := os.Remove(shim); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("Failed to remove binary shim", "path", shim, "error", err)
		}
	}
}
