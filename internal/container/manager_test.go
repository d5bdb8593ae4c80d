package container

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volkov-io/convergd/internal/log"
	"github.com/volkov-io/convergd/internal/sysconfig"
	"github.com/volkov-io/convergd/internal/testutil/fakerunner"
)

func newTestManager(t *testing.T, runner *fakerunner.Runner) *Manager {
	t.Helper()
	return NewManager(log.NewLogger(false), runner, Options{
		Runtime:      "podman",
		BinExportDir: t.TempDir(),
	})
}

func TestCreateRegistersContainer(t *testing.T) {
	runner := fakerunner.New()
	mgr := newTestManager(t, runner)

	spec := sysconfig.ContainerSpec{Name: "dev", Image: "fedora", Tag: "41"}
	require.NoError(t, mgr.Create(context.Background(), spec))

	infos := mgr.List()
	require.Len(t, infos, 1)
	assert.Equal(t, "dev", infos[0].Name)
	assert.Equal(t, StateCreated, infos[0].State)

	calls := runner.GetCalls()
	require.NotEmpty(t, calls)
	assert.Equal(t, "podman", calls[0].Name)
	assert.Equal(t, "create", calls[0].Args[0])
}

func TestCreateDuplicateNameRejected(t *testing.T) {
	mgr := newTestManager(t, fakerunner.New())

	spec := sysconfig.ContainerSpec{Name: "dev", Image: "fedora"}
	require.NoError(t, mgr.Create(context.Background(), spec))

	err := mgr.Create(context.Background(), spec)
	require.Error(t, err)
	assert.True(t, IsAlreadyExists(err))
}

func TestCreateProvisionsPackagesAndPostCreate(t *testing.T) {
	runner := fakerunner.New()
	mgr := newTestManager(t, runner)

	spec := sysconfig.ContainerSpec{
		Name:       "dev",
		Image:      "fedora",
		Packages:   []string{"git"},
		PostCreate: []string{"echo ready"},
	}
	require.NoError(t, mgr.Create(context.Background(), spec))

	calls := runner.GetCalls()
	require.Len(t, calls, 4)
	assert.Equal(t, "create", calls[0].Args[0])
	assert.Equal(t, []string{"start", "dev"}, calls[1].Args)
	assert.Equal(t, "exec", calls[2].Args[0])
	assert.Contains(t, calls[2].Args[3], "dnf install -y git")
	assert.Equal(t, []string{"exec", "dev", "sh", "-c", "echo ready"}, calls[3].Args)

	infos := mgr.List()
	assert.Equal(t, StateRunning, infos[0].State)
}

func TestCreateFailureNamesSubStep(t *testing.T) {
	runner := fakerunner.New()
	runner.SetError("podman", []string{"start", "dev"}, errors.New("no such image"))
	mgr := newTestManager(t, runner)

	spec := sysconfig.ContainerSpec{Name: "dev", Image: "fedora", Packages: []string{"git"}}
	err := mgr.Create(context.Background(), spec)
	require.Error(t, err)

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "Create", cerr.Op)
	assert.Equal(t, "start", cerr.Step)

	// Failed container stays registered in Error state.
	infos := mgr.List()
	require.Len(t, infos, 1)
	assert.Equal(t, StateError, infos[0].State)
}

func TestStartStopRemove(t *testing.T) {
	runner := fakerunner.New()
	mgr := newTestManager(t, runner)
	ctx := context.Background()

	require.NoError(t, mgr.Create(ctx, sysconfig.ContainerSpec{Name: "dev", Image: "fedora"}))
	require.NoError(t, mgr.Start(ctx, "dev"))
	assert.Equal(t, StateRunning, mgr.List()[0].State)

	require.NoError(t, mgr.Stop(ctx, "dev"))
	assert.Equal(t, StateStopped, mgr.List()[0].State)

	require.NoError(t, mgr.Remove(ctx, "dev", false))
	assert.Empty(t, mgr.List())
}

func TestOperationsOnUnknownContainer(t *testing.T) {
	mgr := newTestManager(t, fakerunner.New())
	ctx := context.Background()

	assert.True(t, IsNotFound(mgr.Start(ctx, "ghost")))
	assert.True(t, IsNotFound(mgr.Stop(ctx, "ghost")))
	assert.True(t, IsNotFound(mgr.Remove(ctx, "ghost", true)))

	_, err := mgr.Status(ctx, "ghost")
	assert.True(t, IsNotFound(err))
	_, err = mgr.Exec(ctx, "ghost", []string{"true"})
	assert.True(t, IsNotFound(err))
}

func TestStatusQueriesRuntime(t *testing.T) {
	runner := fakerunner.New()
	runner.SetOutput("podman", []string{"inspect", "--format", "{{.State.Status}}", "dev"}, []byte("running\n"))
	mgr := newTestManager(t, runner)
	ctx := context.Background()

	require.NoError(t, mgr.Create(ctx, sysconfig.ContainerSpec{Name: "dev", Image: "fedora"}))

	state, err := mgr.Status(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, StateRunning, state)
}

func TestStatsParsesRuntimeJSON(t *testing.T) {
	runner := fakerunner.New()
	runner.SetOutput("podman",
		[]string{"stats", "--no-stream", "--format", "json", "dev"},
		[]byte(`[{"CPUPerc":"1.25%","MemUsage":"120MB / 8GB"}]`))
	mgr := newTestManager(t, runner)
	ctx := context.Background()

	require.NoError(t, mgr.Create(ctx, sysconfig.ContainerSpec{Name: "dev", Image: "fedora"}))

	stats, err := mgr.Stats(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, "1.25%", stats.CPUPercent)
	assert.Equal(t, "120MB / 8GB", stats.MemUsage)
}

func TestExecForwardsCommand(t *testing.T) {
	runner := fakerunner.New()
	runner.SetOutput("podman", []string{"exec", "dev", "cat", "/etc/os-release"}, []byte("ID=fedora"))
	mgr := newTestManager(t, runner)
	ctx := context.Background()

	require.NoError(t, mgr.Create(ctx, sysconfig.ContainerSpec{Name: "dev", Image: "fedora"}))

	out, err := mgr.Exec(ctx, "dev", []string{"cat", "/etc/os-release"})
	require.NoError(t, err)
	assert.Equal(t, "ID=fedora", string(out))
}

func TestExportBinariesWritesTrackedShims(t *testing.T) {
	runner := fakerunner.New()
	mgr := newTestManager(t, runner)
	ctx := context.Background()

	spec := sysconfig.ContainerSpec{
		Name:           "dev",
		Image:          "fedora",
		ExportBinaries: []string{"cargo", "rustc"},
	}
	require.NoError(t, mgr.Create(ctx, spec))
	require.NoError(t, mgr.ExportBinaries(spec))

	infos := mgr.List()
	require.Len(t, infos[0].Exported, 2)

	for _, shim := range infos[0].Exported {
		data, err := os.ReadFile(shim)
		require.NoError(t, err)
		assert.Contains(t, string(data), "podman exec -i dev "+filepath.Base(shim))

		st, err := os.Stat(shim)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o755), st.Mode().Perm())
	}

	// Remove reverses the shims.
	require.NoError(t, mgr.Remove(ctx, "dev", true))
	for _, shim := range infos[0].Exported {
		_, err := os.Stat(shim)
		assert.True(t, os.IsNotExist(err))
	}
}

func TestHealthCheckLivenessOnly(t *testing.T) {
	runner := fakerunner.New()
	runner.SetOutput("podman", []string{"inspect", "--format", "{{.State.Status}}", "dev"}, []byte("running"))
	mgr := newTestManager(t, runner)
	ctx := context.Background()

	require.NoError(t, mgr.Create(ctx, sysconfig.ContainerSpec{Name: "dev", Image: "fedora"}))

	// Running with no configured probe degrades to liveness.
	health, err := mgr.HealthCheck(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, Healthy, health)

	runner.SetOutput("podman", []string{"inspect", "--format", "{{.State.Status}}", "dev"}, []byte("exited"))
	health, err = mgr.HealthCheck(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, Unhealthy, health)
}

func TestHealthCheckRunsConfiguredProbe(t *testing.T) {
	runner := fakerunner.New()
	runner.SetOutput("podman", []string{"inspect", "--format", "{{.State.Status}}", "dev"}, []byte("running"))
	mgr := newTestManager(t, runner)
	ctx := context.Background()

	spec := sysconfig.ContainerSpec{
		Name:  "dev",
		Image: "fedora",
		HealthCheck: &sysconfig.HealthCheckSpec{
			Command: []string{"curl", "-f", "http://localhost/healthz"},
		},
	}
	require.NoError(t, mgr.Create(ctx, spec))

	health, err := mgr.HealthCheck(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, Healthy, health)

	runner.SetError("podman", []string{"exec", "dev", "curl", "-f", "http://localhost/healthz"}, errors.New("exit 22"))
	health, err = mgr.HealthCheck(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, Unhealthy, health)
}

func TestCleanupRemovesEverything(t *testing.T) {
	runner := fakerunner.New()
	mgr := newTestManager(t, runner)
	ctx := context.Background()

	require.NoError(t, mgr.Create(ctx, sysconfig.ContainerSpec{Name: "a", Image: "fedora"}))
	require.NoError(t, mgr.Create(ctx, sysconfig.ContainerSpec{Name: "b", Image: "fedora"}))

	errs := mgr.Cleanup(ctx)
	assert.Empty(t, errs)
	assert.Empty(t, mgr.List())
}

func TestConcurrentCreateSameNameOnlyOneWins(t *testing.T) {
	mgr := newTestManager(t, fakerunner.New())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = mgr.Create(ctx, sysconfig.ContainerSpec{Name: "dev", Image: "fedora"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, IsAlreadyExists(err))
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, mgr.List(), 1)
}

func TestRuntimeOverridePerSpec(t *testing.T) {
	runner := fakerunner.New()
	mgr := newTestManager(t, runner)
	ctx := context.Background()

	require.NoError(t, mgr.Create(ctx, sysconfig.ContainerSpec{Name: "dev", Image: "fedora", Runtime: "docker"}))

	calls := runner.GetCalls()
	require.NotEmpty(t, calls)
	assert.Equal(t, "docker", calls[0].Name)
}
