package update

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volkov-io/convergd/internal/change"
	"github.com/volkov-io/convergd/internal/log"
	"github.com/volkov-io/convergd/internal/sysconfig"
	"github.com/volkov-io/convergd/internal/systemd"
	"github.com/volkov-io/convergd/internal/testutil/fakerunner"
)

func newTestApplier(t *testing.T, services systemd.ServiceManager) (*HostApplier, *fakerunner.Runner) {
	t.Helper()
	runner := fakerunner.New()
	if services == nil {
		services = &systemd.MockServiceManager{}
	}
	return NewHostApplier(runner, services, log.NewLogger(false), t.TempDir()), runner
}

func TestApplyHostname(t *testing.T) {
	applier, runner := newTestApplier(t, nil)

	err := applier.Apply(context.Background(), change.Change{
		Type:  change.TypeSystemConfig,
		Field: "hostname",
		New:   "workstation",
	})
	require.NoError(t, err)

	calls := runner.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "hostnamectl", calls[0].Name)
	assert.Equal(t, []string{"set-hostname", "workstation"}, calls[0].Args)
}

func TestApplyTimezoneAndLocale(t *testing.T) {
	applier, runner := newTestApplier(t, nil)

	require.NoError(t, applier.Apply(context.Background(), change.Change{
		Type: change.TypeSystemConfig, Field: "timezone", New: "Europe/Berlin",
	}))
	require.NoError(t, applier.Apply(context.Background(), change.Change{
		Type: change.TypeSystemConfig, Field: "locale", New: "de_DE.UTF-8",
	}))

	calls := runner.GetCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "timedatectl", calls[0].Name)
	assert.Equal(t, "localectl", calls[1].Name)
	assert.Equal(t, []string{"set-locale", "LANG=de_DE.UTF-8"}, calls[1].Args)
}

func TestApplyUnknownSystemField(t *testing.T) {
	applier, _ := newTestApplier(t, nil)

	err := applier.Apply(context.Background(), change.Change{
		Type: change.TypeSystemConfig, Field: "kernel", New: "6.1",
	})
	assert.Error(t, err)
}

func TestApplyPackageInstall(t *testing.T) {
	applier, runner := newTestApplier(t, nil)

	err := applier.Apply(context.Background(), change.Change{
		Type: change.TypePackageInstall, Field: "vim",
	})
	require.NoError(t, err)

	calls := runner.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sh", calls[0].Name)
	assert.Contains(t, calls[0].Args[1], "dnf install -y vim")
	assert.Contains(t, calls[0].Args[1], "apt-get install -y vim")
}

func TestApplyPackageRemove(t *testing.T) {
	applier, runner := newTestApplier(t, nil)

	err := applier.Apply(context.Background(), change.Change{
		Type: change.TypePackageRemove, Field: "nano",
	})
	require.NoError(t, err)

	calls := runner.GetCalls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Args[1], "dnf remove -y nano")
}

func TestApplyServiceToggleEnable(t *testing.T) {
	var ops []string
	services := &systemd.MockServiceManager{
		EnableFunc: func(_ context.Context, service string) error {
			ops = append(ops, "enable "+service)
			return nil
		},
		StartFunc: func(_ context.Context, service string) error {
			ops = append(ops, "start "+service)
			return nil
		},
	}
	applier, _ := newTestApplier(t, services)

	err := applier.Apply(context.Background(), change.Change{
		Type:            change.TypeServiceStateToggle,
		Field:           "nginx",
		New:             true,
		AffectedService: "nginx",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"enable nginx", "start nginx"}, ops)
}

func TestApplyServiceToggleDisable(t *testing.T) {
	var ops []string
	services := &systemd.MockServiceManager{
		StopFunc: func(_ context.Context, service string) error {
			ops = append(ops, "stop "+service)
			return nil
		},
		DisableFunc: func(_ context.Context, service string) error {
			ops = append(ops, "disable "+service)
			return nil
		},
	}
	applier, _ := newTestApplier(t, services)

	err := applier.Apply(context.Background(), change.Change{
		Type:            change.TypeServiceStateToggle,
		Field:           "telnetd",
		New:             false,
		AffectedService: "telnetd",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"stop telnetd", "disable telnetd"}, ops)
}

func TestApplyServiceConfigUpdateReloads(t *testing.T) {
	var reloaded string
	services := &systemd.MockServiceManager{
		ReloadOrRestartFunc: func(_ context.Context, service string) error {
			reloaded = service
			return nil
		},
	}
	applier, _ := newTestApplier(t, services)

	err := applier.Apply(context.Background(), change.Change{
		Type:            change.TypeServiceConfigUpdate,
		Field:           "sshd",
		AffectedService: "sshd",
	})
	require.NoError(t, err)
	assert.Equal(t, "sshd", reloaded)
}

func TestApplyUserAdd(t *testing.T) {
	applier, runner := newTestApplier(t, nil)

	err := applier.Apply(context.Background(), change.Change{
		Type:  change.TypeUserAdd,
		Field: "alice",
		New: sysconfig.User{
			Name:   "alice",
			Groups: []string{"wheel", "docker"},
			Shell:  "/bin/zsh",
		},
	})
	require.NoError(t, err)

	calls := runner.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "useradd", calls[0].Name)
	assert.Equal(t, []string{"-m", "-s", "/bin/zsh", "-G", "wheel,docker", "alice"}, calls[0].Args)
}

func TestApplyUserModify(t *testing.T) {
	applier, runner := newTestApplier(t, nil)

	err := applier.Apply(context.Background(), change.Change{
		Type:  change.TypeUserModify,
		Field: "alice",
		New:   sysconfig.User{Name: "alice", Groups: []string{"wheel", "docker"}},
	})
	require.NoError(t, err)

	calls := runner.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "usermod", calls[0].Name)
	assert.Equal(t, []string{"-G", "wheel,docker", "alice"}, calls[0].Args)
}

func TestApplyUserRemoveRejected(t *testing.T) {
	applier, runner := newTestApplier(t, nil)

	err := applier.Apply(context.Background(), change.Change{
		Type:  change.TypeUserRemove,
		Field: "alice",
	})
	require.Error(t, err)
	assert.Zero(t, runner.CallCount())
}

func TestApplyRepositoryAdd(t *testing.T) {
	dir := t.TempDir()
	applier := NewHostApplier(fakerunner.New(), &systemd.MockServiceManager{}, log.NewLogger(false), dir)

	err := applier.Apply(context.Background(), change.Change{
		Type:  change.TypeRepositoryAdd,
		Field: "extras",
		New:   sysconfig.Repository{Name: "extras", URL: "https://mirror.example.com/extras"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "extras.repo"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[extras]")
	assert.Contains(t, string(data), "baseurl=https://mirror.example.com/extras")
}

func TestApplyRepositoryRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extras.repo")
	require.NoError(t, os.WriteFile(path, []byte("[extras]\n"), 0o644))

	applier := NewHostApplier(fakerunner.New(), &systemd.MockServiceManager{}, log.NewLogger(false), dir)

	err := applier.Apply(context.Background(), change.Change{
		Type:  change.TypeRepositoryRemove,
		Field: "extras",
	})
	require.NoError(t, err)
	assert.NoFileExists(t, path)

	// Removing a missing repository is not an error.
	err = applier.Apply(context.Background(), change.Change{
		Type:  change.TypeRepositoryRemove,
		Field: "ghost",
	})
	assert.NoError(t, err)
}

func TestApplySecurityConfigReloadsAffectedService(t *testing.T) {
	var reloaded string
	services := &systemd.MockServiceManager{
		ReloadOrRestartFunc: func(_ context.Context, service string) error {
			reloaded = service
			return nil
		},
	}
	applier, _ := newTestApplier(t, services)

	err := applier.Apply(context.Background(), change.Change{
		Type:            change.TypeSecurityConfig,
		Field:           "updated",
		AffectedService: "firewalld",
	})
	require.NoError(t, err)
	assert.Equal(t, "firewalld", reloaded)
}

func TestApplyDesktopConfigIsRecordOnly(t *testing.T) {
	applier, runner := newTestApplier(t, nil)

	err := applier.Apply(context.Background(), change.Change{
		Type:  change.TypeDesktopConfig,
		Field: "updated",
	})
	require.NoError(t, err)
	assert.Zero(t, runner.CallCount())
}

func TestApplySurfacesCommandFailure(t *testing.T) {
	applier, runner := newTestApplier(t, nil)
	runner.SetError("hostnamectl", []string{"set-hostname", "bad host"}, errors.New("exit status 1"))

	err := applier.Apply(context.Background(), change.Change{
		Type:  change.TypeSystemConfig,
		Field: "hostname",
		New:   "bad host",
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "hostnamectl"))
}
