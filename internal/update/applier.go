package update

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/volkov-io/convergd/internal/change"
	"github.com/volkov-io/convergd/internal/execx"
	"github.com/volkov-io/convergd/internal/log"
	"github.com/volkov-io/convergd/internal/sysconfig"
	"github.com/volkov-io/convergd/internal/systemd"
)

// DefaultRepoDir is where repository definitions are written.
const DefaultRepoDir = "/etc/yum.repos.d"

// Applier applies one classified change to the running system.
type Applier interface {
	Apply(ctx context.Context, c change.Change) error
}

// HostApplier applies changes through host commands and the systemd
// service manager.
type HostApplier struct {
	runner   execx.Runner
	services systemd.ServiceManager
	logger   log.Logger
	repoDir  string
}

// NewHostApplier creates an applier. An empty repoDir falls back to
// DefaultRepoDir.
func NewHostApplier(runner execx.Runner, services systemd.ServiceManager, logger log.Logger, repoDir string) *HostApplier {
	if repoDir == "" {
		repoDir = DefaultRepoDir
	}
	return &HostApplier{
		runner:   runner,
		services: services,
		logger:   logger,
		repoDir:  repoDir,
	}
}

// Apply dispatches a change to the host-level primitive that realizes it.
func (a *HostApplier) Apply(ctx context.Context, c change.Change) error {
	a.logger.Debug("Applying change", "type", string(c.Type), "resource", c.ResourceKey())

	switch c.Type {
	case change.TypeSystemConfig:
		return a.applySystemConfig(ctx, c)
	case change.TypePackageInstall:
		return a.runHost(ctx, hostPackageCommand("install", c.Field))
	case change.TypePackageRemove:
		return a.runHost(ctx, hostPackageCommand("remove", c.Field))
	case change.TypeServiceAdd:
		return a.applyServiceAdd(ctx, c)
	case change.TypeServiceRemove:
		return a.applyServiceRemove(ctx, c)
	case change.TypeServiceStateToggle:
		return a.applyServiceToggle(ctx, c)
	case change.TypeServiceConfigUpdate:
		return a.services.ReloadOrRestart(ctx, c.AffectedService)
	case change.TypeUserAdd:
		return a.applyUserAdd(ctx, c)
	case change.TypeUserModify:
		return a.applyUserModify(ctx, c)
	case change.TypeUserRemove:
		return errors.New("user removal cannot be applied live")
	case change.TypeRepositoryAdd, change.TypeRepositoryUpdate:
		return a.applyRepositoryWrite(c)
	case change.TypeRepositoryRemove:
		return a.applyRepositoryRemove(c)
	case change.TypeSecurityConfig:
		if c.AffectedService != "" {
			return a.services.ReloadOrRestart(ctx, c.AffectedService)
		}
		return nil
	case change.TypeDesktopConfig, change.TypeAutomationWorkflow:
		// Realized through regenerated artifacts on the next image build;
		// nothing to do on the live host beyond recording the change.
		a.logger.Debug("Change recorded without host action", "type", string(c.Type))
		return nil
	default:
		return fmt.Errorf("unsupported change type %s", c.Type)
	}
}

func (a *HostApplier) applySystemConfig(ctx context.Context, c change.Change) error {
	value, _ := c.New.(string)
	switch c.Field {
	case "hostname":
		return a.runHost(ctx, []string{"hostnamectl", "set-hostname", value})
	case "timezone":
		return a.runHost(ctx, []string{"timedatectl", "set-timezone", value})
	case "locale":
		return a.runHost(ctx, []string{"localectl", "set-locale", "LANG=" + value})
	default:
		return fmt.Errorf("unsupported system config field %s", c.Field)
	}
}

func (a *HostApplier) applyServiceAdd(ctx context.Context, c change.Change) error {
	svc, ok := c.New.(sysconfig.Service)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", c.Type)
	}
	if !svc.Enabled {
		return nil
	}
	if err := a.services.Enable(ctx, svc.Name); err != nil {
		return err
	}
	return a.services.Start(ctx, svc.Name)
}

func (a *HostApplier) applyServiceRemove(ctx context.Context, c change.Change) error {
	if err := a.services.Stop(ctx, c.AffectedService); err != nil {
		return err
	}
	return a.services.Disable(ctx, c.AffectedService)
}

func (a *HostApplier) applyServiceToggle(ctx context.Context, c change.Change) error {
	enabled, ok := c.New.(bool)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", c.Type)
	}
	if enabled {
		if err := a.services.Enable(ctx, c.AffectedService); err != nil {
			return err
		}
		return a.services.Start(ctx, c.AffectedService)
	}
	if err := a.services.Stop(ctx, c.AffectedService); err != nil {
		return err
	}
	return a.services.Disable(ctx, c.AffectedService)
}

func (a *HostApplier) applyUserAdd(ctx context.Context, c change.Change) error {
	u, ok := c.New.(sysconfig.User)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", c.Type)
	}

	args := []string{"useradd", "-m"}
	if u.Home != "" {
		args = append(args, "-d", u.Home)
	}
	if u.Shell != "" {
		args = append(args, "-s", u.Shell)
	}
	if len(u.Groups) > 0 {
		args = append(args, "-G", strings.Join(u.Groups, ","))
	}
	args = append(args, u.Name)

	return a.runHost(ctx, args)
}

func (a *HostApplier) applyUserModify(ctx context.Context, c change.Change) error {
	u, ok := c.New.(sysconfig.User)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", c.Type)
	}

	args := []string{"usermod", "-G", strings.Join(u.Groups, ",")}
	if u.Shell != "" {
		args = append(args, "-s", u.Shell)
	}
	if u.Home != "" {
		args = append(args, "-d", u.Home)
	}
	args = append(args, u.Name)

	return a.runHost(ctx, args)
}

func (a *HostApplier) applyRepositoryWrite(c change.Change) error {
	repo, ok := c.New.(sysconfig.Repository)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", c.Type)
	}

	if err := os.MkdirAll(a.repoDir, 0o755); err != nil {
		return fmt.Errorf("failed to create repository dir: %w", err)
	}

	content := fmt.Sprintf("[%s]\nname=%s\nbaseurl=%s\nenabled=1\n", repo.Name, repo.Name, repo.URL)
	path := filepath.Join(a.repoDir, repo.Name+".repo")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write repository %s: %w", repo.Name, err)
	}
	return nil
}

func (a *HostApplier) applyRepositoryRemove(c change.Change) error {
	path := filepath.Join(a.repoDir, c.Field+".repo")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove repository %s: %w", c.Field, err)
	}
	return nil
}

func (a *HostApplier) runHost(ctx context.Context, argv []string) error {
	output, err := a.runner.CombinedOutput(ctx, argv[0], argv[1:]...)
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", argv[0], err, strings.TrimSpace(string(output)))
	}
	return nil
}

// hostPackageCommand builds a shell invocation that drives whichever
// package front-end the host ships, mirroring the container provisioning
// step.
func hostPackageCommand(verb, pkg string) []string {
	var script string
	switch verb {
	case "install":
		script = "if command -v dnf >/dev/null; then dnf install -y " + pkg +
			"; elif command -v apt-get >/dev/null; then apt-get update && apt-get install -y " + pkg +
			"; elif command -v pacman >/dev/null; then pacman -Sy --noconfirm " + pkg +
			"; elif command -v apk >/dev/null; then apk add " + pkg +
			"; else echo 'no supported package manager' >&2; exit 1; fi"
	default:
		script = "if command -v dnf >/dev/null; then dnf remove -y " + pkg +
			"; elif command -v apt-get >/dev/null; then apt-get remove -y " + pkg +
			"; elif command -v pacman >/dev/null; then pacman -R --noconfirm " + pkg +
			"; elif command -v apk >/dev/null; then apk del " + pkg +
			"; else echo 'no supported package manager' >&2; exit 1; fi"
	}
	return []string{"sh", "-c", script}
}
