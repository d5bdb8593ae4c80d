package container

import (
	"sort"

	"github.com/volkov-io/convergd/internal/sysconfig"
)

// BuildCreateArgs converts a container spec into the argument list for the
// runtime's create command. Global mounts are unioned with the spec's own
// mount list. The same argument shape works for podman, docker and nerdctl.
func BuildCreateArgs(spec sysconfig.ContainerSpec, globalMounts []string) []string {
	args := []string{"create", "--name", spec.Name}

	args = appendBasicArgs(args, spec)
	args = appendEnvArgs(args, spec.Env)
	args = appendPortArgs(args, spec.Ports)
	args = appendMountArgs(args, globalMounts, spec.Mounts)
	args = appendLabelArgs(args, spec.Labels)

	if spec.Network != "" {
		args = append(args, "--network", spec.Network)
	}
	if spec.Privileged {
		args = append(args, "--privileged")
	}

	args = append(args, spec.ImageRef())
	return args
}

func appendBasicArgs(args []string, spec sysconfig.ContainerSpec) []string {
	if spec.Hostname != "" {
		args = append(args, "--hostname", spec.Hostname)
	}
	if spec.User != "" {
		args = append(args, "-u", spec.User)
	}
	if spec.WorkDir != "" {
		args = append(args, "-w", spec.WorkDir)
	}
	return args
}

func appendEnvArgs(args []string, env map[string]string) []string {
	// Sort env keys for deterministic output
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+env[k])
	}
	return args
}

func appendPortArgs(args []string, ports []string) []string {
	for _, p := range ports {
		args = append(args, "-p", p)
	}
	return args
}

func appendMountArgs(args []string, globalMounts, mounts []string) []string {
	seen := make(map[string]struct{}, len(globalMounts)+len(mounts))
	for _, m := range globalMounts {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		args = append(args, "-v", m)
	}
	for _, m := range mounts {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		args = append(args, "-v", m)
	}
	return args
}

func appendLabelArgs(args []string, labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--label", k+"="+labels[k])
	}
	return args
}

// buildInstallCommand returns a shell command that installs packages with
// whichever package manager the container image ships.
func buildInstallCommand(packages []string) []string {
	list := ""
	for i, p := range packages {
		if i > 0 {
			list += " "
		}
		list += p
	}
	script := "if command -v dnf >/dev/null; then dnf install -y " + list +
		"; elif command -v apt-get >/dev/null; then apt-get update && apt-get install -y " + list +
		"; elif command -v pacman >/dev/null; then pacman -Sy --noconfirm " + list +
		"; elif command -v apk >/dev/null; then apk add " + list +
		"; else echo 'no supported package manager' >&2; exit 1; fi"
	return []string{"sh", "-c", script}
}
