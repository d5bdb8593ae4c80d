// Package sysconfig defines the immutable configuration snapshot consumed
// by the reconciliation engine.
//
// A Config is a fully-resolved description of the desired (or previously
// applied) system state. It is produced by an external compiler and treated
// as read-only here: the engine compares two snapshots, it never edits one.
package sysconfig

// Config is a fully-resolved system configuration snapshot.
type Config struct {
	Hostname string `yaml:"hostname" json:"hostname"`
	Timezone string `yaml:"timezone,omitempty" json:"timezone,omitempty"`
	Locale   string `yaml:"locale,omitempty" json:"locale,omitempty"`

	Packages     Packages     `yaml:"packages,omitempty" json:"packages,omitempty"`
	Services     []Service    `yaml:"services,omitempty" json:"services,omitempty"`
	Users        []User       `yaml:"users,omitempty" json:"users,omitempty"`
	Repositories []Repository `yaml:"repositories,omitempty" json:"repositories,omitempty"`

	Containers []ContainerSpec `yaml:"containers,omitempty" json:"containers,omitempty"`
	Layers     []LayerSpec     `yaml:"layers,omitempty" json:"layers,omitempty"`

	Desktop    *DesktopConfig    `yaml:"desktop,omitempty" json:"desktop,omitempty"`
	Security   *SecurityConfig   `yaml:"security,omitempty" json:"security,omitempty"`
	Automation *AutomationConfig `yaml:"automation,omitempty" json:"automation,omitempty"`

	// BuildPin pins the host image for reproducible rebuilds.
	BuildPin string `yaml:"buildPin,omitempty" json:"buildPin,omitempty"`
}

// Packages declares the package surface relative to the base image.
type Packages struct {
	Install []string `yaml:"install,omitempty" json:"install,omitempty"`
	Remove  []string `yaml:"remove,omitempty" json:"remove,omitempty"`
}

// Service declares a host service and its desired state.
type Service struct {
	Name    string            `yaml:"name" json:"name"`
	Enabled bool              `yaml:"enabled" json:"enabled"`
	Options map[string]string `yaml:"options,omitempty" json:"options,omitempty"`
}

// User declares a host user account.
type User struct {
	Name   string   `yaml:"name" json:"name"`
	Groups []string `yaml:"groups,omitempty" json:"groups,omitempty"`
	Shell  string   `yaml:"shell,omitempty" json:"shell,omitempty"`
	Home   string   `yaml:"home,omitempty" json:"home,omitempty"`
}

// Repository declares a package repository.
type Repository struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// ContainerSpec declares one OS-level container.
type ContainerSpec struct {
	Name       string            `yaml:"name" json:"name"`
	Image      string            `yaml:"image" json:"image"`
	Tag        string            `yaml:"tag,omitempty" json:"tag,omitempty"`
	Digest     string            `yaml:"digest,omitempty" json:"digest,omitempty"`
	Runtime    string            `yaml:"runtime,omitempty" json:"runtime,omitempty"`
	Hostname   string            `yaml:"hostname,omitempty" json:"hostname,omitempty"`
	User       string            `yaml:"user,omitempty" json:"user,omitempty"`
	WorkDir    string            `yaml:"workDir,omitempty" json:"workDir,omitempty"`
	Env        map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Ports      []string          `yaml:"ports,omitempty" json:"ports,omitempty"`
	Mounts     []string          `yaml:"mounts,omitempty" json:"mounts,omitempty"`
	Labels     map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Network    string            `yaml:"network,omitempty" json:"network,omitempty"`
	Privileged bool              `yaml:"privileged,omitempty" json:"privileged,omitempty"`

	// Packages are installed inside the container after creation.
	Packages []string `yaml:"packages,omitempty" json:"packages,omitempty"`
	// ExportBinaries are forwarded to the host PATH via shims.
	ExportBinaries []string `yaml:"exportBinaries,omitempty" json:"exportBinaries,omitempty"`
	// PostCreate commands run inside the container after package install.
	PostCreate []string `yaml:"postCreate,omitempty" json:"postCreate,omitempty"`

	HealthCheck *HealthCheckSpec `yaml:"healthCheck,omitempty" json:"healthCheck,omitempty"`
}

// ImageRef returns the fully-qualified image reference. A pinned digest
// takes precedence over a tag for reproducibility.
func (c ContainerSpec) ImageRef() string {
	if c.Digest != "" {
		return c.Image + "@" + c.Digest
	}
	if c.Tag != "" {
		return c.Image + ":" + c.Tag
	}
	return c.Image
}

// HealthCheckSpec declares a container health probe.
type HealthCheckSpec struct {
	Command  []string `yaml:"command" json:"command"`
	Interval string   `yaml:"interval,omitempty" json:"interval,omitempty"`
	Timeout  string   `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Retries  int      `yaml:"retries,omitempty" json:"retries,omitempty"`
}

// LayerStrategy controls when a layer's container runs.
type LayerStrategy string

// Layer activation strategies.
const (
	StrategyAlwaysOn  LayerStrategy = "always-on"
	StrategyOnDemand  LayerStrategy = "on-demand"
	StrategyEphemeral LayerStrategy = "ephemeral"
)

// LayerSpec declares a named software layer wrapping one container.
type LayerSpec struct {
	Name         string        `yaml:"name" json:"name"`
	Purpose      string        `yaml:"purpose,omitempty" json:"purpose,omitempty"`
	Container    string        `yaml:"container" json:"container"`
	Dependencies []string      `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Strategy     LayerStrategy `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	Priority     int           `yaml:"priority,omitempty" json:"priority,omitempty"`
	Enabled      bool          `yaml:"enabled" json:"enabled"`
}

// DesktopConfig describes the graphical environment.
type DesktopConfig struct {
	Environment string            `yaml:"environment" json:"environment"`
	Theme       string            `yaml:"theme,omitempty" json:"theme,omitempty"`
	Extensions  []string          `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	Settings    map[string]string `yaml:"settings,omitempty" json:"settings,omitempty"`
}

// SecurityConfig describes host hardening settings.
type SecurityConfig struct {
	Firewall      bool     `yaml:"firewall" json:"firewall"`
	SELinuxMode   string   `yaml:"selinuxMode,omitempty" json:"selinuxMode,omitempty"`
	OpenPorts     []string `yaml:"openPorts,omitempty" json:"openPorts,omitempty"`
	SSHPasswords  bool     `yaml:"sshPasswords,omitempty" json:"sshPasswords,omitempty"`
	AutomaticLock bool     `yaml:"automaticLock,omitempty" json:"automaticLock,omitempty"`
}

// AutomationConfig describes scheduled workflows.
type AutomationConfig struct {
	Workflows []Workflow `yaml:"workflows,omitempty" json:"workflows,omitempty"`
}

// Workflow is one scheduled automation task.
type Workflow struct {
	Name     string `yaml:"name" json:"name"`
	Schedule string `yaml:"schedule" json:"schedule"`
	Command  string `yaml:"command" json:"command"`
}

// FindContainer returns the container spec with the given name.
func (c *Config) FindContainer(name string) (ContainerSpec, bool) {
	for _, spec := range c.Containers {
		if spec.Name == name {
			return spec, true
		}
	}
	return ContainerSpec{}, false
}

// FindLayer returns the layer spec with the given name.
func (c *Config) FindLayer(name string) (LayerSpec, bool) {
	for _, spec := range c.Layers {
		if spec.Name == name {
			return spec, true
		}
	}
	return LayerSpec{}, false
}
