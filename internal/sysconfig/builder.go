package sysconfig

// Builder assembles a Config incrementally. Build returns a deep copy, so
// a snapshot handed out is never aliased by later builder mutations.
type Builder struct {
	cfg Config
}

// NewBuilder creates an empty config builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Hostname sets the machine hostname.
func (b *Builder) Hostname(name string) *Builder {
	b.cfg.Hostname = name
	return b
}

// Timezone sets the machine timezone.
func (b *Builder) Timezone(tz string) *Builder {
	b.cfg.Timezone = tz
	return b
}

// Locale sets the machine locale.
func (b *Builder) Locale(locale string) *Builder {
	b.cfg.Locale = locale
	return b
}

// InstallPackages appends packages to install.
func (b *Builder) InstallPackages(names ...string) *Builder {
	b.cfg.Packages.Install = append(b.cfg.Packages.Install, names...)
	return b
}

// RemovePackages appends packages to remove from the base image.
func (b *Builder) RemovePackages(names ...string) *Builder {
	b.cfg.Packages.Remove = append(b.cfg.Packages.Remove, names...)
	return b
}

// Service appends a service declaration.
func (b *Builder) Service(svc Service) *Builder {
	b.cfg.Services = append(b.cfg.Services, svc)
	return b
}

// User appends a user declaration.
func (b *Builder) User(u User) *Builder {
	b.cfg.Users = append(b.cfg.Users, u)
	return b
}

// Repository appends a package repository.
func (b *Builder) Repository(r Repository) *Builder {
	b.cfg.Repositories = append(b.cfg.Repositories, r)
	return b
}

// Container appends a container declaration.
func (b *Builder) Container(spec ContainerSpec) *Builder {
	b.cfg.Containers = append(b.cfg.Containers, spec)
	return b
}

// Layer appends a layer declaration.
func (b *Builder) Layer(spec LayerSpec) *Builder {
	b.cfg.Layers = append(b.cfg.Layers, spec)
	return b
}

// Desktop sets the desktop sub-config.
func (b *Builder) Desktop(d *DesktopConfig) *Builder {
	b.cfg.Desktop = d
	return b
}

// Security sets the security sub-config.
func (b *Builder) Security(s *SecurityConfig) *Builder {
	b.cfg.Security = s
	return b
}

// Automation sets the automation sub-config.
func (b *Builder) Automation(a *AutomationConfig) *Builder {
	b.cfg.Automation = a
	return b
}

// BuildPin sets the reproducible-build pin.
func (b *Builder) BuildPin(pin string) *Builder {
	b.cfg.BuildPin = pin
	return b
}

// Build returns an immutable snapshot of the assembled configuration.
func (b *Builder) Build() *Config {
	return b.cfg.clone()
}

func (c *Config) clone() *Config {
	out := *c

	out.Packages.Install = append([]string(nil), c.Packages.Install...)
	out.Packages.Remove = append([]string(nil), c.Packages.Remove...)
	out.Services = cloneServices(c.Services)
	out.Users = cloneUsers(c.Users)
	out.Repositories = append([]Repository(nil), c.Repositories...)
	out.Containers = cloneContainers(c.Containers)
	out.Layers = cloneLayers(c.Layers)

	if c.Desktop != nil {
		d := *c.Desktop
		d.Extensions = append([]string(nil), c.Desktop.Extensions...)
		d.Settings = cloneMap(c.Desktop.Settings)
		out.Desktop = &d
	}
	if c.Security != nil {
		s := *c.Security
		s.OpenPorts = append([]string(nil), c.Security.OpenPorts...)
		out.Security = &s
	}
	if c.Automation != nil {
		a := AutomationConfig{Workflows: append([]Workflow(nil), c.Automation.Workflows...)}
		out.Automation = &a
	}

	return &out
}

func cloneServices(in []Service) []Service {
	if in == nil {
		return nil
	}
	out := make([]Service, len(in))
	for i, s := range in {
		out[i] = s
		out[i].Options = cloneMap(s.Options)
	}
	return out
}

func cloneUsers(in []User) []User {
	if in == nil {
		return nil
	}
	out := make([]User, len(in))
	for i, u := range in {
		out[i] = u
		out[i].Groups = append([]string(nil), u.Groups...)
	}
	return out
}

func cloneContainers(in []ContainerSpec) []ContainerSpec {
	if in == nil {
		return nil
	}
	out := make([]ContainerSpec, len(in))
	for i, c := range in {
		out[i] = c
		out[i].Env = cloneMap(c.Env)
		out[i].Labels = cloneMap(c.Labels)
		out[i].Ports = append([]string(nil), c.Ports...)
		out[i].Mounts = append([]string(nil), c.Mounts...)
		out[i].Packages = append([]string(nil), c.Packages...)
		out[i].ExportBinaries = append([]string(nil), c.ExportBinaries...)
		out[i].PostCreate = append([]string(nil), c.PostCreate...)
		if c.HealthCheck != nil {
			hc := *c.HealthCheck
			hc.Command = append([]string(nil), c.HealthCheck.Command...)
			out[i].HealthCheck = &hc
		}
	}
	return out
}

func cloneLayers(in []LayerSpec) []LayerSpec {
	if in == nil {
		return nil
	}
	out := make([]LayerSpec, len(in))
	for i, l := range in {
		out[i] = l
		out[i].Dependencies = append([]string(nil), l.Dependencies...)
	}
	return out
}

func cloneMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
