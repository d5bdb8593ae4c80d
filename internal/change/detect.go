package change

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/volkov-io/convergd/internal/sysconfig"
)

// Detect compares two configuration snapshots and returns every difference
// as a typed change. It is deterministic, total and side-effect free: equal
// snapshots yield an empty slice, and no combination of valid snapshots
// produces an error.
//
// Strategies are left unset; Classify assigns them.
func Detect(current, desired *sysconfig.Config) []Change {
	var changes []Change

	changes = append(changes, detectSystemConfig(current, desired)...)
	changes = append(changes, detectPackages(current, desired)...)
	changes = append(changes, detectServices(current, desired)...)
	changes = append(changes, detectUsers(current, desired)...)
	changes = append(changes, detectRepositories(current, desired)...)
	changes = append(changes, detectDesktop(current.Desktop, desired.Desktop)...)
	changes = append(changes, detectSecurity(current.Security, desired.Security)...)
	changes = append(changes, detectAutomation(current.Automation, desired.Automation)...)

	return changes
}

func detectSystemConfig(current, desired *sysconfig.Config) []Change {
	var changes []Change

	scalar := func(field, old, new string, impact Impact) {
		if old == new {
			return
		}
		changes = append(changes, Change{
			Type:        TypeSystemConfig,
			Field:       field,
			Old:         old,
			New:         new,
			Description: fmt.Sprintf("%s changed from %q to %q", field, old, new),
			Impact:      impact,
		})
	}

	scalar("hostname", current.Hostname, desired.Hostname, ImpactMedium)
	scalar("timezone", current.Timezone, desired.Timezone, ImpactLow)
	scalar("locale", current.Locale, desired.Locale, ImpactMedium)

	return changes
}

func detectPackages(current, desired *sysconfig.Config) []Change {
	var changes []Change

	curInstall := toSet(current.Packages.Install)
	desInstall := toSet(desired.Packages.Install)
	curRemove := toSet(current.Packages.Remove)

	for _, name := range desired.Packages.Install {
		if _, ok := curInstall[name]; !ok {
			changes = append(changes, Change{
				Type:        TypePackageInstall,
				Field:       name,
				New:         name,
				Description: fmt.Sprintf("install package %s", name),
				Impact:      ImpactLow,
			})
		}
	}

	for _, name := range current.Packages.Install {
		if _, ok := desInstall[name]; !ok {
			changes = append(changes, Change{
				Type:        TypePackageRemove,
				Field:       name,
				Old:         name,
				Description: fmt.Sprintf("remove package %s (no longer requested)", name),
				Impact:      ImpactMedium,
			})
		}
	}

	// Explicit removal intent. When the same name also carries install
	// intent in the desired snapshot the removal is suppressed here:
	// reporting raw deltas is the detector's job, resolving the conflict
	// is an upstream validation concern.
	for _, name := range desired.Packages.Remove {
		if _, removed := curRemove[name]; removed {
			continue
		}
		if _, installing := desInstall[name]; installing {
			continue
		}
		changes = append(changes, Change{
			Type:        TypePackageRemove,
			Field:       name,
			Old:         name,
			Description: fmt.Sprintf("remove package %s from base image", name),
			Impact:      ImpactMedium,
		})
	}

	return changes
}

func detectServices(current, desired *sysconfig.Config) []Change {
	var changes []Change

	curByName := make(map[string]sysconfig.Service, len(current.Services))
	for _, svc := range current.Services {
		curByName[svc.Name] = svc
	}
	desByName := make(map[string]sysconfig.Service, len(desired.Services))
	for _, svc := range desired.Services {
		desByName[svc.Name] = svc
	}

	for _, svc := range desired.Services {
		cur, exists := curByName[svc.Name]
		if !exists {
			changes = append(changes, Change{
				Type:            TypeServiceAdd,
				Field:           svc.Name,
				New:             svc,
				AffectedService: svc.Name,
				Description:     fmt.Sprintf("add service %s", svc.Name),
				Impact:          ImpactMedium,
			})
			continue
		}

		if cur.Enabled != svc.Enabled {
			verb := "enable"
			if !svc.Enabled {
				verb = "disable"
			}
			changes = append(changes, Change{
				Type:            TypeServiceStateToggle,
				Field:           svc.Name,
				Old:             cur.Enabled,
				New:             svc.Enabled,
				AffectedService: svc.Name,
				Description:     fmt.Sprintf("%s service %s", verb, svc.Name),
				Impact:          ImpactMedium,
			})
		}

		if !cmp.Equal(cur.Options, svc.Options) {
			changes = append(changes, Change{
				Type:            TypeServiceConfigUpdate,
				Field:           svc.Name,
				Old:             cur.Options,
				New:             svc.Options,
				AffectedService: svc.Name,
				Description:     fmt.Sprintf("update configuration of service %s", svc.Name),
				Impact:          ImpactHigh,
			})
		}
	}

	for _, svc := range current.Services {
		if _, exists := desByName[svc.Name]; !exists {
			changes = append(changes, Change{
				Type:            TypeServiceRemove,
				Field:           svc.Name,
				Old:             svc,
				AffectedService: svc.Name,
				Description:     fmt.Sprintf("remove service %s", svc.Name),
				Impact:          ImpactMedium,
			})
		}
	}

	return changes
}

func detectUsers(current, desired *sysconfig.Config) []Change {
	var changes []Change

	curByName := make(map[string]sysconfig.User, len(current.Users))
	for _, u := range current.Users {
		curByName[u.Name] = u
	}
	desByName := make(map[string]sysconfig.User, len(desired.Users))
	for _, u := range desired.Users {
		desByName[u.Name] = u
	}

	for _, u := range desired.Users {
		cur, exists := curByName[u.Name]
		if !exists {
			changes = append(changes, Change{
				Type:        TypeUserAdd,
				Field:       u.Name,
				New:         u,
				Description: fmt.Sprintf("add user %s", u.Name),
				Impact:      ImpactMedium,
			})
			continue
		}

		var modified []string
		if !cmp.Equal(cur.Groups, u.Groups) {
			modified = append(modified, "groups")
		}
		if cur.Shell != u.Shell {
			modified = append(modified, "shell")
		}
		if cur.Home != u.Home {
			modified = append(modified, "home")
		}
		if len(modified) > 0 {
			changes = append(changes, Change{
				Type:        TypeUserModify,
				Field:       u.Name,
				Old:         cur,
				New:         u,
				Description: fmt.Sprintf("modify user %s: %s", u.Name, strings.Join(modified, ", ")),
				Impact:      ImpactHigh,
			})
		}
	}

	for _, u := range current.Users {
		if _, exists := desByName[u.Name]; !exists {
			changes = append(changes, Change{
				Type:        TypeUserRemove,
				Field:       u.Name,
				Old:         u,
				Description: fmt.Sprintf("remove user %s", u.Name),
				Impact:      ImpactCritical,
			})
		}
	}

	return changes
}

func detectRepositories(current, desired *sysconfig.Config) []Change {
	var changes []Change

	curByName := make(map[string]sysconfig.Repository, len(current.Repositories))
	for _, r := range current.Repositories {
		curByName[r.Name] = r
	}
	desByName := make(map[string]sysconfig.Repository, len(desired.Repositories))
	for _, r := range desired.Repositories {
		desByName[r.Name] = r
	}

	for _, r := range desired.Repositories {
		cur, exists := curByName[r.Name]
		if !exists {
			changes = append(changes, Change{
				Type:        TypeRepositoryAdd,
				Field:       r.Name,
				New:         r,
				Description: fmt.Sprintf("add repository %s", r.Name),
				Impact:      ImpactLow,
			})
			continue
		}
		if cur.URL != r.URL {
			changes = append(changes, Change{
				Type:        TypeRepositoryUpdate,
				Field:       r.Name,
				Old:         cur,
				New:         r,
				Description: fmt.Sprintf("update repository %s URL", r.Name),
				Impact:      ImpactMedium,
			})
		}
	}

	for _, r := range current.Repositories {
		if _, exists := desByName[r.Name]; !exists {
			changes = append(changes, Change{
				Type:        TypeRepositoryRemove,
				Field:       r.Name,
				Old:         r,
				Description: fmt.Sprintf("remove repository %s", r.Name),
				Impact:      ImpactLow,
			})
		}
	}

	return changes
}

func detectDesktop(current, desired *sysconfig.DesktopConfig) []Change {
	return detectOptionalSection(current, desired, TypeDesktopConfig, "desktop environment", ImpactHigh)
}

func detectSecurity(current, desired *sysconfig.SecurityConfig) []Change {
	changes := detectOptionalSection(current, desired, TypeSecurityConfig, "security configuration", ImpactCritical)

	// SELinux mode transitions get their own field marker so the
	// classifier can single them out.
	if current != nil && desired != nil && current.SELinuxMode != desired.SELinuxMode {
		for i := range changes {
			changes[i].Field = "selinuxMode"
		}
	}
	return changes
}

func detectAutomation(current, desired *sysconfig.AutomationConfig) []Change {
	var curFlows, desFlows []sysconfig.Workflow
	if current != nil {
		curFlows = current.Workflows
	}
	if desired != nil {
		desFlows = desired.Workflows
	}

	var changes []Change

	curByName := make(map[string]sysconfig.Workflow, len(curFlows))
	for _, w := range curFlows {
		curByName[w.Name] = w
	}
	desByName := make(map[string]sysconfig.Workflow, len(desFlows))
	for _, w := range desFlows {
		desByName[w.Name] = w
	}

	for _, w := range desFlows {
		cur, exists := curByName[w.Name]
		switch {
		case !exists:
			changes = append(changes, Change{
				Type:        TypeAutomationWorkflow,
				Field:       w.Name,
				New:         w,
				Description: fmt.Sprintf("enable workflow %s", w.Name),
				Impact:      ImpactLow,
			})
		case !cmp.Equal(cur, w):
			changes = append(changes, Change{
				Type:        TypeAutomationWorkflow,
				Field:       w.Name,
				Old:         cur,
				New:         w,
				Description: fmt.Sprintf("update workflow %s", w.Name),
				Impact:      ImpactLow,
			})
		}
	}

	for _, w := range curFlows {
		if _, exists := desByName[w.Name]; !exists {
			changes = append(changes, Change{
				Type:        TypeAutomationWorkflow,
				Field:       w.Name,
				Old:         w,
				Description: fmt.Sprintf("disable workflow %s", w.Name),
				Impact:      ImpactLow,
			})
		}
	}

	return changes
}

// detectOptionalSection applies the presence-transition rules for optional
// sub-configs: nil to value is an enable, value to nil a disable, and two
// differing values an update.
func detectOptionalSection[T any](current, desired *T, typ Type, label string, impact Impact) []Change {
	switch {
	case current == nil && desired == nil:
		return nil
	case current == nil:
		return []Change{{
			Type:        typ,
			Field:       "enabled",
			New:         *desired,
			Description: fmt.Sprintf("enable %s", label),
			Impact:      impact,
		}}
	case desired == nil:
		return []Change{{
			Type:        typ,
			Field:       "disabled",
			Old:         *current,
			Description: fmt.Sprintf("disable %s", label),
			Impact:      impact,
		}}
	case !cmp.Equal(*current, *desired):
		return []Change{{
			Type:        typ,
			Field:       "updated",
			Old:         *current,
			New:         *desired,
			Description: fmt.Sprintf("update %s", label),
			Impact:      impact,
		}}
	default:
		return nil
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
