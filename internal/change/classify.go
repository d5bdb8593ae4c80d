package change

// Classifier assigns update strategies from a static policy table and
// partitions changes into apply buckets. The reloadable-service allow-list
// and the service handling security policy are injected so site policy
// (and tests) can override them.
type Classifier struct {
	reloadable      map[string]struct{}
	securityService string
}

// NewClassifier creates a classifier with the given reloadable-service
// allow-list and the service reloaded for security policy changes.
func NewClassifier(reloadableServices []string, securityService string) *Classifier {
	reloadable := make(map[string]struct{}, len(reloadableServices))
	for _, name := range reloadableServices {
		reloadable[name] = struct{}{}
	}
	return &Classifier{reloadable: reloadable, securityService: securityService}
}

// Classify partitions changes into Live, ServiceReload and RebootRequired
// buckets, preserving input order within each bucket. Every returned change
// carries its assigned strategy.
func (cl *Classifier) Classify(changes []Change) Buckets {
	var buckets Buckets

	for _, c := range changes {
		c.Strategy = cl.strategyFor(c)
		if c.Type == TypeSecurityConfig && c.Strategy == StrategyServiceReload && c.AffectedService == "" {
			c.AffectedService = cl.securityService
		}
		switch c.Strategy {
		case StrategyLive:
			buckets.Live = append(buckets.Live, c)
		case StrategyServiceReload:
			buckets.ServiceReload = append(buckets.ServiceReload, c)
		case StrategyRebootRequired:
			buckets.RebootRequired = append(buckets.RebootRequired, c)
		}
	}

	return buckets
}

// strategyFor is the policy table. It must stay exhaustive over Type.
func (cl *Classifier) strategyFor(c Change) Strategy {
	switch c.Type {
	case TypeSystemConfig:
		switch c.Field {
		case "hostname", "timezone":
			return StrategyLive
		default:
			// locale and anything unrecognized needs a full restart
			// of user sessions.
			return StrategyRebootRequired
		}

	case TypePackageInstall:
		return StrategyLive

	case TypePackageRemove:
		// Removing files under running processes is never safe live.
		return StrategyRebootRequired

	case TypeServiceAdd, TypeServiceRemove, TypeServiceStateToggle:
		// Enabling, disabling or toggling a unit is a service-manager
		// operation regardless of the allow-list.
		return StrategyServiceReload

	case TypeServiceConfigUpdate:
		if _, ok := cl.reloadable[c.AffectedService]; ok {
			return StrategyServiceReload
		}
		return StrategyRebootRequired

	case TypeUserAdd, TypeUserModify:
		return StrategyLive

	case TypeUserRemove:
		// Safety-first policy: removing an account live risks orphaned
		// processes and files. Never relaxed by configuration.
		return StrategyRebootRequired

	case TypeRepositoryAdd, TypeRepositoryUpdate, TypeRepositoryRemove:
		return StrategyLive

	case TypeDesktopConfig:
		if c.Field == "updated" {
			return StrategyLive
		}
		return StrategyRebootRequired

	case TypeSecurityConfig:
		if c.Field == "selinuxMode" {
			return StrategyRebootRequired
		}
		return StrategyServiceReload

	case TypeAutomationWorkflow:
		return StrategyLive

	default:
		return StrategyRebootRequired
	}
}
