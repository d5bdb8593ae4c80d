package layer

import (
	"sort"

	"github.com/volkov-io/convergd/internal/sysconfig"
)

// deployOrder arranges layer specs into the order Deploy processes them.
// A layer becomes ready once every one of its dependencies has been
// placed; among ready layers the lowest priority goes first, with
// declaration order breaking ties. When no layer is ready and some
// remain, the orderable prefix is returned together with a
// CircularDependencyError naming the stuck layers.
func deployOrder(specs []sysconfig.LayerSpec) ([]sysconfig.LayerSpec, error) {
	declOrder := make(map[string]int, len(specs))
	remaining := make(map[string]sysconfig.LayerSpec, len(specs))
	for i, spec := range specs {
		declOrder[spec.Name] = i
		remaining[spec.Name] = spec
	}

	ordered := make([]sysconfig.LayerSpec, 0, len(specs))
	placed := make(map[string]struct{}, len(specs))

	for len(remaining) > 0 {
		var ready []sysconfig.LayerSpec
		for _, spec := range remaining {
			if depsSatisfied(spec, placed) {
				ready = append(ready, spec)
			}
		}

		if len(ready) == 0 {
			names := make([]string, 0, len(remaining))
			for name := range remaining {
				names = append(names, name)
			}
			sort.Strings(names)
			return ordered, &CircularDependencyError{Remaining: names}
		}

		sort.Slice(ready, func(i, j int) bool {
			if ready[i].Priority != ready[j].Priority {
				return ready[i].Priority < ready[j].Priority
			}
			return declOrder[ready[i].Name] < declOrder[ready[j].Name]
		})

		next := ready[0]
		ordered = append(ordered, next)
		placed[next.Name] = struct{}{}
		delete(remaining, next.Name)
	}

	return ordered, nil
}

func depsSatisfied(spec sysconfig.LayerSpec, placed map[string]struct{}) bool {
	for _, dep := range spec.Dependencies {
		if _, ok := placed[dep]; !ok {
			return false
		}
	}
	return true
}
