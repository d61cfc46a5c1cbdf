// Package dependency models declared dependencies: the closed variant
// every supported notation normalizes into, the deferred entries held
// by buckets, and the mutation actions that refine an entry after
// declaration.
package dependency

import (
	"github.com/anvil-platform/suitepath/internal/coordinate"
	"github.com/anvil-platform/suitepath/internal/semver"
)

// Dependency is the canonical form of a declared dependency. The
// variant set is closed: Module, Project, Files and Platform.
type Dependency interface {
	isDependency()
}

// Module is an external module requirement.
type Module struct {
	Coordinate coordinate.Module
	// Constraint is the version requirement; the zero Constraint means
	// "any version".
	Constraint semver.Constraint
	// Prefer is consulted only when the resolver picks inside a strict
	// range with no other constraints in play.
	Prefer   string
	Excludes []coordinate.Exclude
}

func (Module) isDependency() {}

// WithExclude returns a copy of m excluding the given module from its
// transitive subgraph. m itself is not modified.
func (m Module) WithExclude(group, name string) Module {
	out := m
	out.Excludes = append(append([]coordinate.Exclude(nil), m.Excludes...), coordinate.Exclude{Group: group, Name: name})
	return out
}

// Project is a reference to another project in the build. The path is
// not validated at declaration time.
type Project struct {
	Path coordinate.ProjectPath
}

func (Project) isDependency() {}

// Files contributes files directly, with no transitive resolution.
// Plain collections carry Paths only; tree form carries Root plus
// include/exclude patterns expanded at resolution time, since
// directory contents may change between declaration and resolution.
type Files struct {
	Paths    []string
	Root     string
	Includes []string
	Excludes []string
}

func (Files) isDependency() {}

// Platform contributes version constraints for alignment and no files.
// When Enforced, the target's versions are pinned unconditionally for
// the resolution domain it participates in.
type Platform struct {
	Target   Dependency
	Enforced bool
}

func (Platform) isDependency() {}

// Many groups several dependencies produced by one declaration, such
// as a catalog bundle expansion. Request building flattens it into its
// members, preserving their order.
type Many []Dependency

func (Many) isDependency() {}

// MutationAction is a pure refinement applied to an entry's dependency
// after creation, producing a new effective dependency. Actions run in
// declaration order, exactly once, immediately before the entry joins
// a resolution request.
type MutationAction func(Dependency) Dependency

// ExcludeModule builds the common exclude action. It only affects
// Module dependencies; other variants pass through unchanged.
func ExcludeModule(group, name string) MutationAction {
	var apply func(d Dependency) Dependency
	apply = func(d Dependency) Dependency {
		switch v := d.(type) {
		case Module:
			return v.WithExclude(group, name)
		case Many:
			out := make(Many, len(v))
			for i, member := range v {
				out[i] = apply(member)
			}
			return out
		default:
			return d
		}
	}
	return apply
}
