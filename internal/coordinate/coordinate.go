// Package coordinate holds the identity types shared by dependency
// declarations, catalogs and resolution: module coordinates, project
// paths and exclude rules.
package coordinate

import (
	"fmt"
	"strings"
)

// Module identifies a module irrespective of version.
type Module struct {
	Group string
	Name  string
}

func (m Module) String() string {
	return m.Group + ":" + m.Name
}

// IsZero reports whether no coordinate was set.
func (m Module) IsZero() bool {
	return m.Group == "" && m.Name == ""
}

// ProjectPath identifies a project inside the build, e.g. ":" for the
// root project or ":lib:core". Existence is not checked until the path
// participates in resolution.
type ProjectPath string

func (p ProjectPath) String() string { return string(p) }

// Exclude names a (group, name) pair to remove from one dependency's
// transitive subgraph. Excludes are edge-scoped: they never apply to
// sibling dependencies' subgraphs.
type Exclude struct {
	Group string
	Name  string
}

func (e Exclude) Matches(m Module) bool {
	return e.Group == m.Group && e.Name == m.Name
}

func (e Exclude) String() string {
	return e.Group + ":" + e.Name
}

// ParseGAV parses the strict "group:name" or "group:name:version" form.
// Any other colon count is a format error.
func ParseGAV(raw string) (Module, string, error) {
	parts := strings.Split(raw, ":")
	switch len(parts) {
	case 2:
		// version omitted
	case 3:
		// version present
	default:
		return Module{}, "", fmt.Errorf("coordinate: %q is not of the form group:name[:version]", raw)
	}
	group, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if group == "" || name == "" {
		return Module{}, "", fmt.Errorf("coordinate: %q has an empty group or name segment", raw)
	}
	version := ""
	if len(parts) == 3 {
		version = strings.TrimSpace(parts[2])
		if version == "" {
			return Module{}, "", fmt.Errorf("coordinate: %q has an empty version segment", raw)
		}
	}
	return Module{Group: group, Name: name}, version, nil
}

// ParseExclude parses the "group:name" exclude form.
func ParseExclude(raw string) (Exclude, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return Exclude{}, fmt.Errorf("coordinate: exclude %q is not of the form group:name", raw)
	}
	return Exclude{Group: strings.TrimSpace(parts[0]), Name: strings.TrimSpace(parts[1])}, nil
}
