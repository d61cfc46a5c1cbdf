package resolver

import "github.com/anvil-platform/suitepath/internal/coordinate"

// ProjectOutput is what a located project contributes to a classpath:
// its built output files plus the module coordinates it exports.
type ProjectOutput struct {
	Files   []string
	Exports []ModuleQuery
}

// ProjectLocator resolves project paths at resolution time. Paths are
// never validated at declaration time.
type ProjectLocator interface {
	Locate(path coordinate.ProjectPath) (ProjectOutput, error)
}

// StaticProjects is a fixed path table, sufficient for single-build
// setups and tests.
type StaticProjects map[coordinate.ProjectPath]ProjectOutput

func (m StaticProjects) Locate(path coordinate.ProjectPath) (ProjectOutput, error) {
	out, ok := m[path]
	if !ok {
		return ProjectOutput{}, &ResolutionError{Project: path, Reason: "project not found"}
	}
	return out, nil
}
