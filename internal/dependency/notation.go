package dependency

import (
	"fmt"

	"github.com/anvil-platform/suitepath/internal/coordinate"
	"github.com/anvil-platform/suitepath/internal/semver"
)

// Coordinates is the map-shaped GAV notation. Group and Name are
// required; Version is optional.
type Coordinates struct {
	Group   string
	Name    string
	Version string
}

// FileCollection is the plain file-collection notation: an ordered set
// of concrete paths.
type FileCollection struct {
	Paths []string
}

// FileTree is the file-tree notation: a root directory filtered by
// include/exclude glob patterns. Patterns are kept verbatim here and
// expanded only at resolution time.
type FileTree struct {
	Root     string
	Includes []string
	Excludes []string
}

// Provider is the lazy notation: a thunk yielding any other supported
// notation. It is invoked at most once, strictly after the owning
// suite's configuration phase closes.
type Provider func() (any, error)

// providers may nest, but not unboundedly; this guards against a thunk
// that keeps yielding thunks.
const maxProviderDepth = 16

// Normalize converts any supported notation into a canonical
// Dependency. It is total over the eight supported shapes and returns
// *UnsupportedNotationError for anything else. Provider notations are
// not invoked here; callers capture them via NewEntry and force them
// at resolution time.
func Normalize(notation any) (Dependency, error) {
	return normalize(notation, 0)
}

func normalize(notation any, depth int) (Dependency, error) {
	switch n := notation.(type) {
	case nil:
		return nil, &UnsupportedNotationError{Notation: notation}
	case Dependency:
		return n, nil
	case string:
		return moduleFromGAV(n)
	case coordinate.ProjectPath:
		return Project{Path: n}, nil
	case Coordinates:
		return moduleFromCoordinates(n.Group, n.Name, n.Version)
	case map[string]string:
		return moduleFromCoordinates(n["group"], n["name"], n["version"])
	case FileCollection:
		return Files{Paths: dedupePaths(n.Paths)}, nil
	case FileTree:
		return Files{Root: n.Root, Includes: append([]string(nil), n.Includes...), Excludes: append([]string(nil), n.Excludes...)}, nil
	case []byte:
		return moduleFromGAV(string(n))
	case []rune:
		return moduleFromGAV(string(n))
	case fmt.Stringer:
		// Coerce to the textual value first; the concrete buffering
		// strategy behind the Stringer must not matter.
		return moduleFromGAV(n.String())
	case func() (any, error):
		return normalize(Provider(n), depth)
	case Provider:
		if depth >= maxProviderDepth {
			return nil, fmt.Errorf("dependency: provider nesting exceeds %d levels", maxProviderDepth)
		}
		inner, err := n()
		if err != nil {
			return nil, fmt.Errorf("dependency: provider failed: %w", err)
		}
		return normalize(inner, depth+1)
	default:
		return nil, &UnsupportedNotationError{Notation: notation}
	}
}

func moduleFromGAV(raw string) (Dependency, error) {
	mod, version, err := coordinate.ParseGAV(raw)
	if err != nil {
		return nil, err
	}
	return moduleWithVersion(mod, version)
}

func moduleFromCoordinates(group, name, version string) (Dependency, error) {
	if group == "" || name == "" {
		return nil, fmt.Errorf("dependency: coordinate map requires group and name, got group=%q name=%q", group, name)
	}
	return moduleWithVersion(coordinate.Module{Group: group, Name: name}, version)
}

func moduleWithVersion(mod coordinate.Module, version string) (Dependency, error) {
	out := Module{Coordinate: mod}
	if version != "" {
		c, err := semver.ParseConstraint(version)
		if err != nil {
			return nil, err
		}
		out.Constraint = c
	}
	return out, nil
}

func dedupePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
