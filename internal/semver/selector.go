package semver

import "fmt"

// Selector is a declarative version requirement as it appears in a
// version catalog or a dependency declaration. Exactly one of Exact,
// Ref or Strictly is expected to be set; Prefer only accompanies
// Strictly.
//
// The effective constraint handed to resolution is the strict range
// when present; Prefer is a hint consulted only when the resolver must
// pick inside the range with no other constraints in play.
type Selector struct {
	Exact    string
	Ref      string
	Strictly string
	Prefer   string
}

// SelectorFor is a convenience for the common exact-version case.
func SelectorFor(version string) Selector {
	return Selector{Exact: version}
}

// IsZero reports whether no requirement at all was declared. A zero
// selector resolves to Any().
func (s Selector) IsZero() bool {
	return s.Exact == "" && s.Ref == "" && s.Strictly == ""
}

// Resolve turns the selector into a concrete constraint, following a
// Ref indirection through the shared versions table. The second return
// is the preference hint, empty unless the strict form carried one.
func (s Selector) Resolve(versions map[string]string) (Constraint, string, error) {
	switch {
	case s.Strictly != "":
		c, err := ParseConstraint(s.Strictly)
		if err != nil {
			return Constraint{}, "", err
		}
		return c, s.Prefer, nil
	case s.Ref != "":
		pinned, ok := versions[s.Ref]
		if !ok {
			return Constraint{}, "", fmt.Errorf("semver: version ref %q not found in versions table", s.Ref)
		}
		c, err := ParseConstraint(pinned)
		if err != nil {
			return Constraint{}, "", err
		}
		return c, "", nil
	case s.Exact != "":
		c, err := ParseConstraint(s.Exact)
		if err != nil {
			return Constraint{}, "", err
		}
		return c, "", nil
	default:
		return Any(), "", nil
	}
}
