// Package catalog implements the version catalog: a flat mapping from
// dotted alias paths to module coordinates with version selectors, and
// from bundle aliases to ordered alias lists.
//
// Alias lookup is exact-match only. "commons.io.csv" and "commons.io"
// are independent keys that happen to share a textual prefix, never
// parent and child.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anvil-platform/suitepath/internal/coordinate"
	"github.com/anvil-platform/suitepath/internal/dependency"
	"github.com/anvil-platform/suitepath/internal/semver"
)

// Entry is one registered library alias.
type Entry struct {
	Module   coordinate.Module
	Selector semver.Selector
}

// Catalog is an immutable alias table. Construct via Builder or the
// YAML loader; both produce indistinguishable entries for identical
// inputs.
type Catalog struct {
	versions map[string]string
	entries  map[string]Entry
	bundles  map[string][]string
}

// CanonicalAlias normalizes the alias separators: segments may be
// joined by '.', '-' or '_' at declaration or lookup sites, and all
// three address the same flat key.
func CanonicalAlias(path string) string {
	return strings.NewReplacer("-", ".", "_", ".").Replace(path)
}

// Entry returns the registered entry for an alias, if any.
func (c *Catalog) Entry(path string) (Entry, bool) {
	e, ok := c.entries[CanonicalAlias(path)]
	return e, ok
}

// ResolveAlias resolves a library alias into a module dependency,
// following version refs through the shared versions table.
func (c *Catalog) ResolveAlias(path string) (dependency.Module, error) {
	entry, ok := c.entries[CanonicalAlias(path)]
	if !ok {
		return dependency.Module{}, &MissingAliasError{Alias: path}
	}
	constraint, prefer, err := entry.Selector.Resolve(c.versions)
	if err != nil {
		return dependency.Module{}, fmt.Errorf("catalog: alias %s: %w", path, err)
	}
	return dependency.Module{
		Coordinate: entry.Module,
		Constraint: constraint,
		Prefer:     prefer,
	}, nil
}

// ResolveBundle expands a bundle alias into its members' dependencies,
// preserving the bundle's declared order. A member referencing a
// missing alias fails the whole expansion.
func (c *Catalog) ResolveBundle(path string) ([]dependency.Module, error) {
	members, ok := c.bundles[CanonicalAlias(path)]
	if !ok {
		return nil, &MissingAliasError{Alias: path}
	}
	out := make([]dependency.Module, 0, len(members))
	for _, member := range members {
		dep, err := c.ResolveAlias(member)
		if err != nil {
			var missing *MissingAliasError
			if errors.As(err, &missing) {
				return nil, &MissingAliasError{Alias: member, Bundle: path}
			}
			return nil, err
		}
		out = append(out, dep)
	}
	return out, nil
}

// Builder assembles a catalog programmatically. The origin of a
// catalog (builder vs file) is not observable downstream.
type Builder struct {
	cat Catalog
}

func NewBuilder() *Builder {
	return &Builder{cat: Catalog{
		versions: make(map[string]string),
		entries:  make(map[string]Entry),
		bundles:  make(map[string][]string),
	}}
}

// Version registers a shared version under a ref name.
func (b *Builder) Version(ref, version string) *Builder {
	b.cat.versions[ref] = version
	return b
}

// Library registers a library alias. Later registrations of the same
// canonical alias replace earlier ones.
func (b *Builder) Library(alias, group, name string, selector semver.Selector) *Builder {
	b.cat.entries[CanonicalAlias(alias)] = Entry{
		Module:   coordinate.Module{Group: group, Name: name},
		Selector: selector,
	}
	return b
}

// Bundle registers a bundle alias over library aliases. Members are
// not checked here; a missing member surfaces at first resolution.
func (b *Builder) Bundle(alias string, members ...string) *Builder {
	b.cat.bundles[CanonicalAlias(alias)] = append([]string(nil), members...)
	return b
}

func (b *Builder) Build() *Catalog {
	out := b.cat
	return &out
}
