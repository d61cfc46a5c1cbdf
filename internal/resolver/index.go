package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/anvil-platform/suitepath/internal/coordinate"
	"github.com/anvil-platform/suitepath/internal/semver"
)

// fixpointLimit bounds the constraint-gathering iterations. Constraint
// sets only ever grow, so non-convergence means a pathological index.
const fixpointLimit = 100

type indexEntry struct {
	version semver.Version
	raw     string
	file    string
	deps    []ModuleQuery
}

// IndexResolver is an in-memory ModuleGraphResolver over registered
// module metadata. Within one request the conflict policy is "highest
// version satisfying every constraint wins"; an enforced platform pins
// its target unconditionally; excludes are honored edge-scoped.
type IndexResolver struct {
	mu      sync.Mutex
	modules map[coordinate.Module][]indexEntry
}

func NewIndexResolver() *IndexResolver {
	return &IndexResolver{modules: make(map[coordinate.Module][]indexEntry)}
}

// Register adds one module version. The coordinate must carry a
// version; deps are GAV strings whose version segment becomes the
// dependency constraint.
func (r *IndexResolver) Register(gav, file string, deps ...string) error {
	mod, version, err := coordinate.ParseGAV(gav)
	if err != nil {
		return err
	}
	if version == "" {
		return fmt.Errorf("resolver: register %q: version is required", gav)
	}
	queries := make([]ModuleQuery, 0, len(deps))
	for _, dep := range deps {
		depMod, depVersion, err := coordinate.ParseGAV(dep)
		if err != nil {
			return err
		}
		q := ModuleQuery{Coordinate: depMod}
		if depVersion != "" {
			c, err := semver.ParseConstraint(depVersion)
			if err != nil {
				return err
			}
			q.Constraint = c
		}
		queries = append(queries, q)
	}
	return r.RegisterModule(mod, version, file, queries)
}

// RegisterModule adds one module version with pre-built dependency
// edges. Versions of one module are kept sorted descending so
// selection scans are deterministic.
func (r *IndexResolver) RegisterModule(mod coordinate.Module, version, file string, deps []ModuleQuery) error {
	v, err := semver.ParseVersion(version)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := append(r.modules[mod], indexEntry{
		version: v,
		raw:     version,
		file:    file,
		deps:    append([]ModuleQuery(nil), deps...),
	})
	sort.SliceStable(entries, func(i, j int) bool {
		return semver.Compare(entries[i].version, entries[j].version) > 0
	})
	r.modules[mod] = entries
	return nil
}

func (r *IndexResolver) ResolveModules(ctx context.Context, req Request) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := &resolveState{
		index:    r.modules,
		pinned:   make(map[coordinate.Module]semver.Constraint),
		cons:     make(map[coordinate.Module]map[string]semver.Constraint),
		prefer:   make(map[coordinate.Module]string),
		selected: make(map[coordinate.Module]indexEntry),
	}
	for _, hint := range req.Platforms {
		if hint.Enforced {
			pin := hint.Constraint
			if pin.IsZero() {
				pin = semver.Any()
			}
			state.pinned[hint.Coordinate] = pin
			continue
		}
		state.addConstraint(hint.Coordinate, hint.Constraint)
	}
	for _, q := range req.Coordinates {
		if q.Prefer != "" {
			state.prefer[q.Coordinate] = q.Prefer
		}
	}

	// Constraint gathering and version selection interlock (picking a
	// version exposes its dependency edges, which add constraints), so
	// iterate to a fixpoint.
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if i == fixpointLimit {
			return Result{}, &ResolutionError{Reason: "constraint gathering did not converge"}
		}
		grew := false
		for _, q := range req.Coordinates {
			g, err := state.walk(q, nil, make(map[visitKey]struct{}))
			if err != nil {
				return Result{}, err
			}
			grew = grew || g
		}
		if !grew {
			break
		}
	}

	return Result{Files: state.collect(req)}, nil
}

type resolveState struct {
	index    map[coordinate.Module][]indexEntry
	pinned   map[coordinate.Module]semver.Constraint
	cons     map[coordinate.Module]map[string]semver.Constraint
	prefer   map[coordinate.Module]string
	selected map[coordinate.Module]indexEntry
}

func (s *resolveState) addConstraint(mod coordinate.Module, c semver.Constraint) bool {
	if c.IsZero() {
		c = semver.Any()
	}
	set, ok := s.cons[mod]
	if !ok {
		set = make(map[string]semver.Constraint)
		s.cons[mod] = set
	}
	if _, dup := set[c.String()]; dup {
		return false
	}
	set[c.String()] = c
	return true
}

// visitKey identifies one (module, accumulated excludes) traversal
// state. Excludes accumulate along a path, so a module shared by an
// excluding and a non-excluding path is visited once per distinct set;
// collapsing on the coordinate alone would make the first path's
// excludes graph-global.
type visitKey struct {
	coord    coordinate.Module
	excludes string
}

func excludeKey(excludes []coordinate.Exclude) string {
	if len(excludes) == 0 {
		return ""
	}
	keys := make([]string, len(excludes))
	for i, e := range excludes {
		keys[i] = e.String()
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// mergeExcludes keeps the accumulated set free of duplicates so visit
// keys stay canonical even when a cyclic graph replays an edge.
func mergeExcludes(inherited, extra []coordinate.Exclude) []coordinate.Exclude {
	if len(extra) == 0 {
		return inherited
	}
	out := append([]coordinate.Exclude(nil), inherited...)
	for _, e := range extra {
		dup := false
		for _, have := range out {
			if have == e {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return out
}

// walk descends one root query's subgraph, carrying that root's
// exclude set. It reports whether any new constraint was recorded.
func (s *resolveState) walk(q ModuleQuery, inherited []coordinate.Exclude, seen map[visitKey]struct{}) (bool, error) {
	excludes := mergeExcludes(inherited, q.Excludes)
	if excluded(q.Coordinate, excludes) {
		return false, nil
	}
	grew := s.addConstraint(q.Coordinate, q.Constraint)
	key := visitKey{coord: q.Coordinate, excludes: excludeKey(excludes)}
	if _, visited := seen[key]; visited {
		return grew, nil
	}
	seen[key] = struct{}{}

	entry, err := s.pick(q.Coordinate)
	if err != nil {
		return grew, err
	}
	if s.selected[q.Coordinate].raw != entry.raw {
		s.selected[q.Coordinate] = entry
		grew = true
	}
	for _, dep := range entry.deps {
		g, err := s.walk(dep, excludes, seen)
		if err != nil {
			return grew, err
		}
		grew = grew || g
	}
	return grew, nil
}

// pick applies the conflict policy for one module: an enforced pin
// overrides everything; otherwise the highest version satisfying every
// gathered constraint wins, with the prefer hint consulted only when a
// single constraint is in play.
func (s *resolveState) pick(mod coordinate.Module) (indexEntry, error) {
	entries, known := s.index[mod]
	if !known || len(entries) == 0 {
		return indexEntry{}, &ResolutionError{Coordinate: mod, Reason: "no versions registered"}
	}

	if pin, enforced := s.pinned[mod]; enforced {
		for _, e := range entries {
			if semver.Satisfies(e.version, pin) {
				return e, nil
			}
		}
		return indexEntry{}, &ResolutionError{Coordinate: mod, Reason: fmt.Sprintf("no version satisfies enforced platform constraint %q", pin)}
	}

	set := s.cons[mod]
	satisfying := entries[:0:0]
	for _, e := range entries {
		ok := true
		for _, c := range set {
			if !semver.Satisfies(e.version, c) {
				ok = false
				break
			}
		}
		if ok {
			satisfying = append(satisfying, e)
		}
	}
	if len(satisfying) == 0 {
		return indexEntry{}, &ResolutionError{Coordinate: mod, Reason: fmt.Sprintf("no version satisfies constraints %v", constraintStrings(set))}
	}
	if hint := s.prefer[mod]; hint != "" && len(set) == 1 {
		for _, e := range satisfying {
			if e.raw == hint {
				return e, nil
			}
		}
	}
	// entries are sorted descending, so the first satisfying one is
	// the highest.
	return satisfying[0], nil
}

// collect emits files breadth-first from the request order over the
// final selection, deduplicated by coordinate with the first
// occurrence keeping its position. Traversal dedupes on visitKey, not
// the bare coordinate, so a non-excluding path through a shared
// intermediate still reaches modules an excluding sibling path
// dropped. Platforms contribute nothing here.
func (s *resolveState) collect(req Request) []File {
	type item struct {
		coord    coordinate.Module
		excludes []coordinate.Exclude
	}
	var queue []item
	visited := make(map[visitKey]struct{})
	enqueue := func(q ModuleQuery, inherited []coordinate.Exclude) {
		excludes := mergeExcludes(inherited, q.Excludes)
		if excluded(q.Coordinate, excludes) {
			return
		}
		key := visitKey{coord: q.Coordinate, excludes: excludeKey(excludes)}
		if _, dup := visited[key]; dup {
			return
		}
		visited[key] = struct{}{}
		queue = append(queue, item{coord: q.Coordinate, excludes: excludes})
	}
	for _, q := range req.Coordinates {
		enqueue(q, nil)
	}

	var files []File
	emitted := make(map[coordinate.Module]struct{})
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		entry := s.selected[it.coord]
		if _, dup := emitted[it.coord]; !dup && entry.file != "" {
			emitted[it.coord] = struct{}{}
			files = append(files, File{Path: entry.file, Coordinate: it.coord, Version: entry.raw})
		}
		for _, dep := range entry.deps {
			enqueue(dep, it.excludes)
		}
	}
	return files
}

func excluded(mod coordinate.Module, excludes []coordinate.Exclude) bool {
	for _, e := range excludes {
		if e.Matches(mod) {
			return true
		}
	}
	return false
}

func constraintStrings(set map[string]semver.Constraint) []string {
	out := make([]string, 0, len(set))
	for raw := range set {
		out = append(out, raw)
	}
	sort.Strings(out)
	return out
}
