// Package composer walks the bucket graph for one (suite, kind)
// domain, forces deferred entries, builds the resolution request and
// assembles the final ordered file set.
package composer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/anvil-platform/suitepath/internal/coordinate"
	"github.com/anvil-platform/suitepath/internal/dependency"
	"github.com/anvil-platform/suitepath/internal/metrics"
	"github.com/anvil-platform/suitepath/internal/resolver"
	"github.com/anvil-platform/suitepath/internal/suite"
)

// Composer caches one resolved classpath per (suite, kind) domain.
// Domains are independent: a failure in one never disturbs another's
// cached or in-flight result.
type Composer struct {
	registry *suite.Registry
	resolver resolver.ModuleGraphResolver
	projects resolver.ProjectLocator
	log      logr.Logger

	mu    sync.Mutex
	slots map[slotKey]*slot
}

type slotKey struct {
	suite     string
	kind      suite.Kind
	processor bool
}

// kindLabel distinguishes processor-path compositions from classpath
// compositions in the metrics.
func (k slotKey) kindLabel() string {
	if k.processor {
		return "processor"
	}
	return k.kind.String()
}

func (k slotKey) describe() string {
	if k.processor {
		return "annotation processor path"
	}
	return k.kind.String() + " classpath"
}

// slot is one domain's compute-or-wait cache cell. Holding its mutex
// while computing makes concurrent callers for the same domain observe
// exactly one resolver invocation; only success is ever stored, so
// failures and cancellations are retried by later callers.
type slot struct {
	mu    sync.Mutex
	done  bool
	files []string
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger attaches a logger; the default discards.
func WithLogger(log logr.Logger) Option {
	return func(c *Composer) { c.log = log }
}

// WithProjectLocator supplies project-reference resolution. Without
// one, any project dependency fails at resolution time.
func WithProjectLocator(locator resolver.ProjectLocator) Option {
	return func(c *Composer) { c.projects = locator }
}

func New(registry *suite.Registry, res resolver.ModuleGraphResolver, opts ...Option) *Composer {
	c := &Composer{
		registry: registry,
		resolver: res,
		projects: resolver.StaticProjects(nil),
		log:      logr.Discard(),
		slots:    make(map[slotKey]*slot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classpath composes (or returns the cached) ordered file set for one
// (suite, kind) domain. The first composition for a suite closes its
// configuration phase.
func (c *Composer) Classpath(ctx context.Context, suiteName string, kind suite.Kind) ([]string, error) {
	s, ok := c.registry.Suite(suiteName)
	if !ok {
		return nil, fmt.Errorf("composer: unknown suite %q", suiteName)
	}
	return c.compute(ctx, slotKey{suite: suiteName, kind: kind}, func(ctx context.Context) ([]string, error) {
		return c.compose(ctx, s, c.registry.Buckets(s, kind), kind)
	})
}

// ProcessorPath composes the annotation-processor path for a suite.
// Processor buckets never extend into either classpath; they form this
// separate single-purpose request consumed by the compiler invocation.
func (c *Composer) ProcessorPath(ctx context.Context, suiteName string) ([]string, error) {
	s, ok := c.registry.Suite(suiteName)
	if !ok {
		return nil, fmt.Errorf("composer: unknown suite %q", suiteName)
	}
	return c.compute(ctx, slotKey{suite: suiteName, processor: true}, func(ctx context.Context) ([]string, error) {
		return c.compose(ctx, s, []*suite.Bucket{s.Bucket(suite.RoleAnnotationProcessor)}, suite.KindCompile)
	})
}

func (c *Composer) compute(ctx context.Context, key slotKey, fn func(context.Context) ([]string, error)) ([]string, error) {
	c.mu.Lock()
	cell, ok := c.slots[key]
	if !ok {
		cell = &slot{}
		c.slots[key] = cell
	}
	c.mu.Unlock()

	cell.mu.Lock()
	defer cell.mu.Unlock()
	if cell.done {
		metrics.ComposeCacheHitTotal.WithLabelValues(key.suite, key.kindLabel()).Inc()
		return append([]string(nil), cell.files...), nil
	}

	metrics.ComposeTotal.WithLabelValues(key.suite, key.kindLabel()).Inc()
	files, err := fn(ctx)
	if err != nil {
		metrics.ComposeErrorTotal.WithLabelValues(key.suite, key.kindLabel()).Inc()
		return nil, fmt.Errorf("composer: suite %q, %s: %w", key.suite, key.describe(), err)
	}
	cell.done = true
	cell.files = files
	return append([]string(nil), files...), nil
}

func (c *Composer) compose(ctx context.Context, s *suite.Suite, buckets []*suite.Bucket, kind suite.Kind) ([]string, error) {
	// Closure point: every bucket feeding this domain belongs to a
	// suite whose configuration must not change afterwards.
	s.Close()
	for _, b := range buckets {
		b.Owner().Close()
	}

	deps, err := c.force(buckets)
	if err != nil {
		return nil, err
	}

	req, projectFiles, direct, err := c.buildRequest(deps)
	if err != nil {
		return nil, err
	}

	var resolved []resolver.File
	if len(req.Coordinates) > 0 || len(req.Platforms) > 0 {
		start := time.Now()
		result, err := c.resolver.ResolveModules(ctx, req)
		metrics.ResolveDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		resolved = result.Files
	}

	directFiles, err := expandDirect(direct)
	if err != nil {
		return nil, err
	}

	ordered := make([]string, 0, len(projectFiles)+len(resolved)+len(directFiles))
	ordered = append(ordered, projectFiles...)
	for _, f := range resolved {
		ordered = append(ordered, f.Path)
	}
	ordered = append(ordered, directFiles...)
	files := dedupe(ordered)

	c.log.V(1).Info("composed classpath",
		"suite", s.Name(), "kind", kind.String(), "files", len(files))
	return files, nil
}

// force evaluates every entry of the merged bucket set in declaration
// order. Forcing is memoized on the entry, so a provider shared by the
// compile and runtime domains is still invoked once.
func (c *Composer) force(buckets []*suite.Bucket) ([]dependency.Dependency, error) {
	var out []dependency.Dependency
	for _, b := range buckets {
		for _, entry := range b.Entries() {
			deferred := entry.Deferred()
			dep, err := entry.Force()
			if err != nil {
				return nil, err
			}
			if deferred {
				metrics.ProviderForcedTotal.Inc()
			}
			out = append(out, flatten(dep)...)
		}
	}
	return out, nil
}

// buildRequest partitions forced dependencies: modules and platform
// hints go into the resolver request, project references contribute
// their located output files and exported coordinates, and file
// entries stay aside for direct expansion.
func (c *Composer) buildRequest(deps []dependency.Dependency) (resolver.Request, []string, []dependency.Files, error) {
	var req resolver.Request
	var projectFiles []string
	var direct []dependency.Files

	for _, dep := range deps {
		switch d := dep.(type) {
		case dependency.Module:
			req.Coordinates = append(req.Coordinates, moduleQuery(d))
		case dependency.Project:
			out, err := c.projects.Locate(d.Path)
			if err != nil {
				return resolver.Request{}, nil, nil, err
			}
			projectFiles = append(projectFiles, out.Files...)
			req.Coordinates = append(req.Coordinates, out.Exports...)
		case dependency.Files:
			direct = append(direct, d)
		case dependency.Platform:
			hints, err := c.platformHints(d)
			if err != nil {
				return resolver.Request{}, nil, nil, err
			}
			req.Platforms = append(req.Platforms, hints...)
		default:
			return resolver.Request{}, nil, nil, fmt.Errorf("composer: unexpected dependency variant %T", dep)
		}
	}
	return req, projectFiles, direct, nil
}

func (c *Composer) platformHints(p dependency.Platform) ([]resolver.PlatformHint, error) {
	switch target := p.Target.(type) {
	case dependency.Module:
		return []resolver.PlatformHint{{
			Coordinate: target.Coordinate,
			Constraint: target.Constraint,
			Enforced:   p.Enforced,
		}}, nil
	case dependency.Project:
		out, err := c.projects.Locate(target.Path)
		if err != nil {
			return nil, err
		}
		hints := make([]resolver.PlatformHint, 0, len(out.Exports))
		for _, export := range out.Exports {
			hints = append(hints, resolver.PlatformHint{
				Coordinate: export.Coordinate,
				Constraint: export.Constraint,
				Enforced:   p.Enforced,
			})
		}
		return hints, nil
	default:
		return nil, fmt.Errorf("composer: platform target must be a module or project, got %T", p.Target)
	}
}

func moduleQuery(d dependency.Module) resolver.ModuleQuery {
	return resolver.ModuleQuery{
		Coordinate: d.Coordinate,
		Constraint: d.Constraint,
		Prefer:     d.Prefer,
		Excludes:   append([]coordinate.Exclude(nil), d.Excludes...),
	}
}

// flatten expands Many groups (bundle expansions) into their members,
// preserving order.
func flatten(dep dependency.Dependency) []dependency.Dependency {
	if group, ok := dep.(dependency.Many); ok {
		var out []dependency.Dependency
		for _, member := range group {
			out = append(out, flatten(member)...)
		}
		return out
	}
	return []dependency.Dependency{dep}
}

// dedupe drops later duplicate occurrences, keeping the first
// occurrence's position.
func dedupe(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
