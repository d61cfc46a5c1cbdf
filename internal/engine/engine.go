// Package engine is the façade tying the registry, catalog, composer
// and resolver together behind the operations a build front end calls:
// declare bucket entries, compose classpaths, close configuration.
package engine

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/anvil-platform/suitepath/internal/catalog"
	"github.com/anvil-platform/suitepath/internal/composer"
	"github.com/anvil-platform/suitepath/internal/dependency"
	"github.com/anvil-platform/suitepath/internal/resolver"
	"github.com/anvil-platform/suitepath/internal/suite"
)

// DefaultSuiteName is the conventional name of the distinguished
// default suite.
const DefaultSuiteName = "test"

// Engine owns one project's suites and their resolution domains.
type Engine struct {
	registry *suite.Registry
	catalog  *catalog.Catalog
	composer *composer.Composer
	log      logr.Logger
}

// Option configures the engine.
type Option func(*settings)

type settings struct {
	defaultSuite string
	catalog      *catalog.Catalog
	locator      resolver.ProjectLocator
	log          logr.Logger
}

// WithDefaultSuite overrides the default suite's name.
func WithDefaultSuite(name string) Option {
	return func(s *settings) { s.defaultSuite = name }
}

// WithCatalog attaches a version catalog for alias and bundle
// declarations. The catalog may keep growing until the first
// resolution that needs a given alias.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(s *settings) { s.catalog = cat }
}

// WithProjectLocator supplies project-reference resolution.
func WithProjectLocator(locator resolver.ProjectLocator) Option {
	return func(s *settings) { s.locator = locator }
}

// WithLogger attaches a logger; the default discards.
func WithLogger(log logr.Logger) Option {
	return func(s *settings) { s.log = log }
}

// New builds an engine over the given module graph resolver, creating
// the production source set and the default suite (whose
// implementation bucket carries the single implicit extends-from edge
// to production).
func New(res resolver.ModuleGraphResolver, opts ...Option) (*Engine, error) {
	cfg := settings{defaultSuite: DefaultSuiteName, log: logr.Discard()}
	for _, opt := range opts {
		opt(&cfg)
	}
	registry, err := suite.NewRegistry(cfg.defaultSuite)
	if err != nil {
		return nil, err
	}
	composerOpts := []composer.Option{composer.WithLogger(cfg.log)}
	if cfg.locator != nil {
		composerOpts = append(composerOpts, composer.WithProjectLocator(cfg.locator))
	}
	return &Engine{
		registry: registry,
		catalog:  cfg.catalog,
		composer: composer.New(registry, res, composerOpts...),
		log:      cfg.log,
	}, nil
}

// Registry exposes the suite registry.
func (e *Engine) Registry() *suite.Registry { return e.registry }

// NewSuite registers an additional, isolated suite.
func (e *Engine) NewSuite(name string) error {
	_, err := e.registry.NewSuite(name)
	return err
}

// DeclareBucketEntry appends a notation to one suite's bucket. The
// production source set is addressable under suite.ProductionName.
func (e *Engine) DeclareBucketEntry(suiteName string, role suite.Role, notation any, actions ...dependency.MutationAction) error {
	s, ok := e.registry.Suite(suiteName)
	if !ok {
		return fmt.Errorf("engine: unknown suite %q", suiteName)
	}
	return s.Bucket(role).Add(notation, actions...)
}

// DeclareAlias appends a catalog library alias. Lookup is deferred to
// resolution time, so a missing alias surfaces as MissingAliasError at
// the first classpath composition that needs it.
func (e *Engine) DeclareAlias(suiteName string, role suite.Role, alias string, actions ...dependency.MutationAction) error {
	return e.DeclareBucketEntry(suiteName, role, dependency.Provider(func() (any, error) {
		if e.catalog == nil {
			return nil, fmt.Errorf("engine: no version catalog configured for alias %q", alias)
		}
		return e.catalog.ResolveAlias(alias)
	}), actions...)
}

// DeclareBundle appends a catalog bundle alias; the expansion keeps
// the bundle's declared member order and fails fast on a missing
// member at resolution time.
func (e *Engine) DeclareBundle(suiteName string, role suite.Role, alias string, actions ...dependency.MutationAction) error {
	return e.DeclareBucketEntry(suiteName, role, dependency.Provider(func() (any, error) {
		if e.catalog == nil {
			return nil, fmt.Errorf("engine: no version catalog configured for bundle %q", alias)
		}
		members, err := e.catalog.ResolveBundle(alias)
		if err != nil {
			return nil, err
		}
		group := make(dependency.Many, len(members))
		for i, member := range members {
			group[i] = member
		}
		return group, nil
	}), actions...)
}

// Classpath composes the ordered file set for one (suite, kind)
// domain. Results are cached per domain; the first call closes the
// participating suites' configuration.
func (e *Engine) Classpath(ctx context.Context, suiteName string, kind suite.Kind) ([]string, error) {
	return e.composer.Classpath(ctx, suiteName, kind)
}

// ProcessorPath composes a suite's annotation-processor path.
func (e *Engine) ProcessorPath(ctx context.Context, suiteName string) ([]string, error) {
	return e.composer.ProcessorPath(ctx, suiteName)
}

// CloseConfiguration irreversibly ends a suite's configuration phase;
// subsequent declarations fail with ClosedBucketError.
func (e *Engine) CloseConfiguration(suiteName string) error {
	s, ok := e.registry.Suite(suiteName)
	if !ok {
		return fmt.Errorf("engine: unknown suite %q", suiteName)
	}
	s.Close()
	return nil
}
