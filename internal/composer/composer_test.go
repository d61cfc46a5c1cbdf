package composer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/anvil-platform/suitepath/internal/coordinate"
	"github.com/anvil-platform/suitepath/internal/dependency"
	"github.com/anvil-platform/suitepath/internal/metrics"
	"github.com/anvil-platform/suitepath/internal/resolver"
	"github.com/anvil-platform/suitepath/internal/semver"
	"github.com/anvil-platform/suitepath/internal/suite"
)

type countingResolver struct {
	inner resolver.ModuleGraphResolver
	calls atomic.Int32
}

func (c *countingResolver) ResolveModules(ctx context.Context, req resolver.Request) (resolver.Result, error) {
	c.calls.Add(1)
	return c.inner.ResolveModules(ctx, req)
}

type fixture struct {
	registry *suite.Registry
	index    *resolver.IndexResolver
	counting *countingResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry, err := suite.NewRegistry("test")
	if err != nil {
		t.Fatalf("NewRegistry error: %v", err)
	}
	index := resolver.NewIndexResolver()
	register := func(gav, file string, deps ...string) {
		if err := index.Register(gav, file, deps...); err != nil {
			t.Fatalf("Register(%q) error: %v", gav, err)
		}
	}
	register("org.apache.commons:commons-lang3:3.11", "commons-lang3-3.11.jar")
	register("commons-beanutils:commons-beanutils:1.9.4", "commons-beanutils-1.9.4.jar",
		"commons-collections:commons-collections:3.2.2")
	register("commons-collections:commons-collections:3.2.2", "commons-collections-3.2.2.jar")
	return &fixture{
		registry: registry,
		index:    index,
		counting: &countingResolver{inner: index},
	}
}

func (f *fixture) composer(opts ...Option) *Composer {
	return New(f.registry, f.counting, opts...)
}

func (f *fixture) add(t *testing.T, suiteName string, role suite.Role, notation any, actions ...dependency.MutationAction) {
	t.Helper()
	s, ok := f.registry.Suite(suiteName)
	if !ok {
		t.Fatalf("unknown suite %q", suiteName)
	}
	if err := s.Bucket(role).Add(notation, actions...); err != nil {
		t.Fatalf("Add error: %v", err)
	}
}

func mustClasspath(t *testing.T, c *Composer, suiteName string, kind suite.Kind) []string {
	t.Helper()
	files, err := c.Classpath(context.Background(), suiteName, kind)
	if err != nil {
		t.Fatalf("Classpath(%s, %s) error: %v", suiteName, kind, err)
	}
	return files
}

func TestDefaultSuiteSeesProductionImplementation(t *testing.T) {
	f := newFixture(t)
	f.add(t, suite.ProductionName, suite.RoleImplementation, "org.apache.commons:commons-lang3:3.11")
	c := f.composer()

	for _, kind := range []suite.Kind{suite.KindCompile, suite.KindRuntime} {
		files := mustClasspath(t, c, "test", kind)
		if !contains(files, "commons-lang3-3.11.jar") {
			t.Fatalf("%s classpath missing production dependency: %v", kind, files)
		}
	}
}

func TestCustomSuiteDoesNotSeeProduction(t *testing.T) {
	f := newFixture(t)
	if _, err := f.registry.NewSuite("integTest"); err != nil {
		t.Fatalf("NewSuite error: %v", err)
	}
	f.add(t, suite.ProductionName, suite.RoleImplementation, "org.apache.commons:commons-lang3:3.11")
	f.add(t, "test", suite.RoleImplementation, "org.apache.commons:commons-lang3:3.11")
	c := f.composer()

	if files := mustClasspath(t, c, "test", suite.KindCompile); !contains(files, "commons-lang3-3.11.jar") {
		t.Fatalf("default suite compile classpath missing commons-lang3: %v", files)
	}
	for _, kind := range []suite.Kind{suite.KindCompile, suite.KindRuntime} {
		if files := mustClasspath(t, c, "integTest", kind); contains(files, "commons-lang3-3.11.jar") {
			t.Fatalf("production leaked into isolated suite (%s): %v", kind, files)
		}
	}
}

func TestCompileOnlyAndRuntimeOnlyVisibility(t *testing.T) {
	f := newFixture(t)
	f.add(t, "test", suite.RoleCompileOnly, "org.apache.commons:commons-lang3:3.11")
	f.add(t, "test", suite.RoleRuntimeOnly, "commons-collections:commons-collections:3.2.2")
	c := f.composer()

	compile := mustClasspath(t, c, "test", suite.KindCompile)
	runtime := mustClasspath(t, c, "test", suite.KindRuntime)

	if !contains(compile, "commons-lang3-3.11.jar") || contains(runtime, "commons-lang3-3.11.jar") {
		t.Fatalf("compileOnly visibility wrong: compile=%v runtime=%v", compile, runtime)
	}
	if contains(compile, "commons-collections-3.2.2.jar") || !contains(runtime, "commons-collections-3.2.2.jar") {
		t.Fatalf("runtimeOnly visibility wrong: compile=%v runtime=%v", compile, runtime)
	}
}

func TestClasspathIdempotentWithSingleResolverInvocation(t *testing.T) {
	f := newFixture(t)
	f.add(t, "test", suite.RoleImplementation, "org.apache.commons:commons-lang3:3.11")
	c := f.composer()

	first := mustClasspath(t, c, "test", suite.KindCompile)
	second := mustClasspath(t, c, "test", suite.KindCompile)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("classpath not idempotent (-first +second):\n%s", diff)
	}
	if got := f.counting.calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 resolver invocation, got %d", got)
	}
}

func TestProviderForcedOnceAcrossKinds(t *testing.T) {
	f := newFixture(t)
	var forced atomic.Int32
	f.add(t, "test", suite.RoleImplementation, dependency.Provider(func() (any, error) {
		forced.Add(1)
		return "org.apache.commons:commons-lang3:3.11", nil
	}))
	c := f.composer()

	compile := mustClasspath(t, c, "test", suite.KindCompile)
	runtime := mustClasspath(t, c, "test", suite.KindRuntime)

	if !contains(compile, "commons-lang3-3.11.jar") || !contains(runtime, "commons-lang3-3.11.jar") {
		t.Fatalf("provider-backed dependency missing: compile=%v runtime=%v", compile, runtime)
	}
	if forced.Load() != 1 {
		t.Fatalf("expected provider forced once, got %d", forced.Load())
	}
}

func TestEntryExcludeActionScopesToItsSubgraph(t *testing.T) {
	f := newFixture(t)
	f.add(t, "test", suite.RoleImplementation, "commons-beanutils:commons-beanutils:1.9.4",
		dependency.ExcludeModule("commons-collections", "commons-collections"))
	c := f.composer()

	files := mustClasspath(t, c, "test", suite.KindCompile)
	if !contains(files, "commons-beanutils-1.9.4.jar") {
		t.Fatalf("classpath missing commons-beanutils: %v", files)
	}
	if contains(files, "commons-collections-3.2.2.jar") {
		t.Fatalf("exclude not applied: %v", files)
	}
}

func TestDirectFilesFollowResolvedFilesAndDedupe(t *testing.T) {
	f := newFixture(t)
	f.add(t, "test", suite.RoleImplementation, "org.apache.commons:commons-lang3:3.11")
	f.add(t, "test", suite.RoleImplementation, dependency.FileCollection{
		Paths: []string{"local/extra.jar", "commons-lang3-3.11.jar"},
	})
	c := f.composer()

	files := mustClasspath(t, c, "test", suite.KindCompile)
	want := []string{"commons-lang3-3.11.jar", "local/extra.jar"}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("unexpected ordering (-want +got):\n%s", diff)
	}
}

func TestFileTreeExpandedAtResolutionTime(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	f.add(t, "test", suite.RoleImplementation, dependency.FileTree{
		Root:     dir,
		Includes: []string{"*.jar"},
	})

	// The file appears after declaration but before composition.
	jar := filepath.Join(dir, "late.jar")
	if err := os.WriteFile(jar, []byte("jar"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	c := f.composer()
	files := mustClasspath(t, c, "test", suite.KindCompile)
	if !contains(files, jar) {
		t.Fatalf("expected late-added jar in classpath: %v", files)
	}
	if contains(files, filepath.Join(dir, "notes.txt")) {
		t.Fatalf("include pattern not applied: %v", files)
	}
}

func TestMissingTreeRootContributesNothing(t *testing.T) {
	f := newFixture(t)
	f.add(t, "test", suite.RoleImplementation, dependency.FileTree{
		Root:     filepath.Join(t.TempDir(), "absent"),
		Includes: []string{"*.jar"},
	})
	c := f.composer()

	files := mustClasspath(t, c, "test", suite.KindCompile)
	if len(files) != 0 {
		t.Fatalf("expected empty classpath for a tree over a missing root, got %v", files)
	}
}

func TestProcessorPathMetricsUseProcessorKind(t *testing.T) {
	f := newFixture(t)
	f.add(t, "test", suite.RoleAnnotationProcessor, "commons-beanutils:commons-beanutils:1.9.4")
	c := f.composer()

	processor := metrics.ComposeTotal.WithLabelValues("test", "processor")
	compile := metrics.ComposeTotal.WithLabelValues("test", "compile")
	processorBefore := testutil.ToFloat64(processor)
	compileBefore := testutil.ToFloat64(compile)

	if _, err := c.ProcessorPath(context.Background(), "test"); err != nil {
		t.Fatalf("ProcessorPath error: %v", err)
	}

	if got := testutil.ToFloat64(processor) - processorBefore; got != 1 {
		t.Fatalf("expected 1 processor composition, got %v", got)
	}
	if got := testutil.ToFloat64(compile) - compileBefore; got != 0 {
		t.Fatalf("processor composition counted as compile: %v", got)
	}
}

func TestProjectRefPullsProductionOutputExplicitly(t *testing.T) {
	f := newFixture(t)
	if _, err := f.registry.NewSuite("integTest"); err != nil {
		t.Fatalf("NewSuite error: %v", err)
	}
	f.add(t, "integTest", suite.RoleImplementation, coordinate.ProjectPath(":"))
	locator := resolver.StaticProjects{
		":": {
			Files:   []string{"build/libs/app.jar"},
			Exports: []resolver.ModuleQuery{{Coordinate: coordinate.Module{Group: "org.apache.commons", Name: "commons-lang3"}}},
		},
	}
	c := f.composer(WithProjectLocator(locator))

	files := mustClasspath(t, c, "integTest", suite.KindCompile)
	if !contains(files, "build/libs/app.jar") {
		t.Fatalf("project output missing: %v", files)
	}
	if !contains(files, "commons-lang3-3.11.jar") {
		t.Fatalf("project exports not resolved: %v", files)
	}
}

func TestUnknownProjectFailsAtResolutionTime(t *testing.T) {
	f := newFixture(t)
	f.add(t, "test", suite.RoleImplementation, coordinate.ProjectPath(":ghost"))
	c := f.composer()

	_, err := c.Classpath(context.Background(), "test", suite.KindCompile)
	if !errors.Is(err, resolver.ErrResolution) {
		t.Fatalf("expected resolution error for unknown project, got %v", err)
	}
}

func TestPlatformContributesConstraintsNotFiles(t *testing.T) {
	f := newFixture(t)
	if err := f.index.Register("x:x:1.0.0", "x-1.0.0.jar"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := f.index.Register("x:x:2.0.0", "x-2.0.0.jar"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	f.add(t, "test", suite.RoleImplementation, dependency.Module{Coordinate: coordinate.Module{Group: "x", Name: "x"}})
	f.add(t, "test", suite.RoleImplementation, dependency.Platform{
		Target:   dependency.Module{Coordinate: coordinate.Module{Group: "x", Name: "x"}, Constraint: semver.MustParseConstraint("1.0.0")},
		Enforced: true,
	})
	c := f.composer()

	files := mustClasspath(t, c, "test", suite.KindCompile)
	want := []string{"x-1.0.0.jar"}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("unexpected files (-want +got):\n%s", diff)
	}
}

func TestAnnotationProcessorPathIsSeparate(t *testing.T) {
	f := newFixture(t)
	f.add(t, "test", suite.RoleImplementation, "org.apache.commons:commons-lang3:3.11")
	f.add(t, "test", suite.RoleAnnotationProcessor, "commons-beanutils:commons-beanutils:1.9.4")
	c := f.composer()

	for _, kind := range []suite.Kind{suite.KindCompile, suite.KindRuntime} {
		if files := mustClasspath(t, c, "test", kind); contains(files, "commons-beanutils-1.9.4.jar") {
			t.Fatalf("annotation processor leaked into %s classpath: %v", kind, files)
		}
	}

	processors, err := c.ProcessorPath(context.Background(), "test")
	if err != nil {
		t.Fatalf("ProcessorPath error: %v", err)
	}
	if !contains(processors, "commons-beanutils-1.9.4.jar") {
		t.Fatalf("processor path missing processor: %v", processors)
	}
	if contains(processors, "commons-lang3-3.11.jar") {
		t.Fatalf("implementation leaked into processor path: %v", processors)
	}
}

func TestFailedDomainDoesNotPoisonOthersAndRetries(t *testing.T) {
	f := newFixture(t)
	if _, err := f.registry.NewSuite("integTest"); err != nil {
		t.Fatalf("NewSuite error: %v", err)
	}
	f.add(t, "test", suite.RoleImplementation, "org.apache.commons:commons-lang3:3.11")
	f.add(t, "integTest", suite.RoleImplementation, "ghost:ghost:1.0.0")
	c := f.composer()

	if _, err := c.Classpath(context.Background(), "integTest", suite.KindCompile); err == nil {
		t.Fatalf("expected failure for unknown module")
	}
	if files := mustClasspath(t, c, "test", suite.KindCompile); !contains(files, "commons-lang3-3.11.jar") {
		t.Fatalf("healthy domain disturbed by sibling failure: %v", files)
	}

	// Failures are not cached: the failed domain consults the resolver
	// again on the next call.
	before := f.counting.calls.Load()
	if _, err := c.Classpath(context.Background(), "integTest", suite.KindCompile); err == nil {
		t.Fatalf("expected failure to persist while the module is unknown")
	}
	if f.counting.calls.Load() != before+1 {
		t.Fatalf("expected a retry resolver invocation")
	}
}

func TestFirstCompositionClosesConfiguration(t *testing.T) {
	f := newFixture(t)
	f.add(t, "test", suite.RoleImplementation, "org.apache.commons:commons-lang3:3.11")
	c := f.composer()
	mustClasspath(t, c, "test", suite.KindCompile)

	s, _ := f.registry.Suite("test")
	err := s.Bucket(suite.RoleImplementation).Add("commons-beanutils:commons-beanutils:1.9.4")
	var closed *suite.ClosedBucketError
	if !errors.As(err, &closed) {
		t.Fatalf("expected ClosedBucketError after first composition, got %v", err)
	}

	// Production participated in the domain, so it is closed too.
	if err := f.registry.Production().Bucket(suite.RoleImplementation).Add("x:x:1.0.0"); err == nil {
		t.Fatalf("expected production bucket closed after default-suite composition")
	}
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}

