package suite

import (
	"errors"
	"testing"
)

func mustRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry("test")
	if err != nil {
		t.Fatalf("NewRegistry error: %v", err)
	}
	return r
}

func TestDuplicateSuiteNameIsFatal(t *testing.T) {
	r := mustRegistry(t)
	if _, err := r.NewSuite("integTest"); err != nil {
		t.Fatalf("NewSuite error: %v", err)
	}

	_, err := r.NewSuite("integTest")
	if err == nil {
		t.Fatalf("expected error for duplicate suite name")
	}
	var dup *DuplicateSuiteNameError
	if !errors.As(err, &dup) || dup.Name != "integTest" {
		t.Fatalf("expected DuplicateSuiteNameError, got %v", err)
	}
	if !errors.Is(err, ErrDuplicateSuiteName) {
		t.Fatalf("expected sentinel match, got %v", err)
	}
}

func TestProductionNameIsReserved(t *testing.T) {
	r := mustRegistry(t)
	if _, err := r.NewSuite(ProductionName); err == nil {
		t.Fatalf("expected error registering a suite named %q", ProductionName)
	}
}

func TestAddAfterCloseFails(t *testing.T) {
	r := mustRegistry(t)
	s, _ := r.Suite("test")

	if err := s.Bucket(RoleImplementation).Add("g:n:1.0.0"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	s.Close()

	err := s.Bucket(RoleImplementation).Add("g:n2:1.0.0")
	if err == nil {
		t.Fatalf("expected error after close")
	}
	var closed *ClosedBucketError
	if !errors.As(err, &closed) {
		t.Fatalf("expected ClosedBucketError, got %v", err)
	}
	if closed.Suite != "test" || closed.Role != RoleImplementation {
		t.Fatalf("expected declaration-site context, got %+v", closed)
	}
}

func TestAddRejectsBadNotationImmediately(t *testing.T) {
	r := mustRegistry(t)
	s, _ := r.Suite("test")

	if err := s.Bucket(RoleImplementation).Add(struct{}{}); err == nil {
		t.Fatalf("expected unsupported-notation error")
	}
	if n := len(s.Bucket(RoleImplementation).Entries()); n != 0 {
		t.Fatalf("rejected notation entered the bucket: %d entries", n)
	}
}

func TestRoleParticipationTable(t *testing.T) {
	cases := []struct {
		role    Role
		compile bool
		runtime bool
	}{
		{RoleImplementation, true, true},
		{RoleCompileOnly, true, false},
		{RoleRuntimeOnly, false, true},
		{RoleAnnotationProcessor, false, false},
	}
	for _, tc := range cases {
		if got := tc.role.ParticipatesIn(KindCompile); got != tc.compile {
			t.Fatalf("%s compile participation: expected %v, got %v", tc.role, tc.compile, got)
		}
		if got := tc.role.ParticipatesIn(KindRuntime); got != tc.runtime {
			t.Fatalf("%s runtime participation: expected %v, got %v", tc.role, tc.runtime, got)
		}
	}
}

func TestDefaultSuiteExtendsProductionImplementationOnly(t *testing.T) {
	r := mustRegistry(t)
	defaultSuite, _ := r.Suite("test")

	buckets := r.Buckets(defaultSuite, KindCompile)
	foundProduction := false
	for _, b := range buckets {
		if b.Owner().IsProduction() {
			if b.Role() != RoleImplementation {
				t.Fatalf("unexpected production bucket role: %s", b.Role())
			}
			foundProduction = true
		}
	}
	if !foundProduction {
		t.Fatalf("expected default suite to see production implementation")
	}
}

func TestCustomSuiteIsIsolatedByDefault(t *testing.T) {
	r := mustRegistry(t)
	custom, err := r.NewSuite("integTest")
	if err != nil {
		t.Fatalf("NewSuite error: %v", err)
	}

	for _, kind := range []Kind{KindCompile, KindRuntime} {
		for _, b := range r.Buckets(custom, kind) {
			if b.Owner().IsProduction() {
				t.Fatalf("custom suite implicitly extends production (%s)", kind)
			}
			if b.Owner().Name() != "integTest" {
				t.Fatalf("custom suite sees foreign bucket %s.%s", b.Owner().Name(), b.Role())
			}
		}
	}
}

func TestGraphRejectsCycles(t *testing.T) {
	g := NewGraph()
	a := BucketID{Suite: "a", Role: RoleImplementation}
	b := BucketID{Suite: "b", Role: RoleImplementation}

	if err := g.AddEdge(a, b); err != nil {
		t.Fatalf("AddEdge error: %v", err)
	}
	if err := g.AddEdge(b, a); err == nil {
		t.Fatalf("expected cycle rejection")
	}
	if err := g.AddEdge(a, a); err == nil {
		t.Fatalf("expected self-edge rejection")
	}
}

func TestGraphClosureIsTransitive(t *testing.T) {
	g := NewGraph()
	a := BucketID{Suite: "a", Role: RoleImplementation}
	b := BucketID{Suite: "b", Role: RoleImplementation}
	c := BucketID{Suite: "c", Role: RoleImplementation}
	if err := g.AddEdge(a, b); err != nil {
		t.Fatalf("AddEdge error: %v", err)
	}
	if err := g.AddEdge(b, c); err != nil {
		t.Fatalf("AddEdge error: %v", err)
	}

	closure := g.Closure(a)
	if len(closure) != 3 || closure[0] != a || closure[1] != b || closure[2] != c {
		t.Fatalf("unexpected closure: %v", closure)
	}
}
