// Package suite models test suites and their dependency buckets, plus
// the explicit extends-from graph between buckets.
package suite

import (
	"sync"
	"sync/atomic"

	"github.com/anvil-platform/suitepath/internal/dependency"
)

// Role is a bucket's declarable purpose.
type Role int

const (
	RoleImplementation Role = iota
	RoleCompileOnly
	RoleRuntimeOnly
	RoleAnnotationProcessor
)

func (r Role) String() string {
	switch r {
	case RoleImplementation:
		return "implementation"
	case RoleCompileOnly:
		return "compileOnly"
	case RoleRuntimeOnly:
		return "runtimeOnly"
	case RoleAnnotationProcessor:
		return "annotationProcessor"
	default:
		return "unknown"
	}
}

// Kind selects which classpath a composition targets.
type Kind int

const (
	KindCompile Kind = iota
	KindRuntime
)

func (k Kind) String() string {
	if k == KindRuntime {
		return "runtime"
	}
	return "compile"
}

// ParticipatesIn is the role visibility table: implementation feeds
// both kinds, compileOnly and runtimeOnly feed one each, and
// annotationProcessor feeds neither classpath (it forms its own
// processor-path request).
func (r Role) ParticipatesIn(k Kind) bool {
	switch r {
	case RoleImplementation:
		return true
	case RoleCompileOnly:
		return k == KindCompile
	case RoleRuntimeOnly:
		return k == KindRuntime
	default:
		return false
	}
}

// Roles lists every bucket role in declaration-table order.
func Roles() []Role {
	return []Role{RoleImplementation, RoleCompileOnly, RoleRuntimeOnly, RoleAnnotationProcessor}
}

// Suite is a named grouping of test sources owning one bucket per
// role. The production source set is modeled as a distinguished Suite
// so its implementation bucket can sit in the bucket graph.
type Suite struct {
	name       string
	production bool
	buckets    map[Role]*Bucket
	closed     atomic.Bool
}

func newSuite(name string, production bool) *Suite {
	s := &Suite{name: name, production: production, buckets: make(map[Role]*Bucket, 4)}
	for _, role := range Roles() {
		s.buckets[role] = &Bucket{owner: s, role: role}
	}
	return s
}

func (s *Suite) Name() string       { return s.name }
func (s *Suite) IsProduction() bool { return s.production }

func (s *Suite) Bucket(role Role) *Bucket {
	return s.buckets[role]
}

// Close ends the suite's configuration phase. Irreversible; later
// Bucket.Add calls fail with ClosedBucketError. The first classpath
// composition for a suite closes it implicitly.
func (s *Suite) Close() {
	s.closed.Store(true)
}

func (s *Suite) Closed() bool {
	return s.closed.Load()
}

// Bucket is an append-only collection of dependency entries with a
// single role, owned by exactly one suite.
type Bucket struct {
	owner *Suite
	role  Role

	mu      sync.Mutex
	entries []*dependency.Entry
}

func (b *Bucket) Role() Role    { return b.role }
func (b *Bucket) Owner() *Suite { return b.owner }

// Add normalizes the notation (eagerly unless it is a provider) and
// appends it in declaration order. Mutation actions attach to this
// entry only.
func (b *Bucket) Add(notation any, actions ...dependency.MutationAction) error {
	if b.owner.Closed() {
		return &ClosedBucketError{Suite: b.owner.name, Role: b.role}
	}
	entry, err := dependency.NewEntry(notation, actions...)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry)
	return nil
}

// Entries returns a snapshot in declaration order.
func (b *Bucket) Entries() []*dependency.Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*dependency.Entry(nil), b.entries...)
}
