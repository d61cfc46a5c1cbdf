package suite

import "sync"

// ProductionName is the reserved source-set name occupied by the
// production buckets.
const ProductionName = "main"

// Registry owns the production source set, every registered suite and
// the bucket graph tying them together.
//
// The default suite is the only one whose implementation bucket
// extends production implementation; every other suite starts
// isolated and only reaches production code through an explicit
// project dependency in its own bucket.
type Registry struct {
	mu         sync.Mutex
	production *Suite
	suites     map[string]*Suite
	order      []string
	defaultSet string
	graph      *Graph
}

// NewRegistry creates the registry with its production source set and
// the default suite, wiring the single implicit extends-from edge.
func NewRegistry(defaultSuite string) (*Registry, error) {
	r := &Registry{
		production: newSuite(ProductionName, true),
		suites:     make(map[string]*Suite),
		graph:      NewGraph(),
	}
	s, err := r.NewSuite(defaultSuite)
	if err != nil {
		return nil, err
	}
	r.defaultSet = s.name
	if err := r.graph.AddEdge(
		BucketID{Suite: s.name, Role: RoleImplementation},
		BucketID{Suite: ProductionName, Role: RoleImplementation},
	); err != nil {
		return nil, err
	}
	return r, nil
}

// NewSuite registers a suite. Names are unique within the registry;
// the production name is reserved.
func (r *Registry) NewSuite(name string) (*Suite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == ProductionName {
		return nil, &DuplicateSuiteNameError{Name: name}
	}
	if _, exists := r.suites[name]; exists {
		return nil, &DuplicateSuiteNameError{Name: name}
	}
	s := newSuite(name, false)
	r.suites[name] = s
	r.order = append(r.order, name)
	return s, nil
}

// Suite looks a suite up by name. The production source set is
// addressable under ProductionName.
func (r *Registry) Suite(name string) (*Suite, bool) {
	if name == ProductionName {
		return r.production, true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suites[name]
	return s, ok
}

// Production returns the production source set.
func (r *Registry) Production() *Suite { return r.production }

// DefaultSuite returns the distinguished default suite's name.
func (r *Registry) DefaultSuite() string { return r.defaultSet }

// Graph exposes the extends-from relation.
func (r *Registry) Graph() *Graph { return r.graph }

// Names lists registered suites in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Buckets resolves the bucket set feeding one (suite, kind) request:
// for each role visible to the kind, the suite's own bucket plus its
// transitive extends-from closure, restricted to buckets whose role is
// also visible to the kind.
func (r *Registry) Buckets(s *Suite, kind Kind) []*Bucket {
	var out []*Bucket
	seen := make(map[BucketID]struct{})
	for _, role := range Roles() {
		if !role.ParticipatesIn(kind) {
			continue
		}
		for _, id := range r.graph.Closure(BucketID{Suite: s.name, Role: role}) {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if !id.Role.ParticipatesIn(kind) {
				continue
			}
			owner, ok := r.Suite(id.Suite)
			if !ok {
				continue
			}
			out = append(out, owner.Bucket(id.Role))
		}
	}
	return out
}
