package suite

import "fmt"

// BucketID addresses one bucket in the graph.
type BucketID struct {
	Suite string
	Role  Role
}

func (id BucketID) String() string {
	return id.Suite + "." + id.Role.String()
}

// Edge records that From's resolution requests also collect To's
// contents ("From extends-from To"). Every extension is an explicit,
// enumerable fact; nothing is inferred from naming conventions.
type Edge struct {
	From BucketID
	To   BucketID
}

// Graph is the directed acyclic extends-from relation among buckets.
type Graph struct {
	edges map[BucketID][]BucketID
}

func NewGraph() *Graph {
	return &Graph{edges: make(map[BucketID][]BucketID)}
}

// AddEdge records an extension and rejects anything that would close a
// cycle.
func (g *Graph) AddEdge(from, to BucketID) error {
	if from == to {
		return fmt.Errorf("suite: bucket %s cannot extend itself", from)
	}
	if g.reachable(to, from) {
		return fmt.Errorf("suite: extending %s from %s would create a cycle", to, from)
	}
	g.edges[from] = append(g.edges[from], to)
	return nil
}

// Edges lists the direct extensions of a bucket in insertion order.
func (g *Graph) Edges(from BucketID) []BucketID {
	return append([]BucketID(nil), g.edges[from]...)
}

// Closure returns start plus every transitively extended bucket, in
// deterministic breadth-first order starting from the declaration.
func (g *Graph) Closure(start BucketID) []BucketID {
	seen := map[BucketID]struct{}{start: {}}
	order := []BucketID{start}
	queue := []BucketID{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.edges[current] {
			if _, dup := seen[next]; dup {
				continue
			}
			seen[next] = struct{}{}
			order = append(order, next)
			queue = append(queue, next)
		}
	}
	return order
}

func (g *Graph) reachable(from, target BucketID) bool {
	if from == target {
		return true
	}
	for _, next := range g.edges[from] {
		if g.reachable(next, target) {
			return true
		}
	}
	return false
}
