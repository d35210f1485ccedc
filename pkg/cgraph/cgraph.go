// Package cgraph is an undirected graph over a generic vertex type,
// grounded on original_source's graph.c: each vertex maps to the set of its
// neighbors, so an edge is recorded on both endpoints' adjacency sets at
// once and every query and removal touches both sides symmetrically.
package cgraph

import "github.com/c99cc/sysvcc/pkg/cmap"

// Graph is an undirected graph keyed by V, hashed and compared the same way
// cmap.Map is (graph.c's graph_t wraps a map_t of map_t the same way).
type Graph[V any] struct {
	adjacency *cmap.Map[V, *cmap.Set[V]]
	hash      func(V) uint64
	eq        func(a, b V) bool
}

// New builds an empty graph.
func New[V any](hash func(V) uint64, eq func(a, b V) bool) *Graph[V] {
	return &Graph[V]{
		adjacency: cmap.New[V, *cmap.Set[V]](hash, eq),
		hash:      hash,
		eq:        eq,
	}
}

// AddVertex inserts v with no edges, reporting whether it was newly added.
func (g *Graph[V]) AddVertex(v V) bool {
	if g.adjacency.Contains(v) {
		return false
	}
	g.adjacency.Set(v, cmap.NewSet[V](g.hash, g.eq))
	return true
}

// HasVertex reports whether v is in the graph.
func (g *Graph[V]) HasVertex(v V) bool {
	return g.adjacency.Contains(v)
}

// RemoveVertex deletes v and every edge touching it, reporting whether v
// was present.
func (g *Graph[V]) RemoveVertex(v V) bool {
	neighbors, ok := g.adjacency.Get(v)
	if !ok {
		return false
	}
	neighbors.Each(func(n V) {
		if other, ok := g.adjacency.Get(n); ok {
			other.Remove(v)
		}
	})
	g.adjacency.Delete(v)
	return true
}

// AddEdge records an edge between from and to, reporting whether both
// endpoints exist (an edge to a missing vertex is rejected, as in
// graph_add_edge).
func (g *Graph[V]) AddEdge(from, to V) bool {
	fromSet, ok := g.adjacency.Get(from)
	if !ok {
		return false
	}
	toSet, ok := g.adjacency.Get(to)
	if !ok {
		return false
	}
	fromSet.Add(to)
	toSet.Add(from)
	return true
}

// RemoveEdge deletes the edge between from and to, reporting whether both
// endpoints exist.
func (g *Graph[V]) RemoveEdge(from, to V) bool {
	fromSet, ok := g.adjacency.Get(from)
	if !ok {
		return false
	}
	toSet, ok := g.adjacency.Get(to)
	if !ok {
		return false
	}
	fromSet.Remove(to)
	toSet.Remove(from)
	return true
}

// HasEdge reports whether from and to are adjacent.
func (g *Graph[V]) HasEdge(from, to V) bool {
	fromSet, ok := g.adjacency.Get(from)
	if !ok {
		return false
	}
	toSet, ok := g.adjacency.Get(to)
	if !ok {
		return false
	}
	return fromSet.Contains(to) && toSet.Contains(from)
}

// Neighbors returns the set of vertices adjacent to v, or nil if v is not
// in the graph.
func (g *Graph[V]) Neighbors(v V) *cmap.Set[V] {
	s, _ := g.adjacency.Get(v)
	return s
}

// Size returns the number of vertices in the graph.
func (g *Graph[V]) Size() int {
	return g.adjacency.Len()
}

// EachVertex visits every vertex in unspecified order.
func (g *Graph[V]) EachVertex(fn func(v V)) {
	g.adjacency.Each(func(v V, _ *cmap.Set[V]) { fn(v) })
}
