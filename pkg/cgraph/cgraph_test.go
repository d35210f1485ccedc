package cgraph

import "testing"

func strHash(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}
func strEq(a, b string) bool { return a == b }

func TestAddVertexAndEdge(t *testing.T) {
	g := New[string](strHash, strEq)
	g.AddVertex("a")
	g.AddVertex("b")
	if !g.AddEdge("a", "b") {
		t.Fatalf("expected edge add to succeed between two present vertices")
	}
	if !g.HasEdge("a", "b") || !g.HasEdge("b", "a") {
		t.Fatalf("expected the edge to be symmetric")
	}
}

func TestAddEdgeRejectsMissingVertex(t *testing.T) {
	g := New[string](strHash, strEq)
	g.AddVertex("a")
	if g.AddEdge("a", "ghost") {
		t.Fatalf("expected edge add to fail when an endpoint is missing")
	}
}

func TestRemoveVertexDropsIncidentEdges(t *testing.T) {
	g := New[string](strHash, strEq)
	g.AddVertex("a")
	g.AddVertex("b")
	g.AddVertex("c")
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")

	g.RemoveVertex("b")

	if g.HasVertex("b") {
		t.Fatalf("expected b removed")
	}
	if g.HasEdge("a", "b") || g.HasEdge("c", "b") {
		t.Fatalf("expected edges incident to b gone")
	}
	if neighbors := g.Neighbors("a"); neighbors != nil && neighbors.Contains("b") {
		t.Fatalf("expected a's adjacency set scrubbed of b")
	}
}

func TestRemoveEdgeIsSymmetric(t *testing.T) {
	g := New[string](strHash, strEq)
	g.AddVertex("a")
	g.AddVertex("b")
	g.AddEdge("a", "b")
	if !g.RemoveEdge("a", "b") {
		t.Fatalf("expected remove to find the edge")
	}
	if g.HasEdge("a", "b") || g.HasEdge("b", "a") {
		t.Fatalf("expected edge gone on both sides")
	}
}

func TestSizeCountsVertices(t *testing.T) {
	g := New[string](strHash, strEq)
	g.AddVertex("a")
	g.AddVertex("b")
	g.AddVertex("a")
	if g.Size() != 2 {
		t.Fatalf("expected duplicate add to be a no-op, got size %d", g.Size())
	}
}
