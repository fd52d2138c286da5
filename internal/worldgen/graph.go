package worldgen

import (
	"slices"
	"sort"
)

// Edge is an undirected weighted edge with A < B.
type Edge struct {
	A, B   int
	Weight float64
}

// Other returns the endpoint of e that is not n.
func (e Edge) Other(n int) int {
	if e.A == n {
		return e.B
	}
	return e.A
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Graph is a small undirected graph over room ids. Nodes and edges keep
// their insertion order so every traversal is deterministic.
type Graph struct {
	nodes []int
	known map[int]bool
	edges []Edge
	index map[[2]int]int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		known: make(map[int]bool),
		index: make(map[[2]int]int),
	}
}

// AddNode adds n if it is not present yet.
func (g *Graph) AddNode(n int) {
	if g.known[n] {
		return
	}
	g.known[n] = true
	g.nodes = append(g.nodes, n)
}

// AddEdge adds the edge a-b, adding missing nodes. An existing edge keeps its
// position and takes the new weight.
func (g *Graph) AddEdge(a, b int, weight float64) {
	g.AddNode(a)
	g.AddNode(b)
	key := edgeKey(a, b)
	if i, ok := g.index[key]; ok {
		g.edges[i].Weight = weight
		return
	}
	g.index[key] = len(g.edges)
	g.edges = append(g.edges, Edge{A: key[0], B: key[1], Weight: weight})
}

// HasEdge reports whether a-b exists.
func (g *Graph) HasEdge(a, b int) bool {
	_, ok := g.index[edgeKey(a, b)]
	return ok
}

// HasNode reports whether n exists.
func (g *Graph) HasNode(n int) bool {
	return g.known[n]
}

// RemoveEdge deletes a-b if present.
func (g *Graph) RemoveEdge(a, b int) {
	i, ok := g.index[edgeKey(a, b)]
	if !ok {
		return
	}
	g.edges = slices.Delete(g.edges, i, i+1)
	g.reindex()
}

// RemoveNode deletes n and every edge touching it.
func (g *Graph) RemoveNode(n int) {
	if !g.known[n] {
		return
	}
	delete(g.known, n)
	g.nodes = slices.DeleteFunc(g.nodes, func(m int) bool { return m == n })
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.A == n || e.B == n })
	g.reindex()
}

func (g *Graph) reindex() {
	clear(g.index)
	for i, e := range g.edges {
		g.index[[2]int{e.A, e.B}] = i
	}
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []int {
	return slices.Clone(g.nodes)
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// EdgesOf returns the edges touching n in insertion order.
func (g *Graph) EdgesOf(n int) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.A == n || e.B == n {
			out = append(out, e)
		}
	}
	return out
}

// Degree returns the number of edges touching n.
func (g *Graph) Degree(n int) int {
	d := 0
	for _, e := range g.edges {
		if e.A == n || e.B == n {
			d++
		}
	}
	return d
}

// Clone returns a deep copy.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	for _, n := range g.nodes {
		c.AddNode(n)
	}
	for _, e := range g.edges {
		c.AddEdge(e.A, e.B, e.Weight)
	}
	return c
}

// MinimumSpanningTree returns a minimum spanning forest using Kruskal's
// algorithm. Edges of equal weight are taken in insertion order.
func (g *Graph) MinimumSpanningTree() *Graph {
	mst := NewGraph()
	parent := make(map[int]int, len(g.nodes))
	for _, n := range g.nodes {
		mst.AddNode(n)
		parent[n] = n
	}

	var find func(int) int
	find = func(n int) int {
		for parent[n] != n {
			parent[n] = parent[parent[n]]
			n = parent[n]
		}
		return n
	}

	sorted := g.Edges()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight < sorted[j].Weight
	})

	for _, e := range sorted {
		ra, rb := find(e.A), find(e.B)
		if ra == rb {
			continue
		}
		parent[ra] = rb
		mst.AddEdge(e.A, e.B, e.Weight)
	}
	return mst
}

// sortedSuccessors returns the neighbours of n ordered by ascending edge
// weight, ties in insertion order.
func (g *Graph) sortedSuccessors(n int) []int {
	edges := g.EdgesOf(n)
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Weight < edges[j].Weight
	})
	out := make([]int, len(edges))
	for i, e := range edges {
		out[i] = e.Other(n)
	}
	return out
}

// DepthFirstPath walks from start towards goal, always trying the cheapest
// edge first. The first path found is returned; it is not necessarily the
// shortest. Returns nil if goal is unreachable.
func (g *Graph) DepthFirstPath(start, goal int) []int {
	if !g.known[start] || !g.known[goal] {
		return nil
	}

	path := []int{start}
	var visit func(n int) bool
	visit = func(n int) bool {
		if n == goal {
			return true
		}
		for _, next := range g.sortedSuccessors(n) {
			if slices.Contains(path, next) {
				continue
			}
			path = append(path, next)
			if visit(next) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}

	if !visit(start) {
		return nil
	}
	return path
}
