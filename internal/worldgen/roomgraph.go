package worldgen

import (
	"fmt"
	"math/rand"

	"github.com/zyedidia/generic/mapset"

	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/logger"
)

// RoomGraph is the connectivity plan of a map.
type RoomGraph struct {
	// MST is the minimum spanning tree of the candidate graph.
	MST *Graph
	// Reassembled is the tree plus randomly re-added candidate edges. After
	// connection resolution it is rebuilt from the realized connections.
	Reassembled *Graph
	// MainPath is the room id sequence between the two most distant leaves.
	MainPath []int
}

// TriangulateMainRooms triangulates the centers of the main rooms, ordered by id.
func TriangulateMainRooms(area *MapArea) *Triangulation {
	main := area.MainRooms()
	points := make([]geometry.Vec2, len(main))
	for i, r := range main {
		points[i] = r.Center()
	}
	t := Triangulate(points)
	area.Triangulation = t
	return t
}

// CandidateGraph collects every edge the layout could use: the triangle
// edges (or consecutive hull pairs for degenerate input) plus every initial
// connection, each weighted by center distance.
func CandidateGraph(area *MapArea) (*Graph, error) {
	if area.Triangulation == nil {
		return nil, ErrNoTriangulation
	}
	main := area.MainRooms()
	tri := area.Triangulation

	g := NewGraph()
	for _, r := range main {
		g.AddNode(r.ID())
	}

	roomAt := func(i int) (int, error) {
		if i < 0 || i >= len(main) {
			return 0, fmt.Errorf("%w: triangulation index %d", ErrUnknownRoom, i)
		}
		return main[i].ID(), nil
	}
	add := func(i, j int) error {
		a, err := roomAt(i)
		if err != nil {
			return err
		}
		b, err := roomAt(j)
		if err != nil {
			return err
		}
		d, err := area.distance(a, b)
		if err != nil {
			return err
		}
		g.AddEdge(a, b, d)
		return nil
	}

	if tri.IsDegenerate() {
		for _, e := range tri.HullEdges() {
			if err := add(e[0], e[1]); err != nil {
				return nil, err
			}
		}
	}
	for _, t := range tri.Triangles {
		for _, e := range [][2]int{{t[0], t[1]}, {t[1], t[2]}, {t[0], t[2]}} {
			if err := add(e[0], e[1]); err != nil {
				return nil, err
			}
		}
	}

	for _, c := range area.InitialConnections {
		d, err := area.distance(c[0], c[1])
		if err != nil {
			return nil, fmt.Errorf("initial connection %d-%d: %w", c[0], c[1], err)
		}
		g.AddEdge(c[0], c[1], d)
	}

	return g, nil
}

// FarthestLeaves returns the pair of main leaf rooms (exactly one MST edge)
// with the greatest center distance. The first pair found wins ties.
func FarthestLeaves(area *MapArea, mst *Graph) (a, b int, ok bool) {
	var leaves []int
	for _, r := range area.MainRooms() {
		if mst.Degree(r.ID()) == 1 {
			leaves = append(leaves, r.ID())
		}
	}

	best := -1.0
	for i := range leaves {
		for j := i + 1; j < len(leaves); j++ {
			d, err := area.distance(leaves[i], leaves[j])
			if err != nil {
				continue
			}
			if d > best {
				best = d
				a, b, ok = leaves[i], leaves[j], true
			}
		}
	}
	return a, b, ok
}

// Reassemble adds cycles back into the tree. The pool is the candidate graph
// minus tree edges, hull edges, every edge touching a main path room and the
// initial connections. Each pool edge is kept if one draw from rng falls
// below percentage, which is clamped to [0, 1].
func Reassemble(area *MapArea, mst, candidates *Graph, mainPath []int, percentage float64, rng *rand.Rand) *Graph {
	percentage = min(max(percentage, 0), 1)

	out := mst.Clone()
	pool := candidates.Clone()

	for _, e := range mst.Edges() {
		pool.RemoveEdge(e.A, e.B)
	}

	if area.Triangulation != nil {
		main := area.MainRooms()
		for _, e := range area.Triangulation.HullEdges() {
			if e[0] < len(main) && e[1] < len(main) {
				pool.RemoveEdge(main[e[0]].ID(), main[e[1]].ID())
			}
		}
	}

	onPath := mapset.New[int]()
	for _, n := range mainPath {
		onPath.Put(n)
	}
	onPath.Each(func(n int) {
		pool.RemoveNode(n)
	})

	for _, c := range area.InitialConnections {
		pool.RemoveEdge(c[0], c[1])
	}

	for _, e := range pool.Edges() {
		if rng.Float64() < percentage {
			out.AddEdge(e.A, e.B, e.Weight)
		}
	}
	return out
}

// BuildGraph runs the whole graph stage: candidate edges, spanning tree, main
// path and reassembly. The result is stored on the area.
func BuildGraph(area *MapArea, percentage float64, rng *rand.Rand) (*RoomGraph, error) {
	candidates, err := CandidateGraph(area)
	if err != nil {
		return nil, err
	}

	mst := candidates.MinimumSpanningTree()

	var mainPath []int
	if a, b, ok := FarthestLeaves(area, mst); ok {
		mainPath = mst.DepthFirstPath(a, b)
	}

	rg := &RoomGraph{
		MST:         mst,
		Reassembled: Reassemble(area, mst, candidates, mainPath, percentage, rng),
		MainPath:    mainPath,
	}
	area.Graph = rg

	logger.Debug("Built room graph",
		"candidates", candidates.EdgeCount(),
		"mst", mst.EdgeCount(),
		"reassembled", rg.Reassembled.EdgeCount(),
		"main_path", len(mainPath))

	return rg, nil
}

// RebuildGraph replaces the reassembled graph with one built solely from the
// realized connections.
func RebuildGraph(area *MapArea) error {
	if area.Graph == nil {
		return ErrNoGraph
	}
	if area.Connections == nil {
		return ErrNoConnections
	}

	g := NewGraph()
	for _, c := range area.Connections {
		d, err := area.distance(c.Room1, c.Room2)
		if err != nil {
			return err
		}
		g.AddEdge(c.Room1, c.Room2, d)
	}
	area.Graph.Reassembled = g
	return nil
}
