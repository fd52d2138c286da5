package worldgen

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/spyice/room-generator/internal/geometry"
)

func TestCandidateGraphRequiresTriangulation(t *testing.T) {
	area := newTestArea(t, geometry.NewRect(0, 0, 10, 10))
	if _, err := CandidateGraph(area); !errors.Is(err, ErrNoTriangulation) {
		t.Errorf("expected ErrNoTriangulation, got %v", err)
	}
}

func TestCandidateGraphDegenerate(t *testing.T) {
	area := newTestArea(t,
		geometry.NewRect(0, 0, 10, 10),
		geometry.NewRect(20, 0, 10, 10),
		geometry.NewRect(40, 0, 10, 10),
	)
	area.InitialConnections = [][2]int{{0, 2}}

	TriangulateMainRooms(area)
	g, err := CandidateGraph(area)
	if err != nil {
		t.Fatalf("CandidateGraph failed: %v", err)
	}

	if g.EdgeCount() != 3 {
		t.Fatalf("expected 3 edges, got %+v", g.Edges())
	}
	for _, e := range [][2]int{{0, 1}, {1, 2}, {0, 2}} {
		if !g.HasEdge(e[0], e[1]) {
			t.Errorf("missing edge %v", e)
		}
	}
	for _, e := range g.Edges() {
		want := 20.0
		if e.A == 0 && e.B == 2 {
			want = 40
		}
		if e.Weight != want {
			t.Errorf("edge %d-%d weight = %v, want %v", e.A, e.B, e.Weight, want)
		}
	}
}

func TestCandidateGraphUnknownInitialConnection(t *testing.T) {
	area := newTestArea(t,
		geometry.NewRect(0, 0, 10, 10),
		geometry.NewRect(20, 0, 10, 10),
	)
	area.InitialConnections = [][2]int{{0, 9}}
	TriangulateMainRooms(area)

	if _, err := CandidateGraph(area); !errors.Is(err, ErrUnknownRoom) {
		t.Errorf("expected ErrUnknownRoom, got %v", err)
	}
}

func TestFarthestLeaves(t *testing.T) {
	area := newTestArea(t,
		geometry.NewRect(0, 0, 10, 10),
		geometry.NewRect(20, 0, 10, 10),
		geometry.NewRect(40, 0, 10, 10),
		geometry.NewRect(20, 30, 10, 10),
	)
	mst := NewGraph()
	mst.AddEdge(0, 1, 20)
	mst.AddEdge(1, 2, 20)
	mst.AddEdge(1, 3, 30)

	a, b, ok := FarthestLeaves(area, mst)
	if !ok || a != 0 || b != 2 {
		t.Errorf("FarthestLeaves() = %d, %d, %v; want 0, 2, true", a, b, ok)
	}

	single := NewGraph()
	single.AddNode(0)
	if _, _, ok := FarthestLeaves(area, single); ok {
		t.Error("graph without leaves should report ok=false")
	}
}

func TestReassemble(t *testing.T) {
	area := newTestArea(t,
		geometry.NewRect(0, 0, 10, 10),
		geometry.NewRect(20, 0, 10, 10),
		geometry.NewRect(40, 0, 10, 10),
		geometry.NewRect(0, 20, 10, 10),
		geometry.NewRect(20, 20, 10, 10),
	)
	area.InitialConnections = [][2]int{{0, 4}}

	mst := NewGraph()
	mst.AddEdge(0, 1, 1)
	mst.AddEdge(1, 2, 1)
	mst.AddEdge(0, 3, 1)
	mst.AddEdge(3, 4, 1)

	candidates := mst.Clone()
	candidates.AddEdge(1, 4, 2) // pool
	candidates.AddEdge(2, 4, 2) // pool
	candidates.AddEdge(0, 4, 2) // initial connection, never re-added
	candidates.AddEdge(1, 3, 2) // touches main path room 3

	mainPath := []int{3}

	tests := []struct {
		name       string
		percentage float64
		wantExtra  [][2]int
	}{
		{"none", 0, nil},
		{"negative clamps to none", -1, nil},
		{"all", 1, [][2]int{{1, 4}, {2, 4}}},
		{"above one clamps to all", 3, [][2]int{{1, 4}, {2, 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(1))
			out := Reassemble(area, mst, candidates, mainPath, tt.percentage, rng)

			if out.EdgeCount() != mst.EdgeCount()+len(tt.wantExtra) {
				t.Fatalf("got %d edges: %+v", out.EdgeCount(), out.Edges())
			}
			for _, e := range mst.Edges() {
				if !out.HasEdge(e.A, e.B) {
					t.Errorf("tree edge %d-%d was lost", e.A, e.B)
				}
			}
			for _, e := range tt.wantExtra {
				if !out.HasEdge(e[0], e[1]) {
					t.Errorf("expected extra edge %v", e)
				}
			}
		})
	}

	if mst.EdgeCount() != 4 || candidates.EdgeCount() != 8 {
		t.Error("Reassemble must not modify its inputs")
	}
}

func TestBuildGraphDeterministic(t *testing.T) {
	build := func() *RoomGraph {
		area := newTestArea(t,
			geometry.NewRect(0, 0, 10, 10),
			geometry.NewRect(30, 5, 10, 10),
			geometry.NewRect(60, -5, 10, 10),
			geometry.NewRect(10, 40, 10, 10),
			geometry.NewRect(45, 35, 10, 10),
			geometry.NewRect(80, 30, 10, 10),
		)
		TriangulateMainRooms(area)
		rg, err := BuildGraph(area, 0.5, rand.New(rand.NewSource(99)))
		if err != nil {
			t.Fatalf("BuildGraph failed: %v", err)
		}
		if area.Graph != rg {
			t.Fatal("BuildGraph should store the graph on the area")
		}
		return rg
	}

	a, b := build(), build()
	if !slices.Equal(a.Reassembled.Edges(), b.Reassembled.Edges()) {
		t.Errorf("reassembled graphs differ:\n%+v\n%+v", a.Reassembled.Edges(), b.Reassembled.Edges())
	}
	if !slices.Equal(a.MainPath, b.MainPath) {
		t.Errorf("main paths differ: %v vs %v", a.MainPath, b.MainPath)
	}
	if a.MST.EdgeCount() != 5 {
		t.Errorf("spanning tree over 6 rooms should have 5 edges, got %d", a.MST.EdgeCount())
	}
	if len(a.MainPath) < 2 {
		t.Errorf("main path should connect two leaves, got %v", a.MainPath)
	}
}

func TestRebuildGraph(t *testing.T) {
	area := newTestArea(t,
		geometry.NewRect(0, 0, 10, 10),
		geometry.NewRect(10, 0, 10, 10),
	)
	if err := RebuildGraph(area); !errors.Is(err, ErrNoGraph) {
		t.Errorf("expected ErrNoGraph, got %v", err)
	}

	area.Graph = &RoomGraph{MST: NewGraph(), Reassembled: NewGraph()}
	if err := RebuildGraph(area); !errors.Is(err, ErrNoConnections) {
		t.Errorf("expected ErrNoConnections, got %v", err)
	}

	area.Connections = []Connection{{Room1: 0, Room2: 1, Kind: KindAdjacent}}
	if err := RebuildGraph(area); err != nil {
		t.Fatalf("RebuildGraph failed: %v", err)
	}
	if !area.Graph.Reassembled.HasEdge(0, 1) || area.Graph.Reassembled.EdgeCount() != 1 {
		t.Errorf("rebuilt graph = %+v", area.Graph.Reassembled.Edges())
	}
}
