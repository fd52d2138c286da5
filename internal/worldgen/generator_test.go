package worldgen

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/spyice/room-generator/internal/config"
	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/preset"
	"github.com/spyice/room-generator/internal/room"
)

func fixedRoom(name string, x, y, w, h int) preset.RoomTemplate {
	return preset.RoomTemplate{
		Name:     name,
		Size:     preset.SizeSpec{Kind: preset.SizeFixed, Width: w, Height: h},
		Position: preset.PositionSpec{Kind: preset.PositionFixed, X: x, Y: y},
	}
}

func pairRepository() *preset.Repository {
	pair := &preset.Preset{
		Name: "pair",
		Rooms: []preset.RoomTemplate{
			fixedRoom("west", 0, 0, 10, 10),
			fixedRoom("east", 20, 0, 10, 10),
		},
		Connections: []preset.Connection{{Room1: "west", Room2: "east"}},
	}
	return preset.NewRepository(preset.Index{Normal: []string{"pair"}}, pair)
}

func tileAt(t *testing.T, area *MapArea, id, x, y int) room.Tile {
	t.Helper()
	r, ok := area.Room(id)
	if !ok {
		t.Fatalf("room %d missing", id)
	}
	tile, ok := r.Tile(geometry.Point{X: x, Y: y})
	if !ok {
		t.Fatalf("room %d has no tile at (%d,%d)", id, x, y)
	}
	return tile
}

func TestGeneratePair(t *testing.T) {
	cfg := config.DefaultWorldgenConfig()
	cfg.PresetsToSpawn = 1
	cfg.SpawnRange = 0

	area, stats, err := NewGenerator(cfg, pairRepository()).Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if area.Len() != 3 || stats.Rooms != 3 {
		t.Fatalf("expected 3 rooms, got %d", area.Len())
	}
	hall, _ := area.Room(2)
	if hall.Rect() != geometry.NewRect(10, 0, 10, 10) {
		t.Errorf("hallway = %+v, want (10,0) 10x10", hall.Rect())
	}
	if hall.Details.IsMain {
		t.Error("hallway should not be a main room")
	}

	want := [][2]int{{0, 2}, {2, 1}}
	if len(area.Connections) != len(want) {
		t.Fatalf("got %d connections, want %d", len(area.Connections), len(want))
	}
	for i, c := range area.Connections {
		if !c.IsAdjacent() || c.Room1 != want[i][0] || c.Room2 != want[i][1] {
			t.Errorf("connection %d = %d-%d (%v)", i, c.Room1, c.Room2, c.Kind)
		}
	}
	if stats.CarvedPaths != 2 {
		t.Errorf("carved paths = %d, want 2", stats.CarvedPaths)
	}
	if stats.HiddenRooms != 0 {
		t.Errorf("hidden rooms = %d, want 0", stats.HiddenRooms)
	}

	for y := 1; y <= 8; y++ {
		if tileAt(t, area, 0, 9, y) != room.Ground {
			t.Errorf("room 0 door tile (9,%d) should be ground", y)
		}
	}
	for _, y := range []int{0, 9} {
		if tileAt(t, area, 0, 9, y) != room.Wall {
			t.Errorf("room 0 (9,%d) should stay wall", y)
		}
	}
	if tileAt(t, area, 2, 0, 5) != room.Ground || tileAt(t, area, 2, 9, 5) != room.Ground {
		t.Error("hallway should be open on both ends")
	}
	if tileAt(t, area, 1, 0, 5) != room.Ground {
		t.Error("room 1 door tile should be ground")
	}
	if tileAt(t, area, 1, 9, 5) != room.Wall {
		t.Error("room 1 far wall should stay closed")
	}

	// The rebuilt graph follows the realized connections.
	if !area.Graph.Reassembled.HasEdge(0, 2) || area.Graph.Reassembled.HasEdge(0, 1) {
		t.Errorf("rebuilt graph = %+v", area.Graph.Reassembled.Edges())
	}
}

func TestGenerateDeterministic(t *testing.T) {
	varied := &preset.Preset{
		Name: "varied",
		Rooms: []preset.RoomTemplate{
			{
				Name: "hall",
				Size: preset.SizeSpec{Kind: preset.SizeRange, MinWidth: 8, MaxWidth: 16, MinHeight: 8, MaxHeight: 16},
			},
			{
				Name:       "cave",
				Size:       preset.SizeSpec{Kind: preset.SizeFixed, Width: 14, Height: 14},
				Position:   preset.PositionSpec{Kind: preset.PositionFixed, X: 20, Y: 5},
				Aesthetics: []room.Aesthetic{{CellularAutomata: &room.CellularAutomata{WallPercentage: 0.4, Iterations: 2}}},
			},
		},
		Connections: []preset.Connection{{Room1: "hall", Room2: "cave"}},
	}
	repo := preset.NewRepository(preset.Index{Normal: []string{"varied"}}, varied)

	cfg := config.DefaultWorldgenConfig()
	cfg.PresetsToSpawn = 4
	cfg.SpawnRange = 40

	a, statsA, err := Generate(cfg, rand.New(rand.NewSource(12)), repo)
	if err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}
	b, statsB, err := Generate(cfg, rand.New(rand.NewSource(12)), repo)
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}

	if statsA != statsB {
		t.Errorf("stats differ: %+v vs %+v", statsA, statsB)
	}
	if a.Len() != b.Len() {
		t.Fatalf("room counts differ: %d vs %d", a.Len(), b.Len())
	}
	roomsB := b.Rooms()
	for i, ra := range a.Rooms() {
		rb := roomsB[i]
		if ra.ID() != rb.ID() || ra.Rect() != rb.Rect() || ra.Visible != rb.Visible {
			t.Errorf("room %d differs: %+v vs %+v", ra.ID(), ra.Rect(), rb.Rect())
			continue
		}
		if ra.CountTiles(room.Wall) != rb.CountTiles(room.Wall) {
			t.Errorf("room %d tiles differ", ra.ID())
		}
	}
	if len(a.Connections) != len(b.Connections) {
		t.Fatalf("connection counts differ")
	}
	for i := range a.Connections {
		if a.Connections[i].Room1 != b.Connections[i].Room1 || a.Connections[i].Room2 != b.Connections[i].Room2 {
			t.Errorf("connection %d differs", i)
		}
	}
}

func TestGenerateWithSeedOverridesConfig(t *testing.T) {
	cfg := config.DefaultWorldgenConfig()
	cfg.PresetsToSpawn = 1
	cfg.SpawnRange = 0

	gen := NewGenerator(cfg, pairRepository())
	_, stats, err := gen.GenerateWithSeed(7)
	if err != nil {
		t.Fatalf("GenerateWithSeed failed: %v", err)
	}
	if stats.Seed != 7 {
		t.Errorf("stats seed = %d, want 7", stats.Seed)
	}
	if gen.Config().Seed != cfg.Seed {
		t.Error("GenerateWithSeed must not change the stored config")
	}
}

func TestGenerateNoPresets(t *testing.T) {
	cfg := config.DefaultWorldgenConfig()
	cfg.PresetsToSpawn = 1

	_, _, err := NewGenerator(cfg, preset.NewRepository(preset.Index{})).Generate()
	if !errors.Is(err, preset.ErrNoPresets) {
		t.Errorf("expected ErrNoPresets, got %v", err)
	}
}

func TestPlaceRoomsRemapsConnections(t *testing.T) {
	area := NewMapArea()
	area.AddRoom(room.New(4, geometry.NewRect(-100, -100, 5, 5), room.Details{}))

	if err := PlaceRooms(area, pairRepository(), 2, 0, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("PlaceRooms failed: %v", err)
	}

	if area.Len() != 5 {
		t.Fatalf("expected 5 rooms, got %d", area.Len())
	}
	want := [][2]int{{5, 6}, {7, 8}}
	for i, c := range area.InitialConnections {
		if c != want[i] {
			t.Errorf("initial connection %d = %v, want %v", i, c, want[i])
		}
	}
	r, _ := area.Room(8)
	if r.Rect() != geometry.NewRect(20, 0, 10, 10) {
		t.Errorf("room 8 = %+v", r.Rect())
	}
}

func TestDetermineMainRooms(t *testing.T) {
	area := NewMapArea()
	area.AddRoom(room.New(0, geometry.NewRect(0, 0, 2, 2), room.Details{}))
	area.AddRoom(room.New(1, geometry.NewRect(5, 0, 20, 20), room.Details{}))

	DetermineMainRooms(area, 1.25)

	if len(area.MainRooms()) != 2 {
		t.Errorf("every room should be main, got %d", len(area.MainRooms()))
	}
}
