// Package export serializes generated maps. A Snapshot is a self-contained,
// read-only copy of a MapArea that can be written as YAML or JSON and read
// back without running the generator.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/room"
	"github.com/spyice/room-generator/internal/worldgen"
)

var ErrMalformedTiles = errors.New("export: tile rows do not match room size")

// Snapshot represents a serialized map
type Snapshot struct {
	Seed        int64            `yaml:"seed" json:"seed"`
	SavedAt     time.Time        `yaml:"saved_at" json:"saved_at"`
	TileSize    geometry.Point   `yaml:"tile_size" json:"tile_size"`
	Bounds      geometry.Rect    `yaml:"bounds" json:"bounds"`
	MainPath    []int            `yaml:"main_path,omitempty" json:"main_path,omitempty"`
	Rooms       []RoomData       `yaml:"rooms" json:"rooms"`
	Connections []ConnectionData `yaml:"connections" json:"connections"`
}

// RoomData represents a serialized room. Tiles holds one string per row,
// row 0 first, using '#' for walls and '.' for ground. The world fields are
// the grid values scaled by the snapshot tile size.
type RoomData struct {
	ID          int            `yaml:"id" json:"id"`
	Anchor      geometry.Point `yaml:"anchor" json:"anchor"`
	Width       int            `yaml:"width" json:"width"`
	Height      int            `yaml:"height" json:"height"`
	AnchorWorld geometry.Point `yaml:"anchor_world" json:"anchor_world"`
	CenterWorld geometry.Vec2  `yaml:"center_world" json:"center_world"`
	AreaWorld   int            `yaml:"area_world" json:"area_world"`
	IsMain      bool           `yaml:"is_main" json:"is_main"`
	Visible     bool           `yaml:"visible" json:"visible"`
	Type        string         `yaml:"type" json:"type"`
	Tiles       []string       `yaml:"tiles" json:"tiles"`
}

// ConnectionData represents a serialized connection
type ConnectionData struct {
	Room1       int    `yaml:"room1" json:"room1"`
	Room2       int    `yaml:"room2" json:"room2"`
	Kind        string `yaml:"kind" json:"kind"`
	Orientation string `yaml:"orientation" json:"orientation"`
}

// FromMapArea copies a generated map into a Snapshot. Hidden rooms are kept
// with Visible set to false.
func FromMapArea(area *worldgen.MapArea, seed int64, tileSize geometry.Point) *Snapshot {
	snap := &Snapshot{
		Seed:        seed,
		SavedAt:     time.Now().UTC(),
		TileSize:    tileSize,
		Bounds:      area.Bounds(),
		Rooms:       make([]RoomData, 0, area.Len()),
		Connections: make([]ConnectionData, 0, len(area.Connections)),
	}
	if area.Graph != nil {
		snap.MainPath = append([]int(nil), area.Graph.MainPath...)
	}

	for _, r := range area.Rooms() {
		snap.Rooms = append(snap.Rooms, serializeRoom(r))
	}
	for _, c := range area.Connections {
		snap.Connections = append(snap.Connections, ConnectionData{
			Room1:       c.Room1,
			Room2:       c.Room2,
			Kind:        c.Kind.String(),
			Orientation: c.Orientation.String(),
		})
	}
	snap.FillWorld()
	return snap
}

// FillWorld derives the world-space fields of every room from its grid rect
// and the tile size.
func (s *Snapshot) FillWorld() {
	for i := range s.Rooms {
		rect := s.Rooms[i].Rect()
		s.Rooms[i].AnchorWorld = rect.AnchorWorld(s.TileSize)
		s.Rooms[i].CenterWorld = rect.CenterWorld(s.TileSize)
		s.Rooms[i].AreaWorld = rect.AreaWorld(s.TileSize)
	}
}

func serializeRoom(r *room.Room) RoomData {
	grid := r.Grid()
	rows := make([]string, len(grid))
	for y, row := range grid {
		var sb strings.Builder
		for _, t := range row {
			sb.WriteRune(t.Rune())
		}
		rows[y] = sb.String()
	}
	return RoomData{
		ID:      r.ID(),
		Anchor:  r.Anchor(),
		Width:   r.Width(),
		Height:  r.Height(),
		IsMain:  r.Details.IsMain,
		Visible: r.Visible,
		Type:    r.Details.Type.String(),
		Tiles:   rows,
	}
}

// Rect returns the room's area on the grid.
func (r RoomData) Rect() geometry.Rect {
	return geometry.Rect{Anchor: r.Anchor, Width: r.Width, Height: r.Height}
}

// Tile decodes the tile at a local coordinate.
func (r RoomData) Tile(x, y int) (room.Tile, bool) {
	if y < 0 || y >= len(r.Tiles) || x < 0 || x >= len(r.Tiles[y]) {
		return room.Ground, false
	}
	if r.Tiles[y][x] == byte(room.Wall.Rune()) {
		return room.Wall, true
	}
	return room.Ground, true
}

// Validate checks that every room's tile rows match its size.
func (s *Snapshot) Validate() error {
	for _, r := range s.Rooms {
		if len(r.Tiles) != r.Height {
			return fmt.Errorf("%w: room %d has %d rows, want %d", ErrMalformedTiles, r.ID, len(r.Tiles), r.Height)
		}
		for y, row := range r.Tiles {
			if len(row) != r.Width {
				return fmt.Errorf("%w: room %d row %d has %d tiles, want %d", ErrMalformedTiles, r.ID, y, len(row), r.Width)
			}
		}
	}
	return nil
}

// Room returns the room with the given id.
func (s *Snapshot) Room(id int) (RoomData, bool) {
	for _, r := range s.Rooms {
		if r.ID == id {
			return r, true
		}
	}
	return RoomData{}, false
}

// VisibleRooms returns the number of rooms that were not hidden.
func (s *Snapshot) VisibleRooms() int {
	n := 0
	for _, r := range s.Rooms {
		if r.Visible {
			n++
		}
	}
	return n
}

// isJSON picks the format from the file extension. Everything that is not
// .json is YAML.
func isJSON(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".json")
}

// Save writes the snapshot to a YAML or JSON file.
func Save(snap *Snapshot, filename string) error {
	var data []byte
	var err error
	if isJSON(filename) {
		data, err = json.MarshalIndent(snap, "", "  ")
	} else {
		data, err = yaml.Marshal(snap)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Save.
func Load(filename string) (*Snapshot, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap Snapshot
	if isJSON(filename) {
		err = json.Unmarshal(data, &snap)
	} else {
		err = yaml.Unmarshal(data, &snap)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	snap.FillWorld()
	return &snap, nil
}
