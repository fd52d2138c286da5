// Package worldgen turns presets into a connected dungeon layout: rooms are
// placed, pushed apart, linked through a spanning graph, joined by hallways
// and finally carved so every connection can be walked.
package worldgen

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/room"
)

var (
	ErrNoGraph         = errors.New("worldgen: cannot resolve connections without a graph")
	ErrNoTriangulation = errors.New("worldgen: cannot build a graph without a triangulation")
	ErrNoConnections   = errors.New("worldgen: no realized connections")
	ErrUnknownRoom     = errors.New("worldgen: unknown room id")
	ErrDuplicateRoom   = errors.New("worldgen: duplicate room id")
)

// MapArea is the aggregate produced by one regeneration. It is built from
// scratch every time and never updated incrementally.
type MapArea struct {
	rooms map[int]*room.Room
	ids   []int // ascending

	// InitialConnections are room id pairs declared by presets.
	InitialConnections [][2]int

	Triangulation *Triangulation
	Graph         *RoomGraph

	// Connections is nil until connection resolution has run.
	Connections []Connection
}

// NewMapArea creates an empty map.
func NewMapArea() *MapArea {
	return &MapArea{rooms: make(map[int]*room.Room)}
}

// AddRoom inserts a room. Ids must be unique.
func (a *MapArea) AddRoom(r *room.Room) error {
	if _, exists := a.rooms[r.ID()]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateRoom, r.ID())
	}
	a.rooms[r.ID()] = r
	i, _ := slices.BinarySearch(a.ids, r.ID())
	a.ids = slices.Insert(a.ids, i, r.ID())
	return nil
}

// Room looks up a room by id.
func (a *MapArea) Room(id int) (*room.Room, bool) {
	r, ok := a.rooms[id]
	return r, ok
}

// Rooms returns every room sorted by id.
func (a *MapArea) Rooms() []*room.Room {
	out := make([]*room.Room, 0, len(a.ids))
	for _, id := range a.ids {
		out = append(out, a.rooms[id])
	}
	return out
}

// VisibleRooms returns the rooms that were not hidden, sorted by id.
func (a *MapArea) VisibleRooms() []*room.Room {
	var out []*room.Room
	for _, id := range a.ids {
		if r := a.rooms[id]; r.Visible {
			out = append(out, r)
		}
	}
	return out
}

// MainRooms returns the main rooms sorted by id.
func (a *MapArea) MainRooms() []*room.Room {
	var out []*room.Room
	for _, id := range a.ids {
		if r := a.rooms[id]; r.Details.IsMain {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of rooms.
func (a *MapArea) Len() int {
	return len(a.ids)
}

// NextRoomID returns an id that is not yet in use.
func (a *MapArea) NextRoomID() int {
	if len(a.ids) == 0 {
		return 0
	}
	return a.ids[len(a.ids)-1] + 1
}

// PointToRoom returns the id of the first room, by ascending id, whose area
// contains p.
func (a *MapArea) PointToRoom(p geometry.Point) (int, bool) {
	for _, id := range a.ids {
		if a.rooms[id].Rect().Contains(p) {
			return id, true
		}
	}
	return 0, false
}

// Bounds returns the bounding box of every room.
func (a *MapArea) Bounds() geometry.Rect {
	rects := make([]geometry.Rect, 0, len(a.ids))
	for _, id := range a.ids {
		rects = append(rects, a.rooms[id].Rect())
	}
	return geometry.BoundingBox(rects)
}

// HasOverlap reports whether any two rooms overlap.
func (a *MapArea) HasOverlap() bool {
	rooms := a.Rooms()
	for i := range rooms {
		for j := i + 1; j < len(rooms); j++ {
			if geometry.IsOverlapping(rooms[i].Rect(), rooms[j].Rect()) {
				return true
			}
		}
	}
	return false
}

// distance returns the center distance between two rooms.
func (a *MapArea) distance(id1, id2 int) (float64, error) {
	r1, ok := a.rooms[id1]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownRoom, id1)
	}
	r2, ok := a.rooms[id2]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownRoom, id2)
	}
	return geometry.Distance(r1.Rect(), r2.Rect()), nil
}
