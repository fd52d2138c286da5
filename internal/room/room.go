// Package room defines the room entity: a fixed-size tile grid with an
// identity and a movable anchor on the world grid.
package room

import (
	"slices"

	"github.com/spyice/room-generator/internal/geometry"
)

// Details holds the descriptive, non-spatial part of a room.
type Details struct {
	IsMain     bool
	Type       Type
	Aesthetics []Aesthetic
}

// Room is a rectangular grid of tiles placed on the world grid.
// The grid dimensions never change after construction; only the anchor moves.
type Room struct {
	id     int
	tiles  [][]Tile // tiles[y][x]
	anchor geometry.Point

	Details       Details
	PositionFixed bool
	Visible       bool
}

// New creates a room with the given id whose grid matches dims, filled with Ground.
func New(id int, dims geometry.Rect, details Details) *Room {
	width := max(dims.Width, 0)
	height := max(dims.Height, 0)

	tiles := make([][]Tile, height)
	for y := range tiles {
		tiles[y] = make([]Tile, width)
	}

	details.Aesthetics = slices.Clone(details.Aesthetics)

	return &Room{
		id:      id,
		tiles:   tiles,
		anchor:  dims.Anchor,
		Details: details,
		Visible: true,
	}
}

// ID returns the room's unique id.
func (r *Room) ID() int {
	return r.id
}

// Width returns the number of tile columns.
func (r *Room) Width() int {
	if len(r.tiles) == 0 {
		return 0
	}
	return len(r.tiles[0])
}

// Height returns the number of tile rows.
func (r *Room) Height() int {
	return len(r.tiles)
}

// Anchor returns the bottom-left grid position.
func (r *Room) Anchor() geometry.Point {
	return r.anchor
}

// Rect returns the room's current footprint on the grid.
func (r *Room) Rect() geometry.Rect {
	return geometry.Rect{Anchor: r.anchor, Width: r.Width(), Height: r.Height()}
}

// Center returns the float center of the room in grid units.
func (r *Room) Center() geometry.Vec2 {
	return r.Rect().Center()
}

// Move offsets the anchor.
func (r *Room) Move(offset geometry.Point) {
	r.anchor = r.anchor.Add(offset)
}

// Tile returns the tile at a local position. ok is false when out of range.
func (r *Room) Tile(local geometry.Point) (tile Tile, ok bool) {
	if local.Y < 0 || local.Y >= len(r.tiles) || local.X < 0 || local.X >= len(r.tiles[local.Y]) {
		return Ground, false
	}
	return r.tiles[local.Y][local.X], true
}

// SetTile sets the tile at a local position. Returns false if the position
// does not belong to this room.
func (r *Room) SetTile(local geometry.Point, tile Tile) bool {
	if local.Y < 0 || local.Y >= len(r.tiles) || local.X < 0 || local.X >= len(r.tiles[local.Y]) {
		return false
	}
	r.tiles[local.Y][local.X] = tile
	return true
}

// FillEdges turns the outer ring of the grid into walls.
func (r *Room) FillEdges() {
	h, w := r.Height(), r.Width()
	if h == 0 || w == 0 {
		return
	}
	for x := 0; x < w; x++ {
		r.tiles[0][x] = Wall
		r.tiles[h-1][x] = Wall
	}
	for y := 0; y < h; y++ {
		r.tiles[y][0] = Wall
		r.tiles[y][w-1] = Wall
	}
}

// Area returns width*height in tiles.
func (r *Room) Area() int {
	return r.Width() * r.Height()
}

// Grid returns a copy of the tile grid, indexed [y][x].
func (r *Room) Grid() [][]Tile {
	out := make([][]Tile, len(r.tiles))
	for y, row := range r.tiles {
		out[y] = slices.Clone(row)
	}
	return out
}

// CountTiles returns how many cells hold the given tile.
func (r *Room) CountTiles(tile Tile) int {
	n := 0
	for _, row := range r.tiles {
		for _, t := range row {
			if t == tile {
				n++
			}
		}
	}
	return n
}
