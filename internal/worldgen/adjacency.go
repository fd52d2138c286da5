package worldgen

import (
	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/room"
)

// FindAdjacentTiles scans the shared border of two adjacent rooms and
// returns, per room, the local coordinates of the cells facing the other room.
func FindAdjacentTiles(area *MapArea, r1, r2 *room.Room, o geometry.Orientation) AdjacentTiles {
	a, b := r1.Rect(), r2.Rect()

	var flipped bool
	var bl, tr geometry.Rect
	var edge geometry.Point
	var start, end int

	switch o {
	case geometry.Vertical:
		flipped, bl, tr = geometry.BottomLeftFirst(a.Anchor.X < b.Anchor.X, a, b)
		edge = geometry.Point{X: bl.End().X - 1, Y: bl.Anchor.Y}
		start = max(edge.Y, tr.Anchor.Y)
		end = min(tr.End().Y, bl.End().Y)
	default:
		flipped, bl, tr = geometry.BottomLeftFirst(a.Anchor.Y < b.Anchor.Y, a, b)
		edge = geometry.Point{X: bl.Anchor.X, Y: bl.End().Y - 1}
		start = max(edge.X, tr.Anchor.X)
		end = min(tr.End().X, bl.End().X)
	}

	var tiles AdjacentTiles
	for i := start; i < end; i++ {
		var p1, p2 geometry.Point
		if o == geometry.Vertical {
			p1 = geometry.Point{X: edge.X, Y: i}
			p2 = geometry.Point{X: edge.X + 1, Y: i}
		} else {
			p1 = geometry.Point{X: i, Y: edge.Y}
			p2 = geometry.Point{X: i, Y: edge.Y + 1}
		}

		if _, ok := area.PointToRoom(p1); !ok {
			continue
		}
		if _, ok := area.PointToRoom(p2); !ok {
			continue
		}

		l1, ok := bl.GlobalToLocal(p1)
		if !ok {
			continue
		}
		l2, ok := tr.GlobalToLocal(p2)
		if !ok {
			continue
		}

		if flipped {
			l1, l2 = l2, l1
		}
		tiles.Room1 = append(tiles.Room1, l1)
		tiles.Room2 = append(tiles.Room2, l2)
	}
	return tiles
}
