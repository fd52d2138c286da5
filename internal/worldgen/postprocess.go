package worldgen

import (
	"math/rand"

	"codeberg.org/anaseto/gruid"
	"codeberg.org/anaseto/gruid/paths"
	"github.com/zyedidia/generic/mapset"

	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/logger"
	"github.com/spyice/room-generator/internal/room"
)

// Path search costs per tile.
const (
	groundCost = 1
	wallCost   = 100
)

// StripUnconnected hides every room that takes part in no connection.
// Rooms are hidden, not deleted.
func StripUnconnected(area *MapArea) int {
	connected := mapset.New[int]()
	for _, c := range area.Connections {
		connected.Put(c.Room1)
		connected.Put(c.Room2)
	}

	hidden := 0
	for _, r := range area.Rooms() {
		if !connected.Has(r.ID()) {
			r.Visible = false
			hidden++
		}
	}
	return hidden
}

// OuterWalls turns the border ring of every room into walls.
func OuterWalls(area *MapArea) {
	for _, r := range area.Rooms() {
		r.FillEdges()
	}
}

// Aesthetize applies each room's aesthetic modifiers in id order.
func Aesthetize(area *MapArea, rng *rand.Rand, destructive bool) {
	for _, r := range area.Rooms() {
		for _, a := range r.Details.Aesthetics {
			a.Apply(r, rng, destructive)
		}
	}
}

// CarveDoors opens the shared border of every adjacent connection. The two
// end tiles of each side are kept as walls and at most maxWidth tiles are
// opened.
func CarveDoors(area *MapArea, maxWidth int) error {
	if area.Connections == nil {
		return ErrNoConnections
	}

	for _, c := range area.Connections {
		if !c.IsAdjacent() {
			continue
		}
		for _, side := range []struct {
			id    int
			tiles []geometry.Point
		}{
			{c.Room1, c.Tiles.Room1},
			{c.Room2, c.Tiles.Room2},
		} {
			r, ok := area.Room(side.id)
			if !ok {
				continue
			}
			for _, p := range doorTiles(side.tiles, maxWidth) {
				r.SetTile(p, room.Ground)
			}
		}
	}
	return nil
}

// doorTiles drops the first and last tile, then trims from the end down to
// maxWidth tiles.
func doorTiles(tiles []geometry.Point, maxWidth int) []geometry.Point {
	if len(tiles) < 2 {
		return nil
	}
	inner := tiles[1 : len(tiles)-1]
	if len(inner) > maxWidth {
		inner = inner[:max(maxWidth, 0)]
	}
	return inner
}

// carver is the A* search space of the path carver: grid cells inside any
// room, shifted so the map bounds start at the origin.
type carver struct {
	area   *MapArea
	origin geometry.Point
	nbs    paths.Neighbors
}

func (c *carver) toGrid(p geometry.Point) gruid.Point {
	return gruid.Point{X: p.X - c.origin.X, Y: p.Y - c.origin.Y}
}

func (c *carver) toWorld(p gruid.Point) geometry.Point {
	return geometry.Point{X: p.X + c.origin.X, Y: p.Y + c.origin.Y}
}

func (c *carver) inRoom(p gruid.Point) bool {
	_, ok := c.area.PointToRoom(c.toWorld(p))
	return ok
}

func (c *carver) Neighbors(p gruid.Point) []gruid.Point {
	return c.nbs.Cardinal(p, c.inRoom)
}

func (c *carver) Cost(_, to gruid.Point) int {
	w := c.toWorld(to)
	id, ok := c.area.PointToRoom(w)
	if !ok {
		return wallCost
	}
	r, _ := c.area.Room(id)
	local, _ := r.Rect().GlobalToLocal(w)
	if t, _ := r.Tile(local); t == room.Wall {
		return wallCost
	}
	return groundCost
}

// Estimation is the squared Euclidean distance. It is not admissible for
// these costs, so found paths are not guaranteed to be the cheapest.
func (c *carver) Estimation(p, q gruid.Point) int {
	d := q.Sub(p)
	return d.X*d.X + d.Y*d.Y
}

// CarvePaths makes every edge of the reassembled graph walkable. For each
// edge a cost-weighted path is searched between the room centers and a
// square of ground about minWidth wide is carved around every path tile.
// If any search fails the remaining edges are skipped.
// Returns the number of carved edges.
func CarvePaths(area *MapArea, minWidth int) (int, error) {
	if area.Graph == nil || area.Graph.Reassembled == nil {
		return 0, ErrNoGraph
	}
	if area.Len() == 0 {
		return 0, nil
	}

	bounds := area.Bounds()
	c := &carver{area: area, origin: bounds.Anchor}
	pr := paths.NewPathRange(gruid.NewRange(0, 0, bounds.Width, bounds.Height))
	half := minWidth / 2

	carved := 0
	for _, e := range area.Graph.Reassembled.Edges() {
		r1, ok1 := area.Room(e.A)
		r2, ok2 := area.Room(e.B)
		if !ok1 || !ok2 {
			continue
		}

		from := c.toGrid(r1.Center().Truncate())
		to := c.toGrid(r2.Center().Truncate())
		path := pr.AstarPath(c, from, to)
		if path == nil {
			logger.Warning("No path between rooms, skipping remaining carve passes", "room1", e.A, "room2", e.B)
			return carved, nil
		}

		for _, gp := range path {
			p := c.toWorld(gp)
			id, ok := area.PointToRoom(p)
			if !ok {
				continue
			}
			r, _ := area.Room(id)
			local, _ := r.Rect().GlobalToLocal(p)
			for x := max(local.X-half, 0); x <= local.X+half; x++ {
				for y := max(local.Y-half, 0); y <= local.Y+half; y++ {
					r.SetTile(geometry.Point{X: x, Y: y}, room.Ground)
				}
			}
		}
		carved++
	}
	return carved, nil
}
