package worldgen

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/logger"
	"github.com/spyice/room-generator/internal/room"
)

// SeparatedAlwaysBuildable makes every separated pair without rooms in
// between classify as Separated, without checking that a hallway fits.
const SeparatedAlwaysBuildable = true

// ConnectionKind classifies how two rooms relate spatially.
type ConnectionKind int

const (
	KindUnknown ConnectionKind = iota
	KindAdjacent
	KindSeparated
	KindSeparatedWithRoomsBetween
	KindSeparatedNoSolution
)

// String returns the string representation of a ConnectionKind
func (k ConnectionKind) String() string {
	switch k {
	case KindAdjacent:
		return "adjacent"
	case KindSeparated:
		return "separated"
	case KindSeparatedWithRoomsBetween:
		return "separated_with_rooms_between"
	case KindSeparatedNoSolution:
		return "separated_no_solution"
	default:
		return "unknown"
	}
}

// AdjacentTiles are the local tile coordinates along the shared border of two
// adjacent rooms. Room1[i] in the first room faces Room2[i] in the second.
type AdjacentTiles struct {
	Room1 []geometry.Point
	Room2 []geometry.Point
}

// Connection links two rooms. Tiles is set for adjacent rooms, Between for
// separated rooms with other rooms in the way.
type Connection struct {
	Room1, Room2 int
	Kind         ConnectionKind
	Orientation  geometry.Orientation
	Tiles        AdjacentTiles
	Between      []int
}

// IsAdjacent reports whether the connection is already walkable through a door.
func (c Connection) IsAdjacent() bool {
	return c.Kind == KindAdjacent
}

// AdjacentOrientation reports whether a and b share a border of at least
// minWidth tiles without a gap, and along which axis.
func AdjacentOrientation(a, b geometry.Rect, minWidth int) (geometry.Orientation, bool) {
	ox, oy := geometry.CommonEdge(a, b)
	if ox < minWidth && oy < minWidth {
		return 0, false
	}
	if ox < 0 || oy < 0 {
		return 0, false
	}
	return geometry.DoorOrientationFor(ox, oy), true
}

// RoomsBetween walks the grid line between the two room centers and returns
// the ids of other rooms it passes through, in encounter order.
func RoomsBetween(area *MapArea, r1, r2 *room.Room) []int {
	seen := mapset.New[int]()
	seen.Put(r1.ID())
	seen.Put(r2.ID())

	var ids []int
	for _, p := range geometry.Line(r1.Center().Truncate(), r2.Center().Truncate()) {
		id, ok := area.PointToRoom(p)
		if !ok || seen.Has(id) {
			continue
		}
		seen.Put(id)
		ids = append(ids, id)
	}
	return ids
}

// Classify decides how two rooms should be connected.
func Classify(area *MapArea, r1, r2 *room.Room, minWidth, maxWidth int) Connection {
	c := Connection{Room1: r1.ID(), Room2: r2.ID()}

	if o, ok := AdjacentOrientation(r1.Rect(), r2.Rect(), minWidth); ok {
		c.Kind = KindAdjacent
		c.Orientation = o
		c.Tiles = FindAdjacentTiles(area, r1, r2, o)
		return c
	}

	if between := RoomsBetween(area, r1, r2); len(between) > 0 {
		c.Kind = KindSeparatedWithRoomsBetween
		c.Between = between
		return c
	}

	if SeparatedAlwaysBuildable {
		c.Kind = KindSeparated
		return c
	}
	if _, err := PlanHallway(area, r1.ID(), r2.ID(), minWidth, maxWidth); err == nil {
		c.Kind = KindSeparated
		return c
	}

	c.Kind = KindSeparatedNoSolution
	return c
}

// Resolver turns graph edges into realized connections, synthesizing
// hallway rooms where rooms do not touch.
type Resolver struct {
	area          *MapArea
	minWidth      int
	maxWidth      int
	maxIterations int
}

// NewResolver creates a resolver. maxWidth below minWidth is raised to minWidth.
func NewResolver(area *MapArea, minWidth, maxWidth, maxIterations int) *Resolver {
	return &Resolver{
		area:          area,
		minWidth:      minWidth,
		maxWidth:      max(maxWidth, minWidth),
		maxIterations: maxIterations,
	}
}

func (rs *Resolver) classify(id1, id2 int) (Connection, error) {
	r1, ok := rs.area.Room(id1)
	if !ok {
		return Connection{}, fmt.Errorf("%w: %d", ErrUnknownRoom, id1)
	}
	r2, ok := rs.area.Room(id2)
	if !ok {
		return Connection{}, fmt.Errorf("%w: %d", ErrUnknownRoom, id2)
	}
	return Classify(rs.area, r1, r2, rs.minWidth, rs.maxWidth), nil
}

// classifyChain classifies each consecutive pair of ids.
func (rs *Resolver) classifyChain(chain []int) ([]Connection, error) {
	var out []Connection
	for i := 0; i+1 < len(chain); i++ {
		c, err := rs.classify(chain[i], chain[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Resolve classifies every edge of the reassembled graph and reduces the
// list until all connections are adjacent or the iteration cap is hit.
// Connections still not adjacent after that are dropped.
func (rs *Resolver) Resolve() ([]Connection, error) {
	if rs.area.Graph == nil || rs.area.Graph.Reassembled == nil {
		return nil, ErrNoGraph
	}

	var conns []Connection
	for _, e := range rs.area.Graph.Reassembled.Edges() {
		c, err := rs.classify(e.A, e.B)
		if err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}

	for i := 0; i < rs.maxIterations && !allAdjacent(conns); i++ {
		var err error
		conns, err = rs.reduce(conns)
		if err != nil {
			return nil, err
		}
	}

	realized := make([]Connection, 0, len(conns))
	for _, c := range conns {
		if !c.IsAdjacent() {
			logger.Warning("Dropping unresolved connection", "room1", c.Room1, "room2", c.Room2, "kind", c.Kind.String())
			continue
		}
		realized = append(realized, c)
	}

	rs.area.Connections = realized
	return realized, nil
}

func allAdjacent(conns []Connection) bool {
	for _, c := range conns {
		if !c.IsAdjacent() {
			return false
		}
	}
	return true
}

// reduce runs one pass over the connections.
func (rs *Resolver) reduce(conns []Connection) ([]Connection, error) {
	var out []Connection
	for _, c := range conns {
		switch c.Kind {
		case KindAdjacent:
			out = append(out, c)

		case KindSeparated:
			chain, err := rs.buildHallway(c)
			if err != nil {
				var herr *HallwayError
				if errors.As(err, &herr) && herr.Kind == HallwayBlocked {
					out = append(out, Connection{
						Room1:   c.Room1,
						Room2:   c.Room2,
						Kind:    KindSeparatedWithRoomsBetween,
						Between: []int{herr.Blocker},
					})
					continue
				}
				if errors.As(err, &herr) {
					logger.Debug("Hallway not possible", "room1", c.Room1, "room2", c.Room2, "error", err)
					continue
				}
				return nil, err
			}
			out = append(out, chain...)

		case KindSeparatedWithRoomsBetween:
			ids := append([]int{c.Room1}, c.Between...)
			ids = append(ids, c.Room2)
			chain, err := rs.classifyChain(ids)
			if err != nil {
				return nil, err
			}
			out = append(out, chain...)

		case KindSeparatedNoSolution:
			// dropped

		default:
			logger.Warning("Unknown connection kind while reducing connections", "room1", c.Room1, "room2", c.Room2)
		}
	}
	return out, nil
}

// buildHallway synthesizes the hallway rooms for a separated connection and
// returns the reclassified chain room1 -> hallways... -> room2.
func (rs *Resolver) buildHallway(c Connection) ([]Connection, error) {
	pieces, err := PlanHallway(rs.area, c.Room1, c.Room2, rs.minWidth, rs.maxWidth)
	if err != nil {
		return nil, err
	}

	chain := []int{c.Room1}
	for _, dims := range pieces {
		h := room.New(rs.area.NextRoomID(), dims, room.Details{})
		if err := rs.area.AddRoom(h); err != nil {
			return nil, err
		}
		chain = append(chain, h.ID())
	}
	chain = append(chain, c.Room2)

	return rs.classifyChain(chain)
}

// ResolveConnections runs a Resolver over the area.
func ResolveConnections(area *MapArea, minWidth, maxWidth, maxIterations int) ([]Connection, error) {
	return NewResolver(area, minWidth, maxWidth, maxIterations).Resolve()
}
