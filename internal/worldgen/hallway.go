package worldgen

import (
	"fmt"

	"github.com/spyice/room-generator/internal/geometry"
)

// ClampStraightHallwayWidth limits straight hallways to the maximum passage
// width. When false a straight hallway spans the full shared overlap.
const ClampStraightHallwayWidth = false

// HallwayErrorKind tells why a hallway could not be planned.
type HallwayErrorKind int

const (
	HallwayUnknown HallwayErrorKind = iota
	HallwayOverlapNotEnough
	HallwayBlocked
)

// HallwayError is returned by PlanHallway.
type HallwayError struct {
	Kind         HallwayErrorKind
	Room1, Room2 int
	// Blocker is the first room an L-shaped hallway ran into.
	Blocker int
}

func (e *HallwayError) Error() string {
	switch e.Kind {
	case HallwayBlocked:
		return fmt.Sprintf("hallway between rooms %d and %d is blocked by room %d", e.Room1, e.Room2, e.Blocker)
	case HallwayOverlapNotEnough:
		return fmt.Sprintf("rooms %d and %d do not overlap enough for a hallway", e.Room1, e.Room2)
	default:
		return fmt.Sprintf("cannot build hallway between rooms %d and %d", e.Room1, e.Room2)
	}
}

// LShape is the route of a two-leg hallway.
type LShape int

const (
	RightUp LShape = iota
	UpRight
	LeftUp
	UpLeft
)

// PlanHallway returns the rects of the hallway pieces connecting two rooms,
// ordered from id1 to id2. A straight hallway is a single piece; an L-shaped
// one is a leg, a square corner and a second leg. L-shapes must not overlap
// any room other than the two endpoints.
func PlanHallway(area *MapArea, id1, id2, minWidth, maxWidth int) ([]geometry.Rect, error) {
	r1, ok := area.Room(id1)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRoom, id1)
	}
	r2, ok := area.Room(id2)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRoom, id2)
	}
	a, b := r1.Rect(), r2.Rect()
	maxWidth = max(maxWidth, minWidth)

	ox, oy := geometry.CommonEdge(a, b)
	overlap := max(ox, oy)
	if overlap >= minWidth {
		return []geometry.Rect{StraightHallway(a, b, overlap, maxWidth, geometry.DoorOrientationFor(ox, oy))}, nil
	}

	flipped, left, right := geometry.BottomLeftFirst(a.Anchor.X < b.Anchor.X, a, b)

	// Left below right: go up then right, or right then up.
	// Otherwise: up then left, or left then up.
	shapes := []LShape{UpLeft, LeftUp}
	if left.Anchor.Y < right.Anchor.Y {
		shapes = []LShape{UpRight, RightUp}
	}

	var first *HallwayError
	for _, shape := range shapes {
		pieces := LShapedHallway(left, right, maxWidth, shape)
		if flipped {
			pieces[0], pieces[2] = pieces[2], pieces[0]
		}

		blocker, blocked := firstBlocker(area, pieces, id1, id2)
		if !blocked {
			return pieces, nil
		}
		if first == nil {
			first = &HallwayError{Kind: HallwayBlocked, Room1: id1, Room2: id2, Blocker: blocker}
		}
	}

	if first != nil {
		return nil, first
	}
	return nil, &HallwayError{Kind: HallwayOverlapNotEnough, Room1: id1, Room2: id2}
}

// firstBlocker returns the first room, by piece then ascending id, that
// overlaps one of the pieces. The endpoints are ignored.
func firstBlocker(area *MapArea, pieces []geometry.Rect, id1, id2 int) (int, bool) {
	for _, p := range pieces {
		for _, r := range area.Rooms() {
			if r.ID() == id1 || r.ID() == id2 {
				continue
			}
			if geometry.IsOverlapping(p, r.Rect()) {
				return r.ID(), true
			}
		}
	}
	return 0, false
}

// StraightHallway spans the gap between a and b along the given orientation.
// It starts at the far edge of the lower (or left) room and is as wide as
// the overlap.
func StraightHallway(a, b geometry.Rect, overlap, maxWidth int, o geometry.Orientation) geometry.Rect {
	width := overlap
	if ClampStraightHallwayWidth {
		width = min(overlap, maxWidth)
	}

	switch o {
	case geometry.Vertical:
		_, bl, tr := geometry.BottomLeftFirst(a.Anchor.X < b.Anchor.X, a, b)
		anchor := geometry.Point{X: bl.End().X, Y: max(bl.Anchor.Y, tr.Anchor.Y)}
		length := max(tr.Anchor.X-bl.End().X, 1)
		return geometry.Rect{Anchor: anchor, Width: length, Height: width}
	default:
		_, bl, tr := geometry.BottomLeftFirst(a.Anchor.Y < b.Anchor.Y, a, b)
		anchor := geometry.Point{X: max(bl.Anchor.X, tr.Anchor.X), Y: bl.End().Y}
		length := max(tr.Anchor.Y-bl.End().Y, 1)
		return geometry.Rect{Anchor: anchor, Width: width, Height: length}
	}
}

// LShapedHallway builds leg, corner and leg from left to right. The corner
// is a width x width square; its placement depends on the shape.
func LShapedHallway(left, right geometry.Rect, width int, shape LShape) []geometry.Rect {
	half := float64(width) / 2
	lc, rc := left.Center(), right.Center()

	var corner geometry.Point
	var o1, o2 geometry.Orientation
	switch shape {
	case RightUp, UpLeft:
		corner = geometry.Point{X: int(rc.X - half), Y: int(lc.Y - half)}
		o1, o2 = geometry.Vertical, geometry.Horizontal
	default:
		corner = geometry.Point{X: int(lc.X - half), Y: int(rc.Y - half)}
		o1, o2 = geometry.Horizontal, geometry.Vertical
	}

	middle := geometry.Rect{Anchor: corner, Width: width, Height: width}
	return []geometry.Rect{
		StraightHallway(left, middle, width, width, o1),
		middle,
		StraightHallway(middle, right, width, width, o2),
	}
}
