package geometry

// Orientation describes which way a shared border (and therefore a door) runs.
type Orientation int

const (
	// Vertical borders are | shaped: the rooms sit side by side on the x axis.
	Vertical Orientation = iota
	// Horizontal borders are _ shaped: the rooms are stacked on the y axis.
	Horizontal
)

// String returns the string representation of an Orientation
func (o Orientation) String() string {
	switch o {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	default:
		return "unknown"
	}
}

// IsOverlapping reports whether a and b share interior area.
// Rectangles that only touch along an edge do not overlap.
func IsOverlapping(a, b Rect) bool {
	aEnd, bEnd := a.End(), b.End()
	return a.Anchor.X < bEnd.X && aEnd.X > b.Anchor.X &&
		a.Anchor.Y < bEnd.Y && aEnd.Y > b.Anchor.Y
}

// LineOverlap returns the overlap of the intervals [a1,a2) and [b1,b2).
// Positive values are a shared length, negative values a gap, zero means touching.
func LineOverlap(a1, a2, b1, b2 int) int {
	return min(a2, b2) - max(a1, b1)
}

// CommonEdge returns the per-axis overlap of a and b.
//
//	[a] --- [b]  -> y holds the shared length, x is negative
//	[a]
//	     [b]     -> both negative
//
// Rooms far apart can still share an edge on one axis.
func CommonEdge(a, b Rect) (overlapX, overlapY int) {
	aEnd, bEnd := a.End(), b.End()
	overlapX = LineOverlap(a.Anchor.X, aEnd.X, b.Anchor.X, bEnd.X)
	overlapY = LineOverlap(a.Anchor.Y, aEnd.Y, b.Anchor.Y, bEnd.Y)
	return overlapX, overlapY
}

// DoorOrientationFor picks the orientation of the axis with the larger overlap.
// Ties resolve to Horizontal.
func DoorOrientationFor(overlapX, overlapY int) Orientation {
	if max(overlapX, overlapY) == overlapX {
		return Horizontal
	}
	return Vertical
}

// Distance returns the Euclidean distance between the centers of a and b.
func Distance(a, b Rect) float64 {
	return a.Center().Distance(b.Center())
}

// BottomLeftFirst orders two rects so the first one is the one for which
// lower is true. flipped reports whether the order was swapped.
func BottomLeftFirst(lower bool, a, b Rect) (flipped bool, bl, tr Rect) {
	if lower {
		return false, a, b
	}
	return true, b, a
}
