package worldgen

import (
	"github.com/spyice/room-generator/internal/geometry"
)

// Separate pushes overlapping rooms apart. Every iteration visits each
// overlapping pair once and moves both rooms away from each other along the
// line between their centers by factor grid units, rounded toward zero.
// Fixed rooms stay put. The loop stops when nothing overlaps or after
// maxIterations; residual overlap is not an error.
// Returns the number of iterations run.
func Separate(area *MapArea, factor float64, maxIterations int) int {
	rooms := area.Rooms()

	iterations := 0
	for area.HasOverlap() {
		if iterations >= maxIterations {
			break
		}

		for i := range rooms {
			for j := i + 1; j < len(rooms); j++ {
				a, b := rooms[i], rooms[j]
				if !geometry.IsOverlapping(a.Rect(), b.Rect()) {
					continue
				}

				dir := b.Center().Sub(a.Center()).NormalizeOrZero()
				if !a.PositionFixed {
					a.Move(dir.Scale(-factor).Truncate())
				}
				if !b.PositionFixed {
					b.Move(dir.Scale(factor).Truncate())
				}
			}
		}
		iterations++
	}

	return iterations
}
