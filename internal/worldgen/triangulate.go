package worldgen

import (
	"sort"

	"github.com/fogleman/delaunay"
	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/logger"
)

// Triangulation is a Delaunay triangulation over a list of points. Triangle
// and hull entries are indices into Points.
//
// Degenerate input (fewer than three distinct points, or all points on one
// line) has no triangles; Hull then lists the points in order along the line.
type Triangulation struct {
	Points    []geometry.Vec2
	Triangles [][3]int
	Hull      []int
}

// IsDegenerate reports whether the triangulation has no triangles.
func (t *Triangulation) IsDegenerate() bool {
	return len(t.Triangles) == 0
}

// HullEdges returns consecutive hull index pairs. The hull is not closed.
func (t *Triangulation) HullEdges() [][2]int {
	var out [][2]int
	for i := 0; i+1 < len(t.Hull); i++ {
		out = append(out, [2]int{t.Hull[i], t.Hull[i+1]})
	}
	return out
}

func cross(o, a, b geometry.Vec2) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// Triangulate builds a Delaunay triangulation. Triangles are stored
// counter-clockwise; duplicate points are ignored.
func Triangulate(points []geometry.Vec2) *Triangulation {
	t := &Triangulation{Points: append([]geometry.Vec2(nil), points...)}

	unique := uniquePoints(points)
	if len(unique) < 3 || collinear(points, unique) {
		t.Hull = lineHull(points)
		return t
	}

	in := make([]delaunay.Point, len(points))
	for i, p := range points {
		in[i] = delaunay.Point{X: p.X, Y: p.Y}
	}
	d, err := delaunay.Triangulate(in)
	if err != nil || len(d.Triangles) == 0 {
		logger.Debug("Triangulation fell back to a line hull", "points", len(points), "error", err)
		t.Hull = lineHull(points)
		return t
	}

	for i := 0; i+2 < len(d.Triangles); i += 3 {
		a, b, c := d.Triangles[i], d.Triangles[i+1], d.Triangles[i+2]
		if cross(points[a], points[b], points[c]) < 0 {
			b, c = c, b
		}
		t.Triangles = append(t.Triangles, [3]int{a, b, c})
	}
	t.Hull = convexHull(points, unique)
	return t
}

func uniquePoints(points []geometry.Vec2) []int {
	seen := make(map[geometry.Vec2]bool, len(points))
	var out []int
	for i, p := range points {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, i)
	}
	return out
}

func collinear(points []geometry.Vec2, idx []int) bool {
	a, b := points[idx[0]], points[idx[1]]
	for _, i := range idx[2:] {
		if cross(a, b, points[i]) != 0 {
			return false
		}
	}
	return true
}

// convexHull returns the hull indices in counter-clockwise order using the
// monotone chain algorithm.
func convexHull(points []geometry.Vec2, idx []int) []int {
	sorted := append([]int(nil), idx...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := points[sorted[i]], points[sorted[j]]
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})

	var hull []int
	for _, i := range sorted {
		for len(hull) >= 2 && cross(points[hull[len(hull)-2]], points[hull[len(hull)-1]], points[i]) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, i)
	}
	lower := len(hull) + 1
	for k := len(sorted) - 2; k >= 0; k-- {
		i := sorted[k]
		for len(hull) >= lower && cross(points[hull[len(hull)-2]], points[hull[len(hull)-1]], points[i]) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, i)
	}
	return hull[:len(hull)-1]
}

// lineHull orders degenerate input along its line: by x offset from the
// first point, or by y offset when x does not change. Duplicates are dropped.
func lineHull(points []geometry.Vec2) []int {
	if len(points) == 0 {
		return nil
	}
	origin := points[0]
	dist := make([]float64, len(points))
	order := make([]int, len(points))
	for i, p := range points {
		d := p.X - origin.X
		if d == 0 {
			d = p.Y - origin.Y
		}
		dist[i] = d
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dist[order[a]] < dist[order[b]]
	})

	hull := []int{order[0]}
	last := dist[order[0]]
	for _, i := range order[1:] {
		if dist[i] > last {
			hull = append(hull, i)
			last = dist[i]
		}
	}
	return hull
}
