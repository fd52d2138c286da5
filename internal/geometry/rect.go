// Package geometry provides the axis-aligned integer rectangle model shared by
// every stage of layout generation.
package geometry

import "math"

// Point is an integer grid coordinate.
type Point struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// Add returns p translated by o.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p - o.
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Vec2 is a float grid coordinate, used for room centers and directions.
type Vec2 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v multiplied by f.
func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{X: v.X * f, Y: v.Y * f}
}

// Length returns the Euclidean length of v.
func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// NormalizeOrZero returns the unit vector of v, or the zero vector if v has no length.
func (v Vec2) NormalizeOrZero() Vec2 {
	l := v.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Truncate converts v to grid units, rounding each axis toward zero.
func (v Vec2) Truncate() Point {
	return Point{X: int(v.X), Y: int(v.Y)}
}

// Distance returns the Euclidean distance between v and o.
func (v Vec2) Distance(o Vec2) float64 {
	return v.Sub(o).Length()
}

// Rect is anything with an integer anchor (bottom-left corner), a width
// (length along x) and a height. Rooms, hallway candidates and bounding boxes
// are all expressed as a Rect.
type Rect struct {
	Anchor Point `yaml:"anchor" json:"anchor"`
	Width  int   `yaml:"width" json:"width"`
	Height int   `yaml:"height" json:"height"`
}

// NewRect creates a Rect anchored at (x, y).
func NewRect(x, y, width, height int) Rect {
	return Rect{Anchor: Point{X: x, Y: y}, Width: width, Height: height}
}

// End returns the exclusive top-right grid corner.
func (r Rect) End() Point {
	return Point{X: r.Anchor.X + r.Width, Y: r.Anchor.Y + r.Height}
}

// Center returns the float center in grid units.
func (r Rect) Center() Vec2 {
	return Vec2{
		X: float64(r.Anchor.X) + float64(r.Width)/2,
		Y: float64(r.Anchor.Y) + float64(r.Height)/2,
	}
}

// AnchorWorld returns the anchor scaled to world units.
func (r Rect) AnchorWorld(tileSize Point) Point {
	return Point{X: r.Anchor.X * tileSize.X, Y: r.Anchor.Y * tileSize.Y}
}

// CenterWorld returns the center scaled to world units.
func (r Rect) CenterWorld(tileSize Point) Vec2 {
	c := r.Center()
	return Vec2{X: c.X * float64(tileSize.X), Y: c.Y * float64(tileSize.Y)}
}

// Area returns width*height in tiles.
func (r Rect) Area() int {
	return r.Width * r.Height
}

// AreaWorld returns the area in world units.
func (r Rect) AreaWorld(tileSize Point) int {
	return r.Width * tileSize.X * r.Height * tileSize.Y
}

// Translate returns r moved by offset.
func (r Rect) Translate(offset Point) Rect {
	r.Anchor = r.Anchor.Add(offset)
	return r
}

// LocalToGlobal converts a coordinate local to r into a grid coordinate.
func (r Rect) LocalToGlobal(local Point) Point {
	return r.Anchor.Add(local)
}

// GlobalToLocal converts a grid coordinate into a coordinate local to r.
// The second return value is false if the point lies outside r.
func (r Rect) GlobalToLocal(global Point) (Point, bool) {
	local := global.Sub(r.Anchor)
	if local.X < 0 || local.Y < 0 || local.X >= r.Width || local.Y >= r.Height {
		return Point{}, false
	}
	return local, true
}

// Contains reports whether p lies in the half-open area [anchor, end).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Anchor.X && p.X < r.Anchor.X+r.Width &&
		p.Y >= r.Anchor.Y && p.Y < r.Anchor.Y+r.Height
}

// BoundingBox returns the smallest Rect enclosing all rects.
// An empty input yields the zero Rect.
func BoundingBox(rects []Rect) Rect {
	if len(rects) == 0 {
		return Rect{}
	}
	minX, minY := rects[0].Anchor.X, rects[0].Anchor.Y
	maxX, maxY := rects[0].End().X, rects[0].End().Y
	for _, r := range rects[1:] {
		end := r.End()
		minX = min(minX, r.Anchor.X)
		minY = min(minY, r.Anchor.Y)
		maxX = max(maxX, end.X)
		maxY = max(maxY, end.Y)
	}
	return NewRect(minX, minY, maxX-minX, maxY-minY)
}
