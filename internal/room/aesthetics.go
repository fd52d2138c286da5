package room

import (
	"math/rand"

	"github.com/spyice/room-generator/internal/geometry"
)

// AestheticKind identifies which modifier an Aesthetic carries.
type AestheticKind int

const (
	AestheticNone AestheticKind = iota
	AestheticPillars
	AestheticCellularAutomata
)

// String returns the string representation of an AestheticKind
func (k AestheticKind) String() string {
	switch k {
	case AestheticPillars:
		return "pillars"
	case AestheticCellularAutomata:
		return "cellular_automata"
	default:
		return "none"
	}
}

// Aesthetic is a decorative modifier applied to a room's tiles after layout.
// Exactly one field is expected to be set.
//
//	aesthetics:
//	  - pillars: {amount: 3, pillar_size: 2, layout: both_axes}
//	  - cellular_automata: {iterations: 4, wall_percentage: 0.45}
type Aesthetic struct {
	Pillars          *Pillars          `yaml:"pillars,omitempty" json:"pillars,omitempty"`
	CellularAutomata *CellularAutomata `yaml:"cellular_automata,omitempty" json:"cellular_automata,omitempty"`
}

// Kind reports which modifier is set. Pillars win if both are present.
func (a Aesthetic) Kind() AestheticKind {
	switch {
	case a.Pillars != nil:
		return AestheticPillars
	case a.CellularAutomata != nil:
		return AestheticCellularAutomata
	default:
		return AestheticNone
	}
}

// Apply runs the modifier against the room. When destructive is false,
// existing walls survive the cellular automata fill.
func (a Aesthetic) Apply(r *Room, rng *rand.Rand, destructive bool) {
	switch a.Kind() {
	case AestheticPillars:
		a.Pillars.apply(r, rng)
	case AestheticCellularAutomata:
		a.CellularAutomata.apply(r, rng, destructive)
	}
}

// PillarLayout selects along which axes pillars are spread.
type PillarLayout string

const (
	PillarsAlongX   PillarLayout = "x"
	PillarsAlongY   PillarLayout = "y"
	PillarsBothAxes PillarLayout = "both_axes"
)

// Pillars places square wall clusters at evenly spaced positions.
type Pillars struct {
	Amount     int          `yaml:"amount" json:"amount"`
	PillarSize int          `yaml:"pillar_size" json:"pillar_size"`
	Layout     PillarLayout `yaml:"layout" json:"layout"`
}

func (p *Pillars) apply(r *Room, rng *rand.Rand) {
	if p.Amount <= 0 || p.PillarSize <= 0 {
		return
	}

	xs := evenlySpaced(r.Width(), p.Amount+1)
	ys := evenlySpaced(r.Height(), p.Amount+1)

	var anchors []geometry.Point
	switch p.Layout {
	case PillarsAlongX:
		for i := 0; i < p.Amount; i++ {
			anchors = append(anchors, geometry.Point{X: xs[i+1], Y: ys[rng.Intn(len(ys))]})
		}
	case PillarsAlongY:
		for i := 0; i < p.Amount; i++ {
			anchors = append(anchors, geometry.Point{X: xs[rng.Intn(len(xs))], Y: ys[i+1]})
		}
	default:
		for i := 0; i < p.Amount; i++ {
			for j := 0; j < p.Amount; j++ {
				anchors = append(anchors, geometry.Point{X: xs[i+1], Y: ys[j+1]})
			}
		}
	}

	half := p.PillarSize / 2
	for _, a := range anchors {
		for x := a.X; x < a.X+p.PillarSize; x++ {
			for y := a.Y; y < a.Y+p.PillarSize; y++ {
				r.SetTile(geometry.Point{X: max(x-half, 0), Y: max(y-half, 0)}, Wall)
			}
		}
	}
}

// evenlySpaced splits [0, length) into count points starting at 0.
func evenlySpaced(length, count int) []int {
	out := make([]int, count)
	step := float64(length) / float64(count)
	for i := range out {
		out[i] = int(float64(i) * step)
	}
	return out
}

// CellularAutomata turns a room into a cave using the classic 4-5 rule.
type CellularAutomata struct {
	Iterations     int     `yaml:"iterations" json:"iterations"`
	WallPercentage float64 `yaml:"wall_percentage" json:"wall_percentage"`
}

func (c *CellularAutomata) apply(r *Room, rng *rand.Rand, destructive bool) {
	h, w := r.Height(), r.Width()
	if h == 0 || w == 0 {
		return
	}

	grid := c.seedGrid(h, w, rng)

	if !destructive {
		for y, row := range r.tiles {
			for x, t := range row {
				if t == Wall {
					grid[y][x] = true
				}
			}
		}
	}

	for i := 0; i < c.Iterations; i++ {
		grid = c.step(grid)
	}

	for y, row := range grid {
		for x, wall := range row {
			if wall {
				r.tiles[y][x] = Wall
			} else {
				r.tiles[y][x] = Ground
			}
		}
	}
}

// seedGrid fills the border and a random share of the interior with walls.
// One random column is kept open so the cave has a corridor to grow around.
func (c *CellularAutomata) seedGrid(h, w int, rng *rand.Rand) [][]bool {
	openColumn := w / 2
	if w-4 > 4 {
		openColumn = 4 + rng.Intn(w-8)
	}

	grid := make([][]bool, h)
	for y := range grid {
		grid[y] = make([]bool, w)
		for x := range grid[y] {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				grid[y][x] = true
			} else if x != openColumn && rng.Float64() < c.WallPercentage {
				grid[y][x] = true
			}
		}
	}
	return grid
}

func (c *CellularAutomata) step(grid [][]bool) [][]bool {
	h, w := len(grid), len(grid[0])
	next := make([][]bool, h)
	for y := range next {
		next[y] = make([]bool, w)
		for x := range next[y] {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				next[y][x] = true
				continue
			}
			next[y][x] = countWalls(grid, x, y) >= 5 || countOpen(grid, x, y) <= 2
		}
	}
	return next
}

// countWalls counts walls in the 3x3 block around (x, y), center included.
func countWalls(grid [][]bool, x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if cellAt(grid, x+dx, y+dy) == cellWall {
				n++
			}
		}
	}
	return n
}

// countOpen counts open cells in the 5x5 block around (x, y) minus its corners.
func countOpen(grid [][]bool, x, y int) int {
	n := 0
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			if (dx == -2 || dx == 2) && (dy == -2 || dy == 2) {
				continue
			}
			if cellAt(grid, x+dx, y+dy) == cellOpen {
				n++
			}
		}
	}
	return n
}

type cellState int

const (
	cellOutside cellState = iota
	cellWall
	cellOpen
)

func cellAt(grid [][]bool, x, y int) cellState {
	if y < 0 || y >= len(grid) || x < 0 || x >= len(grid[y]) {
		return cellOutside
	}
	if grid[y][x] {
		return cellWall
	}
	return cellOpen
}
