package export

import (
	"slices"
)

// Glyphs used by Render.
const (
	GlyphEmpty  = ' '
	GlyphWall   = '#'
	GlyphGround = '.'
)

// Render draws every visible room onto one character grid covering Bounds.
// The first line is the top of the map (highest y). Rooms are painted in id
// order, so a later room wins where two overlap.
func (s *Snapshot) Render() []string {
	b := s.Bounds
	if b.Width <= 0 || b.Height <= 0 {
		return nil
	}

	canvas := make([][]rune, b.Height)
	for i := range canvas {
		canvas[i] = slices.Repeat([]rune{GlyphEmpty}, b.Width)
	}

	for _, r := range s.Rooms {
		if !r.Visible {
			continue
		}
		for y := 0; y < r.Height; y++ {
			for x := 0; x < r.Width; x++ {
				tile, ok := r.Tile(x, y)
				if !ok {
					continue
				}
				gx := r.Anchor.X + x - b.Anchor.X
				gy := r.Anchor.Y + y - b.Anchor.Y
				if gx < 0 || gx >= b.Width || gy < 0 || gy >= b.Height {
					continue
				}
				canvas[b.Height-1-gy][gx] = tile.Rune()
			}
		}
	}

	lines := make([]string, len(canvas))
	for i, row := range canvas {
		lines[i] = string(row)
	}
	return lines
}

// Unreachable returns the visible rooms that cannot be reached from the
// first visible room over the recorded connections, in id order.
func (s *Snapshot) Unreachable() []int {
	adj := make(map[int][]int)
	for _, c := range s.Connections {
		adj[c.Room1] = append(adj[c.Room1], c.Room2)
		adj[c.Room2] = append(adj[c.Room2], c.Room1)
	}

	var ids []int
	for _, r := range s.Rooms {
		if r.Visible {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	slices.Sort(ids)

	visited := map[int]bool{ids[0]: true}
	queue := []int{ids[0]}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adj[current] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	var out []int
	for _, id := range ids {
		if !visited[id] {
			out = append(out, id)
		}
	}
	return out
}
