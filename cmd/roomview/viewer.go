package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/spyice/room-generator/internal/config"
	"github.com/spyice/room-generator/internal/export"
	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/logger"
	"github.com/spyice/room-generator/internal/worldgen"
)

const panStep = 4

// mapSource produces maps for a seed.
type mapSource interface {
	GenerateWithSeed(seed int64) (*worldgen.MapArea, worldgen.Stats, error)
	Config() config.WorldgenConfig
}

var (
	wallStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	groundStyle = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
	errorStyle  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorRed)
)

// viewer shows one map at a time. Every regeneration is a fresh pipeline run;
// a failed one leaves the previous map on screen.
type viewer struct {
	screen tcell.Screen
	source mapSource

	seed   int64
	snap   *export.Snapshot
	stats  worldgen.Stats
	lines  []string
	offset geometry.Point
	err    error
}

func newViewer(screen tcell.Screen, source mapSource) *viewer {
	return &viewer{screen: screen, source: source}
}

// regenerate builds the map for seed and centers it on screen.
func (v *viewer) regenerate(seed int64) {
	area, stats, err := v.source.GenerateWithSeed(seed)
	if err != nil {
		logger.Error("Regeneration failed, keeping previous map", "seed", seed, "error", err)
		v.err = fmt.Errorf("seed %d: %w", seed, err)
		return
	}

	tile := v.source.Config().TileSize
	v.seed = seed
	v.snap = export.FromMapArea(area, seed, geometry.Point{X: tile.X, Y: tile.Y})
	v.stats = stats
	v.lines = v.snap.Render()
	v.err = nil
	v.center()
}

func (v *viewer) center() {
	w, h := v.screen.Size()
	height := len(v.lines)
	width := 0
	if height > 0 {
		width = len(v.lines[0])
	}
	v.offset = geometry.Point{X: (width - w) / 2, Y: (height - (h - 1)) / 2}
}

// handleKey applies one key press and reports whether the viewer should exit.
func (v *viewer) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		v.offset.Y -= panStep
	case tcell.KeyDown:
		v.offset.Y += panStep
	case tcell.KeyLeft:
		v.offset.X -= panStep
	case tcell.KeyRight:
		v.offset.X += panStep
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'r':
			v.regenerate(v.seed)
		case 'n':
			v.regenerate(v.seed + 1)
		case 'p':
			v.regenerate(v.seed - 1)
		case 'c':
			v.center()
		}
	}
	return false
}

func (v *viewer) draw() {
	v.screen.Clear()
	w, h := v.screen.Size()

	for sy := 0; sy < h-1; sy++ {
		my := sy + v.offset.Y
		if my < 0 || my >= len(v.lines) {
			continue
		}
		row := v.lines[my]
		for sx := 0; sx < w; sx++ {
			mx := sx + v.offset.X
			if mx < 0 || mx >= len(row) {
				continue
			}
			switch row[mx] {
			case export.GlyphWall:
				v.screen.SetContent(sx, sy, export.GlyphWall, nil, wallStyle)
			case export.GlyphGround:
				v.screen.SetContent(sx, sy, export.GlyphGround, nil, groundStyle)
			}
		}
	}

	status, style := v.statusLine(), statusStyle
	if v.err != nil {
		status, style = "Error: "+v.err.Error(), errorStyle
	}
	putText(v.screen, 0, h-1, runewidth.FillRight(runewidth.Truncate(status, w, "…"), w), style)
	v.screen.Show()
}

func (v *viewer) statusLine() string {
	if v.snap == nil {
		return "No map  [r] retry  [q] quit"
	}
	s := fmt.Sprintf("Seed %d  rooms %d (%d hidden)  connections %d",
		v.seed, v.stats.Rooms, v.stats.HiddenRooms, v.stats.Connections)
	if unreachable := v.snap.Unreachable(); len(unreachable) > 0 {
		s += fmt.Sprintf("  unreachable %v", unreachable)
	}
	return s + "  [r] regenerate  [n/p] next/prev seed  [arrows] pan  [c] center  [q] quit"
}

func (v *viewer) run() {
	v.draw()
	for {
		switch ev := v.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			v.screen.Sync()
		case *tcell.EventKey:
			if v.handleKey(ev) {
				return
			}
		}
		v.draw()
	}
}

// putText writes s starting at (x, y), clipped to the screen width.
func putText(scr tcell.Screen, x, y int, s string, st tcell.Style) {
	sw, _ := scr.Size()
	for _, r := range s {
		if x >= sw {
			break
		}
		scr.SetContent(x, y, r, nil, st)
		x += runewidth.RuneWidth(r)
	}
}
