package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/spyice/room-generator/internal/config"
	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/room"
	"github.com/spyice/room-generator/internal/worldgen"
)

// stubSource returns a walled room of width 3+seed; negative seeds fail.
type stubSource struct{}

func (stubSource) Config() config.WorldgenConfig { return config.DefaultWorldgenConfig() }

func (stubSource) GenerateWithSeed(seed int64) (*worldgen.MapArea, worldgen.Stats, error) {
	if seed < 0 {
		return nil, worldgen.Stats{Seed: seed}, errors.New("no presets")
	}
	area := worldgen.NewMapArea()
	r := room.New(0, geometry.NewRect(0, 0, 3+int(seed), 3), room.Details{IsMain: true})
	r.FillEdges()
	if err := area.AddRoom(r); err != nil {
		return nil, worldgen.Stats{}, err
	}
	return area, worldgen.Stats{Seed: seed, Rooms: 1}, nil
}

func newSimViewer(t *testing.T) (*viewer, tcell.Screen) {
	t.Helper()
	ss := tcell.NewSimulationScreen("UTF-8")
	if err := ss.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ss.SetSize(20, 6)
	t.Cleanup(ss.Fini)
	return newViewer(ss, stubSource{}), ss
}

func screenRow(scr tcell.Screen, y int) string {
	w, _ := scr.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := scr.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestViewerRegenerate(t *testing.T) {
	v, _ := newSimViewer(t)

	v.regenerate(1)
	if v.snap == nil || v.seed != 1 || len(v.lines) != 3 || v.lines[0] != "####" {
		t.Fatalf("after regenerate(1): seed %d lines %q", v.seed, v.lines)
	}

	v.handleKey(tcell.NewEventKey(tcell.KeyRune, 'n', tcell.ModNone))
	if v.seed != 2 || v.lines[0] != "#####" {
		t.Errorf("next seed: seed %d lines %q", v.seed, v.lines)
	}

	v.regenerate(-5)
	if v.err == nil {
		t.Fatal("failed regeneration should record an error")
	}
	if v.seed != 2 || v.lines[0] != "#####" {
		t.Error("failed regeneration should keep the previous map")
	}

	v.handleKey(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone))
	if v.err != nil {
		t.Errorf("regenerating the current seed should clear the error, got %v", v.err)
	}
}

func TestViewerKeys(t *testing.T) {
	v, _ := newSimViewer(t)
	v.regenerate(0)
	start := v.offset

	v.handleKey(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	v.handleKey(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone))
	if v.offset.X != start.X+panStep || v.offset.Y != start.Y+panStep {
		t.Errorf("offset = %+v, want %+v shifted by %d", v.offset, start, panStep)
	}

	v.handleKey(tcell.NewEventKey(tcell.KeyRune, 'c', tcell.ModNone))
	if v.offset != start {
		t.Errorf("center: offset = %+v, want %+v", v.offset, start)
	}

	if !v.handleKey(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Error("q should quit")
	}
	if !v.handleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Escape should quit")
	}
}

func TestViewerDraw(t *testing.T) {
	v, ss := newSimViewer(t)
	v.regenerate(0)
	v.offset = geometry.Point{}
	v.draw()

	want := []string{"###", "#.#", "###"}
	for y, w := range want {
		if got := screenRow(ss, y)[:3]; got != w {
			t.Errorf("row %d = %q, want %q", y, got, w)
		}
	}

	status := screenRow(ss, 5)
	if !strings.HasPrefix(status, "Seed 0  rooms 1") {
		t.Errorf("status = %q", status)
	}
	if !strings.HasSuffix(status, "…") {
		t.Errorf("long status should be truncated, got %q", status)
	}
}
