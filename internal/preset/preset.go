// Package preset describes hand-authored room groups and turns them into
// concrete room layouts.
package preset

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/room"
)

var (
	ErrNoPresets       = errors.New("preset: no presets available")
	ErrUnknownCategory = errors.New("preset: unknown category")
	ErrUnknownRoom     = errors.New("preset: connection references unknown room")
)

// DefaultRoomSize is used when a room asks for a dynamic size.
const DefaultRoomSize = 10

// Category groups presets by their role in a level.
type Category string

const (
	CategoryStart  Category = "start"
	CategoryNormal Category = "normal"
	CategoryBoss   Category = "boss"
)

// SizeKind selects how a room's dimensions are resolved.
type SizeKind string

const (
	SizeDynamic SizeKind = "dynamic"
	SizeFixed   SizeKind = "fixed"
	SizeRange   SizeKind = "range"
)

// SizeSpec resolves to a width and height at instantiation time.
//
//	size: {kind: fixed, width: 12, height: 8}
//	size: {kind: range, min_width: 6, max_width: 14, min_height: 6, max_height: 10}
type SizeSpec struct {
	Kind      SizeKind `yaml:"kind" json:"kind" jsonschema:"enum=dynamic,enum=fixed,enum=range"`
	Width     int      `yaml:"width,omitempty" json:"width,omitempty"`
	Height    int      `yaml:"height,omitempty" json:"height,omitempty"`
	MinWidth  int      `yaml:"min_width,omitempty" json:"min_width,omitempty"`
	MaxWidth  int      `yaml:"max_width,omitempty" json:"max_width,omitempty"`
	MinHeight int      `yaml:"min_height,omitempty" json:"min_height,omitempty"`
	MaxHeight int      `yaml:"max_height,omitempty" json:"max_height,omitempty"`
}

// Resolve returns the concrete size. Range bounds are inclusive and drawn
// width first, then height.
func (s SizeSpec) Resolve(rng *rand.Rand) (width, height int) {
	switch s.Kind {
	case SizeFixed:
		return s.Width, s.Height
	case SizeRange:
		width = uniformInclusive(rng, s.MinWidth, s.MaxWidth)
		height = uniformInclusive(rng, s.MinHeight, s.MaxHeight)
		return width, height
	default:
		return DefaultRoomSize, DefaultRoomSize
	}
}

func uniformInclusive(rng *rand.Rand, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// PositionKind selects how a room's anchor is resolved.
type PositionKind string

const (
	PositionDynamic PositionKind = "dynamic"
	PositionFixed   PositionKind = "fixed"
)

// PositionSpec is the anchor of a room relative to its preset's origin.
type PositionSpec struct {
	Kind PositionKind `yaml:"kind" json:"kind" jsonschema:"enum=dynamic,enum=fixed"`
	X    int          `yaml:"x,omitempty" json:"x,omitempty"`
	Y    int          `yaml:"y,omitempty" json:"y,omitempty"`
}

// Resolve returns the anchor. Dynamic positions sit at the preset origin.
func (p PositionSpec) Resolve() geometry.Point {
	if p.Kind == PositionFixed {
		return geometry.Point{X: p.X, Y: p.Y}
	}
	return geometry.Point{}
}

// RoomTemplate is one named room of a preset.
type RoomTemplate struct {
	Name       string           `yaml:"name" json:"name"`
	Type       string           `yaml:"type,omitempty" json:"type,omitempty" jsonschema:"enum=normal,enum=shop,enum=boss"`
	Size       SizeSpec         `yaml:"size" json:"size"`
	Position   PositionSpec     `yaml:"position" json:"position"`
	Aesthetics []room.Aesthetic `yaml:"aesthetics,omitempty" json:"aesthetics,omitempty"`
}

// Connection names two rooms of the same preset that must be linked.
type Connection struct {
	Room1 string `yaml:"room1" json:"room1"`
	Room2 string `yaml:"room2" json:"room2"`
}

// ModifierKind names a positional hint.
type ModifierKind string

const (
	ModifierNextTo       ModifierKind = "next_to"
	ModifierSameAxis     ModifierKind = "same_axis"
	ModifierDistanceAway ModifierKind = "distance_away"
)

// PositionalModifier is a layout hint between two rooms. Hints are carried
// through to instantiated rooms but are not enforced.
type PositionalModifier struct {
	Kind     ModifierKind `yaml:"kind" json:"kind" jsonschema:"enum=next_to,enum=same_axis,enum=distance_away"`
	Room1    string       `yaml:"room1" json:"room1"`
	Room2    string       `yaml:"room2" json:"room2"`
	Distance int          `yaml:"distance,omitempty" json:"distance,omitempty"`
}

// Involves reports whether the modifier mentions the named room.
func (m PositionalModifier) Involves(name string) bool {
	return m.Room1 == name || m.Room2 == name
}

// Preset is a reusable group of rooms with their internal connections.
// Rooms keep their file order, which fixes their local indices.
type Preset struct {
	Name        string               `yaml:"name" json:"name"`
	Rooms       []RoomTemplate       `yaml:"rooms" json:"rooms"`
	Connections []Connection         `yaml:"connections,omitempty" json:"connections,omitempty"`
	Modifiers   []PositionalModifier `yaml:"modifiers,omitempty" json:"modifiers,omitempty"`
}

// Validate checks that room names are unique and every connection refers
// to a known room.
func (p *Preset) Validate() error {
	if p.Name == "" {
		return errors.New("preset: missing name")
	}
	if len(p.Rooms) == 0 {
		return fmt.Errorf("preset %q: no rooms", p.Name)
	}
	seen := make(map[string]bool, len(p.Rooms))
	for _, r := range p.Rooms {
		if seen[r.Name] {
			return fmt.Errorf("preset %q: duplicate room %q", p.Name, r.Name)
		}
		seen[r.Name] = true
	}
	for _, c := range p.Connections {
		if !seen[c.Room1] {
			return fmt.Errorf("preset %q: %w: %q", p.Name, ErrUnknownRoom, c.Room1)
		}
		if !seen[c.Room2] {
			return fmt.Errorf("preset %q: %w: %q", p.Name, ErrUnknownRoom, c.Room2)
		}
	}
	return nil
}

// RoomInstance is a resolved room of an instantiated preset, in preset-local
// coordinates.
type RoomInstance struct {
	Name      string
	Dims      geometry.Rect
	Details   room.Details
	Modifiers []PositionalModifier
}

// Instance is a preset with every size and position resolved. Connections
// hold pairs of indices into Rooms.
type Instance struct {
	Preset      string
	Rooms       []RoomInstance
	Connections [][2]int
}

// Instantiate resolves every room of the preset in order. Rooms are created
// as non-main; main selection happens later in the pipeline.
func Instantiate(p *Preset, rng *rand.Rand) (Instance, error) {
	inst := Instance{Preset: p.Name}
	index := make(map[string]int, len(p.Rooms))

	for i, tmpl := range p.Rooms {
		index[tmpl.Name] = i

		var modifiers []PositionalModifier
		for _, m := range p.Modifiers {
			if m.Involves(tmpl.Name) {
				modifiers = append(modifiers, m)
			}
		}

		anchor := tmpl.Position.Resolve()
		width, height := tmpl.Size.Resolve(rng)

		inst.Rooms = append(inst.Rooms, RoomInstance{
			Name: tmpl.Name,
			Dims: geometry.Rect{Anchor: anchor, Width: width, Height: height},
			Details: room.Details{
				Type:       room.ParseType(tmpl.Type),
				Aesthetics: tmpl.Aesthetics,
			},
			Modifiers: modifiers,
		})
	}

	for _, c := range p.Connections {
		a, ok := index[c.Room1]
		if !ok {
			return Instance{}, fmt.Errorf("preset %q: %w: %q", p.Name, ErrUnknownRoom, c.Room1)
		}
		b, ok := index[c.Room2]
		if !ok {
			return Instance{}, fmt.Errorf("preset %q: %w: %q", p.Name, ErrUnknownRoom, c.Room2)
		}
		inst.Connections = append(inst.Connections, [2]int{a, b})
	}

	return inst, nil
}
