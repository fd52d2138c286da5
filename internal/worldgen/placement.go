package worldgen

import (
	"fmt"
	"math/rand"

	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/logger"
	"github.com/spyice/room-generator/internal/preset"
	"github.com/spyice/room-generator/internal/room"
)

// PresetSource picks presets by category.
type PresetSource interface {
	Choose(category preset.Category, rng *rand.Rand) (*preset.Preset, error)
}

// mainRoomThresholdEnabled gates the size-relative main room selection.
// When disabled every room is main.
const mainRoomThresholdEnabled = false

// PlaceRooms spawns count normal presets at random offsets within
// [-spawnRange, spawnRange] on both axes. Rooms get ids continuing a running
// counter and preset-local connections are remapped to those ids.
func PlaceRooms(area *MapArea, presets PresetSource, count, spawnRange int, rng *rand.Rand) error {
	nextID := area.NextRoomID()
	spawnRange = max(spawnRange, 0)

	for i := 0; i < count; i++ {
		p, err := presets.Choose(preset.CategoryNormal, rng)
		if err != nil {
			return fmt.Errorf("failed to choose preset %d: %w", i, err)
		}

		inst, err := preset.Instantiate(p, rng)
		if err != nil {
			return fmt.Errorf("failed to instantiate preset %q: %w", p.Name, err)
		}

		offset := geometry.Point{
			X: rng.Intn(2*spawnRange+1) - spawnRange,
			Y: rng.Intn(2*spawnRange+1) - spawnRange,
		}

		base := nextID
		for _, ri := range inst.Rooms {
			r := room.New(nextID, ri.Dims.Translate(offset), ri.Details)
			if err := area.AddRoom(r); err != nil {
				return err
			}
			nextID++
		}

		for _, c := range inst.Connections {
			area.InitialConnections = append(area.InitialConnections, [2]int{c[0] + base, c[1] + base})
		}

		logger.Debug("Placed preset", "preset", p.Name, "rooms", len(inst.Rooms), "offset_x", offset.X, "offset_y", offset.Y)
	}

	return nil
}

// DetermineMainRooms marks which rooms take part in the graph.
// The threshold multiplier is accepted but has no effect.
func DetermineMainRooms(area *MapArea, thresholdMultiplier float64) {
	rooms := area.Rooms()

	mean := 0.0
	if mainRoomThresholdEnabled && len(rooms) > 0 {
		for _, r := range rooms {
			mean += float64(r.Area())
		}
		mean /= float64(len(rooms))
	}

	for _, r := range rooms {
		if mainRoomThresholdEnabled {
			r.Details.IsMain = float64(r.Area()) > mean*thresholdMultiplier
			continue
		}
		r.Details.IsMain = true
	}
}
