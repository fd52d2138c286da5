package worldgen

import (
	"fmt"
	"math/rand"

	"github.com/spyice/room-generator/internal/config"
	"github.com/spyice/room-generator/internal/logger"
)

// Stats summarizes one regeneration.
type Stats struct {
	Seed                 int64 `json:"seed"`
	Rooms                int   `json:"rooms"`
	HiddenRooms          int   `json:"hidden_rooms"`
	SeparationIterations int   `json:"separation_iterations"`
	Connections          int   `json:"connections"`
	CarvedPaths          int   `json:"carved_paths"`
}

// Generator runs the full pipeline for a fixed configuration and preset set.
type Generator struct {
	config  config.WorldgenConfig
	presets PresetSource
}

// NewGenerator creates a generator.
func NewGenerator(cfg config.WorldgenConfig, presets PresetSource) *Generator {
	return &Generator{config: cfg, presets: presets}
}

// Config returns the generator's configuration.
func (g *Generator) Config() config.WorldgenConfig {
	return g.config
}

// Generate builds a map from the configured seed.
func (g *Generator) Generate() (*MapArea, Stats, error) {
	return g.GenerateWithSeed(g.config.Seed)
}

// GenerateWithSeed builds a map from the given seed instead of the configured one.
func (g *Generator) GenerateWithSeed(seed int64) (*MapArea, Stats, error) {
	cfg := g.config
	cfg.Seed = seed
	return Generate(cfg, rand.New(rand.NewSource(seed)), g.presets)
}

// Generate runs every stage in order and returns a freshly built map:
// placement, main room selection, separation, triangulation, graph,
// connection resolution, graph rebuild and postprocessing.
// The same configuration, rng state and presets always give the same map.
func Generate(cfg config.WorldgenConfig, rng *rand.Rand, presets PresetSource) (*MapArea, Stats, error) {
	stats := Stats{Seed: cfg.Seed}
	area := NewMapArea()
	logger.Always("Generating map", "seed", cfg.Seed)

	if err := PlaceRooms(area, presets, cfg.PresetsToSpawn, cfg.SpawnRange, rng); err != nil {
		return nil, stats, fmt.Errorf("placement: %w", err)
	}
	DetermineMainRooms(area, cfg.MainRoomThresholdMultiplier)

	stats.SeparationIterations = Separate(area, cfg.SeparationFactor, cfg.SeparationMaxIterations)
	logger.Debug("Separation finished", "iterations", stats.SeparationIterations, "overlap", area.HasOverlap())

	TriangulateMainRooms(area)
	if _, err := BuildGraph(area, cfg.GraphReassemblyPercentage, rng); err != nil {
		return nil, stats, fmt.Errorf("graph: %w", err)
	}

	maxWidth := cfg.EffectiveMaxPassageWidth()
	if _, err := ResolveConnections(area, cfg.MinPassageWidth, maxWidth, cfg.ResolutionMaxIterations); err != nil {
		return nil, stats, fmt.Errorf("connections: %w", err)
	}
	if err := RebuildGraph(area); err != nil {
		return nil, stats, fmt.Errorf("graph rebuild: %w", err)
	}

	if cfg.ClearUnconnectedRooms {
		stats.HiddenRooms = StripUnconnected(area)
	}
	OuterWalls(area)
	Aesthetize(area, rng, cfg.CaveDestructive)

	carved, err := CarvePaths(area, cfg.MinPassageWidth)
	if err != nil {
		return nil, stats, fmt.Errorf("carve paths: %w", err)
	}
	stats.CarvedPaths = carved

	OuterWalls(area)
	if err := CarveDoors(area, cfg.MaxPassageWidth); err != nil {
		return nil, stats, fmt.Errorf("carve doors: %w", err)
	}

	stats.Rooms = area.Len()
	stats.Connections = len(area.Connections)

	logger.Info("Generated map",
		"seed", stats.Seed,
		"rooms", stats.Rooms,
		"hidden", stats.HiddenRooms,
		"connections", stats.Connections,
		"carved_paths", stats.CarvedPaths)

	return area, stats, nil
}
