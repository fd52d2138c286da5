package main

import (
	"fmt"
	"path/filepath"

	"github.com/spyice/room-generator/internal/export"
	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/worldgen"
)

type generator interface {
	GenerateWithSeed(seed int64) (*worldgen.MapArea, worldgen.Stats, error)
}

// Result is the outcome of one seed.
type Result struct {
	Seed        int64
	Stats       worldgen.Stats
	Unreachable []int
	Err         error
}

// Sweep runs the generator over many seeds and aggregates the outcomes.
type Sweep struct {
	gen      generator
	tileSize geometry.Point
	outDir   string

	Runs             int
	Failed           int
	TotalRooms       int
	TotalHidden      int
	WithUnreachable  int
	MaxSeparationRun int
}

func NewSweep(gen generator, tileSize geometry.Point, outDir string) *Sweep {
	return &Sweep{gen: gen, tileSize: tileSize, outDir: outDir}
}

// Run generates one seed, writing its snapshot when an output directory is set.
func (s *Sweep) Run(seed int64) Result {
	s.Runs++
	result := Result{Seed: seed}

	area, stats, err := s.gen.GenerateWithSeed(seed)
	if err != nil {
		s.Failed++
		result.Err = err
		return result
	}
	result.Stats = stats

	snap := export.FromMapArea(area, seed, s.tileSize)
	result.Unreachable = snap.Unreachable()

	if s.outDir != "" {
		path := filepath.Join(s.outDir, fmt.Sprintf("seed_%d.yaml", seed))
		if err := export.Save(snap, path); err != nil {
			s.Failed++
			result.Err = fmt.Errorf("write snapshot: %w", err)
			return result
		}
	}

	s.TotalRooms += stats.Rooms
	s.TotalHidden += stats.HiddenRooms
	s.MaxSeparationRun = max(s.MaxSeparationRun, stats.SeparationIterations)
	if len(result.Unreachable) > 0 {
		s.WithUnreachable++
	}
	return result
}

// Summary reports the aggregate over every run so far.
func (s *Sweep) Summary() string {
	ok := s.Runs - s.Failed
	avgRooms := 0.0
	if ok > 0 {
		avgRooms = float64(s.TotalRooms) / float64(ok)
	}
	return fmt.Sprintf("Runs: %d | Failed: %d | Avg rooms: %.1f | Hidden: %d | Maps with unreachable rooms: %d | Max separation iterations: %d",
		s.Runs, s.Failed, avgRooms, s.TotalHidden, s.WithUnreachable, s.MaxSeparationRun)
}
