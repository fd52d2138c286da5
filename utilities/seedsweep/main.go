package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spyice/room-generator/internal/config"
	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/logger"
	"github.com/spyice/room-generator/internal/preset"
	"github.com/spyice/room-generator/internal/worldgen"
)

func main() {
	configFile := flag.String("config", "data/roomgen.yaml", "Path to generator config YAML file")
	seeds := flag.String("seeds", "", "Seed range to generate (e.g., 1-100 or 44)")
	outDir := flag.String("out", "", "Write one snapshot per seed into this directory (empty to skip)")
	flag.Parse()

	if *seeds == "" {
		fmt.Fprintln(os.Stderr, "Error: --seeds is required (e.g., --seeds=1-100 or --seeds=44)")
		flag.Usage()
		os.Exit(1)
	}

	start, end, err := parseSeedRange(*seeds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid seed range: %v\n", err)
		os.Exit(1)
	}

	// Generation logs every run; keep only warnings so the table stays readable.
	logger.InitializeWriter(os.Stderr, "text", "warning")

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config, using defaults: %v\n", err)
	}
	if err := cfg.Worldgen.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid worldgen config: %v\n", err)
		os.Exit(1)
	}
	presets, err := preset.Load(cfg.Worldgen.PresetsDir, cfg.Worldgen.PresetsIndex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load presets: %v\n", err)
		os.Exit(1)
	}

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create output directory: %v\n", err)
			os.Exit(1)
		}
	}

	tile := cfg.Worldgen.TileSize
	sweep := NewSweep(worldgen.NewGenerator(cfg.Worldgen, presets), geometry.Point{X: tile.X, Y: tile.Y}, *outDir)
	fmt.Printf("Generating seeds %d-%d\n\n", start, end)
	fmt.Printf("%8s %6s %6s %6s %6s %6s  %s\n", "seed", "rooms", "hidden", "conns", "sepit", "carved", "unreachable")

	for seed := start; seed <= end; seed++ {
		result := sweep.Run(seed)
		if result.Err != nil {
			fmt.Printf("%8d FAILED: %v\n", seed, result.Err)
			continue
		}
		s := result.Stats
		fmt.Printf("%8d %6d %6d %6d %6d %6d  %v\n",
			seed, s.Rooms, s.HiddenRooms, s.Connections, s.SeparationIterations, s.CarvedPaths, result.Unreachable)
	}

	fmt.Println()
	fmt.Println(sweep.Summary())
	if sweep.Failed > 0 {
		os.Exit(1)
	}
}

// parseSeedRange parses a non-negative seed range like "1-25" or "5".
func parseSeedRange(s string) (start, end int64, err error) {
	if strings.Contains(s, "-") {
		parts := strings.Split(s, "-")
		if len(parts) != 2 {
			return 0, 0, fmt.Errorf("invalid range format, expected 'start-end'")
		}
		start, err = strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid start seed: %w", err)
		}
		end, err = strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid end seed: %w", err)
		}
	} else {
		start, err = strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid seed: %w", err)
		}
		end = start
	}

	if end < start {
		return 0, 0, fmt.Errorf("end seed %d is before start seed %d", end, start)
	}
	return start, end, nil
}
