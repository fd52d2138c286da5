package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/spyice/room-generator/internal/config"
	"github.com/spyice/room-generator/internal/logger"
	"github.com/spyice/room-generator/internal/preset"
	"github.com/spyice/room-generator/internal/worldgen"
)

func main() {
	configFile := flag.String("config", "data/roomgen.yaml", "Path to generator config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	seed := flag.Int64("seed", 0, "Override the configured seed (0 keeps the config value)")
	flag.Parse()

	// Console logging would draw over the screen, so only the log file is kept.
	logConfig, _ := logger.LoadConfig(*loggingConfig)
	logConfig.ConsoleEnabled = false
	if logConfig.FileEnabled {
		if err := logger.Initialize(logConfig); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		logger.InitializeWriter(io.Discard, "text", logConfig.Level)
	}
	defer logger.Close()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Warning("Failed to load config, using defaults", "path", *configFile, "error", err)
	}
	if *seed != 0 {
		cfg.Worldgen.Seed = *seed
	}
	if err := cfg.Worldgen.Validate(); err != nil {
		log.Fatalf("Invalid worldgen config: %v", err)
	}

	presets, err := preset.Load(cfg.Worldgen.PresetsDir, cfg.Worldgen.PresetsIndex)
	if err != nil {
		log.Fatalf("Failed to load presets: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("Failed to create screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("Failed to init screen: %v", err)
	}

	v := newViewer(screen, worldgen.NewGenerator(cfg.Worldgen, presets))
	v.regenerate(cfg.Worldgen.Seed)
	v.run()
	screen.Fini()

	if v.err != nil {
		fmt.Fprintf(os.Stderr, "Last generation failed: %v\n", v.err)
	}
}
