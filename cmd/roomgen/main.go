package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spyice/room-generator/internal/config"
	"github.com/spyice/room-generator/internal/database"
	"github.com/spyice/room-generator/internal/export"
	"github.com/spyice/room-generator/internal/geometry"
	"github.com/spyice/room-generator/internal/logger"
	"github.com/spyice/room-generator/internal/preset"
	"github.com/spyice/room-generator/internal/server"
	"github.com/spyice/room-generator/internal/worldgen"
)

func main() {
	configFile := flag.String("config", "data/roomgen.yaml", "Path to generator config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	seed := flag.Int64("seed", 0, "Override the configured seed (0 keeps the config value)")
	output := flag.String("output", "data/map.yaml", "Snapshot output file (.yaml or .json, empty to skip)")
	persist := flag.Bool("persist", false, "Store the map in the layout database (overrides database.enabled)")
	serve := flag.Bool("serve", false, "Serve the map to WebSocket and telnet viewers after generating")
	flag.Parse()

	logConfig, err := logger.LoadConfig(*loggingConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse logging config, using defaults: %v\n", err)
	}
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
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
	logger.Info("Presets loaded", "count", presets.Len(), "skipped", len(presets.Skipped))

	gen := worldgen.NewGenerator(cfg.Worldgen, presets)

	var db *database.Database
	if *persist || cfg.Database.Enabled {
		db, err = database.OpenWithConfig(databaseConfig(cfg.Database))
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		logger.Info("Layout database initialized", "driver", cfg.Database.Driver)
	}

	if !*serve {
		if err := generateOnce(gen, db, *output); err != nil {
			log.Fatalf("Generation failed: %v", err)
		}
		return
	}

	srv := server.New(cfg.Server, gen)
	if db != nil {
		srv.SetLayoutStore(db)
	}
	if _, err := srv.Regenerate(nil); err != nil {
		logger.Error("Initial generation failed, viewers will see no map until a regenerate succeeds", "error", err)
	} else if *output != "" {
		snap, _ := srv.Snapshot()
		if err := export.Save(snap, *output); err != nil {
			logger.Warning("Failed to write snapshot", "path", *output, "error", err)
		}
	}

	switch {
	case len(cfg.Server.WebSocket.AllowedOrigins) == 0:
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	case len(cfg.Server.WebSocket.AllowedOrigins) == 1 && cfg.Server.WebSocket.AllowedOrigins[0] == "*":
		logger.Warning("WebSocket CORS allows all origins (not recommended for production)")
	default:
		logger.Info("WebSocket CORS policy", "allowed_origins", cfg.Server.WebSocket.AllowedOrigins)
	}

	if cfg.Server.TelnetAddr != "" {
		go func() {
			if err := srv.Start(cfg.Server.TelnetAddr); err != nil {
				log.Fatalf("Telnet server error: %v", err)
			}
		}()
	}
	go func() {
		if err := srv.StartWebSocket(cfg.Server.Addr); err != nil {
			log.Fatalf("WebSocket server error: %v", err)
		}
	}()

	logger.Info("Room generator serving", "addr", cfg.Server.Addr, "telnet_addr", cfg.Server.TelnetAddr)
	logger.Info("Press Ctrl+C to shutdown")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server")
	srv.Shutdown()
}

// generateOnce builds one map, writes the snapshot and stores it when db is set.
func generateOnce(gen *worldgen.Generator, db *database.Database, output string) error {
	area, stats, err := gen.Generate()
	if err != nil {
		return err
	}

	tile := gen.Config().TileSize
	snap := export.FromMapArea(area, stats.Seed, geometry.Point{X: tile.X, Y: tile.Y})

	if output != "" {
		if err := export.Save(snap, output); err != nil {
			return err
		}
		logger.Info("Snapshot written", "path", output)
	}

	if db != nil {
		id, err := db.SaveLayout(snap)
		if err != nil {
			return fmt.Errorf("failed to store layout: %w", err)
		}
		logger.Info("Layout stored", "id", id)
	}

	fmt.Printf("Seed %d: %d rooms (%d hidden), %d connections, %d separation iterations, %d carved paths\n",
		stats.Seed, stats.Rooms, stats.HiddenRooms, stats.Connections, stats.SeparationIterations, stats.CarvedPaths)
	if unreachable := snap.Unreachable(); len(unreachable) > 0 {
		fmt.Printf("Unreachable rooms: %v\n", unreachable)
	}
	return nil
}

func databaseConfig(cfg config.DatabaseConfig) database.Config {
	pg := database.DefaultPostgresConfig()
	pg.Host = cfg.Postgres.Host
	pg.Port = cfg.Postgres.Port
	pg.User = cfg.Postgres.User
	pg.Password = cfg.Postgres.Password
	pg.Database = cfg.Postgres.Database
	if cfg.Postgres.SSLMode != "" {
		pg.SSLMode = cfg.Postgres.SSLMode
	}
	return database.Config{
		Driver:     cfg.Driver,
		SQLitePath: cfg.SQLitePath,
		Postgres:   pg,
	}
}
