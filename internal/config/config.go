package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration file layout.
type Config struct {
	Worldgen WorldgenConfig `yaml:"worldgen"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
}

// TileSize is the world-space size of a single grid cell.
type TileSize struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// WorldgenConfig holds every knob of the generation pipeline.
// It is read-only for the duration of a regeneration.
type WorldgenConfig struct {
	TileSize       TileSize `yaml:"tile_size"`
	Seed           int64    `yaml:"seed"`
	PresetsToSpawn int      `yaml:"presets_to_spawn"`
	SpawnRange     int      `yaml:"spawn_range"`

	// MainRoomThresholdMultiplier is not used: every room is main.
	MainRoomThresholdMultiplier float64 `yaml:"main_room_threshold_multiplier"`

	SeparationFactor          float64 `yaml:"separation_factor"`
	GraphReassemblyPercentage float64 `yaml:"graph_reassembly_percentage"`
	MinPassageWidth           int     `yaml:"min_passage_width"`
	MaxPassageWidth           int     `yaml:"max_passage_width"`

	// PathCostThreshold is not used by the path carver.
	PathCostThreshold int `yaml:"path_cost_threshold"`

	ClearUnconnectedRooms bool `yaml:"clear_unconnected_rooms"`

	// CaveDestructive lets cellular automata overwrite walls placed before it.
	CaveDestructive bool `yaml:"cave_destructive"`

	SeparationMaxIterations int `yaml:"separation_max_iterations"`
	ResolutionMaxIterations int `yaml:"resolution_max_iterations"`

	PresetsDir   string `yaml:"presets_dir"`
	PresetsIndex string `yaml:"presets_index"`
}

// ServerConfig holds settings for the map viewer service.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// TelnetAddr serves the ASCII viewer over plain TCP. Empty disables it.
	TelnetAddr string `yaml:"telnet_addr"`

	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
}

// RateLimitConfig throttles regenerate requests per IP.
type RateLimitConfig struct {
	// MaxRegenerations per window before the IP is locked out. Zero values fall back to the defaults.
	MaxRegenerations int `yaml:"max_regenerations"`
	WindowSeconds    int `yaml:"window_seconds"`

	// LockoutSeconds doubles on every repeated lockout up to MaxLockoutSeconds.
	LockoutSeconds    int `yaml:"lockout_seconds"`
	MaxLockoutSeconds int `yaml:"max_lockout_seconds"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent connections allowed from a single IP address.
	// 0 means unlimited.
	MaxPerIP int `yaml:"max_per_ip"`

	// MaxTotal is the maximum total concurrent viewer connections.
	// 0 means unlimited.
	MaxTotal int `yaml:"max_total"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum inbound WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DatabaseConfig selects where generated layouts are stored.
type DatabaseConfig struct {
	Enabled    bool           `yaml:"enabled"`
	Driver     string         `yaml:"driver"` // sqlite or postgres
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// DefaultWorldgenConfig returns the stock generation settings.
func DefaultWorldgenConfig() WorldgenConfig {
	return WorldgenConfig{
		TileSize:                    TileSize{X: 8, Y: 8},
		Seed:                        44,
		PresetsToSpawn:              5,
		SpawnRange:                  100,
		MainRoomThresholdMultiplier: -1.0,
		SeparationFactor:            2.0,
		GraphReassemblyPercentage:   0.30,
		MinPassageWidth:             6,
		MaxPassageWidth:             12,
		PathCostThreshold:           9999,
		ClearUnconnectedRooms:       true,
		CaveDestructive:             false,
		SeparationMaxIterations:     5000,
		ResolutionMaxIterations:     10,
		PresetsDir:                  "data/presets",
		PresetsIndex:                "data/presets/index.yaml",
	}
}

// DefaultConfig returns a Config with defaults for every section.
func DefaultConfig() *Config {
	return &Config{
		Worldgen: DefaultWorldgenConfig(),
		Server: ServerConfig{
			Addr: ":8080",
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{}, // Same-origin only by default
				MaxMessageSize: 1024,
			},
			Connections: ConnectionsConfig{
				MaxPerIP: 3,
				MaxTotal: 100,
			},
			RateLimit: RateLimitConfig{
				MaxRegenerations:  10,
				WindowSeconds:     60,
				LockoutSeconds:    30,
				MaxLockoutSeconds: 300,
			},
		},
		Database: DatabaseConfig{
			Enabled:    false,
			Driver:     "sqlite",
			SQLitePath: "data/layouts.db",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
	}
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, returns default config. If it can't be parsed,
// returns default config along with the parse error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil // Use defaults if file doesn't exist
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), err
	}

	return config, nil
}

// EffectiveMaxPassageWidth returns max(min, max). A maximum below the
// minimum is tolerated and treated as the minimum.
func (w WorldgenConfig) EffectiveMaxPassageWidth() int {
	return max(w.MaxPassageWidth, w.MinPassageWidth)
}

// Validate reports settings that cannot produce a map.
func (w WorldgenConfig) Validate() error {
	var errs []error
	if w.TileSize.X <= 0 || w.TileSize.Y <= 0 {
		errs = append(errs, fmt.Errorf("tile_size must be positive, got %dx%d", w.TileSize.X, w.TileSize.Y))
	}
	if w.PresetsToSpawn < 0 {
		errs = append(errs, fmt.Errorf("presets_to_spawn must not be negative, got %d", w.PresetsToSpawn))
	}
	if w.SpawnRange < 0 {
		errs = append(errs, fmt.Errorf("spawn_range must not be negative, got %d", w.SpawnRange))
	}
	if w.MinPassageWidth < 0 || w.MaxPassageWidth < 0 {
		errs = append(errs, fmt.Errorf("passage widths must not be negative, got min %d max %d", w.MinPassageWidth, w.MaxPassageWidth))
	}
	if w.SeparationFactor < 0 {
		errs = append(errs, fmt.Errorf("separation_factor must not be negative, got %g", w.SeparationFactor))
	}
	if w.SeparationMaxIterations < 0 || w.ResolutionMaxIterations < 0 {
		errs = append(errs, errors.New("iteration caps must not be negative"))
	}
	return errors.Join(errs...)
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" {
			return true
		}
		if allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host (same-origin policy).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means same-origin (e.g., non-browser client)
	}

	// Extract host from origin URL (e.g., "http://localhost:3000" -> "localhost:3000")
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
