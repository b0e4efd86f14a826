// Package config loads the simulation's tunable constants and ambient
// settings (logging, optional trace sink) from a TOML file overlaid on
// built-in defaults.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rotisserie/eris"
)

// Config is the root configuration document.
type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Logging    LoggingConfig    `toml:"logging"`
	Trace      TraceConfig      `toml:"trace"`
	DebugServer DebugServerConfig `toml:"debug_server"`
}

// SimulationConfig holds the simulation's tunables. sim.Manager reads
// only FixedPeriod and StartDelay from it; the other fields mirror the
// compile-time constants in the rules, rollback and net packages, and
// changing them does not change the simulation.
type SimulationConfig struct {
	MaxPlayerNmb            int           `toml:"max_player_nmb"`
	PlayerSpeed             float64       `toml:"player_speed"`
	BallSpeed               float64       `toml:"ball_speed"`
	BallScale               float64       `toml:"ball_scale"`
	WindowBufferSize        int           `toml:"window_buffer_size"`
	MaxInputNmb             int           `toml:"max_input_nmb"`
	FixedPeriod             time.Duration `toml:"fixed_period"`
	StartDelay              time.Duration `toml:"start_delay"`
	PixelPerMeter           float64       `toml:"pixel_per_meter"`
	DestroyWallScoreIncrement int         `toml:"destroy_wall_score_increment"`
}

// LoggingConfig selects zerolog's level and output format.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// TraceConfig points at the optional write-only rollback event sink.
// Empty DSN disables it entirely.
type TraceConfig struct {
	DSN     string `toml:"dsn"`
	Enabled bool   `toml:"enabled"`
}

// DebugServerConfig controls the local read-only introspection HTTP
// server (not the peer transport).
type DebugServerConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

// Load reads path and overlays it onto defaults(). A missing file is an
// error: unlike an optional override, the caller asked for a specific
// config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read %s", path)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, eris.Wrapf(err, "config: parse %s", path)
	}
	return cfg, nil
}

// defaults returns the configuration baseline.
func defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			MaxPlayerNmb:              2,
			PlayerSpeed:               400,
			BallSpeed:                 2,
			BallScale:                 0.3,
			WindowBufferSize:          250,
			MaxInputNmb:               50,
			FixedPeriod:               20 * time.Millisecond,
			StartDelay:                3000 * time.Millisecond,
			PixelPerMeter:             100,
			DestroyWallScoreIncrement: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Trace: TraceConfig{
			Enabled: false,
		},
		DebugServer: DebugServerConfig{
			Enabled: false,
			Address: "127.0.0.1:4040",
		},
	}
}
