// Package config loads tracer settings from a TOML file layered over
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"river_tracer/pkg/classify"
	"river_tracer/pkg/geo"
	"river_tracer/pkg/skeleton"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Water controls raster classification.
type Water struct {
	Threshold float64 `toml:"threshold"`
	Thin      bool    `toml:"thin"` // Guo-Hall thinning before graph construction
}

// River controls the course buffer and endpoint ordering.
type River struct {
	BufferWidth float64 `toml:"buffer_width"` // coordinate units
	QuadSegs    int     `toml:"quad_segs"`
	Direction   string  `toml:"direction"` // N, S, E or W
}

// Skeleton mirrors skeleton.Options.
type Skeleton struct {
	MaxIter       int     `toml:"max_iter"`
	Jump          int     `toml:"jump"`
	JumpFactor    float64 `toml:"jump_factor"`
	JumpPower     float64 `toml:"jump_power"`
	IncludeGaps   bool    `toml:"include_gaps"`
	PruneIsolated bool    `toml:"prune_isolated"`
}

// Server configures the HTTP API.
type Server struct {
	Addr          string        `toml:"addr"`
	MaxConcurrent int           `toml:"max_concurrent"`
	Timeout       time.Duration `toml:"timeout"`
	MaxBodyBytes  int64         `toml:"max_body_bytes"`
}

// Config is the full tracer configuration.
type Config struct {
	LogLevel string   `toml:"log_level"`
	Water    Water    `toml:"water"`
	River    River    `toml:"river"`
	Skeleton Skeleton `toml:"skeleton"`
	Server   Server   `toml:"server"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Water: Water{
			Threshold: 0.5,
		},
		River: River{
			BufferWidth: 0.01,
			QuadSegs:    geo.DefaultQuadSegs,
			Direction:   "N",
		},
		Skeleton: Skeleton{
			MaxIter:     skeleton.DefaultMaxIter,
			JumpFactor:  skeleton.DefaultJumpFactor,
			JumpPower:   skeleton.DefaultJumpPower,
			IncludeGaps: true,
		},
		Server: Server{
			Addr:          ":8080",
			MaxConcurrent: 8,
			Timeout:       30 * time.Second,
			MaxBodyBytes:  64 << 20,
		},
	}
}

// Load decodes the TOML file at path over Default. Unknown keys are an
// error. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalid, err)
	}
	if _, err := classify.ParseDirection(c.River.Direction); err != nil {
		return fmt.Errorf("%w: river.direction: %v", ErrInvalid, err)
	}
	if c.River.BufferWidth <= 0 {
		return fmt.Errorf("%w: river.buffer_width must be positive", ErrInvalid)
	}
	if c.River.QuadSegs < 1 {
		return fmt.Errorf("%w: river.quad_segs must be at least 1", ErrInvalid)
	}
	if c.Skeleton.MaxIter <= 0 {
		return fmt.Errorf("%w: skeleton.max_iter must be positive", ErrInvalid)
	}
	if c.Skeleton.Jump < 0 {
		return fmt.Errorf("%w: skeleton.jump must not be negative", ErrInvalid)
	}
	if c.Skeleton.JumpFactor <= 0 || c.Skeleton.JumpPower <= 0 {
		return fmt.Errorf("%w: skeleton.jump_factor and jump_power must be positive", ErrInvalid)
	}
	if c.Server.MaxConcurrent < 1 {
		return fmt.Errorf("%w: server.max_concurrent must be at least 1", ErrInvalid)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("%w: server.timeout must be positive", ErrInvalid)
	}
	return nil
}

// Level returns the parsed log level, falling back to info.
func (c Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// SkeletonOptions converts the skeleton section into build options.
func (c Config) SkeletonOptions(logger *log.Logger) skeleton.Options {
	return skeleton.Options{
		MaxIter:       c.Skeleton.MaxIter,
		Jump:          c.Skeleton.Jump,
		JumpFactor:    c.Skeleton.JumpFactor,
		JumpPower:     c.Skeleton.JumpPower,
		IncludeGaps:   c.Skeleton.IncludeGaps,
		PruneIsolated: c.Skeleton.PruneIsolated,
		Logger:        logger,
	}
}
