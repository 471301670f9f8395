// Package config loads runtime settings for worlds, the tick driver and
// logging from TOML or YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the root of a tsumiki settings file.
type Config struct {
	World     WorldConfig     `toml:"world" yaml:"world"`
	Scheduler SchedulerConfig `toml:"scheduler" yaml:"scheduler"`
	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
}

// WorldConfig sizes the per-type stores of every world it is applied to.
type WorldConfig struct {
	CollectionCapacity int `toml:"collection_capacity" yaml:"collection_capacity"` // initial refs capacity per component type
	FreeListLimit      int `toml:"free_list_limit" yaml:"free_list_limit"`         // 0 = unbounded
}

// SchedulerConfig drives the host's tick loop.
type SchedulerConfig struct {
	TickRate time.Duration `toml:"tick_rate" yaml:"tick_rate"`
	MaxTicks int           `toml:"max_ticks" yaml:"max_ticks"` // 0 = run until stopped
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

// Load reads path, choosing the decoder by extension, on top of Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			CollectionCapacity: 64,
			FreeListLimit:      0,
		},
		Scheduler: SchedulerConfig{
			TickRate: 16 * time.Millisecond,
			MaxTicks: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate rejects settings no world can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.World.CollectionCapacity < 0 {
		errs = append(errs, errors.New("world.collection_capacity must not be negative"))
	}
	if c.World.FreeListLimit < 0 {
		errs = append(errs, errors.New("world.free_list_limit must not be negative"))
	}
	if c.Scheduler.TickRate <= 0 {
		errs = append(errs, errors.New("scheduler.tick_rate must be positive"))
	}
	if c.Scheduler.MaxTicks < 0 {
		errs = append(errs, errors.New("scheduler.max_ticks must not be negative"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q: want json or console", c.Logging.Format))
	}
	return errors.Join(errs...)
}
