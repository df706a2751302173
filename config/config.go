// Package config loads optional TOML run configuration. Values from a
// config file sit beneath CLI flags: a flag set explicitly on the
// command line always wins.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config holds the tunable parameters of a benchmark invocation.
type Config struct {
	Dataset         string   `toml:"dataset"`
	DataDir         string   `toml:"data_dir"`
	DurationSeconds float64  `toml:"duration_seconds"`
	BatchSize       int      `toml:"batch_size"`
	Workers         int      `toml:"workers"`
	BufferCapacity  uint32   `toml:"buffer_capacity"`
	Plugins         []string `toml:"plugins"`
	Modes           []string `toml:"modes"`
	Output          string   `toml:"output"`

	// Fallback makes degradation from the engine-backed loader to the
	// direct loader an explicit choice: without it, a missing native
	// library fails the run instead of silently benchmarking a
	// different code path.
	Fallback bool `toml:"fallback"`
}

// Default returns the built-in parameters.
func Default() Config {
	return Config{
		DataDir:         "bench/data",
		DurationSeconds: 60,
		BatchSize:       32,
		Workers:         4,
		BufferCapacity:  1024,
		Modes:           []string{"all"},
	}
}

// Load reads a TOML file over the defaults. Unknown keys are an error
// so typos do not silently run with defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config: %s: unknown key %q", path, undecoded[0])
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.DurationSeconds <= 0 {
		return fmt.Errorf("duration_seconds must be positive, got %v", c.DurationSeconds)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.BufferCapacity == 0 {
		return fmt.Errorf("buffer_capacity must be positive")
	}
	return nil
}
