// Package config loads boxctl settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
)

// Backing selects where arena memory comes from.
type Backing string

const (
	BackingHeap Backing = "heap" // Go heap region
	BackingMmap Backing = "mmap" // anonymous mapping
	BackingFile Backing = "file" // shared mapping of Arena.Path
)

// Config is the full boxctl configuration.
type Config struct {
	Arena  ArenaConfig  `toml:"arena"`
	Log    LogConfig    `toml:"log"`
	Stress StressConfig `toml:"stress"`
}

// ArenaConfig sizes and places the arena every command allocates from.
type ArenaConfig struct {
	Size    int64   `toml:"size"`
	Backing Backing `toml:"backing"`
	Path    string  `toml:"path"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// StressConfig controls the stress command.
type StressConfig struct {
	Workers    int   `toml:"workers"`
	Iterations int   `toml:"iterations"`
	MaxPayload int64 `toml:"max_payload"`
	Seed       int64 `toml:"seed"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Arena: ArenaConfig{
			Size:    4 << 20,
			Backing: BackingMmap,
		},
		Log: LogConfig{
			Level: "warn",
		},
		Stress: StressConfig{
			Workers:    4,
			Iterations: 10000,
			MaxPayload: 256,
			Seed:       1,
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values no command can work with.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.ArenaSize(); err != nil {
		errs = append(errs, err)
	}
	switch c.Arena.Backing {
	case BackingHeap, BackingMmap:
	case BackingFile:
		if c.Arena.Path == "" {
			errs = append(errs, errors.New("arena.path is required for file backing"))
		}
	default:
		errs = append(errs, fmt.Errorf("arena.backing %q: want heap, mmap or file", c.Arena.Backing))
	}
	if c.Stress.Workers <= 0 {
		errs = append(errs, fmt.Errorf("stress.workers must be positive, got %d", c.Stress.Workers))
	}
	if c.Stress.Iterations < 0 {
		errs = append(errs, fmt.Errorf("stress.iterations must not be negative, got %d", c.Stress.Iterations))
	}
	if c.Stress.MaxPayload <= 0 {
		errs = append(errs, fmt.Errorf("stress.max_payload must be positive, got %d", c.Stress.MaxPayload))
	}
	return errors.Join(errs...)
}

// ArenaSize returns Arena.Size as an int, rejecting values that do not fit.
func (c Config) ArenaSize() (int, error) {
	if c.Arena.Size <= 0 {
		return 0, fmt.Errorf("arena.size must be positive, got %d", c.Arena.Size)
	}
	n, err := safecast.Conv[int](c.Arena.Size)
	if err != nil {
		return 0, fmt.Errorf("arena.size %d: %w", c.Arena.Size, err)
	}
	return n, nil
}
