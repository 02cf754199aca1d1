// =============================================================================
// Payments Engine - Configuration Module
// =============================================================================
//
// Optional YAML run configuration. Precedence, lowest to highest:
//
//   1. Built-in defaults
//   2. Config file values (--config)
//   3. Command-line flags
//
// The file is deliberately small: it tunes how a run executes, never what
// the engine computes. No state persists between runs.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable run settings.
type Config struct {
	// Strategy selects the execution model.
	// Valid values: "sync", "async"
	// Default: "async"
	Strategy string `yaml:"strategy"`

	// BatchSize is the number of rows pulled per batch in async mode.
	// Default: 1000
	BatchSize int `yaml:"batch_size"`

	// Workers bounds how many client partitions of one batch are applied
	// concurrently in async mode.
	// Default: number of CPU cores
	Workers int `yaml:"workers"`

	// LogLevel controls log verbosity on stderr.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Strategy:  "async",
		BatchSize: 1000,
		Workers:   runtime.NumCPU(),
		LogLevel:  "info",
	}
}

// Load reads a YAML config file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the executor cannot honor.
func (c Config) Validate() error {
	switch c.Strategy {
	case "sync", "async":
	default:
		return fmt.Errorf("strategy must be \"sync\" or \"async\", got %q", c.Strategy)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}
