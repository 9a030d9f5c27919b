// Package config provides configuration for mystic-bridge: the engine to
// drive, the players of a hosted game, batch analysis and logging.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/lgbarn/mystic-bridge/internal/errors"
)

// Config holds all program configuration.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Match  MatchConfig  `yaml:"match"`
	Batch  BatchConfig  `yaml:"batch"`
	Output OutputConfig `yaml:"output"`

	// LogFile receives log output; empty means stderr.
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	// LogWriter overrides LogFile when set.
	LogWriter io.Writer `yaml:"-"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Engine:    *NewEngineConfig(),
		Match:     *NewMatchConfig(),
		Batch:     *NewBatchConfig(),
		Output:    *NewOutputConfig(),
		LogLevel:  "info",
		LogWriter: os.Stderr,
	}
}

// Load reads a YAML configuration file over the defaults and validates it.
// Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's config file
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return Parse(data)
}

// Parse decodes YAML configuration over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration values are coherent.
// Whether an engine is needed at all is decided by the caller; see
// EngineConfig.Validate.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if err := c.Engine.validateValues(); err != nil {
		return err
	}
	if err := c.Match.Validate(); err != nil {
		return err
	}
	if err := c.Batch.Validate(); err != nil {
		return err
	}
	return c.Output.Validate()
}

// Level returns the parsed log level.
func (c *Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level %q: %w", c.LogLevel, errors.ErrInvalidConfig)
	}
	return level, nil
}

// NeedsEngine reports whether the configuration drives an engine session.
func (c *Config) NeedsEngine() bool {
	return c.Batch.Positions != "" ||
		c.Match.White.Kind == PlayerEngine ||
		c.Match.Black.Kind == PlayerEngine
}
