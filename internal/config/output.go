package config

import (
	"fmt"
	"io"
	"os"

	"github.com/lgbarn/mystic-bridge/internal/errors"
)

// OutputFormat selects how results are printed.
type OutputFormat string

const (
	TextFormat OutputFormat = "text" // tab separated lines
	JSONFormat OutputFormat = "json" // one JSON document
)

// OutputConfig holds settings related to result output.
type OutputConfig struct {
	Format OutputFormat `yaml:"format"`

	// File receives results; empty means stdout.
	File string `yaml:"file"`

	// Writer overrides File when set.
	Writer io.Writer `yaml:"-"`
}

// NewOutputConfig creates an OutputConfig with default values.
func NewOutputConfig() *OutputConfig {
	return &OutputConfig{
		Format: TextFormat,
		Writer: os.Stdout,
	}
}

// Validate checks the output format.
func (o *OutputConfig) Validate() error {
	switch o.Format {
	case TextFormat, JSONFormat:
		return nil
	default:
		return fmt.Errorf("unknown output format %q: %w", o.Format, errors.ErrInvalidConfig)
	}
}
