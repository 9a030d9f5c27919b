package config

import (
	"fmt"
	"runtime"

	"github.com/lgbarn/mystic-bridge/internal/errors"
)

// BatchConfig holds settings for analysing a file of positions.
type BatchConfig struct {
	// Positions is a file with one FEN per line.
	Positions string `yaml:"positions"`

	// Workers is the number of engine sessions run side by side.
	Workers int `yaml:"workers"`

	// BudgetMillis is the per-position time budget sent to legacy engines.
	BudgetMillis int64 `yaml:"budget_ms"`

	// SkipDuplicates answers a repeated position from the first answer
	// instead of asking the engine again.
	SkipDuplicates bool `yaml:"skip_duplicates"`
}

// NewBatchConfig creates a BatchConfig with default values.
func NewBatchConfig() *BatchConfig {
	return &BatchConfig{
		Workers:      runtime.NumCPU(),
		BudgetMillis: 1000,
	}
}

// Validate checks the batch settings.
func (b *BatchConfig) Validate() error {
	if b.Workers < 1 {
		return fmt.Errorf("workers must be at least 1: %w", errors.ErrInvalidConfig)
	}
	if b.BudgetMillis < 0 {
		return fmt.Errorf("negative time budget: %w", errors.ErrInvalidConfig)
	}
	return nil
}
