package config

import (
	"fmt"
	"time"

	"github.com/lgbarn/mystic-bridge/internal/errors"
)

// Player kinds.
const (
	PlayerEngine       = "engine"
	PlayerRandom       = "random"
	PlayerAlphabetical = "alphabetical"
	PlayerFirst        = "first"
	PlayerCombo        = "combo"
	PlayerLua          = "lua"
)

var playerKinds = map[string]bool{
	PlayerEngine:       true,
	PlayerRandom:       true,
	PlayerAlphabetical: true,
	PlayerFirst:        true,
	PlayerCombo:        true,
	PlayerLua:          true,
}

// PlayerConfig selects one side's move source.
type PlayerConfig struct {
	Kind string `yaml:"kind"`

	// Script is the Lua file of a lua player.
	Script string `yaml:"script"`

	// Seed fixes the random source of random and combo players; zero seeds
	// from the clock.
	Seed int64 `yaml:"seed"`
}

// Validate checks the player kind and its parameters.
func (p *PlayerConfig) Validate() error {
	if !playerKinds[p.Kind] {
		return fmt.Errorf("unknown player kind %q: %w", p.Kind, errors.ErrInvalidConfig)
	}
	if p.Kind == PlayerLua && p.Script == "" {
		return fmt.Errorf("lua player requires a script: %w", errors.ErrInvalidConfig)
	}
	return nil
}

// MatchConfig holds settings for a hosted game.
type MatchConfig struct {
	White PlayerConfig `yaml:"white"`
	Black PlayerConfig `yaml:"black"`

	// StartFEN is the starting position; empty means the standard start.
	StartFEN string `yaml:"start_fen"`

	// TimeControl is each side's starting clock; Increment is added after
	// every move.
	TimeControl time.Duration `yaml:"time_control"`
	Increment   time.Duration `yaml:"increment"`

	// MaxPlies ends the game as a draw after this many plies (0 = no limit).
	MaxPlies int `yaml:"max_plies"`

	// PGNFile receives the finished game; empty prints it.
	PGNFile string `yaml:"pgn_file"`
}

// NewMatchConfig creates a MatchConfig with default values.
func NewMatchConfig() *MatchConfig {
	return &MatchConfig{
		White:       PlayerConfig{Kind: PlayerEngine},
		Black:       PlayerConfig{Kind: PlayerRandom},
		TimeControl: 5 * time.Minute,
		MaxPlies:    500,
	}
}

// Validate checks the match settings.
func (m *MatchConfig) Validate() error {
	if err := m.White.Validate(); err != nil {
		return errors.Wrap(err, "white")
	}
	if err := m.Black.Validate(); err != nil {
		return errors.Wrap(err, "black")
	}
	if m.TimeControl <= 0 {
		return fmt.Errorf("time control must be positive: %w", errors.ErrInvalidConfig)
	}
	if m.Increment < 0 || m.MaxPlies < 0 {
		return fmt.Errorf("negative increment or ply limit: %w", errors.ErrInvalidConfig)
	}
	return nil
}
