package player

import (
	"fmt"

	"github.com/lgbarn/mystic-bridge/internal/config"
	"github.com/lgbarn/mystic-bridge/internal/errors"
)

// New builds the mover a player configuration names. The engine mover is
// supplied by the caller, which owns its session.
func New(cfg config.PlayerConfig, engine Mover) (Mover, error) {
	switch cfg.Kind {
	case config.PlayerEngine:
		if engine == nil {
			return nil, fmt.Errorf("engine player without an engine session: %w", errors.ErrInvalidConfig)
		}
		return engine, nil
	case config.PlayerRandom:
		return NewRandom(cfg.Seed), nil
	case config.PlayerAlphabetical:
		return Alphabetical{}, nil
	case config.PlayerFirst:
		return First{}, nil
	case config.PlayerCombo:
		return NewCombo(cfg.Seed), nil
	case config.PlayerLua:
		return NewLua(cfg.Script)
	default:
		return nil, fmt.Errorf("unknown player kind %q: %w", cfg.Kind, errors.ErrInvalidConfig)
	}
}
