// Package session manages the lifetime of one engine: start and handshake,
// move requests with failure escalation, and guaranteed teardown.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lgbarn/mystic-bridge/internal/bitboard"
	"github.com/lgbarn/mystic-bridge/internal/channel"
	"github.com/lgbarn/mystic-bridge/internal/chess"
	"github.com/lgbarn/mystic-bridge/internal/config"
	"github.com/lgbarn/mystic-bridge/internal/errors"
	"github.com/lgbarn/mystic-bridge/internal/move"
	"github.com/lgbarn/mystic-bridge/internal/player"
)

// Legacy time budget bounds.
const (
	maxLegacyBudget     = 5000 // milliseconds
	legacyMovesToGo     = 40
	minResponseDeadline = time.Second
)

// Session owns one engine channel. It is not safe for concurrent use; give
// each goroutine its own session.
type Session struct {
	ch     *channel.Channel
	cfg    config.EngineConfig
	log    zerolog.Logger
	closed bool
}

var _ player.Mover = (*Session)(nil)

// Start launches the engine and waits for its readiness marker. When the
// handshake fails the engine is shut down before Start returns.
func Start(ctx context.Context, cfg config.EngineConfig, log zerolog.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrEngineFailure, err)
	}

	ch, err := channel.Open(ctx, cfg.Options(), log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrEngineFailure, err)
	}
	if err := ch.AwaitReady(ctx); err != nil {
		if closeErr := ch.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("closing engine after failed handshake")
		}
		return nil, fmt.Errorf("%w: %w", errors.ErrEngineFailure, err)
	}

	log.Info().Str("protocol", string(cfg.Protocol)).Msg("engine session started")
	return &Session{ch: ch, cfg: cfg, log: log}, nil
}

// RequestMove asks the engine for a move in pos and returns it as a move
// string such as "e2e4", "e1g1" or "a7a8Q". The clock bounds the wait when
// no response timeout is configured and sets the legacy time budget.
func (s *Session) RequestMove(ctx context.Context, pos *chess.Position, clock player.Clock) (string, error) {
	if s.closed {
		return "", fmt.Errorf("%w: %w", errors.ErrEngineFailure, errors.ErrSessionClosed)
	}

	if s.cfg.ResponseTimeout == 0 && clock.Remaining > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, max(clock.Remaining, minResponseDeadline))
		defer cancel()
	}

	mv, err := s.request(ctx, pos, clock)
	if err != nil {
		if s.ch.State() == channel.Closed {
			s.closed = true
		}
		s.log.Error().Err(err).Str("fen", pos.FEN()).Msg("engine request failed")
		return "", fmt.Errorf("%w: %w", errors.ErrEngineFailure, err)
	}

	s.log.Debug().Str("fen", pos.FEN()).Str("move", mv).Msg("engine move")
	return mv, nil
}

func (s *Session) request(ctx context.Context, pos *chess.Position, clock player.Clock) (string, error) {
	if s.cfg.Protocol == channel.ProtocolLegacy {
		return s.ch.SubmitFEN(ctx, pos.FEN(), LegacyTimeBudget(clock.Remaining))
	}

	pb := bitboard.Encode(pos)
	pb.LatestMove = 0
	packed, err := s.ch.Submit(ctx, pb)
	if err != nil {
		return "", err
	}
	return move.Decode(packed, pos.ToMove)
}

// Terminate shuts the engine down and removes any board file the session
// created. It is safe to call more than once.
func (s *Session) Terminate() error {
	s.closed = true
	if err := s.ch.Close(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrEngineFailure, err)
	}
	return nil
}

// Closed reports whether the session can no longer serve requests.
func (s *Session) Closed() bool {
	return s.closed
}

// LegacyTimeBudget is the thinking time, in milliseconds, sent with a legacy
// request: a fortieth of the remaining clock, at most five seconds.
func LegacyTimeBudget(remaining time.Duration) int64 {
	return max(0, min(maxLegacyBudget, remaining.Milliseconds()/legacyMovesToGo))
}

// BudgetClock returns a clock whose legacy time budget is budgetMillis,
// for analysis outside a timed game.
func BudgetClock(budgetMillis int64) player.Clock {
	return player.Clock{Remaining: time.Duration(budgetMillis*legacyMovesToGo) * time.Millisecond}
}
