// Package match hosts a game between two movers. The host owns the rules:
// every move is checked by github.com/notnil/chess, clocks are kept here,
// and a side whose mover fails, answers illegally or runs out of time loses.
package match

import (
	"context"
	"fmt"
	"strings"
	"time"

	rules "github.com/notnil/chess"
	"github.com/rs/zerolog"

	"github.com/lgbarn/mystic-bridge/internal/chess"
	"github.com/lgbarn/mystic-bridge/internal/config"
	"github.com/lgbarn/mystic-bridge/internal/eco"
	"github.com/lgbarn/mystic-bridge/internal/errors"
	"github.com/lgbarn/mystic-bridge/internal/player"
)

// Options controls a hosted game.
type Options struct {
	StartFEN    string
	TimeControl time.Duration
	Increment   time.Duration
	MaxPlies    int
}

// OptionsFrom converts match configuration.
func OptionsFrom(cfg config.MatchConfig) Options {
	return Options{
		StartFEN:    cfg.StartFEN,
		TimeControl: cfg.TimeControl,
		Increment:   cfg.Increment,
		MaxPlies:    cfg.MaxPlies,
	}
}

// Termination methods recorded in addition to those of notnil/chess.
const (
	MethodPlyLimit    = "PlyLimit"
	MethodTimeForfeit = "TimeForfeit"
)

// Result describes a finished game.
type Result struct {
	Outcome  string           // "1-0", "0-1" or "1/2-1/2"
	Method   string           // e.g. "Checkmate", "Resignation", "PlyLimit"
	Plies    int              // plies played
	Moves    []string         // coordinate notation, in order
	SAN      []string         // the same moves in standard algebraic notation
	StartFEN string           // first position
	FinalFEN string           // last position
	PGN      string           // movetext with result
	ECO      string           // opening code, games from the initial position only
	Opening  string           // opening name
	Forfeit  error            // why the losing side resigned, if it did
	Clocks   [2]time.Duration // remaining time, indexed by chess.Colour
}

// Play runs a game to completion. It returns an error only when the game
// cannot start or ctx is cancelled; mover failures decide the game instead.
func Play(ctx context.Context, white, black player.Mover, opts Options, log zerolog.Logger) (*Result, error) {
	game, err := newGame(opts.StartFEN)
	if err != nil {
		return nil, err
	}

	clocks := [2]time.Duration{chess.White: opts.TimeControl, chess.Black: opts.TimeControl}
	res := &Result{StartFEN: game.Position().String()}

	for game.Outcome() == rules.NoOutcome {
		if opts.MaxPlies > 0 && res.Plies >= opts.MaxPlies {
			if err := game.Draw(rules.DrawOffer); err != nil {
				return nil, err
			}
			res.Method = MethodPlyLimit
			break
		}

		turn, mover := chess.White, white
		if game.Position().Turn() == rules.Black {
			turn, mover = chess.Black, black
		}
		plyLog := log.With().Int("ply", res.Plies+1).Str("side", turn.String()).Logger()

		uci, elapsed, err := ask(ctx, mover, game.Position(), player.Clock{Remaining: clocks[turn], Increment: opts.Increment})
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		clocks[turn] -= elapsed
		switch {
		case clocks[turn] <= 0:
			plyLog.Warn().Dur("elapsed", elapsed).Msg("flag fell")
			forfeit(game, turn, res, fmt.Errorf("%s flag fell: %w", turn, errors.ErrEngineTimeout))
			res.Method = MethodTimeForfeit
		case err != nil:
			plyLog.Warn().Err(err).Msg("mover failed, resigning")
			forfeit(game, turn, res, err)
		default:
			san, err := play(game, uci)
			if err != nil {
				plyLog.Warn().Err(err).Msg("illegal move, resigning")
				forfeit(game, turn, res, err)
				break
			}
			clocks[turn] += opts.Increment
			res.Moves = append(res.Moves, strings.ToLower(uci))
			res.SAN = append(res.SAN, san)
			res.Plies++
			plyLog.Debug().Str("move", uci).Dur("elapsed", elapsed).Msg("move played")
		}
	}

	res.Outcome = string(game.Outcome())
	if res.Method == "" {
		res.Method = game.Method().String()
	}
	res.FinalFEN = game.Position().String()
	res.PGN = game.String()
	res.Clocks = clocks
	if res.StartFEN == chess.InitialFEN {
		if entry := eco.NewECOClassifier().ClassifyGame(game); entry != nil {
			res.ECO, res.Opening = entry.ECOCode, entry.Opening
		}
	}

	log.Info().Str("outcome", res.Outcome).Str("method", res.Method).Int("plies", res.Plies).Msg("game over")
	return res, nil
}

func newGame(fen string) (*rules.Game, error) {
	if fen == "" {
		return rules.NewGame(), nil
	}
	if _, err := chess.ParseFEN(fen); err != nil {
		return nil, err
	}
	opt, err := rules.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidFEN, err)
	}
	return rules.NewGame(opt), nil
}

// ask requests a move bounded by the side's remaining time.
func ask(ctx context.Context, mover player.Mover, pos *rules.Position, clock player.Clock) (string, time.Duration, error) {
	current, err := chess.ParseFEN(pos.String())
	if err != nil {
		return "", 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, clock.Remaining)
	defer cancel()

	start := time.Now()
	uci, err := mover.RequestMove(ctx, current, clock)
	return uci, time.Since(start), err
}

// play applies a coordinate move after checking it against the legal moves
// and returns it in algebraic notation.
func play(game *rules.Game, uci string) (string, error) {
	m, err := rules.UCINotation{}.Decode(game.Position(), strings.ToLower(uci))
	if err != nil {
		return "", fmt.Errorf("%q: %w: %v", uci, errors.ErrIllegalMove, err)
	}
	san := rules.AlgebraicNotation{}.Encode(game.Position(), m)
	if err := game.Move(m); err != nil {
		return "", fmt.Errorf("%q: %w: %v", uci, errors.ErrIllegalMove, err)
	}
	return san, nil
}

func forfeit(game *rules.Game, side chess.Colour, res *Result, reason error) {
	if side == chess.White {
		game.Resign(rules.White)
	} else {
		game.Resign(rules.Black)
	}
	res.Forfeit = reason
}
