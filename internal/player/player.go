// Package player defines move sources for a hosted game: an engine session,
// a handful of simple strategies, and Lua scripts.
package player

import (
	"context"
	"fmt"
	"sort"
	"time"

	rules "github.com/notnil/chess"

	"github.com/lgbarn/mystic-bridge/internal/chess"
	"github.com/lgbarn/mystic-bridge/internal/errors"
)

// Clock is the time situation of the side to move.
type Clock struct {
	Remaining time.Duration
	Increment time.Duration
}

// Mover chooses a move in a position. Moves are coordinate strings such as
// "e2e4", "e1g1" or "e7e8q"; the promotion letter may be either case.
type Mover interface {
	RequestMove(ctx context.Context, pos *chess.Position, clock Clock) (string, error)
}

// MoverFunc adapts a function to the Mover interface.
type MoverFunc func(ctx context.Context, pos *chess.Position, clock Clock) (string, error)

// RequestMove calls f.
func (f MoverFunc) RequestMove(ctx context.Context, pos *chess.Position, clock Clock) (string, error) {
	return f(ctx, pos, clock)
}

// candidate is a legal move with both of its notations.
type candidate struct {
	uci string
	san string
}

// legalMoves lists the legal moves of pos.
func legalMoves(pos *chess.Position) ([]candidate, error) {
	opt, err := rules.FEN(pos.FEN())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidFEN, err)
	}
	game := rules.NewGame(opt)
	position := game.Position()

	var out []candidate
	for _, m := range game.ValidMoves() {
		out = append(out, candidate{
			uci: m.String(),
			san: rules.AlgebraicNotation{}.Encode(position, m),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no legal moves in %s", pos.FEN())
	}
	return out, nil
}

// firstBy returns the UCI string of the candidate with the smallest key.
func firstBy(moves []candidate, key func(candidate) string) string {
	sort.Slice(moves, func(i, j int) bool {
		return key(moves[i]) < key(moves[j])
	})
	return moves[0].uci
}
