package player

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/lgbarn/mystic-bridge/internal/chess"
)

// Random plays a uniformly random legal move.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a random mover. A zero seed seeds from the clock.
func NewRandom(seed int64) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // G404: move choice, not security
}

// RequestMove implements Mover.
func (r *Random) RequestMove(_ context.Context, pos *chess.Position, _ Clock) (string, error) {
	moves, err := legalMoves(pos)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	i := r.rng.Intn(len(moves))
	r.mu.Unlock()
	return moves[i].uci, nil
}

// Alphabetical plays the legal move whose SAN sorts first.
type Alphabetical struct{}

// RequestMove implements Mover.
func (Alphabetical) RequestMove(_ context.Context, pos *chess.Position, _ Clock) (string, error) {
	moves, err := legalMoves(pos)
	if err != nil {
		return "", err
	}
	return firstBy(moves, func(c candidate) string { return c.san }), nil
}

// First plays the legal move whose coordinate notation sorts first.
type First struct{}

// RequestMove implements Mover.
func (First) RequestMove(_ context.Context, pos *chess.Position, _ Clock) (string, error) {
	moves, err := legalMoves(pos)
	if err != nil {
		return "", err
	}
	return firstBy(moves, func(c candidate) string { return c.uci }), nil
}

// comboThreshold splits Combo between its two strategies.
const comboThreshold = 10 * time.Second

// Combo plays randomly while time is plentiful and falls back to First
// when remaining/60 + increment drops to ten seconds or less.
type Combo struct {
	random *Random
}

// NewCombo returns a combo mover.
func NewCombo(seed int64) *Combo {
	return &Combo{random: NewRandom(seed)}
}

// RequestMove implements Mover.
func (c *Combo) RequestMove(ctx context.Context, pos *chess.Position, clock Clock) (string, error) {
	if clock.Remaining/60+clock.Increment > comboThreshold {
		return c.random.RequestMove(ctx, pos, clock)
	}
	return First{}.RequestMove(ctx, pos, clock)
}
