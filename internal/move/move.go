// Package move packs and unpacks the engine's compact move integer.
//
// Layout (low bit first):
//
//	bits  0-5   destination square (a1 = 0 ... h8 = 63)
//	bits  6-11  source square
//	bit   12    queenside castle
//	bit   13    kingside castle
//	bits 14-15  promotion type (0 = Q, 1 = R, 2 = B, 3 = N)
//	bit   16    promotion flag
//
// When a castle flag is set the square fields are ignored and the mover's
// colour selects the rank.
package move

import (
	"fmt"
	"strings"

	"github.com/lgbarn/mystic-bridge/internal/chess"
	"github.com/lgbarn/mystic-bridge/internal/errors"
)

// PackedMove is the wire form of a single move.
type PackedMove uint32

const (
	squareMask     = 0x3F
	sourceShift    = 6
	queensideShift = 12
	kingsideShift  = 13
	promoTypeShift = 14
	promoTypeMask  = 0x3
	promoFlagShift = 16
)

// Promotion is the 2-bit promotion type.
type Promotion uint8

const (
	PromoteQueen Promotion = iota
	PromoteRook
	PromoteBishop
	PromoteKnight
)

var promotionLetters = [...]byte{'Q', 'R', 'B', 'N'}

// Letter returns the suffix letter used in move strings.
func (p Promotion) Letter() byte {
	return promotionLetters[p&promoTypeMask]
}

// Piece returns the piece type promoted to.
func (p Promotion) Piece() chess.Piece {
	switch p & promoTypeMask {
	case PromoteRook:
		return chess.Rook
	case PromoteBishop:
		return chess.Bishop
	case PromoteKnight:
		return chess.Knight
	default:
		return chess.Queen
	}
}

// PromotionFromLetter maps Q/R/B/N (either case) to a promotion type.
func PromotionFromLetter(c byte) (Promotion, bool) {
	for i, l := range promotionLetters {
		if l == c || l+('a'-'A') == c {
			return Promotion(i), true
		}
	}
	return 0, false
}

// New packs a normal move.
func New(from, to chess.Square) PackedMove {
	return PackedMove(uint32(from&squareMask)<<sourceShift | uint32(to&squareMask))
}

// NewPromotion packs a pawn promotion.
func NewPromotion(from, to chess.Square, promo Promotion) PackedMove {
	return New(from, to) |
		PackedMove(uint32(promo&promoTypeMask)<<promoTypeShift) |
		1<<promoFlagShift
}

// KingsideCastle packs a kingside castle.
func KingsideCastle() PackedMove {
	return 1 << kingsideShift
}

// QueensideCastle packs a queenside castle.
func QueensideCastle() PackedMove {
	return 1 << queensideShift
}

// Source returns the source square field.
func (m PackedMove) Source() chess.Square {
	return chess.Square((m >> sourceShift) & squareMask)
}

// Destination returns the destination square field.
func (m PackedMove) Destination() chess.Square {
	return chess.Square(m & squareMask)
}

// IsKingsideCastle reports whether the kingside castle flag is set.
func (m PackedMove) IsKingsideCastle() bool {
	return (m>>kingsideShift)&1 != 0
}

// IsQueensideCastle reports whether the queenside castle flag is set.
func (m PackedMove) IsQueensideCastle() bool {
	return (m>>queensideShift)&1 != 0
}

// IsPromotion reports whether the promotion flag is set.
func (m PackedMove) IsPromotion() bool {
	return (m>>promoFlagShift)&1 != 0
}

// Promotion returns the promotion type field.
func (m PackedMove) Promotion() Promotion {
	return Promotion((m >> promoTypeShift) & promoTypeMask)
}

// Decode converts a packed move to a move string for the given mover,
// e.g. "e2e4", "h7h8N" or "e8c8".
func Decode(m PackedMove, mover chess.Colour) (string, error) {
	kingside, queenside := m.IsKingsideCastle(), m.IsQueensideCastle()
	switch {
	case kingside && queenside:
		return "", fmt.Errorf("move %#x sets both castle flags: %w", uint32(m), errors.ErrInvalidEncoding)
	case kingside:
		if mover == chess.White {
			return "e1g1", nil
		}
		return "e8g8", nil
	case queenside:
		if mover == chess.White {
			return "e1c1", nil
		}
		return "e8c8", nil
	}

	s := m.Source().String() + m.Destination().String()
	if m.IsPromotion() {
		s += string(m.Promotion().Letter())
	}
	return s, nil
}

// Parse packs a move string. The position decides whether a king's two-square
// step from its home square is a castle.
func Parse(s string, pos *chess.Position) (PackedMove, error) {
	if len(s) != 4 && len(s) != 5 {
		return 0, fmt.Errorf("move %q: %w", s, errors.ErrInvalidEncoding)
	}
	from, err := chess.ParseSquare(strings.ToLower(s[0:2]))
	if err != nil {
		return 0, fmt.Errorf("move %q: %v: %w", s, err, errors.ErrInvalidEncoding)
	}
	to, err := chess.ParseSquare(strings.ToLower(s[2:4]))
	if err != nil {
		return 0, fmt.Errorf("move %q: %v: %w", s, err, errors.ErrInvalidEncoding)
	}

	if len(s) == 5 {
		promo, ok := PromotionFromLetter(s[4])
		if !ok {
			return 0, fmt.Errorf("move %q: bad promotion letter: %w", s, errors.ErrInvalidEncoding)
		}
		return NewPromotion(from, to, promo), nil
	}

	if pos != nil && chess.ExtractPiece(pos.Get(from)) == chess.King {
		switch {
		case (from == chess.E1 && to == chess.G1) || (from == chess.E8 && to == chess.G8):
			return KingsideCastle(), nil
		case (from == chess.E1 && to == chess.C1) || (from == chess.E8 && to == chess.C8):
			return QueensideCastle(), nil
		}
	}
	return New(from, to), nil
}
