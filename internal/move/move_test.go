package move

import (
	"errors"
	"testing"

	"github.com/lgbarn/mystic-bridge/internal/chess"
	bridgeerrors "github.com/lgbarn/mystic-bridge/internal/errors"
)

func sq(t *testing.T, name string) chess.Square {
	t.Helper()
	s, err := chess.ParseSquare(name)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", name, err)
	}
	return s
}

func TestPawnDoubleStep(t *testing.T) {
	m := New(sq(t, "e2"), sq(t, "e4"))

	if got := m.Source(); got != 12 {
		t.Errorf("Source() = %d, want 12", got)
	}
	if got := m.Destination(); got != 28 {
		t.Errorf("Destination() = %d, want 28", got)
	}
	if got := uint32(m); got != 12<<6|28 {
		t.Errorf("packed = %#x, want %#x", got, 12<<6|28)
	}

	s, err := Decode(m, chess.White)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if s != "e2e4" {
		t.Errorf("Decode() = %q, want %q", s, "e2e4")
	}
}

func TestDecodeCastling(t *testing.T) {
	// Garbage in the square fields must be ignored.
	garbage := New(sq(t, "h3"), sq(t, "b6"))

	tests := []struct {
		name  string
		m     PackedMove
		mover chess.Colour
		want  string
	}{
		{"white kingside", KingsideCastle() | garbage, chess.White, "e1g1"},
		{"black kingside", KingsideCastle() | garbage, chess.Black, "e8g8"},
		{"white queenside", QueensideCastle() | garbage, chess.White, "e1c1"},
		{"black queenside", QueensideCastle(), chess.Black, "e8c8"},
		{"kingside with promotion bits", KingsideCastle() | 1<<promoFlagShift, chess.White, "e1g1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.m, tt.mover)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeBothCastleFlags(t *testing.T) {
	m := KingsideCastle() | QueensideCastle()
	for _, mover := range []chess.Colour{chess.White, chess.Black} {
		_, err := Decode(m, mover)
		if !errors.Is(err, bridgeerrors.ErrInvalidEncoding) {
			t.Errorf("Decode(both flags, %v) error = %v, want ErrInvalidEncoding", mover, err)
		}
	}
}

func TestDecodePromotion(t *testing.T) {
	tests := []struct {
		promo Promotion
		want  string
	}{
		{PromoteQueen, "h7h8Q"},
		{PromoteRook, "h7h8R"},
		{PromoteBishop, "h7h8B"},
		{PromoteKnight, "h7h8N"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			m := NewPromotion(sq(t, "h7"), sq(t, "h8"), tt.promo)
			if !m.IsPromotion() {
				t.Fatal("IsPromotion() = false")
			}
			if m.Promotion() != tt.promo {
				t.Errorf("Promotion() = %d, want %d", m.Promotion(), tt.promo)
			}
			got, err := Decode(m, chess.White)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKnightPromotionBits(t *testing.T) {
	m := NewPromotion(sq(t, "h7"), sq(t, "h8"), PromoteKnight)
	if (m>>promoFlagShift)&1 != 1 {
		t.Error("promotion flag not set")
	}
	if (m>>promoTypeShift)&promoTypeMask != 3 {
		t.Errorf("promotion type = %d, want 3", (m>>promoTypeShift)&promoTypeMask)
	}
}

func TestDecodeAllNormalMoves(t *testing.T) {
	for from := chess.Square(0); from < 64; from++ {
		for to := chess.Square(0); to < 64; to++ {
			if from == to {
				continue
			}
			got, err := Decode(New(from, to), chess.Black)
			if err != nil {
				t.Fatalf("Decode(%s%s) error = %v", from, to, err)
			}
			if want := from.String() + to.String(); got != want {
				t.Fatalf("Decode() = %q, want %q", got, want)
			}
		}
	}
}

func TestParse(t *testing.T) {
	start := chess.NewInitialPosition()
	castleReady, err := chess.ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		s       string
		pos     *chess.Position
		want    PackedMove
		wantErr bool
	}{
		{"normal", "e2e4", start, New(12, 28), false},
		{"promotion lower", "h7h8n", nil, NewPromotion(55, 63, PromoteKnight), false},
		{"promotion upper", "a2a1Q", nil, NewPromotion(8, 0, PromoteQueen), false},
		{"white kingside", "e1g1", castleReady, KingsideCastle(), false},
		{"black queenside", "e8c8", castleReady, QueensideCastle(), false},
		{"king step not castle", "e1f1", castleReady, New(chess.E1, 5), false},
		{"non-king e1g1", "e1g1", chess.NewPosition(), New(chess.E1, chess.G1), false},
		{"too short", "e2e", nil, 0, true},
		{"off board", "e2e9", nil, 0, true},
		{"bad promotion", "h7h8K", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.s, tt.pos)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.s, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, bridgeerrors.ErrInvalidEncoding) {
					t.Errorf("Parse(%q) error = %v, want ErrInvalidEncoding", tt.s, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %#x, want %#x", tt.s, uint32(got), uint32(tt.want))
			}
		})
	}
}

func TestParseDecodeRoundTrip(t *testing.T) {
	pos, err := chess.ParseFEN("r3k2r/1P6/8/8/8/8/6p1/R3K2R b KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"e8g8", "e8c8", "g2g1Q", "g2h1N", "a8a1"} {
		m, err := Parse(s, pos)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", s, err)
		}
		got, err := Decode(m, pos.ToMove)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if got != s {
			t.Errorf("Decode(Parse(%q)) = %q", s, got)
		}
	}
}

func TestPromotionPiece(t *testing.T) {
	want := map[Promotion]chess.Piece{
		PromoteQueen:  chess.Queen,
		PromoteRook:   chess.Rook,
		PromoteBishop: chess.Bishop,
		PromoteKnight: chess.Knight,
	}
	for promo, piece := range want {
		if got := promo.Piece(); got != piece {
			t.Errorf("%d.Piece() = %v, want %v", promo, got, piece)
		}
	}
}
