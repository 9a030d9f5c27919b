package bitboard

import (
	"encoding/json"
	"fmt"
	"math/big"
	"math/bits"
	"strings"

	"github.com/lgbarn/mystic-bridge/internal/chess"
)

// Bitmap is a 128-bit presence map: the low 64 bits hold White's pieces,
// the high 64 bits Black's.
type Bitmap struct {
	Hi uint64
	Lo uint64
}

// BitIndex returns the bitmap index for a piece of colour on sq.
func BitIndex(colour chess.Colour, sq chess.Square) int {
	c := 0
	if colour == chess.Black {
		c = 1
	}
	return 64*c + (63 - int(sq))
}

// SquareAt inverts BitIndex.
func SquareAt(index int) (chess.Colour, chess.Square) {
	if index <= 63 {
		return chess.White, chess.Square(63 - index)
	}
	return chess.Black, chess.Square(63 - (index - 64))
}

// Set sets bit i.
func (b *Bitmap) Set(i int) {
	if i < 64 {
		b.Lo |= 1 << uint(i)
	} else {
		b.Hi |= 1 << uint(i-64)
	}
}

// Has reports whether bit i is set.
func (b Bitmap) Has(i int) bool {
	if i < 64 {
		return b.Lo&(1<<uint(i)) != 0
	}
	return b.Hi&(1<<uint(i-64)) != 0
}

// IsZero reports whether no bit is set.
func (b Bitmap) IsZero() bool {
	return b.Hi == 0 && b.Lo == 0
}

// OnesCount returns the number of set bits.
func (b Bitmap) OnesCount() int {
	return bits.OnesCount64(b.Hi) + bits.OnesCount64(b.Lo)
}

// Or returns the union of b and o.
func (b Bitmap) Or(o Bitmap) Bitmap {
	return Bitmap{Hi: b.Hi | o.Hi, Lo: b.Lo | o.Lo}
}

// BigInt returns the bitmap as a non-negative integer.
func (b Bitmap) BigInt() *big.Int {
	n := new(big.Int).SetUint64(b.Hi)
	n.Lsh(n, 64)
	return n.Or(n, new(big.Int).SetUint64(b.Lo))
}

// String returns the decimal form used in board files.
func (b Bitmap) String() string {
	return b.BigInt().String()
}

// FromBigInt converts an integer in [0, 2^128) to a Bitmap.
func FromBigInt(n *big.Int) (Bitmap, error) {
	if n.Sign() < 0 || n.BitLen() > 128 {
		return Bitmap{}, fmt.Errorf("bitmap %s out of 128-bit range", n)
	}
	lo := new(big.Int).And(n, new(big.Int).SetUint64(^uint64(0)))
	hi := new(big.Int).Rsh(n, 64)
	return Bitmap{Hi: hi.Uint64(), Lo: lo.Uint64()}, nil
}

// ParseBitmap parses a decimal bitmap.
func ParseBitmap(s string) (Bitmap, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return Bitmap{}, fmt.Errorf("bitmap %q is not a decimal integer", s)
	}
	return FromBigInt(n)
}

// MarshalJSON writes the bitmap as a decimal string; 128-bit values do not
// survive float64 JSON decoders.
func (b Bitmap) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// UnmarshalJSON accepts a decimal string or a bare JSON integer.
func (b *Bitmap) UnmarshalJSON(data []byte) error {
	s := string(data)
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	parsed, err := ParseBitmap(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
