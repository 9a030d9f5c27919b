// Package chess provides the host-side position model shared by the board
// and move codecs.
package chess

import "fmt"

// Colour represents the colour of a piece or player.
// The numeric values match the side-to-move bit of the packed metadata.
type Colour int

const (
	Black Colour = iota
	White
)

// String returns the string representation of a colour.
func (c Colour) String() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// Opposite returns the opposite colour.
func (c Colour) Opposite() Colour {
	if c == White {
		return Black
	}
	return White
}

// Piece represents a chess piece type.
type Piece int

const (
	Empty Piece = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
	NumPieceValues
)

// String returns the string representation of a piece.
func (p Piece) String() string {
	names := []string{"Empty", "Pawn", "Knight", "Bishop", "Rook", "Queen", "King"}
	if int(p) >= 0 && int(p) < len(names) {
		return names[p]
	}
	return "Unknown"
}

// Letter returns the single letter representation of a piece (uppercase).
func (p Piece) Letter() byte {
	letters := []byte{' ', 'P', 'N', 'B', 'R', 'Q', 'K'}
	if int(p) >= 0 && int(p) < len(letters) {
		return letters[p]
	}
	return '?'
}

// PieceShift is used for encoding coloured pieces.
const PieceShift = 3

// MakeColouredPiece creates a coloured piece value.
func MakeColouredPiece(colour Colour, piece Piece) Piece {
	return Piece((int(piece) << PieceShift) | int(colour))
}

// W creates a white piece.
func W(piece Piece) Piece {
	return MakeColouredPiece(White, piece)
}

// B creates a black piece.
func B(piece Piece) Piece {
	return MakeColouredPiece(Black, piece)
}

// ExtractColour extracts the colour from a coloured piece.
func ExtractColour(colouredPiece Piece) Colour {
	return Colour(colouredPiece & 0x01)
}

// ExtractPiece extracts the piece type from a coloured piece.
func ExtractPiece(colouredPiece Piece) Piece {
	return Piece(colouredPiece >> PieceShift)
}

// BoardSize is the number of files and ranks.
const BoardSize = 8

// Square indexes the board from a1 = 0 through h8 = 63, rank by rank.
type Square int

// NoSquare marks an absent square.
const NoSquare Square = -1

// NewSquare builds a square from 0-based file and rank.
func NewSquare(file, rank int) Square {
	return Square(rank*BoardSize + file)
}

// File returns the 0-based file (a = 0).
func (s Square) File() int {
	return int(s) % BoardSize
}

// Rank returns the 0-based rank (rank 1 = 0).
func (s Square) Rank() int {
	return int(s) / BoardSize
}

// Valid reports whether s lies on the board.
func (s Square) Valid() bool {
	return s >= 0 && s < BoardSize*BoardSize
}

// String returns the algebraic name of the square, e.g. "e4".
func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// ParseSquare converts an algebraic square name such as "e4".
func ParseSquare(name string) (Square, error) {
	if len(name) != 2 || name[0] < 'a' || name[0] > 'h' || name[1] < '1' || name[1] > '8' {
		return NoSquare, fmt.Errorf("invalid square %q", name)
	}
	return NewSquare(int(name[0]-'a'), int(name[1]-'1')), nil
}

// Named squares used by castling.
var (
	E1 = NewSquare(4, 0)
	G1 = NewSquare(6, 0)
	C1 = NewSquare(2, 0)
	E8 = NewSquare(4, 7)
	G8 = NewSquare(6, 7)
	C8 = NewSquare(2, 7)
)

// CastlingRights holds the four castling availability flags.
type CastlingRights struct {
	WhiteKingside  bool
	WhiteQueenside bool
	BlackKingside  bool
	BlackQueenside bool
}

// Kingside reports the kingside right for colour.
func (c CastlingRights) Kingside(colour Colour) bool {
	if colour == White {
		return c.WhiteKingside
	}
	return c.BlackKingside
}

// Queenside reports the queenside right for colour.
func (c CastlingRights) Queenside(colour Colour) bool {
	if colour == White {
		return c.WhiteQueenside
	}
	return c.BlackQueenside
}

// AllCastlingRights is the starting-position castling state.
var AllCastlingRights = CastlingRights{
	WhiteKingside:  true,
	WhiteQueenside: true,
	BlackKingside:  true,
	BlackQueenside: true,
}
