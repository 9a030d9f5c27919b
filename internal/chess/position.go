package chess

import "fmt"

// Largest clock values the packed metadata can carry.
const (
	MaxHalfmoveClock  = 127
	MaxFullmoveNumber = 0xFFFF
)

// Position holds everything the packed board format tracks.
type Position struct {
	// Squares holds coloured pieces (see MakeColouredPiece) or Empty.
	Squares [BoardSize * BoardSize]Piece

	// Who has the next move.
	ToMove Colour

	// Castling availability for both sides.
	Castling CastlingRights

	// Is an en passant capture possible? If so, EPFile holds its file (0-7).
	// The rank is implied by the side to move.
	EnPassant bool
	EPFile    int

	// The half-move clock since the last pawn move or capture.
	HalfmoveClock uint

	// The current move number.
	FullmoveNumber uint
}

// NewPosition creates an empty position with White to move.
func NewPosition() *Position {
	return &Position{
		ToMove:         White,
		FullmoveNumber: 1,
	}
}

// NewInitialPosition creates a position with the standard starting setup.
func NewInitialPosition() *Position {
	p := NewPosition()
	p.SetupInitialPosition()
	return p
}

// SetupInitialPosition sets up the standard chess starting position.
func (p *Position) SetupInitialPosition() {
	p.Squares = [BoardSize * BoardSize]Piece{}

	backRank := []Piece{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for file := 0; file < BoardSize; file++ {
		p.Squares[NewSquare(file, 0)] = W(backRank[file])
		p.Squares[NewSquare(file, 1)] = W(Pawn)
		p.Squares[NewSquare(file, 6)] = B(Pawn)
		p.Squares[NewSquare(file, 7)] = B(backRank[file])
	}

	p.ToMove = White
	p.Castling = AllCastlingRights
	p.EnPassant = false
	p.EPFile = 0
	p.HalfmoveClock = 0
	p.FullmoveNumber = 1
}

// Get returns the coloured piece on sq, or Empty.
func (p *Position) Get(sq Square) Piece {
	if !sq.Valid() {
		return Empty
	}
	return p.Squares[sq]
}

// Set places a coloured piece on sq. Setting Empty clears the square.
func (p *Position) Set(sq Square, piece Piece) {
	if sq.Valid() {
		p.Squares[sq] = piece
	}
}

// EnPassantSquare returns the en passant target square, or NoSquare.
// The target lies on the rank the capturing side's pawn moves to:
// rank 6 when White is to move, rank 3 when Black is.
func (p *Position) EnPassantSquare() Square {
	if !p.EnPassant {
		return NoSquare
	}
	if p.ToMove == White {
		return NewSquare(p.EPFile, 5)
	}
	return NewSquare(p.EPFile, 2)
}

// KingSquare returns the square of colour's king, or NoSquare.
func (p *Position) KingSquare(colour Colour) Square {
	king := MakeColouredPiece(colour, King)
	for sq, piece := range p.Squares {
		if piece == king {
			return Square(sq)
		}
	}
	return NoSquare
}

// Validate checks the structural invariants of the position.
func (p *Position) Validate() error {
	kings := map[Colour]int{}
	for sq, piece := range p.Squares {
		if piece == Empty {
			continue
		}
		kind := ExtractPiece(piece)
		if kind <= Empty || kind >= NumPieceValues {
			return fmt.Errorf("square %s holds unknown piece %d", Square(sq), piece)
		}
		if kind == King {
			kings[ExtractColour(piece)]++
		}
	}
	for _, colour := range []Colour{White, Black} {
		if kings[colour] > 1 {
			return fmt.Errorf("%s has %d kings", colour, kings[colour])
		}
	}
	if p.ToMove != White && p.ToMove != Black {
		return fmt.Errorf("invalid side to move %d", p.ToMove)
	}
	if p.EnPassant && (p.EPFile < 0 || p.EPFile >= BoardSize) {
		return fmt.Errorf("invalid en passant file %d", p.EPFile)
	}
	if p.HalfmoveClock > MaxHalfmoveClock {
		return fmt.Errorf("halfmove clock %d exceeds %d", p.HalfmoveClock, MaxHalfmoveClock)
	}
	if p.FullmoveNumber > MaxFullmoveNumber {
		return fmt.Errorf("fullmove number %d exceeds %d", p.FullmoveNumber, MaxFullmoveNumber)
	}
	return nil
}

// Copy creates a deep copy of the position.
func (p *Position) Copy() *Position {
	newPos := &Position{}
	*newPos = *p
	return newPos
}
