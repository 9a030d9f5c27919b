package chess

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/lgbarn/mystic-bridge/internal/errors"
)

// InitialFEN is the FEN string for the standard starting position.
const InitialFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ConvertFENCharToPiece converts a FEN character to a piece type.
func ConvertFENCharToPiece(c byte) Piece {
	switch c {
	case 'K', 'k':
		return King
	case 'Q', 'q':
		return Queen
	case 'R', 'r':
		return Rook
	case 'N', 'n':
		return Knight
	case 'B', 'b':
		return Bishop
	case 'P', 'p':
		return Pawn
	default:
		return Empty
	}
}

// ColouredPieceToFENLetter returns the FEN letter for a coloured piece.
func ColouredPieceToFENLetter(colouredPiece Piece) byte {
	letter := ExtractPiece(colouredPiece).Letter()
	if ExtractColour(colouredPiece) == Black {
		letter = byte(unicode.ToLower(rune(letter)))
	}
	return letter
}

// ParseFEN creates a position from a FEN string. Missing trailing fields
// fall back to their starting-position defaults.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 1 {
		return nil, fmt.Errorf("empty FEN string: %w", errors.ErrInvalidFEN)
	}

	pos := NewPosition()

	if err := parsePiecePositions(pos, parts[0]); err != nil {
		return nil, err
	}
	if err := parseSideToMove(pos, parts); err != nil {
		return nil, err
	}
	if err := parseCastlingRights(pos, parts); err != nil {
		return nil, err
	}
	if err := parseEnPassant(pos, parts); err != nil {
		return nil, err
	}
	if err := parseClocks(pos, parts); err != nil {
		return nil, err
	}
	if err := pos.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, errors.ErrInvalidFEN)
	}

	return pos, nil
}

// parsePiecePositions parses the piece placement field of a FEN string.
func parsePiecePositions(pos *Position, placement string) error {
	rank := BoardSize - 1
	file := 0

	for _, c := range placement {
		switch {
		case c == '/':
			if file != BoardSize {
				return fmt.Errorf("rank %d has %d files: %w", rank+1, file, errors.ErrInvalidFEN)
			}
			rank--
			file = 0
		case c >= '1' && c <= '8':
			file += int(c - '0')
		default:
			piece := ConvertFENCharToPiece(byte(c))
			if piece == Empty {
				return fmt.Errorf("invalid piece character: %c: %w", c, errors.ErrInvalidFEN)
			}
			if file >= BoardSize || rank < 0 {
				return fmt.Errorf("position out of bounds: %w", errors.ErrInvalidFEN)
			}

			colour := White
			if unicode.IsLower(c) {
				colour = Black
			}
			pos.Set(NewSquare(file, rank), MakeColouredPiece(colour, piece))
			file++
		}
	}
	if rank != 0 || file != BoardSize {
		return fmt.Errorf("incomplete piece placement %q: %w", placement, errors.ErrInvalidFEN)
	}
	return nil
}

// parseSideToMove parses the side to move field.
func parseSideToMove(pos *Position, parts []string) error {
	if len(parts) < 2 {
		return nil
	}
	switch parts[1] {
	case "w":
		pos.ToMove = White
	case "b":
		pos.ToMove = Black
	default:
		return fmt.Errorf("invalid side to move: %s: %w", parts[1], errors.ErrInvalidFEN)
	}
	return nil
}

// parseCastlingRights parses the castling availability field.
func parseCastlingRights(pos *Position, parts []string) error {
	pos.Castling = CastlingRights{}
	if len(parts) < 3 {
		pos.Castling = AllCastlingRights
		return nil
	}
	if parts[2] == "-" {
		return nil
	}

	for _, c := range parts[2] {
		switch c {
		case 'K':
			pos.Castling.WhiteKingside = true
		case 'Q':
			pos.Castling.WhiteQueenside = true
		case 'k':
			pos.Castling.BlackKingside = true
		case 'q':
			pos.Castling.BlackQueenside = true
		default:
			return fmt.Errorf("invalid castling character: %c: %w", c, errors.ErrInvalidFEN)
		}
	}
	return nil
}

// parseEnPassant parses the en passant target square field.
// Only the file is kept; the rank is implied by the side to move.
func parseEnPassant(pos *Position, parts []string) error {
	pos.EnPassant = false
	if len(parts) < 4 || parts[3] == "-" {
		return nil
	}
	sq, err := ParseSquare(parts[3])
	if err != nil {
		return fmt.Errorf("%v: %w", err, errors.ErrInvalidFEN)
	}
	pos.EnPassant = true
	pos.EPFile = sq.File()
	return nil
}

// parseClocks parses the halfmove clock and fullmove number fields.
func parseClocks(pos *Position, parts []string) error {
	if len(parts) >= 5 {
		n, err := strconv.ParseUint(parts[4], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid halfmove clock %q: %w", parts[4], errors.ErrInvalidFEN)
		}
		// The packed format carries 7 bits; past 100 the fifty-move rule
		// already applies, so saturate.
		pos.HalfmoveClock = uint(min(n, MaxHalfmoveClock))
	}
	if len(parts) >= 6 {
		n, err := strconv.ParseUint(parts[5], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid fullmove number %q: %w", parts[5], errors.ErrInvalidFEN)
		}
		pos.FullmoveNumber = uint(n)
	}
	return nil
}

// FEN converts the position to a FEN string.
func (p *Position) FEN() string {
	var sb strings.Builder

	writePiecePositions(&sb, p)
	sb.WriteByte(' ')
	if p.ToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	sb.WriteByte(' ')
	writeCastlingRights(&sb, p.Castling)
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassantSquare().String())
	sb.WriteByte(' ')
	fmt.Fprintf(&sb, "%d %d", p.HalfmoveClock, p.FullmoveNumber)

	return sb.String()
}

// writePiecePositions writes the piece placement to the builder.
func writePiecePositions(sb *strings.Builder, p *Position) {
	for rank := BoardSize - 1; rank >= 0; rank-- {
		emptyCount := 0
		for file := 0; file < BoardSize; file++ {
			piece := p.Get(NewSquare(file, rank))
			if piece == Empty {
				emptyCount++
				continue
			}
			if emptyCount > 0 {
				sb.WriteByte(byte('0' + emptyCount))
				emptyCount = 0
			}
			sb.WriteByte(ColouredPieceToFENLetter(piece))
		}
		if emptyCount > 0 {
			sb.WriteByte(byte('0' + emptyCount))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
}

// writeCastlingRights writes the castling availability to the builder.
func writeCastlingRights(sb *strings.Builder, c CastlingRights) {
	start := sb.Len()
	if c.WhiteKingside {
		sb.WriteByte('K')
	}
	if c.WhiteQueenside {
		sb.WriteByte('Q')
	}
	if c.BlackKingside {
		sb.WriteByte('k')
	}
	if c.BlackQueenside {
		sb.WriteByte('q')
	}
	if sb.Len() == start {
		sb.WriteByte('-')
	}
}
