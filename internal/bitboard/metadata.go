package bitboard

import "github.com/lgbarn/mystic-bridge/internal/chess"

// Metadata packs the non-placement state of a position:
//
//	bits 16-31  fullmove number
//	bits  9-15  halfmove clock
//	bit   8     side to move (1 = White)
//	bit   7     en passant available
//	bits  4-6   en passant file
//	bit   3     Black kingside castle
//	bit   2     Black queenside castle
//	bit   1     White kingside castle
//	bit   0     White queenside castle
type Metadata uint32

const (
	fullmoveShift  = 16
	halfmoveShift  = 9
	halfmoveMask   = 0x7F
	turnBit        = 8
	epFlagBit      = 7
	epFileShift    = 4
	epFileMask     = 0x7
	blackKingside  = 3
	blackQueenside = 2
	whiteKingside  = 1
	whiteQueenside = 0
)

// PackMetadata builds the metadata word for pos.
func PackMetadata(pos *chess.Position) Metadata {
	var m Metadata
	m |= Metadata(min(pos.FullmoveNumber, chess.MaxFullmoveNumber)) << fullmoveShift
	m |= Metadata(min(pos.HalfmoveClock, chess.MaxHalfmoveClock)&halfmoveMask) << halfmoveShift
	if pos.ToMove == chess.White {
		m |= 1 << turnBit
	}
	if pos.EnPassant {
		m |= 1 << epFlagBit
		m |= Metadata(pos.EPFile&epFileMask) << epFileShift
	}
	m |= flag(pos.Castling.BlackKingside) << blackKingside
	m |= flag(pos.Castling.BlackQueenside) << blackQueenside
	m |= flag(pos.Castling.WhiteKingside) << whiteKingside
	m |= flag(pos.Castling.WhiteQueenside) << whiteQueenside
	return m
}

// UnpackMetadata writes the metadata fields into pos.
func UnpackMetadata(m Metadata, pos *chess.Position) {
	pos.FullmoveNumber = uint(m >> fullmoveShift)
	pos.HalfmoveClock = uint((m >> halfmoveShift) & halfmoveMask)
	pos.ToMove = m.SideToMove()
	pos.EnPassant = m.has(epFlagBit)
	pos.EPFile = 0
	if pos.EnPassant {
		pos.EPFile = int((m >> epFileShift) & epFileMask)
	}
	pos.Castling = chess.CastlingRights{
		WhiteKingside:  m.has(whiteKingside),
		WhiteQueenside: m.has(whiteQueenside),
		BlackKingside:  m.has(blackKingside),
		BlackQueenside: m.has(blackQueenside),
	}
}

// SideToMove returns the colour whose turn it is.
func (m Metadata) SideToMove() chess.Colour {
	if m.has(turnBit) {
		return chess.White
	}
	return chess.Black
}

func (m Metadata) has(bit uint) bool {
	return m&(1<<bit) != 0
}

func flag(b bool) Metadata {
	if b {
		return 1
	}
	return 0
}
