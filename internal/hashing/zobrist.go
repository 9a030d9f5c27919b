package hashing

import (
	"github.com/lgbarn/mystic-bridge/internal/chess"
)

// Zobrist keys, indexed by [colour][piece][square].
var (
	pieceKeys     [2][chess.NumPieceValues][chess.BoardSize * chess.BoardSize]uint64
	whiteToMove   uint64
	castlingKeys  [4]uint64
	enPassantKeys [chess.BoardSize]uint64
)

func init() {
	// Fixed seed so hashes are stable across runs.
	state := uint64(0x6d79737469632d62)
	next := func() uint64 {
		// splitmix64
		state += 0x9e3779b97f4a7c15
		z := state
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		return z ^ (z >> 31)
	}

	for c := range pieceKeys {
		for p := chess.Pawn; p < chess.NumPieceValues; p++ {
			for sq := range pieceKeys[c][p] {
				pieceKeys[c][p][sq] = next()
			}
		}
	}
	whiteToMove = next()
	for i := range castlingKeys {
		castlingKeys[i] = next()
	}
	for i := range enPassantKeys {
		enPassantKeys[i] = next()
	}
}

// GenerateZobristHash hashes piece placement, side to move, castling rights
// and the en passant file. Clocks are not part of the hash.
func GenerateZobristHash(pos *chess.Position) uint64 {
	var hash uint64
	for sq, piece := range pos.Squares {
		if piece == chess.Empty {
			continue
		}
		kind := chess.ExtractPiece(piece)
		if kind <= chess.Empty || kind >= chess.NumPieceValues {
			continue
		}
		hash ^= pieceKeys[chess.ExtractColour(piece)][kind][sq]
	}

	if pos.ToMove == chess.White {
		hash ^= whiteToMove
	}
	rights := []bool{
		pos.Castling.WhiteKingside, pos.Castling.WhiteQueenside,
		pos.Castling.BlackKingside, pos.Castling.BlackQueenside,
	}
	for i, ok := range rights {
		if ok {
			hash ^= castlingKeys[i]
		}
	}
	if pos.EnPassant && pos.EPFile >= 0 && pos.EPFile < chess.BoardSize {
		hash ^= enPassantKeys[pos.EPFile]
	}
	return hash
}

// WeakHash is a cheap secondary hash over the occupied squares. Two
// positions that collide on the Zobrist hash are unlikely to collide here.
func WeakHash(pos *chess.Position) uint64 {
	var hash uint64
	for sq, piece := range pos.Squares {
		if piece != chess.Empty {
			hash = hash*31 + uint64(sq)*uint64(piece)
		}
	}
	return hash
}
