// Package bitboard converts positions to and from the packed board the
// engine exchanges: one 128-bit bitmap per piece type plus a metadata word
// and the engine's latest move.
package bitboard

import (
	"github.com/lgbarn/mystic-bridge/internal/chess"
	"github.com/lgbarn/mystic-bridge/internal/errors"
	"github.com/lgbarn/mystic-bridge/internal/move"
)

// PackedBoard is the wire form of a position.
type PackedBoard struct {
	Rooks      Bitmap
	Knights    Bitmap
	Bishops    Bitmap
	Queens     Bitmap
	Kings      Bitmap
	Pawns      Bitmap
	Metadata   Metadata
	LatestMove move.PackedMove
}

// pieceMaps lists the bitmaps in file order together with the piece they hold.
func (pb *PackedBoard) pieceMaps() []pieceMap {
	return []pieceMap{
		{"rooks", chess.Rook, &pb.Rooks},
		{"knights", chess.Knight, &pb.Knights},
		{"bishops", chess.Bishop, &pb.Bishops},
		{"queens", chess.Queen, &pb.Queens},
		{"kings", chess.King, &pb.Kings},
		{"pawns", chess.Pawn, &pb.Pawns},
	}
}

type pieceMap struct {
	name  string
	piece chess.Piece
	bits  *Bitmap
}

// bitmapFor returns the bitmap holding piece.
func (pb *PackedBoard) bitmapFor(piece chess.Piece) *Bitmap {
	for _, pm := range pb.pieceMaps() {
		if pm.piece == piece {
			return pm.bits
		}
	}
	return nil
}

// Occupied returns the union of all piece bitmaps.
func (pb *PackedBoard) Occupied() Bitmap {
	var all Bitmap
	for _, pm := range pb.pieceMaps() {
		all = all.Or(*pm.bits)
	}
	return all
}

// NumPieces counts the pieces on the board.
func (pb *PackedBoard) NumPieces() int {
	n := 0
	for _, pm := range pb.pieceMaps() {
		n += pm.bits.OnesCount()
	}
	return n
}

// Encode packs pos. LatestMove is left zero.
func Encode(pos *chess.Position) PackedBoard {
	var pb PackedBoard
	for i, cp := range pos.Squares {
		if cp == chess.Empty {
			continue
		}
		bm := pb.bitmapFor(chess.ExtractPiece(cp))
		if bm == nil {
			continue
		}
		bm.Set(BitIndex(chess.ExtractColour(cp), chess.Square(i)))
	}
	pb.Metadata = PackMetadata(pos)
	return pb
}

// Decode unpacks pb into a position. It fails with ErrMalformedBoard when two
// bitmaps claim the same index, when White and Black share a square, or when
// a side has more than one king.
func Decode(pb PackedBoard) (*chess.Position, error) {
	pos := chess.NewPosition()
	maps := pb.pieceMaps()

	for index := 127; index >= 0; index-- {
		var claimed []pieceMap
		for _, pm := range maps {
			if pm.bits.Has(index) {
				claimed = append(claimed, pm)
			}
		}
		if len(claimed) == 0 {
			continue
		}
		if len(claimed) > 1 {
			names := make([]string, len(claimed))
			for i, pm := range claimed {
				names[i] = pm.name
			}
			return nil, &errors.BoardError{Err: errors.ErrMalformedBoard, Index: index, Pieces: names}
		}

		colour, sq := SquareAt(index)
		if existing := pos.Get(sq); existing != chess.Empty {
			return nil, &errors.BoardError{
				Err:    errors.ErrMalformedBoard,
				Index:  index,
				Pieces: []string{claimed[0].name, chess.ExtractColour(existing).String() + " " + chess.ExtractPiece(existing).String()},
			}
		}
		pos.Set(sq, chess.MakeColouredPiece(colour, claimed[0].piece))
	}

	UnpackMetadata(pb.Metadata, pos)

	if err := pos.Validate(); err != nil {
		return nil, &errors.BoardError{Err: errors.Wrap(errors.ErrMalformedBoard, err.Error()), Index: -1}
	}
	return pos, nil
}
