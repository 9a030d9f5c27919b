package bitboard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lgbarn/mystic-bridge/internal/move"
)

// jsonBoard is the board file schema. Keys are unordered; "king" is accepted
// as an alias of "kings", and the simpler en_passant / castling_rights keys
// are folded into metadata when metadata itself is absent.
//
// In the simpler variant castling_rights holds metadata bits 0-3 and
// en_passant holds metadata bits 4-7 shifted down: bit 3 says a capture is
// possible and bits 0-2 give its file. An en_passant without bit 3 is
// ignored.
type jsonBoard struct {
	Rooks          Bitmap          `json:"rooks"`
	Knights        Bitmap          `json:"knights"`
	Bishops        Bitmap          `json:"bishops"`
	Queens         Bitmap          `json:"queens"`
	Kings          *Bitmap         `json:"kings,omitempty"`
	King           *Bitmap         `json:"king,omitempty"`
	Pawns          Bitmap          `json:"pawns"`
	Metadata       *Metadata       `json:"metadata,omitempty"`
	LatestMove     move.PackedMove `json:"latest_move"`
	EnPassant      *uint16         `json:"en_passant,omitempty"`
	CastlingRights *uint8          `json:"castling_rights,omitempty"`
}

// simpleEPFlag is the en-passant flag of the simpler variant's en_passant
// value, metadata bit 7 seen from bit 4.
const simpleEPFlag = 1 << (epFlagBit - epFileShift)

// MarshalJSON writes the board in the engine's file schema.
func (pb PackedBoard) MarshalJSON() ([]byte, error) {
	kings := pb.Kings
	meta := pb.Metadata
	return json.Marshal(jsonBoard{
		Rooks:      pb.Rooks,
		Knights:    pb.Knights,
		Bishops:    pb.Bishops,
		Queens:     pb.Queens,
		Kings:      &kings,
		Pawns:      pb.Pawns,
		Metadata:   &meta,
		LatestMove: pb.LatestMove,
	})
}

// UnmarshalJSON reads any of the board file variants.
func (pb *PackedBoard) UnmarshalJSON(data []byte) error {
	var jb jsonBoard
	if err := json.Unmarshal(data, &jb); err != nil {
		return err
	}

	*pb = PackedBoard{
		Rooks:      jb.Rooks,
		Knights:    jb.Knights,
		Bishops:    jb.Bishops,
		Queens:     jb.Queens,
		Pawns:      jb.Pawns,
		LatestMove: jb.LatestMove,
	}

	switch {
	case jb.Kings != nil && jb.King != nil:
		return fmt.Errorf("board has both \"kings\" and \"king\"")
	case jb.Kings != nil:
		pb.Kings = *jb.Kings
	case jb.King != nil:
		pb.Kings = *jb.King
	}

	if jb.Metadata != nil {
		pb.Metadata = *jb.Metadata
		return nil
	}

	// Simpler variant: White to move, move one, flags as given.
	pb.Metadata = 1<<fullmoveShift | 1<<turnBit
	if jb.CastlingRights != nil {
		pb.Metadata |= Metadata(*jb.CastlingRights & 0xF)
	}
	if jb.EnPassant != nil && *jb.EnPassant&simpleEPFlag != 0 {
		pb.Metadata |= Metadata(*jb.EnPassant&0xF) << epFileShift
	}
	return nil
}

// Marshal returns the board as indented JSON, the way board files are written.
func Marshal(pb PackedBoard) ([]byte, error) {
	return json.MarshalIndent(pb, "", "  ")
}

// MarshalLine returns the board as a single line of JSON.
func MarshalLine(pb PackedBoard) ([]byte, error) {
	return json.Marshal(pb)
}

// Unmarshal parses a board file.
func Unmarshal(data []byte) (PackedBoard, error) {
	var pb PackedBoard
	if err := json.Unmarshal(data, &pb); err != nil {
		return PackedBoard{}, err
	}
	return pb, nil
}

// ReadFile loads a board file.
func ReadFile(path string) (PackedBoard, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the engine board file chosen by configuration
	if err != nil {
		return PackedBoard{}, err
	}
	pb, err := Unmarshal(data)
	if err != nil {
		return PackedBoard{}, fmt.Errorf("%s: %w", path, err)
	}
	return pb, nil
}

// WriteFile stores a board file. The data is written to a sibling temporary
// file and renamed into place so a reader never sees a partial board.
func WriteFile(path string, pb PackedBoard) error {
	data, err := Marshal(pb)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // already renamed on success

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
