// Package hashing provides duplicate detection for analysed positions.
package hashing

import (
	"github.com/lgbarn/mystic-bridge/internal/chess"
)

// DuplicateDetector tracks seen positions.
type DuplicateDetector struct {
	// hashTable stores seen signatures by Zobrist hash
	hashTable map[uint64][]PositionSignature
	// useExactMatch also compares the halfmove and fullmove clocks
	useExactMatch bool
	// duplicateCount tracks number of duplicates found
	duplicateCount int
}

// PositionSignature stores identifying information about a position.
type PositionSignature struct {
	// Hash is the Zobrist hash of the position
	Hash uint64
	// WeakHash is a fast hash for quick comparison
	WeakHash uint64
	// Clocks are compared only in exact mode
	HalfmoveClock  uint
	FullmoveNumber uint
	// Index is the caller's identifier for the first occurrence
	Index int
}

// NewDuplicateDetector creates a new duplicate detector.
func NewDuplicateDetector(exactMatch bool) *DuplicateDetector {
	return &DuplicateDetector{
		hashTable:     make(map[uint64][]PositionSignature),
		useExactMatch: exactMatch,
	}
}

// CheckAndAdd checks whether pos has been seen before and records it if not.
// For a duplicate it returns the index the position was first added with.
func (d *DuplicateDetector) CheckAndAdd(pos *chess.Position, index int) (first int, duplicate bool) {
	if pos == nil {
		return index, false
	}

	sig := PositionSignature{
		Hash:           GenerateZobristHash(pos),
		WeakHash:       WeakHash(pos),
		HalfmoveClock:  pos.HalfmoveClock,
		FullmoveNumber: pos.FullmoveNumber,
		Index:          index,
	}

	for _, existing := range d.hashTable[sig.Hash] {
		if d.signaturesMatch(sig, existing) {
			d.duplicateCount++
			return existing.Index, true
		}
	}

	d.hashTable[sig.Hash] = append(d.hashTable[sig.Hash], sig)
	return index, false
}

func (d *DuplicateDetector) signaturesMatch(a, b PositionSignature) bool {
	if a.Hash != b.Hash || a.WeakHash != b.WeakHash {
		return false
	}
	if d.useExactMatch {
		return a.HalfmoveClock == b.HalfmoveClock && a.FullmoveNumber == b.FullmoveNumber
	}
	return true
}

// DuplicateCount returns the number of duplicates detected.
func (d *DuplicateDetector) DuplicateCount() int {
	return d.duplicateCount
}

// UniqueCount returns the number of unique positions.
func (d *DuplicateDetector) UniqueCount() int {
	count := 0
	for _, sigs := range d.hashTable {
		count += len(sigs)
	}
	return count
}

// Reset clears the hash table.
func (d *DuplicateDetector) Reset() {
	d.hashTable = make(map[uint64][]PositionSignature)
	d.duplicateCount = 0
}
