// Package eco provides ECO (Encyclopaedia of Chess Openings) classification
// of hosted games.
package eco

import (
	"sync"

	rules "github.com/notnil/chess"
	"github.com/notnil/chess/opening"
)

// ECOEntry represents a single ECO classification.
type ECOEntry struct {
	ECOCode string // e.g., "B33"
	Opening string // e.g., "Sicilian Defense: Lasker-Pelikan Variation"
}

// ECOClassifier classifies games against the built-in ECO book.
type ECOClassifier struct {
	book *opening.BookECO
}

var (
	bookOnce sync.Once
	book     *opening.BookECO
)

// NewECOClassifier returns a classifier. The book is parsed once and shared.
func NewECOClassifier() *ECOClassifier {
	bookOnce.Do(func() {
		book = opening.NewBookECO()
	})
	return &ECOClassifier{book: book}
}

// ClassifyGame returns the most specific opening the game's moves follow,
// or nil when none matches. The game must start from the standard position.
func (ec *ECOClassifier) ClassifyGame(game *rules.Game) *ECOEntry {
	return ec.ClassifyMoves(game.Moves())
}

// ClassifyMoves classifies a move sequence from the standard position.
func (ec *ECOClassifier) ClassifyMoves(moves []*rules.Move) *ECOEntry {
	if len(moves) == 0 {
		return nil
	}
	o := ec.book.Find(moves)
	if o == nil {
		return nil
	}
	return &ECOEntry{ECOCode: o.Code(), Opening: o.Title()}
}
