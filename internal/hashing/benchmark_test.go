package hashing

import (
	"testing"

	"github.com/lgbarn/mystic-bridge/internal/chess"
)

var benchFENPositions = map[string]string{
	"Initial":   chess.InitialFEN,
	"Midgame":   "r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4",
	"Endgame":   "8/5k2/8/8/8/8/5K2/4R3 w - - 0 1",
	"EnPassant": "rnbqkbnr/pppp1ppp/8/4pP2/8/8/PPPPP1PP/RNBQKBNR w KQkq e6 0 3",
}

func BenchmarkGenerateZobristHash(b *testing.B) {
	for name, fen := range benchFENPositions {
		b.Run(name, func(b *testing.B) {
			pos := mustFEN(b, fen)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				GenerateZobristHash(pos)
			}
		})
	}
}

func BenchmarkDuplicateDetector_CheckAndAdd(b *testing.B) {
	b.Run("Duplicates", func(b *testing.B) {
		dd := NewDuplicateDetector(false)
		pos := mustFEN(b, benchFENPositions["Initial"])
		dd.CheckAndAdd(pos, 0)

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			dd.CheckAndAdd(pos, i)
		}
	})
}
