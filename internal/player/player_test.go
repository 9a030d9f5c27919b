package player

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lgbarn/mystic-bridge/internal/chess"
	"github.com/lgbarn/mystic-bridge/internal/config"
	bridgeerrors "github.com/lgbarn/mystic-bridge/internal/errors"
	"github.com/lgbarn/mystic-bridge/internal/testutil"
)

const foolsMate = "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"

func TestDeterministicMovers(t *testing.T) {
	tests := []struct {
		name  string
		mover Mover
		fen   string
		want  string
	}{
		{"first from start", First{}, chess.InitialFEN, "a2a3"},
		{"alphabetical prefers piece moves", Alphabetical{}, chess.InitialFEN, "b1a3"},
		{"first for black", First{}, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", "a7a5"},
		{"combo without time plays first", NewCombo(1), chess.InitialFEN, "a2a3"},
		// SAN "Kg1" sorts before every "a8=..." promotion.
		{"alphabetical compares san", Alphabetical{}, "8/P7/8/8/8/8/8/k6K w - - 0 1", "h1g1"},
		{"first promotes to bishop", First{}, "8/P7/8/8/8/8/8/k6K w - - 0 1", "a7a8b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.mover.RequestMove(context.Background(), testutil.MustFEN(t, tt.fen), Clock{})
			testutil.RequireNoError(t, err)
			testutil.AssertEqual(t, got, tt.want)
		})
	}
}

func TestRandom_SeededAndLegal(t *testing.T) {
	pos := testutil.MustFEN(t, chess.InitialFEN)
	legal, err := legalMoves(pos)
	testutil.RequireNoError(t, err)
	allowed := make(map[string]bool)
	for _, m := range legal {
		allowed[m.uci] = true
	}

	a, b := NewRandom(42), NewRandom(42)
	for i := 0; i < 10; i++ {
		ma, err := a.RequestMove(context.Background(), pos, Clock{})
		testutil.RequireNoError(t, err)
		mb, err := b.RequestMove(context.Background(), pos, Clock{})
		testutil.RequireNoError(t, err)
		testutil.AssertEqual(t, ma, mb, "same seed, move %d", i)
		testutil.AssertTrue(t, allowed[ma], "%s is legal", ma)
	}
}

func TestCombo_PlentifulTimeIsRandom(t *testing.T) {
	pos := testutil.MustFEN(t, chess.InitialFEN)
	combo := NewCombo(7)
	reference := NewRandom(7)

	clock := Clock{Remaining: 20 * time.Minute}
	got, err := combo.RequestMove(context.Background(), pos, clock)
	testutil.RequireNoError(t, err)
	want, err := reference.RequestMove(context.Background(), pos, clock)
	testutil.RequireNoError(t, err)
	testutil.AssertEqual(t, got, want)

	// 5m/60 + 5s = 10s is not above the threshold.
	got, err = combo.RequestMove(context.Background(), pos, Clock{Remaining: 5 * time.Minute, Increment: 5 * time.Second})
	testutil.RequireNoError(t, err)
	testutil.AssertEqual(t, got, "a2a3")
}

func TestMovers_NoLegalMoves(t *testing.T) {
	pos := testutil.MustFEN(t, foolsMate)
	for _, m := range []Mover{First{}, Alphabetical{}, NewRandom(1)} {
		_, err := m.RequestMove(context.Background(), pos, Clock{})
		testutil.AssertTrue(t, err != nil, "%T on a mated position", m)
	}
}

func TestLua(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		want    string
		wantErr error
	}{
		{
			name:   "last move",
			source: `function choose(fen, moves) return moves[#moves] end`,
			want:   "h2h4",
		},
		{
			name: "reads the fen",
			source: `function choose(fen, moves)
				if string.find(fen, " w ") then return moves[2] end
				return moves[1]
			end`,
			want: "a2a4",
		},
		{
			name:    "illegal choice",
			source:  `function choose(fen, moves) return "e2e5" end`,
			wantErr: bridgeerrors.ErrIllegalMove,
		},
		{
			name:    "not a string",
			source:  `function choose(fen, moves) return 42 end`,
			wantErr: bridgeerrors.ErrIllegalMove,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLuaString(tt.name, tt.source)
			testutil.RequireNoError(t, err)
			defer l.Close()

			got, err := l.RequestMove(context.Background(), testutil.MustFEN(t, chess.InitialFEN), Clock{})
			if tt.wantErr != nil {
				testutil.AssertErrorIs(t, err, tt.wantErr)
				return
			}
			testutil.RequireNoError(t, err)
			testutil.AssertEqual(t, got, tt.want)
		})
	}
}

func TestLua_ScriptErrors(t *testing.T) {
	_, err := NewLuaString("no entry", `function pick() end`)
	testutil.AssertErrorIs(t, err, bridgeerrors.ErrInvalidConfig)

	_, err = NewLuaString("syntax", `function choose(`)
	testutil.AssertTrue(t, err != nil, "syntax error reported")

	l, err := NewLuaString("runtime", `function choose(fen, moves) error("boom") end`)
	testutil.RequireNoError(t, err)
	defer l.Close()
	_, err = l.RequestMove(context.Background(), testutil.MustFEN(t, chess.InitialFEN), Clock{})
	testutil.AssertTrue(t, err != nil, "runtime error reported")
}

func TestNew(t *testing.T) {
	script := filepath.Join(t.TempDir(), "bot.lua")
	testutil.RequireNoError(t, os.WriteFile(script, []byte(`function choose(fen, moves) return moves[1] end`), 0o600))

	engine := MoverFunc(func(context.Context, *chess.Position, Clock) (string, error) {
		return "e2e4", nil
	})

	tests := []struct {
		cfg     config.PlayerConfig
		want    string
		wantErr bool
	}{
		{config.PlayerConfig{Kind: config.PlayerEngine}, "e2e4", false},
		{config.PlayerConfig{Kind: config.PlayerFirst}, "a2a3", false},
		{config.PlayerConfig{Kind: config.PlayerAlphabetical}, "b1a3", false},
		{config.PlayerConfig{Kind: config.PlayerCombo, Seed: 3}, "a2a3", false},
		{config.PlayerConfig{Kind: config.PlayerLua, Script: script}, "a2a3", false},
		{config.PlayerConfig{Kind: config.PlayerRandom, Seed: 3}, "", false},
		{config.PlayerConfig{Kind: config.PlayerLua, Script: filepath.Join(t.TempDir(), "missing.lua")}, "", true},
		{config.PlayerConfig{Kind: "oracle"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.Kind, func(t *testing.T) {
			m, err := New(tt.cfg, engine)
			if tt.wantErr {
				testutil.AssertTrue(t, err != nil, "New(%+v) should fail", tt.cfg)
				return
			}
			testutil.RequireNoError(t, err)
			got, err := m.RequestMove(context.Background(), testutil.MustFEN(t, chess.InitialFEN), Clock{})
			testutil.RequireNoError(t, err)
			if tt.want != "" {
				testutil.AssertEqual(t, got, tt.want)
			}
		})
	}

	_, err := New(config.PlayerConfig{Kind: config.PlayerEngine}, nil)
	testutil.AssertErrorIs(t, err, bridgeerrors.ErrInvalidConfig)
}
