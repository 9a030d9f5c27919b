package match

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lgbarn/mystic-bridge/internal/channel"
	"github.com/lgbarn/mystic-bridge/internal/chess"
	"github.com/lgbarn/mystic-bridge/internal/config"
	bridgeerrors "github.com/lgbarn/mystic-bridge/internal/errors"
	"github.com/lgbarn/mystic-bridge/internal/fakeengine"
	"github.com/lgbarn/mystic-bridge/internal/player"
	"github.com/lgbarn/mystic-bridge/internal/session"
	"github.com/lgbarn/mystic-bridge/internal/testutil"
)

func TestHelperProcess(t *testing.T) {
	fakeengine.HelperMain()
}

// scripted plays a fixed list of moves.
func scripted(moves ...string) player.Mover {
	i := 0
	return player.MoverFunc(func(context.Context, *chess.Position, player.Clock) (string, error) {
		if i >= len(moves) {
			return "", fmt.Errorf("script exhausted")
		}
		i++
		return moves[i-1], nil
	})
}

func defaultOptions() Options {
	return Options{TimeControl: time.Minute}
}

func TestPlay_Checkmate(t *testing.T) {
	res, err := Play(context.Background(), scripted("f2f3", "g2g4"), scripted("e7e5", "d8h4"), defaultOptions(), testutil.Logger(t))
	testutil.RequireNoError(t, err)

	testutil.AssertEqual(t, res.Outcome, "0-1")
	testutil.AssertEqual(t, res.Method, "Checkmate")
	testutil.AssertEqual(t, res.Plies, 4)
	testutil.AssertEqual(t, res.Moves, []string{"f2f3", "e7e5", "g2g4", "d8h4"})
	testutil.AssertEqual(t, res.SAN, []string{"f3", "e5", "g4", "Qh4#"})
	testutil.AssertEqual(t, res.StartFEN, chess.InitialFEN)
	testutil.AssertTrue(t, strings.HasPrefix(res.ECO, "A0"), "ECO = %q", res.ECO)
	testutil.AssertContains(t, res.PGN, "Qh4#")
	testutil.AssertContains(t, res.PGN, "0-1")
	testutil.AssertTrue(t, res.Forfeit == nil, "no forfeit")
}

func TestPlay_PlyLimit(t *testing.T) {
	opts := defaultOptions()
	opts.MaxPlies = 6
	res, err := Play(context.Background(), player.First{}, player.First{}, opts, testutil.Logger(t))
	testutil.RequireNoError(t, err)

	testutil.AssertEqual(t, res.Outcome, "1/2-1/2")
	testutil.AssertEqual(t, res.Method, MethodPlyLimit)
	testutil.AssertEqual(t, res.Plies, 6)
	testutil.AssertEqual(t, res.Moves[:2], []string{"a2a3", "a7a5"})
}

func TestPlay_Forfeits(t *testing.T) {
	failing := player.MoverFunc(func(context.Context, *chess.Position, player.Clock) (string, error) {
		return "", fmt.Errorf("%w: %w", bridgeerrors.ErrEngineFailure, bridgeerrors.ErrEngineCrashed)
	})
	slow := player.MoverFunc(func(ctx context.Context, _ *chess.Position, _ player.Clock) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	tests := []struct {
		name        string
		white       player.Mover
		black       player.Mover
		opts        Options
		wantOutcome string
		wantMethod  string
		wantErr     error
	}{
		{
			name:        "illegal white move",
			white:       scripted("e2e5"),
			black:       player.First{},
			opts:        defaultOptions(),
			wantOutcome: "0-1",
			wantMethod:  "Resignation",
			wantErr:     bridgeerrors.ErrIllegalMove,
		},
		{
			name:        "garbage from black",
			white:       player.First{},
			black:       scripted("castle!"),
			opts:        defaultOptions(),
			wantOutcome: "1-0",
			wantMethod:  "Resignation",
			wantErr:     bridgeerrors.ErrIllegalMove,
		},
		{
			name:        "engine failure",
			white:       failing,
			black:       player.First{},
			opts:        defaultOptions(),
			wantOutcome: "0-1",
			wantMethod:  "Resignation",
			wantErr:     bridgeerrors.ErrEngineFailure,
		},
		{
			name:        "flag falls",
			white:       player.First{},
			black:       slow,
			opts:        Options{TimeControl: 50 * time.Millisecond},
			wantOutcome: "1-0",
			wantMethod:  MethodTimeForfeit,
			wantErr:     bridgeerrors.ErrEngineTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Play(context.Background(), tt.white, tt.black, tt.opts, testutil.Logger(t))
			testutil.RequireNoError(t, err)
			testutil.AssertEqual(t, res.Outcome, tt.wantOutcome)
			testutil.AssertEqual(t, res.Method, tt.wantMethod)
			testutil.AssertErrorIs(t, res.Forfeit, tt.wantErr)
		})
	}
}

func TestPlay_StartFEN(t *testing.T) {
	opts := defaultOptions()
	opts.StartFEN = "7k/5Q2/6K1/8/8/8/8/8 w - - 0 1"

	res, err := Play(context.Background(), scripted("f7g7"), player.First{}, opts, testutil.Logger(t))
	testutil.RequireNoError(t, err)
	testutil.AssertEqual(t, res.Outcome, "1-0")
	testutil.AssertEqual(t, res.Method, "Checkmate")
	testutil.AssertEqual(t, res.ECO, "", "no ECO from a set-up position")

	opts.StartFEN = "not a fen"
	_, err = Play(context.Background(), player.First{}, player.First{}, opts, testutil.Logger(t))
	testutil.AssertErrorIs(t, err, bridgeerrors.ErrInvalidFEN)
}

func TestPlay_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Play(ctx, player.First{}, player.First{}, defaultOptions(), testutil.Logger(t))
	testutil.AssertErrorIs(t, err, context.Canceled)
}

func TestPlay_EngineSession(t *testing.T) {
	fe := testutil.NewFakeEngine(t, fakeengine.Normal)
	cfg := *config.NewEngineConfig()
	cfg.Protocol = channel.ProtocolPayload
	cfg.Executable = fe.Executable
	cfg.Args = fe.Args
	cfg.Env = fe.Env

	engine, err := session.Start(context.Background(), cfg, testutil.Logger(t))
	testutil.RequireNoError(t, err)
	defer engine.Terminate()

	opts := defaultOptions()
	opts.MaxPlies = 8
	res, err := Play(context.Background(), engine, player.Alphabetical{}, opts, testutil.Logger(t))
	testutil.RequireNoError(t, err)

	testutil.AssertEqual(t, res.Method, MethodPlyLimit)
	testutil.AssertEqual(t, res.Plies, 8)
	testutil.AssertEqual(t, res.Moves[0], "a2a3")
	testutil.AssertTrue(t, res.Forfeit == nil, "engine played legally: %v", res.Forfeit)
}

func TestOptionsFrom(t *testing.T) {
	cfg := config.NewMatchConfig()
	cfg.StartFEN = chess.InitialFEN
	cfg.Increment = 2 * time.Second

	testutil.AssertEqual(t, OptionsFrom(*cfg), Options{
		StartFEN:    chess.InitialFEN,
		TimeControl: 5 * time.Minute,
		Increment:   2 * time.Second,
		MaxPlies:    500,
	})
}
