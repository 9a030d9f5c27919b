package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lgbarn/mystic-bridge/internal/chess"
	"github.com/lgbarn/mystic-bridge/internal/fakeengine"
)

// MustFEN parses a FEN string or stops the test.
func MustFEN(t testing.TB, fen string) *chess.Position {
	t.Helper()
	pos, err := chess.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

// Logger returns a logger that writes through t.Log, so output only shows
// for failing tests or with -v.
func Logger(t testing.TB) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: testWriter{t}, NoColor: true}).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// FakeEngine describes a re-execution of the running test binary as a fake
// engine in the given mode. The test package must define
//
//	func TestHelperProcess(t *testing.T) { fakeengine.HelperMain() }
type FakeEngine struct {
	Executable string
	Args       []string
	Env        []string
}

// NewFakeEngine returns the command line for a fake engine that answers
// with the first legal move.
func NewFakeEngine(t testing.TB, mode fakeengine.Mode) FakeEngine {
	t.Helper()
	return NewFakeEngineReplying(t, mode, "")
}

// NewFakeEngineReplying returns the command line for a fake engine that
// always answers with reply.
func NewFakeEngineReplying(t testing.TB, mode fakeengine.Mode, reply string) FakeEngine {
	t.Helper()
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	args, env := fakeengine.Command(mode, reply)
	return FakeEngine{Executable: exe, Args: args, Env: env}
}
