// Package fakeengine is a scriptable stand-in for an external chess engine.
// It speaks every exchange protocol the channel package supports and is used
// by tests, either in-process over pipes or re-executed as a helper process.
package fakeengine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	rules "github.com/notnil/chess"

	"github.com/lgbarn/mystic-bridge/internal/bitboard"
	"github.com/lgbarn/mystic-bridge/internal/chess"
	"github.com/lgbarn/mystic-bridge/internal/errors"
	"github.com/lgbarn/mystic-bridge/internal/move"
)

// Mode scripts the engine's behaviour.
type Mode string

const (
	Normal  Mode = "normal"  // announce readiness and answer every request
	Junk    Mode = "junk"    // print three noise lines before the readiness marker
	NoReady Mode = "noready" // exit without announcing readiness
	Crash   Mode = "crash"   // exit when the first request arrives
	Corrupt Mode = "corrupt" // print the sentinel over an unreadable answer
	Hang    Mode = "hang"    // never answer requests
	Chatty  Mode = "chatty"  // print stale lines before and after each answer
	Slow    Mode = "slow"    // answer each request after SlowDelay
	Mute    Mode = "mute"    // print the sentinel without answering
)

// SlowDelay is how long a Slow engine thinks about each request.
const SlowDelay = 300 * time.Millisecond

// Environment variables of the helper process.
const (
	EnvWantHelper = "GO_WANT_HELPER_PROCESS"
	EnvMode       = "FAKE_ENGINE_MODE"
	EnvReply      = "FAKE_ENGINE_REPLY"
)

// Engine answers requests with Reply, or with the first legal move in UCI
// order when Reply is empty.
type Engine struct {
	Mode           Mode
	Reply          string
	ReadyMarker    string
	Sentinel       string
	LegacySentinel string
}

// New returns an engine using the default markers.
func New(mode Mode) *Engine {
	return &Engine{
		Mode:           mode,
		ReadyMarker:    "Mystic Bot Ready",
		Sentinel:       "New Board Saved Successfully",
		LegacySentinel: "Best next move",
	}
}

// Greeting returns the lines printed at startup.
func (e *Engine) Greeting() []string {
	switch e.Mode {
	case NoReady:
		return []string{"loading weights"}
	case Junk:
		return []string{"loading weights", "warming up", "", e.ReadyMarker}
	default:
		return []string{e.ReadyMarker}
	}
}

// Handle processes one request line. It returns the lines to print and
// whether the engine should exit.
func (e *Engine) Handle(line string) ([]string, bool) {
	line = strings.TrimSpace(line)
	switch {
	case line == "exit":
		return nil, true
	case line == "":
		return nil, false
	case e.Mode == Crash:
		return nil, true
	case e.Mode == Hang:
		return nil, false
	case e.Mode == Slow:
		time.Sleep(SlowDelay)
	}

	var replies []string
	switch {
	case strings.HasPrefix(line, `"`):
		replies = e.handleLegacy(line)
	case strings.HasPrefix(line, "{"):
		replies = e.handlePayload(line)
	default:
		replies = e.handlePath(line)
	}

	if e.Mode == Chatty {
		replies = append([]string{"thinking..."}, replies...)
		replies = append(replies, "stale line")
	}
	return replies, false
}

func (e *Engine) handleLegacy(line string) []string {
	end := strings.LastIndex(line, `"`)
	if end <= 0 {
		return []string{"bad request"}
	}
	if e.Mode == Corrupt || e.Mode == Mute {
		return []string{e.LegacySentinel}
	}
	pos, err := chess.ParseFEN(line[1:end])
	if err != nil {
		return []string{err.Error()}
	}
	uci, err := e.choose(pos)
	if err != nil {
		return []string{err.Error()}
	}
	return []string{fmt.Sprintf("%s: %s", e.LegacySentinel, uci)}
}

func (e *Engine) handlePayload(line string) []string {
	switch e.Mode {
	case Corrupt:
		return []string{"{not json", e.Sentinel}
	case Mute:
		return []string{line, e.Sentinel}
	}
	pb, err := bitboard.Unmarshal([]byte(line))
	if err != nil {
		return []string{err.Error(), e.Sentinel}
	}
	answered, err := e.answer(pb)
	if err != nil {
		return []string{err.Error(), e.Sentinel}
	}
	data, err := bitboard.MarshalLine(answered)
	if err != nil {
		return []string{err.Error(), e.Sentinel}
	}
	return []string{string(data), e.Sentinel}
}

func (e *Engine) handlePath(path string) []string {
	if e.Mode == Mute {
		return []string{e.Sentinel}
	}
	if e.Mode == Corrupt {
		if err := os.WriteFile(path, []byte("not a board"), 0o600); err != nil {
			return []string{err.Error()}
		}
		return []string{e.Sentinel}
	}
	pb, err := bitboard.ReadFile(path)
	if err != nil {
		return []string{err.Error()}
	}
	answered, err := e.answer(pb)
	if err != nil {
		return []string{err.Error()}
	}
	if err := bitboard.WriteFile(path, answered); err != nil {
		return []string{err.Error()}
	}
	return []string{e.Sentinel}
}

// Run drives the engine over a line stream until exit or end of input.
func (e *Engine) Run(r io.Reader, w io.Writer) error {
	for _, line := range e.Greeting() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if e.Mode == NoReady {
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		replies, quit := e.Handle(line)
		for _, reply := range replies {
			if _, err := fmt.Fprintln(w, reply); err != nil {
				return err
			}
		}
		if quit {
			if e.Mode == Crash && strings.TrimSpace(line) != "exit" {
				return errors.ErrEngineCrashed
			}
			return nil
		}
	}
	return scanner.Err()
}

func (e *Engine) choose(pos *chess.Position) (string, error) {
	if e.Reply != "" {
		return e.Reply, nil
	}
	return Choose(pos)
}

// Answer decodes a board, picks the first legal move and returns the board
// with latest_move filled in.
func Answer(pb bitboard.PackedBoard) (bitboard.PackedBoard, error) {
	return (&Engine{}).answer(pb)
}

func (e *Engine) answer(pb bitboard.PackedBoard) (bitboard.PackedBoard, error) {
	pos, err := bitboard.Decode(pb)
	if err != nil {
		return pb, err
	}
	uci, err := e.choose(pos)
	if err != nil {
		return pb, err
	}
	m, err := move.Parse(uci, pos)
	if err != nil {
		return pb, err
	}
	pb.LatestMove = m
	return pb, nil
}

// Choose returns the first legal move of the position in UCI order.
func Choose(pos *chess.Position) (string, error) {
	opt, err := rules.FEN(pos.FEN())
	if err != nil {
		return "", err
	}
	game := rules.NewGame(opt)
	moves := game.ValidMoves()
	if len(moves) == 0 {
		return "", fmt.Errorf("no legal moves in %s", pos.FEN())
	}
	ucis := make([]string, len(moves))
	for i, m := range moves {
		ucis[i] = m.String()
	}
	sort.Strings(ucis)
	return ucis[0], nil
}

// WatchFile plays the engine side of the file protocol: whenever the board
// file holds a request (latest_move zero) it is answered in place. It polls
// until ctx is done.
func WatchFile(ctx context.Context, path string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		pb, err := bitboard.ReadFile(path)
		if err != nil || pb.LatestMove != 0 {
			continue
		}
		answered, err := Answer(pb)
		if err != nil {
			return err
		}
		if err := bitboard.WriteFile(path, answered); err != nil {
			return err
		}
	}
}

// Command returns the arguments and environment that re-execute the running
// test binary as a fake engine. The test binary must call HelperMain from a
// test named TestHelperProcess. A non-empty reply fixes the engine's answer.
func Command(mode Mode, reply string) (args, env []string) {
	return []string{"-test.run=^TestHelperProcess$", "--"},
		[]string{EnvWantHelper + "=1", EnvMode + "=" + string(mode), EnvReply + "=" + reply}
}

// HelperMain runs the fake engine on stdin/stdout when the process was started
// by Command, then exits. It returns immediately otherwise.
func HelperMain() {
	if os.Getenv(EnvWantHelper) != "1" {
		return
	}
	e := New(Mode(os.Getenv(EnvMode)))
	e.Reply = os.Getenv(EnvReply)
	if err := e.Run(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "fake engine:", err)
		os.Exit(3)
	}
	os.Exit(0)
}

