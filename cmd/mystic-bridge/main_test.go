package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lgbarn/mystic-bridge/internal/channel"
	"github.com/lgbarn/mystic-bridge/internal/chess"
	"github.com/lgbarn/mystic-bridge/internal/config"
	bridgeerrors "github.com/lgbarn/mystic-bridge/internal/errors"
	"github.com/lgbarn/mystic-bridge/internal/fakeengine"
	"github.com/lgbarn/mystic-bridge/internal/output"
	"github.com/lgbarn/mystic-bridge/internal/testutil"
)

func TestHelperProcess(t *testing.T) {
	fakeengine.HelperMain()
}

func saveRestoreBool(ptr *bool, val bool) func() {
	old := *ptr
	*ptr = val
	return func() { *ptr = old }
}

func saveRestoreInt(ptr *int, val int) func() {
	old := *ptr
	*ptr = val
	return func() { *ptr = old }
}

func saveRestoreString(ptr *string, val string) func() {
	old := *ptr
	*ptr = val
	return func() { *ptr = old }
}

// fakeEngineConfig returns a configuration whose engine is the fake engine.
func fakeEngineConfig(t *testing.T) *config.Config {
	t.Helper()
	fe := testutil.NewFakeEngine(t, fakeengine.Normal)
	cfg := config.NewConfigBuilder().
		WithEngineExecutable(fe.Executable, fe.Args...).
		WithProtocol(channel.ProtocolPayload).
		Build()
	cfg.Engine.Env = fe.Env
	return cfg
}

func TestApplyEngineFlags(t *testing.T) {
	defer saveRestoreString(engineExe, "/opt/mystic")()
	defer saveRestoreString(protocol, "legacy")()

	cfg := config.NewConfig()
	cfg.Engine.BoardPath = "/tmp/from-file.json"
	applyFlags(cfg)

	testutil.AssertEqual(t, cfg.Engine.Executable, "/opt/mystic")
	testutil.AssertEqual(t, cfg.Engine.Protocol, channel.ProtocolLegacy)
	testutil.AssertEqual(t, cfg.Engine.BoardPath, "/tmp/from-file.json", "unset flag keeps file value")
}

func TestApplyMatchFlags(t *testing.T) {
	defer saveRestoreString(whiteKind, config.PlayerLua)()
	defer saveRestoreString(script, "bot.lua")()
	defer saveRestoreInt(maxPlies, 0)()

	cfg := config.NewConfig()
	applyFlags(cfg)

	testutil.AssertEqual(t, cfg.Match.White, config.PlayerConfig{Kind: config.PlayerLua, Script: "bot.lua"})
	testutil.AssertEqual(t, cfg.Match.Black.Kind, config.PlayerRandom)
	testutil.AssertEqual(t, cfg.Match.Black.Script, "", "script only applies to lua players")
	testutil.AssertEqual(t, cfg.Match.MaxPlies, 0, "explicit zero lifts the limit")
	testutil.AssertEqual(t, cfg.Match.TimeControl, 5*time.Minute)
}

func TestApplyBatchAndOutputFlags(t *testing.T) {
	defer saveRestoreString(positionsFile, "fens.txt")()
	defer saveRestoreInt(workers, 3)()
	defer saveRestoreBool(skipDuplicates, true)()
	defer saveRestoreBool(jsonOutput, true)()
	defer saveRestoreBool(verbose, true)()

	cfg := config.NewConfig()
	applyFlags(cfg)

	testutil.AssertEqual(t, cfg.Batch.Positions, "fens.txt")
	testutil.AssertEqual(t, cfg.Batch.Workers, 3)
	testutil.AssertEqual(t, cfg.Batch.BudgetMillis, int64(1000), "unset budget keeps default")
	testutil.AssertTrue(t, cfg.Batch.SkipDuplicates, "skip duplicates")
	testutil.AssertEqual(t, cfg.Output.Format, config.JSONFormat)
	testutil.AssertEqual(t, cfg.LogLevel, "debug")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	data := "engine:\n  executable: ./mystic\nbatch:\n  workers: 2\n"
	testutil.RequireNoError(t, os.WriteFile(path, []byte(data), 0o600))

	defer saveRestoreInt(workers, 6)()
	cfg, err := loadConfig(path)
	testutil.RequireNoError(t, err)
	testutil.AssertEqual(t, cfg.Engine.Executable, "./mystic")
	testutil.AssertEqual(t, cfg.Batch.Workers, 6, "flag overrides file")

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	testutil.AssertTrue(t, err != nil, "missing config file reported")

	defer saveRestoreString(whiteKind, "oracle")()
	_, err = loadConfig("")
	testutil.AssertErrorIs(t, err, bridgeerrors.ErrInvalidConfig)
}

func TestNewLogger(t *testing.T) {
	cfg := config.NewConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "bridge.log")
	cfg.LogLevel = "warn"

	log, closeLog, err := newLogger(cfg)
	testutil.RequireNoError(t, err)
	log.Info().Msg("hidden")
	log.Warn().Str("state", "Ready").Msg("shown")
	closeLog()

	data, err := os.ReadFile(cfg.LogFile)
	testutil.RequireNoError(t, err)
	testutil.AssertContains(t, string(data), `"message":"shown"`)
	testutil.AssertTrue(t, !strings.Contains(string(data), "hidden"), "info filtered at warn level")

	var buf bytes.Buffer
	cfg = config.NewConfig()
	cfg.LogWriter = &buf
	log, _, err = newLogger(cfg)
	testutil.RequireNoError(t, err)
	log.Info().Msg("to writer")
	testutil.AssertContains(t, buf.String(), "to writer")

	cfg.LogLevel = "loud"
	_, _, err = newLogger(cfg)
	testutil.AssertErrorIs(t, err, bridgeerrors.ErrInvalidConfig)
}

func TestOpenOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	w, closeOut, err := openOutput(config.OutputConfig{File: path})
	testutil.RequireNoError(t, err)
	_, err = w.Write([]byte("x"))
	testutil.RequireNoError(t, err)
	closeOut()

	data, err := os.ReadFile(path)
	testutil.RequireNoError(t, err)
	testutil.AssertEqual(t, string(data), "x")

	var buf bytes.Buffer
	w, _, err = openOutput(config.OutputConfig{Writer: &buf})
	testutil.RequireNoError(t, err)
	testutil.AssertTrue(t, w == &buf, "configured writer used")
}

func TestRunMove(t *testing.T) {
	cfg := fakeEngineConfig(t)

	var buf bytes.Buffer
	w := output.NewTextWriter(&buf)
	err := runMove(context.Background(), cfg, chess.InitialFEN, w, testutil.Logger(t))
	testutil.RequireNoError(t, err)
	testutil.AssertEqual(t, buf.String(), "0\t"+chess.InitialFEN+"\ta2a3\n")

	err = runMove(context.Background(), cfg, "not a fen", w, testutil.Logger(t))
	testutil.AssertErrorIs(t, err, bridgeerrors.ErrInvalidFEN)
}

func TestRunGame(t *testing.T) {
	cfg := fakeEngineConfig(t)
	cfg.Match.White = config.PlayerConfig{Kind: config.PlayerFirst}
	cfg.Match.Black = config.PlayerConfig{Kind: config.PlayerEngine}
	cfg.Match.MaxPlies = 4

	var buf bytes.Buffer
	w := output.NewJSONWriter(&buf)
	testutil.RequireNoError(t, runGame(context.Background(), cfg, w, testutil.Logger(t)))
	testutil.RequireNoError(t, w.Close())

	var got output.JSONOutput
	testutil.RequireNoError(t, json.Unmarshal(buf.Bytes(), &got))
	testutil.AssertEqual(t, len(got.Games), 1)
	g := got.Games[0]
	testutil.AssertEqual(t, g.White, config.PlayerFirst)
	testutil.AssertEqual(t, g.Black, config.PlayerEngine)
	testutil.AssertEqual(t, g.PlyCount, 4)
	testutil.AssertEqual(t, g.Result, "1/2-1/2")
	testutil.AssertEqual(t, g.Moves[:2], []string{"a2a3", "a7a5"})
}

func TestRunGame_PGNFile(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Match.White = config.PlayerConfig{Kind: config.PlayerFirst}
	cfg.Match.Black = config.PlayerConfig{Kind: config.PlayerAlphabetical}
	cfg.Match.MaxPlies = 2
	cfg.Match.PGNFile = filepath.Join(t.TempDir(), "game.pgn")

	var buf bytes.Buffer
	testutil.RequireNoError(t, runGame(context.Background(), cfg, output.NewTextWriter(&buf), testutil.Logger(t)))
	testutil.AssertEqual(t, buf.Len(), 0, "game written to the PGN file only")

	data, err := os.ReadFile(cfg.Match.PGNFile)
	testutil.RequireNoError(t, err)
	testutil.AssertContains(t, string(data), `[White "first"]`)
	testutil.AssertContains(t, string(data), "1. a3 Na6 1/2-1/2")
}

func TestRunGame_EngineUnavailable(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Match.White = config.PlayerConfig{Kind: config.PlayerEngine}

	err := runGame(context.Background(), cfg, output.NewTextWriter(&bytes.Buffer{}), testutil.Logger(t))
	testutil.AssertErrorIs(t, err, bridgeerrors.ErrEngineFailure, bridgeerrors.ErrInvalidConfig)
}

func TestRunBatch(t *testing.T) {
	cfg := fakeEngineConfig(t)
	cfg.Batch.Workers = 2
	cfg.Batch.SkipDuplicates = true
	cfg.Batch.Positions = filepath.Join(t.TempDir(), "fens.txt")

	afterE4 := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	lines := []string{"# test positions", chess.InitialFEN, afterE4, chess.InitialFEN, "garbage"}
	testutil.RequireNoError(t, os.WriteFile(cfg.Batch.Positions, []byte(strings.Join(lines, "\n")), 0o600))

	var buf bytes.Buffer
	testutil.RequireNoError(t, runBatch(context.Background(), cfg, output.NewTextWriter(&buf), testutil.Logger(t)))

	got := strings.Split(strings.TrimSpace(buf.String()), "\n")
	testutil.AssertEqual(t, len(got), 4)
	testutil.AssertEqual(t, got[0], "0\t"+chess.InitialFEN+"\ta2a3")
	testutil.AssertEqual(t, got[1], "1\t"+afterE4+"\ta7a5")
	testutil.AssertEqual(t, got[2], "2\t"+chess.InitialFEN+"\ta2a3")
	testutil.AssertTrue(t, strings.HasPrefix(got[3], "3\tgarbage\t-\t"), "invalid FEN reported: %q", got[3])
}

func TestRunBatch_MissingFile(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Batch.Positions = filepath.Join(t.TempDir(), "missing.txt")
	err := runBatch(context.Background(), cfg, output.NewTextWriter(&bytes.Buffer{}), testutil.Logger(t))
	testutil.AssertTrue(t, err != nil, "missing positions file reported")
}
