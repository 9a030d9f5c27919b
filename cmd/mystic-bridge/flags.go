package main

import (
	"flag"

	"github.com/lgbarn/mystic-bridge/internal/channel"
	"github.com/lgbarn/mystic-bridge/internal/config"
)

var (
	// Configuration file
	configFile = flag.String("config", "", "YAML configuration file")

	// Engine
	engineExe    = flag.String("engine", "", "Engine executable")
	engineURL    = flag.String("url", "", "Engine websocket URL (instead of -engine)")
	protocol     = flag.String("protocol", "", "Engine protocol: path, payload, legacy, file")
	boardPath    = flag.String("board", "", "Shared board file (default: temporary file)")
	handshake    = flag.Duration("handshake-timeout", 0, "Time allowed for the readiness marker")
	responseWait = flag.Duration("response-timeout", 0, "Time allowed per move (0 = from the clock)")

	// One-shot analysis
	fenFlag = flag.String("fen", "", "Ask the engine for a move in this position")

	// Hosted game
	playGame  = flag.Bool("play", false, "Play a game between -white and -black")
	whiteKind = flag.String("white", "", "White player: engine, random, alphabetical, first, combo, lua")
	blackKind = flag.String("black", "", "Black player: engine, random, alphabetical, first, combo, lua")
	script    = flag.String("script", "", "Lua script for lua players")
	seed      = flag.Int64("seed", 0, "Seed for random and combo players (0 = from the clock)")
	clockTime = flag.Duration("time", 0, "Starting clock per side")
	increment = flag.Duration("inc", 0, "Increment per move")
	maxPlies  = flag.Int("maxplies", -1, "Draw after this many plies (0 = no limit)")
	startFEN  = flag.String("start", "", "Starting position of the game")
	pgnFile   = flag.String("pgn", "", "Write the finished game to this file")

	// Batch analysis
	positionsFile  = flag.String("positions", "", "File with one FEN per line to analyse")
	workers        = flag.Int("workers", 0, "Number of engine sessions (0 = number of CPUs)")
	budget         = flag.Int64("budget", -1, "Per-position time budget in milliseconds")
	skipDuplicates = flag.Bool("skipdups", false, "Answer repeated positions from the first answer")

	// Output
	jsonOutput = flag.Bool("json", false, "Output in JSON format")
	outputFile = flag.String("o", "", "Output file (default: stdout)")

	// Logging
	logFile = flag.String("log", "", "Write diagnostics to log file")
	verbose = flag.Bool("v", false, "Debug logging")

	// Other options
	help    = flag.Bool("h", false, "Show help")
	version = flag.Bool("version", false, "Show version")
)

// applyFlags applies command-line flags over the configuration. Flags left
// at their zero values keep whatever the configuration file set.
func applyFlags(cfg *config.Config) {
	applyEngineFlags(cfg)
	applyMatchFlags(cfg)
	applyBatchFlags(cfg)
	applyOutputFlags(cfg)
}

func applyEngineFlags(cfg *config.Config) {
	e := &cfg.Engine
	if *engineExe != "" {
		e.Executable = *engineExe
	}
	if *engineURL != "" {
		e.URL = *engineURL
	}
	if *protocol != "" {
		e.Protocol = channel.Protocol(*protocol)
	}
	if *boardPath != "" {
		e.BoardPath = *boardPath
	}
	if *handshake > 0 {
		e.HandshakeTimeout = *handshake
	}
	if *responseWait > 0 {
		e.ResponseTimeout = *responseWait
	}
}

func applyMatchFlags(cfg *config.Config) {
	m := &cfg.Match
	for _, side := range []struct {
		kind   string
		player *config.PlayerConfig
	}{{*whiteKind, &m.White}, {*blackKind, &m.Black}} {
		if side.kind != "" {
			side.player.Kind = side.kind
		}
		if *script != "" && side.player.Kind == config.PlayerLua {
			side.player.Script = *script
		}
		if *seed != 0 {
			side.player.Seed = *seed
		}
	}
	if *clockTime > 0 {
		m.TimeControl = *clockTime
	}
	if *increment > 0 {
		m.Increment = *increment
	}
	if *maxPlies >= 0 {
		m.MaxPlies = *maxPlies
	}
	if *startFEN != "" {
		m.StartFEN = *startFEN
	}
	if *pgnFile != "" {
		m.PGNFile = *pgnFile
	}
}

func applyBatchFlags(cfg *config.Config) {
	b := &cfg.Batch
	if *positionsFile != "" {
		b.Positions = *positionsFile
	}
	if *workers > 0 {
		b.Workers = *workers
	}
	if *budget >= 0 {
		b.BudgetMillis = *budget
	}
	if *skipDuplicates {
		b.SkipDuplicates = true
	}
}

func applyOutputFlags(cfg *config.Config) {
	if *jsonOutput {
		cfg.Output.Format = config.JSONFormat
	}
	if *outputFile != "" {
		cfg.Output.File = *outputFile
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
}
