// mystic-bridge drives an external chess engine from a host that owns the
// position: one-shot moves, hosted games and batch analysis.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/lgbarn/mystic-bridge/internal/config"
	"github.com/lgbarn/mystic-bridge/internal/output"
)

const programVersion = "0.1.0"

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *help {
		usage()
		os.Exit(exitOK)
	}

	if *version {
		fmt.Printf("mystic-bridge version %s\n", programVersion)
		os.Exit(exitOK)
	}

	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	defer closeLog()

	out, closeOut, err := openOutput(cfg.Output)
	if err != nil {
		log.Error().Err(err).Msg("opening output")
		return exitError
	}
	defer closeOut()

	w, err := output.NewWriter(out, cfg.Output)
	if err != nil {
		log.Error().Err(err).Msg("creating output writer")
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case cfg.Batch.Positions != "":
		err = runBatch(ctx, cfg, w, log)
	case *playGame:
		err = runGame(ctx, cfg, w, log)
	case *fenFlag != "":
		err = runMove(ctx, cfg, *fenFlag, w, log)
	default:
		usage()
		return exitUsage
	}

	if closeErr := w.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		log.Error().Err(err).Msg("failed")
		return exitError
	}
	return exitOK
}

// loadConfig reads the configuration file, if any, and applies the flags.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.NewConfig()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the program logger. Logs go to LogFile when set, as
// JSON; a terminal gets the human-readable console format.
func newLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}

	var w io.Writer = cfg.LogWriter
	if w == nil {
		w = os.Stderr
	}
	closer := func() {}

	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G302: 0644 is appropriate for user-created log files
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("opening log file %s: %w", cfg.LogFile, err)
		}
		w = file
		closer = func() { _ = file.Close() }
	} else if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = zerolog.ConsoleWriter{Out: f}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), closer, nil
}

// openOutput returns where results go.
func openOutput(cfg config.OutputConfig) (io.Writer, func(), error) {
	if cfg.File != "" {
		file, err := os.Create(cfg.File)
		if err != nil {
			return nil, nil, fmt.Errorf("creating output file %s: %w", cfg.File, err)
		}
		return file, func() { _ = file.Close() }, nil
	}
	if cfg.Writer != nil {
		return cfg.Writer, func() {}, nil
	}
	return os.Stdout, func() {}, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: mystic-bridge [options]\n\n")
	fmt.Fprintf(os.Stderr, "Drives a Mystic Bot engine from a host that owns the game.\n\n")
	fmt.Fprintf(os.Stderr, "Modes:\n")
	fmt.Fprintf(os.Stderr, "  -fen FEN          ask the engine for one move\n")
	fmt.Fprintf(os.Stderr, "  -play             host a game between -white and -black\n")
	fmt.Fprintf(os.Stderr, "  -positions FILE   analyse one FEN per line with -workers sessions\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nProtocols (-protocol):\n")
	fmt.Fprintf(os.Stderr, "  path     send the board file path, read the move back from the file (default)\n")
	fmt.Fprintf(os.Stderr, "  payload  send the board as one JSON line, read the answer from stdout\n")
	fmt.Fprintf(os.Stderr, "  legacy   send a quoted FEN and a time budget, read a move string\n")
	fmt.Fprintf(os.Stderr, "  file     no process; write the board file and wait for the engine to update it\n")
}
