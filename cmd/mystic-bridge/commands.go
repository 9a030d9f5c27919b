package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/lgbarn/mystic-bridge/internal/batch"
	"github.com/lgbarn/mystic-bridge/internal/chess"
	"github.com/lgbarn/mystic-bridge/internal/config"
	"github.com/lgbarn/mystic-bridge/internal/match"
	"github.com/lgbarn/mystic-bridge/internal/output"
	"github.com/lgbarn/mystic-bridge/internal/player"
	"github.com/lgbarn/mystic-bridge/internal/session"
	"github.com/lgbarn/mystic-bridge/internal/worker"
)

const eventName = "mystic-bridge match"

// runMove asks the engine for one move.
func runMove(ctx context.Context, cfg *config.Config, fen string, w output.ResultWriter, log zerolog.Logger) error {
	pos, err := chess.ParseFEN(fen)
	if err != nil {
		return err
	}

	s, err := session.Start(ctx, cfg.Engine, log)
	if err != nil {
		return err
	}
	defer terminate(s, log)

	mv, err := s.RequestMove(ctx, pos, session.BudgetClock(cfg.Batch.BudgetMillis))
	if err != nil {
		return err
	}
	return w.WriteAnalysis(worker.ProcessResult{FEN: fen, Move: mv})
}

// runGame hosts one game between the configured players.
func runGame(ctx context.Context, cfg *config.Config, w output.ResultWriter, log zerolog.Logger) error {
	var engine player.Mover
	if cfg.Match.White.Kind == config.PlayerEngine || cfg.Match.Black.Kind == config.PlayerEngine {
		s, err := session.Start(ctx, cfg.Engine, log.With().Str("player", config.PlayerEngine).Logger())
		if err != nil {
			return err
		}
		defer terminate(s, log)
		engine = s
	}

	white, err := player.New(cfg.Match.White, engine)
	if err != nil {
		return fmt.Errorf("white: %w", err)
	}
	defer closePlayer(white)

	black, err := player.New(cfg.Match.Black, engine)
	if err != nil {
		return fmt.Errorf("black: %w", err)
	}
	defer closePlayer(black)

	res, err := match.Play(ctx, white, black, match.OptionsFrom(cfg.Match), log)
	if err != nil {
		return err
	}

	g := output.Game{
		Event:  eventName,
		White:  cfg.Match.White.Kind,
		Black:  cfg.Match.Black.Kind,
		Result: res,
	}
	if cfg.Match.PGNFile == "" {
		return w.WriteGame(g)
	}
	return writePGNFile(cfg.Match.PGNFile, g)
}

// runBatch analyses every position in the positions file.
func runBatch(ctx context.Context, cfg *config.Config, w output.ResultWriter, log zerolog.Logger) error {
	items, err := batch.ReadPositionsFile(cfg.Batch.Positions)
	if err != nil {
		return err
	}

	a := batch.NewAnalyser(batch.SessionStarter(cfg.Engine, log), cfg.Batch, log)
	results, err := a.Run(ctx, items)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Error != nil {
			failed++
		}
		if err := w.WriteAnalysis(res); err != nil {
			return err
		}
	}
	if failed > 0 {
		log.Warn().Int("failed", failed).Int("positions", len(results)).Msg("some positions could not be analysed")
	}
	return nil
}

func closePlayer(m player.Mover) {
	if c, ok := m.(interface{ Close() }); ok {
		c.Close()
	}
}

func writePGNFile(path string, g output.Game) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating PGN file %s: %w", path, err)
	}
	if err := output.NewTextWriter(file).WriteGame(g); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func terminate(s *session.Session, log zerolog.Logger) {
	if err := s.Terminate(); err != nil {
		log.Warn().Err(err).Msg("terminating engine")
	}
}
