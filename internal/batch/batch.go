// Package batch analyses a list of positions with a pool of engine sessions,
// one session per worker.
package batch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lgbarn/mystic-bridge/internal/chess"
	"github.com/lgbarn/mystic-bridge/internal/config"
	"github.com/lgbarn/mystic-bridge/internal/errors"
	"github.com/lgbarn/mystic-bridge/internal/hashing"
	"github.com/lgbarn/mystic-bridge/internal/player"
	"github.com/lgbarn/mystic-bridge/internal/session"
	"github.com/lgbarn/mystic-bridge/internal/worker"
)

const maxBufferSize = 100

// Engine is what a worker needs from its session.
type Engine interface {
	player.Mover
	Closed() bool
	Terminate() error
}

// StartFunc starts one engine.
type StartFunc func(ctx context.Context) (Engine, error)

// SessionStarter starts engine sessions from cfg.
func SessionStarter(cfg config.EngineConfig, log zerolog.Logger) StartFunc {
	return func(ctx context.Context) (Engine, error) {
		s, err := session.Start(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// ReadPositions reads one FEN per line. Blank lines and lines starting
// with '#' are skipped; indexes count positions only.
func ReadPositions(r io.Reader) ([]worker.WorkItem, error) {
	var items []worker.WorkItem
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		items = append(items, worker.WorkItem{FEN: line, Index: len(items)})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read positions")
	}
	return items, nil
}

// ReadPositionsFile reads positions from path.
func ReadPositionsFile(path string) ([]worker.WorkItem, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is the user's positions file
	if err != nil {
		return nil, errors.Wrap(err, "open positions")
	}
	defer f.Close()
	return ReadPositions(f)
}

// Analyser runs positions through a pool of engines.
type Analyser struct {
	start StartFunc
	cfg   config.BatchConfig
	log   zerolog.Logger
}

// NewAnalyser creates an analyser. Sessions are started lazily by Run.
func NewAnalyser(start StartFunc, cfg config.BatchConfig, log zerolog.Logger) *Analyser {
	return &Analyser{start: start, cfg: cfg, log: log}
}

// Run analyses items and returns one result per item in input order.
// Failures of individual positions are reported in their results; Run
// itself fails only when no engine can be started or ctx is cancelled.
func (a *Analyser) Run(ctx context.Context, items []worker.WorkItem) ([]worker.ProcessResult, error) {
	unique, duplicates := a.dedupe(items)
	if len(unique) == 0 {
		return a.merge(nil, items, duplicates), nil
	}

	numWorkers := max(1, min(a.cfg.Workers, len(unique)))
	engines, err := a.startEngines(ctx, numWorkers)
	if err != nil {
		return nil, err
	}
	defer a.stopEngines(engines)

	clock := session.BudgetClock(a.cfg.BudgetMillis)
	process := func(w int, item worker.WorkItem) worker.ProcessResult {
		return a.analyse(ctx, engines, w, item, clock)
	}

	pool := worker.NewPool(numWorkers, min(len(unique), maxBufferSize), process)
	pool.Start()
	stopOnCancel := context.AfterFunc(ctx, pool.Stop)
	results := pool.Run(unique)
	stopOnCancel()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.log.Info().
		Int("positions", len(items)).
		Int("analysed", len(unique)).
		Int("duplicates", len(duplicates)).
		Int("workers", numWorkers).
		Msg("batch finished")
	return a.merge(results, items, duplicates), nil
}

// dedupe splits off positions already seen earlier in the list and maps
// each of them to its first occurrence.
func (a *Analyser) dedupe(items []worker.WorkItem) ([]worker.WorkItem, map[int]int) {
	duplicates := make(map[int]int)
	if !a.cfg.SkipDuplicates {
		return items, duplicates
	}

	detector := hashing.NewDuplicateDetector(false)
	unique := make([]worker.WorkItem, 0, len(items))
	for _, item := range items {
		pos, err := chess.ParseFEN(item.FEN)
		if err != nil {
			// Let the worker report it.
			unique = append(unique, item)
			continue
		}
		if first, dup := detector.CheckAndAdd(pos, item.Index); dup {
			duplicates[item.Index] = first
			continue
		}
		unique = append(unique, item)
	}
	return unique, duplicates
}

// merge fills in duplicate results from their first occurrence.
func (a *Analyser) merge(results []worker.ProcessResult, items []worker.WorkItem, duplicates map[int]int) []worker.ProcessResult {
	byIndex := make(map[int]worker.ProcessResult, len(results))
	for _, res := range results {
		byIndex[res.Index] = res
	}

	out := make([]worker.ProcessResult, 0, len(items))
	for _, item := range items {
		if first, ok := duplicates[item.Index]; ok {
			orig := byIndex[first]
			out = append(out, worker.ProcessResult{
				FEN:       item.FEN,
				Index:     item.Index,
				Move:      orig.Move,
				Error:     orig.Error,
				Duplicate: true,
				Worker:    orig.Worker,
			})
			continue
		}
		out = append(out, byIndex[item.Index])
	}
	return out
}

func (a *Analyser) analyse(ctx context.Context, engines []Engine, w int, item worker.WorkItem, clock player.Clock) worker.ProcessResult {
	res := worker.ProcessResult{FEN: item.FEN, Index: item.Index}
	log := a.log.With().Int("worker", w).Int("index", item.Index).Logger()

	if err := ctx.Err(); err != nil {
		res.Error = err
		return res
	}

	pos, err := chess.ParseFEN(item.FEN)
	if err != nil {
		res.Error = err
		return res
	}

	if engines[w] == nil || engines[w].Closed() {
		log.Warn().Msg("restarting engine")
		if engines[w] != nil {
			if err := engines[w].Terminate(); err != nil {
				log.Debug().Err(err).Msg("terminating crashed engine")
			}
			engines[w] = nil
		}
		e, err := a.start(ctx)
		if err != nil {
			res.Error = err
			return res
		}
		engines[w] = e
	}

	res.Move, res.Error = engines[w].RequestMove(ctx, pos, clock)
	if res.Error != nil {
		log.Warn().Err(res.Error).Str("fen", item.FEN).Msg("position failed")
	}
	return res
}

func (a *Analyser) startEngines(ctx context.Context, n int) ([]Engine, error) {
	engines := make([]Engine, n)
	for i := range engines {
		e, err := a.start(ctx)
		if err != nil {
			a.stopEngines(engines)
			return nil, fmt.Errorf("starting engine %d of %d: %w", i+1, n, err)
		}
		engines[i] = e
	}
	return engines, nil
}

func (a *Analyser) stopEngines(engines []Engine) {
	for i, e := range engines {
		if e == nil {
			continue
		}
		if err := e.Terminate(); err != nil {
			a.log.Warn().Err(err).Int("worker", i).Msg("terminating engine")
		}
	}
}
