package channel

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/lgbarn/mystic-bridge/internal/bitboard"
	"github.com/lgbarn/mystic-bridge/internal/errors"
)

// watchBoard subscribes to changes of the board file's directory. Engines
// commonly replace the file by rename, which only a directory watch sees.
func (c *Channel) watchBoard() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(c.boardPath)); err != nil {
		w.Close() //nolint:errcheck // reporting the Add failure
		return err
	}
	c.watcher = w
	return nil
}

// submitFile writes the request board with latest_move cleared and waits for
// the engine to write back a board carrying a move.
func (c *Channel) submitFile(ctx context.Context, pb bitboard.PackedBoard) (bitboard.PackedBoard, error) {
	pb.LatestMove = 0
	if err := bitboard.WriteFile(c.boardPath, pb); err != nil {
		return pb, err
	}
	answer, err := c.awaitAnswer(ctx)
	if err != nil {
		return pb, err
	}
	return answer, nil
}

// settleFile waits for the engine to answer the board of an abandoned
// request, unless it already has.
func (c *Channel) settleFile(ctx context.Context) error {
	if pb, err := bitboard.ReadFile(c.boardPath); err == nil && pb.LatestMove != 0 {
		return nil
	}
	_, err := c.awaitAnswer(ctx)
	return err
}

// awaitAnswer waits until the board file holds a non-zero latest_move.
func (c *Channel) awaitAnswer(ctx context.Context) (bitboard.PackedBoard, error) {
	var lastErr error
	for {
		select {
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return bitboard.PackedBoard{}, c.lost(fmt.Errorf("watcher closed"))
			}
			if filepath.Clean(ev.Name) != c.boardPath || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			answer, err := bitboard.ReadFile(c.boardPath)
			if err != nil {
				// The engine may still be writing.
				lastErr = err
				continue
			}
			if answer.LatestMove == 0 {
				continue
			}
			return answer, nil

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return bitboard.PackedBoard{}, c.lost(fmt.Errorf("watcher closed"))
			}
			return bitboard.PackedBoard{}, fmt.Errorf("watch %s: %w", c.boardPath, err)

		case <-ctx.Done():
			if lastErr != nil {
				c.pending = true
				return bitboard.PackedBoard{}, fmt.Errorf("%w: %v", errors.ErrCorruptResponse, lastErr)
			}
			return bitboard.PackedBoard{}, c.responseErr(ctx.Err())
		}
	}
}
