// Package channel drives a single external chess engine: it starts the engine
// (or connects to it), waits for its readiness marker, exchanges boards and
// moves with it, and shuts it down.
//
// A Channel is not safe for concurrent use; one request is outstanding at a
// time.
package channel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/lgbarn/mystic-bridge/internal/bitboard"
	"github.com/lgbarn/mystic-bridge/internal/errors"
	"github.com/lgbarn/mystic-bridge/internal/move"
)

// Channel is a line-oriented connection to one engine.
type Channel struct {
	opts  Options
	log   zerolog.Logger
	state State

	tr        transport
	watcher   *fsnotify.Watcher
	boardPath string
	ownsBoard bool
	released  bool

	// pending is set while the engine still owes the answer to a request
	// the host stopped waiting for.
	pending bool
}

// Open starts or connects to the engine described by opts. The returned
// channel is AwaitingReady; call AwaitReady before submitting.
func Open(ctx context.Context, opts Options, log zerolog.Logger) (*Channel, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	c := &Channel{
		opts:  opts,
		log:   log.With().Str("protocol", string(opts.Protocol)).Str("engine", opts.target()).Logger(),
		state: Idle,
	}

	if err := c.prepareBoard(); err != nil {
		return nil, c.fail("open", err)
	}

	var err error
	switch {
	case opts.Protocol == ProtocolFile:
		err = c.watchBoard()
	case opts.URL != "":
		c.tr, err = dialWebsocket(ctx, opts.URL, c.log)
	default:
		c.tr, err = startProcess(opts, c.log)
	}
	if err != nil {
		_ = c.release()
		return nil, c.fail("open", err)
	}

	c.state = AwaitingReady
	return c, nil
}

func (c *Channel) prepareBoard() error {
	switch c.opts.Protocol {
	case ProtocolPath, ProtocolFile:
	default:
		return nil
	}

	if c.opts.BoardPath == "" {
		f, err := os.CreateTemp("", "mystic-board-*.json")
		if err != nil {
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		c.boardPath = f.Name()
		c.ownsBoard = true
	} else {
		c.boardPath = c.opts.BoardPath
	}

	abs, err := filepath.Abs(c.boardPath)
	if err != nil {
		return err
	}
	c.boardPath = abs
	return nil
}

// State returns the current protocol state.
func (c *Channel) State() State {
	return c.state
}

// BoardPath returns the absolute board file path, or "" for protocols that
// do not use one.
func (c *Channel) BoardPath() string {
	return c.boardPath
}

// AwaitReady consumes engine output until a line containing the readiness
// marker arrives. Lines before it are logged and discarded.
func (c *Channel) AwaitReady(ctx context.Context) error {
	if c.state != AwaitingReady {
		return c.fail("handshake", errors.ErrInvalidState)
	}
	if c.opts.Protocol == ProtocolFile {
		c.state = Ready
		return nil
	}

	if c.opts.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.HandshakeTimeout)
		defer cancel()
	}

	_, err := c.tr.reader().readUntil(ctx, c.opts.ReadyMarker, c.logSkipped("handshake"))
	switch {
	case err == nil:
		c.state = Ready
		c.log.Debug().Msg("engine ready")
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return c.fail("handshake", errors.ErrHandshakeTimeout)
	case errors.Is(err, context.Canceled):
		return c.fail("handshake", err)
	default:
		c.state = Closed
		return c.fail("handshake", fmt.Errorf("%w: %w: %v", errors.ErrHandshakeTimeout, errors.ErrProcessExited, err))
	}
}

// Submit sends a board to the engine and returns the move it answered with.
// It is used by the path, payload and file protocols.
func (c *Channel) Submit(ctx context.Context, pb bitboard.PackedBoard) (move.PackedMove, error) {
	if err := c.begin("submit"); err != nil {
		return 0, err
	}
	defer c.end()

	ctx, cancel := c.responseContext(ctx)
	defer cancel()

	if err := c.settle(ctx); err != nil {
		return 0, c.fail("submit", err)
	}

	var (
		answer bitboard.PackedBoard
		err    error
	)
	switch c.opts.Protocol {
	case ProtocolPath:
		answer, err = c.submitPath(ctx, pb)
	case ProtocolPayload:
		answer, err = c.submitPayload(ctx, pb)
	case ProtocolFile:
		answer, err = c.submitFile(ctx, pb)
	default:
		err = fmt.Errorf("%s protocol takes FEN requests: %w", c.opts.Protocol, errors.ErrInvalidState)
	}
	if err != nil {
		return 0, c.fail("submit", err)
	}
	if answer.LatestMove == 0 {
		return 0, c.fail("submit", fmt.Errorf("%w: board came back without a move", errors.ErrCorruptResponse))
	}
	return answer.LatestMove, nil
}

// SubmitFEN sends a legacy `"<FEN>" <milliseconds>` request and returns the
// last token of the sentinel line.
func (c *Channel) SubmitFEN(ctx context.Context, fen string, budgetMillis int64) (string, error) {
	if err := c.begin("submit"); err != nil {
		return "", err
	}
	defer c.end()

	if c.opts.Protocol != ProtocolLegacy {
		return "", c.fail("submit", fmt.Errorf("%s protocol takes boards: %w", c.opts.Protocol, errors.ErrInvalidState))
	}

	ctx, cancel := c.responseContext(ctx)
	defer cancel()

	if err := c.settle(ctx); err != nil {
		return "", c.fail("submit", err)
	}
	if err := c.tr.writeLine(ctx, fmt.Sprintf("%q %d", fen, budgetMillis)); err != nil {
		return "", c.fail("submit", c.lost(err))
	}

	line, err := c.tr.reader().readUntil(ctx, c.opts.Sentinel, c.logSkipped("response"))
	if err != nil {
		return "", c.fail("submit", c.responseErr(err))
	}

	rest := line[strings.Index(line, c.opts.Sentinel)+len(c.opts.Sentinel):]
	fields := strings.Fields(strings.TrimLeft(rest, ":"))
	if len(fields) == 0 {
		return "", c.fail("submit", fmt.Errorf("%w: no move after %q", errors.ErrCorruptResponse, c.opts.Sentinel))
	}
	return fields[len(fields)-1], nil
}

// Close asks the engine to exit, reaps it and removes a board file the
// channel created. It is safe to call more than once.
func (c *Channel) Close() error {
	if c.released {
		return nil
	}
	err := c.release()
	c.state = Closed
	if err != nil {
		return c.fail("close", err)
	}
	return nil
}

func (c *Channel) release() error {
	c.released = true

	var errs []error
	if c.tr != nil {
		errs = append(errs, c.tr.shutdown(c.opts.ExitDirective, c.opts.ExitTimeout))
	}
	if c.watcher != nil {
		errs = append(errs, c.watcher.Close())
	}
	if c.ownsBoard {
		if err := os.Remove(c.boardPath); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Channel) begin(op string) error {
	if c.state != Ready {
		return c.fail(op, errors.ErrInvalidState)
	}
	c.state = AwaitingResponse
	return nil
}

// end returns to Ready unless the request closed the channel.
func (c *Channel) end() {
	if c.state == AwaitingResponse {
		c.state = Ready
	}
}

func (c *Channel) responseContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.ResponseTimeout > 0 {
		return context.WithTimeout(ctx, c.opts.ResponseTimeout)
	}
	return context.WithCancel(ctx)
}

// settle prepares the channel for a new request. If an earlier request was
// abandoned it first waits, within ctx, for the engine to deliver that late
// answer and throws it away, so the next answer read belongs to the next
// request. Nothing is written while an answer is still owed.
func (c *Channel) settle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.pending {
		var err error
		if c.opts.Protocol == ProtocolFile {
			err = c.settleFile(ctx)
		} else {
			_, err = c.tr.reader().readUntil(ctx, c.opts.Sentinel, c.logSkipped("late answer"))
			if err != nil {
				err = c.responseErr(err)
			}
		}
		if err != nil {
			if errors.Is(err, errors.ErrEngineTimeout) {
				return fmt.Errorf("%w: engine is still answering an abandoned request", err)
			}
			return err
		}
		c.pending = false
		c.log.Debug().Msg("discarded late answer to an abandoned request")
	}
	if c.tr != nil {
		c.discardStale()
	}
	return nil
}

// discardStale drops output left over from an earlier request.
func (c *Channel) discardStale() {
	if stale := c.tr.reader().drain(); len(stale) > 0 {
		c.log.Debug().Strs("lines", stale).Msg("discarded stale engine output")
	}
}

// responseErr classifies a failed wait for an answer. When the host gives up
// on the answer the request stays owed.
func (c *Channel) responseErr(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		c.pending = true
		return errors.ErrEngineTimeout
	case errors.Is(err, context.Canceled):
		c.pending = true
		return err
	default:
		return c.lost(err)
	}
}

// lost marks the channel closed after the engine went away.
func (c *Channel) lost(err error) error {
	c.state = Closed
	return fmt.Errorf("%w: %v", errors.ErrEngineCrashed, err)
}

func (c *Channel) logSkipped(phase string) func(string) {
	return func(line string) {
		c.log.Debug().Str("phase", phase).Str("line", line).Msg("engine output")
	}
}

func (c *Channel) fail(op string, err error) error {
	return &errors.EngineError{
		Err:        err,
		Op:         op,
		Protocol:   string(c.opts.Protocol),
		State:      c.state.String(),
		Executable: c.opts.target(),
	}
}

func (c *Channel) submitPath(ctx context.Context, pb bitboard.PackedBoard) (bitboard.PackedBoard, error) {
	if err := bitboard.WriteFile(c.boardPath, pb); err != nil {
		return pb, err
	}
	if err := c.tr.writeLine(ctx, c.boardPath); err != nil {
		return pb, c.lost(err)
	}
	if _, err := c.tr.reader().readUntil(ctx, c.opts.Sentinel, c.logSkipped("response")); err != nil {
		return pb, c.responseErr(err)
	}

	answer, err := bitboard.ReadFile(c.boardPath)
	if err != nil {
		return pb, fmt.Errorf("%w: %v", errors.ErrCorruptResponse, err)
	}
	return answer, nil
}

func (c *Channel) submitPayload(ctx context.Context, pb bitboard.PackedBoard) (bitboard.PackedBoard, error) {
	data, err := bitboard.MarshalLine(pb)
	if err != nil {
		return pb, err
	}

	if err := c.tr.writeLine(ctx, string(data)); err != nil {
		return pb, c.lost(err)
	}

	var payload string
	collect := func(line string) {
		if strings.HasPrefix(strings.TrimSpace(line), "{") {
			payload = line
			return
		}
		c.logSkipped("response")(line)
	}
	if _, err := c.tr.reader().readUntil(ctx, c.opts.Sentinel, collect); err != nil {
		return pb, c.responseErr(err)
	}
	if payload == "" {
		return pb, fmt.Errorf("%w: no board before %q", errors.ErrCorruptResponse, c.opts.Sentinel)
	}

	answer, err := bitboard.Unmarshal([]byte(payload))
	if err != nil {
		return pb, fmt.Errorf("%w: %v", errors.ErrCorruptResponse, err)
	}
	return answer, nil
}
