package channel

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/lgbarn/mystic-bridge/internal/errors"
)

// maxLineBytes bounds a single engine output line.
const maxLineBytes = 1 << 20

// lineBuffer is how many unread lines the reader holds before it stops
// pulling from the engine.
const lineBuffer = 64

// lineReader turns a blocking line source into a channel so reads can be
// bounded by a context. A single goroutine owns the source.
type lineReader struct {
	lines chan string
	done  chan struct{}
	once  sync.Once
	err   error // set before lines is closed
}

func newLineReader(next func() (string, error)) *lineReader {
	lr := &lineReader{
		lines: make(chan string, lineBuffer),
		done:  make(chan struct{}),
	}
	go lr.run(next)
	return lr
}

// scanLines adapts a byte stream to a line source.
func scanLines(r io.Reader) func() (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return func() (string, error) {
		if scanner.Scan() {
			return strings.TrimRight(scanner.Text(), "\r"), nil
		}
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
}

func (lr *lineReader) run(next func() (string, error)) {
	for {
		line, err := next()
		if err != nil {
			lr.err = err
			close(lr.lines)
			return
		}
		select {
		case lr.lines <- line:
		case <-lr.done:
			return
		}
	}
}

// readLine returns the next line. It fails with the context's error when ctx
// ends first and with io.EOF (or the source's error) once the stream is over.
func (lr *lineReader) readLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-lr.lines:
		if !ok {
			return "", lr.streamErr()
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (lr *lineReader) streamErr() error {
	if lr.err == nil || errors.Is(lr.err, io.EOF) {
		return io.EOF
	}
	return lr.err
}

// readUntil reads lines until one contains marker and returns it. Every other
// line is passed to skipped when it is non-nil.
func (lr *lineReader) readUntil(ctx context.Context, marker string, skipped func(string)) (string, error) {
	for {
		line, err := lr.readLine(ctx)
		if err != nil {
			return "", err
		}
		if strings.Contains(line, marker) {
			return line, nil
		}
		if skipped != nil {
			skipped(line)
		}
	}
}

// drain discards lines that are already buffered and returns them.
func (lr *lineReader) drain() []string {
	var stale []string
	for {
		select {
		case line, ok := <-lr.lines:
			if !ok {
				return stale
			}
			stale = append(stale, line)
		default:
			return stale
		}
	}
}

// stop releases the reader goroutine if it is blocked on delivery.
func (lr *lineReader) stop() {
	lr.once.Do(func() { close(lr.done) })
}
