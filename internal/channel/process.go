package channel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lgbarn/mystic-bridge/internal/errors"
)

// transport carries request lines to the engine and engine lines back.
type transport interface {
	writeLine(ctx context.Context, line string) error
	reader() *lineReader
	// shutdown sends the exit directive, waits up to timeout for the engine
	// to go away and then forces it.
	shutdown(directive string, timeout time.Duration) error
}

// streamTransport talks to an engine over a pair of byte streams. When cmd
// is set the streams are the pipes of a child process.
type streamTransport struct {
	w   io.WriteCloser
	lr  *lineReader
	cmd *exec.Cmd
	log zerolog.Logger

	mu sync.Mutex // serialises writes
}

func newStreamTransport(r io.Reader, w io.WriteCloser, log zerolog.Logger) *streamTransport {
	return &streamTransport{
		w:   w,
		lr:  newLineReader(scanLines(r)),
		log: log,
	}
}

// startProcess launches the engine executable with piped stdin and stdout.
// The engine's stderr is forwarded to the logger.
func startProcess(opts Options, log zerolog.Logger) (*streamTransport, error) {
	cmd := exec.Command(opts.Executable, opts.Args...) //nolint:gosec // G204: engine executable comes from configuration
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	cmd.Stderr = &logWriter{log: log.With().Str("stream", "stderr").Logger()}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", opts.Executable, err)
	}
	log.Debug().Int("pid", cmd.Process.Pid).Str("executable", opts.Executable).Msg("engine started")

	t := newStreamTransport(stdout, stdin, log)
	t.cmd = cmd
	return t, nil
}

func (t *streamTransport) reader() *lineReader {
	return t.lr
}

func (t *streamTransport) writeLine(_ context.Context, line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.w, line+"\n")
	return err
}

func (t *streamTransport) shutdown(directive string, timeout time.Duration) error {
	if directive != "" {
		if err := t.writeLine(context.Background(), directive); err != nil {
			t.log.Debug().Err(err).Msg("exit directive not delivered")
		}
	}
	closeErr := t.w.Close()

	if t.cmd == nil {
		t.lr.stop()
		return closeErr
	}

	waitc := make(chan error, 1)
	go func() { waitc <- t.cmd.Wait() }()

	var err error
	select {
	case err = <-waitc:
	case <-time.After(timeout):
		t.log.Warn().Dur("timeout", timeout).Msg("engine ignored exit directive, killing")
		if killErr := t.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
			t.lr.stop()
			return fmt.Errorf("kill engine: %w", killErr)
		}
		err = <-waitc
	}
	t.lr.stop()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		t.log.Debug().Int("code", exitErr.ExitCode()).Msg("engine exited")
		return nil
	}
	return err
}

// logWriter forwards whole lines written to it as debug log events.
type logWriter struct {
	log zerolog.Logger
	mu  sync.Mutex
	buf []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimRight(w.buf[:i], "\r")
		if len(line) > 0 {
			w.log.Debug().Bytes("line", line).Msg("engine diagnostics")
		}
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}
