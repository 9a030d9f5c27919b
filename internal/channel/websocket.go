package channel

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

// wsTransport reaches an engine served over a websocket. Each text message
// may carry one or more lines.
type wsTransport struct {
	conn *websocket.Conn
	lr   *lineReader
	log  zerolog.Logger
}

func dialWebsocket(ctx context.Context, url string, log zerolog.Logger) (*wsTransport, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(maxLineBytes)
	log.Debug().Str("url", url).Msg("engine connected")

	var pending []string
	next := func() (string, error) {
		for len(pending) == 0 {
			typ, data, err := conn.Read(context.Background())
			if err != nil {
				return "", err
			}
			if typ != websocket.MessageText {
				continue
			}
			pending = strings.Split(strings.TrimRight(string(data), "\r\n"), "\n")
		}
		line := strings.TrimRight(pending[0], "\r")
		pending = pending[1:]
		return line, nil
	}

	return &wsTransport{conn: conn, lr: newLineReader(next), log: log}, nil
}

func (t *wsTransport) reader() *lineReader {
	return t.lr
}

func (t *wsTransport) writeLine(ctx context.Context, line string) error {
	return t.conn.Write(ctx, websocket.MessageText, []byte(line))
}

func (t *wsTransport) shutdown(directive string, timeout time.Duration) error {
	if directive != "" {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := t.writeLine(ctx, directive); err != nil {
			t.log.Debug().Err(err).Msg("exit directive not delivered")
		}
		cancel()
	}
	// The engine may already have closed its side after the directive.
	if err := t.conn.Close(websocket.StatusNormalClosure, ""); err != nil {
		t.log.Debug().Err(err).Msg("websocket close")
	}
	t.lr.stop()
	return nil
}
