package channel

import (
	"fmt"
	"time"

	"github.com/lgbarn/mystic-bridge/internal/errors"
)

// Protocol selects how boards travel to the engine and answers come back.
type Protocol string

const (
	// ProtocolPath sends the absolute path of a JSON board file; the engine
	// rewrites the file and prints the sentinel.
	ProtocolPath Protocol = "path"

	// ProtocolPayload sends the board JSON itself on one line; the engine
	// prints the updated board JSON on one line, then the sentinel.
	ProtocolPayload Protocol = "payload"

	// ProtocolLegacy sends `"<FEN>" <milliseconds>`; the move is the last
	// token of the sentinel line.
	ProtocolLegacy Protocol = "legacy"

	// ProtocolFile spawns nothing: host and engine share a board file and
	// completion is a rewrite carrying a non-zero latest_move.
	ProtocolFile Protocol = "file"
)

// ParseProtocol converts a protocol name.
func ParseProtocol(s string) (Protocol, error) {
	switch p := Protocol(s); p {
	case ProtocolPath, ProtocolPayload, ProtocolLegacy, ProtocolFile:
		return p, nil
	case "":
		return ProtocolPath, nil
	default:
		return "", fmt.Errorf("unknown protocol %q: %w", s, errors.ErrInvalidConfig)
	}
}

// Default markers and directives.
const (
	DefaultReadyMarker    = "Mystic Bot Ready"
	DefaultSentinel       = "New Board Saved Successfully"
	DefaultLegacySentinel = "Best next move"
	DefaultExitDirective  = "exit"
)

// Options configures a Channel.
type Options struct {
	Protocol Protocol

	// Executable and Args start the engine process. Env entries are
	// appended to the host environment.
	Executable string
	Args       []string
	Env        []string

	// URL selects the websocket transport instead of a child process.
	URL string

	// BoardPath is the board file for the path and file protocols. The path
	// protocol creates (and later removes) a temporary file when empty.
	BoardPath string

	ReadyMarker   string
	Sentinel      string
	ExitDirective string

	// Zero timeouts wait for the caller's context only.
	HandshakeTimeout time.Duration
	ResponseTimeout  time.Duration
	ExitTimeout      time.Duration
}

// withDefaults fills unset markers.
func (o Options) withDefaults() Options {
	if o.Protocol == "" {
		o.Protocol = ProtocolPath
	}
	if o.ReadyMarker == "" {
		o.ReadyMarker = DefaultReadyMarker
	}
	if o.Sentinel == "" {
		if o.Protocol == ProtocolLegacy {
			o.Sentinel = DefaultLegacySentinel
		} else {
			o.Sentinel = DefaultSentinel
		}
	}
	if o.ExitDirective == "" {
		o.ExitDirective = DefaultExitDirective
	}
	if o.ExitTimeout == 0 {
		o.ExitTimeout = 5 * time.Second
	}
	return o
}

// validate checks that the options describe a reachable engine.
func (o Options) validate() error {
	if _, err := ParseProtocol(string(o.Protocol)); err != nil {
		return err
	}
	if o.Protocol == ProtocolFile {
		if o.BoardPath == "" {
			return fmt.Errorf("file protocol needs a board path: %w", errors.ErrInvalidConfig)
		}
		return nil
	}
	if o.Executable == "" && o.URL == "" {
		return fmt.Errorf("no engine executable or URL: %w", errors.ErrInvalidConfig)
	}
	if o.Executable != "" && o.URL != "" {
		return fmt.Errorf("both engine executable and URL set: %w", errors.ErrInvalidConfig)
	}
	return nil
}

// target names the engine for logs and errors.
func (o Options) target() string {
	switch {
	case o.URL != "":
		return o.URL
	case o.Executable != "":
		return o.Executable
	default:
		return o.BoardPath
	}
}
