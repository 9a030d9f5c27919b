package config

import (
	"io"
	"time"

	"github.com/lgbarn/mystic-bridge/internal/channel"
)

// ConfigBuilder provides a fluent API for building Config instances.
type ConfigBuilder struct {
	cfg *Config
}

// NewConfigBuilder creates a new ConfigBuilder with default values.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		cfg: NewConfig(),
	}
}

// Build returns the built Config.
func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}

// WithEngineExecutable runs the engine as a child process.
func (b *ConfigBuilder) WithEngineExecutable(path string, args ...string) *ConfigBuilder {
	b.cfg.Engine.Executable = path
	b.cfg.Engine.Args = args
	return b
}

// WithEngineURL reaches the engine over a websocket.
func (b *ConfigBuilder) WithEngineURL(url string) *ConfigBuilder {
	b.cfg.Engine.URL = url
	return b
}

// WithProtocol sets the exchange protocol.
func (b *ConfigBuilder) WithProtocol(p channel.Protocol) *ConfigBuilder {
	b.cfg.Engine.Protocol = p
	return b
}

// WithBoardPath sets the shared board file.
func (b *ConfigBuilder) WithBoardPath(path string) *ConfigBuilder {
	b.cfg.Engine.BoardPath = path
	return b
}

// WithTimeouts sets the handshake, response and exit timeouts.
func (b *ConfigBuilder) WithTimeouts(handshake, response, exit time.Duration) *ConfigBuilder {
	b.cfg.Engine.HandshakeTimeout = handshake
	b.cfg.Engine.ResponseTimeout = response
	b.cfg.Engine.ExitTimeout = exit
	return b
}

// WithPlayers sets the kinds of the white and black players.
func (b *ConfigBuilder) WithPlayers(white, black string) *ConfigBuilder {
	b.cfg.Match.White.Kind = white
	b.cfg.Match.Black.Kind = black
	return b
}

// WithTimeControl sets each side's clock and increment.
func (b *ConfigBuilder) WithTimeControl(clock, increment time.Duration) *ConfigBuilder {
	b.cfg.Match.TimeControl = clock
	b.cfg.Match.Increment = increment
	return b
}

// WithStartFEN sets the starting position of a hosted game.
func (b *ConfigBuilder) WithStartFEN(fen string) *ConfigBuilder {
	b.cfg.Match.StartFEN = fen
	return b
}

// WithPositions enables batch analysis of a FEN file.
func (b *ConfigBuilder) WithPositions(path string, workers int) *ConfigBuilder {
	b.cfg.Batch.Positions = path
	b.cfg.Batch.Workers = workers
	return b
}

// WithJSONOutput enables JSON output.
func (b *ConfigBuilder) WithJSONOutput(enabled bool) *ConfigBuilder {
	if enabled {
		b.cfg.Output.Format = JSONFormat
	} else {
		b.cfg.Output.Format = TextFormat
	}
	return b
}

// WithOutput sets the output writer.
func (b *ConfigBuilder) WithOutput(w io.Writer) *ConfigBuilder {
	b.cfg.Output.Writer = w
	return b
}

// WithLog sets the log writer and level.
func (b *ConfigBuilder) WithLog(w io.Writer, level string) *ConfigBuilder {
	b.cfg.LogWriter = w
	b.cfg.LogLevel = level
	return b
}
