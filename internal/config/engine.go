package config

import (
	"fmt"
	"time"

	"github.com/lgbarn/mystic-bridge/internal/channel"
	"github.com/lgbarn/mystic-bridge/internal/errors"
)

// EngineConfig describes how to reach and talk to the engine.
type EngineConfig struct {
	// Protocol is one of path, payload, legacy or file.
	Protocol channel.Protocol `yaml:"protocol"`

	// Executable starts the engine as a child process; URL reaches it over
	// a websocket instead.
	Executable string   `yaml:"executable"`
	Args       []string `yaml:"args"`
	Env        []string `yaml:"env"`
	URL        string   `yaml:"url"`

	// BoardPath is the shared board file. The path protocol uses a
	// temporary file when it is empty.
	BoardPath string `yaml:"board_path"`

	ReadyMarker   string `yaml:"ready_marker"`
	Sentinel      string `yaml:"sentinel"`
	ExitDirective string `yaml:"exit_directive"`

	// Durations are written as strings in YAML, e.g. "30s".
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	ResponseTimeout  time.Duration `yaml:"response_timeout"`
	ExitTimeout      time.Duration `yaml:"exit_timeout"`
}

// NewEngineConfig creates an EngineConfig with default values. A zero
// response timeout leaves the bound to the caller's context.
func NewEngineConfig() *EngineConfig {
	return &EngineConfig{
		Protocol:         channel.ProtocolPath,
		ReadyMarker:      channel.DefaultReadyMarker,
		ExitDirective:    channel.DefaultExitDirective,
		HandshakeTimeout: 30 * time.Second,
		ExitTimeout:      5 * time.Second,
	}
}

// Validate checks that the engine can be reached.
func (e *EngineConfig) Validate() error {
	if err := e.validateValues(); err != nil {
		return err
	}
	switch {
	case e.Protocol == channel.ProtocolFile:
		if e.BoardPath == "" {
			return fmt.Errorf("file protocol requires board_path: %w", errors.ErrInvalidConfig)
		}
	case e.Executable == "" && e.URL == "":
		return fmt.Errorf("engine executable or url required: %w", errors.ErrInvalidConfig)
	case e.Executable != "" && e.URL != "":
		return fmt.Errorf("engine executable and url are exclusive: %w", errors.ErrInvalidConfig)
	}
	return nil
}

func (e *EngineConfig) validateValues() error {
	if _, err := channel.ParseProtocol(string(e.Protocol)); err != nil {
		return err
	}
	if e.HandshakeTimeout < 0 || e.ResponseTimeout < 0 || e.ExitTimeout < 0 {
		return fmt.Errorf("negative engine timeout: %w", errors.ErrInvalidConfig)
	}
	return nil
}

// Options converts the configuration to channel options.
func (e *EngineConfig) Options() channel.Options {
	return channel.Options{
		Protocol:         e.Protocol,
		Executable:       e.Executable,
		Args:             e.Args,
		Env:              e.Env,
		URL:              e.URL,
		BoardPath:        e.BoardPath,
		ReadyMarker:      e.ReadyMarker,
		Sentinel:         e.Sentinel,
		ExitDirective:    e.ExitDirective,
		HandshakeTimeout: e.HandshakeTimeout,
		ResponseTimeout:  e.ResponseTimeout,
		ExitTimeout:      e.ExitTimeout,
	}
}
