// Package errors provides sentinel errors and error types for mystic-bridge.
// It defines the failure taxonomy of the engine protocol and structured error
// types that preserve context while allowing inspection with errors.Is() and
// errors.As().
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure conditions.
// Use these with errors.Is() to check for specific error types.
var (
	// ErrMalformedBoard indicates two piece bitmaps claim the same square.
	ErrMalformedBoard = errors.New("malformed board")

	// ErrInvalidEncoding indicates a packed move with conflicting flags.
	ErrInvalidEncoding = errors.New("invalid move encoding")

	// ErrHandshakeTimeout indicates the engine never printed its readiness marker.
	ErrHandshakeTimeout = errors.New("engine handshake timed out")

	// ErrProcessExited indicates the engine closed its output stream.
	ErrProcessExited = errors.New("engine process exited")

	// ErrEngineCrashed indicates the engine went away mid-request.
	ErrEngineCrashed = errors.New("engine crashed")

	// ErrCorruptResponse indicates the engine's answer could not be decoded.
	ErrCorruptResponse = errors.New("corrupt engine response")

	// ErrEngineTimeout indicates a bounded wait for the engine expired.
	ErrEngineTimeout = errors.New("engine timed out")

	// ErrEngineFailure marks every failure surfaced by an engine session.
	ErrEngineFailure = errors.New("engine failure")

	// ErrSessionClosed indicates use of a terminated session.
	ErrSessionClosed = errors.New("session closed")

	// ErrInvalidState indicates a channel operation issued from the wrong state.
	ErrInvalidState = errors.New("invalid channel state")

	// ErrInvalidFEN indicates a malformed FEN string.
	ErrInvalidFEN = errors.New("invalid FEN string")

	// ErrIllegalMove indicates a move rejected by the host's rules.
	ErrIllegalMove = errors.New("illegal move")

	// ErrInvalidConfig indicates invalid configuration values.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// EngineError wraps errors with engine protocol context: the operation that
// failed, the protocol in use, and the channel state at the time.
// It supports unwrapping via errors.Is() and errors.As().
type EngineError struct {
	Err        error  // The underlying error
	Op         string // Operation, e.g. "handshake", "submit", "close"
	Protocol   string // Exchange protocol (if known)
	State      string // Channel state when the error occurred (if known)
	Executable string // Engine executable or URL (if known)
}

// Error returns a formatted error message including all available context.
func (e *EngineError) Error() string {
	var parts []string

	if e.Executable != "" {
		parts = append(parts, e.Executable)
	}
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Protocol != "" {
		parts = append(parts, fmt.Sprintf("protocol %s", e.Protocol))
	}
	if e.State != "" {
		parts = append(parts, fmt.Sprintf("state %s", e.State))
	}

	context := strings.Join(parts, ", ")
	if e.Err == nil {
		return context
	}
	if context == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", context, e.Err)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// BoardError reports a board decoding problem at a specific bit index.
type BoardError struct {
	Err    error    // The underlying error
	Path   string   // Board file (if known)
	Index  int      // Effective bit index, -1 if not applicable
	Pieces []string // Bitmaps that claimed the index
}

// Error returns a formatted error message with location and context.
func (e *BoardError) Error() string {
	var parts []string

	if e.Path != "" {
		parts = append(parts, e.Path)
	}
	if e.Index >= 0 {
		parts = append(parts, fmt.Sprintf("bit %d", e.Index))
	}
	if len(e.Pieces) > 0 {
		parts = append(parts, fmt.Sprintf("claimed by %s", strings.Join(e.Pieces, ", ")))
	}

	if e.Err != nil {
		if len(parts) > 0 {
			return fmt.Sprintf("%s: %v", strings.Join(parts, ": "), e.Err)
		}
		return e.Err.Error()
	}
	if len(parts) > 0 {
		return strings.Join(parts, ": ")
	}
	return "board error"
}

// Unwrap returns the underlying error.
func (e *BoardError) Unwrap() error {
	return e.Err
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors, or nil if all are nil.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Wrap adds context to an error while preserving the underlying error
// for inspection with errors.Is() and errors.As().
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrapf adds formatted context to an error while preserving the underlying
// error for inspection with errors.Is() and errors.As().
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}
