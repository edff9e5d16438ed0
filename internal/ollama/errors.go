// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// ErrorType classifies client failures so the UI can pick recovery hints.
type ErrorType int

const (
	// ErrTypeNotRunning means the daemon is not reachable at all.
	ErrTypeNotRunning ErrorType = iota
	// ErrTypeTimeout means the request exceeded the client timeout.
	ErrTypeTimeout
	// ErrTypeModelNotFound means the requested model is not installed.
	ErrTypeModelNotFound
	// ErrTypeAPI means the daemon answered with an error payload.
	ErrTypeAPI
	// ErrTypeNetwork covers other transport failures.
	ErrTypeNetwork
	// ErrTypeParse means the response body could not be decoded.
	ErrTypeParse
)

// String returns a short label for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeNotRunning:
		return "not running"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeModelNotFound:
		return "model not found"
	case ErrTypeAPI:
		return "api error"
	case ErrTypeNetwork:
		return "network error"
	case ErrTypeParse:
		return "parse error"
	default:
		return "unknown"
	}
}

// Sentinel errors for errors.Is checks.
var (
	ErrNotRunning    = errors.New("ollama is not running")
	ErrTimeout       = errors.New("ollama request timed out")
	ErrModelNotFound = errors.New("model not found")
)

// ClientError is the error type returned by all client operations. Failures
// are always recoverable: callers surface them in the UI, never panic.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ollama: %s: %v", e.Message, e.Cause)
	}
	return "ollama: " + e.Message
}

// Unwrap maps the error type onto its sentinel so errors.Is works, and
// otherwise exposes the cause.
func (e *ClientError) Unwrap() error {
	switch e.Type {
	case ErrTypeNotRunning:
		return ErrNotRunning
	case ErrTypeTimeout:
		return ErrTimeout
	case ErrTypeModelNotFound:
		return ErrModelNotFound
	}
	return e.Cause
}

// newError builds a ClientError.
func newError(t ErrorType, message string, cause error) *ClientError {
	return &ClientError{Type: t, Message: message, Cause: cause}
}

// IsNotRunning reports whether err indicates an unreachable daemon.
func IsNotRunning(err error) bool {
	return errors.Is(err, ErrNotRunning)
}

// IsTimeout reports whether err indicates a timed out request.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsModelNotFound reports whether err indicates a missing model.
func IsModelNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}

// UserHint returns a short actionable hint for the error, for display
// alongside the error message.
func UserHint(err error) string {
	switch {
	case errors.Is(err, ErrNotRunning):
		return "Start the daemon with: ollama serve"
	case errors.Is(err, ErrModelNotFound):
		return "Pull the model with: ollama pull <name>"
	case errors.Is(err, ErrTimeout):
		return "Try again, or switch to a smaller model"
	default:
		return ""
	}
}
