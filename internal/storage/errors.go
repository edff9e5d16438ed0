// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrConversationNotFound indicates the requested conversation does not exist.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrNoAssistantTurn indicates a regenerate was attempted on a
	// conversation with no assistant turn to replace.
	ErrNoAssistantTurn = errors.New("no assistant turn to replace")

	// ErrEmptyContent indicates an attempt to store an empty message or memory.
	ErrEmptyContent = errors.New("empty content")
)

// StoreError wraps a storage failure with the operation that caused it.
type StoreError struct {
	Op  string // Operation, e.g. "load", "fork"
	ID  string // Conversation ID when applicable
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.ID != "" {
		return "storage: " + e.Op + " " + e.ID + ": " + e.Err.Error()
	}
	return "storage: " + e.Op + ": " + e.Err.Error()
}

// Unwrap supports errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}
