// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"strings"
	"time"
)

// =============================================================================
// PERMANENT MEMORY OPERATIONS
// =============================================================================

// Memory is a single conversation-independent fact injected into prompts.
type Memory struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AddMemory appends a fact to the permanent memory store. Whitespace is
// trimmed; empty and duplicate facts are silent no-ops, so re-applying the
// same detected tag cannot grow the store.
func (s *Store) AddMemory(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO memories (content, created_at) VALUES (?, ?)
		 ON CONFLICT(content) DO NOTHING`,
		content, time.Now(),
	)
	if err != nil {
		return &StoreError{Op: "add-memory", Err: err}
	}
	return nil
}

// ListMemories returns all memories in insertion order.
func (s *Store) ListMemories() ([]Memory, error) {
	rows, err := s.db.Query(`SELECT id, content, created_at FROM memories ORDER BY id`)
	if err != nil {
		return nil, &StoreError{Op: "list-memories", Err: err}
	}
	defer rows.Close()

	memories := make([]Memory, 0)
	for rows.Next() {
		var m Memory
		if err := rows.Scan(&m.ID, &m.Content, &m.CreatedAt); err != nil {
			return nil, &StoreError{Op: "list-memories", Err: err}
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// MemoryTexts returns just the memory contents, for prompt assembly.
func (s *Store) MemoryTexts() ([]string, error) {
	memories, err := s.ListMemories()
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(memories))
	for i, m := range memories {
		texts[i] = m.Content
	}
	return texts, nil
}

// ClearMemories empties the permanent memory store. Clearing an already
// empty store is a no-op, so the operation is idempotent.
func (s *Store) ClearMemories() error {
	if _, err := s.db.Exec(`DELETE FROM memories`); err != nil {
		return &StoreError{Op: "clear-memories", Err: err}
	}
	return nil
}

// DeleteMemory removes a single memory by ID.
func (s *Store) DeleteMemory(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM memories WHERE id = ?`, id); err != nil {
		return &StoreError{Op: "delete-memory", Err: err}
	}
	return nil
}

// UpdateMemories replaces the whole store with the given facts, dropping
// empties. Used by the memory editor.
func (s *Store) UpdateMemories(contents []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &StoreError{Op: "update-memories", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM memories`); err != nil {
		return &StoreError{Op: "update-memories", Err: err}
	}
	now := time.Now()
	for _, content := range contents {
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO memories (content, created_at) VALUES (?, ?)
			 ON CONFLICT(content) DO NOTHING`,
			content, now,
		); err != nil {
			return &StoreError{Op: "update-memories", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "update-memories", Err: err}
	}
	return nil
}
