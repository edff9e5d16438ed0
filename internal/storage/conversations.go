// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cortex-chat/cortex-tui/internal/model"
)

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// CreateConversation inserts a new empty conversation row.
func (s *Store) CreateConversation(conv *model.Conversation) error {
	_, err := s.db.Exec(
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		conv.ID, conv.GetTitle(), conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return &StoreError{Op: "create", ID: conv.ID, Err: err}
	}
	return nil
}

// AppendMessage appends a turn to a conversation. Seq is assigned
// monotonically inside a transaction; ordering by seq is the persistence
// invariant. Turns are never mutated after this except by
// ReplaceLastAssistant.
func (s *Store) AppendMessage(convID string, msg *model.Message) error {
	if strings.TrimSpace(msg.Content) == "" {
		return &StoreError{Op: "append", ID: convID, Err: ErrEmptyContent}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &StoreError{Op: "append", ID: convID, Err: err}
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM conversations WHERE id = ?`, convID).Scan(&exists); err != nil {
		return &StoreError{Op: "append", ID: convID, Err: err}
	}
	if exists == 0 {
		return &StoreError{Op: "append", ID: convID, Err: ErrConversationNotFound}
	}

	var next int
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?`, convID,
	).Scan(&next); err != nil {
		return &StoreError{Op: "append", ID: convID, Err: err}
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msg.Seq = next

	if _, err := tx.Exec(
		`INSERT INTO messages (id, conversation_id, seq, role, content, thinking, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, convID, msg.Seq, string(msg.Role), msg.Content, msg.Thinking, msg.Timestamp,
	); err != nil {
		return &StoreError{Op: "append", ID: convID, Err: err}
	}

	if _, err := tx.Exec(
		`UPDATE conversations SET updated_at = ? WHERE id = ?`, time.Now(), convID,
	); err != nil {
		return &StoreError{Op: "append", ID: convID, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "append", ID: convID, Err: err}
	}
	return nil
}

// ReplaceLastAssistant deletes the most recent assistant turn of a
// conversation and appends msg in its place, reusing the freed seq. This is
// the only mutation of history the store performs (regenerate).
func (s *Store) ReplaceLastAssistant(convID string, msg *model.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &StoreError{Op: "replace", ID: convID, Err: err}
	}
	defer tx.Rollback()

	var id string
	var seq int
	err = tx.QueryRow(
		`SELECT id, seq FROM messages
		 WHERE conversation_id = ? AND role = 'assistant'
		 ORDER BY seq DESC LIMIT 1`, convID,
	).Scan(&id, &seq)
	if errors.Is(err, sql.ErrNoRows) {
		return &StoreError{Op: "replace", ID: convID, Err: ErrNoAssistantTurn}
	}
	if err != nil {
		return &StoreError{Op: "replace", ID: convID, Err: err}
	}

	if _, err := tx.Exec(`DELETE FROM messages WHERE id = ?`, id); err != nil {
		return &StoreError{Op: "replace", ID: convID, Err: err}
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msg.Seq = seq

	if _, err := tx.Exec(
		`INSERT INTO messages (id, conversation_id, seq, role, content, thinking, created_at)
		 VALUES (?, ?, ?, 'assistant', ?, ?, ?)`,
		msg.ID, convID, msg.Seq, msg.Content, msg.Thinking, msg.Timestamp,
	); err != nil {
		return &StoreError{Op: "replace", ID: convID, Err: err}
	}

	if _, err := tx.Exec(
		`UPDATE conversations SET updated_at = ? WHERE id = ?`, time.Now(), convID,
	); err != nil {
		return &StoreError{Op: "replace", ID: convID, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "replace", ID: convID, Err: err}
	}
	return nil
}

// DeleteLastAssistant removes the most recent assistant turn without a
// replacement. Used when a regenerate re-asks the model from scratch.
func (s *Store) DeleteLastAssistant(convID string) error {
	res, err := s.db.Exec(
		`DELETE FROM messages WHERE id = (
		     SELECT id FROM messages
		     WHERE conversation_id = ? AND role = 'assistant'
		     ORDER BY seq DESC LIMIT 1
		 )`, convID,
	)
	if err != nil {
		return &StoreError{Op: "delete-last", ID: convID, Err: err}
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return &StoreError{Op: "delete-last", ID: convID, Err: ErrNoAssistantTurn}
	}
	return nil
}

// LoadConversation loads a conversation with its turns ordered by seq.
func (s *Store) LoadConversation(convID string) (*model.Conversation, error) {
	conv := &model.Conversation{ID: convID}
	err := s.db.QueryRow(
		`SELECT title, created_at, updated_at FROM conversations WHERE id = ?`, convID,
	).Scan(&conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &StoreError{Op: "load", ID: convID, Err: ErrConversationNotFound}
	}
	if err != nil {
		return nil, &StoreError{Op: "load", ID: convID, Err: err}
	}

	rows, err := s.db.Query(
		`SELECT id, seq, role, content, thinking, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY seq`, convID,
	)
	if err != nil {
		return nil, &StoreError{Op: "load", ID: convID, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		msg := &model.Message{}
		var role string
		if err := rows.Scan(&msg.ID, &msg.Seq, &role, &msg.Content, &msg.Thinking, &msg.Timestamp); err != nil {
			return nil, &StoreError{Op: "load", ID: convID, Err: err}
		}
		msg.Role = model.Role(role)
		conv.Messages = append(conv.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "load", ID: convID, Err: err}
	}
	return conv, nil
}

// ListConversations returns lightweight metadata for all conversations,
// newest first.
func (s *Store) ListConversations() ([]model.Meta, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.title, c.created_at, c.updated_at,
		        (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		 FROM conversations c ORDER BY c.updated_at DESC`,
	)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	defer rows.Close()

	metas := make([]model.Meta, 0)
	for rows.Next() {
		var m model.Meta
		if err := rows.Scan(&m.ID, &m.Title, &m.CreatedAt, &m.UpdatedAt, &m.MessageCount); err != nil {
			return nil, &StoreError{Op: "list", Err: err}
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// RenameConversation updates a conversation title.
func (s *Store) RenameConversation(convID, title string) error {
	res, err := s.db.Exec(
		`UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now(), convID,
	)
	if err != nil {
		return &StoreError{Op: "rename", ID: convID, Err: err}
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return &StoreError{Op: "rename", ID: convID, Err: ErrConversationNotFound}
	}
	return nil
}

// DeleteConversation removes a conversation and its turns (FK cascade).
func (s *Store) DeleteConversation(convID string) error {
	res, err := s.db.Exec(`DELETE FROM conversations WHERE id = ?`, convID)
	if err != nil {
		return &StoreError{Op: "delete", ID: convID, Err: err}
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return &StoreError{Op: "delete", ID: convID, Err: ErrConversationNotFound}
	}
	return nil
}

// ClearConversations deletes all chat history. Memories are not touched.
func (s *Store) ClearConversations() error {
	if _, err := s.db.Exec(`DELETE FROM conversations`); err != nil {
		return &StoreError{Op: "clear", Err: err}
	}
	return nil
}

// Fork copies the turns of srcID up to and including uptoSeq into a brand new
// conversation and returns it. The source conversation is never mutated.
func (s *Store) Fork(srcID string, uptoSeq int) (*model.Conversation, error) {
	src, err := s.LoadConversation(srcID)
	if err != nil {
		return nil, err
	}
	if src.IsEmpty() {
		return nil, &StoreError{Op: "fork", ID: srcID, Err: fmt.Errorf("conversation has no turns")}
	}

	idx := len(src.Messages) - 1
	for i, msg := range src.Messages {
		if msg.Seq == uptoSeq {
			idx = i
			break
		}
	}

	fork := src.ForkAt(idx)
	if err := s.CreateConversation(fork); err != nil {
		return nil, err
	}
	for _, msg := range fork.Messages {
		msg.Seq = 0 // reassigned on append
		if err := s.AppendMessage(fork.ID, msg); err != nil {
			return nil, err
		}
	}
	return fork, nil
}
