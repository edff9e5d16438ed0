// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is used for conversations that have not been titled yet.
const DefaultTitle = "New Chat"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds an ordered sequence of turns with metadata.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []*Message `json:"messages"`

	// Model is the chat model used for this conversation.
	Model string `json:"model,omitempty"`
}

// NewConversation creates an empty conversation with a generated ID.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.NewString(),
		Title:     DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a turn to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	if msg.Seq == 0 {
		msg.Seq = len(c.Messages) + 1
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// AddUserMessage creates and appends a user turn.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and appends an assistant turn.
func (c *Conversation) AddAssistantMessage(content, thinking string) *Message {
	msg := NewAssistantMessage(content, thinking)
	c.AddMessage(msg)
	return msg
}

// GetLastMessage returns the most recent turn, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// GetLastAssistantMessage returns the most recent assistant turn, or nil.
func (c *Conversation) GetLastAssistantMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i]
		}
	}
	return nil
}

// GetLastUserMessage returns the most recent user turn, or nil.
func (c *Conversation) GetLastUserMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i]
		}
	}
	return nil
}

// ReplaceLastAssistant swaps the most recent assistant turn for msg, keeping
// its position. Returns false when no assistant turn exists. This is the only
// mutation of history the application performs (regenerate).
func (c *Conversation) ReplaceLastAssistant(msg *Message) bool {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			msg.Seq = c.Messages[i].Seq
			c.Messages[i] = msg
			c.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// RemoveLastAssistant drops the most recent assistant turn. Returns false
// when no assistant turn exists.
func (c *Conversation) RemoveLastAssistant() bool {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			c.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// RecentTurns returns the last maxTurns user/assistant exchange pairs
// (2*maxTurns messages at most). maxTurns <= 0 returns all messages.
func (c *Conversation) RecentTurns(maxTurns int) []*Message {
	if maxTurns <= 0 || len(c.Messages) <= maxTurns*2 {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-maxTurns*2:]
}

// MessageCount returns the number of turns.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no turns.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// FORK / CLONE
// =============================================================================

// ForkAt returns a new conversation whose turns are a copy of this one up to
// and including the turn at index i. The source is never mutated; copied
// turns get fresh IDs but keep role, content, thinking and order.
func (c *Conversation) ForkAt(i int) *Conversation {
	if i < 0 {
		i = 0
	}
	if i >= len(c.Messages) {
		i = len(c.Messages) - 1
	}

	fork := NewConversation()
	fork.Title = c.Title + " (fork)"
	fork.Model = c.Model
	for j := 0; j <= i && j >= 0; j++ {
		src := c.Messages[j]
		fork.AddMessage(&Message{
			ID:        uuid.NewString(),
			Role:      src.Role,
			Content:   src.Content,
			Thinking:  src.Thinking,
			Timestamp: src.Timestamp,
		})
	}
	return fork
}

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := &Conversation{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Model:     c.Model,
		Messages:  make([]*Message, len(c.Messages)),
	}
	for i, msg := range c.Messages {
		msgCopy := *msg
		clone.Messages[i] = &msgCopy
	}
	return clone
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// SetTitle sets the conversation title.
func (c *Conversation) SetTitle(title string) {
	c.Title = title
	c.UpdatedAt = time.Now()
}

// GetTitle returns the conversation title or the default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return DefaultTitle
}

// NeedsTitle reports whether the conversation still carries the placeholder
// title and has enough content to generate a real one.
func (c *Conversation) NeedsTitle() bool {
	return (c.Title == "" || c.Title == DefaultTitle) && len(c.Messages) >= 2
}

// =============================================================================
// METADATA
// =============================================================================

// Meta is lightweight conversation metadata for list views.
type Meta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GetMeta returns metadata about the conversation.
func (c *Conversation) GetMeta() Meta {
	return Meta{
		ID:           c.ID,
		Title:        c.GetTitle(),
		MessageCount: len(c.Messages),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
