// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cortex-chat/cortex-tui/internal/model"
)

// jsonDocument is the stable on-disk shape. It decouples exported files
// from internal struct changes.
type jsonDocument struct {
	Title      string        `json:"title"`
	ExportedAt time.Time     `json:"exported_at"`
	Messages   []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Thinking  string    `json:"thinking,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// JSON renders a conversation as an indented JSON document.
func JSON(c *model.Conversation) ([]byte, error) {
	doc := jsonDocument{
		Title:      c.GetTitle(),
		ExportedAt: time.Now().UTC(),
		Messages:   make([]jsonMessage, 0, len(c.Messages)),
	}
	for _, msg := range c.Messages {
		doc.Messages = append(doc.Messages, jsonMessage{
			Role:      msg.Role.String(),
			Content:   msg.Content,
			Thinking:  msg.Thinking,
			Timestamp: msg.Timestamp,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding conversation: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteJSON writes the conversation into dir and returns the path.
// An empty dir selects DefaultDir.
func WriteJSON(c *model.Conversation, dir string) (string, error) {
	data, err := JSON(c)
	if err != nil {
		return "", err
	}
	return write(c, dir, ".json", data)
}
