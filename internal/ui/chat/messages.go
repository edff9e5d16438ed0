// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the cortex TUI.
package chat

import (
	"github.com/cortex-chat/cortex-tui/internal/model"
	"github.com/cortex-chat/cortex-tui/internal/storage"
)

// =============================================================================
// MESSAGES
// =============================================================================

// DaemonStatusMsg reports whether the Ollama daemon answered a ping.
type DaemonStatusMsg struct {
	Running bool
	Error   error
}

// TurnCompleteMsg is sent when a chat turn finished and was persisted.
type TurnCompleteMsg struct {
	ConversationID string
	Message        *model.Message
	Regenerated    bool
}

// TurnErrorMsg is sent when a chat turn failed. The committed user turn
// is already on disk, so the conversation can be retried as-is.
type TurnErrorMsg struct {
	ConversationID string
	Error          error
}

// TitleMsg carries an auto-generated conversation title.
type TitleMsg struct {
	ConversationID string
	Title          string
}

// SuggestionsMsg carries follow-up question suggestions for a conversation.
// An empty slice with a nil error means suggestions were skipped (disabled,
// rate-limited, or aborted).
type SuggestionsMsg struct {
	ConversationID string
	Suggestions    []string
	Error          error
}

// HistoryMsg carries the saved-conversation list for the history panel.
type HistoryMsg struct {
	Summaries []model.Meta
	Error     error
}

// ChatLoadedMsg is sent after a conversation was loaded or forked.
type ChatLoadedMsg struct {
	Conversation *model.Conversation
	Error        error
}

// ChatDeletedMsg is sent after a conversation was deleted.
type ChatDeletedMsg struct {
	ConversationID string
	Error          error
}

// ExportedMsg reports the result of an export to disk.
type ExportedMsg struct {
	Path  string
	Error error
}

// MemoriesMsg carries the stored memories for the memory panel.
type MemoriesMsg struct {
	Memories []storage.Memory
	Error    error
}

// MemoryChangedMsg reports a completed memory edit or delete.
type MemoryChangedMsg struct {
	Error error
}
