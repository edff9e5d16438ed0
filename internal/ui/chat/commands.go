// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the cortex TUI.
//
// This file holds the tea.Cmd constructors. Every blocking call goes
// through a command so the update loop never waits on the network.
package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cortex-chat/cortex-tui/internal/export"
	"github.com/cortex-chat/cortex-tui/internal/ollama"
	"github.com/cortex-chat/cortex-tui/internal/session"
)

// turnTimeout bounds a single chat round trip. Local models on modest
// hardware can take minutes on long contexts.
const turnTimeout = 5 * time.Minute

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// checkDaemonCmd pings the Ollama daemon.
func checkDaemonCmd(client *ollama.Client) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return DaemonStatusMsg{Running: false, Error: ollama.ErrNotRunning}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := client.CheckRunning(ctx)
		return DaemonStatusMsg{Running: err == nil, Error: err}
	}
}

// processTurnCmd runs the committed user turn through the model.
// The user message is already persisted, so a failure here loses nothing.
func processTurnCmd(mgr *session.Manager) tea.Cmd {
	convID := mgr.ActiveID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()

		msg, err := mgr.ProcessTurn(ctx)
		if err != nil {
			return TurnErrorMsg{ConversationID: convID, Error: err}
		}
		return TurnCompleteMsg{ConversationID: convID, Message: msg}
	}
}

// regenerateCmd replaces the latest answer, optionally steered by
// user-supplied instructions.
func regenerateCmd(mgr *session.Manager, instructions string) tea.Cmd {
	convID := mgr.ActiveID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()

		msg, err := mgr.Regenerate(ctx, instructions)
		if err != nil {
			return TurnErrorMsg{ConversationID: convID, Error: err}
		}
		return TurnCompleteMsg{ConversationID: convID, Message: msg, Regenerated: true}
	}
}

// titleCmd asks the utility model for a short conversation title.
// Titling is best effort; failures are swallowed.
func titleCmd(mgr *session.Manager) tea.Cmd {
	convID := mgr.ActiveID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		title, err := mgr.GenerateTitle(ctx)
		if err != nil || title == "" {
			return nil
		}
		return TitleMsg{ConversationID: convID, Title: title}
	}
}

// suggestionsCmd asks for follow-up questions to the latest answer.
func suggestionsCmd(mgr *session.Manager) tea.Cmd {
	convID := mgr.ActiveID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()

		suggestions, err := mgr.Suggestions(ctx)
		return SuggestionsMsg{ConversationID: convID, Suggestions: suggestions, Error: err}
	}
}

// historyCmd loads conversation summaries for the history panel.
func historyCmd(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		summaries, err := mgr.Summaries()
		return HistoryMsg{Summaries: summaries, Error: err}
	}
}

// loadChatCmd switches the active conversation.
func loadChatCmd(mgr *session.Manager, id string) tea.Cmd {
	return func() tea.Msg {
		conv, err := mgr.LoadChat(id)
		return ChatLoadedMsg{Conversation: conv, Error: err}
	}
}

// deleteChatCmd removes a conversation and everything in it.
func deleteChatCmd(mgr *session.Manager, id string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.DeleteChat(id)
		return ChatDeletedMsg{ConversationID: id, Error: err}
	}
}

// forkCmd branches the active conversation at the given sequence number.
func forkCmd(mgr *session.Manager, uptoSeq int) tea.Cmd {
	return func() tea.Msg {
		conv, err := mgr.Fork(uptoSeq)
		return ChatLoadedMsg{Conversation: conv, Error: err}
	}
}

// memoriesCmd loads the stored memories for the memory panel.
func memoriesCmd(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		memories, err := mgr.Memories()
		return MemoriesMsg{Memories: memories, Error: err}
	}
}

// deleteMemoryCmd removes one stored memory.
func deleteMemoryCmd(mgr *session.Manager, id int64) tea.Cmd {
	return func() tea.Msg {
		return MemoryChangedMsg{Error: mgr.DeleteMemory(id)}
	}
}

// updateMemoryCmd rewrites one stored memory. Blank text deletes it.
func updateMemoryCmd(mgr *session.Manager, id int64, text string) tea.Cmd {
	return func() tea.Msg {
		return MemoryChangedMsg{Error: mgr.UpdateMemory(id, text)}
	}
}

// exportCmd writes the active conversation to disk, as Markdown or JSON.
func exportCmd(mgr *session.Manager, dir string, asJSON bool) tea.Cmd {
	return func() tea.Msg {
		conv := mgr.Active()
		write := export.WriteMarkdown
		if asJSON {
			write = export.WriteJSON
		}
		path, err := write(conv, dir)
		return ExportedMsg{Path: path, Error: err}
	}
}
