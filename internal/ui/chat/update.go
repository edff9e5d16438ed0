// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the cortex TUI.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state != StateWaiting && !m.suggestPending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case DaemonStatusMsg:
		m.daemonUp = msg.Running
		if !msg.Running {
			m.state = StateError
			m.lastErr = msg.Error
		}
		return m, nil

	case TurnCompleteMsg:
		return m.handleTurnComplete(msg)

	case TurnErrorMsg:
		if msg.ConversationID != m.mgr.ActiveID() {
			return m, nil
		}
		m.state = StateError
		m.lastErr = msg.Error
		m.refreshViewport(true)
		return m, nil

	case TitleMsg:
		// The manager already renamed the row; the header reads the
		// active conversation, so a repaint is all this needs.
		return m, nil

	case SuggestionsMsg:
		if msg.ConversationID != m.mgr.ActiveID() {
			return m, nil
		}
		m.suggestPending = false
		if msg.Error == nil {
			m.suggestions = msg.Suggestions
		}
		m.resize(m.width, m.height)
		return m, nil

	case HistoryMsg:
		if msg.Error != nil {
			m.state = StateError
			m.lastErr = msg.Error
			return m, nil
		}
		m.histItems = msg.Summaries
		m.histOpen = true
		if m.histCursor >= len(m.histItems) {
			m.histCursor = 0
		}
		return m, nil

	case ChatLoadedMsg:
		if msg.Error != nil {
			m.state = StateError
			m.lastErr = msg.Error
			return m, nil
		}
		m.histOpen = false
		m.state = StateReady
		m.lastErr = nil
		m.notice = ""
		m.clearSuggestions()
		m.refreshViewport(true)
		return m, nil

	case ChatDeletedMsg:
		if msg.Error != nil {
			m.state = StateError
			m.lastErr = msg.Error
			return m, nil
		}
		m.refreshViewport(false)
		if m.histOpen {
			return m, historyCmd(m.mgr)
		}
		return m, nil

	case ExportedMsg:
		if msg.Error != nil {
			m.state = StateError
			m.lastErr = msg.Error
			return m, nil
		}
		m.notice = "exported to " + msg.Path
		return m, nil

	case MemoriesMsg:
		if msg.Error != nil {
			m.state = StateError
			m.lastErr = msg.Error
			return m, nil
		}
		m.memItems = msg.Memories
		m.memOpen = true
		if m.memCursor >= len(m.memItems) {
			m.memCursor = 0
		}
		return m, nil

	case MemoryChangedMsg:
		if msg.Error != nil {
			m.state = StateError
			m.lastErr = msg.Error
			return m, nil
		}
		// Reload so the panel reflects the change (and reopens after an
		// edit made from the input line).
		return m, memoriesCmd(m.mgr)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleTurnComplete records a finished answer and kicks off the
// follow-up work (titling, suggestions).
func (m Model) handleTurnComplete(msg TurnCompleteMsg) (tea.Model, tea.Cmd) {
	if msg.ConversationID != m.mgr.ActiveID() {
		return m, nil
	}
	m.state = StateReady
	m.lastErr = nil
	m.refreshViewport(true)

	cmds := []tea.Cmd{titleCmd(m.mgr)}
	if m.mgr.Config().SuggestionsEnabled {
		m.suggestPending = true
		cmds = append(cmds, suggestionsCmd(m.mgr), m.spin.Tick)
	}
	return m, tea.Batch(cmds...)
}

// handleKey routes key presses by the current overlay and mode.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.histOpen {
		return m.handleHistoryKey(msg)
	}
	if m.memOpen {
		return m.handleMemoriesKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.showHelp = false
		m.notice = ""
		if m.state == StateError {
			m.state = StateReady
			m.lastErr = nil
		}
		if m.mode != inputCompose {
			m.setMode(inputCompose)
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keys.NewChat):
		if m.state == StateWaiting {
			return m, nil
		}
		m.mgr.NewChat()
		m.state = StateReady
		m.lastErr = nil
		m.notice = ""
		m.clearSuggestions()
		m.setMode(inputCompose)
		m.refreshViewport(true)
		return m, nil

	case key.Matches(msg, m.keys.History):
		return m, historyCmd(m.mgr)

	case key.Matches(msg, m.keys.Memories):
		return m, memoriesCmd(m.mgr)

	case key.Matches(msg, m.keys.Regenerate):
		// A trailing user turn (failed call) is retried too, not only a
		// finished answer.
		if m.state == StateWaiting || m.mgr.Active().GetLastUserMessage() == nil {
			return m, nil
		}
		m.setMode(inputRegen)
		return m, nil

	case key.Matches(msg, m.keys.Rename):
		if m.state == StateWaiting {
			return m, nil
		}
		m.setMode(inputRename)
		m.input.SetValue(m.mgr.Active().GetTitle())
		return m, nil

	case key.Matches(msg, m.keys.Fork):
		return m.handleFork()

	case key.Matches(msg, m.keys.Thinking):
		m.showThinking = !m.showThinking
		m.refreshViewport(false)
		return m, nil

	case key.Matches(msg, m.keys.Export):
		if m.mgr.Active().IsEmpty() {
			return m, nil
		}
		return m, exportCmd(m.mgr, "", false)

	case key.Matches(msg, m.keys.ExportJSON):
		if m.mgr.Active().IsEmpty() {
			return m, nil
		}
		return m, exportCmd(m.mgr, "", true)

	case key.Matches(msg, m.keys.Delete):
		if m.state == StateWaiting {
			return m, nil
		}
		return m, deleteChatCmd(m.mgr, m.mgr.ActiveID())

	case key.Matches(msg, m.keys.Suggestion1):
		return m.askSuggestion(0)
	case key.Matches(msg, m.keys.Suggestion2):
		return m.askSuggestion(1)
	case key.Matches(msg, m.keys.Suggestion3):
		return m.askSuggestion(2)

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down),
		key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleHistoryKey drives the saved-conversation panel.
func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.History):
		m.histOpen = false
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.histCursor > 0 {
			m.histCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.histCursor < len(m.histItems)-1 {
			m.histCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if len(m.histItems) == 0 {
			return m, nil
		}
		return m, loadChatCmd(m.mgr, m.histItems[m.histCursor].ID)

	case key.Matches(msg, m.keys.Delete):
		if len(m.histItems) == 0 {
			return m, nil
		}
		return m, deleteChatCmd(m.mgr, m.histItems[m.histCursor].ID)
	}
	return m, nil
}

// handleMemoriesKey drives the stored-memory panel. Enter hands the
// selected memory to the input line for editing.
func (m Model) handleMemoriesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Memories):
		m.memOpen = false
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.memCursor > 0 {
			m.memCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.memCursor < len(m.memItems)-1 {
			m.memCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if len(m.memItems) == 0 {
			return m, nil
		}
		selected := m.memItems[m.memCursor]
		m.memOpen = false
		m.memEditID = selected.ID
		m.setMode(inputMemoryEdit)
		m.input.SetValue(selected.Content)
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if len(m.memItems) == 0 {
			return m, nil
		}
		return m, deleteMemoryCmd(m.mgr, m.memItems[m.memCursor].ID)
	}
	return m, nil
}

// handleSubmit dispatches the input value according to the edit mode.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())

	switch m.mode {
	case inputRename:
		m.setMode(inputCompose)
		if value == "" {
			return m, nil
		}
		if err := m.mgr.RenameChat(m.mgr.ActiveID(), value); err != nil {
			m.state = StateError
			m.lastErr = err
			return m, nil
		}
		m.notice = "renamed"
		return m, nil

	case inputRegen:
		m.setMode(inputCompose)
		m.state = StateWaiting
		m.lastErr = nil
		m.clearSuggestions()
		return m, tea.Batch(m.spin.Tick, regenerateCmd(m.mgr, value))

	case inputMemoryEdit:
		id := m.memEditID
		m.setMode(inputCompose)
		return m, updateMemoryCmd(m.mgr, id, value)
	}

	if value == "" || m.state == StateWaiting {
		return m, nil
	}
	return m.sendQuestion(value)
}

// sendQuestion commits the user turn, then runs it through the model.
// The commit happens here so the question shows up even if the
// round trip later fails.
func (m Model) sendQuestion(question string) (tea.Model, tea.Cmd) {
	if _, err := m.mgr.CommitUserMessage(question); err != nil {
		m.state = StateError
		m.lastErr = err
		return m, nil
	}
	m.input.Reset()
	m.state = StateWaiting
	m.lastErr = nil
	m.notice = ""
	m.clearSuggestions()
	m.refreshViewport(true)
	return m, tea.Batch(m.spin.Tick, processTurnCmd(m.mgr))
}

// askSuggestion sends one of the rendered follow-up questions.
func (m Model) askSuggestion(i int) (tea.Model, tea.Cmd) {
	if m.state == StateWaiting || i >= len(m.suggestions) {
		return m, nil
	}
	return m.sendQuestion(m.suggestions[i])
}

// handleFork branches the active conversation at its latest answer.
func (m Model) handleFork() (tea.Model, tea.Cmd) {
	if m.state == StateWaiting {
		return m, nil
	}
	last := m.mgr.Active().GetLastAssistantMessage()
	if last == nil {
		return m, nil
	}
	return m, forkCmd(m.mgr, last.Seq)
}

// setMode switches what the text input submits as.
func (m *Model) setMode(mode inputMode) {
	m.mode = mode
	m.input.Reset()
	switch mode {
	case inputRegen:
		m.input.Placeholder = "Regenerate instructions (empty = plain retry)..."
	case inputRename:
		m.input.Placeholder = "New title..."
	case inputMemoryEdit:
		m.input.Placeholder = "Edit memory (empty = delete)..."
	default:
		m.input.Placeholder = "Ask anything..."
	}
	m.input.Focus()
}
