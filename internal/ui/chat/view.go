// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the cortex TUI.
//
// This file contains all rendering: the transcript, the history panel,
// the help overlay, the input area and the status bar.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cortex-chat/cortex-tui/internal/model"
	"github.com/cortex-chat/cortex-tui/internal/ollama"
	"github.com/cortex-chat/cortex-tui/internal/ui/components"
	"github.com/cortex-chat/cortex-tui/internal/util"
)

// =============================================================================
// MAIN VIEW
// =============================================================================

// View renders the complete chat screen.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.histOpen {
		return m.renderHistoryPanel()
	}
	if m.memOpen {
		return m.renderMemoriesPanel()
	}

	conv := m.mgr.Active()
	header := components.Header(m.theme, conv.GetTitle(), m.mgr.Config().ChatModel, m.width)

	sections := []string{header, m.viewport.View()}

	if m.state == StateError && m.lastErr != nil {
		sections = append(sections, m.renderErrorBanner())
	}
	if row := components.SuggestionRow(m.theme, m.suggestions, m.width, m.suggestPending); row != "" {
		sections = append(sections, row)
	}

	sections = append(sections, m.renderInput(), m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript renders every message of the active conversation.
func (m Model) renderTranscript() string {
	conv := m.mgr.Active()
	if conv.IsEmpty() {
		return components.Welcome(m.theme, m.viewport.Width, m.viewport.Height)
	}

	var b strings.Builder
	for _, msg := range conv.Messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	if m.state == StateWaiting {
		b.WriteString(m.spin.View())
		b.WriteString(m.theme.ThinkingText.Render(" waiting for " + m.mgr.Config().ChatModel + "..."))
		b.WriteString("\n")
	}
	return b.String()
}

// renderMessage renders a single turn, with the thinking block folded in
// when the user toggled it on.
func (m Model) renderMessage(msg *model.Message) string {
	ts := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	switch msg.Role {
	case model.RoleUser:
		label := m.theme.UserLabel.Render(msg.Role.DisplayName()) + " " + ts
		body := m.theme.UserBubble.Width(m.bubbleWidth()).Render(msg.Content)
		return label + "\n" + body + "\n"

	case model.RoleAssistant:
		label := m.theme.AssistantLabel.Render(msg.Role.DisplayName()) + " " + ts
		var b strings.Builder
		b.WriteString(label)
		b.WriteString("\n")
		if msg.HasThinking() {
			if m.showThinking {
				b.WriteString(m.theme.ThinkingHeader.Render("▾ thinking"))
				b.WriteString("\n")
				b.WriteString(m.theme.ThinkingBody.Width(m.bubbleWidth()).Render(msg.Thinking))
				b.WriteString("\n")
			} else {
				b.WriteString(m.theme.ThinkingHeader.Render("▸ thinking (ctrl+t to expand)"))
				b.WriteString("\n")
			}
		}
		b.WriteString(m.theme.AssistantBody.Render(m.renderMarkdown(msg.Content)))
		b.WriteString("\n")
		return b.String()

	default:
		return m.theme.ThinkingText.Render(msg.Content) + "\n"
	}
}

func (m Model) bubbleWidth() int {
	w := m.width - 6
	if w < 20 {
		w = 20
	}
	return w
}

// =============================================================================
// CHROME
// =============================================================================

// renderInput renders the input box with the current mode prompt.
func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())
}

// renderStatusBar renders the bottom bar. A notice temporarily replaces
// the shortcut hints.
func (m Model) renderStatusBar() string {
	if m.notice != "" {
		return m.theme.StatusBar.Width(m.width).Render(m.theme.StatusOK.Render("✓ " + m.notice))
	}
	hints := [][2]string{
		{"Enter", "send"},
		{"C-n", "new"},
		{"C-h", "history"},
		{"C-r", "regen"},
		{"C-g", "help"},
	}
	return components.StatusBar(m.theme, m.status(), m.width, hints)
}

// renderErrorBanner shows the failure plus a recovery hint when the
// error came from the inference daemon.
func (m Model) renderErrorBanner() string {
	title := m.theme.ErrorTitle.Render("something went wrong")
	body := m.theme.ErrorMessage.Render(util.TruncateWidth(m.lastErr.Error(), m.width-8))

	lines := []string{title, body}
	if hint := ollama.UserHint(m.lastErr); hint != "" {
		lines = append(lines, m.theme.ErrorHint.Render(hint))
	}
	lines = append(lines, m.theme.ErrorHint.Render("Esc dismisses. The question was saved; Ctrl+R retries."))
	return m.theme.ErrorBox.Width(m.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// =============================================================================
// OVERLAYS
// =============================================================================

// renderHistoryPanel lists saved conversations, newest first.
func (m Model) renderHistoryPanel() string {
	var b strings.Builder
	b.WriteString(m.theme.HelpTitle.Render("Saved chats"))
	b.WriteString("\n\n")

	if len(m.histItems) == 0 {
		b.WriteString(m.theme.ThinkingText.Render("No saved chats yet."))
	}
	for i, item := range m.histItems {
		line := fmt.Sprintf("%s  %s",
			util.TruncateWidth(item.Title, m.width/2),
			m.theme.ListMeta.Render(fmt.Sprintf("%d msgs · %s", item.MessageCount, item.UpdatedAt.Format("Jan 2 15:04"))))
		if i == m.histCursor {
			b.WriteString(m.theme.ListItemSelected.Render("› " + line))
		} else {
			b.WriteString(m.theme.ListItem.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("Enter open · C-x delete · Esc close"))
	box := m.theme.HelpBox.Width(m.width - 4).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// renderMemoriesPanel lists the facts stored as permanent memory.
func (m Model) renderMemoriesPanel() string {
	var b strings.Builder
	b.WriteString(m.theme.HelpTitle.Render("Permanent memories"))
	b.WriteString("\n\n")

	if len(m.memItems) == 0 {
		b.WriteString(m.theme.ThinkingText.Render("Nothing remembered yet."))
	}
	for i, item := range m.memItems {
		line := fmt.Sprintf("%s  %s",
			util.TruncateWidth(item.Content, m.width-28),
			m.theme.ListMeta.Render(item.CreatedAt.Format("Jan 2")))
		if i == m.memCursor {
			b.WriteString(m.theme.ListItemSelected.Render("› " + line))
		} else {
			b.WriteString(m.theme.ListItem.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("Enter edit · C-x delete · Esc close"))
	box := m.theme.HelpBox.Width(m.width - 4).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// renderHelpOverlay shows every key binding.
func (m Model) renderHelpOverlay() string {
	var b strings.Builder
	b.WriteString(m.theme.HelpTitle.Render("Keyboard shortcuts"))
	b.WriteString("\n\n")
	for _, row := range m.keys.HelpEntries() {
		b.WriteString(m.theme.ShortcutKey.Render(util.PadRight(row[0], 12)))
		b.WriteString(m.theme.ShortcutDesc.Render(row[1]))
		b.WriteString("\n")
	}
	box := m.theme.HelpBox.Width(m.width / 2).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
