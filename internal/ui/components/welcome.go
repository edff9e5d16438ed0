// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cortex-chat/cortex-tui/internal/ui/styles"
)

// Welcome fills an empty transcript with a short hint screen.
func Welcome(theme *styles.Theme, width, height int) string {
	lines := []string{
		theme.HeaderTitle.Render("cortex"),
		"",
		theme.ThinkingText.Render("A private chat with local models. Nothing leaves this machine."),
		"",
		theme.ShortcutDesc.Render("Type a question and press Enter. Ctrl+G shows all shortcuts."),
	}
	block := lipgloss.JoinVertical(lipgloss.Center, lines...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, block)
}
