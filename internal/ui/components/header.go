// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable view fragments for the cortex TUI.
package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cortex-chat/cortex-tui/internal/ui/styles"
	"github.com/cortex-chat/cortex-tui/internal/util"
)

// Header renders the top bar: app name, conversation title, active model.
func Header(theme *styles.Theme, title, model string, width int) string {
	if title == "" {
		title = "New Chat"
	}

	brand := theme.HeaderTitle.Render("cortex")
	conv := theme.HeaderSubtitle.Render(util.TruncateWidth(title, width/2))
	right := theme.ShortcutDesc.Render(model)

	left := lipgloss.JoinHorizontal(lipgloss.Center, brand, "  ", conv)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	line := lipgloss.JoinHorizontal(lipgloss.Center,
		left, lipgloss.NewStyle().Width(gap).Render(""), right)
	return theme.Container.Width(width).Render(line)
}
