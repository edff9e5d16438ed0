// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/cortex-chat/cortex-tui/internal/ui/styles"
	"github.com/cortex-chat/cortex-tui/internal/util"
)

// SuggestionRow renders follow-up question bubbles below the latest answer.
// Each bubble is numbered so it can be picked with alt+1..3.
func SuggestionRow(theme *styles.Theme, suggestions []string, width int, pending bool) string {
	if pending {
		return theme.SuggestionPending.Render("… drafting follow-ups")
	}
	if len(suggestions) == 0 {
		return ""
	}

	// Reserve room for the numbering prefix and bubble padding.
	maxEach := width/len(suggestions) - 6
	if maxEach < 12 {
		maxEach = 12
	}

	bubbles := make([]string, 0, len(suggestions))
	for i, s := range suggestions {
		label := fmt.Sprintf("%d · %s", i+1, util.TruncateWidth(s, maxEach))
		bubbles = append(bubbles, theme.SuggestionBubble.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, bubbles...)
}
