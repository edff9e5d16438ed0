// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cortex-chat/cortex-tui/internal/ui/styles"
)

// Status is the connection/activity state shown in the status bar.
type Status int

const (
	StatusReady Status = iota
	StatusWaiting
	StatusError
	StatusOffline
)

// Label returns the status text.
func (s Status) Label() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusWaiting:
		return "thinking"
	case StatusError:
		return "error"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// StatusBar renders the bottom bar: state indicator plus key hints.
func StatusBar(theme *styles.Theme, status Status, width int, hints [][2]string) string {
	var indicator string
	switch status {
	case StatusReady:
		indicator = theme.StatusOK.Render("● " + status.Label())
	case StatusWaiting:
		indicator = theme.StatusBusy.Render("◐ " + status.Label())
	default:
		indicator = theme.StatusError.Render("✗ " + status.Label())
	}

	var parts []string
	parts = append(parts, indicator)
	for _, h := range hints {
		parts = append(parts, theme.ShortcutKey.Render(h[0])+theme.ShortcutDesc.Render(" "+h[1]))
	}

	line := lipgloss.JoinHorizontal(lipgloss.Center, joinWithSep(parts, theme.ShortcutDesc.Render("  │  "))...)
	return theme.StatusBar.Width(width).Render(line)
}

// joinWithSep interleaves sep between items for JoinHorizontal.
func joinWithSep(items []string, sep string) []string {
	out := make([]string, 0, len(items)*2)
	for i, item := range items {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, item)
	}
	return out
}
