// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the cortex TUI.
//
// This file defines keyboard bindings and the help text shown in the
// shortcut overlay.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP
// =============================================================================

// KeyMap defines all keyboard bindings for the chat view.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Submit      key.Binding
	Cancel      key.Binding
	NewChat     key.Binding
	History     key.Binding
	Memories    key.Binding
	Regenerate  key.Binding
	Fork        key.Binding
	Thinking    key.Binding
	Export      key.Binding
	ExportJSON  key.Binding
	Delete      key.Binding
	Rename      key.Binding
	Suggestion1 key.Binding
	Suggestion2 key.Binding
	Suggestion3 key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp/C-u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn/C-d", "page down"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel / close panel"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		History: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("C-h", "history"),
		),
		// ctrl+m is indistinguishable from enter in a terminal.
		Memories: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("C-b", "memories"),
		),
		Regenerate: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "regenerate"),
		),
		Fork: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("C-f", "fork chat"),
		),
		Thinking: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "toggle thinking"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "export markdown"),
		),
		ExportJSON: key.NewBinding(
			key.WithKeys("alt+e"),
			key.WithHelp("M-e", "export JSON"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "delete chat"),
		),
		Rename: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "rename chat"),
		),
		Suggestion1: key.NewBinding(
			key.WithKeys("alt+1"),
			key.WithHelp("M-1", "ask suggestion 1"),
		),
		Suggestion2: key.NewBinding(
			key.WithKeys("alt+2"),
			key.WithHelp("M-2", "ask suggestion 2"),
		),
		Suggestion3: key.NewBinding(
			key.WithKeys("alt+3"),
			key.WithHelp("M-3", "ask suggestion 3"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// HelpEntries returns the rows rendered in the help overlay.
func (k KeyMap) HelpEntries() [][2]string {
	bindings := []key.Binding{
		k.Submit, k.NewChat, k.History, k.Memories, k.Regenerate, k.Fork,
		k.Thinking, k.Export, k.ExportJSON, k.Rename, k.Delete,
		k.Suggestion1, k.PageUp, k.PageDown, k.Help, k.Quit,
	}
	rows := make([][2]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		rows = append(rows, [2]string{h.Key, h.Desc})
	}
	return rows
}
