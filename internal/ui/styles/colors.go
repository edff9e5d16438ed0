// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the cortex TUI.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette is one named color scheme. The application ships a dark and a
// light variant, selected from config or detected from the terminal.
type Palette struct {
	Name string

	// Base
	Background lipgloss.Color
	Surface    lipgloss.Color
	Overlay    lipgloss.Color

	// Text
	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	TextMuted     lipgloss.Color

	// Accents
	Accent    lipgloss.Color // brand / highlights
	Secondary lipgloss.Color // titles, borders
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Danger    lipgloss.Color

	// Bubbles
	UserFg       lipgloss.Color
	UserBorder   lipgloss.Color
	AssistFg     lipgloss.Color
	AssistBorder lipgloss.Color
	ThinkingFg   lipgloss.Color
}

// DarkPalette is the default scheme.
func DarkPalette() Palette {
	return Palette{
		Name:          "dark",
		Background:    lipgloss.Color("#1a1b26"),
		Surface:       lipgloss.Color("#24283b"),
		Overlay:       lipgloss.Color("#414868"),
		TextPrimary:   lipgloss.Color("#c0caf5"),
		TextSecondary: lipgloss.Color("#a9b1d6"),
		TextMuted:     lipgloss.Color("#565f89"),
		Accent:        lipgloss.Color("#7dcfff"),
		Secondary:     lipgloss.Color("#bb9af7"),
		Success:       lipgloss.Color("#9ece6a"),
		Warning:       lipgloss.Color("#e0af68"),
		Danger:        lipgloss.Color("#f7768e"),
		UserFg:        lipgloss.Color("#c0caf5"),
		UserBorder:    lipgloss.Color("#7aa2f7"),
		AssistFg:      lipgloss.Color("#c0caf5"),
		AssistBorder:  lipgloss.Color("#bb9af7"),
		ThinkingFg:    lipgloss.Color("#565f89"),
	}
}

// LightPalette mirrors the dark scheme for bright terminals.
func LightPalette() Palette {
	return Palette{
		Name:          "light",
		Background:    lipgloss.Color("#e1e2e7"),
		Surface:       lipgloss.Color("#d5d6db"),
		Overlay:       lipgloss.Color("#a8aecb"),
		TextPrimary:   lipgloss.Color("#343b58"),
		TextSecondary: lipgloss.Color("#565a6e"),
		TextMuted:     lipgloss.Color("#848cb5"),
		Accent:        lipgloss.Color("#166775"),
		Secondary:     lipgloss.Color("#5a4a78"),
		Success:       lipgloss.Color("#485e30"),
		Warning:       lipgloss.Color("#8f5e15"),
		Danger:        lipgloss.Color("#8c4351"),
		UserFg:        lipgloss.Color("#343b58"),
		UserBorder:    lipgloss.Color("#2e7de9"),
		AssistFg:      lipgloss.Color("#343b58"),
		AssistBorder:  lipgloss.Color("#5a4a78"),
		ThinkingFg:    lipgloss.Color("#848cb5"),
	}
}

// PaletteByName returns the palette for a config theme name.
func PaletteByName(name string) Palette {
	if name == "light" {
		return LightPalette()
	}
	return DarkPalette()
}
