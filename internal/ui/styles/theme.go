// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application, built from one
// Palette. It also records the terminal's color capability.
type Theme struct {
	Palette      Palette
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout
	App       lipgloss.Style
	Container lipgloss.Style

	// Header
	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// Message rendering
	UserLabel      lipgloss.Style
	UserBubble     lipgloss.Style
	AssistantLabel lipgloss.Style
	AssistantBody  lipgloss.Style
	ThinkingHeader lipgloss.Style
	ThinkingBody   lipgloss.Style
	Timestamp      lipgloss.Style

	// Input
	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// Status bar
	StatusBar    lipgloss.Style
	StatusOK     lipgloss.Style
	StatusBusy   lipgloss.Style
	StatusError  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// Suggestions
	SuggestionBubble  lipgloss.Style
	SuggestionPending lipgloss.Style

	// History list
	ListItem         lipgloss.Style
	ListItemSelected lipgloss.Style
	ListMeta         lipgloss.Style

	// Error banner
	ErrorBox     lipgloss.Style
	ErrorTitle   lipgloss.Style
	ErrorMessage lipgloss.Style
	ErrorHint    lipgloss.Style

	// Spinner / thinking indicator
	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style

	// Help overlay
	HelpBox   lipgloss.Style
	HelpTitle lipgloss.Style
}

// NewTheme builds a theme from the named palette ("dark" or "light"). An
// empty name falls back to terminal background detection.
func NewTheme(name string) *Theme {
	if name == "" {
		if termenv.HasDarkBackground() {
			name = "dark"
		} else {
			name = "light"
		}
	}
	p := PaletteByName(name)

	t := &Theme{
		Palette:      p,
		IsDark:       p.Name == "dark",
		HasTrueColor: termenv.ColorProfile() == termenv.TrueColor,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// initStyles builds every lipgloss style from the palette.
func (t *Theme) initStyles() {
	p := t.Palette

	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Secondary).
		Padding(0, 2)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(p.Secondary)
	t.HeaderSubtitle = lipgloss.NewStyle().Foreground(p.TextSecondary).Italic(true)

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(p.UserBorder)
	t.UserBubble = lipgloss.NewStyle().
		Foreground(p.UserFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.UserBorder).
		Padding(0, 1).
		MarginLeft(2)

	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(p.AssistBorder)
	t.AssistantBody = lipgloss.NewStyle().Foreground(p.AssistFg)

	t.ThinkingHeader = lipgloss.NewStyle().Foreground(p.ThinkingFg).Italic(true)
	t.ThinkingBody = lipgloss.NewStyle().
		Foreground(p.ThinkingFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(p.Overlay).
		PaddingLeft(1)

	t.Timestamp = lipgloss.NewStyle().Foreground(p.TextMuted)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(p.Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Foreground(p.Accent).Bold(true)
	t.InputPlaceholder = lipgloss.NewStyle().Foreground(p.TextMuted).Italic(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(p.Surface).
		Foreground(p.TextSecondary).
		Padding(0, 1)
	t.StatusOK = lipgloss.NewStyle().Foreground(p.Success).Bold(true)
	t.StatusBusy = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)
	t.StatusError = lipgloss.NewStyle().Foreground(p.Danger).Bold(true)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(p.Accent).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(p.TextMuted)

	t.SuggestionBubble = lipgloss.NewStyle().
		Foreground(p.TextSecondary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Overlay).
		Padding(0, 1)
	t.SuggestionPending = t.SuggestionBubble.Foreground(p.TextMuted).Italic(true)

	t.ListItem = lipgloss.NewStyle().Foreground(p.TextSecondary).Padding(0, 1)
	t.ListItemSelected = lipgloss.NewStyle().
		Foreground(p.Accent).
		Background(p.Surface).
		Bold(true).
		Padding(0, 1)
	t.ListMeta = lipgloss.NewStyle().Foreground(p.TextMuted)

	t.ErrorBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Danger).
		Padding(0, 2)
	t.ErrorTitle = lipgloss.NewStyle().Bold(true).Foreground(p.Danger)
	t.ErrorMessage = lipgloss.NewStyle().Foreground(p.TextPrimary)
	t.ErrorHint = lipgloss.NewStyle().Foreground(p.TextMuted).Italic(true)

	t.Spinner = lipgloss.NewStyle().Foreground(p.Accent)
	t.ThinkingText = lipgloss.NewStyle().Foreground(p.TextMuted).Italic(true)

	t.HelpBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Overlay).
		Padding(1, 2)
	t.HelpTitle = lipgloss.NewStyle().Bold(true).Foreground(p.Secondary)
}

// GlamourStyle returns the glamour style name matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}
