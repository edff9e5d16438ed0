// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/cortex-chat/cortex-tui/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// HighlightCodeBlocks renders the fenced code blocks in a markdown answer
// with chroma highlighting. It is the plain-text path used when the full
// markdown renderer is unavailable; everything outside fences passes
// through untouched.
func HighlightCodeBlocks(theme *styles.Theme, text string, maxWidth int) string {
	lines := strings.Split(text, "\n")
	var result []string
	var codeLines []string
	var language string
	inCodeBlock := false

	flush := func() {
		result = append(result, renderCodeBlock(theme, language, strings.Join(codeLines, "\n"), maxWidth))
		codeLines = nil
		language = ""
	}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "```"):
			if inCodeBlock {
				flush()
				inCodeBlock = false
			} else {
				language = strings.TrimSpace(strings.TrimPrefix(line, "```"))
				inCodeBlock = true
			}
		case inCodeBlock:
			codeLines = append(codeLines, line)
		default:
			result = append(result, line)
		}
	}
	// Unclosed fence, usually a truncated answer.
	if inCodeBlock && len(codeLines) > 0 {
		flush()
	}

	return strings.Join(result, "\n")
}

// renderCodeBlock draws one highlighted block with a language badge.
func renderCodeBlock(theme *styles.Theme, language, code string, maxWidth int) string {
	code = strings.TrimRight(code, "\n")
	body := highlight(code, language, theme.IsDark)

	var header string
	if language != "" {
		header = theme.ShortcutKey.Render(language) + "\n"
	}

	if maxWidth < 24 {
		maxWidth = 24
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Palette.Overlay).
		Padding(0, 1).
		MaxWidth(maxWidth).
		Render(header + body)
}

// highlight runs chroma over the snippet. The raw code comes back
// unchanged when no lexer matches or formatting fails.
func highlight(code, language string, dark bool) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "monokai"
	if !dark {
		styleName = "friendly"
	}
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return code
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var b strings.Builder
	if err := formatter.Format(&b, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(b.String(), "\n")
}
