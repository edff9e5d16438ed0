// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversations to disk as Markdown or JSON.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cortex-chat/cortex-tui/internal/model"
	"github.com/cortex-chat/cortex-tui/internal/util"
)

// DefaultDir returns the directory exports land in when none is given.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".cortex", "exports"), nil
}

// Markdown renders a conversation as a Markdown transcript.
func Markdown(c *model.Conversation) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", c.GetTitle())
	fmt.Fprintf(&b, "Exported %s · %d messages\n\n", time.Now().Format("2006-01-02 15:04"), c.MessageCount())
	b.WriteString("---\n\n")

	for _, msg := range c.Messages {
		fmt.Fprintf(&b, "## %s (%s)\n\n", msg.Role.DisplayName(), msg.Timestamp.Format("2006-01-02 15:04"))
		if msg.HasThinking() {
			b.WriteString("<details><summary>Thinking</summary>\n\n")
			b.WriteString(msg.Thinking)
			b.WriteString("\n\n</details>\n\n")
		}
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}

	return []byte(b.String())
}

// WriteMarkdown writes the conversation into dir and returns the path.
// An empty dir selects DefaultDir.
func WriteMarkdown(c *model.Conversation, dir string) (string, error) {
	return write(c, dir, ".md", Markdown(c))
}

// write places data at a slugged, timestamped path inside dir.
func write(c *model.Conversation, dir, ext string, data []byte) (string, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(dir, Filename(c, ext))
	if err := util.AtomicWriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}

// Filename builds a filesystem-safe name from the title and timestamp.
func Filename(c *model.Conversation, ext string) string {
	return fmt.Sprintf("%s-%s%s", slug(c.GetTitle()), time.Now().Format("20060102-150405"), ext)
}

// slug lowercases the title and keeps only alphanumerics and dashes.
func slug(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "chat"
	}
	if len(out) > 48 {
		out = strings.Trim(out[:48], "-")
	}
	return out
}
