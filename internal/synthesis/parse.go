// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package synthesis

import (
	"regexp"
	"strings"
)

// Tag patterns. (?s) lets reasoning and memo bodies span lines.
var (
	thinkPattern = regexp.MustCompile(`(?s)<think>(.*?)</think>`)
	memoPattern  = regexp.MustCompile(`(?s)<memo>(.*?)</memo>`)
)

// clearMemoryTag is matched literally, the way the model is taught to emit it.
const clearMemoryTag = "<clear_memory />"

// =============================================================================
// RESPONSE PARSING
// =============================================================================

// Parsed is the result of splitting a raw model response into the
// user-facing answer, the reasoning text, and the memory commands.
type Parsed struct {
	// Answer is the user-facing text with every special tag stripped.
	Answer string
	// Thinking is the reasoning text: the API's separate thinking field when
	// present, otherwise the content of an inline <think> block.
	Thinking string
	// Memos are the facts to append to the permanent memory store, one per
	// detected <memo> occurrence, each applied at most once.
	Memos []string
	// ClearMemory is set when the response carries the clear tag. Applied
	// before Memos so a response can wipe and re-seed in one turn.
	ClearMemory bool
}

// ParseResponse extracts tags from a raw model response. apiThinking is the
// daemon's separate reasoning field; when it is empty the main text is
// scanned for an inline <think> block instead. The two never both apply.
func ParseResponse(raw, apiThinking string) Parsed {
	p := Parsed{Thinking: strings.TrimSpace(apiThinking)}

	text := raw
	if p.Thinking == "" {
		if m := thinkPattern.FindStringSubmatch(text); m != nil {
			p.Thinking = strings.TrimSpace(m[1])
		}
	}

	for _, m := range memoPattern.FindAllStringSubmatch(text, -1) {
		memo := strings.TrimSpace(m[1])
		if memo != "" {
			p.Memos = append(p.Memos, memo)
		}
	}

	p.ClearMemory = strings.Contains(text, clearMemoryTag)

	// Strip every tag from the user-facing answer.
	text = thinkPattern.ReplaceAllString(text, "")
	text = memoPattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, clearMemoryTag, "")
	p.Answer = strings.TrimSpace(text)

	return p
}

// HasCommands reports whether the response carried any memory instruction.
func (p Parsed) HasCommands() bool {
	return p.ClearMemory || len(p.Memos) > 0
}
