// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package synthesis builds the prompts sent to the model and parses the
// special tags the model embeds in its answers.
package synthesis

import (
	"fmt"
	"strings"

	"github.com/cortex-chat/cortex-tui/internal/model"
	"github.com/cortex-chat/cortex-tui/internal/ollama"
)

// NoHistory is the placeholder used when a conversation has no prior turns.
const NoHistory = "No history available."

// baseSystemPrompt is the assistant persona used when the config does not
// override it.
const baseSystemPrompt = `You are a helpful AI assistant. Respond to the user's query clearly and concisely. Use the provided conversation history to maintain context. Use Markdown for formatting when it improves readability.`

// memoryCheatSheet teaches the model the memory tags. Appended to the system
// prompt only when memories are enabled.
const memoryCheatSheet = `

## PERMANENT MEMORY CHEAT SHEET
You have access to a permanent memory bank. You can add to it or clear it using special tags in your response. These tags will be processed by the system and hidden from the user.

1.  **SAVING A MEMORY FRAGMENT:**
    -   **SYNTAX:** ` + "`<memo>A concise statement of fact about the user or their preferences.</memo>`" + `
    -   **WHEN TO USE:** Use this when the user explicitly states a key piece of information about themselves like their name, their context, or their preferences that is likely to be relevant in the future. Be selective: do NOT record trivia, weigh whether the fact is worth remembering. If the user directly asks you to remember something, record it.
    -   **GOOD EXAMPLES:**
        -   User says: "I work on a project named 'Apollo' that is written in Go." -> ` + "`<memo>User is working on a Go project named 'Apollo'.</memo>`" + `
        -   User says: "From now on, please explain concepts to me like I'm a beginner." -> ` + "`<memo>User prefers explanations tailored for a beginner.</memo>`" + `
    -   **BAD EXAMPLES (DO NOT DO THIS):**
        -   User asks: "What is the capital of France?" -> ` + "`<memo>User asked about the capital of France.</memo>`" + ` (trivial conversation history, not a core fact about the user).

2.  **CLEARING ALL MEMORIES:**
    -   **SYNTAX:** ` + "`<clear_memory />`" + `
    -   **WHEN TO USE:** Use this ONLY when the user explicitly asks you to "forget everything," "clear your memory," "wipe your notes," or a similar direct command.
`

// titleSystemPrompt asks for a terse conversation title.
const titleSystemPrompt = `You are an expert at summarizing conversations. Your task is to create a very short, concise title (2-4 short words) for the given chat history. The title should capture the main topic or question of the conversation. Respond with only the title and nothing else. NO EMOJIS!`

// suggestionsSystemPrompt asks for follow-up questions, one per line.
const suggestionsSystemPrompt = `You suggest follow-up questions the user might ask next. Given the conversation history, respond with exactly three short follow-up questions, one per line, with no numbering, bullets, or any other text.`

// =============================================================================
// PROMPT ASSEMBLY
// =============================================================================

// PromptInput is everything the chat prompt is assembled from. Assembly is
// deterministic for fixed inputs; determinism of the model output is the
// endpoint's concern (seed passthrough).
type PromptInput struct {
	Query           string   // the user's newest message
	History         string   // formatted recent turns, see FormatHistory
	Memories        []string // full permanent memory store, insertion order
	MemoriesEnabled bool
	Persona         string // optional system-prompt override
}

// BuildChatMessages assembles the system and user messages for one turn.
func BuildChatMessages(in PromptInput) []ollama.Message {
	system := in.Persona
	if system == "" {
		system = baseSystemPrompt
	}
	if in.MemoriesEnabled {
		system += memoryCheatSheet
	}

	var memorySection string
	if in.MemoriesEnabled && len(in.Memories) > 0 {
		var list strings.Builder
		for _, memo := range in.Memories {
			list.WriteString("- ")
			list.WriteString(memo)
			list.WriteString("\n")
		}
		memorySection = fmt.Sprintf(`## PERMANENT MEMORIES
You have recorded the following facts. Use them to personalize your response when they are relevant; be deliberate about which ones you apply.
%s
---
`, strings.TrimRight(list.String(), "\n"))
	}

	history := in.History
	if history == "" {
		history = NoHistory
	}

	userContent := fmt.Sprintf(`%s## CONVERSATION HISTORY
%s

---

## USER QUESTION
%s
`, memorySection, history, in.Query)

	return []ollama.Message{
		ollama.NewSystemMessage(system),
		ollama.NewUserMessage(userContent),
	}
}

// BuildTitleRequest assembles the one-shot completion request for title
// generation. Secondary calls use /api/generate, not the chat endpoint.
func BuildTitleRequest(titleModel, history string) ollama.GenerateRequest {
	return ollama.GenerateRequest{
		Model:   titleModel,
		System:  titleSystemPrompt,
		Prompt:  "## Chat History:\n" + history + "\n\n## Title:",
		Options: &ollama.Options{Temperature: 0.2},
	}
}

// BuildSuggestionsRequest assembles the one-shot completion request for
// follow-up suggestions.
func BuildSuggestionsRequest(suggestModel, history string) ollama.GenerateRequest {
	return ollama.GenerateRequest{
		Model:   suggestModel,
		System:  suggestionsSystemPrompt,
		Prompt:  "## Chat History:\n" + history + "\n\n## Follow-up questions:",
		Options: &ollama.Options{Temperature: 0.9},
	}
}

// RegenerateNote wraps regenerate steering instructions the way they are
// injected into the re-asked question.
func RegenerateNote(instructions string) string {
	instructions = strings.TrimSpace(instructions)
	if instructions == "" {
		return ""
	}
	return "[System Note: The user wants you to retry the previous response with these specific instructions: " + instructions + "]"
}

// =============================================================================
// HISTORY FORMATTING
// =============================================================================

// FormatHistory renders turns as "User: ..." / "AI: ..." blocks separated by
// blank lines. excludeLastUser drops a trailing user turn, used when that
// turn is already carried in the USER QUESTION section. Returns NoHistory
// when nothing remains.
func FormatHistory(turns []*model.Message, excludeLastUser bool) string {
	if excludeLastUser && len(turns) > 0 && turns[len(turns)-1].Role == model.RoleUser {
		turns = turns[:len(turns)-1]
	}
	if len(turns) == 0 {
		return NoHistory
	}

	parts := make([]string, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case model.RoleUser:
			parts = append(parts, "User: "+turn.Content)
		case model.RoleAssistant:
			parts = append(parts, "AI: "+turn.Content)
		}
	}
	if len(parts) == 0 {
		return NoHistory
	}
	return strings.Join(parts, "\n\n")
}

// CleanTitle strips quotes and whitespace the title model tends to add.
func CleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, `"'`)
	return strings.TrimSpace(title)
}

// ParseSuggestions splits the suggestion model output into up to max
// non-empty lines, trimming list markers.
func ParseSuggestions(raw string, max int) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == max {
			break
		}
	}
	return out
}
