// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/cortex-chat/cortex-tui/internal/model"
)

func sampleConversation() *model.Conversation {
	c := model.NewConversation()
	c.SetTitle("Rust Borrow Checker")
	c.AddUserMessage("Why does the borrow checker reject this?")
	c.AddMessage(model.NewAssistantMessage("Because the reference outlives the owner.", "user is asking about lifetimes"))
	return c
}

func TestMarkdownTranscript(t *testing.T) {
	out := string(Markdown(sampleConversation()))

	for _, want := range []string{
		"# Rust Borrow Checker",
		"## You",
		"## Cortex",
		"<details><summary>Thinking</summary>",
		"reference outlives the owner",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestWriteMarkdownCreatesFile(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteMarkdown(sampleConversation(), dir)
	if err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	if !strings.HasPrefix(path, dir) || !strings.HasSuffix(path, ".md") {
		t.Errorf("unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(data), "borrow checker") {
		t.Error("exported file missing content")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	data, err := JSON(sampleConversation())
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var doc struct {
		Title    string `json:"title"`
		Messages []struct {
			Role     string `json:"role"`
			Content  string `json:"content"`
			Thinking string `json:"thinking"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decoding export: %v", err)
	}
	if doc.Title != "Rust Borrow Checker" {
		t.Errorf("title = %q", doc.Title)
	}
	if len(doc.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(doc.Messages))
	}
	if doc.Messages[0].Role != "user" || doc.Messages[1].Thinking == "" {
		t.Error("roles or thinking not preserved")
	}
}

func TestWriteJSONCreatesFile(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteJSON(sampleConversation(), dir)
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.HasPrefix(path, dir) || !strings.HasSuffix(path, ".json") {
		t.Errorf("unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !json.Valid(data) {
		t.Error("exported file is not valid JSON")
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Rust Borrow Checker", "rust-borrow-checker"},
		{"What's new in Go 1.24?", "what-s-new-in-go-1-24"},
		{"???", "chat"},
		{"  spaced   out  ", "spaced-out"},
	}
	for _, tt := range tests {
		if got := slug(tt.in); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
