// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cortex-chat/cortex-tui/internal/config"
	"github.com/cortex-chat/cortex-tui/internal/ollama"
	"github.com/cortex-chat/cortex-tui/internal/session"
	"github.com/cortex-chat/cortex-tui/internal/storage"
	"github.com/cortex-chat/cortex-tui/internal/ui/styles"
)

type stubClient struct {
	reply string
	err   error
}

func (s *stubClient) Chat(ctx context.Context, modelName string, messages []ollama.Message, opts *ollama.Options) (*ollama.ChatResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ollama.ChatResponse{
		Model:   modelName,
		Message: ollama.Message{Role: "assistant", Content: s.reply},
		Done:    true,
	}, nil
}

func (s *stubClient) Generate(ctx context.Context, req ollama.GenerateRequest) (*ollama.GenerateResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ollama.GenerateResponse{Model: req.Model, Response: s.reply, Done: true}, nil
}

func testModel(t *testing.T, client session.Client) (Model, *session.Manager) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.SuggestionsEnabled = false
	mgr := session.NewManager(store, client, cfg)

	m := New(mgr, nil, styles.NewTheme("dark"))
	m.resize(100, 30)
	return m, mgr
}

func typeString(m Model, s string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

func TestSubmitCommitsUserTurnAndEntersWaiting(t *testing.T) {
	m, mgr := testModel(t, &stubClient{reply: "Paris."})

	m = typeString(m, "Capital of France?")
	m, cmd := press(m, tea.KeyEnter)

	if m.state != StateWaiting {
		t.Fatalf("state = %v, want waiting", m.state)
	}
	if cmd == nil {
		t.Fatal("expected a turn command")
	}
	conv := mgr.Active()
	if conv.MessageCount() != 1 || conv.Messages[0].Content != "Capital of France?" {
		t.Fatalf("user turn not committed: %+v", conv.Messages)
	}
}

func TestEmptySubmitIsIgnored(t *testing.T) {
	m, mgr := testModel(t, &stubClient{reply: "x"})

	m, cmd := press(m, tea.KeyEnter)
	if cmd != nil || m.state != StateReady {
		t.Fatal("empty submit should be a no-op")
	}
	if !mgr.Active().IsEmpty() {
		t.Fatal("no message should be committed")
	}
}

func TestTurnCompleteReturnsToReady(t *testing.T) {
	m, mgr := testModel(t, &stubClient{reply: "Paris."})

	m = typeString(m, "Capital of France?")
	m, _ = press(m, tea.KeyEnter)

	if _, err := mgr.ProcessTurn(context.Background()); err != nil {
		t.Fatalf("process turn: %v", err)
	}
	next, _ := m.Update(TurnCompleteMsg{ConversationID: mgr.ActiveID()})
	m = next.(Model)

	if m.state != StateReady {
		t.Fatalf("state = %v, want ready", m.state)
	}
	if !strings.Contains(m.viewport.View(), "Paris.") {
		t.Error("answer not rendered in transcript")
	}
}

func TestTurnCompleteForStaleConversationIgnored(t *testing.T) {
	m, _ := testModel(t, &stubClient{reply: "x"})
	m.state = StateWaiting

	next, _ := m.Update(TurnCompleteMsg{ConversationID: "someone-else"})
	m = next.(Model)
	if m.state != StateWaiting {
		t.Error("stale completion must not change state")
	}
}

func TestTurnErrorShowsBannerWithHint(t *testing.T) {
	m, mgr := testModel(t, &stubClient{err: ollama.ErrNotRunning})

	m = typeString(m, "hello")
	m, _ = press(m, tea.KeyEnter)

	next, _ := m.Update(TurnErrorMsg{ConversationID: mgr.ActiveID(), Error: ollama.ErrNotRunning})
	m = next.(Model)

	if m.state != StateError {
		t.Fatalf("state = %v, want error", m.state)
	}
	view := m.View()
	if !strings.Contains(view, "ollama serve") {
		t.Error("error banner missing daemon hint")
	}

	// Esc dismisses the banner.
	m, _ = press(m, tea.KeyEsc)
	if m.state != StateReady {
		t.Error("escape should clear the error state")
	}
}

func TestHistoryPanelNavigation(t *testing.T) {
	m, mgr := testModel(t, &stubClient{reply: "x"})

	if _, err := mgr.CommitUserMessage("first chat"); err != nil {
		t.Fatal(err)
	}
	summaries, err := mgr.Summaries()
	if err != nil {
		t.Fatal(err)
	}

	next, _ := m.Update(HistoryMsg{Summaries: summaries})
	m = next.(Model)
	if !m.histOpen {
		t.Fatal("history panel should open")
	}
	if !strings.Contains(m.View(), "Saved chats") {
		t.Error("history panel not rendered")
	}

	m, cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Error("enter on a history item should load it")
	}

	m, _ = press(m, tea.KeyEsc)
	if m.histOpen {
		t.Error("escape should close the panel")
	}
}

func TestSuggestionsRenderAndDispatch(t *testing.T) {
	m, mgr := testModel(t, &stubClient{reply: "x"})

	next, _ := m.Update(SuggestionsMsg{
		ConversationID: mgr.ActiveID(),
		Suggestions:    []string{"Why is that?", "Show an example", "What next?"},
	})
	m = next.(Model)

	if !strings.Contains(m.View(), "Why is that?") {
		t.Error("suggestions not rendered")
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1"), Alt: true})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("alt+1 should send the first suggestion")
	}
	conv := mgr.Active()
	if conv.GetLastUserMessage() == nil || conv.GetLastUserMessage().Content != "Why is that?" {
		t.Error("suggestion was not committed as the next question")
	}
}

func TestRegenerateRequiresUserTurn(t *testing.T) {
	m, _ := testModel(t, &stubClient{reply: "x"})

	m, _ = press(m, tea.KeyCtrlR)
	if m.mode != inputCompose {
		t.Error("regenerate on an empty chat should stay in compose mode")
	}
}

func TestRetryAvailableAfterFailedTurn(t *testing.T) {
	m, mgr := testModel(t, &stubClient{err: ollama.ErrNotRunning})

	// The question is committed, the call fails, the chat ends with an
	// unanswered user turn.
	m = typeString(m, "hello")
	m, _ = press(m, tea.KeyEnter)
	_, err := mgr.ProcessTurn(context.Background())
	if err == nil {
		t.Fatal("expected the turn to fail")
	}
	next, _ := m.Update(TurnErrorMsg{ConversationID: mgr.ActiveID(), Error: err})
	m = next.(Model)

	// Ctrl+R must offer the retry the error banner promises.
	m, _ = press(m, tea.KeyCtrlR)
	if m.mode != inputRegen {
		t.Fatal("ctrl+r should enter retry mode after a failed turn")
	}
	m, cmd := press(m, tea.KeyEnter)
	if m.state != StateWaiting || cmd == nil {
		t.Error("retry submit should start a turn")
	}
}

func TestRegenerateModeSubmits(t *testing.T) {
	m, mgr := testModel(t, &stubClient{reply: "first answer"})

	if _, err := mgr.CommitUserMessage("question"); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.ProcessTurn(context.Background()); err != nil {
		t.Fatal(err)
	}

	m, _ = press(m, tea.KeyCtrlR)
	if m.mode != inputRegen {
		t.Fatal("ctrl+r should enter regenerate mode")
	}

	m = typeString(m, "shorter please")
	m, cmd := press(m, tea.KeyEnter)
	if m.state != StateWaiting || cmd == nil {
		t.Error("regenerate submit should start a turn")
	}
	if m.mode != inputCompose {
		t.Error("mode should reset after submit")
	}
}

func TestNewChatResetsView(t *testing.T) {
	m, mgr := testModel(t, &stubClient{reply: "x"})

	if _, err := mgr.CommitUserMessage("old question"); err != nil {
		t.Fatal(err)
	}
	oldID := mgr.ActiveID()

	m, _ = press(m, tea.KeyCtrlN)
	if mgr.ActiveID() == oldID {
		t.Error("ctrl+n should start a fresh conversation")
	}
	if m.state != StateReady || m.lastErr != nil {
		t.Error("new chat should reset state")
	}
}

func TestMemoriesPanelEditAndDelete(t *testing.T) {
	m, mgr := testModel(t, &stubClient{reply: "Noted.<memo>User is named Ana.</memo>"})

	if _, err := mgr.CommitUserMessage("remember my name is Ana"); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.ProcessTurn(context.Background()); err != nil {
		t.Fatal(err)
	}

	// ctrl+b asks for the stored memories.
	m, cmd := press(m, tea.KeyCtrlB)
	if cmd == nil {
		t.Fatal("ctrl+b should load memories")
	}
	next, _ := m.Update(cmd())
	m = next.(Model)
	if !m.memOpen {
		t.Fatal("memory panel should open")
	}
	if !strings.Contains(m.View(), "User is named Ana.") {
		t.Error("stored memory not rendered")
	}

	// Enter hands the selected memory to the input line.
	m, _ = press(m, tea.KeyEnter)
	if m.mode != inputMemoryEdit {
		t.Fatal("enter should start a memory edit")
	}
	if m.input.Value() != "User is named Ana." {
		t.Errorf("input = %q, want the memory text", m.input.Value())
	}

	m.input.SetValue("User is named Anya.")
	m, cmd = press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("submit should save the edit")
	}
	if changed, ok := cmd().(MemoryChangedMsg); !ok || changed.Error != nil {
		t.Fatalf("edit failed: %+v", changed)
	}
	memories, err := mgr.Memories()
	if err != nil {
		t.Fatal(err)
	}
	if len(memories) != 1 || memories[0].Content != "User is named Anya." {
		t.Fatalf("memories = %+v", memories)
	}

	// ctrl+x deletes the selected memory from the panel.
	next, _ = m.Update(MemoriesMsg{Memories: memories})
	m = next.(Model)
	m, cmd = press(m, tea.KeyCtrlX)
	if cmd == nil {
		t.Fatal("ctrl+x should delete the selected memory")
	}
	if changed := cmd().(MemoryChangedMsg); changed.Error != nil {
		t.Fatalf("delete failed: %v", changed.Error)
	}
	if memories, _ = mgr.Memories(); len(memories) != 0 {
		t.Errorf("memories = %+v, want none", memories)
	}
}

func TestExportKeysWriteMarkdownAndJSON(t *testing.T) {
	m, mgr := testModel(t, &stubClient{reply: "Paris."})

	// Nothing to export yet.
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e"), Alt: true})
	if cmd != nil {
		t.Error("export of an empty chat should be a no-op")
	}

	if _, err := mgr.CommitUserMessage("question"); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.ProcessTurn(context.Background()); err != nil {
		t.Fatal(err)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e"), Alt: true})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("alt+e should export once the chat has turns")
	}

	dir := t.TempDir()
	exported, ok := exportCmd(mgr, dir, true)().(ExportedMsg)
	if !ok || exported.Error != nil {
		t.Fatalf("JSON export failed: %+v", exported)
	}
	if !strings.HasSuffix(exported.Path, ".json") {
		t.Errorf("path = %q, want a .json file", exported.Path)
	}

	exported = exportCmd(mgr, dir, false)().(ExportedMsg)
	if exported.Error != nil || !strings.HasSuffix(exported.Path, ".md") {
		t.Errorf("markdown export = %+v", exported)
	}
}

func TestDaemonDownShowsOffline(t *testing.T) {
	m, _ := testModel(t, &stubClient{reply: "x"})

	next, _ := m.Update(DaemonStatusMsg{Running: false, Error: errors.New("connection refused")})
	m = next.(Model)

	if m.daemonUp {
		t.Error("daemon should be marked down")
	}
	if !strings.Contains(m.renderStatusBar(), "offline") {
		t.Error("status bar should show offline")
	}
}
