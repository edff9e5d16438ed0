// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cortex-chat/cortex-tui/internal/config"
	"github.com/cortex-chat/cortex-tui/internal/ollama"
	"github.com/cortex-chat/cortex-tui/internal/storage"
)

// fakeClient scripts chat and generate responses and records the requests
// it saw.
type fakeClient struct {
	mu            sync.Mutex
	responses     []ollama.ChatResponse
	generated     []string
	err           error
	calls         [][]ollama.Message
	models        []string
	generateCalls []ollama.GenerateRequest
	opts          []*ollama.Options
}

func (f *fakeClient) Chat(ctx context.Context, model string, messages []ollama.Message, opts *ollama.Options) (*ollama.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	f.models = append(f.models, model)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return &resp, nil
}

func (f *fakeClient) Generate(ctx context.Context, req ollama.GenerateRequest) (*ollama.GenerateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateCalls = append(f.generateCalls, req)
	if f.err != nil {
		return nil, f.err
	}
	out := f.generated[0]
	if len(f.generated) > 1 {
		f.generated = f.generated[1:]
	}
	return &ollama.GenerateResponse{Model: req.Model, Response: out, Done: true}, nil
}

func reply(content, thinking string) ollama.ChatResponse {
	return ollama.ChatResponse{
		Message: ollama.Message{Role: "assistant", Content: content, Thinking: thinking},
		Done:    true,
	}
}

func newTestManager(t *testing.T, client *fakeClient) (*Manager, *storage.Store) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	return NewManager(store, client, cfg), store
}

// =============================================================================
// TURN FLOW
// =============================================================================

func TestManager_ProcessTurn(t *testing.T) {
	client := &fakeClient{responses: []ollama.ChatResponse{reply("Hello there!", "greeting analysis")}}
	mgr, store := newTestManager(t, client)

	_, err := mgr.CommitUserMessage("hi")
	require.NoError(t, err)

	msg, err := mgr.ProcessTurn(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Hello there!", msg.Content)
	require.Equal(t, "greeting analysis", msg.Thinking)

	// Both turns persisted, in order.
	loaded, err := store.LoadConversation(mgr.ActiveID())
	require.NoError(t, err)
	require.Equal(t, 2, loaded.MessageCount())
	require.Equal(t, "hi", loaded.Messages[0].Content)
	require.Equal(t, "Hello there!", loaded.Messages[1].Content)
}

func TestManager_UserTurnPersistedBeforeCall(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	mgr, store := newTestManager(t, client)

	_, err := mgr.CommitUserMessage("still here?")
	require.NoError(t, err)

	_, err = mgr.ProcessTurn(context.Background())
	require.Error(t, err)

	// The user turn survives the failed call.
	loaded, err := store.LoadConversation(mgr.ActiveID())
	require.NoError(t, err)
	require.Equal(t, 1, loaded.MessageCount())
	require.Equal(t, "still here?", loaded.Messages[0].Content)
}

func TestManager_SeedZeroForwarded(t *testing.T) {
	client := &fakeClient{responses: []ollama.ChatResponse{reply("deterministic", "")}}
	mgr, _ := newTestManager(t, client)
	cfg := mgr.Config().Clone()
	cfg.Seed = 0
	mgr.SetConfig(cfg)

	_, err := mgr.CommitUserMessage("roll the dice")
	require.NoError(t, err)
	_, err = mgr.ProcessTurn(context.Background())
	require.NoError(t, err)

	require.NotNil(t, client.opts[0].Seed)
	require.Equal(t, 0, *client.opts[0].Seed)
}

func TestManager_SeedUnsetOmitted(t *testing.T) {
	client := &fakeClient{responses: []ollama.ChatResponse{reply("random", "")}}
	mgr, _ := newTestManager(t, client)

	_, err := mgr.CommitUserMessage("surprise me")
	require.NoError(t, err)
	_, err = mgr.ProcessTurn(context.Background())
	require.NoError(t, err)

	// Default config leaves the seed to the daemon.
	require.Nil(t, client.opts[0].Seed)
}

func TestManager_ProcessTurnWithoutCommit(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeClient{responses: []ollama.ChatResponse{reply("x", "")}})
	_, err := mgr.ProcessTurn(context.Background())
	require.ErrorIs(t, err, ErrNoActiveChat)
}

func TestManager_MemoryTagsAppliedOnce(t *testing.T) {
	client := &fakeClient{responses: []ollama.ChatResponse{
		reply("Noted.<memo>User is named Ana.</memo><memo>User is named Ana.</memo>", ""),
	}}
	mgr, store := newTestManager(t, client)

	_, err := mgr.CommitUserMessage("my name is Ana, remember it")
	require.NoError(t, err)
	msg, err := mgr.ProcessTurn(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Noted.", msg.Content)

	// Two occurrences of the identical fact collapse to one stored memory.
	texts, err := store.MemoryTexts()
	require.NoError(t, err)
	require.Equal(t, []string{"User is named Ana."}, texts)
}

func TestManager_ClearBeforeMemo(t *testing.T) {
	client := &fakeClient{responses: []ollama.ChatResponse{
		reply("Wiped.<clear_memory /><memo>Fresh fact.</memo>", ""),
	}}
	mgr, store := newTestManager(t, client)
	require.NoError(t, store.AddMemory("stale fact"))

	_, err := mgr.CommitUserMessage("forget everything, then remember this")
	require.NoError(t, err)
	_, err = mgr.ProcessTurn(context.Background())
	require.NoError(t, err)

	texts, _ := store.MemoryTexts()
	require.Equal(t, []string{"Fresh fact."}, texts)
}

func TestManager_MemoriesDisabledIgnoresTags(t *testing.T) {
	client := &fakeClient{responses: []ollama.ChatResponse{
		reply("ok<memo>should not persist</memo>", ""),
	}}
	mgr, store := newTestManager(t, client)
	cfg := mgr.Config().Clone()
	cfg.MemoriesEnabled = false
	mgr.SetConfig(cfg)

	_, err := mgr.CommitUserMessage("hello")
	require.NoError(t, err)
	msg, err := mgr.ProcessTurn(context.Background())
	require.NoError(t, err)
	// Tags are still stripped from the visible answer.
	require.Equal(t, "ok", msg.Content)

	texts, _ := store.MemoryTexts()
	require.Empty(t, texts)
}

func TestManager_PromptCarriesMemoriesAndHistory(t *testing.T) {
	client := &fakeClient{responses: []ollama.ChatResponse{reply("a1", ""), reply("a2", "")}}
	mgr, store := newTestManager(t, client)
	require.NoError(t, store.AddMemory("User prefers terse answers."))

	_, err := mgr.CommitUserMessage("first question")
	require.NoError(t, err)
	_, err = mgr.ProcessTurn(context.Background())
	require.NoError(t, err)

	_, err = mgr.CommitUserMessage("second question")
	require.NoError(t, err)
	_, err = mgr.ProcessTurn(context.Background())
	require.NoError(t, err)

	// Second call: memories present, history holds the first exchange, and
	// the newest user turn only appears in the question section.
	userContent := client.calls[1][1].Content
	require.Contains(t, userContent, "- User prefers terse answers.")
	require.Contains(t, userContent, "User: first question")
	require.Contains(t, userContent, "AI: a1")
	require.Contains(t, userContent, "## USER QUESTION\nsecond question")
	require.NotContains(t, strings.SplitN(userContent, "## USER QUESTION", 2)[0], "second question")
}

// =============================================================================
// REGENERATE
// =============================================================================

func TestManager_Regenerate(t *testing.T) {
	client := &fakeClient{responses: []ollama.ChatResponse{
		reply("first answer", ""),
		reply("second answer", "redone"),
	}}
	mgr, store := newTestManager(t, client)

	_, err := mgr.CommitUserMessage("question")
	require.NoError(t, err)
	_, err = mgr.ProcessTurn(context.Background())
	require.NoError(t, err)

	msg, err := mgr.Regenerate(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "second answer", msg.Content)

	// Still two turns; the assistant turn was replaced in place.
	loaded, _ := store.LoadConversation(mgr.ActiveID())
	require.Equal(t, 2, loaded.MessageCount())
	require.Equal(t, "second answer", loaded.Messages[1].Content)
	require.Equal(t, 2, loaded.Messages[1].Seq)

	// The stale answer is not in the regenerate prompt.
	regenPrompt := client.calls[1][1].Content
	require.NotContains(t, regenPrompt, "first answer")
}

func TestManager_RegenerateWithInstructions(t *testing.T) {
	client := &fakeClient{responses: []ollama.ChatResponse{
		reply("long answer", ""),
		reply("short answer", ""),
	}}
	mgr, _ := newTestManager(t, client)

	_, err := mgr.CommitUserMessage("explain goroutines")
	require.NoError(t, err)
	_, err = mgr.ProcessTurn(context.Background())
	require.NoError(t, err)

	_, err = mgr.Regenerate(context.Background(), "make it one sentence")
	require.NoError(t, err)

	prompt := client.calls[1][1].Content
	require.Contains(t, prompt, "[System Note: The user wants you to retry the previous response with these specific instructions: make it one sentence]")
}

func TestManager_RegenerateWithoutUserTurn(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeClient{responses: []ollama.ChatResponse{reply("x", "")}})
	_, err := mgr.Regenerate(context.Background(), "")
	require.ErrorIs(t, err, ErrNoActiveChat)
}

func TestManager_RetryAfterFailedTurnAppends(t *testing.T) {
	client := &fakeClient{responses: []ollama.ChatResponse{reply("answer one", "")}}
	mgr, store := newTestManager(t, client)

	_, err := mgr.CommitUserMessage("question one")
	require.NoError(t, err)
	_, err = mgr.ProcessTurn(context.Background())
	require.NoError(t, err)

	// Second question: the call fails, leaving an unanswered user turn.
	_, err = mgr.CommitUserMessage("question two")
	require.NoError(t, err)
	client.err = errors.New("connection refused")
	_, err = mgr.ProcessTurn(context.Background())
	require.Error(t, err)

	// Retry. The new answer must be appended after question two; the first
	// exchange stays exactly as it was.
	client.err = nil
	client.responses = []ollama.ChatResponse{reply("answer two", "")}
	msg, err := mgr.Regenerate(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "answer two", msg.Content)

	loaded, err := store.LoadConversation(mgr.ActiveID())
	require.NoError(t, err)
	require.Equal(t, 4, loaded.MessageCount())
	require.Equal(t, "question one", loaded.Messages[0].Content)
	require.Equal(t, "answer one", loaded.Messages[1].Content)
	require.Equal(t, "question two", loaded.Messages[2].Content)
	require.Equal(t, "answer two", loaded.Messages[3].Content)
	require.Equal(t, 4, loaded.Messages[3].Seq)
}

func TestManager_RetryOnFirstTurnFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	mgr, store := newTestManager(t, client)

	_, err := mgr.CommitUserMessage("only question")
	require.NoError(t, err)
	_, err = mgr.ProcessTurn(context.Background())
	require.Error(t, err)

	client.err = nil
	client.responses = []ollama.ChatResponse{reply("recovered", "")}
	msg, err := mgr.Regenerate(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "recovered", msg.Content)

	loaded, _ := store.LoadConversation(mgr.ActiveID())
	require.Equal(t, 2, loaded.MessageCount())
	require.Equal(t, "only question", loaded.Messages[0].Content)
	require.Equal(t, "recovered", loaded.Messages[1].Content)
}

// =============================================================================
// FORK / LIFECYCLE
// =============================================================================

func TestManager_Fork(t *testing.T) {
	client := &fakeClient{responses: []ollama.ChatResponse{reply("a1", ""), reply("a2", "")}}
	mgr, store := newTestManager(t, client)

	_, err := mgr.CommitUserMessage("q1")
	require.NoError(t, err)
	_, err = mgr.ProcessTurn(context.Background())
	require.NoError(t, err)
	_, err = mgr.CommitUserMessage("q2")
	require.NoError(t, err)
	_, err = mgr.ProcessTurn(context.Background())
	require.NoError(t, err)

	srcID := mgr.ActiveID()
	fork, err := mgr.Fork(2) // keep q1 + a1
	require.NoError(t, err)
	require.NotEqual(t, srcID, fork.ID)
	require.Equal(t, fork.ID, mgr.ActiveID())
	require.Equal(t, 2, fork.MessageCount())

	// Source untouched.
	src, err := store.LoadConversation(srcID)
	require.NoError(t, err)
	require.Equal(t, 4, src.MessageCount())
}

func TestManager_NewChatAndLoad(t *testing.T) {
	client := &fakeClient{responses: []ollama.ChatResponse{reply("answer", "")}}
	mgr, _ := newTestManager(t, client)

	_, err := mgr.CommitUserMessage("hello")
	require.NoError(t, err)
	_, err = mgr.ProcessTurn(context.Background())
	require.NoError(t, err)
	firstID := mgr.ActiveID()

	fresh := mgr.NewChat()
	require.NotEqual(t, firstID, fresh.ID)
	require.True(t, fresh.IsEmpty())

	loaded, err := mgr.LoadChat(firstID)
	require.NoError(t, err)
	require.Equal(t, firstID, mgr.ActiveID())
	require.Equal(t, 2, loaded.MessageCount())
}

func TestManager_DeleteActiveChatStartsFresh(t *testing.T) {
	client := &fakeClient{responses: []ollama.ChatResponse{reply("answer", "")}}
	mgr, _ := newTestManager(t, client)

	_, err := mgr.CommitUserMessage("hello")
	require.NoError(t, err)
	id := mgr.ActiveID()

	require.NoError(t, mgr.DeleteChat(id))
	require.NotEqual(t, id, mgr.ActiveID())
	require.True(t, mgr.Active().IsEmpty())
}

// =============================================================================
// SECONDARY CALLS
// =============================================================================

func TestManager_GenerateTitle(t *testing.T) {
	client := &fakeClient{
		responses: []ollama.ChatResponse{reply("answer", "")},
		generated: []string{`"Go Basics"`},
	}
	mgr, store := newTestManager(t, client)

	_, err := mgr.CommitUserMessage("teach me go")
	require.NoError(t, err)
	_, err = mgr.ProcessTurn(context.Background())
	require.NoError(t, err)

	title, err := mgr.GenerateTitle(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Go Basics", title)

	// The secondary call is a one-shot completion with the title model.
	require.Len(t, client.generateCalls, 1)
	require.Equal(t, mgr.Config().TitleModel, client.generateCalls[0].Model)
	require.Contains(t, client.generateCalls[0].Prompt, "teach me go")

	loaded, _ := store.LoadConversation(mgr.ActiveID())
	require.Equal(t, "Go Basics", loaded.Title)

	// Once titled, another request is a no-op.
	title, err = mgr.GenerateTitle(context.Background())
	require.NoError(t, err)
	require.Empty(t, title)
}

func TestManager_Suggestions(t *testing.T) {
	client := &fakeClient{
		responses: []ollama.ChatResponse{reply("answer", "")},
		generated: []string{"What is a channel?\nHow do I test?\nWhat about generics?"},
	}
	mgr, _ := newTestManager(t, client)

	_, err := mgr.CommitUserMessage("teach me go")
	require.NoError(t, err)
	_, err = mgr.ProcessTurn(context.Background())
	require.NoError(t, err)

	got, err := mgr.Suggestions(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"What is a channel?", "How do I test?", "What about generics?"}, got)
}

func TestManager_SuggestionsDisabled(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeClient{responses: []ollama.ChatResponse{reply("x", "")}})
	cfg := mgr.Config().Clone()
	cfg.SuggestionsEnabled = false
	mgr.SetConfig(cfg)

	got, err := mgr.Suggestions(context.Background())
	require.NoError(t, err)
	require.Nil(t, got)
}

// =============================================================================
// MEMORY MANAGEMENT
// =============================================================================

func TestManager_UpdateMemory(t *testing.T) {
	mgr, store := newTestManager(t, &fakeClient{})
	require.NoError(t, store.AddMemory("User is named Ana."))
	require.NoError(t, store.AddMemory("User prefers Go."))

	memories, err := mgr.Memories()
	require.NoError(t, err)
	require.Len(t, memories, 2)

	require.NoError(t, mgr.UpdateMemory(memories[0].ID, "User is named Anya."))
	texts, err := store.MemoryTexts()
	require.NoError(t, err)
	require.Equal(t, []string{"User is named Anya.", "User prefers Go."}, texts)

	// Blank text deletes instead of storing an empty fact.
	memories, err = mgr.Memories()
	require.NoError(t, err)
	require.NoError(t, mgr.UpdateMemory(memories[1].ID, "   "))
	texts, err = store.MemoryTexts()
	require.NoError(t, err)
	require.Equal(t, []string{"User is named Anya."}, texts)
}

func TestManager_DeleteMemory(t *testing.T) {
	mgr, store := newTestManager(t, &fakeClient{})
	require.NoError(t, store.AddMemory("keep"))
	require.NoError(t, store.AddMemory("drop"))

	memories, err := mgr.Memories()
	require.NoError(t, err)
	require.NoError(t, mgr.DeleteMemory(memories[1].ID))

	texts, err := store.MemoryTexts()
	require.NoError(t, err)
	require.Equal(t, []string{"keep"}, texts)
}
