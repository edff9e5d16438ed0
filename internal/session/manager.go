// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session orchestrates the per-turn flow: persist the user turn,
// assemble the prompt, make the one blocking model call, parse the response,
// apply memory commands, and persist the assistant turn.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cortex-chat/cortex-tui/internal/config"
	"github.com/cortex-chat/cortex-tui/internal/model"
	"github.com/cortex-chat/cortex-tui/internal/ollama"
	"github.com/cortex-chat/cortex-tui/internal/storage"
	"github.com/cortex-chat/cortex-tui/internal/synthesis"
)

// Sentinel errors for orchestration preconditions.
var (
	ErrNoActiveChat = errors.New("no active conversation")
	ErrNoUserTurn   = errors.New("no user turn to answer")
)

// Client is the slice of the Ollama client the orchestrator needs. Narrow on
// purpose so tests can substitute a fake. Chat carries the main turn;
// Generate carries the one-shot secondary calls (titles, suggestions).
type Client interface {
	Chat(ctx context.Context, model string, messages []ollama.Message, opts *ollama.Options) (*ollama.ChatResponse, error)
	Generate(ctx context.Context, req ollama.GenerateRequest) (*ollama.GenerateResponse, error)
}

// SuggestionCount is how many follow-up bubbles a turn produces.
const SuggestionCount = 3

// =============================================================================
// MANAGER
// =============================================================================

// Manager owns the active conversation and sequences storage, prompt
// assembly and the external call. Safe for use from multiple goroutines; the
// blocking network call itself runs outside the lock so the UI-facing
// accessors never stall behind it.
type Manager struct {
	mu     sync.Mutex
	store  *storage.Store
	client Client
	cfg    *config.Config

	active    *model.Conversation
	persisted bool // active conversation has a row in the store

	// Suggestion generation is abortable (new input supersedes it) and rate
	// limited so quick successive turns do not queue secondary calls.
	suggestCancel context.CancelFunc
	suggestLimit  *rate.Limiter
}

// NewManager creates an orchestrator and starts a fresh conversation.
func NewManager(store *storage.Store, client Client, cfg *config.Config) *Manager {
	m := &Manager{
		store:        store,
		client:       client,
		cfg:          cfg,
		suggestLimit: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
	m.active = model.NewConversation()
	m.active.Model = cfg.ChatModel
	return m
}

// Config returns the manager's configuration.
func (m *Manager) Config() *config.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// SetConfig swaps the configuration (settings dialog).
func (m *Manager) SetConfig(cfg *config.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

// Active returns a deep copy of the active conversation for rendering.
func (m *Manager) Active() *model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active.Clone()
}

// ActiveID returns the active conversation ID.
func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active.ID
}

// =============================================================================
// CONVERSATION LIFECYCLE
// =============================================================================

// NewChat starts a fresh conversation. Nothing is persisted until the first
// user turn is committed.
func (m *Manager) NewChat() *model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abortSuggestionsLocked()
	m.active = model.NewConversation()
	m.active.Model = m.cfg.ChatModel
	m.persisted = false
	return m.active.Clone()
}

// LoadChat makes a stored conversation the active one.
func (m *Manager) LoadChat(id string) (*model.Conversation, error) {
	conv, err := m.store.LoadConversation(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abortSuggestionsLocked()
	m.active = conv
	m.persisted = true
	return conv.Clone(), nil
}

// DeleteChat removes a stored conversation. Deleting the active one starts a
// fresh chat.
func (m *Manager) DeleteChat(id string) error {
	if err := m.store.DeleteConversation(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active.ID == id {
		m.active = model.NewConversation()
		m.active.Model = m.cfg.ChatModel
		m.persisted = false
	}
	return nil
}

// RenameChat retitles a stored conversation.
func (m *Manager) RenameChat(id, title string) error {
	if err := m.store.RenameConversation(id, title); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active.ID == id {
		m.active.SetTitle(title)
	}
	return nil
}

// Summaries lists stored conversations, newest first.
func (m *Manager) Summaries() ([]model.Meta, error) {
	return m.store.ListConversations()
}

// Fork copies the active conversation's turns up to and including uptoSeq
// into a new conversation and switches to it.
func (m *Manager) Fork(uptoSeq int) (*model.Conversation, error) {
	m.mu.Lock()
	srcID := m.active.ID
	persisted := m.persisted
	m.mu.Unlock()

	if !persisted {
		return nil, ErrNoActiveChat
	}
	fork, err := m.store.Fork(srcID, uptoSeq)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.abortSuggestionsLocked()
	m.active = fork
	m.persisted = true
	return fork.Clone(), nil
}

// =============================================================================
// TURN PROCESSING
// =============================================================================

// CommitUserMessage persists the user turn before the external call is
// attempted, so a crash mid-generation never loses the question.
func (m *Manager) CommitUserMessage(content string) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.persisted {
		if err := m.store.CreateConversation(m.active); err != nil {
			return nil, err
		}
		m.persisted = true
	}

	msg := model.NewUserMessage(content)
	if err := m.store.AppendMessage(m.active.ID, msg); err != nil {
		return nil, err
	}
	m.active.AddMessage(msg)
	return msg, nil
}

// ProcessTurn runs the synthesis round trip for the most recent user turn:
// one blocking request, offloaded from the UI goroutine by the caller.
// Memory commands embedded in the response are applied exactly once each,
// clear before memos. The assistant turn is persisted before returning.
func (m *Manager) ProcessTurn(ctx context.Context) (*model.Message, error) {
	convID, messages, opts, err := m.prepareTurn("")
	if err != nil {
		return nil, err
	}

	resp, err := m.client.Chat(ctx, m.chatModel(), messages, opts)
	if err != nil {
		return nil, err
	}

	return m.finishTurn(convID, resp, false)
}

// Regenerate re-asks the last user turn, optionally steered by instructions.
// When the newest turn is an assistant answer it is dropped from the prompt
// and overwritten in place. When the newest turn is an unanswered user turn
// (the previous call failed), the new answer is appended instead, so earlier
// exchanges are never touched.
func (m *Manager) Regenerate(ctx context.Context, instructions string) (*model.Message, error) {
	m.mu.Lock()
	replace := m.isRegenLocked()
	m.mu.Unlock()

	convID, messages, opts, err := m.prepareTurn(instructions)
	if err != nil {
		return nil, err
	}

	resp, err := m.client.Chat(ctx, m.chatModel(), messages, opts)
	if err != nil {
		return nil, err
	}

	return m.finishTurn(convID, resp, replace)
}

// prepareTurn snapshots everything the prompt needs under the lock. For a
// regenerate, the stale assistant turn is excluded from the history.
func (m *Manager) prepareTurn(regenInstructions string) (string, []ollama.Message, *ollama.Options, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.persisted {
		return "", nil, nil, ErrNoActiveChat
	}
	lastUser := m.active.GetLastUserMessage()
	if lastUser == nil {
		return "", nil, nil, ErrNoUserTurn
	}

	turns := m.active.RecentTurns(m.cfg.MaxHistoryTurns)
	// Only a trailing assistant answer is stale; on a retry after a failed
	// call the window ends with the user turn and nothing is dropped.
	if m.isRegenLocked() {
		turns = withoutLastAssistant(turns)
	}

	query := lastUser.Content
	if note := synthesis.RegenerateNote(regenInstructions); note != "" {
		query += "\n\n" + note
	}

	var memories []string
	if m.cfg.MemoriesEnabled {
		texts, err := m.store.MemoryTexts()
		if err != nil {
			return "", nil, nil, err
		}
		memories = texts
	}

	messages := synthesis.BuildChatMessages(synthesis.PromptInput{
		Query:           query,
		History:         synthesis.FormatHistory(turns, true),
		Memories:        memories,
		MemoriesEnabled: m.cfg.MemoriesEnabled,
		Persona:         m.cfg.Persona,
	})

	opts := &ollama.Options{
		Temperature: m.cfg.Temperature,
		NumCtx:      m.cfg.NumCtx,
	}
	if m.cfg.Seed >= 0 {
		seed := m.cfg.Seed
		opts.Seed = &seed
	}
	return m.active.ID, messages, opts, nil
}

// finishTurn parses the raw response, applies memory commands, and persists
// the assistant turn (appending, or replacing on regenerate).
func (m *Manager) finishTurn(convID string, resp *ollama.ChatResponse, replace bool) (*model.Message, error) {
	parsed := synthesis.ParseResponse(resp.Message.Content, resp.Message.Thinking)

	if m.configSnapshot().MemoriesEnabled {
		// Clear first so a response can wipe and re-seed in one turn. Each
		// detected tag occurrence is applied exactly once.
		if parsed.ClearMemory {
			if err := m.store.ClearMemories(); err != nil {
				return nil, err
			}
		}
		for _, memo := range parsed.Memos {
			if err := m.store.AddMemory(memo); err != nil {
				return nil, err
			}
		}
	}

	answer := parsed.Answer
	if answer == "" {
		// A response that was all tags still needs a visible turn.
		answer = "(done)"
	}

	msg := model.NewAssistantMessage(answer, parsed.Thinking)
	var err error
	if replace {
		err = m.store.ReplaceLastAssistant(convID, msg)
	} else {
		err = m.store.AppendMessage(convID, msg)
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active.ID == convID {
		if replace {
			m.active.ReplaceLastAssistant(msg)
		} else {
			m.active.AddMessage(msg)
		}
	}
	return msg, nil
}

// =============================================================================
// SECONDARY CALLS
// =============================================================================

// GenerateTitle asks the title model for a 2-4 word conversation title and
// persists it. Best effort: failures leave the current title alone.
func (m *Manager) GenerateTitle(ctx context.Context) (string, error) {
	m.mu.Lock()
	if !m.active.NeedsTitle() || !m.persisted {
		m.mu.Unlock()
		return "", nil
	}
	convID := m.active.ID
	history := synthesis.FormatHistory(m.active.RecentTurns(m.cfg.MaxHistoryTurns), false)
	titleModel := m.cfg.TitleModel
	m.mu.Unlock()

	if history == synthesis.NoHistory {
		return "", nil
	}

	resp, err := m.client.Generate(ctx, synthesis.BuildTitleRequest(titleModel, history))
	if err != nil {
		return "", err
	}

	title := synthesis.CleanTitle(resp.Response)
	if title == "" {
		return "", nil
	}
	if err := m.RenameChat(convID, title); err != nil {
		return "", err
	}
	return title, nil
}

// Suggestions asks for follow-up questions. A later call aborts an in-flight
// one (new input supersedes stale suggestions), and calls are rate limited.
func (m *Manager) Suggestions(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	if !m.cfg.SuggestionsEnabled || m.active.IsEmpty() {
		m.mu.Unlock()
		return nil, nil
	}
	if !m.suggestLimit.Allow() {
		m.mu.Unlock()
		return nil, nil
	}
	m.abortSuggestionsLocked()
	ctx, cancel := context.WithCancel(ctx)
	m.suggestCancel = cancel
	history := synthesis.FormatHistory(m.active.RecentTurns(m.cfg.MaxHistoryTurns), false)
	chatModel := m.cfg.ChatModel
	m.mu.Unlock()

	resp, err := m.client.Generate(ctx, synthesis.BuildSuggestionsRequest(chatModel, history))
	if err != nil {
		return nil, err
	}
	return synthesis.ParseSuggestions(resp.Response, SuggestionCount), nil
}

// AbortSuggestions cancels any in-flight suggestion call.
func (m *Manager) AbortSuggestions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abortSuggestionsLocked()
}

func (m *Manager) abortSuggestionsLocked() {
	if m.suggestCancel != nil {
		m.suggestCancel()
		m.suggestCancel = nil
	}
}

// =============================================================================
// MEMORY MANAGEMENT
// =============================================================================

// Memories lists stored permanent memories for the memory panel.
func (m *Manager) Memories() ([]storage.Memory, error) {
	return m.store.ListMemories()
}

// DeleteMemory removes a single memory by ID.
func (m *Manager) DeleteMemory(id int64) error {
	return m.store.DeleteMemory(id)
}

// UpdateMemory rewrites the text of one memory, keeping the others. Blank
// text deletes it instead.
func (m *Manager) UpdateMemory(id int64, text string) error {
	if strings.TrimSpace(text) == "" {
		return m.store.DeleteMemory(id)
	}
	memories, err := m.store.ListMemories()
	if err != nil {
		return err
	}
	texts := make([]string, 0, len(memories))
	for _, mem := range memories {
		if mem.ID == id {
			texts = append(texts, strings.TrimSpace(text))
			continue
		}
		texts = append(texts, mem.Content)
	}
	return m.store.UpdateMemories(texts)
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Manager) chatModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.ChatModel
}

func (m *Manager) configSnapshot() *config.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// isRegenLocked reports whether the newest turn is an assistant answer,
// which is the regenerate precondition. Caller holds the lock.
func (m *Manager) isRegenLocked() bool {
	last := m.active.GetLastMessage()
	return last != nil && last.Role == model.RoleAssistant
}

// withoutLastAssistant drops the trailing assistant turn from a window.
func withoutLastAssistant(turns []*model.Message) []*model.Message {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == model.RoleAssistant {
			out := make([]*model.Message, 0, len(turns)-1)
			out = append(out, turns[:i]...)
			out = append(out, turns[i+1:]...)
			return out
		}
	}
	return turns
}

// Describe returns a short status line for logging.
func (m *Manager) Describe() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("conversation %s (%d turns)", m.active.ID, m.active.MessageCount())
}
