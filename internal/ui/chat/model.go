// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the cortex TUI.
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/cortex-chat/cortex-tui/internal/model"
	"github.com/cortex-chat/cortex-tui/internal/ollama"
	"github.com/cortex-chat/cortex-tui/internal/session"
	"github.com/cortex-chat/cortex-tui/internal/storage"
	"github.com/cortex-chat/cortex-tui/internal/ui/components"
	"github.com/cortex-chat/cortex-tui/internal/ui/styles"
)

// =============================================================================
// STATE
// =============================================================================

// State is the top-level activity state of the chat view.
type State int

const (
	StateReady   State = iota // Waiting for input
	StateWaiting              // A turn is in flight
	StateError                // Showing an error banner
)

// inputMode selects what the text input submits as.
type inputMode int

const (
	inputCompose    inputMode = iota // Regular question
	inputRegen                       // Regenerate instructions (empty = plain retry)
	inputRename                      // New conversation title
	inputMemoryEdit                  // Memory text (empty = delete)
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state State
	mode  inputMode
	keys  KeyMap
	theme *styles.Theme

	width  int
	height int

	// Components
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	// Domain
	mgr    *session.Manager
	client *ollama.Client

	// Daemon reachability, refreshed on startup.
	daemonUp bool

	// Latest error shown in the banner.
	lastErr error

	// One-line notice (export path, rename confirmation).
	notice string

	// Follow-up suggestions for the latest answer.
	suggestions    []string
	suggestPending bool

	// Overlays
	showThinking bool
	showHelp     bool

	// History panel
	histOpen   bool
	histItems  []model.Meta
	histCursor int

	// Memory panel
	memOpen   bool
	memItems  []storage.Memory
	memCursor int
	memEditID int64 // memory being edited in inputMemoryEdit mode
}

// New builds the chat view around an existing session manager.
func New(mgr *session.Manager, client *ollama.Client, theme *styles.Theme) Model {
	input := textinput.New()
	input.Placeholder = "Ask anything..."
	input.Prompt = "❯ "
	input.CharLimit = 8192
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = theme.Spinner

	vp := viewport.New(80, 20)

	return Model{
		state:    StateReady,
		mode:     inputCompose,
		keys:     DefaultKeyMap(),
		theme:    theme,
		viewport: vp,
		input:    input,
		spin:     spin,
		mgr:      mgr,
		client:   client,
		// Assume reachable until the startup ping says otherwise.
		daemonUp: true,
	}
}

// Init starts the daemon check and the spinner tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		checkDaemonCmd(m.client),
		textinput.Blink,
	)
}

// resize recomputes component sizes and the markdown renderer.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	chromeHeight := 3 /* header */ + 3 /* input */ + 1 /* status */
	if len(m.suggestions) > 0 || m.suggestPending {
		chromeHeight += 2
	}
	vpHeight := height - chromeHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.Width = width - 6

	wrap := width - 8
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		m.renderer = renderer
	}
	m.refreshViewport(false)
}

// renderMarkdown renders assistant markdown. When the full renderer is
// unavailable the code fences still get highlighted.
func (m *Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return components.HighlightCodeBlocks(m.theme, content, m.bubbleWidth())
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return components.HighlightCodeBlocks(m.theme, content, m.bubbleWidth())
	}
	return out
}

// refreshViewport re-renders the transcript. When follow is true the
// viewport snaps to the newest message.
func (m *Model) refreshViewport(follow bool) {
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
}

// status maps view state to the status bar indicator.
func (m *Model) status() components.Status {
	switch {
	case !m.daemonUp:
		return components.StatusOffline
	case m.state == StateWaiting:
		return components.StatusWaiting
	case m.state == StateError:
		return components.StatusError
	default:
		return components.StatusReady
	}
}

// clearSuggestions drops stale follow-ups, aborting any in-flight request.
func (m *Model) clearSuggestions() {
	m.suggestions = nil
	m.suggestPending = false
	m.mgr.AbortSuggestions()
}
