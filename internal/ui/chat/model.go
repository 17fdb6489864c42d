// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the ricky TUI.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ricky/internal/backend"
	"github.com/jeranaias/ricky/internal/model"
	"github.com/jeranaias/ricky/internal/session"
	"github.com/jeranaias/ricky/internal/ui/components"
	"github.com/jeranaias/ricky/internal/ui/styles"
	"github.com/jeranaias/ricky/internal/util"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving a streamed reply
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
//
// The session owns the conversation; the model keeps a read-only mirror of
// its turn snapshots, keyed by turn id, and renders from that. All mutation
// goes through session calls whose effects come back as stream messages.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Conversation source
	session *session.Session

	// Transcript mirror
	turns     []model.Turn
	turnIndex map[string]int

	// Current streaming turn. Messages carrying any other id are late
	// arrivals from a superseded stream and are ignored for state changes.
	streamingTurnID string

	// Streaming optimization
	streamingBuffer *StreamingBuffer
	cancelMgr       *cancelManager // Pointer to avoid copying the mutex on Bubble Tea updates

	// UI components
	viewport    viewport.Model
	input       textarea.Model
	thinking    components.ThinkingIndicator
	statusBar   *components.StatusBar
	suggestions components.SuggestionFooter

	// Key bindings
	keyMap KeyMap

	// Status
	modelName    string
	models       []backend.Model
	backendState components.BackendState
	statusMsg    string // Transient status text shown in the header
}

// New creates a chat model around the given session.
func New(theme *styles.Theme, sess *session.Session) Model {
	if theme == nil {
		theme = styles.NewTheme("")
	}

	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.Prompt = "| "
	ta.CharLimit = 4096
	ta.SetWidth(76)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	// Enter submits; pasted newlines still render as wrapped lines.
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	var modelName string
	if sess != nil {
		modelName = sess.Model()
	}

	sb := components.NewStatusBar()
	sb.SetModel(modelName)

	return Model{
		state:           StateReady,
		theme:           theme,
		session:         sess,
		turnIndex:       make(map[string]int),
		streamingBuffer: NewStreamingBuffer(),
		cancelMgr:       newCancelManager(),
		viewport:        vp,
		input:           ta,
		thinking:        components.NewThinkingIndicator(),
		statusBar:       sb,
		suggestions:     components.NewSuggestionFooter(),
		keyMap:          DefaultKeyMap(),
		modelName:       modelName,
		backendState:    components.BackendChecking,
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamRequestMsg:
		return m.handleStreamRequest(msg)

	case StreamStartMsg:
		return m.handleStreamStart(msg)

	case StreamTokenMsg:
		return m.handleStreamToken(msg)

	case StreamTickMsg:
		return m.handleStreamTick(msg)

	case StreamCompleteMsg:
		return m.handleStreamComplete(msg)

	case StreamErrorMsg:
		return m.handleStreamError(msg)

	case TurnAddedMsg:
		return m.handleTurnAdded(msg)

	case LoadingMsg:
		return m.handleLoading(msg)

	case ModelsMsg:
		return m.handleModels(msg)

	case SessionResetMsg:
		return m.handleSessionReset()

	case BackendStatusMsg:
		return m.handleBackendStatus(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.thinking, cmd = m.thinking.Update(msg)
		return m, cmd

	default:
		// Unhandled messages go to the input when ready (cursor blink) and
		// always to the viewport (mouse wheel, scroll state).
		if m.state == StateReady {
			var inputCmd tea.Cmd
			m.input, inputCmd = m.input.Update(msg)
			cmds = append(cmds, inputCmd)
		}

		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)

		return m, tea.Batch(cmds...)
	}
}

// View renders the chat view.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	m.recalcLayout()
	m.updateViewport()

	// Forward the resize so the viewport updates its internal state too.
	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, vpCmd
}

// recalcLayout re-derives component dimensions from the stored terminal
// size. Called on resize and whenever the suggestion footer appears or
// disappears, since the footer takes a transcript line.
//
// The constants MUST stay in sync with the rendered heights in view.go.
// renderChat measures actual heights with lipgloss.Height and clamps on a
// mismatch, but these values should stay conservative (larger) so the
// viewport is never too tall.
func (m *Model) recalcLayout() {
	const (
		headerHeight    = 2 // renderHeader is 1 line; +1 safety for styling
		inputAreaHeight = 6 // separator + 3 textarea rows + char count + buffer
		statusBarHeight = 2 // renderStatusBar is 1 line; +1 safety for styling
	)

	reserved := headerHeight + inputAreaHeight + statusBarHeight
	if m.suggestions.HasSuggestions() {
		reserved++ // one-line suggestion footer
	}

	viewportHeight := m.height - reserved
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	viewportWidth := m.width
	if viewportWidth < 1 {
		viewportWidth = 1
	}
	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight

	// The textarea subtracts its own prompt width from this.
	inputWidth := m.width - 4
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.SetWidth(inputWidth)

	m.statusBar.SetWidth(m.width)
	m.suggestions.SetWidth(m.width)

	if m.theme != nil {
		m.theme.SetSize(m.width, m.height)
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Submit):
		return m.submitInput()

	case key.Matches(msg, m.keyMap.Cancel):
		return m.stopGeneration()

	case key.Matches(msg, m.keyMap.Clear):
		return m.clearConversation()

	case key.Matches(msg, m.keyMap.CycleModel):
		return m.cycleModel()

	case key.Matches(msg, m.keyMap.Copy):
		return m.copyLastResponse()

	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Home):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keyMap.End):
		m.viewport.GotoBottom()
		return m, nil
	}

	// Everything else is typing, accepted only while ready.
	if m.state == StateReady {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// =============================================================================
// SENDING
// =============================================================================

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	return m.submit(text)
}

func (m Model) handleStreamRequest(msg StreamRequestMsg) (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return m, nil
	}
	return m.submit(text)
}

// submit starts a send. The session supersedes any in-flight request on
// its own; the view just reflects the new one.
func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	m.input.Reset()
	m.statusMsg = ""
	m.suggestions.Clear()
	m.recalcLayout()

	m.state = StateStreaming
	m.statusBar.SetStatus(components.StatusThinking)

	return m, m.sendCmd(text)
}

// sendCmd hands the text to the session. SendMessage returns immediately;
// progress comes back through the event bridge as stream messages.
func (m *Model) sendCmd(text string) tea.Cmd {
	sess := m.session
	mgr := m.cancelMgr
	if sess == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		mgr.setCancelFunc(cancel)
		sess.SendMessage(ctx, text)
		return nil
	}
}

// stopGeneration aborts the in-flight reply. The turn keeps the text
// streamed so far; the session finalizes it and the bridge delivers the
// settled snapshot.
func (m Model) stopGeneration() (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		return m, nil
	}

	m.cancel()
	m.state = StateReady
	m.streamingTurnID = ""
	m.streamingBuffer.Reset()
	m.thinking.Stop()
	m.statusBar.SetStatus(components.StatusReady)
	m.statusMsg = "Generation stopped"
	m.input.Focus()

	sess := m.session
	return m, tea.Batch(
		func() tea.Msg {
			if sess != nil {
				sess.StopGeneration()
			}
			return nil
		},
		textarea.Blink,
	)
}

// clearConversation clears the session; the mirror resets when the
// SessionResetMsg comes back.
func (m Model) clearConversation() (tea.Model, tea.Cmd) {
	sess := m.session
	return m, func() tea.Msg {
		if sess != nil {
			sess.ClearChat()
		}
		return nil
	}
}

// cycleModel switches to the next model in the catalog.
func (m Model) cycleModel() (tea.Model, tea.Cmd) {
	if m.state == StateStreaming {
		return m, nil
	}
	if len(m.models) == 0 {
		m.statusMsg = "No models loaded"
		return m, nil
	}

	next := 0
	for i, md := range m.models {
		if md.Name == m.modelName {
			next = (i + 1) % len(m.models)
			break
		}
	}

	m.modelName = m.models[next].Name
	if m.session != nil {
		m.session.SetModel(m.modelName)
	}
	m.statusBar.SetModel(m.modelName)
	m.statusMsg = "Model: " + m.modelName
	return m, nil
}

// copyLastResponse copies the newest completed assistant reply to the
// system clipboard.
func (m Model) copyLastResponse() (tea.Model, tea.Cmd) {
	var text string
	for i := len(m.turns) - 1; i >= 0; i-- {
		t := m.turns[i]
		if t.Role == model.RoleAssistant && !t.Streaming && !t.Failed && t.Text != "" {
			text = t.Text
			break
		}
	}

	if text == "" {
		m.statusMsg = "No response to copy"
		return m, nil
	}

	if err := copyToClipboard(text); err != nil {
		m.statusMsg = "Failed to copy"
		return m, nil
	}

	m.statusMsg = "Copied!"
	return m, nil
}

// =============================================================================
// STREAM MESSAGE HANDLERS
// =============================================================================

func (m Model) handleStreamStart(msg StreamStartMsg) (tea.Model, tea.Cmd) {
	m.state = StateStreaming
	m.streamingTurnID = msg.TurnID
	m.streamingBuffer.Reset()
	m.suggestions.Clear()
	m.recalcLayout()

	// The placeholder arrives with no snapshot of its own; mirror it so the
	// transcript has a bubble to stream into.
	if _, ok := m.turnIndex[msg.TurnID]; !ok {
		m.upsertTurn(model.Turn{
			ID:        msg.TurnID,
			Role:      model.RoleAssistant,
			CreatedAt: time.Now(),
			Streaming: true,
		})
	}

	m.statusBar.SetStatus(components.StatusThinking)
	m.updateViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(m.thinking.Start(), streamTickCmd())
}

func (m Model) handleStreamToken(msg StreamTokenMsg) (tea.Model, tea.Cmd) {
	if msg.TurnID != m.streamingTurnID {
		return m, nil // late token from a superseded stream
	}

	if msg.IsFirst {
		m.thinking.Stop()
		m.statusBar.SetStatus(components.StatusStreaming)
	}

	m.streamingBuffer.Write(msg.Token)
	// Rendering happens on the next stream tick.
	return m, nil
}

// handleStreamTick flushes buffered chunks into the transcript at ~30fps.
func (m Model) handleStreamTick(StreamTickMsg) (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		return m, nil // stream over; let the tick chain die
	}

	if content, ok := m.streamingBuffer.Flush(); ok {
		m.appendToStreamingTurn(content)
		m.updateViewport()
		m.viewport.GotoBottom()
	}

	return m, streamTickCmd()
}

func (m Model) handleStreamComplete(msg StreamCompleteMsg) (tea.Model, tea.Cmd) {
	// The snapshot carries the fully merged text, so anything still queued
	// in the buffer is redundant.
	m.upsertTurn(msg.Turn)

	if msg.Turn.ID == m.streamingTurnID {
		m.streamingBuffer.Reset()
		m.state = StateReady
		m.streamingTurnID = ""
		m.thinking.Stop()
		m.clearCancelFunc()
		m.statusBar.SetStatus(components.StatusReady)
		m.suggestions.SetSuggestions(msg.Turn.Suggestions)
		m.recalcLayout()
		m.input.Focus()
	}

	m.updateViewport()
	m.viewport.GotoBottom()

	return m, textarea.Blink
}

func (m Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	m.upsertTurn(msg.Turn)

	if msg.Turn.ID == m.streamingTurnID {
		m.streamingBuffer.Reset()
		m.state = StateReady
		m.streamingTurnID = ""
		m.thinking.Stop()
		m.clearCancelFunc()
		m.statusBar.SetStatus(components.StatusError)
		m.suggestions.SetSuggestions(msg.Turn.Suggestions)
		m.recalcLayout()
		m.input.Focus()
	}

	m.updateViewport()
	m.viewport.GotoBottom()

	return m, textarea.Blink
}

// =============================================================================
// SESSION MESSAGE HANDLERS
// =============================================================================

func (m Model) handleTurnAdded(msg TurnAddedMsg) (tea.Model, tea.Cmd) {
	m.upsertTurn(msg.Turn)
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) handleLoading(msg LoadingMsg) (tea.Model, tea.Cmd) {
	if msg.Loading {
		return m, nil // stream start drives the forward transitions
	}

	// Safety net: loading can drop without a matching terminal snapshot
	// (stop or clear races); the view must still return to ready.
	if m.state == StateStreaming {
		m.state = StateReady
		m.streamingTurnID = ""
		m.streamingBuffer.Reset()
		m.thinking.Stop()
		m.statusBar.SetStatus(components.StatusReady)
		m.input.Focus()
		return m, textarea.Blink
	}
	return m, nil
}

func (m Model) handleModels(msg ModelsMsg) (tea.Model, tea.Cmd) {
	m.models = msg.Models

	// The session adopts the backend default when it had no explicit model;
	// mirror whatever it settled on.
	if m.session != nil {
		m.modelName = m.session.Model()
	} else if m.modelName == "" {
		m.modelName = msg.Default
	}
	m.statusBar.SetModel(m.modelName)
	return m, nil
}

func (m Model) handleSessionReset() (tea.Model, tea.Cmd) {
	m.turns = nil
	m.turnIndex = make(map[string]int)
	m.streamingTurnID = ""
	m.state = StateReady
	m.streamingBuffer.Reset()
	m.thinking.Stop()
	m.suggestions.Clear()
	m.recalcLayout()
	m.statusBar.SetStatus(components.StatusReady)
	m.statusBar.SetTurnCount(0)
	m.statusMsg = "Conversation cleared"
	m.updateViewport()
	m.input.Focus()
	return m, textarea.Blink
}

func (m Model) handleBackendStatus(msg BackendStatusMsg) (tea.Model, tea.Cmd) {
	if msg.Up() {
		m.backendState = components.BackendUp
	} else {
		m.backendState = components.BackendDown
	}
	m.statusBar.SetBackendState(m.backendState)
	return m, nil
}

// =============================================================================
// TRANSCRIPT MIRROR
// =============================================================================

// upsertTurn inserts or replaces a mirrored turn by id. Text is sanitized
// on arrival rather than at render time, which runs every frame.
func (m *Model) upsertTurn(turn model.Turn) {
	turn.Text = util.SanitizeTerminal(turn.Text)
	if i, ok := m.turnIndex[turn.ID]; ok {
		m.turns[i] = turn
		return
	}
	m.turnIndex[turn.ID] = len(m.turns)
	m.turns = append(m.turns, turn)
	m.statusBar.SetTurnCount(len(m.turns))
}

// appendToStreamingTurn appends flushed stream text to the mirrored
// streaming turn.
func (m *Model) appendToStreamingTurn(content string) {
	i, ok := m.turnIndex[m.streamingTurnID]
	if !ok {
		return
	}
	m.turns[i].Text += util.SanitizeTerminal(content)
}

func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderTurns())
}

// =============================================================================
// GETTERS
// =============================================================================

// GetState returns the current view state.
func (m *Model) GetState() State {
	return m.state
}

// Session returns the session driving this view.
func (m *Model) Session() *session.Session {
	return m.session
}

// ModelName returns the model identifier shown in the header.
func (m *Model) ModelName() string {
	return m.modelName
}

// Turns returns a copy of the mirrored transcript.
func (m *Model) Turns() []model.Turn {
	out := make([]model.Turn, len(m.turns))
	copy(out, m.turns)
	return out
}
