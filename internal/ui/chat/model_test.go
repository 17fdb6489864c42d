// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ricky/internal/backend"
	"github.com/jeranaias/ricky/internal/model"
	"github.com/jeranaias/ricky/internal/ui/components"
	"github.com/jeranaias/ricky/internal/ui/styles"
)

// newTestModel builds a chat model with a terminal size applied. The
// session is nil: these tests drive the view through messages the way the
// event bridge would.
func newTestModel(t *testing.T) Model {
	t.Helper()

	m := New(styles.NewTheme("dark"), nil)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

func TestChatInitialState(t *testing.T) {
	m := New(styles.NewTheme("dark"), nil)

	if m.GetState() != StateReady {
		t.Errorf("initial state = %v, want StateReady", m.GetState())
	}
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() before sizing = %q, want %q", got, "Loading...")
	}
}

func TestChatResizeRendersFrame(t *testing.T) {
	m := newTestModel(t)

	view := m.View()
	if !strings.Contains(view, "ricky") {
		t.Error("View() after sizing is missing the header title")
	}
	if !strings.Contains(view, "Type a message") {
		t.Error("View() with no turns is missing the empty state")
	}
}

func TestChatTurnAdded(t *testing.T) {
	m := newTestModel(t)

	turn := model.Turn{ID: "u1", Role: model.RoleUser, Text: "hello there", CreatedAt: time.Now()}
	updated, _ := m.Update(TurnAddedMsg{Turn: turn})
	m = updated.(Model)

	turns := m.Turns()
	if len(turns) != 1 {
		t.Fatalf("Turns() len = %d, want 1", len(turns))
	}
	if turns[0].ID != "u1" {
		t.Errorf("turn id = %q, want %q", turns[0].ID, "u1")
	}
	if !strings.Contains(m.View(), "hello there") {
		t.Error("View() does not show the added turn")
	}
}

func TestChatTurnUpsert(t *testing.T) {
	m := newTestModel(t)

	first := model.Turn{ID: "u1", Role: model.RoleUser, Text: "first", CreatedAt: time.Now()}
	updated, _ := m.Update(TurnAddedMsg{Turn: first})
	m = updated.(Model)

	second := first
	second.Text = "second"
	updated, _ = m.Update(TurnAddedMsg{Turn: second})
	m = updated.(Model)

	turns := m.Turns()
	if len(turns) != 1 {
		t.Fatalf("Turns() len after upsert = %d, want 1", len(turns))
	}
	if turns[0].Text != "second" {
		t.Errorf("turn text = %q, want %q", turns[0].Text, "second")
	}
}

func TestChatStreamLifecycle(t *testing.T) {
	m := newTestModel(t)
	// Batch size 1 so every tick flushes whatever arrived.
	m.streamingBuffer = NewStreamingBufferWithConfig(1, 30)

	updated, cmd := m.Update(StreamStartMsg{TurnID: "a1"})
	m = updated.(Model)

	if m.GetState() != StateStreaming {
		t.Fatalf("state after stream start = %v, want StateStreaming", m.GetState())
	}
	if cmd == nil {
		t.Fatal("stream start returned no command")
	}
	turns := m.Turns()
	if len(turns) != 1 || turns[0].ID != "a1" || !turns[0].Streaming {
		t.Fatalf("stream start did not mirror a streaming placeholder: %+v", turns)
	}

	// Chunks buffer on arrival and land in the transcript on the tick.
	updated, _ = m.Update(StreamTokenMsg{TurnID: "a1", Token: "Hel", IsFirst: true})
	m = updated.(Model)
	updated, _ = m.Update(StreamTickMsg{Time: time.Now()})
	m = updated.(Model)
	if got := m.Turns()[0].Text; got != "Hel" {
		t.Errorf("text after first tick = %q, want %q", got, "Hel")
	}

	updated, _ = m.Update(StreamTokenMsg{TurnID: "a1", Token: "lo", IsFirst: false})
	m = updated.(Model)
	updated, _ = m.Update(StreamTickMsg{Time: time.Now()})
	m = updated.(Model)
	if got := m.Turns()[0].Text; got != "Hello" {
		t.Errorf("text after second tick = %q, want %q", got, "Hello")
	}

	// The terminal snapshot is authoritative, including text the tick
	// never flushed.
	final := model.Turn{
		ID:          "a1",
		Role:        model.RoleAssistant,
		Text:        "Hello there",
		CreatedAt:   time.Now(),
		Suggestions: []string{"Tell me more"},
	}
	updated, _ = m.Update(StreamCompleteMsg{Turn: final})
	m = updated.(Model)

	if m.GetState() != StateReady {
		t.Errorf("state after complete = %v, want StateReady", m.GetState())
	}
	if m.streamingTurnID != "" {
		t.Errorf("streamingTurnID after complete = %q, want empty", m.streamingTurnID)
	}
	if got := m.Turns()[0].Text; got != "Hello there" {
		t.Errorf("text after complete = %q, want %q", got, "Hello there")
	}
	if m.Turns()[0].Streaming {
		t.Error("turn still marked streaming after complete")
	}
	if !m.suggestions.HasSuggestions() {
		t.Error("suggestions not applied from the terminal snapshot")
	}

	// A new stream clears the footer.
	updated, _ = m.Update(StreamStartMsg{TurnID: "a2"})
	m = updated.(Model)
	if m.suggestions.HasSuggestions() {
		t.Error("stream start did not clear the suggestion footer")
	}
}

func TestChatStreamError(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(StreamStartMsg{TurnID: "a1"})
	m = updated.(Model)

	failed := model.Turn{
		ID:          "a1",
		Role:        model.RoleAssistant,
		Text:        "Cannot reach the backend. Is it running?",
		CreatedAt:   time.Now(),
		Failed:      true,
		Suggestions: []string{"Try again"},
	}
	updated, _ = m.Update(StreamErrorMsg{Turn: failed})
	m = updated.(Model)

	if m.GetState() != StateReady {
		t.Errorf("state after stream error = %v, want StateReady", m.GetState())
	}
	turns := m.Turns()
	if len(turns) != 1 || !turns[0].Failed {
		t.Fatalf("failed turn not mirrored: %+v", turns)
	}
	if !strings.Contains(m.View(), "[X]") {
		t.Error("View() does not mark the failed turn")
	}
}

func TestChatEscStopsStreaming(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(StreamStartMsg{TurnID: "a1"})
	m = updated.(Model)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)

	if m.GetState() != StateReady {
		t.Errorf("state after esc = %v, want StateReady", m.GetState())
	}
	if m.streamingTurnID != "" {
		t.Errorf("streamingTurnID after esc = %q, want empty", m.streamingTurnID)
	}
	if cmd == nil {
		t.Error("esc during streaming returned no command")
	}

	// Esc while ready is a no-op.
	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if m.GetState() != StateReady || cmd != nil {
		t.Error("esc while ready changed state or produced a command")
	}
}

func TestChatLateTokensIgnored(t *testing.T) {
	m := newTestModel(t)
	m.streamingBuffer = NewStreamingBufferWithConfig(1, 30)

	updated, _ := m.Update(StreamStartMsg{TurnID: "a1"})
	m = updated.(Model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)

	// Tokens from the aborted stream arrive after the stop.
	updated, _ = m.Update(StreamTokenMsg{TurnID: "a1", Token: "late", IsFirst: true})
	m = updated.(Model)
	updated, cmd := m.Update(StreamTickMsg{Time: time.Now()})
	m = updated.(Model)

	if got := m.Turns()[0].Text; got != "" {
		t.Errorf("late token landed in transcript: %q", got)
	}
	if cmd != nil {
		t.Error("tick while ready rescheduled itself")
	}
}

func TestChatCycleModel(t *testing.T) {
	m := newTestModel(t)

	catalog := []backend.Model{{Name: "llama3.2"}, {Name: "mistral"}, {Name: "qwen2.5"}}
	updated, _ := m.Update(ModelsMsg{Models: catalog, Default: "llama3.2"})
	m = updated.(Model)

	if m.ModelName() != "llama3.2" {
		t.Fatalf("model after catalog load = %q, want %q", m.ModelName(), "llama3.2")
	}

	want := []string{"mistral", "qwen2.5", "llama3.2"}
	for _, name := range want {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = updated.(Model)
		if m.ModelName() != name {
			t.Errorf("cycled model = %q, want %q", m.ModelName(), name)
		}
	}
}

func TestChatCycleModelEmptyCatalog(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)

	if m.statusMsg != "No models loaded" {
		t.Errorf("statusMsg = %q, want %q", m.statusMsg, "No models loaded")
	}
}

func TestChatSessionReset(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(TurnAddedMsg{Turn: model.Turn{ID: "u1", Role: model.RoleUser, Text: "hi", CreatedAt: time.Now()}})
	m = updated.(Model)
	updated, _ = m.Update(TurnAddedMsg{Turn: model.Turn{ID: "a1", Role: model.RoleAssistant, Text: "hello", CreatedAt: time.Now()}})
	m = updated.(Model)

	updated, _ = m.Update(SessionResetMsg{})
	m = updated.(Model)

	if len(m.Turns()) != 0 {
		t.Errorf("Turns() after reset = %d, want 0", len(m.Turns()))
	}
	if m.GetState() != StateReady {
		t.Errorf("state after reset = %v, want StateReady", m.GetState())
	}
	if m.statusMsg != "Conversation cleared" {
		t.Errorf("statusMsg = %q, want %q", m.statusMsg, "Conversation cleared")
	}
	if !strings.Contains(m.View(), "Type a message") {
		t.Error("View() after reset is missing the empty state")
	}
}

func TestChatTypingUpdatesInput(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	m = updated.(Model)
	if got := m.input.Value(); got != "hi" {
		t.Fatalf("input value = %q, want %q", got, "hi")
	}

	// Typing is ignored while a reply streams.
	updated, _ = m.Update(StreamStartMsg{TurnID: "a1"})
	m = updated.(Model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m = updated.(Model)
	if got := m.input.Value(); got != "hi" {
		t.Errorf("input value changed during streaming: %q", got)
	}
}

func TestChatSubmit(t *testing.T) {
	m := newTestModel(t)

	// Empty input does nothing.
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if m.GetState() != StateReady || cmd != nil {
		t.Error("empty submit changed state or produced a command")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello")})
	m = updated.(Model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if m.GetState() != StateStreaming {
		t.Errorf("state after submit = %v, want StateStreaming", m.GetState())
	}
	if got := m.input.Value(); got != "" {
		t.Errorf("input not cleared after submit: %q", got)
	}
}

func TestChatStreamRequest(t *testing.T) {
	m := newTestModel(t)

	// Whitespace-only requests are dropped.
	updated, _ := m.Update(StreamRequestMsg{Text: "   "})
	m = updated.(Model)
	if m.GetState() != StateReady {
		t.Error("blank stream request changed state")
	}

	updated, _ = m.Update(StreamRequestMsg{Text: " hello "})
	m = updated.(Model)
	if m.GetState() != StateStreaming {
		t.Errorf("state after stream request = %v, want StateStreaming", m.GetState())
	}
}

func TestChatLoadingSafetyNet(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(StreamStartMsg{TurnID: "a1"})
	m = updated.(Model)

	// Loading true changes nothing; stream start already did.
	updated, _ = m.Update(LoadingMsg{Loading: true})
	m = updated.(Model)
	if m.GetState() != StateStreaming {
		t.Error("loading=true knocked the view out of streaming")
	}

	// Loading false with no terminal snapshot still lands in ready.
	updated, _ = m.Update(LoadingMsg{Loading: false})
	m = updated.(Model)
	if m.GetState() != StateReady {
		t.Errorf("state after loading=false = %v, want StateReady", m.GetState())
	}
	if m.streamingTurnID != "" {
		t.Errorf("streamingTurnID after loading=false = %q, want empty", m.streamingTurnID)
	}
}

func TestChatBackendStatus(t *testing.T) {
	tests := []struct {
		name string
		msg  BackendStatusMsg
		want components.BackendState
	}{
		{
			name: "healthy",
			msg:  BackendStatusMsg{Status: &backend.StatusResponse{Status: "healthy", Ollama: "up"}},
			want: components.BackendUp,
		},
		{
			name: "degraded",
			msg:  BackendStatusMsg{Status: &backend.StatusResponse{Status: "degraded"}},
			want: components.BackendDown,
		},
		{
			name: "unreachable",
			msg:  BackendStatusMsg{Err: errors.New("connection refused")},
			want: components.BackendDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			updated, _ := m.Update(tt.msg)
			m = updated.(Model)
			if m.backendState != tt.want {
				t.Errorf("backendState = %v, want %v", m.backendState, tt.want)
			}
		})
	}
}

func TestChatCopyWithNothingToCopy(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	m = updated.(Model)

	if m.statusMsg != "No response to copy" {
		t.Errorf("statusMsg = %q, want %q", m.statusMsg, "No response to copy")
	}
}
