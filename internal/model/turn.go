// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/ricky/internal/util"
)

// =============================================================================
// ROLES
// =============================================================================

// Role identifies the author of a turn.
type Role string

const (
	// RoleUser is a turn written by the human.
	RoleUser Role = "user"

	// RoleAssistant is a turn written by the model.
	RoleAssistant Role = "assistant"
)

// =============================================================================
// TURN
// =============================================================================

// Turn is a single message in a conversation.
//
// User turns are terminal at creation. Assistant turns begin as streaming
// placeholders: chunks accumulate in an internal builder and the visible text
// is merged when the turn is finalized. A turn is finalized at most once;
// after that its text and suggestions never change.
type Turn struct {
	// ID uniquely identifies the turn for its whole lifetime.
	ID string

	// Role is who authored the turn.
	Role Role

	// Text is the turn content. For a streaming assistant turn this holds
	// only the already-merged portion; use DisplayText for the live view.
	Text string

	// CreatedAt is when the turn was appended to the conversation.
	CreatedAt time.Time

	// Streaming is true from placeholder creation until a terminal event.
	Streaming bool

	// Failed is true when the turn reached its terminal state through
	// FailWith, meaning Text holds an error message rather than a reply.
	Failed bool

	// Suggestions holds follow-up prompts. Nil while streaming; set at most
	// once, when the turn reaches a terminal state.
	Suggestions []string

	// Stats records streaming timing. Nil for user turns.
	Stats *Statistics

	// streamContent accumulates chunks without reallocating Text per chunk.
	streamContent strings.Builder
}

// NewUserTurn creates a terminal user turn with the given text.
func NewUserTurn(text string) *Turn {
	return &Turn{
		ID:        generateTurnID(),
		Role:      RoleUser,
		Text:      text,
		CreatedAt: time.Now(),
		Streaming: false,
	}
}

// NewAssistantTurn creates a streaming assistant placeholder with empty text.
func NewAssistantTurn() *Turn {
	return &Turn{
		ID:        generateTurnID(),
		Role:      RoleAssistant,
		CreatedAt: time.Now(),
		Streaming: true,
		Stats:     NewStatistics(),
	}
}

// AppendChunk appends streamed text to the turn. Chunks arriving after the
// turn has been finalized are dropped; late callbacks from a cancelled
// request must not resurrect a terminal turn.
func (t *Turn) AppendChunk(chunk string) {
	if !t.Streaming || chunk == "" {
		return
	}
	if t.Stats != nil && t.streamContent.Len() == 0 && t.Text == "" {
		t.Stats.RecordFirstChunk()
	}
	t.streamContent.WriteString(chunk)
	if t.Stats != nil {
		t.Stats.Chunks++
	}
}

// Finalize marks the turn terminal, merging accumulated chunks into Text and
// attaching the given suggestion set (nil attaches none). Calling Finalize on
// an already-terminal turn is a no-op.
func (t *Turn) Finalize(suggestions []string) {
	if !t.Streaming {
		return
	}
	if t.streamContent.Len() > 0 {
		t.Text += t.streamContent.String()
		t.streamContent.Reset()
	}
	t.Streaming = false
	if len(suggestions) > 0 {
		t.Suggestions = append([]string(nil), suggestions...)
	}
	if t.Stats != nil {
		t.Stats.Complete()
	}
}

// FailWith replaces the turn text with a formatted error string and
// finalizes it with the given suggestion set. Accumulated partial output is
// discarded; the error text is what the user sees.
func (t *Turn) FailWith(text string, suggestions []string) {
	if !t.Streaming {
		return
	}
	t.streamContent.Reset()
	t.Text = text
	t.Streaming = false
	t.Failed = true
	if len(suggestions) > 0 {
		t.Suggestions = append([]string(nil), suggestions...)
	}
	if t.Stats != nil {
		t.Stats.Complete()
	}
}

// DisplayText returns the full visible text, including chunks not yet merged
// into Text.
func (t *Turn) DisplayText() string {
	if t.Streaming && t.streamContent.Len() > 0 {
		return t.Text + t.streamContent.String()
	}
	return t.Text
}

// Preview returns the first line of the turn, truncated to maxRunes runes,
// for history listings and titles.
func (t *Turn) Preview(maxRunes int) string {
	return util.TruncateRunes(util.FirstLine(t.DisplayText()), maxRunes)
}

// IsEmpty reports whether the turn has no visible text.
func (t *Turn) IsEmpty() bool {
	return t.Text == "" && t.streamContent.Len() == 0
}

// Clone returns a snapshot of the turn safe to hand across goroutines.
// The internal builder is flattened into Text.
func (t *Turn) Clone() *Turn {
	c := &Turn{
		ID:        t.ID,
		Role:      t.Role,
		Text:      t.DisplayText(),
		CreatedAt: t.CreatedAt,
		Streaming: t.Streaming,
		Failed:    t.Failed,
	}
	if t.Suggestions != nil {
		c.Suggestions = append([]string(nil), t.Suggestions...)
	}
	if t.Stats != nil {
		stats := *t.Stats
		c.Stats = &stats
	}
	return c
}

// =============================================================================
// STATISTICS
// =============================================================================

// Statistics tracks streaming timing for a single assistant turn.
type Statistics struct {
	// StartedAt is when the placeholder was created.
	StartedAt time.Time

	// FirstChunkAt is when the first chunk arrived (zero until then).
	FirstChunkAt time.Time

	// CompletedAt is when the turn reached a terminal state.
	CompletedAt time.Time

	// Chunks is the number of chunk records applied.
	Chunks int
}

// NewStatistics creates a Statistics anchored at the current time.
func NewStatistics() *Statistics {
	return &Statistics{StartedAt: time.Now()}
}

// RecordFirstChunk stamps the time-to-first-chunk once.
func (s *Statistics) RecordFirstChunk() {
	if s.FirstChunkAt.IsZero() {
		s.FirstChunkAt = time.Now()
	}
}

// Complete stamps the completion time once.
func (s *Statistics) Complete() {
	if s.CompletedAt.IsZero() {
		s.CompletedAt = time.Now()
	}
}

// Duration returns the total time from placeholder creation to completion,
// or the running duration if the turn is still streaming.
func (s *Statistics) Duration() time.Duration {
	if s.CompletedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// TimeToFirstChunk returns the latency before the first chunk, or zero if
// none arrived.
func (s *Statistics) TimeToFirstChunk() time.Duration {
	if s.FirstChunkAt.IsZero() {
		return 0
	}
	return s.FirstChunkAt.Sub(s.StartedAt)
}

// =============================================================================
// ID GENERATION
// =============================================================================

// generateTurnID returns a unique id like "turn_a1b2c3d4e5f60708".
// Falls back to a timestamp id if the system RNG is unavailable.
func generateTurnID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("turn_%d", time.Now().UnixNano())
	}
	return "turn_" + hex.EncodeToString(b)
}
