// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
package model

import (
	"time"

	"github.com/jeranaias/ricky/internal/backend"
)

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation is the insertion-ordered sequence of turns in a chat, with
// id-keyed lookup for in-place streaming updates.
//
// Turns are never removed individually and never reordered; Clear replaces
// the whole sequence atomically. Not safe for concurrent use; the owning
// session serializes access.
type Conversation struct {
	turns []*Turn
	index map[string]int

	// StartedAt is when the conversation began (reset by Clear).
	StartedAt time.Time
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{
		index:     make(map[string]int),
		StartedAt: time.Now(),
	}
}

// AddUserTurn appends a terminal user turn and returns it.
func (c *Conversation) AddUserTurn(text string) *Turn {
	t := NewUserTurn(text)
	c.append(t)
	return t
}

// AddAssistantPlaceholder appends a streaming assistant placeholder and
// returns it.
func (c *Conversation) AddAssistantPlaceholder() *Turn {
	t := NewAssistantTurn()
	c.append(t)
	return t
}

func (c *Conversation) append(t *Turn) {
	c.index[t.ID] = len(c.turns)
	c.turns = append(c.turns, t)
}

// TurnByID returns the turn with the given id, or nil.
func (c *Conversation) TurnByID(id string) *Turn {
	i, ok := c.index[id]
	if !ok {
		return nil
	}
	return c.turns[i]
}

// AppendToTurn appends a chunk to the identified turn. Returns false when
// the id is unknown or the turn is already terminal, so late chunks from a
// superseded request fall through harmlessly.
func (c *Conversation) AppendToTurn(id, chunk string) bool {
	t := c.TurnByID(id)
	if t == nil || !t.Streaming {
		return false
	}
	t.AppendChunk(chunk)
	return true
}

// FinalizeTurn marks the identified turn terminal with the given suggestion
// set. Returns false when the id is unknown or the turn was already terminal.
func (c *Conversation) FinalizeTurn(id string, suggestions []string) bool {
	t := c.TurnByID(id)
	if t == nil || !t.Streaming {
		return false
	}
	t.Finalize(suggestions)
	return true
}

// FailTurn replaces the identified turn's text with a formatted error string
// and finalizes it with the given suggestion set.
func (c *Conversation) FailTurn(id, text string, suggestions []string) bool {
	t := c.TurnByID(id)
	if t == nil || !t.Streaming {
		return false
	}
	t.FailWith(text, suggestions)
	return true
}

// StreamingTurn returns the turn currently streaming, or nil. The session's
// single-flight rule keeps this unique.
func (c *Conversation) StreamingTurn() *Turn {
	for i := len(c.turns) - 1; i >= 0; i-- {
		if c.turns[i].Streaming {
			return c.turns[i]
		}
	}
	return nil
}

// FinalizeStreaming finalizes any streaming turn in place, keeping its
// accumulated text and attaching no suggestions. Used for explicit stop and
// for streams that close without a terminal record.
func (c *Conversation) FinalizeStreaming() {
	for _, t := range c.turns {
		if t.Streaming {
			t.Finalize(nil)
		}
	}
}

// Turns returns the turn sequence. The slice is a copy; the turns are shared.
func (c *Conversation) Turns() []*Turn {
	out := make([]*Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// LastTurn returns the most recent turn, or nil for an empty conversation.
func (c *Conversation) LastTurn() *Turn {
	if len(c.turns) == 0 {
		return nil
	}
	return c.turns[len(c.turns)-1]
}

// Clear atomically replaces the turn sequence with empty.
func (c *Conversation) Clear() {
	c.turns = nil
	c.index = make(map[string]int)
	c.StartedAt = time.Now()
}

// ToHistory translates the conversation into wire history pairs in turn
// order. Streaming placeholders and empty turns are skipped; the backend
// only understands completed user/assistant exchanges.
func (c *Conversation) ToHistory() []backend.HistoryMessage {
	history := make([]backend.HistoryMessage, 0, len(c.turns))
	for _, t := range c.turns {
		if t.Streaming || t.IsEmpty() {
			continue
		}
		history = append(history, backend.HistoryMessage{
			Role:    string(t.Role),
			Content: t.Text,
		})
	}
	return history
}

// Title returns a short label for the conversation derived from the first
// user turn, or empty when there is none.
func (c *Conversation) Title() string {
	for _, t := range c.turns {
		if t.Role == RoleUser && !t.IsEmpty() {
			return t.Preview(50)
		}
	}
	return ""
}
