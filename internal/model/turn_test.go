// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
package model

import (
	"strings"
	"testing"
)

// =============================================================================
// TURN LIFECYCLE TESTS
// =============================================================================

func TestNewUserTurn_IsTerminal(t *testing.T) {
	turn := NewUserTurn("hello")

	if turn.Streaming {
		t.Error("user turn must not be streaming")
	}
	if turn.Text != "hello" {
		t.Errorf("Text = %q, want %q", turn.Text, "hello")
	}
	if turn.Role != RoleUser {
		t.Errorf("Role = %q, want %q", turn.Role, RoleUser)
	}
	if turn.Suggestions != nil {
		t.Error("user turn must not carry suggestions")
	}
	if turn.ID == "" {
		t.Error("turn must have an id")
	}
	if turn.CreatedAt.IsZero() {
		t.Error("turn must have a creation time")
	}
}

func TestNewAssistantTurn_IsStreamingPlaceholder(t *testing.T) {
	turn := NewAssistantTurn()

	if !turn.Streaming {
		t.Error("assistant placeholder must be streaming")
	}
	if turn.Text != "" {
		t.Errorf("placeholder text = %q, want empty", turn.Text)
	}
	if turn.Suggestions != nil {
		t.Error("suggestions must be absent while streaming")
	}
	if turn.Stats == nil {
		t.Error("assistant turn must carry statistics")
	}
}

func TestTurn_AppendChunk_OrderPreserving(t *testing.T) {
	turn := NewAssistantTurn()

	for _, chunk := range []string{"Hel", "lo, ", "world"} {
		turn.AppendChunk(chunk)
	}

	if got := turn.DisplayText(); got != "Hello, world" {
		t.Errorf("DisplayText = %q, want %q", got, "Hello, world")
	}
	if turn.Stats.Chunks != 3 {
		t.Errorf("Chunks = %d, want 3", turn.Stats.Chunks)
	}
}

func TestTurn_Finalize_MergesAndAttachesSuggestions(t *testing.T) {
	turn := NewAssistantTurn()
	turn.AppendChunk("some text")

	suggestions := []string{"Tell me more", "Give me an example"}
	turn.Finalize(suggestions)

	if turn.Streaming {
		t.Error("finalized turn must not be streaming")
	}
	if turn.Text != "some text" {
		t.Errorf("Text = %q, want %q", turn.Text, "some text")
	}
	if len(turn.Suggestions) != 2 {
		t.Fatalf("Suggestions = %v, want 2 entries", turn.Suggestions)
	}

	// The attached set is a copy, not an alias.
	suggestions[0] = "mutated"
	if turn.Suggestions[0] != "Tell me more" {
		t.Error("suggestions must be copied, not aliased")
	}
}

func TestTurn_Finalize_Idempotent(t *testing.T) {
	turn := NewAssistantTurn()
	turn.AppendChunk("text")
	turn.Finalize(nil)

	// A second finalize with suggestions must not change anything.
	turn.Finalize([]string{"late suggestion"})

	if turn.Suggestions != nil {
		t.Errorf("second Finalize attached suggestions: %v", turn.Suggestions)
	}
	if turn.Text != "text" {
		t.Errorf("Text changed on second Finalize: %q", turn.Text)
	}
}

func TestTurn_AppendAfterFinalize_Dropped(t *testing.T) {
	turn := NewAssistantTurn()
	turn.AppendChunk("before")
	turn.Finalize(nil)

	turn.AppendChunk(" after")

	if got := turn.DisplayText(); got != "before" {
		t.Errorf("DisplayText = %q, want %q (late chunks must be dropped)", got, "before")
	}
}

func TestTurn_FailWith_ReplacesText(t *testing.T) {
	turn := NewAssistantTurn()
	turn.AppendChunk("partial out")

	errSuggestions := []string{"Try again", "Check connection", "Restart services"}
	turn.FailWith("Error: overloaded", errSuggestions)

	if turn.Streaming {
		t.Error("failed turn must not be streaming")
	}
	if !turn.Failed {
		t.Error("FailWith must mark the turn failed")
	}
	if turn.Text != "Error: overloaded" {
		t.Errorf("Text = %q, want the error string", turn.Text)
	}
	if len(turn.Suggestions) != 3 {
		t.Errorf("Suggestions = %v, want the error set", turn.Suggestions)
	}
}

func TestTurn_FailWith_NoOpWhenTerminal(t *testing.T) {
	turn := NewAssistantTurn()
	turn.AppendChunk("done text")
	turn.Finalize(nil)

	turn.FailWith("Error: late failure", []string{"Try again"})

	if turn.Text != "done text" {
		t.Errorf("Text = %q, terminal turn must be immutable", turn.Text)
	}
	if turn.Failed {
		t.Error("a successfully finalized turn must not become failed")
	}
}

func TestTurn_Preview(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"short text", "hi there", 50, "hi there"},
		{"first line only", "line one\nline two", 50, "line one"},
		{"truncated", "this is a rather long first line", 10, "this is..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turn := NewUserTurn(tt.text)
			if got := turn.Preview(tt.max); got != tt.want {
				t.Errorf("Preview = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTurn_Clone_Snapshot(t *testing.T) {
	turn := NewAssistantTurn()
	turn.AppendChunk("stream")

	clone := turn.Clone()

	if clone.Text != "stream" {
		t.Errorf("clone Text = %q, want flattened stream content", clone.Text)
	}
	if !clone.Streaming {
		t.Error("clone must preserve streaming state")
	}

	// Mutating the original must not affect the clone.
	turn.AppendChunk(" more")
	if clone.Text != "stream" {
		t.Error("clone must be independent of the original")
	}
}

func TestTurn_Clone_PreservesFailed(t *testing.T) {
	turn := NewAssistantTurn()
	turn.FailWith("Error: connection refused", nil)

	clone := turn.Clone()

	if !clone.Failed {
		t.Error("clone must preserve the failed flag")
	}
}

// =============================================================================
// ID GENERATION TESTS
// =============================================================================

func TestGenerateTurnID_UniqueAndPrefixed(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := generateTurnID()
		if !strings.HasPrefix(id, "turn_") {
			t.Fatalf("id %q missing prefix", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %q", id)
		}
		seen[id] = true
	}
}
