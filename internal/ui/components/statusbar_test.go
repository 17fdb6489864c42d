// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable UI components for the ricky TUI.
package components

import (
	"strings"
	"testing"
)

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusReady, "Ready"},
		{StatusThinking, "Thinking..."},
		{StatusStreaming, "Streaming..."},
		{StatusError, "Error"},
		{Status(99), "Unknown"},
	}

	for _, tc := range tests {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestStatusIcon(t *testing.T) {
	// Each status needs a distinct icon so state is readable without color.
	statuses := []Status{StatusReady, StatusThinking, StatusStreaming, StatusError}
	seen := make(map[string]Status)

	for _, s := range statuses {
		icon := s.Icon()
		if icon == "" {
			t.Errorf("Status %v has empty icon", s)
		}
		if prev, dup := seen[icon]; dup {
			t.Errorf("Status %v duplicates icon of %v (%q)", s, prev, icon)
		}
		seen[icon] = s
	}
}

// =============================================================================
// BACKEND STATE TESTS
// =============================================================================

func TestBackendStateString(t *testing.T) {
	tests := []struct {
		state BackendState
		want  string
	}{
		{BackendUp, "ollama up"},
		{BackendDown, "ollama down"},
		{BackendChecking, "checking"},
	}

	for _, tc := range tests {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("BackendState(%d).String() = %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestBackendStateIcon(t *testing.T) {
	states := []BackendState{BackendUp, BackendDown, BackendChecking}
	seen := make(map[string]BackendState)

	for _, s := range states {
		icon := s.Icon()
		if icon == "" {
			t.Errorf("BackendState %v has empty icon", s)
		}
		if prev, dup := seen[icon]; dup {
			t.Errorf("BackendState %v duplicates icon of %v (%q)", s, prev, icon)
		}
		seen[icon] = s
	}
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestNewStatusBar(t *testing.T) {
	sb := NewStatusBar()

	if sb.Status != StatusReady {
		t.Errorf("Status = %v, want StatusReady", sb.Status)
	}
	if sb.Backend != BackendChecking {
		t.Errorf("Backend = %v, want BackendChecking", sb.Backend)
	}
	if sb.Width != 80 {
		t.Errorf("Width = %d, want 80", sb.Width)
	}
	if !sb.ShowShortcuts {
		t.Error("shortcuts should be shown by default")
	}
}

func TestStatusBarSetters(t *testing.T) {
	sb := NewStatusBar()

	sb.SetWidth(120)
	sb.SetModel("llama3.2")
	sb.SetStatus(StatusStreaming)
	sb.SetBackendState(BackendUp)
	sb.SetTurnCount(4)

	if sb.Width != 120 {
		t.Errorf("Width = %d, want 120", sb.Width)
	}
	if sb.ModelName != "llama3.2" {
		t.Errorf("ModelName = %q, want llama3.2", sb.ModelName)
	}
	if sb.Status != StatusStreaming {
		t.Errorf("Status = %v, want StatusStreaming", sb.Status)
	}
	if sb.Backend != BackendUp {
		t.Errorf("Backend = %v, want BackendUp", sb.Backend)
	}
	if sb.TurnCount != 4 {
		t.Errorf("TurnCount = %d, want 4", sb.TurnCount)
	}
}

func TestStatusBarViewMedium(t *testing.T) {
	sb := NewStatusBar()
	sb.SetWidth(80)
	sb.SetModel("llama3.2")
	sb.SetBackendState(BackendUp)
	sb.SetTurnCount(2)

	view := sb.View()

	if !strings.Contains(view, "llama3.2") {
		t.Errorf("medium view should contain the model name, got %q", view)
	}
	if !strings.Contains(view, "ollama up") {
		t.Errorf("medium view should contain the backend state, got %q", view)
	}
	if !strings.Contains(view, "2 turns") {
		t.Errorf("medium view should contain the turn count, got %q", view)
	}
}

func TestStatusBarViewWideShowsShortcuts(t *testing.T) {
	sb := NewStatusBar()
	sb.SetWidth(140)
	sb.SetModel("llama3.2")

	view := sb.View()

	if !strings.Contains(view, "enter") {
		t.Errorf("wide view should contain shortcut hints, got %q", view)
	}
	if !strings.Contains(view, "quit") {
		t.Errorf("wide view should contain the quit hint, got %q", view)
	}
}

func TestStatusBarViewNarrow(t *testing.T) {
	sb := NewStatusBar()
	sb.SetWidth(40)
	sb.SetModel("a-very-long-model-name:70b-instruct-q4")
	sb.SetBackendState(BackendDown)

	view := sb.View()

	if view == "" {
		t.Fatal("narrow view should not be empty")
	}
	// Long model names are truncated with an ellipsis
	if !strings.Contains(view, "...") {
		t.Errorf("narrow view should truncate long model names, got %q", view)
	}
}

func TestStatusBarTurnCountSingular(t *testing.T) {
	sb := NewStatusBar()
	sb.SetWidth(80)
	sb.SetTurnCount(1)

	if !strings.Contains(sb.View(), "1 turn") {
		t.Error("single turn should render without plural")
	}
}
