// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable UI components for the ricky TUI.
package components

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// SPINNER TESTS
// =============================================================================

func TestNewSpinner(t *testing.T) {
	s := NewSpinner()

	if s.IsActive() {
		t.Error("new spinner should not be active")
	}
	if s.message != "Loading" {
		t.Errorf("message = %q, want %q", s.message, "Loading")
	}
	if !s.showTimer {
		t.Error("timer should be enabled by default")
	}
}

func TestSpinnerStartStop(t *testing.T) {
	s := NewSpinner()

	cmd := s.Start()
	if cmd == nil {
		t.Error("Start() should return a tick command")
	}
	if !s.IsActive() {
		t.Error("spinner should be active after Start()")
	}

	s.Stop()
	if s.IsActive() {
		t.Error("spinner should not be active after Stop()")
	}
}

func TestSpinnerGetElapsed(t *testing.T) {
	s := NewSpinner()

	if s.GetElapsed() != 0 {
		t.Error("elapsed should be zero before Start()")
	}

	s.Start()
	time.Sleep(10 * time.Millisecond)

	if s.GetElapsed() <= 0 {
		t.Error("elapsed should be positive after Start()")
	}
}

func TestSpinnerViewInactive(t *testing.T) {
	s := NewSpinner()

	if got := s.View(); got != "" {
		t.Errorf("inactive spinner View() = %q, want empty", got)
	}
}

func TestSpinnerViewActive(t *testing.T) {
	s := NewSpinner()
	s.SetMessage("Working")
	s.Start()

	view := s.View()
	if !strings.Contains(view, "Working") {
		t.Errorf("View() = %q, should contain the message", view)
	}
}

func TestSpinnerSetMessage(t *testing.T) {
	s := NewSpinner()
	s.SetMessage("Custom")
	s.Start()

	if !strings.Contains(s.View(), "Custom") {
		t.Error("View() should reflect the custom message")
	}
}

func TestSpinnerTimerToggle(t *testing.T) {
	s := NewSpinner()
	s.SetShowTimer(false)
	s.Start()

	view := s.View()
	if strings.Contains(view, "(") {
		t.Errorf("View() = %q, should not show elapsed time when disabled", view)
	}
}

// =============================================================================
// THINKING INDICATOR TESTS
// =============================================================================

func TestThinkingIndicator(t *testing.T) {
	ti := NewThinkingIndicator()

	if ti.IsActive() {
		t.Error("new thinking indicator should not be active")
	}

	cmd := ti.Start()
	if cmd == nil {
		t.Error("Start() should return a tick command")
	}
	if !ti.IsActive() {
		t.Error("indicator should be active after Start()")
	}

	view := ti.View()
	if !strings.Contains(view, "Thinking") {
		t.Errorf("View() = %q, should contain Thinking", view)
	}

	ti.Stop()
	if ti.IsActive() {
		t.Error("indicator should not be active after Stop()")
	}
	if ti.View() != "" {
		t.Error("stopped indicator should render nothing")
	}
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "0s"},
		{"seconds", 42 * time.Second, "42s"},
		{"just under a minute", 59 * time.Second, "59s"},
		{"one minute", 60 * time.Second, "1m 00s"},
		{"minute and seconds", 75 * time.Second, "1m 15s"},
		{"single digit seconds padded", 61 * time.Second, "1m 01s"},
		{"many minutes", 10*time.Minute + 30*time.Second, "10m 30s"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatElapsed(tc.d); got != tc.want {
				t.Errorf("formatElapsed(%v) = %q, want %q", tc.d, got, tc.want)
			}
		})
	}
}
