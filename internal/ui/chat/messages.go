// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the ricky TUI.
//
// This file defines all Bubble Tea message types used by the chat interface.
// Most of them are produced by the session event bridge in main.go, which
// translates session callback snapshots into stream messages and feeds them
// back into the update loop via Program.Send. Messages are organized into:
//   - Streaming: stream start, token delivery, completion, and errors
//   - Turns: full turn snapshots for non-streaming changes
//   - Session: loading, model catalog, and conversation reset events
//   - Backend: health probe results
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

import (
	"time"

	"github.com/jeranaias/ricky/internal/backend"
	"github.com/jeranaias/ricky/internal/model"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamRequestMsg asks the chat model to submit text as if the user typed
// it and pressed enter. Used by the welcome screen handoff and by tests.
type StreamRequestMsg struct {
	Text string
}

// StreamStartMsg signals that an assistant reply started streaming. The
// turn with this id exists in the session but has no text yet.
type StreamStartMsg struct {
	TurnID string
}

// StreamTokenMsg delivers a fragment of streamed assistant text.
type StreamTokenMsg struct {
	TurnID  string
	Token   string
	IsFirst bool // True on the first fragment of the reply
}

// StreamCompleteMsg signals a successful terminal state. Turn is the final
// snapshot, including merged text and follow-up suggestions.
type StreamCompleteMsg struct {
	Turn model.Turn
}

// StreamErrorMsg signals a failed terminal state. Turn.Text holds the error
// message the session produced and Turn.Failed is true.
type StreamErrorMsg struct {
	Turn model.Turn
}

// StreamTickMsg drives the batched-flush render loop while streaming.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// TURN MESSAGES
// =============================================================================

// TurnAddedMsg delivers a new terminal turn snapshot, typically the user
// turn appended by a send.
type TurnAddedMsg struct {
	Turn model.Turn
}

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// LoadingMsg reports the session's loading flag.
type LoadingMsg struct {
	Loading bool
}

// ModelsMsg delivers the refreshed model catalog and the backend's default.
type ModelsMsg struct {
	Models  []backend.Model
	Default string
}

// SessionResetMsg signals that the conversation was cleared.
type SessionResetMsg struct{}

// =============================================================================
// BACKEND MESSAGES
// =============================================================================

// BackendStatusMsg reports the result of a backend status probe.
type BackendStatusMsg struct {
	Status *backend.StatusResponse
	Err    error
}

// Up reports whether the probe found a healthy backend.
func (m BackendStatusMsg) Up() bool {
	return m.Err == nil && m.Status != nil && m.Status.Healthy()
}
