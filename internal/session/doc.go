// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the streaming chat session core.
//
// This package owns the conversation state machine: it appends turns,
// streams assistant replies into them chunk by chunk, and settles every
// reply into exactly one terminal state (success, error, or silent close).
// At most one request is in flight per session; sending while a reply is
// streaming cancels the previous request first.
//
// # Key Types
//
//   - Session: conversation state plus the in-flight request lifecycle
//   - Config: per-session model, temperature, and logging options
//
// # Usage
//
// Create a session and observe it through callbacks:
//
//	sess := session.NewSession(backend.NewClient(), session.DefaultConfig())
//	sess.SetTurnUpdateCallback(func(turn model.Turn) {
//	    // re-render the transcript
//	})
//	sess.SendMessage(ctx, "Explain goroutines")
//
// Stop a reply mid-stream, keeping the partial text:
//
//	sess.StopGeneration()
//
// Reset the conversation, cancelling any in-flight request:
//
//	sess.ClearChat()
//
// # Concurrency
//
// All exported methods are safe for concurrent use. Callbacks are invoked
// outside the session lock, from the goroutine that produced the change;
// UI layers are expected to marshal them onto their own event loop.
package session
