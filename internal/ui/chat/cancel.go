// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the ricky TUI.
//
// This file implements thread-safe handling of the cancel function for the
// context handed to session.SendMessage, so esc and quit can abort the
// in-flight request from the update loop without racing the send command.
package chat

import (
	"context"
	"sync"
)

// =============================================================================
// CANCEL FUNCTION MANAGEMENT (THREAD-SAFE)
// =============================================================================

// cancelManager guards the cancel function of the current send's context.
// IMPORTANT: always hold this as a pointer (*cancelManager) in Model, so
// Bubble Tea's value-copying update cycle never copies the mutex.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

// newCancelManager creates a new cancelManager pointer.
func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// setCancelFunc stores the cancel function for a new send. Any previous
// function is fired first; an abandoned context must not outlive its send.
func (cm *cancelManager) setCancelFunc(fn context.CancelFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
	}
	cm.cancelFunc = fn
}

// cancel invokes the stored cancel function and clears it. Safe to call
// multiple times or with nothing stored.
func (cm *cancelManager) cancel() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
		cm.cancelFunc = nil
	}
}

// clear is an alias of cancel kept for call-site readability: terminal
// handlers "clear" the flight, key handlers "cancel" it.
func (cm *cancelManager) clear() {
	cm.cancel()
}

// =============================================================================
// MODEL METHODS (CONVENIENCE WRAPPERS)
// =============================================================================

// setCancelFunc stores the cancel function for the in-flight send.
func (m *Model) setCancelFunc(fn context.CancelFunc) {
	m.cancelMgr.setCancelFunc(fn)
}

// cancel aborts the in-flight send, if any.
func (m *Model) cancel() {
	m.cancelMgr.cancel()
}

// clearCancelFunc releases the in-flight send's context after a terminal
// state.
func (m *Model) clearCancelFunc() {
	m.cancelMgr.clear()
}
