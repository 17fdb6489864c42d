// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
//
// A Turn is one message in a conversation: either a user turn, which is
// terminal from the moment it is created, or an assistant turn, which starts
// as a streaming placeholder and is mutated in place by incoming chunks until
// it is finalized exactly once. A Conversation is the insertion-ordered
// sequence of turns with id-keyed lookup.
//
// # Key Types
//
//   - Turn: a single message with id, role, text, and terminal-state metadata
//   - Conversation: ordered turn sequence with id index and wire translation
//   - Statistics: per-turn streaming timing and token counts
//
// # Invariants
//
//   - Turn ids are unique within a conversation and never reused
//   - Turn order is insertion order; turns are never reordered or removed
//     individually (Clear replaces the whole sequence)
//   - Suggestions appear only on terminal assistant turns
//   - At most one turn is streaming at a time (enforced by the session layer)
//
// This package is not safe for concurrent use; the owning session serializes
// all access.
package model
