// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view component for the ricky TUI.

The chat package implements a terminal chat interface using the Bubble Tea
framework. It renders the conversation owned by a session.Session and turns
user interaction into session calls; all backend traffic stays behind the
session.

# Key Components

## Model (model.go)

The Model struct is the central Bubble Tea model that maintains all chat
state:
  - A read-only mirror of the session's turns, updated from stream messages
  - Input handling through a bubbles textarea
  - Viewport for transcript scrolling
  - Streaming state with a turn-id guard against late messages

## View Rendering (view.go)

Rendering logic for the complete chat interface:
  - Header with model name, status indicator, and transient status text
  - Turn bubbles with role-specific styling (user, assistant, failed)
  - Fenced code block extraction with syntax highlighting
  - Suggestion footer for follow-up prompts on terminal turns
  - Status bar with backend state, model, and shortcuts

## Streaming (streaming.go)

Buffered streaming for smooth rendering:
  - StreamingBuffer batches chunks between frames
  - Flushes on a ~30fps tick instead of per chunk
  - Thread-safe so the event bridge can write from its own goroutine

## Messages (messages.go)

Bubble Tea message types delivered by the session event bridge in main.go:
stream lifecycle (start, token, complete, error), turn snapshots, loading
and model catalog changes, and conversation resets.

# Usage

Create a chat model around a session and run it as a Bubble Tea program:

	client := backend.NewClient()
	sess := session.NewSession(client, session.DefaultConfig())
	theme := styles.NewTheme(cfg.UI.Theme)
	p := tea.NewProgram(chat.New(theme, sess), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}

The caller wires the session callbacks to p.Send so session events re-enter
the Bubble Tea update loop as the message types defined in messages.go.
*/
package chat
