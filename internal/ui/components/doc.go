// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable UI components for the ricky TUI.

Each component is a small Bubble Tea model or a pure render function built on
the adaptive palette in the styles package. Components hold no application
state beyond what they display; the chat model and the top-level program feed
them values and compose their views.

# Components

  - Welcome: the startup screen with logo, version, and connection info
  - ErrorDisplay: a centered error box with recovery suggestions
  - Spinner / ThinkingIndicator: ASCII loading animations
  - StatusBar: the bottom bar showing model, backend state, and shortcuts
  - CodeBlock: chroma-highlighted fenced code block rendering
  - SuggestionFooter: follow-up prompt chips shown under the transcript

# Conventions

Components render with plain ASCII symbols (no Unicode glyphs) so output is
stable across terminals, and pair every color-coded state with a text
indicator from styles.StatusIndicators.

Widths are display columns, not runes. Components that truncate use the
width-aware helpers in the util package.

# Usage Example

	sb := components.NewStatusBar()
	sb.SetWidth(120)
	sb.SetModel("llama3.2")
	sb.SetBackendState(components.BackendUp)
	fmt.Println(sb.View())
*/
package components
