// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable UI components for the ricky TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ricky/internal/ui/styles"
	"github.com/jeranaias/ricky/internal/util"
)

// =============================================================================
// SUGGESTION FOOTER
// =============================================================================

// SuggestionFooter renders the follow-up prompts attached to the latest
// terminal turn as a single footer line under the transcript.
type SuggestionFooter struct {
	suggestions []string
	width       int
}

// NewSuggestionFooter creates an empty suggestion footer.
func NewSuggestionFooter() SuggestionFooter {
	return SuggestionFooter{width: 80}
}

// SetSuggestions replaces the displayed suggestions.
func (f *SuggestionFooter) SetSuggestions(suggestions []string) {
	f.suggestions = suggestions
}

// Clear removes all suggestions.
func (f *SuggestionFooter) Clear() {
	f.suggestions = nil
}

// SetWidth sets the available display width.
func (f *SuggestionFooter) SetWidth(width int) {
	f.width = width
}

// HasSuggestions reports whether there is anything to render.
func (f *SuggestionFooter) HasSuggestions() bool {
	return len(f.suggestions) > 0
}

// View renders the footer, or "" when there are no suggestions. Items that
// would overflow the width are dropped rather than wrapped; the footer stays
// one line tall so the transcript height is predictable.
func (f SuggestionFooter) View() string {
	if len(f.suggestions) == 0 {
		return ""
	}

	labelStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	itemStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan)
	sepStyle := lipgloss.NewStyle().
		Foreground(styles.Overlay)

	const label = "Try: "
	const sep = " | "

	budget := f.width - 2
	if budget < 20 {
		budget = 20
	}

	used := util.StringWidth(label)
	var items []string
	for _, s := range f.suggestions {
		cost := util.StringWidth(s)
		if len(items) > 0 {
			cost += util.StringWidth(sep)
		}
		if used+cost > budget {
			break
		}
		used += cost
		items = append(items, itemStyle.Render(s))
	}

	// Always show at least one suggestion, truncated to fit.
	if len(items) == 0 {
		first := util.TruncateWidth(f.suggestions[0], budget-util.StringWidth(label))
		items = append(items, itemStyle.Render(first))
	}

	return lipgloss.NewStyle().
		Padding(0, 1).
		Render(labelStyle.Render(label) + strings.Join(items, sepStyle.Render(sep)))
}
