// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for CLI output.
//
// Every command file renders through these instead of defining its own, so
// piped output degrades uniformly and the palette matches the TUI.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ricky/internal/ui/styles"
)

// init pins the lipgloss color profile before any command renders. This
// respects NO_COLOR, FORCE_COLOR, and TTY detection.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	// titleStyle heads command output.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple)

	// sectionStyle marks a block of related lines.
	sectionStyle = lipgloss.NewStyle().
			Bold(true)

	// labelStyle left-aligns field names.
	labelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(12)

	// valueStyle renders field values.
	valueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	successStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// dimStyle de-emphasizes hints and stats.
	dimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	separatorStyle = lipgloss.NewStyle().
			Foreground(styles.OverlayDim)

	// promptStyle renders the REPL prompt.
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// commandStyle renders slash command names in help output.
	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan)
)

// renderSeparator draws a horizontal rule sized to the terminal, with a
// small margin and a readability cap.
func renderSeparator() string {
	width := GetTerminalWidth()
	if width > 4 {
		width -= 4
	}
	if width > 80 {
		width = 80
	}
	return separatorStyle.Render(strings.Repeat("─", width))
}
