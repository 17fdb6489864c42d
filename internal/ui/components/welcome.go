// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable UI components for the ricky TUI.
package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ricky/internal/ui/styles"
)

// =============================================================================
// WELCOME SCREEN MODEL
// =============================================================================

// Welcome is the startup screen shown before the first keypress.
type Welcome struct {
	// Display info
	version   string
	modelName string
	endpoint  string

	// Dimensions
	width  int
	height int
}

// NewWelcome creates a new welcome screen.
func NewWelcome() Welcome {
	return Welcome{
		version:   "dev",
		modelName: "llama3.2",
		endpoint:  "http://localhost:11434",
	}
}

// SetVersion sets the version string.
func (w *Welcome) SetVersion(version string) {
	w.version = version
}

// SetModelName sets the model name.
func (w *Welcome) SetModelName(name string) {
	w.modelName = name
}

// SetEndpoint sets the backend endpoint shown in the info block.
func (w *Welcome) SetEndpoint(endpoint string) {
	w.endpoint = endpoint
}

// SetSize updates the dimensions.
func (w *Welcome) SetSize(width, height int) {
	w.width = width
	w.height = height
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the welcome screen.
func (w Welcome) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (w Welcome) Update(msg tea.Msg) (Welcome, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
	}
	return w, nil
}

// View renders the welcome screen.
// Responsive: adapts to terminal size, minimum 80x24 supported.
func (w Welcome) View() string {
	width := w.width
	if width == 0 {
		width = 80
	}
	height := w.height
	if height == 0 {
		height = 24
	}

	// Box width responsive to terminal width
	boxWidth := 58
	if width < 70 {
		boxWidth = width - 8
	}
	if boxWidth < 40 {
		boxWidth = 40
	}
	if boxWidth > width-4 {
		boxWidth = width - 4
	}

	horizontalPadding := 4
	verticalPadding := 1
	if width < 70 {
		horizontalPadding = 2
	}

	// Box overhead: 2 (border top/bottom) + 2*verticalPadding
	boxOverhead := 2 + 2*verticalPadding
	availableContentLines := height - boxOverhead

	// Logo: 5 lines. Version: 1. Info: 2. Press key: 1.
	var content string
	var contentLines int

	if availableContentLines >= 16 {
		// Full layout with blank lines between sections
		content = w.renderLogo()
		content += "\n\n" + w.renderVersion()
		content += "\n\n" + w.renderSystemInfo()
		content += "\n\n" + w.renderPressKey()
		contentLines = 5 + 2 + 1 + 2 + 2 + 2 + 1
	} else if availableContentLines >= 12 {
		// Compact: single newlines between sections
		content = w.renderLogo()
		content += "\n" + w.renderVersion()
		content += "\n" + w.renderSystemInfo()
		content += "\n" + w.renderPressKey()
		contentLines = 5 + 1 + 1 + 1 + 2 + 1 + 1
	} else {
		// Ultra compact: one-line logo, minimal info
		content = w.renderLogoCompact()
		content += "\n" + w.renderSystemInfoCompact()
		content += "\n" + w.renderPressKey()
		contentLines = 3 + 1 + 1 + 1 + 1
	}

	// If still too tight, remove vertical padding
	if contentLines+boxOverhead > height {
		verticalPadding = 0
	}

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.Purple).
		Padding(verticalPadding, horizontalPadding).
		Width(boxWidth).
		Align(lipgloss.Center).
		Render(content)

	boxHeight := lipgloss.Height(box)

	// Align top when the box would overflow, otherwise center it.
	if boxHeight >= height {
		return lipgloss.Place(
			width, height,
			lipgloss.Center, lipgloss.Top,
			box,
		)
	}
	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
	)
}

// =============================================================================
// RENDER HELPERS
// =============================================================================

// renderLogo renders the ASCII art logo (5 lines).
// Responsive: uses the compact logo for narrow terminals.
func (w Welcome) renderLogo() string {
	logoStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	// Full ASCII art is ~32 chars wide, needs ~40 with box padding
	if w.width >= 50 {
		logo := ` ____   ___   ____  _  ____   __
|  _ \ |_ _| / ___|| |/ /\ \ / /
| |_) | | | | |    | ' /  \ V /
|  _ <  | | | |___ | . \   | |
|_| \_\|___| \____||_|\_\  |_|`
		return logoStyle.Render(logo)
	}

	return w.renderLogoCompact()
}

// renderLogoCompact renders a compact text-based logo (3 lines).
func (w Welcome) renderLogoCompact() string {
	logoStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	if w.width >= 36 {
		// Standard ASCII box drawing for maximum compatibility
		return logoStyle.Render(`+--------------------+
|       ricky        |
+--------------------+`)
	}

	// Simple text logo for very narrow terminals
	return logoStyle.Render("ricky - Local LLM Chat")
}

// renderVersion renders the version subtitle.
func (w Welcome) renderVersion() string {
	return lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		Render("Local LLM Chat v" + w.version)
}

// renderSystemInfo renders model and endpoint info (2 lines).
func (w Welcome) renderSystemInfo() string {
	labelStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(10)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	lines := []string{
		labelStyle.Render("Model:") + valueStyle.Render(w.modelName),
		labelStyle.Render("Endpoint:") + valueStyle.Render(w.endpoint),
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderSystemInfoCompact renders a single-line system info.
func (w Welcome) renderSystemInfoCompact() string {
	return lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true).
		Render(w.modelName)
}

// renderPressKey renders the "press any key" prompt.
func (w Welcome) renderPressKey() string {
	return lipgloss.NewStyle().
		Foreground(styles.Purple).
		Render("Press any key to start chatting...")
}
