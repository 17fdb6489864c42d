// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable UI components for the ricky TUI.
package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ricky/internal/ui/styles"
	"github.com/jeranaias/ricky/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusThinking
	StatusStreaming
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusThinking:
		return "Thinking..."
	case StatusStreaming:
		return "Streaming..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns a text icon for the status.
// Distinct shapes keep the states readable without color.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusThinking:
		return styles.StatusIndicators.Pending
	case StatusStreaming:
		return "~"
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// BackendState represents the reachability of the Ollama backend.
type BackendState int

const (
	BackendChecking BackendState = iota
	BackendUp
	BackendDown
)

// String returns the display string for the backend state.
func (b BackendState) String() string {
	switch b {
	case BackendUp:
		return "ollama up"
	case BackendDown:
		return "ollama down"
	default:
		return "checking"
	}
}

// Icon returns a text icon for the backend state.
func (b BackendState) Icon() string {
	switch b {
	case BackendUp:
		return styles.StatusIndicators.Success
	case BackendDown:
		return styles.StatusIndicators.Error
	default:
		return styles.StatusIndicators.Pending
	}
}

// StatusBar is the bottom bar showing model, backend state, and shortcuts.
type StatusBar struct {
	ModelName     string
	Backend       BackendState
	Status        Status
	TurnCount     int
	Width         int
	ShowShortcuts bool
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar() *StatusBar {
	return &StatusBar{
		Backend:       BackendChecking,
		Status:        StatusReady,
		Width:         80,
		ShowShortcuts: true,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetModel updates the model name.
func (s *StatusBar) SetModel(modelName string) {
	s.ModelName = modelName
}

// SetStatus updates the current status.
func (s *StatusBar) SetStatus(status Status) {
	s.Status = status
}

// SetBackendState updates the backend reachability display.
func (s *StatusBar) SetBackendState(state BackendState) {
	s.Backend = state
}

// SetTurnCount updates the number of turns in the conversation.
func (s *StatusBar) SetTurnCount(count int) {
	s.TurnCount = count
}

// View renders the status bar.
func (s *StatusBar) View() string {
	if s.Width < 60 {
		return s.viewNarrow()
	}
	if s.Width < 100 {
		return s.viewMedium()
	}
	return s.viewWide()
}

// viewNarrow renders a compact status bar for narrow terminals.
// Format: [backend] model status-icon
func (s *StatusBar) viewNarrow() string {
	backendStyle := s.getBackendStyle()
	backendSection := "[" + backendStyle.Render(s.Backend.Icon()) + "]"

	modelName := util.TruncateWidth(s.ModelName, 20)
	modelSection := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(modelName)

	statusStyle := s.getStatusStyle()
	statusSection := statusStyle.Render(s.Status.Icon())

	result := backendSection + " " + modelSection + " " + statusSection

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Width(s.Width).
		Render(result)
}

// viewMedium renders a medium-width status bar.
// Format: backend | model | N turns | Status
func (s *StatusBar) viewMedium() string {
	separator := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Render(" | ")

	parts := []string{}

	backendStyle := s.getBackendStyle()
	parts = append(parts, backendStyle.Render(s.Backend.Icon()+" "+s.Backend.String()))

	if s.ModelName != "" {
		modelName := util.TruncateWidth(s.ModelName, 24)
		modelStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		parts = append(parts, modelStyle.Render(modelName))
	}

	parts = append(parts, s.renderTurnCount())

	statusStyle := s.getStatusStyle()
	parts = append(parts, statusStyle.Render(s.Status.String()))

	result := strings.Join(parts, separator)

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(s.Width).
		Render(result)
}

// viewWide renders a full status bar with keyboard shortcuts.
// Format: backend | model | N turns ........ Status  shortcuts
func (s *StatusBar) viewWide() string {
	leftSep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")

	leftParts := []string{}

	backendStyle := s.getBackendStyle()
	leftParts = append(leftParts, backendStyle.Render(s.Backend.Icon()+" "+s.Backend.String()))

	if s.ModelName != "" {
		modelStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		leftParts = append(leftParts, modelStyle.Render(s.ModelName))
	}

	leftParts = append(leftParts, s.renderTurnCount())

	leftSection := strings.Join(leftParts, leftSep)

	rightParts := []string{}

	statusStyle := s.getStatusStyle()
	rightParts = append(rightParts, statusStyle.Render(s.Status.Icon()+" "+s.Status.String()))

	if s.ShowShortcuts {
		rightParts = append(rightParts, s.renderShortcuts())
	}

	rightSection := strings.Join(rightParts, "  ")

	// Push the right section to the edge
	leftWidth := lipgloss.Width(leftSection)
	rightWidth := lipgloss.Width(rightSection)
	spacing := s.Width - leftWidth - rightWidth - 4
	if spacing < 2 {
		spacing = 2
	}

	result := leftSection + strings.Repeat(" ", spacing) + rightSection

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(s.Width).
		Render(result)
}

// ==========================================================================
// HELPER RENDER METHODS
// ==========================================================================

// renderTurnCount renders the conversation length.
func (s *StatusBar) renderTurnCount() string {
	label := strconv.Itoa(s.TurnCount) + " turns"
	if s.TurnCount == 1 {
		label = "1 turn"
	}
	return lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(label)
}

// renderShortcuts renders keyboard shortcut hints.
func (s *StatusBar) renderShortcuts() string {
	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)
	descStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted)

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"enter", "send"},
		{"esc", "stop"},
		{"tab", "model"},
		{"^l", "clear"},
		{"^c", "quit"},
	}

	parts := make([]string, len(shortcuts))
	for i, sc := range shortcuts {
		parts[i] = keyStyle.Render(sc.key) + descStyle.Render(" "+sc.desc)
	}

	return strings.Join(parts, descStyle.Render("  "))
}

// getStatusStyle returns the style for the current status.
func (s *StatusBar) getStatusStyle() lipgloss.Style {
	switch s.Status {
	case StatusReady:
		return lipgloss.NewStyle().Foreground(styles.SuccessHighContrast).Bold(true)
	case StatusThinking, StatusStreaming:
		return lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
	case StatusError:
		return lipgloss.NewStyle().Foreground(styles.ErrorHighContrast).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(styles.TextSecondary)
	}
}

// getBackendStyle returns the style for the backend state.
func (s *StatusBar) getBackendStyle() lipgloss.Style {
	switch s.Backend {
	case BackendUp:
		return lipgloss.NewStyle().Foreground(styles.SuccessHighContrast).Bold(true)
	case BackendDown:
		return lipgloss.NewStyle().Foreground(styles.ErrorHighContrast).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(styles.WarningHighContrast).Bold(true)
	}
}
