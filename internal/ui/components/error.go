// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable UI components for the ricky TUI.
package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ricky/internal/ui/styles"
	"github.com/jeranaias/ricky/internal/util"
)

// =============================================================================
// ERROR DISPLAY MODEL
// =============================================================================

// Error messages carry backend response bodies, which can be an entire
// proxy error page. Cap what the box will render.
const maxErrorMessageRunes = 500

// ErrorDisplay is a styled error box with recovery suggestions. The top-level
// program shows it full-screen when the backend is unreachable at startup.
type ErrorDisplay struct {
	// Error content
	title       string
	message     string
	suggestions []string
	hint        string

	// State
	visible   bool
	createdAt time.Time

	// Dimensions
	width  int
	height int
}

// NewErrorDisplay creates a hidden error display.
func NewErrorDisplay() ErrorDisplay {
	return ErrorDisplay{
		hint: "[Enter] Dismiss",
	}
}

// NewError creates a visible error display with title and message.
func NewError(title, message string) ErrorDisplay {
	return ErrorDisplay{
		title:     title,
		message:   capMessage(message),
		hint:      "[Enter] Dismiss",
		visible:   true,
		createdAt: time.Now(),
	}
}

func capMessage(message string) string {
	if util.RuneLen(message) > maxErrorMessageRunes {
		return util.TruncateRunes(message, maxErrorMessageRunes)
	}
	return message
}

// NewErrorWithSuggestions creates an error with recovery suggestions.
func NewErrorWithSuggestions(title, message string, suggestions []string) ErrorDisplay {
	e := NewError(title, message)
	e.suggestions = suggestions
	return e
}

// ConnectionError creates the error shown when the backend is unreachable.
func ConnectionError(endpoint string) ErrorDisplay {
	return ConnectionErrorWithDetails(endpoint, "Cannot connect to the chat server.")
}

// ConnectionErrorWithDetails creates a connection error carrying the
// underlying error text.
func ConnectionErrorWithDetails(endpoint, errMsg string) ErrorDisplay {
	e := NewErrorWithSuggestions(
		"Connection Error",
		errMsg,
		[]string{
			"Start the server: ricky serve",
			"Check the configured endpoint: ricky config get backend.endpoint",
			"Verify the server is listening on " + endpoint,
		},
	)
	e.hint = "[r] Retry    [enter] Continue anyway    [ctrl+c] Quit"
	return e
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SetTitle sets the error title.
func (e *ErrorDisplay) SetTitle(title string) {
	e.title = title
}

// SetMessage sets the error message.
func (e *ErrorDisplay) SetMessage(message string) {
	e.message = capMessage(message)
}

// SetSuggestions sets the list of suggestions.
func (e *ErrorDisplay) SetSuggestions(suggestions []string) {
	e.suggestions = suggestions
}

// SetHint sets the action hint line under the box content.
func (e *ErrorDisplay) SetHint(hint string) {
	e.hint = hint
}

// SetSize sets the display dimensions.
func (e *ErrorDisplay) SetSize(width, height int) {
	e.width = width
	e.height = height
}

// =============================================================================
// STATE MANAGEMENT
// =============================================================================

// Show displays the error.
func (e *ErrorDisplay) Show() {
	e.visible = true
	e.createdAt = time.Now()
}

// Hide hides the error.
func (e *ErrorDisplay) Hide() {
	e.visible = false
}

// IsVisible returns whether the error is visible.
func (e *ErrorDisplay) IsVisible() bool {
	return e.visible
}

// GetTitle returns the error title.
func (e *ErrorDisplay) GetTitle() string {
	return e.title
}

// GetMessage returns the error message.
func (e *ErrorDisplay) GetMessage() string {
	return e.message
}

// GetSuggestions returns the error suggestions.
func (e *ErrorDisplay) GetSuggestions() []string {
	return e.suggestions
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the error display.
func (e ErrorDisplay) Init() tea.Cmd {
	return nil
}

// Update handles messages. Dismissal keys hide the box; retrying and
// quitting are the owner's concern.
func (e ErrorDisplay) Update(msg tea.Msg) (ErrorDisplay, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		e.width = msg.Width
		e.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "enter":
			e.Hide()
		}
	}

	return e, nil
}

// View renders the error display.
func (e ErrorDisplay) View() string {
	if !e.visible {
		return ""
	}

	width := e.width
	if width == 0 {
		width = 60
	}

	maxWidth := width - 8
	if maxWidth < 30 {
		maxWidth = 30
	}
	if maxWidth > 80 {
		maxWidth = 80
	}

	var parts []string

	// Title with error indicator. High contrast red plus the X symbol keeps
	// the state readable for colorblind users.
	titleStyle := lipgloss.NewStyle().
		Foreground(styles.ErrorHighContrast).
		Bold(true)
	parts = append(parts, titleStyle.Render(styles.StatusIndicators.Error+" "+e.title))
	parts = append(parts, "")

	if e.message != "" {
		messageStyle := lipgloss.NewStyle().
			Foreground(styles.TextPrimary).
			Width(maxWidth - 4)
		parts = append(parts, messageStyle.Render(e.message))
		parts = append(parts, "")
	}

	if len(e.suggestions) > 0 {
		suggestionTitle := lipgloss.NewStyle().
			Foreground(styles.InfoHighContrast).
			Bold(true).
			Render("Suggestions:")
		parts = append(parts, suggestionTitle)

		bulletStyle := lipgloss.NewStyle().
			Foreground(styles.Cyan)
		textStyle := lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

		for _, suggestion := range e.suggestions {
			parts = append(parts, bulletStyle.Render("  * ")+textStyle.Render(suggestion))
		}
		parts = append(parts, "")
	}

	if e.hint != "" {
		hintStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true)
		parts = append(parts, hintStyle.Render(e.hint))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.ErrorHighContrast).
		Padding(1, 2).
		Width(maxWidth).
		Render(content)

	// Center if we have height
	if e.height > 0 {
		return lipgloss.Place(
			e.width, e.height,
			lipgloss.Center, lipgloss.Center,
			box,
		)
	}

	return box
}
