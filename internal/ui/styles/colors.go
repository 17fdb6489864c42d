// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the ricky TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// ============================================================================
// PRIMARY ACCENT COLORS
// ============================================================================

// Purple is the primary accent used for assistant content and branding.
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// PurpleDeep is a darker purple for backgrounds and borders.
var PurpleDeep = lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#4C1D95"}

// Cyan is the secondary accent used for commands, focus, and highlights.
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// CyanDeep is a darker cyan for subtle emphasis.
var CyanDeep = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#164E63"}

// Emerald marks success states and a reachable backend.
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// EmeraldDeep is a darker emerald for backgrounds.
var EmeraldDeep = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#064E3B"}

// Rose marks errors and failed turns.
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// RoseDeep is a darker rose for error backgrounds.
var RoseDeep = lipgloss.AdaptiveColor{Light: "#BE123C", Dark: "#881337"}

// Amber marks warnings and degraded states.
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// AmberDeep is a darker amber for warning backgrounds.
var AmberDeep = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#78350F"}

// ============================================================================
// SURFACE COLORS
// ============================================================================

// Surface is the base background for elevated elements.
var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// SurfaceDim is a subtle background for headers and status bars.
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// SurfaceBright is a slightly elevated surface for hover states.
var SurfaceBright = lipgloss.AdaptiveColor{Light: "#FAFAFA", Dark: "#313244"}

// Overlay is used for popups and borders.
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// OverlayDim is a muted overlay for inactive borders.
var OverlayDim = lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#45475A"}

// ============================================================================
// TEXT COLORS
// ============================================================================

// TextPrimary is the main content text color.
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary is for supporting text.
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted is for de-emphasized text such as timestamps and hints.
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// TextInverse is for text on strongly colored backgrounds.
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// ============================================================================
// MESSAGE BUBBLE COLORS
// ============================================================================

// User turn bubble: blue family, right-aligned in the transcript.
var (
	UserBubbleBg     = lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1D4ED8"}
	UserBubbleFg     = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}
	UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}
)

// Assistant turn bubble: purple family, left-aligned in the transcript.
var (
	AssistantBubbleBg     = lipgloss.AdaptiveColor{Light: "#F5F3FF", Dark: "#3B3655"}
	AssistantBubbleFg     = lipgloss.AdaptiveColor{Light: "#5B4B8A", Dark: "#E9E4F5"}
	AssistantBubbleBorder = lipgloss.AdaptiveColor{Light: "#C4B5FD", Dark: "#A78BFA"}
)

// Failed assistant turn bubble: rose family, keeps the error text and its
// recovery suggestions visually distinct from a normal reply.
var (
	ErrorBubbleBg     = lipgloss.AdaptiveColor{Light: "#FEE2E2", Dark: "#881337"}
	ErrorBubbleFg     = lipgloss.AdaptiveColor{Light: "#991B1B", Dark: "#FECACA"}
	ErrorBubbleBorder = lipgloss.AdaptiveColor{Light: "#F87171", Dark: "#FB7185"}
)

// ============================================================================
// ACCESSIBILITY: High contrast status colors
// ============================================================================

// High contrast variants meet WCAG AA against both surface backgrounds.
// Always pair them with a StatusIndicators symbol so state is never
// communicated by color alone.
var (
	SuccessHighContrast = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#22C55E"}
	ErrorHighContrast   = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}
	WarningHighContrast = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}
	InfoHighContrast    = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#3B82F6"}
)

// ============================================================================
// FOCUS COLORS
// ============================================================================

// FocusRing outlines the focused element (the input area border).
var FocusRing = Cyan

// FocusRingDim outlines unfocused elements.
var FocusRingDim = OverlayDim

// ============================================================================
// STATUS INDICATORS
// ============================================================================

// StatusIndicatorSet holds text symbols for status display. Symbols are
// plain ASCII so they render identically on every terminal.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
	Pending string
	Active  string
}

// StatusIndicators provides the symbols used alongside status colors.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
	Pending: "[ ]",
	Active:  "[*]",
}

// ============================================================================
// RENDER HELPERS
// ============================================================================

// RenderSuccess formats a success message with indicator and color.
func RenderSuccess(message string) string {
	style := lipgloss.NewStyle().
		Foreground(SuccessHighContrast).
		Bold(true)
	return style.Render(StatusIndicators.Success + " " + message)
}

// RenderError formats an error message with indicator and color.
func RenderError(message string) string {
	style := lipgloss.NewStyle().
		Foreground(ErrorHighContrast).
		Bold(true)
	return style.Render(StatusIndicators.Error + " " + message)
}

// RenderWarning formats a warning message with indicator and color.
func RenderWarning(message string) string {
	style := lipgloss.NewStyle().
		Foreground(WarningHighContrast).
		Bold(true)
	return style.Render(StatusIndicators.Warning + " " + message)
}

// RenderInfo formats an informational message with indicator and color.
func RenderInfo(message string) string {
	style := lipgloss.NewStyle().
		Foreground(InfoHighContrast).
		Bold(true)
	return style.Render(StatusIndicators.Info + " " + message)
}

// RenderStatus formats a message as success or error based on the flag.
func RenderStatus(success bool, message string) string {
	if success {
		return RenderSuccess(message)
	}
	return RenderError(message)
}
