// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the ricky TUI.

This package defines the complete color palette and themed lip gloss styles
used throughout the application. All colors use Lip Gloss AdaptiveColor for
automatic light/dark terminal adjustment.

# Color System (colors.go)

## Primary Accent Colors

  - Purple - Primary accent for assistant turns and branding
  - Cyan - Commands, focus ring, and suggestion highlights
  - Emerald - Success states and a reachable backend
  - Amber - Warnings and degraded states
  - Rose - Errors and failed turns

## Semantic Colors

Turn bubbles use semantic color tokens:

	UserBubbleBg      - Background for user turns
	UserBubbleFg      - Text color for user turns
	AssistantBubbleBg - Background for assistant turns
	AssistantBubbleFg - Text color for assistant turns
	ErrorBubbleBg     - Background for failed assistant turns
	ErrorBubbleFg     - Text color for failed assistant turns

## Surface Colors

Layered surface system for depth:

	Surface    - Elevated elements
	SurfaceDim - Subtle backgrounds (headers, status bars)
	Overlay    - Popups and borders

## Text Colors

Hierarchical text color system:

	TextPrimary   - Main content text
	TextSecondary - Supporting text
	TextMuted     - De-emphasized text
	TextInverse   - Text on colored backgrounds

# Theme System (theme.go)

The Theme struct provides runtime color adaptation. The mode argument comes
from the ui.theme config key:

	theme := styles.NewTheme("auto")
	if theme.IsDark {
		// Dark terminal detected
	}
	if theme.HasTrueColor {
		// Terminal supports 16M colors
	}

# Status Indicators

ASCII indicators pair with high contrast colors so state is never
communicated by color alone:

	StatusIndicators.Success   - [OK]
	StatusIndicators.Error     - [X]
	StatusIndicators.Warning   - [!]
	StatusIndicators.Info      - [i]

# Usage Example

	import "github.com/jeranaias/ricky/internal/ui/styles"

	// Use adaptive colors
	headerStyle := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextPrimary)

	// Use theme for runtime detection
	theme := styles.NewTheme("auto")
	line := theme.StatusBar.Render("ready")

	// Render a status line for terminal output
	fmt.Println(styles.RenderStatus(ok, "backend reachable"))
*/
package styles
