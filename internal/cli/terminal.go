// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection utilities for ricky.
//
// Color handling:
// - Colors are automatically disabled for non-TTY output (piped, redirected)
// - Respects NO_COLOR environment variable (https://no-color.org/)
// - Supports FORCE_COLOR environment variable to override detection

package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	// DefaultTerminalWidth is assumed when the real width is unknown.
	DefaultTerminalWidth = 80
	// MinTerminalWidth is the narrowest width output is formatted for.
	MinTerminalWidth = 40
)

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IsStdinTTY reports whether stdin is a terminal.
func IsStdinTTY() bool {
	return IsTTY(os.Stdin)
}

// IsStdoutTTY reports whether stdout is a terminal.
func IsStdoutTTY() bool {
	return IsTTY(os.Stdout)
}

// IsStderrTTY reports whether stderr is a terminal.
func IsStderrTTY() bool {
	return IsTTY(os.Stderr)
}

// CanPrompt reports whether interactive input is possible: both stdin and
// stdout must be terminals.
func CanPrompt() bool {
	return IsStdinTTY() && IsStdoutTTY()
}

// GetTerminalWidth returns the current terminal width, clamped to
// MinTerminalWidth, or DefaultTerminalWidth when stdout is not a terminal.
func GetTerminalWidth() int {
	w, _ := GetTerminalSize()
	return w
}

// GetTerminalSize returns the terminal dimensions, falling back to 80x24.
func GetTerminalSize() (width, height int) {
	if !IsStdoutTTY() {
		return DefaultTerminalWidth, 24
	}
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return DefaultTerminalWidth, 24
	}
	if w < MinTerminalWidth {
		w = MinTerminalWidth
	}
	return w, h
}

// =============================================================================
// COLOR DETECTION
// =============================================================================

var (
	colorsOnce    sync.Once
	colorsEnabled bool
	colorsForced  *bool
)

// ColorsEnabled reports whether styled output should be produced.
// NO_COLOR wins over FORCE_COLOR, which wins over TTY detection.
func ColorsEnabled() bool {
	if colorsForced != nil {
		return *colorsForced
	}
	colorsOnce.Do(func() {
		if os.Getenv("NO_COLOR") != "" {
			colorsEnabled = false
			return
		}
		if os.Getenv("FORCE_COLOR") != "" {
			colorsEnabled = true
			return
		}
		colorsEnabled = IsStdoutTTY()
	})
	return colorsEnabled
}

// ForceColorsEnabled overrides color detection. Pass nil to restore
// automatic detection. Intended for tests.
func ForceColorsEnabled(enabled *bool) {
	colorsForced = enabled
}

// GetColorProfile returns the termenv profile to render with: plain ASCII
// when colors are disabled, otherwise whatever the terminal supports.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}
