// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions shared by the ricky CLI and TUI.
package util

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SECURITY: Streamed model output is written straight into a terminal cell
// grid. A model (or a compromised backend) that emits raw ESC/C1 bytes could
// move the cursor, retitle the window, or inject input. Everything except
// plain text, newlines, and tabs is stripped before rendering.

// terminalUnsafe matches control characters that must not reach the terminal.
// Newline and tab survive; carriage returns are dropped so CRLF streams
// collapse to the LF framing the renderer expects. Format runes (Cf) pass
// through untouched: emoji ZWJ sequences depend on them.
var terminalUnsafe = runes.Predicate(func(r rune) bool {
	if r == '\n' || r == '\t' {
		return false
	}
	return unicode.IsControl(r)
})

// SanitizeTerminal removes control characters from streamed model output.
// The input text is otherwise preserved verbatim, including whitespace runs.
func SanitizeTerminal(s string) string {
	out, _, err := transform.String(runes.Remove(terminalUnsafe), s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeInput NFC-normalizes user input before it is sent on the wire,
// so equivalent composed/decomposed sequences compare and render identically
// on the far side.
func NormalizeInput(s string) string {
	return norm.NFC.String(s)
}
