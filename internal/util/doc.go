// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions shared by the ricky CLI and TUI.
//
// This package contains common helper functions for width-aware string
// handling, terminal-safe text sanitization, and file operations.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - TruncateWidth: display-width truncation (CJK aware via go-runewidth)
//   - StringWidth: display width of a string in terminal columns
//
// Text Sanitization:
//   - SanitizeTerminal: strips control characters from streamed model output
//   - NormalizeInput: NFC-normalizes user input before it goes on the wire
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	// Truncate long strings safely for display
//	display := util.TruncateWidth(longText, 50)
//
//	// Strip escape sequences before rendering a streamed chunk
//	safe := util.SanitizeTerminal(chunk)
package util
