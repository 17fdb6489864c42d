// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for ricky.
//
// This package implements every command surface except the TUI itself:
// argument parsing, the plain-terminal chat REPL, the one-shot ask command,
// the local API server runner, and the models/status/config utilities.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - ChatCLI: Line-editing input reader with persistent history for the REPL
//
// # Usage
//
// Parse and dispatch commands:
//
//	args := cli.Parse()
//	switch args.Command {
//	case cli.CmdAsk:
//	    return cli.HandleAskCommand(args)
//	case cli.CmdChat:
//	    return cli.HandleChatCommand(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - (none) / chat: Interactive chat, full-screen TUI or --plain REPL
//   - ask: Single question, streamed to stdout
//   - serve: Run the local chat API server
//   - models: List models available on the backend
//   - status: Backend and Ollama health
//   - config: Get, set, and list configuration values
//   - version, help
//
// Output respects NO_COLOR and FORCE_COLOR, and drops styling automatically
// when stdout is not a terminal.
package cli
