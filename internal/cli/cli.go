// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing for ricky.
//
// The parser is deliberately hand-rolled: global flags are stripped first,
// the first remaining word selects the command, and each command parses its
// own tail. A bare word that is not a command is treated as a question so
// that `ricky why is the sky blue` just works.

package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Build information, set at link time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies which subcommand was requested.
type Command int

const (
	// CmdTUI launches the full-screen chat interface (the default).
	CmdTUI Command = iota
	// CmdChat launches chat explicitly; --plain selects the line-mode REPL.
	CmdChat
	// CmdAsk sends a single question and prints the answer.
	CmdAsk
	// CmdServe runs the local chat API server.
	CmdServe
	// CmdModels lists the models available on the backend.
	CmdModels
	// CmdStatus shows backend and Ollama health.
	CmdStatus
	// CmdConfig gets, sets, and lists configuration values.
	CmdConfig
	// CmdVersion prints version information.
	CmdVersion
	// CmdHelp prints usage.
	CmdHelp
)

// Args holds the parsed command line.
type Args struct {
	Command Command

	// Global flags
	Quiet   bool   // --quiet / -q: suppress non-essential output
	Verbose bool   // --verbose: log stream diagnostics to stderr
	JSON    bool   // --json: machine-readable output where supported
	Model   string // --model / -m: model override

	// ask
	Query    string // the question, positional words joined
	File     string // --file / -f: file to include as context
	NoStream bool   // --no-stream: wait for the complete response

	// chat
	Plain bool // --plain: line-mode REPL instead of the TUI

	// serve
	Host string // --host: bind address override
	Port int    // --port: bind port override

	// config
	Subcommand string // get, set, list, path
	ConfigKey  string
	ConfigVal  string

	// Raw holds unparsed trailing arguments for commands that take none.
	Raw []string
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `ricky %s - terminal chat for local language models

USAGE:
  ricky [command] [flags]

COMMANDS:
  (none)             Launch the chat TUI
  chat               Launch chat (--plain for a line-mode REPL)
  ask <question>     Ask one question and print the answer
  serve              Run the local chat API server
  models             List models available on the backend
  status             Show backend and Ollama health
  config             Get, set, and list configuration values
  version            Show version information
  help               Show this help

GLOBAL FLAGS:
  -q, --quiet        Suppress non-essential output
      --verbose      Log stream diagnostics to stderr
      --json         JSON output (models, status, config)
  -m, --model NAME   Model override for this invocation

ASK FLAGS:
  -f, --file PATH    Include a file as context
      --no-stream    Wait for the full response instead of streaming

SERVE FLAGS:
      --host HOST    Bind address (default 127.0.0.1)
      --port PORT    Bind port (default 8000)

CONFIG SUBCOMMANDS:
  config list                Show all settings
  config get <key>           Show one setting
  config set <key> <value>   Change a setting
  config path                Show the config file location

EXAMPLES:
  ricky                               Start chatting
  ricky ask "why is the sky blue"
  ricky ask -f main.go "review this"
  ricky chat --plain                  REPL without the full-screen TUI
  ricky serve --port 8000
  ricky config set chat.model llama3.2

Environment: RICKY_ENDPOINT, RICKY_MODEL, RICKY_THEME, NO_COLOR
Config file: ~/.ricky/config.toml
`

// PrintUsage writes the usage text to stdout.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion writes version information to stdout.
func PrintVersion() {
	fmt.Printf("ricky %s\n", Version)
	if GitCommit != "unknown" {
		fmt.Printf("  commit: %s\n", GitCommit)
	}
	if BuildDate != "unknown" {
		fmt.Printf("  built:  %s\n", BuildDate)
	}
}

// =============================================================================
// PARSING
// =============================================================================

// Parse reads os.Args and returns the parsed command line. It never fails:
// unknown flags fall through to CmdHelp and unknown words become a question.
func Parse() Args {
	return parseArgs(os.Args[1:])
}

func parseArgs(argv []string) Args {
	args := Args{Command: CmdTUI}

	remaining := parseGlobalFlags(argv, &args)
	if len(remaining) == 0 {
		return args
	}

	switch strings.ToLower(remaining[0]) {
	case "chat", "tui":
		args.Command = CmdChat
		parseChatArgs(remaining[1:], &args)
	case "ask", "a":
		args.Command = CmdAsk
		parseAskArgs(remaining[1:], &args)
	case "serve", "server":
		args.Command = CmdServe
		parseServeArgs(remaining[1:], &args)
	case "models", "m":
		args.Command = CmdModels
		args.Raw = remaining[1:]
	case "status", "s":
		args.Command = CmdStatus
		args.Raw = remaining[1:]
	case "config", "cfg":
		args.Command = CmdConfig
		parseConfigArgs(remaining[1:], &args)
	case "version", "-v", "--version":
		args.Command = CmdVersion
	case "help", "-h", "--help":
		args.Command = CmdHelp
	default:
		if strings.HasPrefix(remaining[0], "-") {
			// An unrecognized flag is a usage mistake, not a question.
			args.Command = CmdHelp
			return args
		}
		args.Command = CmdAsk
		args.Query = strings.Join(remaining, " ")
	}

	return args
}

// parseGlobalFlags strips flags that apply to every command and returns
// what is left, in order.
func parseGlobalFlags(argv []string, args *Args) []string {
	remaining := make([]string, 0, len(argv))

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--quiet" || arg == "-q":
			args.Quiet = true
		case arg == "--verbose":
			args.Verbose = true
		case arg == "--json":
			args.JSON = true
		case arg == "--model" || arg == "-m":
			if i+1 < len(argv) {
				i++
				args.Model = argv[i]
			}
		case strings.HasPrefix(arg, "--model="):
			args.Model = strings.TrimPrefix(arg, "--model=")
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining
}

// parseAskArgs parses the tail of an ask command. Positional words are
// joined into the query.
func parseAskArgs(argv []string, args *Args) {
	var words []string

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--file" || arg == "-f":
			if i+1 < len(argv) {
				i++
				args.File = argv[i]
			}
		case strings.HasPrefix(arg, "--file="):
			args.File = strings.TrimPrefix(arg, "--file=")
		case arg == "--no-stream":
			args.NoStream = true
		default:
			words = append(words, arg)
		}
	}

	args.Query = strings.Join(words, " ")
}

func parseChatArgs(argv []string, args *Args) {
	for _, arg := range argv {
		if arg == "--plain" || arg == "-p" {
			args.Plain = true
		}
	}
}

func parseServeArgs(argv []string, args *Args) {
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--host":
			if i+1 < len(argv) {
				i++
				args.Host = argv[i]
			}
		case strings.HasPrefix(arg, "--host="):
			args.Host = strings.TrimPrefix(arg, "--host=")
		case arg == "--port":
			if i+1 < len(argv) {
				i++
				args.Port = parsePort(argv[i])
			}
		case strings.HasPrefix(arg, "--port="):
			args.Port = parsePort(strings.TrimPrefix(arg, "--port="))
		}
	}
}

// parsePort returns 0 for anything unusable, which falls back to the
// configured port downstream.
func parsePort(s string) int {
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		return 0
	}
	return p
}

// parseConfigArgs parses the config subcommand and its key/value tail.
// A bare `ricky config` lists everything.
func parseConfigArgs(argv []string, args *Args) {
	if len(argv) == 0 {
		args.Subcommand = "list"
		return
	}

	args.Subcommand = strings.ToLower(argv[0])
	rest := argv[1:]
	if len(rest) > 0 {
		args.ConfigKey = rest[0]
	}
	if len(rest) > 1 {
		args.ConfigVal = strings.Join(rest[1:], " ")
	}
}
