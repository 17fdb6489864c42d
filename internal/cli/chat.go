// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat REPL for ricky.
//
// This is the plain-terminal fallback to the TUI: `ricky chat --plain`, or
// what chat degrades to when stdout is not a terminal. It reads lines with
// liner, streams replies straight to stdout, and keeps the conversation in
// memory so follow-up questions have context.
//
// Streaming happens on the caller's goroutine. Ctrl+C during generation
// cancels the in-flight request via the signal handler; at the prompt it is
// swallowed by liner and ends the session.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/ricky/internal/backend"
	"github.com/jeranaias/ricky/internal/config"
	"github.com/jeranaias/ricky/internal/util"
)

const (
	// historyFileName is the input history file under the config dir.
	historyFileName = "chat_history"

	// replHistoryLimit caps the conversation context sent with each
	// message. Matches the server's history cap.
	replHistoryLimit = 100

	// replProbeTimeout bounds the quick requests the REPL makes outside
	// of generation: health checks, model lookups.
	replProbeTimeout = 5 * time.Second
)

// =============================================================================
// INPUT
// =============================================================================

// ChatCLI wraps liner with persistent input history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI initializes line editing and loads prior input history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile := filepath.Join(os.TempDir(), historyFileName)
	if dir, err := config.ConfigDir(); err == nil {
		historyFile = filepath.Join(dir, historyFileName)
	}

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.loadHistory()
	return c
}

func (c *ChatCLI) loadHistory() {
	f, err := os.Open(c.historyFile)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.ReadHistory(f)
}

// ReadInput prompts for one line and records non-empty input in history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history to the config dir.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// REPL STATE
// =============================================================================

// chatREPL holds one interactive session: the conversation, the active
// model, and the cancel hook for the in-flight generation.
type chatREPL struct {
	cfg     *config.Config
	client  *backend.Client
	model   string
	history []backend.HistoryMessage

	// cancelMu guards cancelFunc, which the signal goroutine races with
	// the REPL loop for.
	cancelMu   sync.Mutex
	cancelFunc context.CancelFunc

	queries int
	chunks  int
	started time.Time
}

func (r *chatREPL) setCancel(fn context.CancelFunc) {
	r.cancelMu.Lock()
	r.cancelFunc = fn
	r.cancelMu.Unlock()
}

// takeCancel returns the active cancel func and clears it, so it fires at
// most once.
func (r *chatREPL) takeCancel() context.CancelFunc {
	r.cancelMu.Lock()
	fn := r.cancelFunc
	r.cancelFunc = nil
	r.cancelMu.Unlock()
	return fn
}

func (r *chatREPL) modelLabel() string {
	if r.model == "" {
		return "(backend default)"
	}
	return r.model
}

// =============================================================================
// HANDLE CHAT
// =============================================================================

// HandleChatCommand runs the line-mode chat REPL until the user quits.
func HandleChatCommand(args Args) error {
	cfg := config.Global()
	client := newBackendClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), replProbeTimeout)
	err := client.CheckRunning(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("%s", FormatError(err, cfg.Backend.Endpoint))
	}

	model := args.Model
	if model == "" {
		model = cfg.Chat.Model
	}
	if model == "" {
		// Adopt the backend's default so the prompt shows a real name.
		mctx, mcancel := context.WithTimeout(context.Background(), replProbeTimeout)
		if resp, merr := client.ListModels(mctx); merr == nil {
			model = resp.Default
		}
		mcancel()
	}

	repl := &chatREPL{
		cfg:     cfg,
		client:  client,
		model:   model,
		started: time.Now(),
	}

	if !args.Quiet {
		repl.printWelcome()
	}

	input := NewChatCLI()
	defer input.Close()

	// Ctrl+C during generation cancels the request instead of killing the
	// process. At the prompt liner owns the terminal and no signal fires.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if fn := repl.takeCancel(); fn != nil {
				fn()
				fmt.Fprintln(os.Stderr)
				fmt.Fprintln(os.Stderr, warningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		line, err := input.ReadInput(promptStyle.Render("ricky> "))
		if err != nil {
			// Ctrl+C (liner.ErrPromptAborted) or Ctrl+D (io.EOF).
			fmt.Println()
			repl.printExitSummary(args.Quiet)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			keepGoing, cmdErr := repl.handleSlashCommand(line)
			if cmdErr != nil {
				fmt.Fprintln(os.Stderr, errorStyle.Render("[Error] ")+cmdErr.Error())
			}
			if !keepGoing {
				repl.printExitSummary(args.Quiet)
				return nil
			}
			continue
		}

		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			repl.printExitSummary(args.Quiet)
			return nil
		}

		if err := repl.processMessage(line, args.Quiet); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("[Error] ")+FormatError(err, cfg.Backend.Endpoint))
		}
	}
}

// processMessage sends one message and streams the reply to stdout. The
// exchange joins the history only after the stream completes, so a failed
// or cancelled generation leaves the context untouched.
func (r *chatREPL) processMessage(text string, quiet bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	r.setCancel(cancel)
	defer func() {
		r.takeCancel()
		cancel()
	}()

	useMarkdown := IsStdoutTTY() && r.cfg.UI.Markdown

	req := backend.ChatRequest{
		Message:     text,
		History:     r.history,
		Model:       r.model,
		Temperature: r.cfg.Chat.Temperature,
	}

	fmt.Println()
	accumulator := backend.NewStreamAccumulator()
	start := time.Now()

	err := r.client.ChatStream(ctx, req, func(event backend.StreamEvent) error {
		if !useMarkdown && event.Chunk != "" {
			fmt.Print(util.SanitizeTerminal(event.Chunk))
		}
		accumulator.Add(event)
		return nil
	})
	if err != nil {
		if ctx.Err() == context.Canceled {
			// Partial output stays on screen; the turn is not recorded.
			fmt.Println()
			return nil
		}
		return err
	}
	if msg := accumulator.Err(); msg != "" {
		fmt.Println()
		return fmt.Errorf("generation failed: %s", msg)
	}

	if useMarkdown {
		displayResponse(accumulator.Content(), true)
	} else {
		fmt.Println()
	}
	fmt.Println()

	r.history = append(r.history,
		backend.HistoryMessage{Role: backend.RoleUser, Content: text},
		backend.HistoryMessage{Role: backend.RoleAssistant, Content: accumulator.Content()},
	)
	if len(r.history) > replHistoryLimit {
		r.history = r.history[len(r.history)-replHistoryLimit:]
	}
	r.queries++
	r.chunks += accumulator.Chunks()

	if !quiet && IsStderrTTY() {
		fmt.Fprintln(os.Stderr, dimStyle.Render(fmt.Sprintf(
			"[%d chunks | %s]", accumulator.Chunks(), formatDurationShort(time.Since(start)))))
	}
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand executes a /command. The first return value is false
// when the REPL should exit.
func (r *chatREPL) handleSlashCommand(input string) (bool, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true, nil
	}

	switch strings.ToLower(parts[0]) {
	case "/help", "/h", "/?":
		r.printHelp()
	case "/clear", "/c":
		r.history = nil
		fmt.Println(dimStyle.Render("[Conversation cleared]"))
	case "/model", "/m":
		if len(parts) < 2 {
			fmt.Printf("Current model: %s\n", valueStyle.Render(r.modelLabel()))
			return true, nil
		}
		return true, r.switchModel(parts[1])
	case "/models":
		return true, r.printModels()
	case "/status", "/s":
		return true, r.printStatus()
	case "/history":
		r.printHistory()
	case "/stop":
		if fn := r.takeCancel(); fn != nil {
			fn()
		} else {
			fmt.Println(dimStyle.Render("[Nothing is generating]"))
		}
	case "/quit", "/q", "/exit":
		return false, nil
	case "/":
		r.printHelp()
	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", parts[0])
	}

	return true, nil
}

// switchModel changes the active model. An unknown name warns instead of
// failing, because the catalog may be stale or the model qualified with a
// tag the backend does not list.
func (r *chatREPL) switchModel(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), replProbeTimeout)
	defer cancel()

	if resp, err := r.client.ListModels(ctx); err == nil {
		found := false
		for _, m := range resp.Models {
			if m.Name == name {
				found = true
				break
			}
		}
		if !found {
			fmt.Println(warningStyle.Render(fmt.Sprintf(
				"[Warning] Model '%s' is not in the backend catalog, using it anyway", name)))
		}
	}

	r.model = name
	fmt.Println(successStyle.Render("[OK]") + " Switched to model: " + name)
	return nil
}

func (r *chatREPL) printModels() error {
	ctx, cancel := context.WithTimeout(context.Background(), replProbeTimeout)
	defer cancel()

	resp, err := r.client.ListModels(ctx)
	if err != nil {
		return err
	}
	printModelTable(resp, r.model)
	return nil
}

func (r *chatREPL) printStatus() error {
	ctx, cancel := context.WithTimeout(context.Background(), replProbeTimeout)
	defer cancel()

	status, err := r.client.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(sectionStyle.Render("Status"))
	fmt.Printf("  %s %s\n", labelStyle.Render("Backend:"), renderBackendHealth(status))
	fmt.Printf("  %s %s\n", labelStyle.Render("Ollama:"), renderOllamaState(status.Ollama))
	fmt.Printf("  %s %s\n", labelStyle.Render("Model:"), valueStyle.Render(r.modelLabel()))
	fmt.Printf("  %s %s\n", labelStyle.Render("Endpoint:"), valueStyle.Render(r.cfg.Backend.Endpoint))
	fmt.Printf("  %s %d messages\n", labelStyle.Render("History:"), len(r.history))
	fmt.Println()
	return nil
}

// printHistory shows the conversation so far, one line per turn.
func (r *chatREPL) printHistory() {
	if len(r.history) == 0 {
		fmt.Println(dimStyle.Render("[No conversation yet]"))
		return
	}

	fmt.Println()
	for i, msg := range r.history {
		role := promptStyle.Render("You")
		if msg.Role == backend.RoleAssistant {
			role = successStyle.Render("AI ")
		}
		fmt.Printf("%2d. %s %s\n", i+1, role, truncateLine(msg.Content, 100))
	}
	fmt.Println()
}

// =============================================================================
// DISPLAY
// =============================================================================

func (r *chatREPL) printWelcome() {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("ricky - interactive chat"))
	fmt.Println(renderSeparator())
	fmt.Printf("%s %s\n", labelStyle.Render("Model:"), valueStyle.Render(r.modelLabel()))
	fmt.Printf("%s %s\n", labelStyle.Render("Backend:"), valueStyle.Render(r.cfg.Backend.Endpoint))
	fmt.Println()
	fmt.Println(dimStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

func (r *chatREPL) printHelp() {
	commands := []struct {
		cmd, desc string
	}{
		{"/help", "Show this help"},
		{"/models", "List models on the backend"},
		{"/model [name]", "Show or switch the active model"},
		{"/status", "Show backend and Ollama health"},
		{"/clear", "Clear the conversation"},
		{"/history", "Show the conversation so far"},
		{"/stop", "Stop the current generation"},
		{"/quit", "Exit chat"},
	}

	fmt.Println()
	for _, c := range commands {
		fmt.Printf("  %s %s\n", commandStyle.Render(fmt.Sprintf("%-15s", c.cmd)), c.desc)
	}
	fmt.Println()
}

func (r *chatREPL) printExitSummary(quiet bool) {
	if quiet || r.queries == 0 {
		fmt.Println(dimStyle.Render("Goodbye!"))
		return
	}

	fmt.Println()
	fmt.Println(sectionStyle.Render("Session summary"))
	fmt.Printf("  %s %d\n", labelStyle.Render("Messages:"), r.queries)
	fmt.Printf("  %s %d\n", labelStyle.Render("Chunks:"), r.chunks)
	fmt.Printf("  %s %s\n", labelStyle.Render("Duration:"), formatDurationShort(time.Since(r.started)))
	fmt.Println(dimStyle.Render("Goodbye!"))
}
