// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command for ricky.
//
// The answer streams to stdout as it is generated. On a terminal the
// accumulated response is re-rendered as markdown once the stream ends;
// piped output stays raw so the command composes with other tools.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/ricky/internal/backend"
	"github.com/jeranaias/ricky/internal/config"
	"github.com/jeranaias/ricky/internal/util"
)

// MaxFileSize limits --file context to keep prompts reasonable (50KB).
const MaxFileSize = 50 * 1024

// markdownRenderer is the shared glamour renderer. A nil renderer means
// initialization failed and output falls back to plain text.
var markdownRenderer *glamour.TermRenderer

func init() {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err == nil {
		markdownRenderer = renderer
	}
}

// renderMarkdown renders text as terminal markdown, returning the input
// unchanged when rendering is unavailable or fails.
func renderMarkdown(text string) string {
	if markdownRenderer == nil {
		return text
	}
	out, err := markdownRenderer.Render(text)
	if err != nil {
		return text
	}
	return out
}

// displayResponse prints a complete response, markdown-formatted when asked.
// Model output is untrusted; control characters are stripped before it
// touches the terminal.
func displayResponse(text string, markdown bool) {
	text = util.SanitizeTerminal(text)
	if markdown {
		fmt.Print(renderMarkdown(text))
		return
	}
	fmt.Print(text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Println()
	}
}

// readFileForContext reads a file for inclusion in the prompt, framed so
// the model can tell file content from the question.
func readFileForContext(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot read file %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("file %s is too large (%d bytes, max %d)", path, info.Size(), MaxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read file %s: %w", path, err)
	}

	return fmt.Sprintf("--- File: %s ---\n%s\n--- End File ---", path, string(content)), nil
}

// =============================================================================
// HANDLE ASK
// =============================================================================

// HandleAskCommand sends a single question to the backend and prints the
// answer. Ctrl+C cancels the stream; partial output stays on screen.
func HandleAskCommand(args Args) error {
	if strings.TrimSpace(args.Query) == "" {
		return &UsageError{Msg: `ask requires a question, e.g. ricky ask "why is the sky blue"`}
	}

	cfg := config.Global()
	client := newBackendClient(cfg)

	query := args.Query
	if args.File != "" {
		fileContext, err := readFileForContext(args.File)
		if err != nil {
			return err
		}
		query = fileContext + "\n\n" + query
	}

	model := args.Model
	if model == "" {
		model = cfg.Chat.Model
	}

	req := backend.ChatRequest{
		Message:     query,
		Model:       model,
		Temperature: cfg.Chat.Temperature,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	useMarkdown := IsStdoutTTY() && cfg.UI.Markdown

	if args.NoStream {
		return askComplete(ctx, client, req, args, useMarkdown)
	}
	return askStream(ctx, client, req, args, useMarkdown)
}

// askStream streams the answer chunk by chunk. With markdown enabled the
// chunks are buffered and rendered once, because ANSI reflow cannot be
// applied to text that is already on screen.
func askStream(ctx context.Context, client *backend.Client, req backend.ChatRequest, args Args, useMarkdown bool) error {
	accumulator := backend.NewStreamAccumulator()
	start := time.Now()

	err := client.ChatStream(ctx, req, func(event backend.StreamEvent) error {
		if !useMarkdown && event.Chunk != "" {
			fmt.Print(util.SanitizeTerminal(event.Chunk))
		}
		accumulator.Add(event)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println()
			fmt.Fprintln(os.Stderr, dimStyle.Render("[Cancelled]"))
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

	printAskStats(args, req.Model, accumulator.Chunks(), time.Since(start))
	return nil
}

// askComplete waits for the whole response in one round trip.
func askComplete(ctx context.Context, client *backend.Client, req backend.ChatRequest, args Args, useMarkdown bool) error {
	start := time.Now()
	resp, err := client.Complete(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, dimStyle.Render("[Cancelled]"))
			return nil
		}
		return err
	}

	displayResponse(resp.Response, useMarkdown)

	if !args.Quiet && IsStderrTTY() {
		fmt.Fprintln(os.Stderr, dimStyle.Render(fmt.Sprintf(
			"[%s | %d tokens | %s]", resp.Model, resp.TotalTokens, formatDurationShort(time.Since(start)))))
	}
	return nil
}

// printAskStats writes a one-line summary to stderr so it never pollutes
// piped stdout.
func printAskStats(args Args, model string, chunks int, elapsed time.Duration) {
	if args.Quiet || !IsStderrTTY() {
		return
	}
	if model == "" {
		model = "default model"
	}
	fmt.Fprintln(os.Stderr, dimStyle.Render(fmt.Sprintf(
		"[%s | %d chunks | %s]", model, chunks, formatDurationShort(elapsed))))
}
