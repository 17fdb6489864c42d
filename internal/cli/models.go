// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// models.go - Model listing command for ricky.
//
// Command: models
// Aliases: m
//
// Examples:
//   ricky models            List models in a table
//   ricky models --json     Machine-readable catalog

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/ricky/internal/backend"
	"github.com/jeranaias/ricky/internal/config"
	"github.com/jeranaias/ricky/internal/util"
)

// HandleModelsCommand lists the models the backend can serve.
func HandleModelsCommand(args Args) error {
	cfg := config.Global()
	client := newBackendClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := client.ListModels(ctx)
	if err != nil {
		return err
	}

	if args.JSON {
		return outputJSON(resp)
	}

	printModelTable(resp, cfg.Chat.Model)
	return nil
}

// printModelTable renders the catalog. The backend default is starred; the
// caller's current selection is marked when it differs.
func printModelTable(resp *backend.ModelsResponse, current string) {
	if len(resp.Models) == 0 {
		fmt.Println(dimStyle.Render("No models installed. Pull one with: ollama pull llama3.2"))
		return
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("Available models"))
	fmt.Println(dimStyle.Render(fmt.Sprintf("  %-28s %-10s %-10s %s", "NAME", "PROVIDER", "STATUS", "CAPABILITIES")))

	for _, m := range resp.Models {
		marker := " "
		switch m.Name {
		case resp.Default:
			marker = "*"
		case current:
			marker = ">"
		}

		name := m.Name
		if len(name) > 28 {
			name = name[:25] + "..."
		}

		fmt.Printf("%s %-28s %-10s %-10s %s\n",
			marker, name, m.Provider, renderModelStatus(m.Status), modelCapabilities(m))
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("  * backend default    > configured in chat.model"))
}

func renderModelStatus(status string) string {
	// Pad before styling: ANSI escapes break column alignment.
	padded := util.PadRight(status, 10)
	switch status {
	case "available":
		return successStyle.Render(padded)
	case "", "unknown":
		return dimStyle.Render(padded)
	default:
		return warningStyle.Render(padded)
	}
}

func modelCapabilities(m backend.Model) string {
	var caps []string
	if m.SupportsStreaming {
		caps = append(caps, "stream")
	}
	if m.SupportsTools {
		caps = append(caps, "tools")
	}
	if len(caps) == 0 {
		return "-"
	}
	return strings.Join(caps, ",")
}
