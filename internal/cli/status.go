// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Health command for ricky.
//
// Command: status
// Aliases: s
//
// Examples:
//   ricky status            Show backend and Ollama health
//   ricky status --json     Machine-readable health
//
// Exit code is non-zero when the backend is unreachable or unhealthy, so
// the command works as a scriptable probe.

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/ricky/internal/backend"
	"github.com/jeranaias/ricky/internal/config"
)

// statusReport is the --json shape, which carries the endpoint alongside
// the backend's own answer.
type statusReport struct {
	Endpoint  string `json:"endpoint"`
	Reachable bool   `json:"reachable"`
	Status    string `json:"status,omitempty"`
	Ollama    string `json:"ollama,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStatusCommand reports backend and Ollama health.
func HandleStatusCommand(args Args) error {
	cfg := config.Global()
	client := newBackendClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status, err := client.Status(ctx)
	if err != nil {
		if args.JSON {
			if jerr := outputJSON(statusReport{
				Endpoint: cfg.Backend.Endpoint,
				Error:    err.Error(),
			}); jerr != nil {
				return jerr
			}
			return err
		}

		fmt.Println()
		fmt.Println(titleStyle.Render("ricky status"))
		fmt.Printf("  %s %s\n", labelStyle.Render("Endpoint:"), valueStyle.Render(cfg.Backend.Endpoint))
		fmt.Printf("  %s %s\n", labelStyle.Render("Server:"), errorStyle.Render("unreachable"))
		fmt.Println()
		fmt.Println(dimStyle.Render("Start it with: ricky serve"))
		return err
	}

	if args.JSON {
		return outputJSON(statusReport{
			Endpoint:  cfg.Backend.Endpoint,
			Reachable: true,
			Status:    status.Status,
			Ollama:    status.Ollama,
			Message:   status.Message,
			Error:     status.Error,
		})
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("ricky status"))
	fmt.Printf("  %s %s\n", labelStyle.Render("Endpoint:"), valueStyle.Render(cfg.Backend.Endpoint))
	fmt.Printf("  %s %s\n", labelStyle.Render("Server:"), renderBackendHealth(status))
	fmt.Printf("  %s %s\n", labelStyle.Render("Ollama:"), renderOllamaState(status.Ollama))
	if status.Message != "" {
		fmt.Printf("  %s %s\n", labelStyle.Render("Message:"), dimStyle.Render(status.Message))
	}
	if status.Error != "" {
		fmt.Printf("  %s %s\n", labelStyle.Render("Detail:"), warningStyle.Render(status.Error))
	}
	fmt.Println()

	if !status.Healthy() {
		return fmt.Errorf("backend reports %s", status.Status)
	}
	return nil
}

func renderBackendHealth(status *backend.StatusResponse) string {
	if status.Healthy() {
		return successStyle.Render("healthy")
	}
	return errorStyle.Render(status.Status)
}

func renderOllamaState(state string) string {
	switch state {
	case "connected":
		return successStyle.Render("connected")
	case "":
		return dimStyle.Render("unknown")
	default:
		return errorStyle.Render(state)
	}
}
