// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared helper functions used across CLI commands.

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/ricky/internal/backend"
	"github.com/jeranaias/ricky/internal/config"
	"github.com/jeranaias/ricky/internal/util"
)

// newBackendClient builds a backend client from the loaded configuration.
func newBackendClient(cfg *config.Config) *backend.Client {
	return backend.NewClientWithConfig(&backend.ClientConfig{
		BaseURL: cfg.Backend.Endpoint,
		Timeout: time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
	})
}

// formatDurationShort formats a duration compactly: 340ms, 2.4s, 1m12s.
func formatDurationShort(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

// outputJSON writes data to stdout as indented JSON.
func outputJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// truncateLine flattens newlines and cuts text to max runes for one-line
// display.
func truncateLine(text string, max int) string {
	return util.TruncateRunes(strings.ReplaceAll(text, "\n", " "), max)
}
