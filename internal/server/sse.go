// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the local HTTP API that bridges chat clients to Ollama.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// =============================================================================
// SERVER-SENT EVENTS
// =============================================================================

// SSEWriter emits server-sent events on an HTTP response. Each event is a
// single JSON payload on a "data:" line, flushed immediately so tokens reach
// the client as they arrive rather than when the response buffer fills.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter prepares w for an event stream and returns a writer for it.
// It fails when the underlying ResponseWriter cannot flush, which means the
// connection cannot stream at all.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	// Stops nginx and similar proxies from buffering the stream.
	header.Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// Send marshals v and writes it as one SSE data event, flushing afterwards.
func (s *SSEWriter) Send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
