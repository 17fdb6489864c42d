// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for the upstream Ollama API.
//
// This package is used only by the local API server, which bridges the
// client-facing SSE wire format to Ollama's NDJSON streaming. It covers
// the small slice of the Ollama API the server needs: health and version
// checks, the installed-model list, and chat in both streaming and
// non-streaming form.
//
// # Key Types
//
//   - Client: HTTP client with health, model, and chat operations
//   - StreamReader: line-by-line NDJSON parser for streaming responses
//   - StreamChunk: one decoded stream line, terminal when Done or Error
//   - ClientError: error taxonomy with ErrNotRunning, ErrTimeout, and
//     ErrModelNotFound sentinels
//
// # Usage
//
//	client := ollama.NewClient()
//
//	err := client.ChatStream(ctx, "llama3.2", messages, &ollama.Options{
//	    Temperature: 0.7,
//	}, func(chunk ollama.StreamChunk) {
//	    fmt.Print(chunk.Content)
//	})
//
// Streaming delivers chunks to the callback in arrival order; the final
// chunk carries token counts and timings. Cancelling the context stops
// the stream and surfaces context.Canceled.
package ollama
