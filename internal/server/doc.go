// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the local HTTP API that bridges chat clients to Ollama.
//
// The server exposes a small versioned API on loopback:
//
//	POST /api/v1/chat/stream    generate a reply as server-sent events
//	POST /api/v1/chat/complete  generate a reply as one JSON response
//	GET  /api/v1/chat/models    list installed models and the default
//	GET  /api/v1/chat/status    readiness of the chat service
//	GET  /health                liveness, version, uptime, request counts
//	GET  /                      banner
//
// Streaming translates Ollama's NDJSON chat protocol into SSE: each data
// event is a JSON object with a "chunk" of generated text, and the stream
// ends with {"chunk": "", "done": true}. If generation fails after the
// response has started, the failure arrives as {"error": "...", "done": true}
// on the open stream since the 200 status line has already been sent. Errors
// detected before streaming begins use conventional status codes with a
// {"detail": "..."} body.
//
// Requests are validated before they reach Ollama: non-empty message, bounded
// lengths and history size, known roles, and temperature within [0, 1].
// Omitted model and temperature fall back to server defaults, which can be
// swapped at runtime via SetDefaults when configuration reloads.
//
// Key Types:
//   - Server: the API server; NewServer, Start, Shutdown
//   - Config: construction settings with zero-value defaults
//   - ChatRequest / ChatResponse: the chat wire format
//   - StreamEvent / StreamError: SSE payloads
//   - SSEWriter: low-level event emission
//   - IPRateLimiter: per-client token buckets
//
// Usage:
//
//	srv := server.NewServer(&server.Config{Port: 8000})
//	go func() {
//		if err := srv.Start(); err != nil {
//			log.Fatal(err)
//		}
//	}()
//	// ...
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	srv.Shutdown(ctx)
package server
