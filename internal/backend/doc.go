// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the ricky backend API.
//
// The backend speaks a small JSON-over-HTTP surface with one streaming
// endpoint. A chat request is POSTed once per user message; the reply arrives
// as a line-oriented event stream where each event line is
//
//	data: {"chunk": "...", "done": false}
//
// terminated by a record with "done": true, or by a record carrying an
// "error" string, or by the server closing the connection. StreamReader
// reassembles event lines across read boundaries and tolerates malformed or
// foreign lines without aborting the stream.
//
// # Key Types
//
//   - Client: typed access to the stream, complete, models, and status endpoints
//   - StreamReader: incremental decoder for the event stream
//   - StreamEvent: one decoded event record (chunk / done / error)
//   - ClientError: error taxonomy with sentinel values for errors.Is checks
//
// # Usage
//
//	client := backend.NewClient()
//	err := client.ChatStream(ctx, req, func(ev backend.StreamEvent) error {
//	    fmt.Print(ev.Chunk)
//	    return nil
//	})
package backend
