// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the ricky backend API.
package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
)

// =============================================================================
// STREAM READER
// =============================================================================

// eventPrefix marks an event record line. The comparison is exact: the wire
// format is `data: <json>\n` and nothing else is an event.
var eventPrefix = []byte("data: ")

// ErrStopStream signals a deliberate early exit from a stream callback.
// Process treats it as a clean stop and returns nil.
var ErrStopStream = errors.New("stop stream")

// StreamCallback is called for each decoded event, in arrival order. A
// non-nil return stops the stream; ErrStopStream stops it without error.
type StreamCallback func(event StreamEvent) error

// StreamReader incrementally decodes the chat event stream.
//
// Lines are assembled byte-wise before any text handling, so multi-byte
// UTF-8 sequences and `data:` lines split across network reads are
// reassembled correctly. Blank lines, lines without the event prefix, and
// event lines whose JSON does not parse are skipped without ending the
// stream; the latter are logged.
type StreamReader struct {
	reader *bufio.Reader
	logger *log.Logger
}

// NewStreamReader creates a StreamReader for the response body.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
		logger: log.Default(),
	}
}

// SetLogger replaces the logger used for skipped-line reports.
func (sr *StreamReader) SetLogger(logger *log.Logger) {
	if logger != nil {
		sr.logger = logger
	}
}

// Next returns the next decoded event record.
//
// It returns io.EOF when the server closes the connection. A trailing
// fragment with no newline is not an event line and is discarded, matching
// the line-buffered framing of the wire format.
func (sr *StreamReader) Next() (*StreamEvent, error) {
	for {
		line, err := sr.reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				// An abrupt close is still a close.
				err = io.EOF
			}
			if errors.Is(err, io.EOF) && len(bytes.TrimSpace(line)) > 0 {
				sr.logger.Printf("STREAM_SKIP | unterminated trailing line dropped (%d bytes)", len(line))
			}
			return nil, err
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !bytes.HasPrefix(line, eventPrefix) {
			// Comment or keep-alive line; the format is forward-compatible.
			continue
		}

		payload := line[len(eventPrefix):]
		var event StreamEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			sr.logger.Printf("STREAM_SKIP | malformed event line: %s", previewLine(payload))
			continue
		}

		return &event, nil
	}
}

// Process reads events until the stream ends, delivering each to callback.
//
// The loop stops and returns nil after a terminal record (done or error), on
// server close, or when the callback returns ErrStopStream. A cancelled
// context is observed at the next event boundary and returned unchanged so
// callers can distinguish cancellation from failure.
func (sr *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		event, err := sr.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				// Body reads fail once the request context is cancelled;
				// report the cancellation, not the transport symptom.
				return ctx.Err()
			}
			return err
		}

		if cbErr := callback(*event); cbErr != nil {
			if errors.Is(cbErr, ErrStopStream) {
				return nil
			}
			return cbErr
		}

		if event.Terminal() {
			return nil
		}
	}
}

// previewLine truncates a malformed payload for logging.
func previewLine(b []byte) string {
	const max = 80
	s := string(b)
	if len(s) > max {
		s = s[:max] + "..."
	}
	return strings.ToValidUTF8(s, "�")
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// StreamAccumulator collects stream events into a full response. Useful for
// CLI paths that print chunks as they arrive but need the complete text
// afterward for rendering.
type StreamAccumulator struct {
	content  strings.Builder
	done     bool
	errorMsg string
	chunks   int
}

// NewStreamAccumulator creates an empty accumulator.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{}
}

// Add applies one event in wire priority order (error, then done, then
// chunk) and reports whether the stream is finished.
func (a *StreamAccumulator) Add(event StreamEvent) bool {
	switch {
	case event.Error != "":
		a.errorMsg = event.Error
		a.done = true
	case event.Done:
		a.done = true
	case event.Chunk != "":
		a.content.WriteString(event.Chunk)
		a.chunks++
	}
	return a.done
}

// Content returns the accumulated assistant text.
func (a *StreamAccumulator) Content() string {
	return a.content.String()
}

// Err returns the server-reported stream error, or empty.
func (a *StreamAccumulator) Err() string {
	return a.errorMsg
}

// Done reports whether a terminal record was seen.
func (a *StreamAccumulator) Done() bool {
	return a.done
}

// Chunks returns the number of chunk records applied.
func (a *StreamAccumulator) Chunks() int {
	return a.chunks
}
