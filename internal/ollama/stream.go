// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for the upstream Ollama API.
package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader handles line-by-line JSON parsing of streaming responses.
// Ollama streams NDJSON: one complete ChatResponse object per line, with
// the final line carrying done=true and the generation statistics. A line
// of the form {"error": "..."} reports a mid-stream failure.
type StreamReader struct {
	reader *bufio.Reader
	model  string
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Process reads the stream and calls the callback for each chunk.
// Blocks until the stream is complete or the context is cancelled.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			chunk, err := s.readChunk()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}

			if chunk != nil {
				callback(*chunk)
				if chunk.Done || chunk.Error != nil {
					return nil
				}
			}
		}
	}
}

// readChunk reads and parses a single line from the stream. A nil chunk
// with nil error means the line was blank or malformed and was skipped.
func (s *StreamReader) readChunk() (*StreamChunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) == 0 {
			return nil, io.EOF
		}
		// Try to process the last line even on EOF
		if len(line) == 0 {
			return nil, err
		}
	}

	if len(line) <= 1 {
		return nil, nil
	}

	var response struct {
		Model           string    `json:"model"`
		CreatedAt       time.Time `json:"created_at"`
		Message         Message   `json:"message"`
		Done            bool      `json:"done"`
		DoneReason      string    `json:"done_reason,omitempty"`
		Error           string    `json:"error,omitempty"`
		TotalDuration   int64     `json:"total_duration,omitempty"`
		PromptEvalCount int       `json:"prompt_eval_count,omitempty"`
		EvalCount       int       `json:"eval_count,omitempty"`
		EvalDuration    int64     `json:"eval_duration,omitempty"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		// Skip malformed lines
		return nil, nil
	}

	// An error line ends the stream
	if response.Error != "" {
		return &StreamChunk{
			Error: errors.New(response.Error),
			Model: s.model,
			Done:  true,
		}, nil
	}

	if response.Model != "" {
		s.model = response.Model
	}

	chunk := &StreamChunk{
		Content:    response.Message.Content,
		Done:       response.Done,
		DoneReason: response.DoneReason,
		Model:      s.model,
	}

	// On completion, extract statistics
	if response.Done {
		chunk.TotalDuration = time.Duration(response.TotalDuration)
		chunk.EvalDuration = time.Duration(response.EvalDuration)
		chunk.PromptTokens = response.PromptEvalCount
		chunk.CompletionTokens = response.EvalCount
	}

	return chunk, nil
}

// Model returns the model name observed on the stream.
func (s *StreamReader) Model() string {
	return s.model
}
