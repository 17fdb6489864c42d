// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the ricky backend API.
package backend

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// segmentReader delivers its payload in fixed segments, one per Read call,
// to simulate network reads that split lines and multi-byte runes.
type segmentReader struct {
	segments [][]byte
	pos      int
}

func (r *segmentReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.segments) {
		return 0, io.EOF
	}
	n := copy(p, r.segments[r.pos])
	r.pos++
	return n, nil
}

func newQuietReader(s string) *StreamReader {
	sr := NewStreamReader(strings.NewReader(s))
	sr.SetLogger(log.New(io.Discard, "", 0))
	return sr
}

func collectEvents(t *testing.T, sr *StreamReader) []StreamEvent {
	t.Helper()

	var events []StreamEvent
	err := sr.Process(context.Background(), func(event StreamEvent) error {
		events = append(events, event)
		return nil
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	return events
}

// =============================================================================
// STREAM READER TESTS
// =============================================================================

func TestStreamReader_BasicChunks(t *testing.T) {
	stream := "data: {\"chunk\": \"Hel\", \"done\": false}\n\n" +
		"data: {\"chunk\": \"lo, \", \"done\": false}\n\n" +
		"data: {\"chunk\": \"world\", \"done\": false}\n\n" +
		"data: {\"chunk\": \"\", \"done\": true}\n\n"

	events := collectEvents(t, newQuietReader(stream))

	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}

	var content strings.Builder
	for _, ev := range events[:3] {
		content.WriteString(ev.Chunk)
	}

	if content.String() != "Hello, world" {
		t.Errorf("content = %q, want 'Hello, world'", content.String())
	}

	if !events[3].Done {
		t.Error("last event should be done")
	}
}

func TestStreamReader_SkipsNonEventLines(t *testing.T) {
	stream := "\n" +
		": keep-alive\n" +
		"data: {\"chunk\": \"A\", \"done\": false}\n" +
		"event: message\n" +
		"   \n" +
		"data: {\"chunk\": \"B\", \"done\": false}\n" +
		"data: {\"chunk\": \"\", \"done\": true}\n"

	events := collectEvents(t, newQuietReader(stream))

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	if events[0].Chunk != "A" || events[1].Chunk != "B" {
		t.Errorf("chunks = %q, %q, want A, B", events[0].Chunk, events[1].Chunk)
	}
}

func TestStreamReader_MalformedLineSkipped(t *testing.T) {
	stream := "data: {\"chunk\": \"before\", \"done\": false}\n" +
		"data: {not valid json\n" +
		"data: {\"chunk\": \"after\", \"done\": false}\n" +
		"data: {\"chunk\": \"\", \"done\": true}\n"

	events := collectEvents(t, newQuietReader(stream))

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3 (malformed line must be skipped)", len(events))
	}

	if events[0].Chunk != "before" || events[1].Chunk != "after" {
		t.Errorf("chunks = %q, %q, want before, after", events[0].Chunk, events[1].Chunk)
	}
}

func TestStreamReader_ErrorRecordStopsStream(t *testing.T) {
	stream := "data: {\"chunk\": \"partial\", \"done\": false}\n" +
		"data: {\"error\": \"Ollama is overloaded\", \"done\": true}\n" +
		"data: {\"chunk\": \"MUST NOT ARRIVE\", \"done\": false}\n"

	events := collectEvents(t, newQuietReader(stream))

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (nothing after the error record)", len(events))
	}

	if events[0].Chunk != "partial" {
		t.Errorf("first chunk = %q, want 'partial'", events[0].Chunk)
	}

	if events[1].Error != "Ollama is overloaded" {
		t.Errorf("error = %q, want 'Ollama is overloaded'", events[1].Error)
	}

	if !events[1].Terminal() {
		t.Error("error record should be terminal")
	}
}

func TestStreamReader_DoneRecordStopsStream(t *testing.T) {
	stream := "data: {\"chunk\": \"done text\", \"done\": false}\n" +
		"data: {\"chunk\": \"\", \"done\": true}\n" +
		"data: {\"chunk\": \"late\", \"done\": false}\n"

	events := collectEvents(t, newQuietReader(stream))

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (nothing after done)", len(events))
	}

	if !events[1].Done {
		t.Error("second event should be done")
	}
}

func TestStreamReader_SplitLines(t *testing.T) {
	// One event line split across three reads, plus a read boundary that
	// lands between two lines.
	segments := [][]byte{
		[]byte("data: {\"chunk\": \"Hel"),
		[]byte("lo, \", \"done\""),
		[]byte(": false}\n"),
		[]byte("data: {\"chunk\": \"world\", \"done\": false}\ndata: "),
		[]byte("{\"chunk\": \"\", \"done\": true}\n"),
	}

	sr := NewStreamReader(&segmentReader{segments: segments})
	sr.SetLogger(log.New(io.Discard, "", 0))
	events := collectEvents(t, sr)

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	if events[0].Chunk+events[1].Chunk != "Hello, world" {
		t.Errorf("content = %q, want 'Hello, world'", events[0].Chunk+events[1].Chunk)
	}
}

func TestStreamReader_SplitMultiByteRune(t *testing.T) {
	// The two-byte UTF-8 sequence for é (0xC3 0xA9) is split across reads.
	line := []byte("data: {\"chunk\": \"caf\xc3\xa9\", \"done\": false}\n")
	cut := 0
	for i, b := range line {
		if b == 0xc3 {
			cut = i + 1
			break
		}
	}

	segments := [][]byte{
		line[:cut],
		line[cut:],
		[]byte("data: {\"chunk\": \"\", \"done\": true}\n"),
	}

	sr := NewStreamReader(&segmentReader{segments: segments})
	events := collectEvents(t, sr)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	if events[0].Chunk != "café" {
		t.Errorf("chunk = %q, want 'café'", events[0].Chunk)
	}
}

func TestStreamReader_SilentCloseWithoutTerminal(t *testing.T) {
	stream := "data: {\"chunk\": \"cut \", \"done\": false}\n" +
		"data: {\"chunk\": \"off\", \"done\": false}\n"

	events := collectEvents(t, newQuietReader(stream))

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	for _, ev := range events {
		if ev.Terminal() {
			t.Error("no event should be terminal in a silently closed stream")
		}
	}
}

func TestStreamReader_UnterminatedTrailingLineDropped(t *testing.T) {
	stream := "data: {\"chunk\": \"whole\", \"done\": false}\n" +
		"data: {\"chunk\": \"torn"

	events := collectEvents(t, newQuietReader(stream))

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (unterminated line is not an event)", len(events))
	}

	if events[0].Chunk != "whole" {
		t.Errorf("chunk = %q, want 'whole'", events[0].Chunk)
	}
}

func TestStreamReader_CallbackStop(t *testing.T) {
	stream := "data: {\"chunk\": \"one\", \"done\": false}\n" +
		"data: {\"chunk\": \"two\", \"done\": false}\n"

	var got []string
	err := newQuietReader(stream).Process(context.Background(), func(event StreamEvent) error {
		got = append(got, event.Chunk)
		return ErrStopStream
	})

	if err != nil {
		t.Errorf("Process() error = %v, want nil for ErrStopStream", err)
	}

	if len(got) != 1 || got[0] != "one" {
		t.Errorf("delivered = %v, want [one]", got)
	}
}

func TestStreamReader_CallbackError(t *testing.T) {
	stream := "data: {\"chunk\": \"one\", \"done\": false}\n"
	wantErr := errors.New("handler failed")

	err := newQuietReader(stream).Process(context.Background(), func(StreamEvent) error {
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("Process() error = %v, want %v", err, wantErr)
	}
}

func TestStreamReader_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream := "data: {\"chunk\": \"never\", \"done\": false}\n"
	err := newQuietReader(stream).Process(ctx, func(StreamEvent) error {
		t.Error("callback should not run after cancellation")
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Process() error = %v, want context.Canceled", err)
	}
}

// =============================================================================
// STREAM EVENT TESTS
// =============================================================================

func TestStreamEvent_Terminal(t *testing.T) {
	tests := []struct {
		name  string
		event StreamEvent
		want  bool
	}{
		{"chunk only", StreamEvent{Chunk: "text"}, false},
		{"done", StreamEvent{Done: true}, true},
		{"error", StreamEvent{Error: "boom"}, true},
		{"error without done flag", StreamEvent{Error: "boom", Done: false}, true},
		{"empty", StreamEvent{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.event.Terminal(); got != tc.want {
				t.Errorf("Terminal() = %v, want %v", got, tc.want)
			}
		})
	}
}

// =============================================================================
// STREAM ACCUMULATOR TESTS
// =============================================================================

func TestStreamAccumulator_CollectsContent(t *testing.T) {
	acc := NewStreamAccumulator()

	for _, chunk := range []string{"Hel", "lo, ", "world"} {
		if acc.Add(StreamEvent{Chunk: chunk}) {
			t.Fatal("Add() reported done on a chunk event")
		}
	}

	if !acc.Add(StreamEvent{Done: true}) {
		t.Error("Add() should report done on a done record")
	}

	if acc.Content() != "Hello, world" {
		t.Errorf("Content() = %q, want 'Hello, world'", acc.Content())
	}

	if acc.Chunks() != 3 {
		t.Errorf("Chunks() = %d, want 3", acc.Chunks())
	}

	if acc.Err() != "" {
		t.Errorf("Err() = %q, want empty", acc.Err())
	}
}

func TestStreamAccumulator_ErrorTakesPriority(t *testing.T) {
	acc := NewStreamAccumulator()
	acc.Add(StreamEvent{Chunk: "partial"})

	// A record carrying both an error and a chunk is an error record.
	done := acc.Add(StreamEvent{Error: "overloaded", Chunk: "ignored", Done: false})

	if !done {
		t.Error("Add() should report done on an error record")
	}

	if acc.Err() != "overloaded" {
		t.Errorf("Err() = %q, want 'overloaded'", acc.Err())
	}

	if acc.Content() != "partial" {
		t.Errorf("Content() = %q, want 'partial' (error record chunk ignored)", acc.Content())
	}
}
