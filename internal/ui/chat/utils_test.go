// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
	"time"
)

func TestFormatTimestamp(t *testing.T) {
	now := time.Now()
	threeDaysAgo := now.AddDate(0, 0, -3)
	twoMonthsAgo := now.AddDate(0, -2, 0)

	tests := []struct {
		name string
		ts   time.Time
		want string
	}{
		{"today shows time only", now, now.Format("15:04")},
		{"this week shows weekday", threeDaysAgo, threeDaysAgo.Format("Mon 15:04")},
		{"older shows date", twoMonthsAgo, twoMonthsAgo.Format("Jan 2 15:04")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTimestamp(tt.ts); got != tt.want {
				t.Errorf("formatTimestamp() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"negative clamps to zero", -5 * time.Millisecond, "0ms"},
		{"zero", 0, "0ms"},
		{"sub-second", 850 * time.Millisecond, "850ms"},
		{"just under a second", 999 * time.Millisecond, "999ms"},
		{"one second", time.Second, "1.0s"},
		{"seconds with fraction", 2300 * time.Millisecond, "2.3s"},
		{"minutes stay in seconds", 90 * time.Second, "90.0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatDuration(tt.d); got != tt.want {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth int
		want     string
	}{
		{
			name:     "short line unchanged",
			text:     "hello",
			maxWidth: 10,
			want:     "hello",
		},
		{
			name:     "zero width unchanged",
			text:     "hello world",
			maxWidth: 0,
			want:     "hello world",
		},
		{
			name:     "negative width unchanged",
			text:     "hello world",
			maxWidth: -1,
			want:     "hello world",
		},
		{
			name:     "empty string",
			text:     "",
			maxWidth: 10,
			want:     "",
		},
		{
			name:     "breaks at last space",
			text:     "hello world foo",
			maxWidth: 11,
			want:     "hello world\nfoo",
		},
		{
			name:     "hard break without spaces",
			text:     "abcdefghij",
			maxWidth: 4,
			want:     "abcd\nefgh\nij",
		},
		{
			name:     "preserves existing newlines",
			text:     "one\ntwo",
			maxWidth: 10,
			want:     "one\ntwo",
		},
		{
			name:     "continuation spaces trimmed",
			text:     "ab cd",
			maxWidth: 2,
			want:     "ab\ncd",
		},
		{
			name:     "multibyte runes counted as one",
			text:     "héllo wörld",
			maxWidth: 6,
			want:     "héllo\nwörld",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapText(tt.text, tt.maxWidth); got != tt.want {
				t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.maxWidth, got, tt.want)
			}
		})
	}
}
