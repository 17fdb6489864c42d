// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration management for ricky.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const watchTimeout = 5 * time.Second

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcher_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "[chat]\nmodel = \"first\"\n")

	changed := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { changed <- cfg },
		WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	writeConfig(t, path, "[chat]\nmodel = \"second\"\n")

	select {
	case cfg := <-changed:
		if cfg.Chat.Model != "second" {
			t.Errorf("reloaded model = %q, want second", cfg.Chat.Model)
		}
		// Untouched fields still fill from defaults on reload.
		if cfg.Serve.Port != 8000 {
			t.Errorf("reloaded port = %d, want default 8000", cfg.Serve.Port)
		}
	case <-time.After(watchTimeout):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatcher_SurvivesRenameReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "[ui]\ntheme = \"dark\"\n")

	changed := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { changed <- cfg },
		WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	// Write to a temp name and rename over the config file, the way
	// most editors and atomic writers save.
	tmp := filepath.Join(dir, "config.toml.tmp")
	writeConfig(t, tmp, "[ui]\ntheme = \"light\"\n")
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename: %v", err)
	}

	select {
	case cfg := <-changed:
		if cfg.UI.Theme != "light" {
			t.Errorf("reloaded theme = %q, want light", cfg.UI.Theme)
		}
	case <-time.After(watchTimeout):
		t.Fatal("timed out waiting for config reload after rename")
	}
}

func TestWatcher_MalformedFileReportsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "[chat]\nmodel = \"ok\"\n")

	changed := make(chan *Config, 4)
	errs := make(chan error, 4)
	w, err := NewWatcher(path, func(cfg *Config) { changed <- cfg },
		WithDebounce(50*time.Millisecond),
		WithErrorHandler(func(err error) { errs <- err }))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	writeConfig(t, path, "not valid toml = [")

	select {
	case err := <-errs:
		if err == nil {
			t.Error("error handler received nil")
		}
	case cfg := <-changed:
		t.Errorf("malformed file should not trigger onChange, got model %q", cfg.Chat.Model)
	case <-time.After(watchTimeout):
		t.Fatal("timed out waiting for reload error")
	}
}
