// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration management for ricky.
//
// Configuration lives in ~/.ricky/config.toml (JSON is also accepted).
// Values resolve in order: built-in defaults, then the config file, then
// RICKY_* environment variables. A sparse file is fine; missing fields
// keep their defaults.
//
// # Key Types
//
//   - Config: the root configuration with backend, chat, serve, and ui
//     sections
//   - ValidationError / ValidateErrors: per-field validation failures
//   - Watcher: fsnotify-based hot reload of the config file
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	temp, _ := cfg.Get("chat.temperature")
//	_ = cfg.Set("ui.theme", "light")
//	_ = cfg.Save()
//
// The package also keeps a process-wide config available via Global,
// reloadable with ReloadGlobal or a running Watcher.
package config
