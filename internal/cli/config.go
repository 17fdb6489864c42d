// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration command for ricky.
//
// Command: config
// Aliases: cfg
//
// Examples:
//   ricky config                          List all settings
//   ricky config get chat.model           Show one setting
//   ricky config set chat.model llama3.2  Change a setting
//   ricky config set ui.theme light
//   ricky config path                     Show the config file location
//
// get and list report the effective configuration, including environment
// overrides. set edits the file on disk, so an env override can make the
// two disagree; that is visible rather than hidden.

package cli

import (
	"fmt"

	"github.com/jeranaias/ricky/internal/config"
)

// HandleConfigCommand dispatches the config subcommands.
func HandleConfigCommand(args Args) error {
	switch args.Subcommand {
	case "list", "ls":
		return handleConfigList(args)
	case "get":
		return handleConfigGet(args)
	case "set":
		return handleConfigSet(args)
	case "path":
		return handleConfigPath()
	default:
		return &UsageError{Msg: fmt.Sprintf(
			"unknown config subcommand: %s (use get, set, list, or path)", args.Subcommand)}
	}
}

func handleConfigList(args Args) error {
	cfg := config.Global()

	if args.JSON {
		return outputJSON(cfg)
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("ricky configuration"))
	for _, key := range cfg.GetAllKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Printf("  %s %v\n", dimStyle.Render(fmt.Sprintf("%-28s", key)), value)
	}
	fmt.Println()
	return nil
}

func handleConfigGet(args Args) error {
	if args.ConfigKey == "" {
		return &UsageError{Msg: "config get requires a key, e.g. ricky config get chat.model"}
	}

	value, err := config.Global().Get(args.ConfigKey)
	if err != nil {
		return err
	}

	if args.JSON {
		return outputJSON(map[string]interface{}{args.ConfigKey: value})
	}
	fmt.Printf("%v\n", value)
	return nil
}

func handleConfigSet(args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return &UsageError{Msg: "config set requires a key and a value, e.g. ricky config set chat.model llama3.2"}
	}

	// Edit what is on disk, not the env-overridden view, so a transient
	// RICKY_* variable never gets baked into the file.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Printf("%s %s = %s\n", successStyle.Render("[OK]"), args.ConfigKey, args.ConfigVal)
	return nil
}

func handleConfigPath() error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
