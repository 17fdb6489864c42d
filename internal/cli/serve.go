// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Local API server command for ricky.
//
// Command: serve
// Aliases: server
//
// Examples:
//   ricky serve                   Serve on the configured address
//   ricky serve --port 9000       Override the port
//   ricky serve --host 0.0.0.0    Listen on all interfaces
//
// The server watches the config file and picks up chat.model and
// chat.temperature changes without a restart. Ctrl+C drains in-flight
// requests before exiting.

package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/ricky/internal/backend"
	"github.com/jeranaias/ricky/internal/config"
	"github.com/jeranaias/ricky/internal/server"
)

// shutdownGrace is how long in-flight requests get to finish on Ctrl+C.
// Generations can run long, so this is generous.
const shutdownGrace = 10 * time.Second

// HandleServeCommand runs the chat API server until interrupted.
func HandleServeCommand(args Args) error {
	cfg := config.Global()

	host := cfg.Serve.Host
	if args.Host != "" {
		host = args.Host
	}
	port := cfg.Serve.Port
	if args.Port != 0 {
		port = args.Port
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	srv := server.NewServer(&server.Config{
		Host:               host,
		Port:               port,
		OllamaURL:          cfg.Serve.OllamaURL,
		OllamaTimeout:      time.Duration(cfg.Serve.OllamaTimeoutSecs) * time.Second,
		DefaultModel:       cfg.Chat.Model,
		DefaultTemperature: cfg.Chat.Temperature,
		AllowedOrigins:     cfg.Serve.AllowedOrigins,
		RateLimitPerSecond: cfg.Serve.RateLimitPerSecond,
		RateBurst:          cfg.Serve.RateBurst,
		Logger:             logger,
	})

	watcher := watchConfigDefaults(srv, logger)
	if watcher != nil {
		defer watcher.Close()
	}

	if !args.Quiet {
		printServeBanner(srv.Addr(), cfg.Serve.OllamaURL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if !args.Quiet {
		fmt.Println()
		fmt.Println(dimStyle.Render("Shutting down..."))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	return nil
}

// watchConfigDefaults wires config hot reload into the running server.
// Watch failures are logged, not fatal: serving without reload beats not
// serving.
func watchConfigDefaults(srv *server.Server, logger *log.Logger) *config.Watcher {
	path, err := config.ConfigPathTOML()
	if err != nil {
		logger.Printf("CONFIG_WATCH_SKIP | err=%v", err)
		return nil
	}
	// The watcher follows the parent directory, which must exist.
	if err := config.EnsureConfigDir(); err != nil {
		logger.Printf("CONFIG_WATCH_SKIP | err=%v", err)
		return nil
	}

	watcher, err := config.NewWatcher(path, func(c *config.Config) {
		srv.SetDefaults(c.Chat.Model, c.Chat.Temperature)
		logger.Printf("CONFIG_RELOAD | model=%s temperature=%.2f", c.Chat.Model, c.Chat.Temperature)
	}, config.WithErrorHandler(func(err error) {
		logger.Printf("CONFIG_RELOAD_ERROR | err=%v", err)
	}))
	if err != nil {
		logger.Printf("CONFIG_WATCH_SKIP | err=%v", err)
		return nil
	}

	if err := watcher.Watch(); err != nil {
		logger.Printf("CONFIG_WATCH_SKIP | err=%v", err)
		watcher.Close()
		return nil
	}
	return watcher
}

func printServeBanner(addr, ollamaURL string) {
	fmt.Println()
	fmt.Println(titleStyle.Render("ricky server"))
	fmt.Printf("  %s http://%s\n", labelStyle.Render("Listening:"), addr)
	fmt.Printf("  %s %s\n", labelStyle.Render("Ollama:"), ollamaURL)
	fmt.Println()
	fmt.Println(dimStyle.Render("  POST " + backend.StreamPath))
	fmt.Println(dimStyle.Render("  POST " + backend.CompletePath))
	fmt.Println(dimStyle.Render("  GET  " + backend.ModelsPath))
	fmt.Println(dimStyle.Render("  GET  " + backend.StatusPath))
	fmt.Println(dimStyle.Render("  GET  " + backend.HealthPath))
	fmt.Println()
	fmt.Println(dimStyle.Render("Press Ctrl+C to stop."))
	fmt.Println()
}
