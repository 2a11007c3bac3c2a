// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/legalguru/legalguru-tui/internal/config"
	"github.com/legalguru/legalguru-tui/internal/server"
)

// =============================================================================
// SERVE COMMAND
// =============================================================================

// shutdownTimeout bounds how long in-flight streams get to finish after a
// termination signal.
const shutdownTimeout = 10 * time.Second

// HandleServe runs the self-hosted chat gateway until SIGINT or SIGTERM.
func HandleServe(cfg *config.Config, args []string) error {
	parser := NewArgParser(args)

	port := cfg.Server.Port
	if p := parser.Flag("port"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid --port %q: %w", p, err)
		}
		port = n
	}

	upstreamKey := parser.FlagOrDefault("upstream-key", cfg.Server.UpstreamKey)
	if upstreamKey == "" {
		return fmt.Errorf("an upstream API key is required; set server.upstream_key, LEGALGURU_UPSTREAM_KEY or --upstream-key")
	}

	srv := server.NewServer(port, upstreamKey)
	if cfg.Server.UpstreamURL != "" {
		srv.WithUpstreamURL(cfg.Server.UpstreamURL)
	}
	if cfg.Server.Model != "" {
		srv.WithModel(cfg.Server.Model)
	}
	if cfg.Server.BearerToken != "" {
		srv.WithAuth(&server.AuthConfig{Enabled: true, BearerToken: cfg.Server.BearerToken})
	}

	// Config edits apply without a restart: model, upstream settings and
	// the inbound bearer token. Port changes still need one.
	if path, err := config.ConfigPath(); err == nil {
		watcher, err := config.Watch(path, func(next *config.Config) {
			srv.Reload(server.ReloadOptions{
				UpstreamURL: next.Server.UpstreamURL,
				UpstreamKey: next.Server.UpstreamKey,
				Model:       next.Server.Model,
				BearerToken: next.Server.BearerToken,
			})
		})
		if err != nil {
			log.Printf("CONFIG_WATCH_UNAVAILABLE | path=%s error=%v", path, err)
		} else {
			defer watcher.Close()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("SERVER_START | port=%d", srv.Port())
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("SERVER_SHUTDOWN | signal=%s", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
