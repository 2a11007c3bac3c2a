// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"log"

	"github.com/legalguru/legalguru-tui/internal/auth"
	"github.com/legalguru/legalguru-tui/internal/config"
	"github.com/legalguru/legalguru-tui/internal/gateway"
	"github.com/legalguru/legalguru-tui/internal/session"
	"github.com/legalguru/legalguru-tui/internal/storage"
)

// =============================================================================
// SESSION CONSTRUCTION
// =============================================================================

// BuildSession wires a chat session from configuration: the gateway client,
// the signed-in identity and, when enabled, the conversation store. The
// returned store may be nil; callers that get a non-nil store own closing it.
func BuildSession(cfg *config.Config) (*session.Session, *storage.Store, error) {
	client := gateway.NewClient(cfg.Gateway.APIKey).WithBaseURL(cfg.Gateway.URL)

	sess := session.New(client)
	sess.SwitchMode(gateway.ParseMode(cfg.Chat.DefaultMode))

	authSession := auth.NewSession()
	if identity, err := LoadIdentity(); err != nil {
		log.Printf("AUTH_WARNING | failed to load identity: %v", err)
	} else if identity != nil {
		authSession.SetIdentity(*identity)
	}

	var store *storage.Store
	if cfg.Storage.Enabled {
		path := cfg.Storage.DatabasePath
		if path == "" {
			defaultPath, err := storage.DefaultPath()
			if err != nil {
				return nil, nil, err
			}
			path = defaultPath
		}

		var err error
		store, err = storage.Open(path)
		if err != nil {
			return nil, nil, err
		}
		sess.WithStore(store, authSession)
	}

	return sess, store, nil
}

// OpenStore opens the conversation store from configuration, for commands
// that manage saved conversations without a live session.
func OpenStore(cfg *config.Config) (*storage.Store, error) {
	path := cfg.Storage.DatabasePath
	if path == "" {
		defaultPath, err := storage.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}
	return storage.Open(path)
}
