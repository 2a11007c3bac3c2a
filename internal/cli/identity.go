// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/legalguru/legalguru-tui/internal/auth"
	"github.com/legalguru/legalguru-tui/internal/config"
)

// =============================================================================
// STORED IDENTITY
// =============================================================================

// identityFile is the file holding the signed-in identity, relative to the
// config directory.
const identityFile = "identity.json"

func identityPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, identityFile), nil
}

// LoadIdentity reads the persisted identity. Returns nil when signed out.
func LoadIdentity() (*auth.Identity, error) {
	path, err := identityPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var id auth.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("failed to parse identity file: %w", err)
	}
	if id.UserID == "" {
		return nil, nil
	}
	return &id, nil
}

// SaveIdentity persists the identity with owner-only permissions.
func SaveIdentity(id auth.Identity) error {
	path, err := identityPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ClearIdentity signs out by removing the identity file.
func ClearIdentity() error {
	path, err := identityPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// =============================================================================
// COMMANDS
// =============================================================================

// HandleLogin implements: legalguru login --user ID [--email ADDR]
func HandleLogin(args []string) error {
	parser := NewArgParser(args)
	userID := parser.Flag("user")
	if userID == "" {
		return fmt.Errorf("login requires --user ID")
	}

	id := auth.Identity{UserID: userID, Email: parser.Flag("email")}
	if err := SaveIdentity(id); err != nil {
		return err
	}
	fmt.Printf("Signed in as %s. Conversations will be saved.\n", userID)
	return nil
}

// HandleLogout implements: legalguru logout
func HandleLogout() error {
	if err := ClearIdentity(); err != nil {
		return err
	}
	fmt.Println("Signed out. Conversations will no longer be saved.")
	return nil
}

// HandleWhoami implements: legalguru whoami
func HandleWhoami() error {
	id, err := LoadIdentity()
	if err != nil {
		return err
	}
	if id == nil {
		fmt.Println("Not signed in.")
		return nil
	}
	if id.Email != "" {
		fmt.Printf("%s <%s>\n", id.UserID, id.Email)
	} else {
		fmt.Println(id.UserID)
	}
	return nil
}
