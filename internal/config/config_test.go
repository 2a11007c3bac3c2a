// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalguru/legalguru-tui/internal/gateway"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, gateway.DefaultGatewayURL, cfg.Gateway.URL)
	assert.Equal(t, "chat", cfg.Chat.DefaultMode)
	assert.True(t, cfg.Storage.Enabled)
	assert.Equal(t, 8787, cfg.Server.Port)
	assert.Equal(t, "auto", cfg.UI.Theme)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, gateway.DefaultGatewayURL, cfg.Gateway.URL)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Gateway.URL = "http://localhost:8787"
	cfg.Gateway.APIKey = "pk-test"
	cfg.Chat.DefaultMode = "research"
	cfg.UI.Theme = "dark"

	require.NoError(t, SaveToPath(cfg, path))

	// Key material lands with owner-only permissions.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8787", loaded.Gateway.URL)
	assert.Equal(t, "pk-test", loaded.Gateway.APIKey)
	assert.Equal(t, "research", loaded.Chat.DefaultMode)
	assert.Equal(t, "dark", loaded.UI.Theme)
}

func TestLoadFromPath_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("gateway = {{{"), 0600))

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("LEGALGURU_GATEWAY_URL", "http://env.example:9999")
	t.Setenv("LEGALGURU_API_KEY", "env-key")
	t.Setenv("LEGALGURU_MODE", "contract")
	t.Setenv("LEGALGURU_PORT", "9090")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "http://env.example:9999", cfg.Gateway.URL)
	assert.Equal(t, "env-key", cfg.Gateway.APIKey)
	assert.Equal(t, "contract", cfg.Chat.DefaultMode)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty gateway url", func(c *Config) { c.Gateway.URL = "" }},
		{"bad mode", func(c *Config) { c.Chat.DefaultMode = "summarize" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad theme", func(c *Config) { c.UI.Theme = "solarized" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveToPath(Default(), path))

	reloaded := make(chan *Config, 1)
	w, err := Watch(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	cfg := Default()
	cfg.Chat.DefaultMode = "document"
	require.NoError(t, SaveToPath(cfg, path))

	select {
	case got := <-reloaded:
		assert.Equal(t, "document", got.Chat.DefaultMode)
	case <-time.After(5 * time.Second):
		t.Fatal("config reload not observed")
	}
}
