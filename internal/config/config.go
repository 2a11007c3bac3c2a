// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/legalguru/legalguru-tui/internal/gateway"
)

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config is the root configuration.
type Config struct {
	Gateway GatewayConfig `toml:"gateway"`
	Chat    ChatConfig    `toml:"chat"`
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`
	UI      UIConfig      `toml:"ui"`
}

// GatewayConfig configures the remote chat gateway client.
type GatewayConfig struct {
	// URL is the gateway base URL.
	URL string `toml:"url"`

	// APIKey is sent as a bearer token. Empty disables auth.
	APIKey string `toml:"api_key"`
}

// ChatConfig configures conversation behavior.
type ChatConfig struct {
	// DefaultMode is the assistant mode new sessions start in.
	DefaultMode string `toml:"default_mode"`
}

// StorageConfig configures conversation persistence.
type StorageConfig struct {
	// Enabled toggles persistence entirely.
	Enabled bool `toml:"enabled"`

	// DatabasePath is the SQLite file. Empty uses the default under
	// ~/.legalguru.
	DatabasePath string `toml:"database_path"`
}

// ServerConfig configures the self-hosted gateway (serve command).
type ServerConfig struct {
	// Port is the listen port.
	Port int `toml:"port"`

	// UpstreamURL is the OpenAI-compatible endpoint to forward to.
	UpstreamURL string `toml:"upstream_url"`

	// UpstreamKey authenticates forwarded requests.
	UpstreamKey string `toml:"upstream_key"`

	// Model is the model requested upstream.
	Model string `toml:"model"`

	// BearerToken, when set, is required from inbound clients.
	BearerToken string `toml:"bearer_token"`
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	// Theme is the glamour markdown style: "dark", "light" or "auto".
	Theme string `toml:"theme"`

	// ShowTimestamps toggles per-message timestamps in the transcript.
	ShowTimestamps bool `toml:"show_timestamps"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			URL: gateway.DefaultGatewayURL,
		},
		Chat: ChatConfig{
			DefaultMode: string(gateway.ModeChat),
		},
		Storage: StorageConfig{
			Enabled: true,
		},
		Server: ServerConfig{
			Port: 8787,
		},
		UI: UIConfig{
			Theme: "auto",
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns ~/.legalguru.
func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".legalguru"), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config from the default path, fills defaults for missing
// values and applies environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the config from an explicit path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as TOML to the default path, creating the config
// directory if needed. The file is written 0600: it may hold API keys.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the config as TOML to an explicit path.
func SaveToPath(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies LEGALGURU_* environment variables on top of the
// loaded values.
func (c *Config) ApplyEnvOverrides() {
	if url := os.Getenv("LEGALGURU_GATEWAY_URL"); url != "" {
		c.Gateway.URL = url
	}
	if key := os.Getenv("LEGALGURU_API_KEY"); key != "" {
		c.Gateway.APIKey = key
	}
	if mode := os.Getenv("LEGALGURU_MODE"); mode != "" {
		c.Chat.DefaultMode = mode
	}
	if path := os.Getenv("LEGALGURU_DB_PATH"); path != "" {
		c.Storage.DatabasePath = path
	}
	if port := os.Getenv("LEGALGURU_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			c.Server.Port = n
		}
	}
	if key := os.Getenv("LEGALGURU_UPSTREAM_KEY"); key != "" {
		c.Server.UpstreamKey = key
	}
	if theme := os.Getenv("LEGALGURU_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for values that would break at runtime.
func (c *Config) Validate() error {
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway.url must not be empty")
	}
	if !gateway.Mode(c.Chat.DefaultMode).Valid() {
		return fmt.Errorf("chat.default_mode %q is not one of chat, document, research, contract", c.Chat.DefaultMode)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return fmt.Errorf("ui.theme %q is not one of dark, light, auto", c.UI.Theme)
	}
	return nil
}
