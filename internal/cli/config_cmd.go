// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/legalguru/legalguru-tui/internal/config"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

const configUsage = `Usage:
  legalguru config show    Print the effective configuration
  legalguru config path    Print the config file path
  legalguru config init    Write a default config file
`

// HandleConfig implements the config subcommands.
func HandleConfig(args []string) error {
	parser := NewArgParser(args)

	switch parser.Subcommand() {
	case "", "show":
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		// API keys stay out of terminal output.
		redacted := *cfg
		if redacted.Gateway.APIKey != "" {
			redacted.Gateway.APIKey = "********"
		}
		if redacted.Server.UpstreamKey != "" {
			redacted.Server.UpstreamKey = "********"
		}
		if redacted.Server.BearerToken != "" {
			redacted.Server.BearerToken = "********"
		}
		return toml.NewEncoder(os.Stdout).Encode(redacted)

	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	case "init":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
		if err := config.Save(config.Default()); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil

	default:
		fmt.Print(configUsage)
		return fmt.Errorf("unknown config subcommand: %s", parser.Subcommand())
	}
}
