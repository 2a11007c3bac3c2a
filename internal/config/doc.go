// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads, validates and persists LegalGuru TUI configuration.
//
// Configuration is stored as TOML at ~/.legalguru/config.toml. Values can
// be overridden with LEGALGURU_* environment variables, which take
// precedence over the file. Watch reloads the configuration when the file
// changes on disk.
package config
