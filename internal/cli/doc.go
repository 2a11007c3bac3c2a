// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements argument parsing and the command handlers for the
// legalguru binary: the plain-terminal chat REPL, conversation management,
// the self-hosted gateway server, identity and configuration commands. The
// full-screen TUI itself lives in internal/ui.
package cli
