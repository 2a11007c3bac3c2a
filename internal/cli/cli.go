// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
)

// Version information (can be overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdServe
	CmdSessions
	CmdLogin
	CmdLogout
	CmdWhoami
	CmdConfig
	CmdVersion
	CmdHelp
)

const usageText = `legalguru - AI legal assistant for the terminal

Usage:
  legalguru                        Start the chat TUI (default)
  legalguru chat                   Plain-terminal chat REPL
  legalguru serve                  Run a self-hosted chat gateway
  legalguru sessions [subcommand]  Manage saved conversations
  legalguru login --user ID        Sign in (enables conversation saving)
  legalguru logout                 Sign out
  legalguru whoami                 Show the signed-in user
  legalguru config [show|path|init] Configuration
  legalguru version                Show version
  legalguru help                   Show this help

Chat modes (switch with ctrl+t in the TUI, /mode in the REPL):
  chat       General legal questions
  document   Document analysis
  research   Case law research
  contract   Contract review

Environment:
  LEGALGURU_GATEWAY_URL  Gateway base URL
  LEGALGURU_API_KEY      Gateway API key
  LEGALGURU_MODE         Default assistant mode
  LEGALGURU_DB_PATH      Conversation database path
`

// Parse inspects os.Args and returns the command plus its remaining args.
func Parse() (Command, []string) {
	args := os.Args[1:]
	if len(args) == 0 {
		return CmdTUI, nil
	}

	switch args[0] {
	case "chat":
		return CmdChat, args[1:]
	case "serve":
		return CmdServe, args[1:]
	case "sessions", "session":
		return CmdSessions, args[1:]
	case "login":
		return CmdLogin, args[1:]
	case "logout":
		return CmdLogout, args[1:]
	case "whoami":
		return CmdWhoami, args[1:]
	case "config":
		return CmdConfig, args[1:]
	case "version", "-v", "--version":
		return CmdVersion, args[1:]
	case "help", "-h", "--help":
		return CmdHelp, args[1:]
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n%s", args[0], usageText)
		os.Exit(2)
		return CmdHelp, nil
	}
}

// PrintUsage writes the top-level help text.
func PrintUsage() {
	fmt.Print(usageText)
}

// HandleVersion implements the version command.
func HandleVersion() {
	fmt.Printf("legalguru %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}
