// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

// legalguru is an AI legal assistant for the terminal: a full-screen chat
// TUI, a plain REPL, saved-conversation management and an optional
// self-hosted chat gateway.
package main

import (
	"fmt"
	"os"

	"github.com/legalguru/legalguru-tui/internal/cli"
	"github.com/legalguru/legalguru-tui/internal/config"
	"github.com/legalguru/legalguru-tui/internal/ui/chat"
	"github.com/legalguru/legalguru-tui/internal/ui/styles"
)

func main() {
	command, args := cli.Parse()

	var err error
	switch command {
	case cli.CmdTUI:
		err = runTUI()
	case cli.CmdChat:
		err = withConfig(func(cfg *config.Config) error {
			return cli.HandleChat(cfg, args)
		})
	case cli.CmdServe:
		err = withConfig(func(cfg *config.Config) error {
			return cli.HandleServe(cfg, args)
		})
	case cli.CmdSessions:
		err = withConfig(func(cfg *config.Config) error {
			return cli.HandleSessions(cfg, args)
		})
	case cli.CmdLogin:
		err = cli.HandleLogin(args)
	case cli.CmdLogout:
		err = cli.HandleLogout()
	case cli.CmdWhoami:
		err = cli.HandleWhoami()
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, styles.RenderError(err.Error()))
		os.Exit(1)
	}
}

func withConfig(fn func(*config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return fn(cfg)
}

// runTUI starts the full-screen interface. Non-interactive terminals fall
// back to the REPL so piped input still works.
func runTUI() error {
	return withConfig(func(cfg *config.Config) error {
		if !cli.IsInteractive() {
			return cli.HandleChat(cfg, nil)
		}

		sess, store, err := cli.BuildSession(cfg)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		return chat.Run(sess, cfg.UI.Theme)
	})
}
