// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/legalguru/legalguru-tui/internal/config"
	"github.com/legalguru/legalguru-tui/internal/storage"
)

// =============================================================================
// SESSIONS COMMAND
// =============================================================================

const sessionsUsage = `Usage:
  legalguru sessions list            List saved conversations
  legalguru sessions search QUERY    Search titles and message content
  legalguru sessions export ID       Print a conversation as markdown
  legalguru sessions delete ID       Delete a conversation
`

// HandleSessions implements the sessions subcommands. All of them require a
// signed-in identity since conversations are stored per user.
func HandleSessions(cfg *config.Config, args []string) error {
	identity, err := LoadIdentity()
	if err != nil {
		return err
	}
	if identity == nil {
		return fmt.Errorf("not signed in; run `legalguru login --user ID` first")
	}

	store, err := OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	parser := NewArgParser(args)

	switch parser.Subcommand() {
	case "", "list":
		metas, err := store.ListConversations(ctx, identity.UserID)
		if err != nil {
			return err
		}
		fmt.Println(storage.FormatConversationList(metas))
		return nil

	case "search":
		query := parser.Positional(1)
		if query == "" {
			return fmt.Errorf("search requires a query")
		}
		metas, err := store.SearchConversations(ctx, identity.UserID, query)
		if err != nil {
			return err
		}
		fmt.Println(storage.FormatConversationList(metas))
		return nil

	case "export":
		id := parser.Positional(1)
		if id == "" {
			return fmt.Errorf("export requires a conversation ID")
		}
		markdown, err := store.ExportMarkdown(ctx, id)
		if err != nil {
			return err
		}
		fmt.Print(markdown)
		return nil

	case "delete":
		id := parser.Positional(1)
		if id == "" {
			return fmt.Errorf("delete requires a conversation ID")
		}
		if err := store.DeleteConversation(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Deleted conversation %s.\n", id)
		return nil

	default:
		fmt.Print(sessionsUsage)
		return fmt.Errorf("unknown sessions subcommand: %s", parser.Subcommand())
	}
}
