// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CONVERSATION LIST FORMATTING
// =============================================================================

// FormatConversationList renders conversation metadata as a plain text table
// for the sessions command.
func FormatConversationList(metas []ConversationMeta) string {
	if len(metas) == 0 {
		return "No conversations found."
	}

	var sb strings.Builder
	sb.WriteString("Conversations:\n")
	sb.WriteString("--------------------------------------------------------------------\n")
	sb.WriteString(pad("ID", 10) + " " + pad("Updated", 18) + " " + pad("Mode", 10) + " " + pad("Msgs", 5) + " Title\n")
	sb.WriteString("--------------------------------------------------------------------\n")

	for _, m := range metas {
		id := m.ID
		if len(id) > 8 {
			id = id[:8]
		}
		sb.WriteString(pad(id, 10) + " " +
			pad(m.UpdatedAt.Local().Format("2006-01-02 15:04"), 18) + " " +
			pad(m.Mode, 10) + " " +
			pad(strconv.Itoa(m.MessageCount), 5) + " " +
			truncate(m.Title, 40) + "\n")
	}
	return sb.String()
}

// =============================================================================
// MARKDOWN EXPORT
// =============================================================================

// ExportMarkdown renders a full conversation as Markdown, with the title,
// creation time and every message labeled by role.
func (s *Store) ExportMarkdown(ctx context.Context, conversationID string) (string, error) {
	conv, err := s.GetConversation(ctx, conversationID)
	if err != nil {
		return "", err
	}
	msgs, err := s.LoadMessages(ctx, conversationID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("# " + conv.Title + "\n\n")
	sb.WriteString("Mode: " + conv.Mode + "\n")
	sb.WriteString("Created: " + conv.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range msgs {
		role := "**User**"
		switch msg.Role {
		case "assistant":
			role = "**Assistant**"
		case "system":
			role = "**System**"
		}
		sb.WriteString(role + " (" + msg.CreatedAt.Local().Format("15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String(), nil
}

// =============================================================================
// HELPERS
// =============================================================================

// truncate cuts a string to maxLen runes, appending "..." when truncated.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// pad right-pads a string with spaces to the given rune width.
func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(runes))
}
