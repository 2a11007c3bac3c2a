// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/legalguru/legalguru-tui/internal/gateway"
	"github.com/legalguru/legalguru-tui/internal/ui/styles"
)

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Starting LegalGuru..."
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(styles.InputBox.Width(m.width - 2).Render(m.textarea.View()))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

// headerView renders the title bar with the active mode.
func (m *Model) headerView() string {
	title := "LegalGuru"
	badge := styles.ModeBadge.Render("[" + modeLabel(m.session.Mode()) + "]")

	line := title + "  " + badge
	// Truncate by display width so wide runes don't wrap the header.
	line = runewidth.Truncate(line, max(10, m.width), "…")
	return styles.Header.Width(m.width).Render(line)
}

// renderTranscript renders all session messages for the viewport.
func (m *Model) renderTranscript() string {
	var b strings.Builder
	for i, msg := range m.session.Messages() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
	}
	return b.String()
}

// renderMessage renders one message with a role label. Assistant content is
// Markdown-rendered when a renderer is available.
func (m *Model) renderMessage(msg gateway.ChatMessage) string {
	switch msg.Role {
	case gateway.RoleUser:
		return styles.UserLabel.Render("You") + "\n" + msg.Content + "\n"
	case gateway.RoleAssistant:
		content := msg.Content
		if m.renderer != nil && content != "" {
			if rendered, err := m.renderer.Render(content); err == nil {
				content = strings.TrimRight(rendered, "\n") + "\n"
			}
		}
		return styles.AssistantLabel.Render("LegalGuru") + "\n" + content
	default:
		return msg.Content + "\n"
	}
}
