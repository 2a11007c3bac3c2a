// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/legalguru/legalguru-tui/internal/gateway"
	"github.com/legalguru/legalguru-tui/internal/session"
	"github.com/legalguru/legalguru-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// sessionChangedMsg is pushed from the session's change callback whenever
// the visible transcript changes.
type sessionChangedMsg struct{}

// sendFinishedMsg reports the outcome of one send.
type sendFinishedMsg struct{ err error }

// =============================================================================
// MODEL
// =============================================================================

// modeOrder is the cycle order for the mode-switch key.
var modeOrder = []gateway.Mode{
	gateway.ModeChat,
	gateway.ModeDocument,
	gateway.ModeResearch,
	gateway.ModeContract,
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	session *session.Session

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	theme  string
	width  int
	height int
	ready  bool

	// err is the last send failure, shown under the transcript until the
	// next successful action.
	err error
}

// NewModel creates the chat view bound to a session. Theme is the glamour
// style name: "dark", "light" or "auto".
func NewModel(sess *session.Session, theme string) *Model {
	ta := textarea.New()
	ta.Placeholder = "Ask a legal question..."
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.CharLimit = 0
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Indigo)

	return &Model{
		session:  sess,
		textarea: ta,
		spinner:  sp,
		theme:    theme,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// =============================================================================
// PROGRAM WIRING
// =============================================================================

// Run starts the chat TUI and blocks until the user quits.
func Run(sess *session.Session, theme string) error {
	m := NewModel(sess, theme)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Deltas arrive on the streaming goroutine; forward them into the
	// Bubble Tea loop as messages.
	sess.SetOnChange(func() {
		p.Send(sessionChangedMsg{})
	})
	defer sess.SetOnChange(nil)

	_, err := p.Run()
	return err
}

// sendCmd runs one send on its own goroutine; progress arrives via the
// change callback, the final outcome via sendFinishedMsg.
func (m *Model) sendCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return sendFinishedMsg{err: m.session.Send(context.Background(), text)}
	}
}

// nextMode returns the mode following current in the cycle order.
func nextMode(current gateway.Mode) gateway.Mode {
	for i, mode := range modeOrder {
		if mode == current {
			return modeOrder[(i+1)%len(modeOrder)]
		}
	}
	return gateway.ModeChat
}

// newRenderer builds the glamour renderer for the current width and theme.
func newRenderer(theme string, wrap int) *glamour.TermRenderer {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wrap)}
	switch theme {
	case "dark", "light":
		opts = append(opts, glamour.WithStandardStyle(theme))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		// Transcript falls back to plain text.
		return nil
	}
	return renderer
}

// modeLabel is the human-readable name shown in the header.
func modeLabel(mode gateway.Mode) string {
	switch mode {
	case gateway.ModeDocument:
		return "Document Analysis"
	case gateway.ModeResearch:
		return "Legal Research"
	case gateway.ModeContract:
		return "Contract Review"
	default:
		return "Legal Chat"
	}
}

// statusLine summarizes session state under the input box.
func (m *Model) statusLine() string {
	if m.session.IsBusy() {
		return m.spinner.View() + " thinking..."
	}
	if m.err != nil {
		return styles.RenderError(fmt.Sprintf("%v", m.err))
	}
	return styles.HelpLine.Render("enter send · ctrl+r new chat · ctrl+t switch mode · ctrl+c quit")
}
