// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// headerHeight + input + status lines reserved around the viewport.
const chromeHeight = 7

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderer = newRenderer(m.theme, max(20, m.width-4))

		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(1, msg.Height-chromeHeight))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(1, msg.Height-chromeHeight)
		}
		m.textarea.SetWidth(msg.Width - 2)
		m.refreshTranscript()
		m.viewport.GotoBottom()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Send):
			if m.session.IsBusy() {
				return m, nil
			}
			text := m.textarea.Value()
			m.textarea.Reset()
			m.err = nil
			return m, tea.Batch(m.sendCmd(text), m.spinner.Tick)

		case key.Matches(msg, keys.NewChat):
			m.err = nil
			m.session.Reset()
			return m, nil

		case key.Matches(msg, keys.CycleMode):
			m.err = nil
			m.session.SwitchMode(nextMode(m.session.Mode()))
			return m, nil
		}

	case sessionChangedMsg:
		m.refreshTranscript()
		m.viewport.GotoBottom()

	case sendFinishedMsg:
		m.err = msg.err
		m.refreshTranscript()
		m.viewport.GotoBottom()

	case spinner.TickMsg:
		if m.session.IsBusy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// refreshTranscript re-renders the session messages into the viewport.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
}
