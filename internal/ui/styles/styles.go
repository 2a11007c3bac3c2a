// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// PALETTE
// =============================================================================

// Indigo - Primary accent, brand color, assistant labels
var Indigo = lipgloss.AdaptiveColor{Light: "#4F46E5", Dark: "#818CF8"}

// Teal - User labels, highlights
var Teal = lipgloss.AdaptiveColor{Light: "#0D9488", Dark: "#2DD4BF"}

// Amber - Warnings, mode indicator
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Rose - Errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextMuted - Hints, timestamps, help lines
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// Overlay - Borders and separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// =============================================================================
// SHARED STYLES
// =============================================================================

// Header is the title bar across the top of the chat view.
var Header = lipgloss.NewStyle().
	Bold(true).
	Foreground(Indigo).
	BorderStyle(lipgloss.NormalBorder()).
	BorderBottom(true).
	BorderForeground(Overlay)

// ModeBadge renders the active assistant mode in the header.
var ModeBadge = lipgloss.NewStyle().
	Bold(true).
	Foreground(Amber)

// UserLabel prefixes user messages in the transcript.
var UserLabel = lipgloss.NewStyle().
	Bold(true).
	Foreground(Teal)

// AssistantLabel prefixes assistant messages in the transcript.
var AssistantLabel = lipgloss.NewStyle().
	Bold(true).
	Foreground(Indigo)

// ErrorText renders inline error notices.
var ErrorText = lipgloss.NewStyle().
	Bold(true).
	Foreground(Rose)

// HelpLine renders the key hints under the input.
var HelpLine = lipgloss.NewStyle().
	Foreground(TextMuted)

// InputBox frames the message input.
var InputBox = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(Overlay)

// RenderError renders an error message with a shape indicator so the state
// reads without color.
func RenderError(message string) string {
	return ErrorText.Render("[X] " + message)
}
