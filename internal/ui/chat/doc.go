// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive chat view of the LegalGuru TUI.
//
// The view is a Bubble Tea model: a viewport holding the rendered
// transcript, a textarea for input and a spinner shown while a reply is
// streaming. Session changes (deltas, finalized replies, resets) arrive as
// messages pushed from the session's change callback, so the transcript
// re-renders as tokens stream in. Assistant replies are rendered as
// Markdown via glamour.
package chat
