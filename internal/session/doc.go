// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session manages one LegalGuru chat conversation.
//
// A Session owns the ordered message history, the busy flag and the
// assistant mode. Send issues exactly one streaming request and grows an
// in-progress assistant reply delta by delta; Reset and SwitchMode are safe
// to call mid-stream, in which case the abandoned stream's remaining deltas
// are discarded via a generation counter. Every user turn is answered: on
// any transport or gateway error an assistant apology message is appended
// instead of leaving the turn dangling.
//
// When a store and a signed-in identity are attached, user and assistant
// messages are persisted as they are finalized. Persistence failures are
// logged and never block the conversation.
package session
