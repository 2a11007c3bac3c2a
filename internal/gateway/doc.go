// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway implements the HTTP client for the LegalGuru chat gateway.
//
// The gateway exposes a single streaming chat-completions style endpoint:
// the client POSTs the full ordered message history plus an assistant mode,
// and the gateway answers with a text/event-stream body of incremental
// content deltas. This package contains both the client and the SSE stream
// decoder that turns raw body chunks into delta strings.
//
// Rate-limit (429) and payment-required (402) responses are surfaced as
// distinct sentinel errors so callers can show different guidance for each.
package gateway
