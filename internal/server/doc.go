// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements a self-hostable LegalGuru chat gateway.
//
// The gateway accepts POST /v1/legal-chat with the conversation history and
// an assistant mode, injects the matching legal system prompt, forwards the
// request to an OpenAI-compatible upstream with streaming enabled, and
// relays the SSE response body back to the client unchanged. Upstream rate
// limiting (429) and payment exhaustion (402) are passed through with their
// status codes so clients can distinguish them.
package server
