// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// =============================================================================
// STREAMING CHAT
// =============================================================================

// DeltaCallback receives one incremental content fragment of the assistant
// reply. It is called from the goroutine driving the stream, in order.
type DeltaCallback func(delta string)

// readBufferSize is the size of the chunk reads off the response body.
const readBufferSize = 4 * 1024

// ChatStream sends the full ordered message history plus the assistant mode
// to the gateway and streams the reply, invoking onDelta for every content
// fragment. It returns once the stream reports [DONE] or the body ends.
//
// Exactly one request is issued; there is no retry, backoff or reconnect.
// A 429 response returns ErrRateLimited, a 402 returns ErrPaymentRequired,
// any other non-200 returns a *GatewayError.
func (c *Client) ChatStream(ctx context.Context, messages []ChatMessage, mode Mode, onDelta DeltaCallback) error {
	url := c.baseURL + "/v1/legal-chat"

	body, err := json.Marshal(ChatRequest{Messages: messages, Mode: string(mode)})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return statusError(resp.StatusCode, errBody)
	}

	return processStream(ctx, resp.Body, onDelta)
}

// processStream drains the response body through a StreamDecoder, emitting
// deltas until the [DONE] sentinel or end of body.
func processStream(ctx context.Context, body io.Reader, onDelta DeltaCallback) error {
	decoder := NewStreamDecoder()
	buf := make([]byte, readBufferSize)

	for !decoder.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			for _, delta := range decoder.Feed(buf[:n]) {
				onDelta(delta)
			}
		}
		if err != nil {
			if err == io.EOF {
				for _, delta := range decoder.Flush() {
					onDelta(delta)
				}
				return nil
			}
			return fmt.Errorf("stream read failed: %w", err)
		}
	}
	return nil
}

// ChatStreamAccumulate streams a chat reply and returns it as one string.
// Useful for the plain CLI path where progress rendering is handled by the
// callback and the caller still wants the final text.
func (c *Client) ChatStreamAccumulate(ctx context.Context, messages []ChatMessage, mode Mode) (string, error) {
	var sb strings.Builder
	err := c.ChatStream(ctx, messages, mode, func(delta string) {
		sb.WriteString(delta)
	})
	return sb.String(), err
}
