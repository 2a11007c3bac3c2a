// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseHandler writes the given SSE lines one flush at a time, emulating a
// gateway that trickles deltas over the wire.
func sseHandler(t *testing.T, lines ...string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		for _, line := range lines {
			_, _ = w.Write([]byte(line))
			flusher.Flush()
		}
	}
}

func TestChatStream_DeliversDeltasInOrder(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		event("You"),
		": keep-alive\n",
		event(" may"),
		event(" have"),
		"data: [DONE]\n",
	))
	defer srv.Close()

	client := NewClient("test-key").WithBaseURL(srv.URL)

	var deltas []string
	err := client.ChatStream(context.Background(), []ChatMessage{NewUserMessage("hello")}, ModeChat, func(d string) {
		deltas = append(deltas, d)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"You", " may", " have"}, deltas)
}

func TestChatStream_SendsHistoryAndMode(t *testing.T) {
	var got ChatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/legal-chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("data: [DONE]\n"))
	}))
	defer srv.Close()

	client := NewClient("pk-test").WithBaseURL(srv.URL)
	history := []ChatMessage{
		NewUserMessage("first question"),
		NewAssistantMessage("first answer"),
		NewUserMessage("follow-up"),
	}
	err := client.ChatStream(context.Background(), history, ModeResearch, func(string) {})

	require.NoError(t, err)
	assert.Equal(t, "Bearer pk-test", auth)
	assert.Equal(t, history, got.Messages)
	assert.Equal(t, "research", got.Mode)
}

func TestChatStream_FlushesBodyWithoutDoneSentinel(t *testing.T) {
	// A gateway that closes the body without [DONE] still yields the full
	// reply, including an unterminated trailing line.
	srv := httptest.NewServer(sseHandler(t,
		event("partial"),
		`data: {"choices":[{"delta":{"content":" tail"}}]}`,
	))
	defer srv.Close()

	client := NewClient("").WithBaseURL(srv.URL)
	reply, err := client.ChatStreamAccumulate(context.Background(), []ChatMessage{NewUserMessage("q")}, ModeChat)

	require.NoError(t, err)
	assert.Equal(t, "partial tail", reply)
}

func TestChatStream_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		check    func(t *testing.T, err error)
	}{
		{
			name:   "429 maps to ErrRateLimited",
			status: http.StatusTooManyRequests,
			body:   `{"error":"Rate limit exceeded. Please try again later."}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrRateLimited)
			},
		},
		{
			name:   "402 maps to ErrPaymentRequired",
			status: http.StatusPaymentRequired,
			body:   `{"error":"Payment required."}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrPaymentRequired)
			},
		},
		{
			name:   "500 maps to GatewayError",
			status: http.StatusInternalServerError,
			body:   "upstream exploded",
			check: func(t *testing.T, err error) {
				var ge *GatewayError
				require.ErrorAs(t, err, &ge)
				assert.Equal(t, http.StatusInternalServerError, ge.Status)
				assert.Contains(t, ge.Message, "upstream exploded")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("k").WithBaseURL(srv.URL)
			err := client.ChatStream(context.Background(), []ChatMessage{NewUserMessage("q")}, ModeChat, func(d string) {
				t.Errorf("unexpected delta %q on error response", d)
			})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestChatStream_ContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient("").WithBaseURL(srv.URL)

	done := make(chan error, 1)
	go func() {
		done <- client.ChatStream(ctx, []ChatMessage{NewUserMessage("q")}, ModeChat, func(string) {})
	}()
	cancel()

	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeDocument, ParseMode("document"))
	assert.Equal(t, ModeContract, ParseMode(" Contract "))
	assert.Equal(t, ModeChat, ParseMode("summarize"))
	assert.Equal(t, ModeChat, ParseMode(""))
}
