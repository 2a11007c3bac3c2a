// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalguru/legalguru-tui/internal/gateway"
)

// newTestServer wires a gateway in front of a fake upstream handler and
// returns the gateway's httptest server.
func newTestServer(t *testing.T, upstream http.HandlerFunc) (*httptest.Server, *[]upstreamRequest) {
	t.Helper()

	var captured []upstreamRequest
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req upstreamRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		captured = append(captured, req)
		upstream(w, r)
	}))
	t.Cleanup(up.Close)

	srv := NewServer(0, "upstream-key").WithUpstreamURL(up.URL)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, &captured
}

func postChat(t *testing.T, url string, req gateway.ChatRequest) *http.Response {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(url+"/v1/legal-chat", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestLegalChat_RelaysStream(t *testing.T) {
	ts, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(`data: {"choices":[{"delta":{"content":"Hello"}}]}` + "\n"))
		_, _ = w.Write([]byte("data: [DONE]\n"))
	})

	resp := postChat(t, ts.URL, gateway.ChatRequest{
		Messages: []gateway.ChatMessage{gateway.NewUserMessage("hi")},
		Mode:     "chat",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"content":"Hello"`)
	assert.Contains(t, string(body), "data: [DONE]")
}

func TestLegalChat_InjectsModePrompt(t *testing.T) {
	tests := []struct {
		mode     string
		fragment string
	}{
		{"chat", "expert legal AI assistant"},
		{"document", "legal document analyzer"},
		{"research", "legal research assistant"},
		{"contract", "contract review specialist"},
		// Unknown mode falls back to chat.
		{"summarize", "expert legal AI assistant"},
		{"", "expert legal AI assistant"},
	}

	for _, tt := range tests {
		t.Run("mode "+tt.mode, func(t *testing.T) {
			ts, captured := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("data: [DONE]\n"))
			})

			resp := postChat(t, ts.URL, gateway.ChatRequest{
				Messages: []gateway.ChatMessage{
					gateway.NewUserMessage("first"),
					gateway.NewAssistantMessage("reply"),
					gateway.NewUserMessage("second"),
				},
				Mode: tt.mode,
			})
			require.Equal(t, http.StatusOK, resp.StatusCode)

			require.Len(t, *captured, 1)
			up := (*captured)[0]
			assert.Equal(t, DefaultModel, up.Model)
			assert.True(t, up.Stream)

			// System prompt is prepended; history follows untouched.
			require.Len(t, up.Messages, 4)
			assert.Equal(t, gateway.RoleSystem, up.Messages[0].Role)
			assert.Contains(t, up.Messages[0].Content, tt.fragment)
			assert.Equal(t, "first", up.Messages[1].Content)
			assert.Equal(t, "second", up.Messages[3].Content)
		})
	}
}

func TestLegalChat_RelaysRateLimitAndPayment(t *testing.T) {
	tests := []struct {
		name           string
		upstreamStatus int
		wantStatus     int
		wantError      string
	}{
		{"rate limited", http.StatusTooManyRequests, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."},
		{"payment required", http.StatusPaymentRequired, http.StatusPaymentRequired, "Payment required. Please add credits to your workspace."},
		{"upstream failure", http.StatusBadGateway, http.StatusInternalServerError, "AI service error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.upstreamStatus)
			})

			resp := postChat(t, ts.URL, gateway.ChatRequest{
				Messages: []gateway.ChatMessage{gateway.NewUserMessage("hi")},
				Mode:     "chat",
			})
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantError, body.Error)
		})
	}
}

func TestLegalChat_Validation(t *testing.T) {
	ts, captured := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data: [DONE]\n"))
	})

	t.Run("empty messages", func(t *testing.T) {
		resp := postChat(t, ts.URL, gateway.ChatRequest{Mode: "chat"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid role", func(t *testing.T) {
		resp := postChat(t, ts.URL, gateway.ChatRequest{
			Messages: []gateway.ChatMessage{{Role: "tool", Content: "x"}},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/v1/legal-chat", "application/json", strings.NewReader("{not json"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	assert.Empty(t, *captured, "invalid requests must not reach upstream")
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, DefaultModel, health.Model)
}

func TestReload_AppliesModelAndBearerToken(t *testing.T) {
	var captured []upstreamRequest
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req upstreamRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		captured = append(captured, req)
		_, _ = w.Write([]byte("data: [DONE]\n"))
	}))
	t.Cleanup(up.Close)

	srv := NewServer(0, "upstream-key").WithUpstreamURL(up.URL)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp := postChat(t, ts.URL, gateway.ChatRequest{
		Messages: []gateway.ChatMessage{gateway.NewUserMessage("hi")},
		Mode:     "chat",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, captured, 1)
	assert.Equal(t, DefaultModel, captured[0].Model)

	srv.Reload(ReloadOptions{Model: "google/gemini-2.5-pro", BearerToken: "secret"})

	// Unauthenticated requests are rejected after the reload.
	resp = postChat(t, ts.URL, gateway.ChatRequest{
		Messages: []gateway.ChatMessage{gateway.NewUserMessage("hi")},
		Mode:     "chat",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Len(t, captured, 1)

	// Authenticated requests go through and carry the new model.
	body, err := json.Marshal(gateway.ChatRequest{
		Messages: []gateway.ChatMessage{gateway.NewUserMessage("hi")},
		Mode:     "chat",
	})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/legal-chat", strings.NewReader(string(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret")
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	require.Equal(t, http.StatusOK, authed.StatusCode)
	require.Len(t, captured, 2)
	assert.Equal(t, "google/gemini-2.5-pro", captured[1].Model)

	// Health reflects the reloaded model.
	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	var status HealthResponse
	require.NoError(t, json.NewDecoder(health.Body).Decode(&status))
	assert.Equal(t, "google/gemini-2.5-pro", status.Model)

	// Clearing the token opens the server back up.
	srv.Reload(ReloadOptions{})
	resp = postChat(t, ts.URL, gateway.ChatRequest{
		Messages: []gateway.ChatMessage{gateway.NewUserMessage("hi")},
		Mode:     "chat",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	// Model sticks: empty reload fields keep their values.
	require.Len(t, captured, 3)
	assert.Equal(t, "google/gemini-2.5-pro", captured[2].Model)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(&AuthConfig{Enabled: true, BearerToken: "secret"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("correct token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("disabled passes through", func(t *testing.T) {
		open := AuthMiddleware(DefaultAuthConfig())(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
		rec := httptest.NewRecorder()
		open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	handler := RateLimitMiddleware(limiter)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	// Burst of 2 allowed, then limited.
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[3])

	// A different IP has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.9:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware()(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	t.Run("direct connection", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:9999"
		assert.Equal(t, "203.0.113.7", GetClientIP(req))
	})

	t.Run("forwarded header from trusted proxy", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "127.0.0.1:9999"
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		assert.Equal(t, "203.0.113.7", GetClientIP(req))
	})

	t.Run("forwarded header from untrusted peer is ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:9999"
		req.Header.Set("X-Forwarded-For", "1.2.3.4")
		assert.Equal(t, "203.0.113.7", GetClientIP(req))
	})
}
