// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/legalguru/legalguru-tui/internal/gateway"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultPort is the gateway listen port.
	DefaultPort = 8787

	// DefaultUpstreamURL is the OpenAI-compatible completions endpoint the
	// gateway forwards to.
	DefaultUpstreamURL = "https://ai.gateway.lovable.dev/v1/chat/completions"

	// DefaultModel is the model requested upstream.
	DefaultModel = "google/gemini-2.5-flash"

	// MaxRequestBodySize caps inbound request bodies.
	MaxRequestBodySize = 1 << 20 // 1MB

	// MaxMessageCount caps the conversation history length.
	MaxMessageCount = 200
)

// validRoles are the message roles accepted from clients.
var validRoles = map[string]bool{
	gateway.RoleUser:      true,
	gateway.RoleAssistant: true,
	gateway.RoleSystem:    true,
}

// =============================================================================
// SERVER
// =============================================================================

// Server is the LegalGuru chat gateway.
type Server struct {
	port int

	// mu guards the settings a live Reload may change.
	mu          sync.RWMutex
	upstreamURL string
	upstreamKey string
	model       string

	router     *http.ServeMux
	server     *http.Server
	httpClient *http.Client
	auth       *AuthConfig
	limiter    *RateLimiter
}

// NewServer creates a gateway listening on the given port (0 = default).
// The upstream key authenticates forwarded requests.
func NewServer(port int, upstreamKey string) *Server {
	if port == 0 {
		port = DefaultPort
	}

	s := &Server{
		port:        port,
		upstreamURL: DefaultUpstreamURL,
		upstreamKey: upstreamKey,
		model:       DefaultModel,
		router:      http.NewServeMux(),
		// No timeout: upstream streams stay open for a whole generation.
		httpClient: &http.Client{},
		auth:       DefaultAuthConfig(),
		limiter:    DefaultRateLimiter(),
	}

	s.setupRoutes()
	return s
}

// WithUpstreamURL overrides the upstream completions endpoint.
func (s *Server) WithUpstreamURL(url string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upstreamURL = url
	return s
}

// WithModel overrides the model requested upstream.
func (s *Server) WithModel(model string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
	return s
}

// WithAuth sets the inbound authentication configuration.
func (s *Server) WithAuth(config *AuthConfig) *Server {
	s.auth = config
	return s
}

// WithRateLimiter sets a custom inbound rate limiter.
func (s *Server) WithRateLimiter(limiter *RateLimiter) *Server {
	s.limiter = limiter
	return s
}

// Port returns the listen port.
func (s *Server) Port() int {
	return s.port
}

// upstream snapshots the reloadable upstream settings.
func (s *Server) upstream() (url, key, model string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upstreamURL, s.upstreamKey, s.model
}

// =============================================================================
// LIVE RELOAD
// =============================================================================

// ReloadOptions is the subset of server configuration that can change while
// the server is running. Empty string fields keep their current value,
// except BearerToken: an empty token disables inbound authentication. Port
// changes require a restart.
type ReloadOptions struct {
	UpstreamURL string
	UpstreamKey string
	Model       string
	BearerToken string
}

// Reload applies new settings to a running server. In-flight requests keep
// the values they started with.
func (s *Server) Reload(opts ReloadOptions) {
	s.mu.Lock()
	if opts.UpstreamURL != "" {
		s.upstreamURL = opts.UpstreamURL
	}
	if opts.UpstreamKey != "" {
		s.upstreamKey = opts.UpstreamKey
	}
	if opts.Model != "" {
		s.model = opts.Model
	}
	model := s.model
	s.mu.Unlock()

	s.auth.SetBearerToken(opts.BearerToken)

	log.Printf("SERVER_RELOAD | model=%s auth=%t", model, opts.BearerToken != "")
}

// Handler returns the fully wrapped HTTP handler (used by tests).
func (s *Server) Handler() http.Handler {
	chain := Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(log.Default()),
		CORSMiddleware(DefaultCORSConfig()),
		RateLimitMiddleware(s.limiter),
		AuthMiddleware(s.auth),
	)
	return chain(s.router)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /v1/legal-chat", s.handleLegalChat)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// =============================================================================
// LEGAL CHAT HANDLER
// =============================================================================

// upstreamRequest is the OpenAI-compatible payload forwarded upstream.
type upstreamRequest struct {
	Model    string                `json:"model"`
	Messages []gateway.ChatMessage `json:"messages"`
	Stream   bool                  `json:"stream"`
}

// handleLegalChat handles POST /v1/legal-chat: validate, inject the mode's
// system prompt, forward upstream with streaming, relay the SSE body.
func (s *Server) handleLegalChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req gateway.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("BAD_REQUEST | path=%s error=%v", r.URL.Path, err)
		s.writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if len(req.Messages) == 0 {
		s.writeError(w, http.StatusBadRequest, "Request must contain at least one message")
		return
	}
	if len(req.Messages) > MaxMessageCount {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many messages: maximum is %d", MaxMessageCount))
		return
	}
	for i, msg := range req.Messages {
		if !validRoles[msg.Role] {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Message %d has invalid role %q", i, msg.Role))
			return
		}
	}

	_, _, model := s.upstream()
	upstream := upstreamRequest{
		Model:    model,
		Messages: make([]gateway.ChatMessage, 0, len(req.Messages)+1),
		Stream:   true,
	}
	upstream.Messages = append(upstream.Messages, gateway.ChatMessage{
		Role:    gateway.RoleSystem,
		Content: promptForMode(req.Mode),
	})
	upstream.Messages = append(upstream.Messages, req.Messages...)

	resp, err := s.forward(r.Context(), upstream)
	if err != nil {
		log.Printf("UPSTREAM_ERROR | error=%v", err)
		s.writeError(w, http.StatusInternalServerError, "AI service error")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.relayUpstreamError(w, resp)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	s.relayStream(w, resp.Body)
}

// forward posts the upstream payload with streaming enabled.
func (s *Server) forward(ctx context.Context, payload upstreamRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal upstream request: %w", err)
	}

	url, key, _ := s.upstream()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	return s.httpClient.Do(req)
}

// relayUpstreamError maps upstream failures onto the client-facing error
// taxonomy: 429 and 402 keep their status, everything else becomes 500.
func (s *Server) relayUpstreamError(w http.ResponseWriter, resp *http.Response) {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		s.writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
	case http.StatusPaymentRequired:
		s.writeError(w, http.StatusPaymentRequired, "Payment required. Please add credits to your workspace.")
	default:
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("UPSTREAM_ERROR | status=%d body=%s", resp.StatusCode, string(errBody))
		s.writeError(w, http.StatusInternalServerError, "AI service error")
	}
}

// relayStream copies the upstream SSE body to the client, flushing after
// every chunk so deltas reach the client as they arrive.
func (s *Server) relayStream(w http.ResponseWriter, body io.Reader) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		// Fall back to one unflushed copy.
		_, _ = io.Copy(w, body)
		return
	}

	buf := make([]byte, 4*1024)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			flusher.Flush()
		}
		if err != nil {
			return
		}
	}
}

// =============================================================================
// HEALTH
// =============================================================================

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Model   string `json:"model"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, _, model := s.upstream()
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: gateway.Version,
		Model:   model,
	})
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start begins listening. Blocks until the server stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	url, _, model := s.upstream()
	log.Printf("SERVER_START | port=%d upstream=%s model=%s", s.port, url, model)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("RESPONSE_ENCODE_ERROR | error=%v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
