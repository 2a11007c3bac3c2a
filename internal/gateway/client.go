// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultGatewayURL is the base URL of the hosted legal-chat gateway.
	DefaultGatewayURL = "https://api.legalguru.app"

	// DefaultTimeout is the timeout for non-streaming requests. Streaming
	// requests have no client timeout and are controlled via context.
	DefaultTimeout = 60 * time.Second
)

// =============================================================================
// MODES
// =============================================================================

// Mode selects which assistant behavior the gateway applies server-side.
type Mode string

// Assistant modes understood by the gateway. An unknown mode falls back to
// ModeChat on the server.
const (
	ModeChat     Mode = "chat"
	ModeDocument Mode = "document"
	ModeResearch Mode = "research"
	ModeContract Mode = "contract"
)

// Valid reports whether m is one of the known assistant modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeChat, ModeDocument, ModeResearch, ModeContract:
		return true
	}
	return false
}

// ParseMode returns the Mode for s, falling back to ModeChat for anything
// unrecognized. Matches the gateway's own fallback behavior.
func ParseMode(s string) Mode {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return ModeChat
	}
	return m
}

// =============================================================================
// MESSAGES
// =============================================================================

// Message roles used on the wire.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// ChatRequest is the JSON body sent to the streaming chat endpoint.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Mode     string        `json:"mode"`
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrRateLimited indicates the gateway returned HTTP 429. The caller
	// should ask the user to slow down; the client never retries on its own.
	ErrRateLimited = errors.New("rate limited")

	// ErrPaymentRequired indicates the gateway returned HTTP 402.
	ErrPaymentRequired = errors.New("payment required")
)

// GatewayError represents any other non-success response from the gateway.
type GatewayError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("gateway error (HTTP %d)", e.Status)
}

// =============================================================================
// CLIENT
// =============================================================================

// streamingClient is shared by all gateway clients. No client-level timeout:
// streams stay open for the duration of a generation and are cancelled via
// context.
var streamingClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// Client communicates with the LegalGuru chat gateway.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a gateway client. The API key is the publishable key the
// gateway expects as a bearer token; an empty key is allowed for gateways
// that run without auth (local development).
func NewClient(apiKey string) *Client {
	return &Client{
		baseURL:    DefaultGatewayURL,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: streamingClient,
	}
}

// WithBaseURL sets a custom base URL for the gateway.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithHTTPClient sets a custom HTTP client (used by tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// BaseURL returns the configured gateway base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// setHeaders sets the required headers for gateway requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "legalguru-tui/"+Version)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// statusError maps a non-success HTTP status to the error taxonomy: 429 and
// 402 get distinct sentinels, everything else a generic GatewayError.
func statusError(status int, body []byte) error {
	switch status {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusPaymentRequired:
		return ErrPaymentRequired
	default:
		return &GatewayError{Status: status, Message: strings.TrimSpace(string(body))}
	}
}

// Version is the client version reported in the User-Agent header.
// Overridden at build time by the main package.
var Version = "0.1.0"
