// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/legalguru/legalguru-tui/internal/auth"
	"github.com/legalguru/legalguru-tui/internal/gateway"
	"github.com/legalguru/legalguru-tui/internal/storage"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// Greeting seeds every fresh conversation as the first assistant message.
const Greeting = "Hi, I'm LegalGuru. What legal advice do you need?"

// Apology messages appended as the assistant turn when a send fails. The
// rate-limit and payment cases are worded distinctly so users can tell them
// apart from a generic failure.
const (
	ApologyGeneric         = "I apologize, but I encountered an error. Please try again."
	ApologyRateLimited     = "I'm sorry, the service is receiving too many requests. Please try again in a moment."
	ApologyPaymentRequired = "I'm sorry, this service requires payment. Please contact support."
)

// =============================================================================
// STREAMER
// =============================================================================

// Streamer issues one streaming chat request. *gateway.Client implements it.
type Streamer interface {
	ChatStream(ctx context.Context, messages []gateway.ChatMessage, mode gateway.Mode, onDelta gateway.DeltaCallback) error
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one chat conversation: ordered messages, a busy flag and an
// assistant mode. Safe for concurrent use; Reset and SwitchMode may be
// called while a Send is streaming.
type Session struct {
	mu     sync.Mutex
	client Streamer

	messages []gateway.ChatMessage
	mode     gateway.Mode
	busy     bool

	// pending accumulates the in-progress assistant reply. It is only
	// meaningful while busy is true; Messages materializes it as the
	// trailing assistant message.
	pending strings.Builder

	// generation invalidates in-flight streams: Reset and SwitchMode bump
	// it, and deltas or terminal events carrying a stale generation are
	// dropped instead of corrupting the fresh state.
	generation uint64

	onChange func()

	// Optional persistence. Rows are written only while an identity is
	// signed in; failures are logged, never surfaced.
	store          *storage.Store
	authSession    *auth.Session
	conversationID string
}

// New creates a session in chat mode, seeded with the greeting.
func New(client Streamer) *Session {
	return &Session{
		client:   client,
		mode:     gateway.ModeChat,
		messages: []gateway.ChatMessage{gateway.NewAssistantMessage(Greeting)},
	}
}

// WithStore attaches conversation persistence, gated on the auth session
// having a signed-in identity.
func (s *Session) WithStore(store *storage.Store, authSession *auth.Session) *Session {
	s.mu.Lock()
	s.store = store
	s.authSession = authSession
	s.mu.Unlock()

	// Signing out detaches from the conversation row so a later sign-in
	// starts a fresh conversation instead of appending to the old user's.
	authSession.Subscribe(func(identity *auth.Identity) {
		if identity == nil {
			s.mu.Lock()
			s.conversationID = ""
			s.mu.Unlock()
		}
	})
	return s
}

// SetOnChange registers a callback invoked (without the lock held) whenever
// the visible message state changes: new deltas, finalized replies, resets.
func (s *Session) SetOnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// =============================================================================
// STATE ACCESS
// =============================================================================

// Messages returns a snapshot of the conversation. While a reply is
// streaming the snapshot ends with the in-progress assistant message, which
// grows on every delta.
func (s *Session) Messages() []gateway.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]gateway.ChatMessage, len(s.messages), len(s.messages)+1)
	copy(msgs, s.messages)
	if s.busy {
		msgs = append(msgs, gateway.NewAssistantMessage(s.pending.String()))
	}
	return msgs
}

// IsBusy reports whether a send is outstanding.
func (s *Session) IsBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Mode returns the current assistant mode.
func (s *Session) Mode() gateway.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// ConversationID returns the persisted conversation's ID, or "" when the
// session is not persisting.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// =============================================================================
// SEND
// =============================================================================

// Send appends a user message and streams the assistant reply, blocking
// until the reply is complete. Blank input and sends while busy are silent
// no-ops. On error the conversation still gains an assistant apology turn;
// the error is also returned so callers can surface it.
//
// Send blocks for the duration of the stream; UIs run it on their own
// goroutine and observe progress through the change callback.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil
	}
	s.busy = true
	s.pending.Reset()
	s.messages = append(s.messages, gateway.NewUserMessage(text))
	gen := s.generation
	mode := s.mode

	history := make([]gateway.ChatMessage, len(s.messages))
	copy(history, s.messages)
	s.mu.Unlock()

	s.notify()
	s.persist(gen, gateway.RoleUser, text)

	err := s.client.ChatStream(ctx, history, mode, func(delta string) {
		s.applyDelta(gen, delta)
	})

	if err != nil {
		log.Printf("CHAT_ERROR | mode=%s error=%v", mode, err)
		s.finalize(gen, apologyFor(err))
		return err
	}

	s.finalize(gen, "")
	return nil
}

// applyDelta appends one streamed fragment to the in-progress reply,
// dropping it if the stream's generation is stale.
func (s *Session) applyDelta(gen uint64, delta string) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.pending.WriteString(delta)
	s.mu.Unlock()

	s.notify()
}

// finalize converts the in-progress reply into a permanent assistant
// message and clears busy. A non-empty override (the apology path) replaces
// whatever content accumulated. Stale generations are dropped outright:
// the session was reset mid-stream and already owns fresh state.
func (s *Session) finalize(gen uint64, override string) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}

	content := s.pending.String()
	if override != "" {
		content = override
	}
	s.pending.Reset()
	s.busy = false
	s.messages = append(s.messages, gateway.NewAssistantMessage(content))
	s.mu.Unlock()

	s.notify()
	s.persist(gen, gateway.RoleAssistant, content)
}

// apologyFor maps the error taxonomy onto user-facing apology content.
func apologyFor(err error) string {
	switch {
	case errors.Is(err, gateway.ErrRateLimited):
		return ApologyRateLimited
	case errors.Is(err, gateway.ErrPaymentRequired):
		return ApologyPaymentRequired
	default:
		return ApologyGeneric
	}
}

// =============================================================================
// RESET / MODE SWITCH
// =============================================================================

// Reset clears the conversation back to the seed greeting, releases busy
// and detaches from any persisted conversation. Callable mid-stream: the
// abandoned stream's remaining deltas and terminal events are discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	s.generation++
	s.busy = false
	s.pending.Reset()
	s.messages = []gateway.ChatMessage{gateway.NewAssistantMessage(Greeting)}
	s.conversationID = ""
	s.mu.Unlock()

	s.notify()
}

// SwitchMode resets the conversation and switches to the given assistant
// mode. Switching to the current mode still resets.
func (s *Session) SwitchMode(mode gateway.Mode) {
	if !mode.Valid() {
		mode = gateway.ModeChat
	}

	s.mu.Lock()
	s.generation++
	s.busy = false
	s.pending.Reset()
	s.messages = []gateway.ChatMessage{gateway.NewAssistantMessage(Greeting)}
	s.conversationID = ""
	s.mode = mode
	s.mu.Unlock()

	s.notify()
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// LoadConversation replaces the session state with a persisted conversation
// so it can be continued. The loaded messages follow the seed greeting.
func (s *Session) LoadConversation(ctx context.Context, conversationID string) error {
	if s.store == nil {
		return storage.ErrConversationNotFound
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	rows, err := s.store.LoadMessages(ctx, conversationID)
	if err != nil {
		return err
	}

	// Continuing a conversation counts as activity for recency ordering.
	if err := s.store.TouchConversation(ctx, conv.ID); err != nil {
		log.Printf("STORAGE_ERROR | op=touch_conversation conversation=%s error=%v", conv.ID, err)
	}

	msgs := make([]gateway.ChatMessage, 0, len(rows)+1)
	msgs = append(msgs, gateway.NewAssistantMessage(Greeting))
	for _, row := range rows {
		msgs = append(msgs, gateway.ChatMessage{Role: row.Role, Content: row.Content})
	}

	s.mu.Lock()
	s.generation++
	s.busy = false
	s.pending.Reset()
	s.messages = msgs
	s.mode = gateway.ParseMode(conv.Mode)
	s.conversationID = conv.ID
	s.mu.Unlock()

	s.notify()
	return nil
}

// persist writes one finalized message, creating the conversation row on
// the first user message. Skipped when no store is attached, no identity is
// signed in, or the generation went stale. Failures are logged only.
func (s *Session) persist(gen uint64, role, content string) {
	s.mu.Lock()
	store := s.store
	authSession := s.authSession
	convID := s.conversationID
	mode := s.mode
	stale := gen != s.generation
	s.mu.Unlock()

	if store == nil || authSession == nil || stale {
		return
	}
	identity := authSession.Current()
	if identity == nil {
		return
	}

	ctx := context.Background()

	if convID == "" {
		if role != gateway.RoleUser {
			return
		}
		conv, err := store.CreateConversation(ctx, identity.UserID, storage.DeriveTitle(content), string(mode))
		if err != nil {
			log.Printf("STORAGE_ERROR | op=create_conversation error=%v", err)
			return
		}

		s.mu.Lock()
		if gen != s.generation {
			s.mu.Unlock()
			return
		}
		s.conversationID = conv.ID
		s.mu.Unlock()
		convID = conv.ID
	}

	if _, err := store.AppendMessage(ctx, convID, role, content); err != nil {
		log.Printf("STORAGE_ERROR | op=append_message conversation=%s error=%v", convID, err)
	}
}

// notify invokes the change callback outside the lock.
func (s *Session) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}
