// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"strings"
	"sync"
)

// =============================================================================
// IDENTITY
// =============================================================================

// Identity describes a signed-in user.
type Identity struct {
	UserID string
	Email  string
}

// =============================================================================
// AUTH SESSION
// =============================================================================

// Session holds the current identity, if any. Safe for concurrent use.
type Session struct {
	mu          sync.Mutex
	identity    *Identity
	subscribers map[int]func(*Identity)
	nextSub     int
}

// NewSession creates an empty (signed-out) auth session.
func NewSession() *Session {
	return &Session{subscribers: make(map[int]func(*Identity))}
}

// SetIdentity signs a user in. UserID must be non-empty.
func (s *Session) SetIdentity(id Identity) {
	id.UserID = strings.TrimSpace(id.UserID)
	if id.UserID == "" {
		return
	}

	s.mu.Lock()
	s.identity = &id
	subs := s.snapshot()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(&id)
	}
}

// Clear signs the user out.
func (s *Session) Clear() {
	s.mu.Lock()
	s.identity = nil
	subs := s.snapshot()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
}

// Current returns the signed-in identity, or nil.
func (s *Session) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// SignedIn reports whether an identity is set.
func (s *Session) SignedIn() bool {
	return s.Current() != nil
}

// Subscribe registers fn to be called on sign-in (with the identity) and
// sign-out (with nil). It returns an unsubscribe function.
func (s *Session) Subscribe(fn func(*Identity)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// snapshot copies the subscriber list; callers must hold mu.
func (s *Session) snapshot() []func(*Identity) {
	subs := make([]func(*Identity), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}
