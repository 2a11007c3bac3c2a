// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrConversationNotFound is returned when a conversation doesn't exist.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrEmptyUserID is returned when an operation requires a user.
	ErrEmptyUserID = errors.New("user id is empty")
)

// =============================================================================
// TYPES
// =============================================================================

// Conversation is one persisted chat thread.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one persisted row of a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationMeta is a Conversation plus its message count, for listings.
type ConversationMeta struct {
	Conversation
	MessageCount int `json:"message_count"`
}

// =============================================================================
// STORE
// =============================================================================

// Store persists conversations and messages in SQLite.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default database location under the user's home.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".legalguru", "conversations.db"), nil
}

// Open opens (creating if needed) the conversation database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// CreateConversation creates a new conversation for a user. The title is
// normally derived from the first user message via DeriveTitle.
func (s *Store) CreateConversation(ctx context.Context, userID, title, mode string) (*Conversation, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if title == "" {
		title = "New conversation"
	}

	now := time.Now().UTC()
	conv := &Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Mode:      mode,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_conversations (id, user_id, title, mode, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.UserID, conv.Title, conv.Mode, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// GetConversation loads one conversation by ID.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, mode, created_at, updated_at
		 FROM chat_conversations WHERE id = ?`, id)

	var conv Conversation
	err := row.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.Mode, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return &conv, nil
}

// ListConversations returns a user's conversations, most recent first.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]ConversationMeta, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.user_id, c.title, c.mode, c.created_at, c.updated_at,
		        COUNT(m.id)
		 FROM chat_conversations c
		 LEFT JOIN chat_messages m ON m.conversation_id = c.id
		 WHERE c.user_id = ?
		 GROUP BY c.id
		 ORDER BY c.updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	return scanMetas(rows)
}

// SearchConversations returns a user's conversations whose title or any
// message content contains the query, case-insensitive, most recent first.
// An empty query lists everything.
func (s *Store) SearchConversations(ctx context.Context, userID, query string) ([]ConversationMeta, error) {
	if query == "" {
		return s.ListConversations(ctx, userID)
	}
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.user_id, c.title, c.mode, c.created_at, c.updated_at,
		        COUNT(m.id)
		 FROM chat_conversations c
		 LEFT JOIN chat_messages m ON m.conversation_id = c.id
		 WHERE c.user_id = ?
		   AND (LOWER(c.title) LIKE ?
		        OR c.id IN (SELECT conversation_id FROM chat_messages
		                    WHERE LOWER(content) LIKE ?))
		 GROUP BY c.id
		 ORDER BY c.updated_at DESC`, userID, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search conversations: %w", err)
	}
	defer rows.Close()

	return scanMetas(rows)
}

// DeleteConversation removes a conversation and its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// TouchConversation bumps a conversation's updated_at to now.
func (s *Store) TouchConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_conversations SET updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// AppendMessage appends one message to a conversation and bumps the
// conversation's updated_at so listings sort by recency.
func (s *Store) AppendMessage(ctx context.Context, conversationID, role, content string) (*Message, error) {
	msg := &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE chat_conversations SET updated_at = ? WHERE id = ?`,
		msg.CreatedAt, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrConversationNotFound
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chat_messages (id, conversation_id, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}
	return msg, nil
}

// LoadMessages returns a conversation's messages in chronological order.
func (s *Store) LoadMessages(ctx context.Context, conversationID string) ([]Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at
		 FROM chat_messages
		 WHERE conversation_id = ?
		 ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

// DeriveTitle builds a conversation title from the first user message:
// newlines become spaces, and anything over 50 runes is cut to 47 plus "...".
func DeriveTitle(content string) string {
	content = strings.ReplaceAll(content, "\n", " ")
	content = strings.ReplaceAll(content, "\r", "")
	content = strings.TrimSpace(content)
	if content == "" {
		return "New conversation"
	}
	runes := []rune(content)
	if len(runes) > 50 {
		return string(runes[:47]) + "..."
	}
	return content
}

func scanMetas(rows *sql.Rows) ([]ConversationMeta, error) {
	var metas []ConversationMeta
	for rows.Next() {
		var m ConversationMeta
		err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.Mode,
			&m.CreatedAt, &m.UpdatedAt, &m.MessageCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}
