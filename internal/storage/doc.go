// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for the LegalGuru TUI.
//
// Conversations and their messages are stored in a local SQLite database
// (pure Go driver, no cgo). Each conversation belongs to a user and carries
// an assistant mode plus a title derived from the first user message. The
// store is safe for concurrent use; SQLite serializes writers via a single
// connection.
package storage
