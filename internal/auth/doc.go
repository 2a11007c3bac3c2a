// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth tracks the signed-in user for the running process.
//
// The TUI works without an account; persistence of conversations is only
// enabled once an identity is set. Subscribers are notified on sign-in and
// sign-out so views can re-render.
package auth
