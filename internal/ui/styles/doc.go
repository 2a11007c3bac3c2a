// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the LegalGuru TUI.
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
package styles
