// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles holds the terminal palette and the Lip Gloss styles shared
// by the chat REPL and the history browser.
//
// Colors are lipgloss.AdaptiveColor values so they follow the terminal's
// light or dark background. Call Configure once at startup to honor
// --no-color and NO_COLOR.
package styles
