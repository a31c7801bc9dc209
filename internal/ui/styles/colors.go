// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Rose - Brand color, headings, the advisor's name
var Rose = lipgloss.AdaptiveColor{Light: "#BE185D", Dark: "#F9A8D4"}

// Plum - Selections and the user's label
var Plum = lipgloss.AdaptiveColor{Light: "#7E22CE", Dark: "#D8B4FE"}

// Gold - Favorites
var Gold = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FCD34D"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Sage - Success states
var Sage = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#6EE7B7"}

// Amber - Warnings
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Crimson - Errors
var Crimson = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#FCA5A5"}

// =============================================================================
// TEXT AND SURFACE COLORS
// =============================================================================

var (
	TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#F3E8EE"}
	TextMuted   = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#8B7F88"}
	TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1F1A1E"}
	Overlay     = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#3A3238"}
)
