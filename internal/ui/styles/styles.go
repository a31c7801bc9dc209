// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	Title = lipgloss.NewStyle().Foreground(Rose).Bold(true)

	Banner = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 2)

	UserLabel    = lipgloss.NewStyle().Foreground(Plum).Bold(true)
	AdvisorLabel = lipgloss.NewStyle().Foreground(Rose).Bold(true)

	Muted   = lipgloss.NewStyle().Foreground(TextMuted)
	Help    = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	Success = lipgloss.NewStyle().Foreground(Sage)
	Warning = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	Error   = lipgloss.NewStyle().Foreground(Crimson)

	Favorite = lipgloss.NewStyle().Foreground(Gold)

	Selected = lipgloss.NewStyle().
			Background(Plum).
			Foreground(TextInverse)

	Separator = lipgloss.NewStyle().Foreground(Overlay)
)

// FavoriteMark is shown next to favorite conversations.
const FavoriteMark = "*"

// Configure sets the color profile for all styles. With noColor set, or
// NO_COLOR in the environment, output is plain ASCII.
func Configure(noColor bool) {
	if noColor || termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

// Enabled reports whether styles currently emit color.
func Enabled() bool {
	return lipgloss.ColorProfile() != termenv.Ascii
}
