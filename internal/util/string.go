// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

// UNICODE: Rune-aware truncation preserves multi-byte characters.
// Conversation titles and previews are cut by character, never by byte.

// TruncateRunes keeps the first maxRunes characters of s and appends Ellipsis
// when anything was cut. The ellipsis is not counted against maxRunes, so a
// 51 character string truncated to 50 becomes 50 characters plus "...".
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	return TruncateRunesNoEllipsis(s, maxRunes) + Ellipsis
}

// TruncateRunesNoEllipsis truncates a string to a maximum number of runes
// without appending an ellipsis.
func TruncateRunesNoEllipsis(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == maxRunes {
			return s[:i]
		}
		count++
	}
	return s
}

// SingleLine replaces newlines and repeated whitespace with single spaces.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RuneLen returns the number of runes (characters) in a string.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// ContainsFold reports whether substr is within s under Unicode case
// folding, so "STRASSE" matches "straße".
func ContainsFold(s, substr string) bool {
	// A Caser is stateful; each call gets its own.
	return strings.Contains(cases.Fold().String(s), cases.Fold().String(substr))
}

// FitWidth truncates s to at most width terminal cells, ending in Ellipsis
// when cut, and pads it with spaces to exactly width cells. Wide characters
// count as two cells.
func FitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.FillRight(runewidth.Truncate(s, width, Ellipsis), width)
}

// DisplayWidth returns the number of terminal cells s occupies.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}
