// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// RelativeDate labels t by whole days elapsed since now: "Today",
// "Yesterday", "N days ago" under a week, then "Jan 2".
func RelativeDate(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = -diff
	}
	switch days := int(diff / day); {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Local().Format("Jan 2")
	}
}

// MessageTime formats a message timestamp as a local wall clock time.
func MessageTime(t time.Time) string {
	return t.Local().Format("15:04")
}
