// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"strings"

	"github.com/jeranaias/beauty-advisor/internal/util"
)

// SortForHistory orders conversations for the history list: favorites first,
// then newest first. The input slice is sorted in place and returned.
func SortForHistory(convs []Conversation) []Conversation {
	sort.SliceStable(convs, func(i, j int) bool {
		if convs[i].IsFavorite != convs[j].IsFavorite {
			return convs[i].IsFavorite
		}
		return convs[i].Timestamp.After(convs[j].Timestamp)
	})
	return convs
}

// Matches reports whether query occurs, ignoring case, in the title, the
// preview or any message body.
func (c *Conversation) Matches(query string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	if util.ContainsFold(c.Title, q) || util.ContainsFold(c.Preview(), q) {
		return true
	}
	for _, m := range c.Messages {
		if util.ContainsFold(m.Content, q) {
			return true
		}
	}
	return false
}

// Filter returns the conversations matching query, preserving input order.
// A blank query returns convs unchanged.
func Filter(convs []Conversation, query string) []Conversation {
	if strings.TrimSpace(query) == "" {
		return convs
	}
	out := make([]Conversation, 0, len(convs))
	for i := range convs {
		if convs[i].Matches(query) {
			out = append(out, convs[i])
		}
	}
	return out
}
