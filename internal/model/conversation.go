// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/beauty-advisor/internal/util"
)

const (
	// DefaultTitle is shown until the first user message names the conversation.
	DefaultTitle = "New Chat"

	// TitleMaxRunes bounds derived titles before the ellipsis marker.
	TitleMaxRunes = 50

	// PreviewMaxRunes bounds the derived preview line.
	PreviewMaxRunes = 80
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is persisted as one unit. An empty ID marks a working copy that
// has not been saved yet.
type Conversation struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Messages   []Message `json:"messages"`
	Timestamp  time.Time `json:"timestamp"`
	IsFavorite bool      `json:"isFavorite"`
}

// NewConversation returns an empty, unsaved conversation.
func NewConversation() *Conversation {
	return &Conversation{
		Title:     DefaultTitle,
		Messages:  make([]Message, 0),
		Timestamp: time.Now(),
	}
}

// NewID generates a conversation identifier.
func NewID() string {
	return uuid.NewString()
}

// DeriveTitle turns the first user message into a conversation title.
func DeriveTitle(text string) string {
	line := util.SingleLine(text)
	if line == "" {
		return DefaultTitle
	}
	return util.TruncateRunes(line, TitleMaxRunes)
}

// =============================================================================
// MUTATION
// =============================================================================

// Append adds messages in order and sets Timestamp to the last message's time.
// The title is derived from the first user message the conversation sees.
func (c *Conversation) Append(msgs ...Message) {
	for _, msg := range msgs {
		if msg.Role == RoleUser && !c.hasUserMessage() {
			c.Title = DeriveTitle(msg.Content)
		}
		c.Messages = append(c.Messages, msg)
		c.Timestamp = msg.Timestamp
	}
}

// SetFavorite updates the flag and the last-modified time.
func (c *Conversation) SetFavorite(fav bool, at time.Time) {
	c.IsFavorite = fav
	c.Timestamp = at
}

func (c *Conversation) hasUserMessage() bool {
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			return true
		}
	}
	return false
}

// =============================================================================
// ACCESSORS
// =============================================================================

// IsEmpty reports whether the conversation has no messages.
func (c Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// IsSaved reports whether an ID has been assigned.
func (c Conversation) IsSaved() bool {
	return c.ID != ""
}

// Preview returns the most recent user message on a single line.
func (c Conversation) Preview() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return util.TruncateRunes(util.SingleLine(c.Messages[i].Content), PreviewMaxRunes)
		}
	}
	return ""
}

// CountByRole returns how many messages have the given role.
func (c Conversation) CountByRole(role Role) int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == role {
			n++
		}
	}
	return n
}

// Clone creates a deep copy of the conversation.
func (c Conversation) Clone() Conversation {
	clone := c
	clone.Messages = make([]Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	return clone
}
