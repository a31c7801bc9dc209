// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/beauty-advisor/internal/model"
)

const (
	// DefaultKey is the durable key holding the conversation collection.
	DefaultKey = "advisorConversations"

	// SchemaVersion is written into every envelope.
	SchemaVersion = 1
)

// envelope is the persisted form of the collection.
type envelope struct {
	Version       int                  `json:"version"`
	Conversations []model.Conversation `json:"conversations"`
}

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore owns every conversation record. The backing slice keeps
// insertion order; sorting happens at read time in the caller.
type ConversationStore struct {
	mu      sync.RWMutex
	backend Backend
	key     string
	log     zerolog.Logger
	convs   []model.Conversation
}

// NewConversationStore loads the collection stored under key. A load failure
// is logged and leaves the store empty.
func NewConversationStore(backend Backend, key string, logger zerolog.Logger) *ConversationStore {
	if key == "" {
		key = DefaultKey
	}
	s := &ConversationStore{
		backend: backend,
		key:     key,
		log:     logger.With().Str("component", "storage").Logger(),
		convs:   make([]model.Conversation, 0),
	}

	convs, err := s.load()
	switch {
	case errors.Is(err, ErrKeyNotFound):
		s.log.Debug().Str("key", key).Msg("no stored conversations")
	case err != nil:
		s.log.Warn().Err(err).Str("key", key).Msg("conversation history unreadable, starting empty")
	default:
		s.convs = convs
		s.log.Debug().Int("count", len(convs)).Msg("conversations loaded")
	}
	return s
}

func (s *ConversationStore) load() ([]model.Conversation, error) {
	data, err := s.backend.Get(s.key)
	if err != nil {
		return nil, err
	}
	return decodeCollection(data)
}

// decodeCollection accepts the versioned envelope or a bare array.
func decodeCollection(data []byte) ([]model.Conversation, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrCorrupt)
	}

	var convs []model.Conversation
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &convs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	} else {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if env.Version > SchemaVersion {
			return nil, fmt.Errorf("%w: schema version %d is newer than %d", ErrCorrupt, env.Version, SchemaVersion)
		}
		convs = env.Conversations
	}

	// Keep the first record per id.
	seen := make(map[string]bool, len(convs))
	out := make([]model.Conversation, 0, len(convs))
	for _, c := range convs {
		if c.ID == "" || seen[c.ID] {
			continue
		}
		if c.Messages == nil {
			c.Messages = make([]model.Message, 0)
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out, nil
}

// persist writes the full collection. Callers hold s.mu.
func (s *ConversationStore) persist() error {
	data, err := json.Marshal(envelope{Version: SchemaVersion, Conversations: s.convs})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := s.backend.Put(s.key, data); err != nil {
		s.log.Error().Err(err).Str("key", s.key).Msg("failed to persist conversations")
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// =============================================================================
// OPERATIONS
// =============================================================================

// List returns copies of all conversations in backing order.
func (s *ConversationStore) List() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Conversation, len(s.convs))
	for i := range s.convs {
		out[i] = s.convs[i].Clone()
	}
	return out
}

// Len returns the number of stored conversations.
func (s *ConversationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs)
}

// Upsert inserts conv, or replaces the record with the same ID in place.
// The in-memory record is updated even when persisting fails.
func (s *ConversationStore) Upsert(conv model.Conversation) error {
	if conv.ID == "" {
		return ErrInvalidConversation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := conv.Clone()
	if i := s.indexOf(conv.ID); i >= 0 {
		s.convs[i] = stored
	} else {
		s.convs = append(s.convs, stored)
	}
	return s.persist()
}

// Delete removes the record. Deleting an unknown id is a no-op.
func (s *ConversationStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	s.convs = append(s.convs[:i], s.convs[i+1:]...)
	return s.persist()
}

// Find returns a copy of the record or ErrConversationNotFound.
func (s *ConversationStore) Find(id string) (model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.convs[i].Clone(), nil
	}
	return model.Conversation{}, ErrConversationNotFound
}

// Update applies fn to the stored record and persists the result.
func (s *ConversationStore) Update(id string, fn func(*model.Conversation)) (model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Conversation{}, ErrConversationNotFound
	}
	fn(&s.convs[i])
	s.convs[i].ID = id
	return s.convs[i].Clone(), s.persist()
}

// Close closes the backend.
func (s *ConversationStore) Close() error {
	return s.backend.Close()
}

func (s *ConversationStore) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.convs {
		if s.convs[i].ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ErrInvalidConversation is returned when upserting a conversation without an ID.
var ErrInvalidConversation = &ConversationError{Message: "conversation has no id"}

// ErrPersist wraps backend write failures. The in-memory state is still updated.
var ErrPersist = errors.New("persist conversations")

// ErrCorrupt marks stored data that could not be decoded.
var ErrCorrupt = errors.New("stored conversations are corrupt")

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
