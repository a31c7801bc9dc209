// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/beauty-advisor/internal/model"
)

func sampleConversation(id string) model.Conversation {
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	return model.Conversation{
		ID:    id,
		Title: "Night cream for combination skin",
		Messages: []model.Message{
			model.NewMessage(model.RoleUser, "Night cream for combination skin?", at),
			model.NewMessage(model.RoleAssistant, "A lightweight gel cream works well.", at.Add(2*time.Second)),
		},
		Timestamp: at.Add(2 * time.Second),
	}
}

// failingBackend accepts reads and rejects writes.
type failingBackend struct {
	getErr error
	data   []byte
}

func (f *failingBackend) Get(string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.data == nil {
		return nil, ErrKeyNotFound
	}
	return f.data, nil
}
func (f *failingBackend) Put(string, []byte) error { return errors.New("disk full") }
func (f *failingBackend) Close() error             { return nil }

// =============================================================================
// CRUD TESTS
// =============================================================================

func TestConversationStore_UpsertThenFind(t *testing.T) {
	store := NewConversationStore(NewMemoryBackend(), DefaultKey, zerolog.Nop())
	conv := sampleConversation("c1")

	require.NoError(t, store.Upsert(conv))

	got, err := store.Find("c1")
	require.NoError(t, err)
	assert.Equal(t, conv, got)
}

func TestConversationStore_UpsertReplacesInPlace(t *testing.T) {
	store := NewConversationStore(NewMemoryBackend(), DefaultKey, zerolog.Nop())
	require.NoError(t, store.Upsert(sampleConversation("a")))
	require.NoError(t, store.Upsert(sampleConversation("b")))

	updated := sampleConversation("a")
	updated.IsFavorite = true
	require.NoError(t, store.Upsert(updated))

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID, "replace must not reorder the backing collection")
	assert.True(t, list[0].IsFavorite)
}

func TestConversationStore_UpsertRequiresID(t *testing.T) {
	store := NewConversationStore(NewMemoryBackend(), DefaultKey, zerolog.Nop())
	err := store.Upsert(model.Conversation{Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidConversation)
}

func TestConversationStore_DeleteThenFind(t *testing.T) {
	store := NewConversationStore(NewMemoryBackend(), DefaultKey, zerolog.Nop())
	require.NoError(t, store.Upsert(sampleConversation("present")))

	for _, id := range []string{"present", "absent"} {
		t.Run(id, func(t *testing.T) {
			require.NoError(t, store.Delete(id))
			_, err := store.Find(id)
			assert.True(t, errors.Is(err, ErrConversationNotFound), "got %v", err)
		})
	}
}

func TestConversationStore_ReturnsCopies(t *testing.T) {
	store := NewConversationStore(NewMemoryBackend(), DefaultKey, zerolog.Nop())
	require.NoError(t, store.Upsert(sampleConversation("c1")))

	got, _ := store.Find("c1")
	got.Messages[0].Content = "mutated"
	got.Title = "mutated"

	again, _ := store.Find("c1")
	assert.Equal(t, "Night cream for combination skin", again.Title)
	assert.Equal(t, "Night cream for combination skin?", again.Messages[0].Content)
}

func TestConversationStore_Update(t *testing.T) {
	store := NewConversationStore(NewMemoryBackend(), DefaultKey, zerolog.Nop())
	require.NoError(t, store.Upsert(sampleConversation("c1")))

	got, err := store.Update("c1", func(c *model.Conversation) { c.IsFavorite = true })
	require.NoError(t, err)
	assert.True(t, got.IsFavorite)

	_, err = store.Update("nope", func(*model.Conversation) {})
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

// =============================================================================
// PERSISTENCE TESTS
// =============================================================================

func TestConversationStore_PersistsEveryMutation(t *testing.T) {
	backend := NewMemoryBackend()
	store := NewConversationStore(backend, DefaultKey, zerolog.Nop())
	require.NoError(t, store.Upsert(sampleConversation("c1")))
	require.NoError(t, store.Upsert(sampleConversation("c2")))
	require.NoError(t, store.Delete("c1"))

	raw, err := backend.Get(DefaultKey)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, SchemaVersion, env.Version)
	require.Len(t, env.Conversations, 1)
	assert.Equal(t, "c2", env.Conversations[0].ID)

	reopened := NewConversationStore(backend, DefaultKey, zerolog.Nop())
	assert.Equal(t, store.List(), reopened.List())
}

func TestConversationStore_LoadsLegacyArray(t *testing.T) {
	backend := NewMemoryBackend()
	legacy := `[{"id":"old","title":"Lipstick shades","messages":[{"role":"user","content":"Red or nude?"}],"timestamp":"2024-01-02T03:04:05Z","isFavorite":true}]`
	require.NoError(t, backend.Put(DefaultKey, []byte(legacy)))

	store := NewConversationStore(backend, DefaultKey, zerolog.Nop())

	got, err := store.Find("old")
	require.NoError(t, err)
	assert.True(t, got.IsFavorite)
	assert.Equal(t, "Lipstick shades", got.Title)
}

func TestConversationStore_CorruptDataDegradesToEmpty(t *testing.T) {
	tests := map[string]string{
		"not json":       "{{{",
		"empty":          "",
		"future version": `{"version":99,"conversations":[]}`,
		"wrong shape":    `{"version":1,"conversations":"nope"}`,
	}

	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			backend := NewMemoryBackend()
			require.NoError(t, backend.Put(DefaultKey, []byte(payload)))

			var logs bytes.Buffer
			store := NewConversationStore(backend, DefaultKey, zerolog.New(&logs))

			assert.Equal(t, 0, store.Len())
			assert.Contains(t, logs.String(), "starting empty")

			// Still usable after a failed load.
			require.NoError(t, store.Upsert(sampleConversation("fresh")))
			assert.Equal(t, 1, store.Len())
		})
	}
}

func TestConversationStore_BackendUnavailable(t *testing.T) {
	var logs bytes.Buffer
	store := NewConversationStore(&failingBackend{getErr: errors.New("permission denied")}, DefaultKey, zerolog.New(&logs))

	assert.Equal(t, 0, store.Len())
	assert.Contains(t, logs.String(), "permission denied")
}

func TestConversationStore_PersistFailureKeepsMemoryState(t *testing.T) {
	var logs bytes.Buffer
	store := NewConversationStore(&failingBackend{}, DefaultKey, zerolog.New(&logs))

	err := store.Upsert(sampleConversation("c1"))
	assert.ErrorIs(t, err, ErrPersist)

	got, findErr := store.Find("c1")
	require.NoError(t, findErr)
	assert.Equal(t, "c1", got.ID)
	assert.Contains(t, logs.String(), "failed to persist")
}

func TestConversationStore_DropsDuplicateIDsOnLoad(t *testing.T) {
	backend := NewMemoryBackend()
	doc := `{"version":1,"conversations":[{"id":"x","title":"first"},{"id":"x","title":"second"},{"id":"","title":"anon"}]}`
	require.NoError(t, backend.Put(DefaultKey, []byte(doc)))

	store := NewConversationStore(backend, DefaultKey, zerolog.Nop())

	list := store.List()
	require.Len(t, list, 1)
	assert.Equal(t, "first", list[0].Title)
}
