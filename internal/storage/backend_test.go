// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackends_RoundTrip(t *testing.T) {
	for _, kind := range []string{BackendFile, BackendBolt, BackendSQLite, BackendMemory} {
		t.Run(kind, func(t *testing.T) {
			backend, err := OpenBackend(kind, t.TempDir())
			require.NoError(t, err)
			defer backend.Close()

			_, err = backend.Get(DefaultKey)
			assert.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, backend.Put(DefaultKey, []byte(`{"version":1}`)))
			require.NoError(t, backend.Put(DefaultKey, []byte(`{"version":1,"conversations":[]}`)))

			got, err := backend.Get(DefaultKey)
			require.NoError(t, err)
			assert.JSONEq(t, `{"version":1,"conversations":[]}`, string(got))
		})
	}
}

func TestBackends_SurviveReopen(t *testing.T) {
	for _, kind := range []string{BackendFile, BackendBolt, BackendSQLite} {
		t.Run(kind, func(t *testing.T) {
			dir := t.TempDir()

			backend, err := OpenBackend(kind, dir)
			require.NoError(t, err)
			store := NewConversationStore(backend, DefaultKey, zerolog.Nop())
			require.NoError(t, store.Upsert(sampleConversation("persisted")))
			require.NoError(t, store.Close())

			backend, err = OpenBackend(kind, dir)
			require.NoError(t, err)
			reopened := NewConversationStore(backend, DefaultKey, zerolog.Nop())
			defer reopened.Close()

			got, err := reopened.Find("persisted")
			require.NoError(t, err)
			assert.Len(t, got.Messages, 2)
		})
	}
}

func TestOpenBackend_Unknown(t *testing.T) {
	_, err := OpenBackend("redis", t.TempDir())
	assert.Error(t, err)
}

func TestFileBackend_RejectsPathKeys(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../escape", "a/b", `a\b`, ""} {
		assert.Error(t, backend.Put(key, []byte("x")), "key %q", key)
	}
}
