// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for the advisor client.
//
// The whole conversation collection lives under one durable key, written
// through a Backend after every mutation.
//
// # Key Types
//
//   - ConversationStore: sole owner of conversation records (list, upsert, delete, find)
//   - Backend: key/value persistence (file, bbolt, sqlite, memory)
//
// # Usage
//
//	backend, err := storage.OpenBackend("bolt", dataDir)
//	store := storage.NewConversationStore(backend, storage.DefaultKey, logger)
//	err = store.Upsert(conv)
//	conv, err := store.Find(id)
//
// # Storage Location
//
// By default conversations are stored under ~/.advisor/data/.
package storage
