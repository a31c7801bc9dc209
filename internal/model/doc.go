// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: a titled, timestamped, ordered list of exchanged messages
//   - Message: a single message with role, content and timestamp
//   - Role: message role enumeration (user, assistant, system)
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.Append(model.NewMessage(model.RoleUser, "What foundation suits oily skin?", time.Now()))
//
//	list := model.SortForHistory(model.Filter(all, "serum"))
package model
