// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the advisor command tree.
//
// # Commands Overview
//
//   - chat: interactive chat REPL (default when no command is given)
//   - history: list, search and browse saved conversations
//   - show, favorite, delete, export: act on one saved conversation
//   - config: show, initialize or locate the client configuration
//   - proxy serve: run the advisor proxy service
//
// Conversations can be referred to by their position in the last listing
// (REPL only), by full ID or by a unique ID prefix.
package cli
