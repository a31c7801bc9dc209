// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history implements the interactive conversation browser: a
// Bubble Tea program listing saved conversations, favorites first, with
// live search, favorite toggling, deletion and selection.
//
// Every action goes through a session.Dispatcher, so the browser and the
// chat REPL share one event table.
package history
