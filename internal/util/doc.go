// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the advisor packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with an ellipsis marker
//   - SingleLine: collapse newlines and runs of whitespace for one-line display
//   - RuneLen: character count used for length limits
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.TruncateRunes(util.SingleLine(text), 50)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
