// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a saved conversation to a file.
//
// # Supported Formats
//
//   - Markdown: readable transcript with a YAML front matter header
//   - JSON: the stored conversation record, indented
//
// # Usage
//
//	exporter, err := export.ForFormat("markdown", nil)
//	path, err := export.ExportToFile(&conv, exporter, opts)
package export
