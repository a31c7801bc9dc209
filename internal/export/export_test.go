// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/beauty-advisor/internal/model"
)

var (
	sent     = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)
	exported = time.Date(2025, 4, 3, 10, 0, 0, 0, time.UTC)
)

func testConversation() *model.Conversation {
	conv := model.NewConversation()
	conv.ID = "c-1"
	conv.Append(
		model.NewMessage(model.RoleUser, "Best toner for dry skin?", sent),
		model.NewMessage(model.RoleAssistant, "Look for an alcohol-free, hydrating toner.", sent.Add(time.Minute)),
	)
	conv.IsFavorite = true
	return conv
}

func testOptions(dir string) *Options {
	opts := DefaultOptions()
	opts.OutputDir = dir
	opts.Now = func() time.Time { return exported }
	return opts
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(testOptions("")).Export(testConversation())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\ntitle: Best toner for dry skin?\n"))
	assert.Contains(t, md, "favorite: true\n")
	assert.Contains(t, md, "messages: 2\n")
	assert.Contains(t, md, "# Best toner for dry skin?\n")
	assert.Contains(t, md, "### You <sub>Apr 2, 9:30 AM</sub>")
	assert.Contains(t, md, "### Advisor <sub>Apr 2, 9:31 AM</sub>")
	assert.Contains(t, md, "Look for an alcohol-free, hydrating toner.")
	assert.Contains(t, md, "*Exported from Beauty Advisor on April 3, 2025 at 10:00 AM*")
}

func TestMarkdownExport_NoMetadata(t *testing.T) {
	opts := testOptions("")
	opts.IncludeMetadata = false
	opts.IncludeTimestamps = false

	out, err := NewMarkdownExporter(opts).Export(testConversation())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "# Best toner"))
	assert.Contains(t, md, "### You\n")
	assert.NotContains(t, md, "<sub>")
}

func TestMarkdownExport_EscapesTitle(t *testing.T) {
	conv := testConversation()
	conv.Title = "Line one\ninjected: value #tag"

	out, err := NewMarkdownExporter(testOptions("")).Export(conv)
	require.NoError(t, err)
	assert.Contains(t, string(out), `title: "Line one\ninjected: value #tag"`)
	assert.Contains(t, string(out), `\#tag`)
}

func TestExport_Errors(t *testing.T) {
	_, err := NewMarkdownExporter(nil).Export(nil)
	assert.ErrorIs(t, err, ErrNilConversation)

	_, err = NewMarkdownExporter(nil).Export(model.NewConversation())
	assert.ErrorIs(t, err, ErrEmptyConversation)

	_, err = NewJSONExporter(nil).Export(nil)
	assert.ErrorIs(t, err, ErrNilConversation)

	_, err = ForFormat("pdf", nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestJSONExport_RoundTrip(t *testing.T) {
	conv := testConversation()
	out, err := NewJSONExporter(nil).Export(conv)
	require.NoError(t, err)

	var back model.Conversation
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, conv.ID, back.ID)
	assert.Equal(t, conv.Title, back.Title)
	assert.True(t, back.IsFavorite)
	assert.Len(t, back.Messages, 2)
	assert.Contains(t, string(out), `"isFavorite": true`)
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(filepath.Join(dir, "exports"))

	for _, format := range Formats() {
		exporter, err := ForFormat(format, opts)
		require.NoError(t, err)

		path, err := ExportToFile(testConversation(), exporter, opts)
		require.NoError(t, err)
		assert.Equal(t, "conversation_Best_toner_for_dry_skin-_20250403_100000"+exporter.FileExtension(), filepath.Base(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c_d", sanitizeFilename("a/b:c d"))
	assert.Equal(t, "conversation", sanitizeFilename(""))
	assert.Equal(t, 50, len([]rune(sanitizeFilename(strings.Repeat("x", 80)))))
}
