// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/beauty-advisor/internal/model"
	"github.com/jeranaias/beauty-advisor/internal/session"
	"github.com/jeranaias/beauty-advisor/internal/storage"
)

var now = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

type noopCompleter struct{}

func (noopCompleter) RequestCompletion(context.Context, []model.Message, string) (string, error) {
	return "ok", nil
}

func saved(id, question string, age time.Duration, fav bool) model.Conversation {
	c := model.NewConversation()
	c.ID = id
	at := now.Add(-age)
	c.Append(
		model.NewMessage(model.RoleUser, question, at),
		model.NewMessage(model.RoleAssistant, "answer", at),
	)
	c.IsFavorite = fav
	return *c
}

func newTestBrowser(t *testing.T) (*Browser, *storage.ConversationStore) {
	t.Helper()
	store := storage.NewConversationStore(storage.NewMemoryBackend(), storage.DefaultKey, zerolog.Nop())
	for _, c := range []model.Conversation{
		saved("a", "Best toner for dry skin?", 3*time.Hour, false),
		saved("b", "How do I pick a lipstick shade?", 2*day, false),
		saved("c", "Night cream recommendations", 10*day, true),
	} {
		require.NoError(t, store.Upsert(c))
	}
	ctrl := session.NewController(store, noopCompleter{}, session.WithClock(func() time.Time { return now }))
	d := session.NewDispatcher(ctrl, nil)
	return New(d, WithClock(func() time.Time { return now })), store
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(b *Browser, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = b.Update(key(k))
	}
	return cmd
}

func ids(convs []model.Conversation) []string {
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.ID
	}
	return out
}

func TestBrowser_ListsFavoritesFirst(t *testing.T) {
	b, _ := newTestBrowser(t)

	assert.Equal(t, []string{"c", "a", "b"}, ids(b.Items()))

	view := b.View()
	assert.Contains(t, view, "Conversation History")
	assert.Contains(t, view, "Best toner for dry skin?")
	assert.Contains(t, view, "Today")
	assert.Contains(t, view, "2 days ago")
}

func TestBrowser_Navigation(t *testing.T) {
	b, _ := newTestBrowser(t)

	press(b, "down", "down", "down")
	assert.Equal(t, 2, b.Cursor())
	press(b, "k")
	assert.Equal(t, 1, b.Cursor())
	press(b, "up", "up")
	assert.Equal(t, 0, b.Cursor())
}

func TestBrowser_Search(t *testing.T) {
	b, _ := newTestBrowser(t)

	press(b, "/", "t", "o", "n", "e", "r")
	assert.Equal(t, []string{"a"}, ids(b.Items()))

	press(b, "enter")
	assert.Equal(t, []string{"a"}, ids(b.Items()), "enter keeps the filter")

	press(b, "esc")
	assert.Len(t, b.Items(), 3, "esc in the list clears the filter")
}

func TestBrowser_SearchNoMatch(t *testing.T) {
	b, _ := newTestBrowser(t)

	press(b, "/", "z", "z", "z")
	assert.Empty(t, b.Items())
	assert.Contains(t, b.View(), "No conversations match your search.")
}

func TestBrowser_ToggleFavorite(t *testing.T) {
	b, store := newTestBrowser(t)

	press(b, "j", "f")
	got, err := store.Find("a")
	require.NoError(t, err)
	assert.True(t, got.IsFavorite)
	assert.Equal(t, "a", b.Items()[b.Cursor()].ID, "cursor follows the conversation")
	assert.Contains(t, b.View(), "Added to favorites")
}

func TestBrowser_DeleteNeedsConfirmation(t *testing.T) {
	b, store := newTestBrowser(t)

	press(b, "d", "n")
	assert.Equal(t, 3, store.Len())

	press(b, "d", "y")
	assert.Equal(t, 2, store.Len())
	_, err := store.Find("c")
	assert.ErrorIs(t, err, storage.ErrConversationNotFound)
	assert.Equal(t, []string{"a", "b"}, ids(b.Items()))
}

func TestBrowser_EnterSelects(t *testing.T) {
	b, _ := newTestBrowser(t)

	press(b, "j")
	cmd := press(b, "enter")
	require.NotNil(t, cmd)
	assert.Equal(t, "a", b.Selected())
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, b.View())
}

func TestBrowser_QuitWithoutSelection(t *testing.T) {
	b, _ := newTestBrowser(t)

	cmd := press(b, "q")
	require.NotNil(t, cmd)
	assert.Empty(t, b.Selected())
}

func TestBrowser_Empty(t *testing.T) {
	store := storage.NewConversationStore(storage.NewMemoryBackend(), storage.DefaultKey, zerolog.Nop())
	d := session.NewDispatcher(session.NewController(store, noopCompleter{}), nil)
	b := New(d)

	assert.Contains(t, b.View(), "No conversations yet")
	press(b, "enter", "f", "d")
	assert.Empty(t, b.Selected())
}

func TestRelativeDate(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{0, "Today"},
		{23 * time.Hour, "Today"},
		{25 * time.Hour, "Yesterday"},
		{3 * day, "3 days ago"},
		{6*day + 23*time.Hour, "6 days ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RelativeDate(now.Add(-tt.age), now), tt.age.String())
	}

	old := time.Date(2025, 1, 15, 12, 0, 0, 0, time.Local)
	assert.Equal(t, "Jan 15", RelativeDate(old, now))
}
