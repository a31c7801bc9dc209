// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/beauty-advisor/internal/model"
	"github.com/jeranaias/beauty-advisor/internal/session"
	"github.com/jeranaias/beauty-advisor/internal/ui/styles"
	"github.com/jeranaias/beauty-advisor/internal/util"
)

// =============================================================================
// HISTORY BROWSER
// =============================================================================

// Browser is a Bubble Tea model over the saved conversations.
type Browser struct {
	dispatcher *session.Dispatcher
	ctx        context.Context
	now        func() time.Time

	// Search field, focused with "/"
	input     textinput.Model
	searching bool

	items  []model.Conversation
	cursor int

	// Set after "d" until the user answers y or n
	confirmDelete bool

	status   string
	selected string
	width    int
	height   int
	quitting bool
}

// Option customizes a Browser.
type Option func(*Browser)

// WithClock sets the clock used for relative dates.
func WithClock(now func() time.Time) Option {
	return func(b *Browser) { b.now = now }
}

// WithContext sets the context passed to dispatched events.
func WithContext(ctx context.Context) Option {
	return func(b *Browser) { b.ctx = ctx }
}

// New creates a browser backed by d and loads the full history.
func New(d *session.Dispatcher, opts ...Option) *Browser {
	ti := textinput.New()
	ti.Placeholder = "Search conversations..."
	ti.Prompt = "/ "
	ti.CharLimit = 100
	ti.Width = 40
	ti.PromptStyle = lipgloss.NewStyle().Foreground(styles.Plum).Bold(true)
	ti.PlaceholderStyle = styles.Help

	b := &Browser{
		dispatcher: d,
		ctx:        context.Background(),
		now:        time.Now,
		input:      ti,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.refresh()
	return b
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init implements tea.Model.
func (b *Browser) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
		return b, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			b.quitting = true
			return b, tea.Quit
		}
		if b.searching {
			return b.updateSearch(msg)
		}
		if b.confirmDelete {
			return b.updateConfirm(msg)
		}
		return b.updateList(msg)
	}
	return b, nil
}

func (b *Browser) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		b.searching = false
		b.input.Blur()
		return b, nil
	case tea.KeyEsc:
		b.searching = false
		b.input.Blur()
		b.input.Reset()
		b.refresh()
		return b, nil
	}

	var cmd tea.Cmd
	previous := b.input.Value()
	b.input, cmd = b.input.Update(msg)
	if b.input.Value() != previous {
		b.refresh()
		b.cursor = 0
	}
	return b, cmd
}

func (b *Browser) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	b.confirmDelete = false
	if msg.String() != "y" {
		b.status = "Delete cancelled"
		return b, nil
	}
	conv, ok := b.current()
	if !ok {
		return b, nil
	}
	if _, err := b.dispatcher.Dispatch(b.ctx, session.Event{Action: session.ActionDelete, Arg: conv.ID}); err != nil {
		b.status = "Delete failed: " + err.Error()
	} else {
		b.status = fmt.Sprintf("Deleted %q", conv.Title)
	}
	b.refresh()
	return b, nil
}

func (b *Browser) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		b.quitting = true
		return b, tea.Quit
	case "esc":
		if b.input.Value() != "" {
			b.input.Reset()
			b.refresh()
			return b, nil
		}
		b.quitting = true
		return b, tea.Quit
	case "up", "k":
		if b.cursor > 0 {
			b.cursor--
		}
	case "down", "j":
		if b.cursor < len(b.items)-1 {
			b.cursor++
		}
	case "/":
		b.searching = true
		b.status = ""
		return b, b.input.Focus()
	case "f":
		b.toggleFavorite()
	case "d":
		if _, ok := b.current(); ok {
			b.confirmDelete = true
			b.status = "Delete this conversation? (y/n)"
		}
	case "enter":
		conv, ok := b.current()
		if !ok {
			return b, nil
		}
		if _, err := b.dispatcher.Dispatch(b.ctx, session.Event{Action: session.ActionLoad, Arg: conv.ID}); err != nil {
			b.status = "Could not open: " + err.Error()
			return b, nil
		}
		b.selected = conv.ID
		b.quitting = true
		return b, tea.Quit
	}
	return b, nil
}

// View implements tea.Model.
func (b *Browser) View() string {
	if b.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(styles.Title.Render("Conversation History"))
	sb.WriteString("\n")
	if b.searching || b.input.Value() != "" {
		sb.WriteString(b.input.View())
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if len(b.items) == 0 {
		if b.input.Value() != "" {
			sb.WriteString(styles.Muted.Render("No conversations match your search."))
		} else {
			sb.WriteString(styles.Muted.Render("No conversations yet. Start chatting!"))
		}
		sb.WriteString("\n")
	}

	width := b.width
	if width <= 0 {
		width = 80
	}
	now := b.now()
	for i, conv := range b.items {
		sb.WriteString(b.renderItem(conv, i == b.cursor, width, now))
		sb.WriteString("\n")
	}

	if b.status != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.Warning.Render(b.status))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(styles.Help.Render("Up/Down navigate | Enter open | / search | f favorite | d delete | q quit"))
	return sb.String()
}

func (b *Browser) renderItem(conv model.Conversation, selected bool, width int, now time.Time) string {
	mark := " "
	if conv.IsFavorite {
		mark = styles.Favorite.Render(styles.FavoriteMark)
	}
	indicator := "  "
	if selected {
		indicator = "> "
	}
	date := RelativeDate(conv.Timestamp, now)

	titleWidth := width - lipgloss.Width(indicator) - lipgloss.Width(date) - 4
	if titleWidth < 10 {
		titleWidth = 10
	}
	line := fmt.Sprintf("%s%s %s  %s", indicator, mark,
		util.TruncateRunes(util.SingleLine(conv.Title), titleWidth), styles.Muted.Render(date))
	if selected {
		line = styles.Selected.Render(line)
	}
	if preview := conv.Preview(); preview != "" {
		line += "\n      " + styles.Muted.Render(preview)
	}
	return line
}

// =============================================================================
// INTERNAL METHODS
// =============================================================================

func (b *Browser) refresh() {
	out, err := b.dispatcher.Dispatch(b.ctx, session.Event{Action: session.ActionSearch, Arg: b.input.Value()})
	if err != nil {
		b.status = err.Error()
		return
	}
	b.items = out.Conversations
	if b.cursor >= len(b.items) {
		b.cursor = len(b.items) - 1
	}
	if b.cursor < 0 {
		b.cursor = 0
	}
}

func (b *Browser) current() (model.Conversation, bool) {
	if b.cursor < 0 || b.cursor >= len(b.items) {
		return model.Conversation{}, false
	}
	return b.items[b.cursor], true
}

func (b *Browser) toggleFavorite() {
	conv, ok := b.current()
	if !ok {
		return
	}
	out, err := b.dispatcher.Dispatch(b.ctx, session.Event{Action: session.ActionFavorite, Arg: conv.ID})
	if err != nil {
		b.status = "Favorite failed: " + err.Error()
		return
	}
	if out.Favorite {
		b.status = "Added to favorites"
	} else {
		b.status = "Removed from favorites"
	}
	b.refresh()
	// Keep the cursor on the same conversation after re-sorting.
	for i, c := range b.items {
		if c.ID == conv.ID {
			b.cursor = i
			break
		}
	}
}

// =============================================================================
// PUBLIC METHODS
// =============================================================================

// Selected returns the ID of the conversation opened with Enter, or "".
func (b *Browser) Selected() string {
	return b.selected
}

// Items returns the conversations currently listed.
func (b *Browser) Items() []model.Conversation {
	return b.items
}

// Cursor returns the highlighted row.
func (b *Browser) Cursor() int {
	return b.cursor
}

// Run shows the browser full screen until the user quits or opens a
// conversation, and returns the opened conversation's ID.
func Run(ctx context.Context, d *session.Dispatcher, opts ...Option) (string, error) {
	b := New(d, append([]Option{WithContext(ctx)}, opts...)...)
	final, err := tea.NewProgram(b, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return "", fmt.Errorf("history browser: %w", err)
	}
	return final.(*Browser).Selected(), nil
}
