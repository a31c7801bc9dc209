// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/beauty-advisor/internal/client"
	"github.com/jeranaias/beauty-advisor/internal/model"
	"github.com/jeranaias/beauty-advisor/internal/storage"
)

// Completer produces the assistant's reply to newMessage given the prior
// messages of the conversation.
type Completer interface {
	RequestCompletion(ctx context.Context, history []model.Message, newMessage string) (string, error)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller holds one session's state. All methods are safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	working *model.Conversation

	// sending is the only concurrency guard: one outbound request at a time.
	sending atomic.Bool

	// deleted holds IDs removed in this session so an in-flight send cannot
	// write them back.
	deleted map[string]struct{}

	store     *storage.ConversationStore
	completer Completer
	log       zerolog.Logger
	now       func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l.With().Str("component", "session").Logger() }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController starts a session with an empty working conversation.
func NewController(store *storage.ConversationStore, completer Completer, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		completer: completer,
		deleted:   make(map[string]struct{}),
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.working = c.fresh()
	return c
}

func (c *Controller) fresh() *model.Conversation {
	conv := model.NewConversation()
	conv.Timestamp = c.now()
	return conv
}

// Active returns a copy of the working conversation.
func (c *Controller) Active() model.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.working.Clone()
}

// IsSending reports whether a request is in flight.
func (c *Controller) IsSending() bool {
	return c.sending.Load()
}

// =============================================================================
// NAVIGATION
// =============================================================================

// StartNew saves a non-empty working conversation, then replaces it with an
// empty one.
func (c *Controller) StartNew() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
	c.working = c.fresh()
}

// Load saves the working conversation and makes a copy of the stored record
// id the new working copy. An unknown id leaves the session untouched.
func (c *Controller) Load(id string) error {
	conv, err := c.store.Find(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
	c.working = &conv
	return nil
}

// ResumeLatest loads the most recently modified conversation. It returns
// false when there is nothing to resume.
func (c *Controller) ResumeLatest() bool {
	var latest *model.Conversation
	convs := c.store.List()
	for i := range convs {
		if latest == nil || convs[i].Timestamp.After(latest.Timestamp) {
			latest = &convs[i]
		}
	}
	if latest == nil {
		return false
	}
	return c.Load(latest.ID) == nil
}

// flushLocked upserts the working copy when it has messages. Callers hold c.mu.
func (c *Controller) flushLocked() {
	if c.working.IsEmpty() {
		return
	}
	if !c.working.IsSaved() {
		c.working.ID = model.NewID()
	}
	c.upsertLocked(c.working)
}

func (c *Controller) upsertLocked(conv *model.Conversation) {
	if err := c.store.Upsert(conv.Clone()); err != nil {
		c.log.Warn().Err(err).Str("conversation", conv.ID).Msg("conversation not persisted")
	}
}

// =============================================================================
// SENDING
// =============================================================================

// Send trims text and sends it as the next user message. Blank text returns
// ErrEmptyMessage and a send while another is in flight returns
// ErrSendInProgress; neither touches the conversation or the network.
//
// On success both messages are appended to the conversation the send started
// in, its title is derived on the first exchange, and it is saved. On failure
// nothing is appended or saved and the error is a *SendError.
func (c *Controller) Send(ctx context.Context, text string) (model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Message{}, ErrEmptyMessage
	}
	if !c.sending.CompareAndSwap(false, true) {
		return model.Message{}, ErrSendInProgress
	}
	defer c.sending.Store(false)

	c.mu.Lock()
	target := c.working
	history := target.Clone().Messages
	c.mu.Unlock()

	sentAt := c.now()
	reply, err := c.completer.RequestCompletion(ctx, history, text)
	if err != nil {
		c.log.Warn().Err(err).Int("history", len(history)).Msg("send failed")
		return model.Message{}, newSendError(err)
	}

	assistant := model.NewMessage(model.RoleAssistant, reply, c.now())

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, gone := c.deleted[target.ID]; gone && target.IsSaved() {
		c.log.Debug().Str("conversation", target.ID).Msg("conversation deleted during send; reply not saved")
		return assistant, nil
	}
	target.Append(model.NewMessage(model.RoleUser, text, sentAt), assistant)
	if !target.IsSaved() {
		target.ID = model.NewID()
	}
	c.upsertLocked(target)
	return assistant, nil
}

// =============================================================================
// HISTORY OPERATIONS
// =============================================================================

// ToggleFavorite flips the favorite flag of a stored conversation and mirrors
// it into the working copy when that conversation is active.
func (c *Controller) ToggleFavorite(id string) (bool, error) {
	at := c.now()
	updated, err := c.store.Update(id, func(conv *model.Conversation) {
		conv.SetFavorite(!conv.IsFavorite, at)
	})
	switch {
	case errors.Is(err, storage.ErrPersist):
		c.log.Warn().Err(err).Str("conversation", id).Msg("favorite not persisted")
	case err != nil:
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.working.ID == id {
		c.working.SetFavorite(updated.IsFavorite, updated.Timestamp)
	}
	return updated.IsFavorite, nil
}

// Delete removes a conversation. Deleting the active conversation starts a
// new one without saving the deleted copy back.
func (c *Controller) Delete(id string) error {
	if err := c.store.Delete(id); err != nil {
		c.log.Warn().Err(err).Str("conversation", id).Msg("delete not persisted")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if id != "" {
		c.deleted[id] = struct{}{}
	}
	if c.working.IsSaved() && c.working.ID == id {
		c.working = c.fresh()
	}
	return nil
}

// Search returns conversations matching query in history order. A blank
// query returns every conversation.
func (c *Controller) Search(query string) []model.Conversation {
	return model.SortForHistory(model.Filter(c.store.List(), query))
}

// History returns every conversation in history order.
func (c *Controller) History() []model.Conversation {
	return c.Search("")
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyMessage is returned for blank input. Nothing is sent.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrSendInProgress is returned while another send is in flight.
	ErrSendInProgress = errors.New("a message is already being sent")
)

// User-facing notices for failed sends.
const (
	NoticeSendFailed    = "Sorry, I encountered an error. Please try again."
	NoticeNotConfigured = "The advisor is not configured. Set proxy.endpoint in your config file or ADVISOR_ENDPOINT."
)

// SendError is a failed send. Notice is safe to show to the user.
type SendError struct {
	Notice string
	Err    error
}

func newSendError(err error) *SendError {
	notice := NoticeSendFailed
	if errors.Is(err, client.ErrNotConfigured) {
		notice = NoticeNotConfigured
	}
	return &SendError{Notice: notice, Err: err}
}

// Error implements the error interface.
func (e *SendError) Error() string {
	return "send: " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *SendError) Unwrap() error {
	return e.Err
}

// Notice returns the user-facing text for err, or "" when err is not a send
// failure.
func Notice(err error) string {
	var se *SendError
	if errors.As(err, &se) {
		return se.Notice
	}
	return ""
}
