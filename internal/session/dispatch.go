// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jeranaias/beauty-advisor/internal/model"
)

// Action names a UI event.
type Action string

const (
	ActionSend     Action = "send"
	ActionNewChat  Action = "new"
	ActionLoad     Action = "load"
	ActionFavorite Action = "favorite"
	ActionDelete   Action = "delete"
	ActionSearch   Action = "search"
	ActionHistory  Action = "history"
	ActionSuggest  Action = "suggest"
)

// Event is one UI interaction. Arg carries the text, id, query or index the
// action needs.
type Event struct {
	Action Action
	Arg    string
}

// Outcome is what the UI needs to re-render after an event.
type Outcome struct {
	// Reply is set after a successful send.
	Reply *model.Message

	// Conversations is set by search and history.
	Conversations []model.Conversation

	// Active is the working conversation after the event.
	Active model.Conversation

	// Favorite is the new flag after a favorite toggle.
	Favorite bool
}

// HandlerFunc handles one event.
type HandlerFunc func(ctx context.Context, arg string) (Outcome, error)

var (
	// ErrUnknownAction is returned for events with no registered handler.
	ErrUnknownAction = errors.New("unknown action")

	// ErrMissingArgument is returned when an action needs an id or index.
	ErrMissingArgument = errors.New("missing argument")
)

// Dispatcher routes UI events to Controller operations through a fixed table.
type Dispatcher struct {
	ctrl        *Controller
	suggestions []string
	handlers    map[Action]HandlerFunc
}

// NewDispatcher builds the event table for ctrl. suggestions are the starter
// questions reachable through ActionSuggest.
func NewDispatcher(ctrl *Controller, suggestions []string) *Dispatcher {
	d := &Dispatcher{ctrl: ctrl, suggestions: suggestions}
	d.handlers = map[Action]HandlerFunc{
		ActionSend:     d.send,
		ActionNewChat:  d.newChat,
		ActionLoad:     d.load,
		ActionFavorite: d.favorite,
		ActionDelete:   d.delete,
		ActionSearch:   d.search,
		ActionHistory:  d.history,
		ActionSuggest:  d.suggest,
	}
	return d
}

// Dispatch runs the handler registered for ev.Action.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (Outcome, error) {
	h, ok := d.handlers[ev.Action]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAction, ev.Action)
	}
	return h(ctx, strings.TrimSpace(ev.Arg))
}

// Actions lists the registered actions in name order.
func (d *Dispatcher) Actions() []Action {
	out := make([]Action, 0, len(d.handlers))
	for a := range d.handlers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Suggestions returns the configured starter questions.
func (d *Dispatcher) Suggestions() []string {
	return d.suggestions
}

// Controller returns the controller events are routed to.
func (d *Dispatcher) Controller() *Controller {
	return d.ctrl
}

func (d *Dispatcher) outcome() Outcome {
	return Outcome{Active: d.ctrl.Active()}
}

func (d *Dispatcher) send(ctx context.Context, text string) (Outcome, error) {
	reply, err := d.ctrl.Send(ctx, text)
	out := d.outcome()
	if err != nil {
		return out, err
	}
	out.Reply = &reply
	return out, nil
}

func (d *Dispatcher) newChat(context.Context, string) (Outcome, error) {
	d.ctrl.StartNew()
	return d.outcome(), nil
}

func (d *Dispatcher) load(_ context.Context, id string) (Outcome, error) {
	if id == "" {
		return d.outcome(), ErrMissingArgument
	}
	err := d.ctrl.Load(id)
	return d.outcome(), err
}

func (d *Dispatcher) favorite(_ context.Context, id string) (Outcome, error) {
	if id == "" {
		id = d.ctrl.Active().ID
	}
	if id == "" {
		return d.outcome(), ErrMissingArgument
	}
	fav, err := d.ctrl.ToggleFavorite(id)
	out := d.outcome()
	out.Favorite = fav
	return out, err
}

func (d *Dispatcher) delete(_ context.Context, id string) (Outcome, error) {
	if id == "" {
		return d.outcome(), ErrMissingArgument
	}
	err := d.ctrl.Delete(id)
	return d.outcome(), err
}

func (d *Dispatcher) search(_ context.Context, query string) (Outcome, error) {
	out := d.outcome()
	out.Conversations = d.ctrl.Search(query)
	return out, nil
}

func (d *Dispatcher) history(ctx context.Context, _ string) (Outcome, error) {
	return d.search(ctx, "")
}

func (d *Dispatcher) suggest(ctx context.Context, arg string) (Outcome, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(d.suggestions) {
		return d.outcome(), fmt.Errorf("%w: suggestion number between 1 and %d", ErrMissingArgument, len(d.suggestions))
	}
	return d.send(ctx, d.suggestions[n-1])
}
