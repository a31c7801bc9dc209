// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session mediates between user input, the conversation store and the
// advisor client.
//
// A Controller owns the state of one chat session: the working copy of the
// active conversation and the guard that keeps at most one request in flight.
// There is no package-level state; each UI creates its own Controller.
//
// # Key Types
//
//   - Controller: session state and the operations on it
//   - Dispatcher: table mapping UI events to Controller operations
//   - SendError: failed send carrying the user-facing notice
//
// # Usage
//
//	ctrl := session.NewController(store, advisorClient, session.WithLogger(log))
//	disp := session.NewDispatcher(ctrl, cfg.UI.Suggestions)
//	out, err := disp.Dispatch(ctx, session.Event{Action: session.ActionSend, Arg: line})
package session
