// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the chat view controller.
//
// The Controller is the single owner of the client state and mutates it only
// through named operations. Views (the Bubble Tea program, the line REPL)
// call operations and render Snapshot().
//
// # Key Types
//
//   - Controller: state owner; every operation is safe to call from any goroutine
//   - State: copy of models, sessions, transcript, input, pending image and loading flag
//   - Backend: the five backend calls, satisfied by *api.Client
//
// # Send Lifecycle
//
// Send is gated by the loading flag, so at most one chat request is
// outstanding. The user's message is appended before the request and never
// rolled back. The reply, or an assistant message explaining the failure,
// is appended afterwards unless the transcript was replaced in the meantime
// (session or model switch).
//
// # Usage
//
//	ctrl := chat.New(api.NewClient(url), chat.Options{Logger: logger})
//	_ = ctrl.Bootstrap(ctx)
//	if _, err := ctrl.CreateSession(ctx, ""); err != nil {
//	    return err
//	}
//	ctrl.SetInput("Hello")
//	_ = ctrl.Send(ctx)
//	for _, m := range ctrl.Snapshot().Messages {
//	    fmt.Println(m.Role, m.Content.Text())
//	}
package chat
