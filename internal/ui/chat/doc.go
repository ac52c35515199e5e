// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat view.
//
// The screen is a thin Bubble Tea shell over the chat controller: every
// backend call runs as a command against the controller, and the screen
// re-reads the controller's snapshot when a call returns and on each
// spinner tick while work is outstanding. The optimistic user message is
// therefore visible while a reply is pending.
//
// # Layout
//
//	┌ header: app title · model · session ─────────────────────┐
//	│ sessions │ transcript (viewport)                          │
//	│          │                                                │
//	├──────────┴────────────────────────────────────────────────┤
//	│ > input                                                   │
//	└ status / attachment ──────────────────────────────────────┘
//
// The sidebar is hidden below 80 columns.
//
// # Key Bindings
//
//   - Enter: send the input (and attached image)
//   - C-n: new chat (prompts for a title)
//   - C-s / C-p: session and model pickers
//   - C-a / C-x: attach or drop an image
//   - C-y: copy the last code block of the last reply
//   - C-r: refresh models and sessions
//   - PgUp / PgDn: scroll, F1: help, C-c: quit
//
// # Usage
//
//	ctrl := chatctl.New(apiClient, chatctl.Options{Logger: logger})
//	if err := chat.Run(ctx, ctrl, chat.Options{Theme: "auto"}); err != nil {
//		return err
//	}
package chat
