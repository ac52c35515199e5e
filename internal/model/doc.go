// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions, messages and models.
//
// These are the wire types shared by the backend client, the chat
// controller, the gateway and its store.
//
// # Key Types
//
//   - Message: a single conversation turn with a role and content
//   - Content: tagged union of plain text or an ordered list of parts
//   - Part: one typed content part (text or image_url)
//   - ModelInfo: a selectable inference model (id, display name)
//   - Session: a server-persisted conversation thread
//
// # Usage
//
// Plain text and multi-modal messages:
//
//	msg := model.NewUserMessage("Hello", "")
//	img := model.NewUserMessage("What is in this picture?", "data:image/png;base64,...")
//
// Content marshals to a JSON string for text and to an array of
// {"type": ...} objects for parts, matching the OpenAI chat format.
package model
