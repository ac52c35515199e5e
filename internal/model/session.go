// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions, messages and models.
package model

import "time"

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo describes a selectable inference model.
type ModelInfo struct {
	// ID is the opaque identifier sent as model_id in chat requests
	ID string `json:"id"`

	// Name is the human-readable display label
	Name string `json:"name"`

	// ContextLength is the context window size, when the backend reports it
	ContextLength int `json:"context_length,omitempty"`
}

// DisplayName returns Name, falling back to ID.
func (m ModelInfo) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is a named, server-persisted conversation thread.
type Session struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// FindSession returns the session with the given id.
func FindSession(sessions []Session, id int64) (Session, bool) {
	for _, s := range sessions {
		if s.ID == id {
			return s, true
		}
	}
	return Session{}, false
}

// FindModel returns the model with the given id.
func FindModel(models []ModelInfo, id string) (ModelInfo, bool) {
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}
