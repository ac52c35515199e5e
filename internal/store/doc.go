// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists gateway sessions and transcripts in SQLite using
// the pure-Go modernc.org/sqlite driver.
//
// # Key Types
//
//   - Store: session and message persistence
//   - ErrNotFound: returned for unknown session ids
//
// # Usage
//
//	st, err := store.Open("~/.madlen/madlen.db", logger)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	sess, _ := st.CreateSession(ctx, "Trip planning", "New Chat")
//	_ = st.AppendMessages(ctx, sess.ID, model.NewUserMessage("Hi", ""))
package store
