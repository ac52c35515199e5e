// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// OPERATION MESSAGES
// =============================================================================

// opKind names a controller operation run as a command.
type opKind int

const (
	opBootstrap opKind = iota
	opRefresh
	opCreateSession
	opSelectSession
	opSelectModel
	opAttach
)

// opDoneMsg is sent when a controller operation returns.
type opDoneMsg struct {
	op     opKind
	detail string
	err    error
}

// sendDoneMsg is sent when Send returns. text is the input that was sent,
// restored into the input box if the send was refused.
type sendDoneMsg struct {
	text string
	err  error
}

// copyDoneMsg is sent after a clipboard write.
type copyDoneMsg struct {
	err error
}

// =============================================================================
// COMMAND HELPERS
// =============================================================================

// runOp wraps a blocking controller call as a command.
func runOp(op opKind, detail string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: op, detail: detail, err: fn()}
	}
}
