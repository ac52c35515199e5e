// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/madlen-ai/madlen-chat/internal/api"
)

// Precondition failures. None of them issues a request or changes state.
var (
	ErrNoSession     = errors.New("no active session")
	ErrBusy          = errors.New("a message is already being sent")
	ErrEmptyInput    = errors.New("nothing to send")
	ErrImageTooLarge = errors.New("image must be smaller than 5 MB")
	ErrNotImage      = errors.New("file is not a supported image")
	ErrUnknownModel  = errors.New("unknown model")
)

// Texts shown in place of a reply when a send fails.
const (
	RateLimitText = "⚠️ Rate limit reached: this free model is receiving too many requests right now. " +
		"Wait a minute and try again, or switch to another model."
	UnsupportedModelText = "⚠️ This model cannot handle the request. It may not accept images or may no longer be available. " +
		"Pick a different model and try again."
	errorTextPrefix = "⚠️ Error: "
)

// FailureText converts a failed send into the text of the assistant bubble
// that replaces the reply.
func FailureText(err error) string {
	switch {
	case api.IsRateLimited(err):
		return RateLimitText
	case api.IsModelUnsupported(err):
		return UnsupportedModelText
	default:
		return errorTextPrefix + api.Detail(err)
	}
}

// IsFailureText reports whether an assistant message text was produced by
// FailureText rather than by the model.
func IsFailureText(text string) bool {
	return text == RateLimitText || text == UnsupportedModelText || strings.HasPrefix(text, errorTextPrefix)
}
