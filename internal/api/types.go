// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "github.com/madlen-ai/madlen-chat/internal/model"

// =============================================================================
// WIRE TYPES
// =============================================================================

// ModelsResponse is the body of GET /models.
type ModelsResponse struct {
	Models []model.ModelInfo `json:"models"`
}

// SessionsResponse is the body of GET /sessions.
type SessionsResponse struct {
	Sessions []model.Session `json:"sessions"`
}

// MessagesResponse is the body of GET /sessions/{id}/messages.
type MessagesResponse struct {
	Messages []model.Message `json:"messages"`
}

// ChatRequest is the body of POST /chat. Messages is the full transcript
// including the newest user turn.
type ChatRequest struct {
	ModelID   string          `json:"model_id"`
	SessionID int64           `json:"session_id,omitempty"`
	Messages  []model.Message `json:"messages"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int           `json:"index"`
	Message      model.Message `json:"message"`
	FinishReason string        `json:"finish_reason,omitempty"`
}

// Usage reports token counts when the upstream provides them.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	ID      string   `json:"id,omitempty"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Reply returns the first choice's message.
func (r *ChatResponse) Reply() (model.Message, error) {
	if r == nil || len(r.Choices) == 0 {
		return model.Message{}, ErrEmptyReply
	}
	msg := r.Choices[0].Message
	if msg.Role == "" {
		msg.Role = model.RoleAssistant
	}
	return msg, nil
}
