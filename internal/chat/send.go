// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/madlen-ai/madlen-chat/internal/api"
	"github.com/madlen-ai/madlen-chat/internal/model"
)

// Send posts the pending input (and image, if any) to the active session.
//
// The user message is appended before the request is issued and is never
// rolled back. On success the reply is appended; on failure an assistant
// message explaining the failure is appended instead. Loading is cleared
// on every path.
//
// Send returns ErrNoSession, ErrBusy or ErrEmptyInput without issuing a
// request when its preconditions do not hold. Backend failures are not
// returned; they are reported in the transcript.
func (c *Controller) Send(ctx context.Context) error {
	return c.send(ctx, nil)
}

// SendText replaces the pending input with text and sends it. The input is
// set and the preconditions are checked under one lock, so a concurrent
// SetInput or SendText cannot swap the text before it is sent. When a
// precondition fails the text stays in the input, as with SetInput.
func (c *Controller) SendText(ctx context.Context, text string) error {
	return c.send(ctx, &text)
}

func (c *Controller) send(ctx context.Context, text *string) error {
	c.mu.Lock()
	if text != nil {
		c.state.Input = *text
	}
	switch {
	case !c.state.HasSession:
		c.mu.Unlock()
		return ErrNoSession
	case c.state.Loading:
		c.mu.Unlock()
		return ErrBusy
	case strings.TrimSpace(c.state.Input) == "" && c.state.PendingImage == "":
		c.mu.Unlock()
		return ErrEmptyInput
	}

	userMsg := model.NewUserMessage(c.state.Input, c.state.PendingImage)
	c.state.Messages = append(c.state.Messages, userMsg)
	req := api.ChatRequest{
		ModelID:   c.state.SelectedModel,
		SessionID: c.state.SessionID,
		Messages:  append([]model.Message(nil), c.state.Messages...),
	}
	c.state.Input = ""
	c.state.PendingImage = ""
	c.state.PendingImageName = ""
	c.state.Loading = true
	epoch := c.epoch
	c.mu.Unlock()

	defer c.finishSend()

	c.logger.Info("sending message",
		zap.String("model", req.ModelID),
		zap.Int64("session", req.SessionID),
		zap.Int("turns", len(req.Messages)),
		zap.Bool("image", userMsg.Content.IsMultipart()))

	reply, err := c.exchange(ctx, req)
	if err != nil {
		c.logger.Warn("chat request failed",
			zap.String("model", req.ModelID),
			zap.Int64("session", req.SessionID),
			zap.Int("status", api.StatusCode(err)),
			zap.Error(err))
		reply = model.NewAssistantMessage(FailureText(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		c.logger.Debug("discarding reply for replaced transcript", zap.Int64("session", req.SessionID))
		return nil
	}
	c.state.Messages = append(c.state.Messages, reply)
	return nil
}

func (c *Controller) exchange(ctx context.Context, req api.ChatRequest) (model.Message, error) {
	resp, err := c.backend.Chat(ctx, req)
	if err != nil {
		return model.Message{}, err
	}
	return resp.Reply()
}

func (c *Controller) finishSend() {
	c.mu.Lock()
	c.state.Loading = false
	c.mu.Unlock()
}
