// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/madlen-ai/madlen-chat/internal/api"
	"github.com/madlen-ai/madlen-chat/internal/model"
)

// fakeBackend is an in-memory Backend that records calls.
type fakeBackend struct {
	mu sync.Mutex

	models      []model.ModelInfo
	modelsErr   error
	sessions    []model.Session
	sessionsErr error
	createErr   error
	messagesErr error
	transcripts map[int64][]model.Message
	nextID      int64

	// chatFn answers Chat; defaults to echoing "reply".
	chatFn func(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)

	chatRequests []api.ChatRequest
	calls        map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		transcripts: map[int64][]model.Message{},
		nextID:      100,
		calls:       map[string]int{},
	}
}

func (f *fakeBackend) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ListModels"]++
	if f.modelsErr != nil {
		return nil, f.modelsErr
	}
	return append([]model.ModelInfo(nil), f.models...), nil
}

func (f *fakeBackend) ListSessions(ctx context.Context) ([]model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ListSessions"]++
	if f.sessionsErr != nil {
		return nil, f.sessionsErr
	}
	return append([]model.Session(nil), f.sessions...), nil
}

func (f *fakeBackend) CreateSession(ctx context.Context, title string) (model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateSession"]++
	if f.createErr != nil {
		return model.Session{}, f.createErr
	}
	f.nextID++
	s := model.Session{ID: f.nextID, Title: title}
	f.sessions = append([]model.Session{s}, f.sessions...)
	return s, nil
}

func (f *fakeBackend) SessionMessages(ctx context.Context, id int64) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["SessionMessages"]++
	if f.messagesErr != nil {
		return nil, f.messagesErr
	}
	msgs, ok := f.transcripts[id]
	if !ok {
		if _, listed := model.FindSession(f.sessions, id); !listed {
			return nil, &api.APIError{Status: 404, Detail: "Session not found"}
		}
	}
	return append([]model.Message(nil), msgs...), nil
}

func (f *fakeBackend) Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	f.mu.Lock()
	f.calls["Chat"]++
	f.chatRequests = append(f.chatRequests, req)
	fn := f.chatFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return replyWith("reply"), nil
}

func replyWith(text string) *api.ChatResponse {
	return &api.ChatResponse{Choices: []api.Choice{{Message: model.NewAssistantMessage(text)}}}
}

var errBackendDown = errors.New("connection refused")
