// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/madlen-ai/madlen-chat/internal/model"
)

const testKey = "sk-or-test-abcdefghijklmnopqrstuvwxyz0123456789"

func newTestClient(url string) *Client {
	return NewClient(Config{
		APIKey:  testKey,
		BaseURL: url,
		Referer: "http://localhost:5173",
		Title:   "Madlen AI Chat",
	})
}

// =============================================================================
// MODEL LISTING
// =============================================================================

func TestFreeModels_FiltersPricedModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[
			{"id":"free/a:free","name":"Free A","context_length":8192,"pricing":{"prompt":"0","completion":"0"}},
			{"id":"paid/b","name":"Paid B","context_length":128000,"pricing":{"prompt":"0.000003","completion":"0.000015"}},
			{"id":"half/c","name":"Half C","pricing":{"prompt":"0","completion":"0.000001"}},
			{"id":"openrouter/auto","name":"Auto","pricing":{"prompt":"-1","completion":"-1"}},
			{"id":"free/d","name":"No Pricing","context_length":4096},
			{"id":"free/e","name":"Decimal Zero","pricing":{"prompt":"0.0","completion":"0.00"}}
		]}`))
	}))
	defer server.Close()

	models, err := newTestClient(server.URL).FreeModels(context.Background())
	require.NoError(t, err)

	want := []model.ModelInfo{
		{ID: "free/a:free", Name: "Free A", ContextLength: 8192},
		{ID: "free/d", Name: "No Pricing", ContextLength: 4096},
		{ID: "free/e", Name: "Decimal Zero"},
	}
	require.Equal(t, want, models)
}

func TestListModels_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`upstream down`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FreeModels(context.Background())
	var orErr *Error
	require.True(t, errors.As(err, &orErr))
	require.Equal(t, http.StatusBadGateway, orErr.Status)
	require.Equal(t, FallbackErrorMessage, orErr.Message)
}

func TestModel_IsFree(t *testing.T) {
	tests := []struct {
		pricing *Pricing
		want    bool
	}{
		{nil, true},
		{&Pricing{}, true},
		{&Pricing{Prompt: "0", Completion: "0"}, true},
		{&Pricing{Prompt: "0", Completion: "0.1"}, false},
		{&Pricing{Prompt: "free", Completion: "0"}, false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Model{Pricing: tt.pricing}.IsFree(), "%+v", tt.pricing)
	}
}

// =============================================================================
// CHAT
// =============================================================================

func TestChat_SendsHeadersAndPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer "+testKey, r.Header.Get("Authorization"))
		require.Equal(t, "http://localhost:5173", r.Header.Get("HTTP-Referer"))
		require.Equal(t, "Madlen AI Chat", r.Header.Get("X-Title"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Model    string            `json:"model"`
			Messages []json.RawMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "free/a:free", body.Model)
		require.Len(t, body.Messages, 2)
		require.JSONEq(t, `{"role":"user","content":[{"type":"text","text":"what?"},{"type":"image_url","image_url":{"url":"data:image/png;base64,AA=="}}]}`, string(body.Messages[1]))

		w.Write([]byte(`{"id":"gen-1","model":"free/a:free","choices":[{"message":{"role":"assistant","content":"a dot"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).Chat(context.Background(), "free/a:free", []model.Message{
		{Role: model.RoleSystem, Content: model.TextContent("be brief")},
		model.NewUserMessage("what?", "data:image/png;base64,AA=="),
	})
	require.NoError(t, err)

	reply, ok := resp.Reply()
	require.True(t, ok)
	require.Equal(t, "a dot", reply.Content.Text())
	require.Equal(t, 5, resp.Usage.TotalTokens)
	require.Contains(t, string(resp.Raw), `"gen-1"`)
}

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		message  string
		code     string
	}{
		{"rate limited", 429, `{"error":{"message":"Rate limit exceeded: free-models-per-day","code":429}}`, ErrRateLimited, "Rate limit exceeded: free-models-per-day", "429"},
		{"no endpoint", 404, `{"error":{"message":"No endpoints found that support image input","code":404}}`, ErrModelNotFound, "No endpoints found that support image input", "404"},
		{"bad key", 401, `{"error":{"message":"No auth credentials found","code":"unauthorized"}}`, ErrAuthFailed, "No auth credentials found", "unauthorized"},
		{"credits", 402, `{}`, ErrInsufficientCredits, FallbackErrorMessage, ""},
		{"html", 500, `<html>oops</html>`, nil, FallbackErrorMessage, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Chat(context.Background(), "m", nil)
			require.Error(t, err)

			var orErr *Error
			require.True(t, errors.As(err, &orErr))
			require.Equal(t, tt.status, orErr.Status)
			require.Equal(t, tt.message, orErr.Message)
			require.Equal(t, tt.code, orErr.Code)
			if tt.sentinel != nil {
				require.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestChat_NotConfigured(t *testing.T) {
	c := NewClient(Config{})
	require.False(t, c.IsConfigured())
	_, err := c.Chat(context.Background(), "m", nil)
	require.ErrorIs(t, err, ErrNotConfigured)
	require.Equal(t, "none", c.KeyFingerprint())
}

func TestKeyFingerprint_DoesNotLeakKey(t *testing.T) {
	c := NewClient(Config{APIKey: testKey})
	fp := c.KeyFingerprint()
	require.Len(t, fp, 8)
	require.NotContains(t, testKey, fp)
}
