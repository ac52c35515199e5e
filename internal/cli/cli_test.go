// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/madlen-ai/madlen-chat/internal/api"
	chatctl "github.com/madlen-ai/madlen-chat/internal/chat"
	"github.com/madlen-ai/madlen-chat/internal/config"
	"github.com/madlen-ai/madlen-chat/internal/model"
	"github.com/madlen-ai/madlen-chat/internal/openrouter"
	"github.com/madlen-ai/madlen-chat/internal/server"
	"github.com/madlen-ai/madlen-chat/internal/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type stubUpstream struct {
	mu    sync.Mutex
	reply string
	err   error
}

func (u *stubUpstream) IsConfigured() bool { return true }

func (u *stubUpstream) FreeModels(ctx context.Context) ([]model.ModelInfo, error) {
	return []model.ModelInfo{
		{ID: "meta/llama:free", Name: "Llama", ContextLength: 128000},
		{ID: "mistral/7b:free", Name: "Mistral"},
	}, nil
}

func (u *stubUpstream) Chat(ctx context.Context, modelID string, msgs []model.Message) (*openrouter.ChatResponse, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return nil, u.err
	}
	return &openrouter.ChatResponse{
		Model:   modelID,
		Choices: []openrouter.Choice{{Message: model.NewAssistantMessage(u.reply)}},
	}, nil
}

type testEnv struct {
	url      string
	upstream *stubUpstream
}

// newTestEnv starts a gateway over a temp store and points HOME at an
// empty directory so no user config is read.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"MADLEN_API_URL", "MADLEN_MODEL", "MADLEN_LOG_LEVEL", "OPENROUTER_API_KEY"} {
		t.Setenv(key, "")
	}

	st, err := store.Open(filepath.Join(t.TempDir(), "madlen.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	up := &stubUpstream{reply: "Pack **light**."}
	ts := httptest.NewServer(server.New(up, st, server.Options{}).Handler())
	t.Cleanup(ts.Close)
	return &testEnv{url: ts.URL, upstream: up}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand(&stdout, &stderr)
	root.SetArgs(append([]string{"--api-url", e.url}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func decodeEnvelope(t *testing.T, out string, data any) JSONResponse {
	t.Helper()
	var env JSONResponse
	env.Data = data
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	return env
}

// =============================================================================
// COMMAND TESTS
// =============================================================================

func TestModels(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.run(t, "models")
	require.NoError(t, err)
	require.Contains(t, out, "meta/llama:free")
	require.Contains(t, out, "128k context")
	require.Contains(t, out, "mistral/7b:free")
}

func TestModels_JSON(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.run(t, "--json", "models")
	require.NoError(t, err)

	var models []model.ModelInfo
	resp := decodeEnvelope(t, out, &models)
	require.True(t, resp.Success)
	require.Equal(t, "models", resp.Command)
	require.Len(t, models, 2)
	require.Equal(t, "Llama", models[0].Name)
}

func TestSessions_NewAndList(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "sessions", "new", "Trip", "planning")
	require.NoError(t, err)
	require.Contains(t, out, "Created #1 Trip planning")

	_, _, err = env.run(t, "sessions", "new")
	require.NoError(t, err)

	out, _, err = env.run(t, "sessions")
	require.NoError(t, err)
	require.Contains(t, out, "Trip planning")
	require.Contains(t, out, "New Chat")
}

func TestSessions_ListEmpty(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.run(t, "sessions", "list")
	require.NoError(t, err)
	require.Contains(t, out, "No sessions yet")
}

func TestAsk_CreatesSessionAndPrintsReply(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "ask", "--title", "Trip", "What", "should", "I", "pack?")
	require.NoError(t, err)
	require.Contains(t, out, "light")

	out, _, err = env.run(t, "sessions", "show", "1")
	require.NoError(t, err)
	require.Contains(t, out, "Trip")
	require.Contains(t, out, "What should I pack?")
	require.Contains(t, out, "light")
}

func TestAsk_JSON(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.run(t, "--json", "ask", "-m", "mistral/7b:free", "hi")
	require.NoError(t, err)

	var result AskResult
	resp := decodeEnvelope(t, out, &result)
	require.True(t, resp.Success)
	require.Equal(t, int64(1), result.SessionID)
	require.Equal(t, "mistral/7b:free", result.Model)
	require.Equal(t, "Pack **light**.", result.Reply)
}

func TestAsk_UnknownModel(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, "ask", "-m", "nope", "hi")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, ExitNotFoundError, ExitCode(err))
}

func TestAsk_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.err = &openrouter.Error{Status: 429, Message: "Rate limit exceeded"}

	out, stderr, err := env.run(t, "ask", "hi")
	require.ErrorIs(t, err, errAskFailed)
	require.Empty(t, out)
	require.Contains(t, stderr, chatctl.RateLimitText)
	require.Equal(t, ExitGeneralError, ExitCode(err))
}

func TestSessionsShow_NotFound(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, "sessions", "show", "42")
	require.Equal(t, ExitNotFoundError, ExitCode(err))

	_, _, err = env.run(t, "sessions", "show", "abc")
	require.Equal(t, ExitUsageError, ExitCode(err))
}

func TestSessionsExport(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, "ask", "--title", "Trip", "hello")
	require.NoError(t, err)

	out, _, err := env.run(t, "sessions", "export", "1")
	require.NoError(t, err)
	require.Contains(t, out, "# Trip")
	require.Contains(t, out, "hello")

	dir := t.TempDir()
	_, stderr, err := env.run(t, "sessions", "export", "1", "--format", "json", "-o", dir)
	require.NoError(t, err)
	path := filepath.Join(dir, "session_1_Trip.json")
	require.Contains(t, stderr, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"title": "Trip"`)

	_, _, err = env.run(t, "sessions", "export", "1", "--format", "pdf")
	require.Equal(t, ExitUsageError, ExitCode(err))
}

func TestConfig_SetGet(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "config", "set", "ui.theme", "dark")
	require.NoError(t, err)
	require.Contains(t, out, "Saved ui.theme = dark")

	out, _, err = env.run(t, "config", "get", "ui.theme")
	require.NoError(t, err)
	require.Equal(t, "dark\n", out)

	_, _, err = env.run(t, "config", "set", "ui.theme", "neon")
	require.Equal(t, ExitConfigError, ExitCode(err))

	_, _, err = env.run(t, "config", "get", "no.such.key")
	require.Equal(t, ExitUsageError, ExitCode(err))
}

func TestConfig_ListRedactsKey(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "sk-secret")

	out, _, err := env.run(t, "config", "list")
	require.NoError(t, err)
	require.Contains(t, out, "openrouter.api_key")
	require.Contains(t, out, "[REDACTED]")
	require.NotContains(t, out, "sk-secret")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, len(config.GetAllKeys()), "one line per key")
	for i, key := range config.GetAllKeys() {
		require.True(t, strings.HasPrefix(lines[i], key+" "), "line %d: %q", i, lines[i])
	}
}

func TestFieldWidth(t *testing.T) {
	require.Equal(t, "Model           llama", Field("Model", "llama"))
	require.Equal(t, "server.allowed_origins x", Field("server.allowed_origins", "x"))
	require.Equal(t, "a    b", FieldWidth("a", "b", 5))
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.run(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "madlen "+Version)
}

func TestChat_GatewayDown(t *testing.T) {
	env := newTestEnv(t)
	down := httptest.NewServer(http.NotFoundHandler())
	env.url = down.URL
	down.Close()

	_, _, err := env.run(t, "chat", "--plain")
	require.Equal(t, ExitNetworkError, ExitCode(err))
	require.Contains(t, err.Error(), "gateway at "+env.url)

	var buf bytes.Buffer
	PrintError(&buf, err)
	require.Contains(t, buf.String(), "madlen serve")
}

// =============================================================================
// ERROR REPORTING
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"not found", &NotFoundError{Resource: "session", ID: "1"}, ExitNotFoundError},
		{"usage", &UsageError{Reason: "bad"}, ExitUsageError},
		{"config", &configError{err: errors.New("bad toml")}, ExitConfigError},
		{"backend 404", &api.APIError{Status: 404, Detail: "Session not found"}, ExitNotFoundError},
		{"transport", &api.APIError{Detail: "connection refused"}, ExitNetworkError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestPrintError_TransportHint(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, &api.APIError{Detail: "connection refused"})
	require.Contains(t, buf.String(), "madlen serve")

	buf.Reset()
	PrintError(&buf, errors.New("boom"))
	require.NotContains(t, buf.String(), "madlen serve")
}

// =============================================================================
// REPL
// =============================================================================

func TestREPL_Commands(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cfg := config.Default()
	ctrl := chatctl.New(api.NewClient(env.url), chatctl.Options{})
	var out bytes.Buffer
	r, err := NewREPL(ctrl, cfg, &out)
	require.NoError(t, err)

	var usage *UsageError
	require.ErrorAs(t, r.Handle(ctx, "hello"), &usage, "sending needs a session")
	require.Empty(t, ctrl.Snapshot().Input)

	require.NoError(t, r.Handle(ctx, "/models"))
	require.Contains(t, out.String(), "* meta/llama:free")

	require.NoError(t, r.Handle(ctx, "/new Trip"))
	require.Contains(t, out.String(), "Started #1 Trip")

	out.Reset()
	require.NoError(t, r.Handle(ctx, "What should I pack?"))
	require.Contains(t, out.String(), "light")
	require.Len(t, ctrl.Snapshot().Messages, 2)

	require.NoError(t, r.Handle(ctx, "/model mistral/7b:free"))
	require.Equal(t, "mistral/7b:free", ctrl.Snapshot().SelectedModel)
	require.Len(t, ctrl.Snapshot().Messages, 2, "the session transcript is reloaded")

	require.ErrorIs(t, r.Handle(ctx, "/model nope"), chatctl.ErrUnknownModel)

	out.Reset()
	require.NoError(t, r.Handle(ctx, "/sessions"))
	require.Contains(t, out.String(), "#1 Trip")

	require.NoError(t, r.Handle(ctx, "/new"))
	out.Reset()
	require.NoError(t, r.Handle(ctx, "/open 1"))
	require.Contains(t, out.String(), "Opened #1 (2 messages)")
	require.Contains(t, out.String(), "What should I pack?")

	require.ErrorAs(t, r.Handle(ctx, "/open x"), &usage)
	require.ErrorAs(t, r.Handle(ctx, "/bogus"), &usage)
	require.ErrorIs(t, r.Handle(ctx, "/quit"), errQuit)
	require.ErrorIs(t, r.Handle(ctx, "exit"), errQuit)
	require.NoError(t, r.Handle(ctx, "   "))
}

func TestREPL_Image(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ctrl := chatctl.New(api.NewClient(env.url), chatctl.Options{})
	var out bytes.Buffer
	r, err := NewREPL(ctrl, config.Default(), &out)
	require.NoError(t, err)

	dir := t.TempDir()
	big := filepath.Join(dir, "big.png")
	require.NoError(t, os.WriteFile(big, make([]byte, chatctl.MaxImageBytes), 0o600))
	require.ErrorIs(t, r.Handle(ctx, "/image "+big), chatctl.ErrImageTooLarge)
	require.Empty(t, ctrl.Snapshot().PendingImage)

	small := filepath.Join(dir, "dot.png")
	require.NoError(t, os.WriteFile(small, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))
	require.NoError(t, r.Handle(ctx, "/image "+small))
	require.Contains(t, out.String(), "Attached dot.png")
	require.Equal(t, "madlen [image]> ", r.prompt())

	require.NoError(t, r.Handle(ctx, "/noimage"))
	require.Equal(t, "madlen> ", r.prompt())
}
