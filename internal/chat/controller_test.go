// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/madlen-ai/madlen-chat/internal/api"
	"github.com/madlen-ai/madlen-chat/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newTestController(t *testing.T, fb *fakeBackend) *Controller {
	t.Helper()
	return New(fb, Options{})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

// =============================================================================
// LOADING
// =============================================================================

func TestBootstrap_LoadsModelsAndSessions(t *testing.T) {
	fb := newFakeBackend()
	fb.models = []model.ModelInfo{{ID: "m1", Name: "One"}, {ID: "m2", Name: "Two"}}
	fb.sessions = []model.Session{{ID: 7, Title: "Seven"}}

	c := newTestController(t, fb)
	require.NoError(t, c.Bootstrap(context.Background()))

	st := c.Snapshot()
	require.Len(t, st.Models, 2)
	require.Equal(t, "m1", st.SelectedModel, "first model is selected by default")
	require.Equal(t, []model.Session{{ID: 7, Title: "Seven"}}, st.Sessions)
	require.False(t, st.HasSession)
}

func TestBootstrap_FailuresAreNonFatal(t *testing.T) {
	fb := newFakeBackend()
	fb.modelsErr = errBackendDown
	fb.sessions = []model.Session{{ID: 1, Title: "One"}}

	c := newTestController(t, fb)
	err := c.Bootstrap(context.Background())
	require.ErrorIs(t, err, errBackendDown)

	st := c.Snapshot()
	require.Empty(t, st.Models)
	require.Equal(t, "", st.SelectedModel)
	require.Len(t, st.Sessions, 1, "session list still loads when models fail")
}

func TestListModels_PreferredAndKeptSelection(t *testing.T) {
	fb := newFakeBackend()
	fb.models = []model.ModelInfo{{ID: "m1"}, {ID: "m2"}, {ID: "m3"}}

	c := New(fb, Options{PreferredModel: "m2"})
	require.NoError(t, c.ListModels(context.Background()))
	require.Equal(t, "m2", c.Snapshot().SelectedModel)

	require.NoError(t, c.SelectModel(context.Background(), "m3"))
	require.NoError(t, c.ListModels(context.Background()))
	require.Equal(t, "m3", c.Snapshot().SelectedModel, "listed selection survives a refresh")

	fb.mu.Lock()
	fb.models = []model.ModelInfo{{ID: "m9"}}
	fb.mu.Unlock()
	require.NoError(t, c.ListModels(context.Background()))
	require.Equal(t, "m9", c.Snapshot().SelectedModel)
}

// =============================================================================
// MODEL SELECTION
// =============================================================================

func TestSelectModel_NoSessionClearsInputAndMessages(t *testing.T) {
	fb := newFakeBackend()
	fb.models = []model.ModelInfo{{ID: "m1"}, {ID: "m2"}}
	c := newTestController(t, fb)
	require.NoError(t, c.ListModels(context.Background()))

	c.mu.Lock()
	c.state.Messages = []model.Message{model.NewUserMessage("old", ""), model.NewAssistantMessage("older")}
	c.mu.Unlock()
	c.SetInput("half-typed")

	require.NoError(t, c.SelectModel(context.Background(), "m2"))

	st := c.Snapshot()
	require.Equal(t, "m2", st.SelectedModel)
	require.Equal(t, "", st.Input)
	require.Empty(t, st.Messages)
	require.Equal(t, 0, fb.called("SessionMessages"))
}

func TestSelectModel_ActiveSessionReloadsTranscript(t *testing.T) {
	fb := newFakeBackend()
	fb.models = []model.ModelInfo{{ID: "m1"}, {ID: "m2"}}
	fb.sessions = []model.Session{{ID: 7, Title: "Seven"}}
	stored := []model.Message{model.NewUserMessage("q", ""), model.NewAssistantMessage("a")}
	fb.transcripts[7] = stored

	c := newTestController(t, fb)
	require.NoError(t, c.Bootstrap(context.Background()))
	require.NoError(t, c.SelectSession(context.Background(), 7))
	c.SetInput("draft")

	require.NoError(t, c.SelectModel(context.Background(), "m2"))

	st := c.Snapshot()
	require.Equal(t, "", st.Input)
	require.True(t, st.HasSession)
	if diff := cmp.Diff(stored, st.Messages); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 2, fb.called("SessionMessages"))
}

func TestSelectModel_Unknown(t *testing.T) {
	fb := newFakeBackend()
	fb.models = []model.ModelInfo{{ID: "m1"}}
	c := newTestController(t, fb)
	require.NoError(t, c.ListModels(context.Background()))
	c.SetInput("keep me")

	require.ErrorIs(t, c.SelectModel(context.Background(), "nope"), ErrUnknownModel)
	st := c.Snapshot()
	require.Equal(t, "m1", st.SelectedModel)
	require.Equal(t, "keep me", st.Input)
}

func TestSelectModel_AnyIDWhenListUnavailable(t *testing.T) {
	c := newTestController(t, newFakeBackend())
	require.NoError(t, c.SelectModel(context.Background(), "vendor/custom:free"))
	require.Equal(t, "vendor/custom:free", c.Snapshot().SelectedModel)
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestCreateSession_OneNewEntryAndEmptyTranscript(t *testing.T) {
	fb := newFakeBackend()
	fb.sessions = []model.Session{{ID: 7, Title: "Seven"}}
	fb.transcripts[7] = []model.Message{model.NewUserMessage("q", ""), model.NewAssistantMessage("a")}

	c := newTestController(t, fb)
	require.NoError(t, c.ListSessions(context.Background()))
	require.NoError(t, c.SelectSession(context.Background(), 7))
	require.Len(t, c.Snapshot().Messages, 2)

	created, err := c.CreateSession(context.Background(), "Trip plans")
	require.NoError(t, err)

	st := c.Snapshot()
	require.Len(t, st.Sessions, 2)
	newEntries := 0
	for _, s := range st.Sessions {
		if s.ID == created.ID {
			newEntries++
			require.Equal(t, "Trip plans", s.Title)
		}
	}
	require.Equal(t, 1, newEntries)
	require.Empty(t, st.Messages)
	require.True(t, st.HasSession)
	require.Equal(t, created.ID, st.SessionID)
}

func TestCreateSession_BlankTitleUsesDefault(t *testing.T) {
	fb := newFakeBackend()
	c := newTestController(t, fb)

	s, err := c.CreateSession(context.Background(), "   ")
	require.NoError(t, err)
	require.Equal(t, DefaultSessionTitle, s.Title)

	custom := New(fb, Options{DefaultSessionTitle: "Yeni Sohbet"})
	s, err = custom.CreateSession(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "Yeni Sohbet", s.Title)
}

func TestCreateSession_RefreshFailureKeepsLocalEntry(t *testing.T) {
	fb := newFakeBackend()
	c := newTestController(t, fb)

	fb.sessionsErr = errBackendDown
	s, err := c.CreateSession(context.Background(), "offline")
	require.NoError(t, err)

	st := c.Snapshot()
	require.Len(t, st.Sessions, 1)
	require.Equal(t, s.ID, st.Sessions[0].ID)
}

func TestCreateSession_Failure(t *testing.T) {
	fb := newFakeBackend()
	fb.createErr = errBackendDown
	c := newTestController(t, fb)

	_, err := c.CreateSession(context.Background(), "x")
	require.ErrorIs(t, err, errBackendDown)
	st := c.Snapshot()
	require.False(t, st.HasSession)
	require.Empty(t, st.Sessions)
}

func TestSelectSession_FailureLeavesEmptyTranscript(t *testing.T) {
	fb := newFakeBackend()
	fb.sessions = []model.Session{{ID: 7}}
	fb.transcripts[7] = []model.Message{model.NewAssistantMessage("hi")}
	c := newTestController(t, fb)
	require.NoError(t, c.SelectSession(context.Background(), 7))

	err := c.SelectSession(context.Background(), 42)
	require.Error(t, err)
	require.Equal(t, 404, api.StatusCode(err))

	st := c.Snapshot()
	require.Equal(t, int64(42), st.SessionID)
	require.Empty(t, st.Messages, "never shows another session's transcript")
}

// =============================================================================
// SEND
// =============================================================================

func TestSend_NoSessionIsNoop(t *testing.T) {
	fb := newFakeBackend()
	c := newTestController(t, fb)
	c.SetInput("Hello")

	require.ErrorIs(t, c.Send(context.Background()), ErrNoSession)
	require.Equal(t, 0, fb.called("Chat"))

	st := c.Snapshot()
	require.Equal(t, "Hello", st.Input)
	require.Empty(t, st.Messages)
	require.False(t, st.Loading)
}

func TestSend_EmptyInputIsNoop(t *testing.T) {
	fb := newFakeBackend()
	fb.sessions = []model.Session{{ID: 7}}
	c := newTestController(t, fb)
	require.NoError(t, c.SelectSession(context.Background(), 7))

	c.SetInput("  \n ")
	require.ErrorIs(t, c.Send(context.Background()), ErrEmptyInput)
	require.Equal(t, 0, fb.called("Chat"))
}

func TestSend_SuccessAppendsReply(t *testing.T) {
	fb := newFakeBackend()
	fb.models = []model.ModelInfo{{ID: "m1"}}
	fb.sessions = []model.Session{{ID: 7}}
	c := newTestController(t, fb)
	require.NoError(t, c.Bootstrap(context.Background()))
	require.NoError(t, c.SelectSession(context.Background(), 7))

	c.SetInput("Hello")
	require.NoError(t, c.Send(context.Background()))

	want := []model.Message{model.NewUserMessage("Hello", ""), model.NewAssistantMessage("reply")}
	st := c.Snapshot()
	if diff := cmp.Diff(want, st.Messages); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	require.False(t, st.Loading)
	require.Equal(t, "", st.Input)

	require.Len(t, fb.chatRequests, 1)
	req := fb.chatRequests[0]
	require.Equal(t, "m1", req.ModelID)
	require.Equal(t, int64(7), req.SessionID)
	if diff := cmp.Diff(want[:1], req.Messages); diff != "" {
		t.Errorf("request transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestSend_WithImageBuildsParts(t *testing.T) {
	fb := newFakeBackend()
	fb.sessions = []model.Session{{ID: 7}}
	c := newTestController(t, fb)
	require.NoError(t, c.SelectSession(context.Background(), 7))

	require.NoError(t, c.AttachImageData("dot.png", pngHeader))
	c.SetInput("What is this?")
	require.NoError(t, c.Send(context.Background()))

	st := c.Snapshot()
	require.Equal(t, "", st.PendingImage, "image is cleared after send")
	require.Len(t, st.Messages, 2)
	sent := st.Messages[0]
	require.True(t, sent.Content.IsMultipart())
	parts := sent.Content.Parts()
	require.Equal(t, model.TextPart("What is this?"), parts[0])
	require.Equal(t, model.PartImageURL, parts[1].Type)
	require.True(t, strings.HasPrefix(parts[1].ImageURL, "data:image/png;base64,"))
}

func TestSend_ImageOnly(t *testing.T) {
	fb := newFakeBackend()
	fb.sessions = []model.Session{{ID: 7}}
	c := newTestController(t, fb)
	require.NoError(t, c.SelectSession(context.Background(), 7))

	require.NoError(t, c.AttachImageData("dot.png", pngHeader))
	require.NoError(t, c.Send(context.Background()))
	require.Equal(t, 1, fb.called("Chat"))

	body, err := json.Marshal(fb.chatRequests[0])
	require.NoError(t, err)
	require.Contains(t, string(body), `{"type":"text","text":""}`)
	require.Contains(t, string(body), `"image_url":{"url":"data:image/png;base64,`)
}

func TestSend_BusyWhileOutstanding(t *testing.T) {
	defer goleak.VerifyNone(t)

	fb := newFakeBackend()
	fb.sessions = []model.Session{{ID: 7}}
	release := make(chan struct{})
	fb.chatFn = func(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
		<-release
		return replyWith("late"), nil
	}
	c := newTestController(t, fb)
	require.NoError(t, c.SelectSession(context.Background(), 7))

	c.SetInput("first")
	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background()) }()

	waitFor(t, func() bool { return c.Snapshot().Loading })

	c.SetInput("second")
	require.ErrorIs(t, c.Send(context.Background()), ErrBusy)
	require.Equal(t, "second", c.Snapshot().Input, "rejected send leaves input alone")

	close(release)
	require.NoError(t, <-done)

	st := c.Snapshot()
	require.False(t, st.Loading)
	require.Len(t, st.Messages, 2)
	require.Equal(t, 1, fb.called("Chat"))
}

func TestSendText_ConcurrentCallsKeepTheirText(t *testing.T) {
	defer goleak.VerifyNone(t)

	fb := newFakeBackend()
	fb.sessions = []model.Session{{ID: 7}}
	release := make(chan struct{})
	fb.chatFn = func(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
		<-release
		return replyWith("ok"), nil
	}
	c := newTestController(t, fb)
	require.NoError(t, c.SelectSession(context.Background(), 7))

	type result struct {
		text string
		err  error
	}
	results := make(chan result, 2)
	for _, text := range []string{"first", "second"} {
		text := text
		go func() { results <- result{text, c.SendText(context.Background(), text)} }()
	}

	// Whichever call got in first is blocked upstream; the other is busy.
	busy := <-results
	require.ErrorIs(t, busy.err, ErrBusy)
	require.Equal(t, busy.text, c.Snapshot().Input, "rejected text stays in the input")

	close(release)
	sent := <-results
	require.NoError(t, sent.err)

	require.Equal(t, 1, fb.called("Chat"))
	req := fb.chatRequests[0]
	require.Equal(t, sent.text, req.Messages[len(req.Messages)-1].Content.Text())

	st := c.Snapshot()
	require.Len(t, st.Messages, 2)
	require.Equal(t, sent.text, st.Messages[0].Content.Text())
}

func TestSend_ReplyDiscardedAfterSessionSwitch(t *testing.T) {
	fb := newFakeBackend()
	fb.sessions = []model.Session{{ID: 7}, {ID: 8}}
	fb.transcripts[8] = []model.Message{model.NewAssistantMessage("eight")}
	release := make(chan struct{})
	fb.chatFn = func(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
		<-release
		return replyWith("for seven"), nil
	}
	c := newTestController(t, fb)
	require.NoError(t, c.SelectSession(context.Background(), 7))

	c.SetInput("hi")
	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background()) }()
	waitFor(t, func() bool { return c.Snapshot().Loading })

	require.NoError(t, c.SelectSession(context.Background(), 8))
	close(release)
	require.NoError(t, <-done)

	st := c.Snapshot()
	require.False(t, st.Loading)
	require.Equal(t, []model.Message{model.NewAssistantMessage("eight")}, st.Messages)
}

func TestSend_PanicStillClearsLoading(t *testing.T) {
	fb := newFakeBackend()
	fb.sessions = []model.Session{{ID: 7}}
	fb.chatFn = func(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
		panic("transport bug")
	}
	c := newTestController(t, fb)
	require.NoError(t, c.SelectSession(context.Background(), 7))
	c.SetInput("boom")

	func() {
		defer func() { _ = recover() }()
		_ = c.Send(context.Background())
	}()
	require.False(t, c.Snapshot().Loading)
}

func TestSend_FailureTexts(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rate limited", &api.APIError{Status: 429, Detail: "Rate limit exceeded"}, RateLimitText},
		{"unsupported", &api.APIError{Status: 404, Detail: "No endpoints found that support image input"}, UnsupportedModelText},
		{"other", &api.APIError{Status: 500, Detail: "boom"}, "⚠️ Error: boom"},
		{"transport", &api.APIError{Detail: "connection refused", Cause: errBackendDown}, "⚠️ Error: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend()
			fb.sessions = []model.Session{{ID: 7}}
			fb.chatFn = func(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
				return nil, tt.err
			}
			c := newTestController(t, fb)
			require.NoError(t, c.SelectSession(context.Background(), 7))
			c.SetInput("Hello")

			require.NoError(t, c.Send(context.Background()))

			st := c.Snapshot()
			require.False(t, st.Loading)
			require.Len(t, st.Messages, 2)
			require.Equal(t, model.NewUserMessage("Hello", ""), st.Messages[0], "user message is never rolled back")
			require.Equal(t, model.RoleAssistant, st.Messages[1].Role)
			require.Equal(t, tt.want, st.Messages[1].Content.Text())
			require.True(t, IsFailureText(st.Messages[1].Content.Text()))
		})
	}
}

func TestIsFailureText(t *testing.T) {
	require.True(t, IsFailureText(RateLimitText))
	require.True(t, IsFailureText(FailureText(errBackendDown)))
	require.False(t, IsFailureText("⚠️ careful with that"))
	require.False(t, IsFailureText("reply"))
}

func TestSend_EmptyChoices(t *testing.T) {
	fb := newFakeBackend()
	fb.sessions = []model.Session{{ID: 7}}
	fb.chatFn = func(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
		return &api.ChatResponse{}, nil
	}
	c := newTestController(t, fb)
	require.NoError(t, c.SelectSession(context.Background(), 7))
	c.SetInput("Hello")
	require.NoError(t, c.Send(context.Background()))

	msgs := c.Snapshot().Messages
	require.Equal(t, "⚠️ Error: "+api.ErrEmptyReply.Error(), msgs[1].Content.Text())
}

// =============================================================================
// SEND AGAINST AN HTTP BACKEND
// =============================================================================

func newHTTPBackend(t *testing.T, chat http.HandlerFunc) *api.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"models":[{"id":"m1","name":"Model One"}]}`)
	})
	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"sessions":[{"id":7,"title":"Seven"}]}`)
	})
	mux.HandleFunc("/sessions/7/messages", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"messages":[]}`)
	})
	mux.HandleFunc("/chat", chat)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return api.NewClient(server.URL)
}

func TestSend_HelloInSessionSevenOverHTTP(t *testing.T) {
	client := newHTTPBackend(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"Hi! How can I help?"}}]}`)
	})

	c := New(client, Options{})
	require.NoError(t, c.Bootstrap(context.Background()))
	require.NoError(t, c.SelectSession(context.Background(), 7))
	require.Equal(t, "m1", c.Snapshot().SelectedModel)

	c.SetInput("Hello")
	require.NoError(t, c.Send(context.Background()))

	want := []model.Message{
		model.NewUserMessage("Hello", ""),
		model.NewAssistantMessage("Hi! How can I help?"),
	}
	if diff := cmp.Diff(want, c.Snapshot().Messages); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestSend_RateLimitedOverHTTP(t *testing.T) {
	client := newHTTPBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"detail":"Rate limit exceeded: free-models-per-min."}`)
	})

	c := New(client, Options{})
	require.NoError(t, c.Bootstrap(context.Background()))
	require.NoError(t, c.SelectSession(context.Background(), 7))

	c.SetInput("Hello")
	require.NoError(t, c.Send(context.Background()))

	st := c.Snapshot()
	require.False(t, st.Loading)
	require.Len(t, st.Messages, 2)
	require.Equal(t, RateLimitText, st.Messages[1].Content.Text())
}

// =============================================================================
// IMAGES
// =============================================================================

func TestAttachImage_SizeLimit(t *testing.T) {
	dir := t.TempDir()

	big := filepath.Join(dir, "big.png")
	f, err := os.Create(big)
	require.NoError(t, err)
	_, err = f.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(MaxImageBytes))
	require.NoError(t, f.Close())

	c := newTestController(t, newFakeBackend())
	require.ErrorIs(t, c.AttachImage(big), ErrImageTooLarge)
	require.Equal(t, "", c.Snapshot().PendingImage)

	small := filepath.Join(dir, "small.png")
	require.NoError(t, os.WriteFile(small, pngHeader, 0o600))
	require.NoError(t, c.AttachImage(small))

	st := c.Snapshot()
	require.NotEmpty(t, st.PendingImage)
	require.True(t, strings.HasPrefix(st.PendingImage, "data:image/png;base64,"))
	require.Equal(t, "small.png", st.PendingImageName)
}

func TestAttachImage_TooLargeKeepsPreviousImage(t *testing.T) {
	c := newTestController(t, newFakeBackend())
	require.NoError(t, c.AttachImageData("a.png", pngHeader))
	before := c.Snapshot().PendingImage

	huge := make([]byte, MaxImageBytes)
	copy(huge, pngHeader)
	require.ErrorIs(t, c.AttachImageData("b.png", huge), ErrImageTooLarge)
	require.Equal(t, before, c.Snapshot().PendingImage)

	justUnder := huge[:MaxImageBytes-1]
	require.NoError(t, c.AttachImageData("c.png", justUnder))
	require.Equal(t, "c.png", c.Snapshot().PendingImageName)
}

func TestAttachImage_RejectsNonImages(t *testing.T) {
	c := newTestController(t, newFakeBackend())
	err := c.AttachImageData("notes.txt", []byte("just text"))
	require.True(t, errors.Is(err, ErrNotImage))
	require.Equal(t, "", c.Snapshot().PendingImage)

	// Extension is a fallback when sniffing cannot tell
	require.NoError(t, c.AttachImageData("photo.webp", []byte("RIFF....not really")))
	require.True(t, strings.HasPrefix(c.Snapshot().PendingImage, "data:image/webp;base64,"))

	require.Error(t, c.AttachImage(filepath.Join(t.TempDir(), "missing.png")))
}

func TestClearImage(t *testing.T) {
	c := newTestController(t, newFakeBackend())
	require.NoError(t, c.AttachImageData("a.png", pngHeader))
	c.ClearImage()
	st := c.Snapshot()
	require.Equal(t, "", st.PendingImage)
	require.Equal(t, "", st.PendingImageName)
}

func TestSnapshot_IsACopy(t *testing.T) {
	fb := newFakeBackend()
	fb.sessions = []model.Session{{ID: 7, Title: "Seven"}}
	c := newTestController(t, fb)
	require.NoError(t, c.ListSessions(context.Background()))

	st := c.Snapshot()
	st.Sessions[0].Title = "mutated"
	require.Equal(t, "Seven", c.Snapshot().Sessions[0].Title)
}
