// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the chat view controller: the single owner of the
// client state (models, sessions, transcript, input, pending image, loading).
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/madlen-ai/madlen-chat/internal/api"
	"github.com/madlen-ai/madlen-chat/internal/logging"
	"github.com/madlen-ai/madlen-chat/internal/model"
)

// DefaultSessionTitle is used when a session is created without a title.
const DefaultSessionTitle = "New Chat"

// Backend is the subset of the backend API the controller uses.
// *api.Client satisfies it.
type Backend interface {
	ListModels(ctx context.Context) ([]model.ModelInfo, error)
	ListSessions(ctx context.Context) ([]model.Session, error)
	CreateSession(ctx context.Context, title string) (model.Session, error)
	SessionMessages(ctx context.Context, sessionID int64) ([]model.Message, error)
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
}

// =============================================================================
// STATE
// =============================================================================

// State is a point-in-time copy of the client state.
type State struct {
	Models        []model.ModelInfo
	SelectedModel string

	Sessions   []model.Session
	SessionID  int64
	HasSession bool

	// Messages is the transcript of the active session, or empty.
	Messages []model.Message

	Input string

	// PendingImage is a data: URL, empty when nothing is attached.
	PendingImage     string
	PendingImageName string

	// Loading is true while a chat request is outstanding.
	Loading bool
}

// ActiveSession returns the active session entry, if it is listed.
func (s State) ActiveSession() (model.Session, bool) {
	if !s.HasSession {
		return model.Session{}, false
	}
	return model.FindSession(s.Sessions, s.SessionID)
}

// Model returns the selected model entry, if it is listed.
func (s State) Model() (model.ModelInfo, bool) {
	return model.FindModel(s.Models, s.SelectedModel)
}

func (s State) clone() State {
	out := s
	out.Models = append([]model.ModelInfo(nil), s.Models...)
	out.Sessions = append([]model.Session(nil), s.Sessions...)
	out.Messages = append([]model.Message(nil), s.Messages...)
	return out
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Options configures a Controller.
type Options struct {
	// DefaultSessionTitle replaces blank titles (default "New Chat")
	DefaultSessionTitle string

	// PreferredModel is selected after ListModels when it is listed;
	// otherwise the first model is selected.
	PreferredModel string

	Logger *zap.Logger
}

// Controller owns the client state. All methods are safe for concurrent
// use; the lock is never held across network I/O.
type Controller struct {
	backend        Backend
	logger         *zap.Logger
	defaultTitle   string
	preferredModel string

	mu    sync.Mutex
	state State

	// epoch changes whenever the transcript is replaced wholesale. Fetches
	// and replies started under an older epoch are discarded.
	epoch uint64
}

// New creates a controller over backend.
func New(backend Backend, opts Options) *Controller {
	title := strings.TrimSpace(opts.DefaultSessionTitle)
	if title == "" {
		title = DefaultSessionTitle
	}
	return &Controller{
		backend:        backend,
		logger:         logging.OrNop(opts.Logger).Named("chat"),
		defaultTitle:   title,
		preferredModel: opts.PreferredModel,
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// replaceTranscript swaps the transcript and starts a new epoch.
// Callers hold c.mu.
func (c *Controller) replaceTranscript(msgs []model.Message) uint64 {
	c.state.Messages = msgs
	c.epoch++
	return c.epoch
}

// =============================================================================
// LOADING
// =============================================================================

// Bootstrap performs the initial load: models and sessions are fetched
// concurrently. Failures are logged and returned joined; neither is fatal
// and neither cancels the other.
func (c *Controller) Bootstrap(ctx context.Context) error {
	var modelsErr, sessionsErr error

	var g errgroup.Group
	g.Go(func() error {
		modelsErr = c.ListModels(ctx)
		return nil
	})
	g.Go(func() error {
		sessionsErr = c.ListSessions(ctx)
		return nil
	})
	_ = g.Wait()

	return errors.Join(modelsErr, sessionsErr)
}

// ListModels fetches the model list. The current selection is kept when it
// is still listed; otherwise the preferred model, then the first entry, is
// selected. On failure the list is left as it was.
func (c *Controller) ListModels(ctx context.Context) error {
	models, err := c.backend.ListModels(ctx)
	if err != nil {
		c.logger.Warn("failed to list models", zap.Error(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Models = models
	c.state.SelectedModel = c.pickModel(models)
	c.logger.Debug("models loaded",
		zap.Int("count", len(models)),
		zap.String("selected", c.state.SelectedModel))
	return nil
}

func (c *Controller) pickModel(models []model.ModelInfo) string {
	if _, ok := model.FindModel(models, c.state.SelectedModel); ok {
		return c.state.SelectedModel
	}
	if _, ok := model.FindModel(models, c.preferredModel); ok {
		return c.preferredModel
	}
	if len(models) > 0 {
		return models[0].ID
	}
	return ""
}

// ListSessions fetches the session list. On failure the list is left as it was.
func (c *Controller) ListSessions(ctx context.Context) error {
	sessions, err := c.backend.ListSessions(ctx)
	if err != nil {
		c.logger.Warn("failed to list sessions", zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.state.Sessions = sessions
	c.mu.Unlock()
	return nil
}

// =============================================================================
// SESSIONS
// =============================================================================

// CreateSession creates a session, makes it active with an empty
// transcript and refreshes the session list. A blank title falls back to
// the default title.
func (c *Controller) CreateSession(ctx context.Context, title string) (model.Session, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = c.defaultTitle
	}

	session, err := c.backend.CreateSession(ctx, title)
	if err != nil {
		c.logger.Warn("failed to create session", zap.String("title", title), zap.Error(err))
		return model.Session{}, err
	}

	c.mu.Lock()
	c.state.SessionID = session.ID
	c.state.HasSession = true
	c.replaceTranscript(nil)
	if _, ok := model.FindSession(c.state.Sessions, session.ID); !ok {
		c.state.Sessions = append([]model.Session{session}, c.state.Sessions...)
	}
	c.mu.Unlock()

	c.logger.Info("session created", zap.Int64("session", session.ID), zap.String("title", session.Title))

	// The local entry stands in if the refresh fails.
	_ = c.ListSessions(ctx)
	return session, nil
}

// SelectSession makes id the active session and loads its transcript.
// The transcript is cleared immediately so it never shows another
// session's messages; on failure it stays empty.
func (c *Controller) SelectSession(ctx context.Context, id int64) error {
	c.mu.Lock()
	c.state.SessionID = id
	c.state.HasSession = true
	epoch := c.replaceTranscript(nil)
	c.mu.Unlock()

	return c.loadTranscript(ctx, id, epoch)
}

func (c *Controller) loadTranscript(ctx context.Context, id int64, epoch uint64) error {
	msgs, err := c.backend.SessionMessages(ctx, id)
	if err != nil {
		c.logger.Warn("failed to load session messages", zap.Int64("session", id), zap.Error(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		c.logger.Debug("discarding stale transcript", zap.Int64("session", id))
		return nil
	}
	c.replaceTranscript(append([]model.Message(nil), msgs...))
	return nil
}

// =============================================================================
// MODEL SELECTION
// =============================================================================

// SelectModel switches the model. The input is always cleared. Without an
// active session the transcript is cleared; with one, the session's
// transcript is reloaded from the backend.
func (c *Controller) SelectModel(ctx context.Context, id string) error {
	c.mu.Lock()
	if len(c.state.Models) > 0 {
		if _, ok := model.FindModel(c.state.Models, id); !ok {
			c.mu.Unlock()
			return ErrUnknownModel
		}
	}
	c.state.SelectedModel = id
	c.state.Input = ""
	epoch := c.replaceTranscript(nil)
	sessionID, hasSession := c.state.SessionID, c.state.HasSession
	c.mu.Unlock()

	c.logger.Info("model selected", zap.String("model", id))

	if !hasSession {
		return nil
	}
	return c.loadTranscript(ctx, sessionID, epoch)
}

// =============================================================================
// INPUT
// =============================================================================

// SetInput replaces the pending input text.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.state.Input = text
	c.mu.Unlock()
}

// ClearImage discards the pending image.
func (c *Controller) ClearImage() {
	c.mu.Lock()
	c.state.PendingImage = ""
	c.state.PendingImageName = ""
	c.mu.Unlock()
}
