// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/madlen-ai/madlen-chat/internal/api"
	"github.com/madlen-ai/madlen-chat/internal/model"
	"github.com/madlen-ai/madlen-chat/internal/openrouter"
	"github.com/madlen-ai/madlen-chat/internal/store"
)

// ============================================================================
// HEALTH AND STATS
// ============================================================================

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Upstream string `json:"upstream"`
	Store    string `json:"store"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:   "ok",
		Version:  Version,
		Upstream: "configured",
		Store:    "ok",
	}

	if !s.upstream.IsConfigured() {
		health.Upstream = "not_configured"
		health.Status = "degraded"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.store.ListSessions(ctx); err != nil {
		s.logger.Warn("store health check failed", zap.Error(err))
		health.Store = "unavailable"
		health.Status = "degraded"
	}

	writeJSON(w, http.StatusOK, health)
}

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

// ============================================================================
// MODELS
// ============================================================================

// handleModels handles GET /models: the upstream catalogue filtered to free
// models.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.upstream.FreeModels(r.Context())
	if err != nil {
		s.stats.UpstreamErrors.Add(1)
		s.logger.Error("list upstream models", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if models == nil {
		models = []model.ModelInfo{}
	}
	writeJSON(w, http.StatusOK, api.ModelsResponse{Models: models})
}

// ============================================================================
// SESSIONS
// ============================================================================

// handleListSessions handles GET /sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		s.logger.Error("list sessions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, api.SessionsResponse{Sessions: sessions})
}

// handleCreateSession handles POST /sessions?title=.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	sess, err := s.store.CreateSession(r.Context(), title, s.opts.DefaultSessionTitle)
	if err != nil {
		s.logger.Error("create session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	s.logger.Info("session created", zap.Int64("session_id", sess.ID), zap.String("title", sess.Title))
	writeJSON(w, http.StatusOK, sess)
}

// handleSessionMessages handles GET /sessions/{id}/messages.
func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	msgs, err := s.store.Messages(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		s.logger.Error("load transcript", zap.Int64("session_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}
	writeJSON(w, http.StatusOK, api.MessagesResponse{Messages: msgs})
}

// ============================================================================
// CHAT
// ============================================================================

// validateChatRequest checks the fields the upstream cannot do without.
func validateChatRequest(req api.ChatRequest) error {
	if req.ModelID == "" {
		return errors.New("model_id is required")
	}
	if len(req.Messages) == 0 {
		return errors.New("Request must contain at least one message")
	}
	if len(req.Messages) > MaxMessageCount {
		return fmt.Errorf("Too many messages: maximum is %d", MaxMessageCount)
	}
	for i, msg := range req.Messages {
		if !msg.Role.Valid() {
			return fmt.Errorf("invalid role %q at message %d: must be one of user, assistant, system", msg.Role, i)
		}
	}
	return nil
}

// handleChat handles POST /chat. The upstream body is returned unchanged on
// success; upstream errors keep their status with the upstream message as
// detail.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.stats.ChatRequests.Add(1)
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", MaxRequestBodySize))
			return
		}
		s.logger.Debug("invalid chat body", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "Invalid request format")
		return
	}
	if err := validateChatRequest(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp, err := s.upstream.Chat(r.Context(), req.ModelID, req.Messages)
	if err != nil {
		s.stats.UpstreamErrors.Add(1)
		var upErr *openrouter.Error
		if errors.As(err, &upErr) {
			s.logger.Warn("upstream rejected chat",
				zap.String("model", req.ModelID),
				zap.Int("status", upErr.Status),
				zap.String("message", upErr.Message))
			writeError(w, upErr.Status, upErr.Message)
			return
		}
		s.logger.Error("upstream chat failed", zap.String("model", req.ModelID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.SessionID > 0 {
		s.persistTurn(r.Context(), req, resp)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if len(resp.Raw) > 0 {
		w.Write(resp.Raw)
		return
	}
	json.NewEncoder(w).Encode(resp)
}

// persistTurn stores the newest user message and the reply. Failures are
// logged; the reply is still returned to the caller.
func (s *Server) persistTurn(ctx context.Context, req api.ChatRequest, resp *openrouter.ChatResponse) {
	var toStore []model.Message
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == model.RoleUser {
			toStore = append(toStore, req.Messages[i])
			break
		}
	}
	if reply, ok := resp.Reply(); ok {
		if reply.Role == "" {
			reply.Role = model.RoleAssistant
		}
		toStore = append(toStore, reply)
	}

	err := s.store.AppendMessages(ctx, req.SessionID, toStore...)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.logger.Warn("chat for unknown session not persisted", zap.Int64("session_id", req.SessionID))
	case err != nil:
		s.logger.Error("persist chat turn", zap.Int64("session_id", req.SessionID), zap.Error(err))
	}
}
