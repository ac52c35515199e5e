// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openrouter provides the upstream OpenRouter client used by the
// madlen gateway.
package openrouter

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/madlen-ai/madlen-chat/internal/logging"
	"github.com/madlen-ai/madlen-chat/internal/model"
)

// Configuration constants for the OpenRouter API.
const (
	// DefaultBaseURL is the base URL for the OpenRouter API.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024

	// FallbackErrorMessage is used when an error body carries no message.
	FallbackErrorMessage = "OpenRouter API Error"
)

// Error variables for common OpenRouter failures. *Error values match them
// with errors.Is according to their status.
var (
	ErrNotConfigured       = errors.New("OpenRouter API key not configured")
	ErrAuthFailed          = errors.New("authentication failed")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrModelNotFound       = errors.New("model not found")
	ErrRateLimited         = errors.New("rate limited")
)

// Error represents an error response from the OpenRouter API.
type Error struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("OpenRouter error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("OpenRouter error (HTTP %d): %s", e.Status, e.Message)
}

// Is maps the status code onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrAuthFailed:
		return e.Status == http.StatusUnauthorized
	case ErrInsufficientCredits:
		return e.Status == http.StatusPaymentRequired
	case ErrModelNotFound:
		return e.Status == http.StatusNotFound
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatRequest is the body of POST /chat/completions.
type ChatRequest struct {
	Model    string          `json:"model"`
	Messages []model.Message `json:"messages"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int           `json:"index"`
	Message      model.Message `json:"message"`
	FinishReason string        `json:"finish_reason,omitempty"`
}

// ChatResponse is a completion response. Raw holds the body exactly as
// OpenRouter sent it.
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`

	Raw json.RawMessage `json:"-"`
}

// Reply returns the first choice's message.
func (r *ChatResponse) Reply() (model.Message, bool) {
	if r == nil || len(r.Choices) == 0 {
		return model.Message{}, false
	}
	return r.Choices[0].Message, true
}

// Pricing holds per-token prices as decimal strings.
type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// Model describes an upstream model.
type Model struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ContextLength int      `json:"context_length"`
	Pricing       *Pricing `json:"pricing"`
}

// IsFree reports whether both prompt and completion are priced at zero.
// Missing prices count as zero; unparseable ones do not.
func (m Model) IsFree() bool {
	if m.Pricing == nil {
		return true
	}
	return priceIsZero(m.Pricing.Prompt) && priceIsZero(m.Pricing.Completion)
}

func priceIsZero(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && f == 0
}

// Info converts the upstream model into the listing shape served to clients.
func (m Model) Info() model.ModelInfo {
	return model.ModelInfo{ID: m.ID, Name: m.Name, ContextLength: m.ContextLength}
}

type modelsResponse struct {
	Data []Model `json:"data"`
}

type apiErrorResponse struct {
	Error struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Config holds client settings.
type Config struct {
	APIKey  string
	BaseURL string
	// Referer and Title are sent as HTTP-Referer and X-Title; OpenRouter
	// requires them for free models.
	Referer    string
	Title      string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is a client for the OpenRouter API. It is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	referer    string
	title      string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client from cfg, filling defaults for zero values.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "madlen"
	}
	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    baseURL,
		referer:    cfg.Referer,
		title:      cfg.Title,
		userAgent:  userAgent,
		httpClient: httpClient,
		logger:     logging.OrNop(cfg.Logger).Named("openrouter"),
	}
}

// IsConfigured returns true if the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// KeyFingerprint returns a short hash of the API key for logs. The key
// itself is never logged.
func (c *Client) KeyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(h[:4])
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}
}

// ListModels retrieves every model OpenRouter offers.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	body, status, err := c.send(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, handleErrorResponse(status, body)
	}

	var out modelsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse models response: %w", err)
	}
	return out.Data, nil
}

// FreeModels returns the models whose prompt and completion are both free.
func (c *Client) FreeModels(ctx context.Context) ([]model.ModelInfo, error) {
	all, err := c.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	free := make([]model.ModelInfo, 0, len(all))
	for _, m := range all {
		if m.IsFree() {
			free = append(free, m.Info())
		}
	}
	return free, nil
}

// Chat performs a non-streaming chat completion.
func (c *Client) Chat(ctx context.Context, modelID string, messages []model.Message) (*ChatResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(ChatRequest{Model: modelID, Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	body, status, err := c.send(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, handleErrorResponse(status, body)
	}

	var out ChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	out.Raw = body
	return &out, nil
}

// send performs req and reads the body. Only status and timing are logged.
func (c *Client) send(req *http.Request) ([]byte, int, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed",
			zap.String("path", req.URL.Path),
			zap.String("key", c.KeyFingerprint()),
			zap.Error(err))
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("upstream response",
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	body, err := readResponse(resp)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts an error body into *Error. The message is
// error.message when present, FallbackErrorMessage otherwise.
func handleErrorResponse(status int, body []byte) error {
	out := &Error{Status: status, Message: FallbackErrorMessage}

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Error.Message != "" {
			out.Message = apiErr.Error.Message
		}
		if code := strings.Trim(string(apiErr.Error.Code), `"`); code != "" && code != "null" {
			out.Code = code
		}
	}
	return out
}
