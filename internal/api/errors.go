// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// APIError is returned for every failed backend call. Status is the HTTP
// status code, or 0 when no response was received.
type APIError struct {
	Status int
	Detail string
	Cause  error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		if e.Cause != nil {
			return "backend unreachable: " + e.Cause.Error()
		}
		return "backend unreachable: " + e.Detail
	}
	return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Detail)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// ErrEmptyReply is returned when a chat response carries no choices.
var ErrEmptyReply = errors.New("chat response contained no choices")

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Detail returns the human-readable detail carried by err.
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsRateLimited reports whether err is an upstream rate-limit failure.
// Proxies sometimes wrap the upstream 429 in a different status, so the
// detail text is checked as well.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if StatusCode(err) == http.StatusTooManyRequests {
		return true
	}
	detail := strings.ToLower(Detail(err))
	return strings.Contains(detail, "429") || strings.Contains(detail, "rate limit") || strings.Contains(detail, "rate-limited")
}

// IsModelUnsupported reports whether err means the selected model cannot
// serve the request (for example, no endpoint accepts image input).
func IsModelUnsupported(err error) bool {
	if err == nil {
		return false
	}
	if StatusCode(err) == http.StatusNotFound {
		return true
	}
	detail := strings.ToLower(Detail(err))
	return strings.Contains(detail, "404") || strings.Contains(detail, "no endpoints found")
}

// =============================================================================
// DETAIL EXTRACTION
// =============================================================================

// ExtractDetail pulls a human-readable message out of an error body.
//
// Accepted shapes:
//
//	{"detail": "text"}
//	{"detail": {"error": {"message": "text"}}}
//	{"detail": {"message": "text"}}
//	{"detail": [{"msg": "text"}, ...]}
//	{"error": {"message": "text"}}
//
// Anything else yields "Request failed with status code N".
func ExtractDetail(status int, body []byte) string {
	fallback := fmt.Sprintf("Request failed with status code %d", status)

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fallback
	}

	if len(envelope.Detail) > 0 {
		if msg := detailMessage(envelope.Detail); msg != "" {
			return msg
		}
	}
	if envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return fallback
}

func detailMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Message string `json:"message"`
		Error   *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Error != nil && obj.Error.Message != "" {
			return obj.Error.Message
		}
		if obj.Message != "" {
			return obj.Message
		}
		return ""
	}

	// Request validation failures
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
