// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP gateway between the chat client and the
// OpenRouter inference API.
//
// The gateway filters the upstream catalogue to free models, proxies chat
// turns and persists sessions and transcripts in SQLite. Errors are returned
// as {"detail": "..."} bodies.
//
// # Endpoints
//
//   - GET  /health                  - Health check
//   - GET  /stats                   - Usage statistics
//   - GET  /models                  - Free upstream models
//   - GET  /sessions                - List sessions, newest first
//   - POST /sessions?title=         - Create a session
//   - GET  /sessions/{id}/messages  - Session transcript
//   - POST /chat                    - Proxy a chat turn upstream
//
// # Middleware
//
//   - Request ids (X-Request-Id, UUID)
//   - Panic recovery
//   - Structured request logging (zap)
//   - CORS for the configured origins
//   - Per-IP token bucket rate limiting (golang.org/x/time/rate)
//
// # Key Types
//
//   - Server: chi router plus lifecycle
//   - Upstream, SessionStore: the dependencies a Server is built from
//   - RateLimiter: per-IP limiter
//
// # Usage
//
//	srv := server.New(openrouterClient, st, server.Options{
//		Listen: "127.0.0.1:8000",
//		Logger: logger,
//	})
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := srv.ListenAndServe(ctx); err != nil {
//		return err
//	}
package server
