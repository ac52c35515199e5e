// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the madlen chat backend.
//
// The backend exposes five endpoints:
//
//	GET  /models                  -> {"models": [{"id", "name"}]}
//	GET  /sessions                -> {"sessions": [{"id", "title"}]}
//	POST /sessions?title=<title>  -> {"id", "title"}
//	GET  /sessions/{id}/messages  -> {"messages": [{"role", "content"}]}
//	POST /chat                    -> {"choices": [{"message": {"role", "content"}}]}
//
// # Errors
//
// Every failure is an *APIError. Status is 0 for transport failures.
// Detail is taken from the body's "detail" field, which may be a string or
// an object carrying error.message. IsRateLimited and IsModelUnsupported
// classify the two failures the chat view explains specially.
//
// # Usage
//
//	client := api.NewClient(cfg.Client.APIURL)
//	resp, err := client.Chat(ctx, api.ChatRequest{
//	    ModelID:   "m1",
//	    SessionID: 7,
//	    Messages:  transcript,
//	})
//	if api.IsRateLimited(err) {
//	    // ask the user to wait
//	}
package api
