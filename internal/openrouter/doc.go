// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openrouter provides the upstream OpenRouter client used by the
// madlen gateway.
//
// # Key Types
//
//   - Client: lists models and performs non-streaming chat completions
//   - Model: upstream model with pricing; IsFree selects zero-priced models
//   - Error: non-200 response carrying error.message from the body
//
// # Usage
//
//	client := openrouter.NewClient(openrouter.Config{
//	    APIKey:  os.Getenv("OPENROUTER_API_KEY"),
//	    Referer: "http://localhost:5173",
//	    Title:   "Madlen AI Chat",
//	})
//	free, err := client.FreeModels(ctx)
//	resp, err := client.Chat(ctx, free[0].ID, transcript)
//	if errors.Is(err, openrouter.ErrRateLimited) {
//	    // 429 from upstream
//	}
package openrouter
