// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for madlen.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ClientConfig: Backend URL, default model and session title for the chat client
//   - ServerConfig: Listen address, CORS origins, rate limits and database for the gateway
//   - OpenRouterConfig: Upstream credentials and attribution headers
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (MADLEN_*, OPENROUTER_API_KEY), including those from .env
//   - ~/.madlen/config.toml
//   - ~/.madlen/config.json
//   - Built-in defaults
//
// # Usage
//
//	_ = config.LoadDotEnv()
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := api.NewClient(cfg.Client.APIURL)
package config
