// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the madlen command line.
//
// # Commands
//
//	madlen                         Interactive chat (same as "madlen chat")
//	madlen chat [--plain]          Full-screen chat, or line mode with --plain
//	madlen ask <question>          One question, one printed reply
//	madlen models                  Models offered by the backend
//	madlen sessions [list]         Sessions, newest first
//	madlen sessions new [title]    Create a session
//	madlen sessions show <id>      Print a transcript
//	madlen sessions export <id>    Export as md, json or yaml
//	madlen serve                   Run the OpenRouter gateway
//	madlen config list|get|set|path
//	madlen version
//
// # Global Flags
//
//	--config PATH    config file (default ~/.madlen/config.toml)
//	--api-url URL    backend base URL
//	-v, --verbose    debug logging
//	--json           JSON output where supported
//
// Configuration is resolved once per invocation: .env, then the config
// file, then MADLEN_* and OPENROUTER_API_KEY, then flags. The gateway logs
// to stderr; the full-screen chat logs to the configured log file; other
// commands only log warnings unless --verbose is given.
package cli
