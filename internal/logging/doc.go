// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap loggers used by madlen.
//
// Commands that own the terminal (the TUI) log to a file so log lines do not
// corrupt the screen; everything else logs JSON to stderr.
//
// # Key Types
//
//   - Options: level, verbose, output file and encoder choice
//
// # Usage
//
//	logger, err := logging.New(logging.Options{Level: "info", File: logPath})
//	if err != nil {
//		return err
//	}
//	defer logger.Sync()
package logging
