// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders session transcripts for saving outside the app.
//
// # Key Types
//
//   - Transcript: a session plus its messages
//   - Exporter: one output format
//   - Options: metadata and image handling
//
// # Supported Formats
//
//   - Markdown: human-readable; images become "[image: image/png, 4.0 KB]"
//   - JSON: the full transcript, data URLs included unless StripImages is set
//   - YAML: same document as JSON
//
// # Usage
//
//	exp, err := export.ForFormat("md", export.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	path, err := export.ExportToFile(transcript, exp, ".", "")
package export
