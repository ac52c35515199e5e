// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders session transcripts to Markdown, JSON and YAML.
package export

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/madlen-ai/madlen-chat/internal/model"
	"github.com/madlen-ai/madlen-chat/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a transcript in one format.
type Exporter interface {
	// Export converts a transcript to the target format and returns the content.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Transcript is a session with its messages.
type Transcript struct {
	Session  model.Session
	Model    string
	Messages []model.Message
}

// ErrNilTranscript is returned when there is nothing to export.
var ErrNilTranscript = errors.New("transcript is nil")

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds a header with the session title, model and dates.
	IncludeMetadata bool

	// StripImages replaces data: image URLs with placeholders in JSON and
	// YAML output. Markdown output always uses placeholders.
	StripImages bool

	// Now stamps the export time; nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{IncludeMetadata: true}
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// =============================================================================
// FORMAT SELECTION
// =============================================================================

// Formats lists the accepted format names.
var Formats = []string{"md", "json", "yaml"}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "markdown", "md", "":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "yaml", "yml":
		return NewYAMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// ExportToFile writes the export to path. An empty path derives a file name
// from the session title inside dir.
func ExportToFile(t *Transcript, exporter Exporter, dir, path string) (string, error) {
	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if path == "" {
		filename := fmt.Sprintf("session_%d_%s%s", t.Session.ID, sanitizeFilename(t.Session.Title), exporter.FileExtension())
		path = filepath.Join(dir, filename)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(strings.TrimSpace(s), 50)

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}

// ImagePlaceholder describes an image URL without its payload. Data URLs
// report their media type and decoded size.
func ImagePlaceholder(url string) string {
	mime, payload, ok := parseDataURL(url)
	if !ok {
		return fmt.Sprintf("[image: %s]", url)
	}
	size := base64.StdEncoding.DecodedLen(len(payload)) - strings.Count(payload[max(0, len(payload)-2):], "=")
	return fmt.Sprintf("[image: %s, %s]", mime, formatBytes(size))
}

// parseDataURL splits "data:<mime>;base64,<payload>".
func parseDataURL(url string) (mime, payload string, ok bool) {
	rest, found := strings.CutPrefix(url, "data:")
	if !found {
		return "", "", false
	}
	header, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", "", false
	}
	mime, _, _ = strings.Cut(header, ";")
	if mime == "" {
		mime = "application/octet-stream"
	}
	return mime, payload, true
}

// stripMessages returns copies of msgs with data: images replaced by
// placeholders.
func stripMessages(msgs []model.Message) []model.Message {
	out := make([]model.Message, len(msgs))
	for i, msg := range msgs {
		out[i] = msg
		if !msg.Content.IsMultipart() {
			continue
		}
		parts := msg.Content.Parts()
		for j, p := range parts {
			if p.Type == model.PartImageURL && strings.HasPrefix(p.ImageURL, "data:") {
				parts[j] = model.ImagePart(ImagePlaceholder(p.ImageURL))
			}
		}
		out[i].Content = model.PartsContent(parts...)
	}
	return out
}

func formatBytes(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
