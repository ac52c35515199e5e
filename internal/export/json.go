// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/madlen-ai/madlen-chat/internal/model"
)

// =============================================================================
// DOCUMENT SHAPE
// =============================================================================

// document is the structure written by the JSON and YAML exporters.
type document struct {
	Session  sessionDoc   `json:"session" yaml:"session"`
	Model    string       `json:"model,omitempty" yaml:"model,omitempty"`
	Exported time.Time    `json:"exported" yaml:"exported"`
	Messages []messageDoc `json:"messages" yaml:"messages"`
}

type sessionDoc struct {
	ID        int64     `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	CreatedAt time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
}

// messageDoc flattens Content so YAML does not need custom marshalling.
// Exactly one of Text or Parts is set.
type messageDoc struct {
	Role  string    `json:"role" yaml:"role"`
	Text  *string   `json:"text,omitempty" yaml:"text,omitempty"`
	Parts []partDoc `json:"parts,omitempty" yaml:"parts,omitempty"`
}

type partDoc struct {
	Type     string `json:"type" yaml:"type"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

func buildDocument(t *Transcript, opts *Options) document {
	msgs := t.Messages
	if opts.StripImages {
		msgs = stripMessages(msgs)
	}

	doc := document{
		Session: sessionDoc{
			ID:        t.Session.ID,
			Title:     t.Session.Title,
			CreatedAt: t.Session.CreatedAt,
		},
		Model:    t.Model,
		Exported: opts.now().UTC().Truncate(time.Second),
		Messages: make([]messageDoc, 0, len(msgs)),
	}
	for _, msg := range msgs {
		doc.Messages = append(doc.Messages, toMessageDoc(msg))
	}
	return doc
}

func toMessageDoc(msg model.Message) messageDoc {
	out := messageDoc{Role: string(msg.Role)}
	if !msg.Content.IsMultipart() {
		text := msg.Content.Text()
		out.Text = &text
		return out
	}
	for _, p := range msg.Content.Parts() {
		out.Parts = append(out.Parts, partDoc{Type: string(p.Type), Text: p.Text, ImageURL: p.ImageURL})
	}
	return out
}

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports transcripts to indented JSON.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a transcript to JSON.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if t == nil {
		return nil, ErrNilTranscript
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	// Keep <, > and & in message text readable
	enc.SetEscapeHTML(false)
	if err := enc.Encode(buildDocument(t, e.options)); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}

// =============================================================================
// YAML EXPORTER
// =============================================================================

// YAMLExporter exports transcripts to YAML.
type YAMLExporter struct {
	options *Options
}

// NewYAMLExporter creates a new YAML exporter.
func NewYAMLExporter(opts *Options) *YAMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &YAMLExporter{options: opts}
}

// Export converts a transcript to YAML.
func (e *YAMLExporter) Export(t *Transcript) ([]byte, error) {
	if t == nil {
		return nil, ErrNilTranscript
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(buildDocument(t, e.options)); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for YAML.
func (e *YAMLExporter) FileExtension() string {
	return ".yaml"
}

// MimeType returns the MIME type for YAML.
func (e *YAMLExporter) MimeType() string {
	return "application/yaml"
}
