// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions, messages and models.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// Valid reports whether r is a role the backend accepts.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// =============================================================================
// CONTENT PARTS
// =============================================================================

// PartType tags a content part.
type PartType string

const (
	PartText     PartType = "text"
	PartImageURL PartType = "image_url"
)

// Part is one element of a multi-modal message.
type Part struct {
	Type     PartType
	Text     string // set when Type == PartText
	ImageURL string // set when Type == PartImageURL; usually a data: URL
}

// TextPart returns a text part.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// ImagePart returns an image_url part.
func ImagePart(url string) Part {
	return Part{Type: PartImageURL, ImageURL: url}
}

type imageURLJSON struct {
	URL string `json:"url"`
}

type partJSON struct {
	Type     PartType      `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageURLJSON `json:"image_url,omitempty"`
}

// textPartJSON always carries "text", even when empty; the upstream
// rejects text parts without it.
type textPartJSON struct {
	Type PartType `json:"type"`
	Text string   `json:"text"`
}

// MarshalJSON encodes the part in the OpenAI content-part shape.
func (p Part) MarshalJSON() ([]byte, error) {
	switch p.Type {
	case PartText:
		return json.Marshal(textPartJSON{Type: p.Type, Text: p.Text})
	case PartImageURL:
		return json.Marshal(partJSON{Type: p.Type, ImageURL: &imageURLJSON{URL: p.ImageURL}})
	default:
		return nil, fmt.Errorf("unknown content part type %q", p.Type)
	}
}

// UnmarshalJSON decodes an OpenAI content part.
func (p *Part) UnmarshalJSON(data []byte) error {
	var in partJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Type {
	case PartText:
		*p = TextPart(in.Text)
	case PartImageURL:
		if in.ImageURL == nil {
			return errors.New("image_url part without image_url")
		}
		*p = ImagePart(in.ImageURL.URL)
	default:
		return fmt.Errorf("unknown content part type %q", in.Type)
	}
	return nil
}

// =============================================================================
// CONTENT (TAGGED UNION)
// =============================================================================

// Content is either plain text or an ordered sequence of parts.
// The zero value is empty text.
type Content struct {
	text  string
	parts []Part
}

// TextContent returns plain text content.
func TextContent(text string) Content {
	return Content{text: text}
}

// PartsContent returns multi-part content. The parts are copied.
func PartsContent(parts ...Part) Content {
	cp := make([]Part, len(parts))
	copy(cp, parts)
	return Content{parts: cp}
}

// IsMultipart reports whether the content is a part sequence.
func (c Content) IsMultipart() bool {
	return c.parts != nil
}

// Parts returns a copy of the parts, or nil for text content.
func (c Content) Parts() []Part {
	if c.parts == nil {
		return nil
	}
	cp := make([]Part, len(c.parts))
	copy(cp, c.parts)
	return cp
}

// Text returns the textual content. For multi-part content the text parts
// are joined with newlines and image parts are skipped.
func (c Content) Text() string {
	if c.parts == nil {
		return c.text
	}
	var texts []string
	for _, p := range c.parts {
		if p.Type == PartText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// Images returns the image URLs carried by the content, in order.
func (c Content) Images() []string {
	var urls []string
	for _, p := range c.parts {
		if p.Type == PartImageURL {
			urls = append(urls, p.ImageURL)
		}
	}
	return urls
}

// IsEmpty reports whether the content has neither text nor images.
func (c Content) IsEmpty() bool {
	return strings.TrimSpace(c.Text()) == "" && len(c.Images()) == 0
}

// Equal reports whether c and o hold the same variant and payload.
func (c Content) Equal(o Content) bool {
	if c.IsMultipart() != o.IsMultipart() {
		return false
	}
	if !c.IsMultipart() {
		return c.text == o.text
	}
	if len(c.parts) != len(o.parts) {
		return false
	}
	for i := range c.parts {
		if c.parts[i] != o.parts[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes text as a JSON string and parts as a JSON array.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.parts != nil {
		return json.Marshal(c.parts)
	}
	return json.Marshal(c.text)
}

// UnmarshalJSON accepts a string, an array of parts, or null.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*c = Content{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = TextContent(s)
		return nil
	case data[0] == '[':
		var parts []Part
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("decode content parts: %w", err)
		}
		if parts == nil {
			parts = []Part{}
		}
		*c = Content{parts: parts}
		return nil
	default:
		return fmt.Errorf("content must be a string or an array, got %s", truncateJSON(data))
	}
}

func truncateJSON(data []byte) string {
	const max = 32
	if len(data) <= max {
		return string(data)
	}
	return string(data[:max]) + "..."
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single conversation turn. Messages are values and are never
// modified after being appended to a transcript.
type Message struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// NewUserMessage builds a user message. When imageURL is non-empty the
// content is a two-part structure (text, image); otherwise plain text.
func NewUserMessage(text, imageURL string) Message {
	if imageURL == "" {
		return Message{Role: RoleUser, Content: TextContent(text)}
	}
	return Message{
		Role:    RoleUser,
		Content: PartsContent(TextPart(text), ImagePart(imageURL)),
	}
}

// NewAssistantMessage builds a plain-text assistant message.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: TextContent(text)}
}

// Preview returns a single-line, rune-truncated preview of the message text.
func (m Message) Preview(maxLen int) string {
	text := strings.Join(strings.Fields(m.Content.Text()), " ")
	if text == "" && len(m.Content.Images()) > 0 {
		text = "[image]"
	}
	runes := []rune(text)
	if maxLen <= 3 || len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-3]) + "..."
}
