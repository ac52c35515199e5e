// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// Markdown renders assistant replies: prose through glamour, fenced code
// through CodeBlock. It is not safe for concurrent use.
type Markdown struct {
	style     string
	codeStyle string
	width     int
	renderer  *glamour.TermRenderer
}

// NewMarkdown creates a renderer. style is a glamour standard style name
// ("dark", "light", "notty").
func NewMarkdown(style, codeStyle string, width int) (*Markdown, error) {
	if codeStyle == "" {
		codeStyle = DefaultCodeStyle
	}
	m := &Markdown{style: style, codeStyle: codeStyle}
	if err := m.SetWidth(width); err != nil {
		return nil, err
	}
	return m, nil
}

// Width returns the wrap width.
func (m *Markdown) Width() int {
	return m.width
}

// SetWidth rebuilds the glamour renderer for a new wrap width.
func (m *Markdown) SetWidth(width int) error {
	if width < 20 {
		width = 20
	}
	if width == m.width && m.renderer != nil {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	m.renderer = r
	m.width = width
	return nil
}

// Render renders markdown. Prose that glamour cannot render is returned
// as-is.
func (m *Markdown) Render(text string) string {
	var parts []string
	for _, seg := range SplitFences(text) {
		if seg.Code {
			cb := NewCodeBlock(seg.Language, seg.Text)
			cb.MaxWidth = m.width
			cb.Style = m.codeStyle
			parts = append(parts, cb.Render())
			continue
		}
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		out, err := m.renderer.Render(seg.Text)
		if err != nil {
			parts = append(parts, seg.Text)
			continue
		}
		parts = append(parts, strings.Trim(out, "\n"))
	}
	return strings.Join(parts, "\n")
}
