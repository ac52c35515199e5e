// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/muesli/termenv"
)

func TestNewTheme_ExplicitNames(t *testing.T) {
	if !NewTheme("dark").IsDark {
		t.Error("dark theme should be dark")
	}
	if NewTheme("LIGHT").IsDark {
		t.Error("light theme should not be dark")
	}
}

func TestMarkdownStyle(t *testing.T) {
	theme := &Theme{IsDark: true, ColorProfile: termenv.TrueColor}
	if got := theme.MarkdownStyle(); got != "dark" {
		t.Errorf("MarkdownStyle() = %q, want dark", got)
	}

	theme.IsDark = false
	if got := theme.MarkdownStyle(); got != "light" {
		t.Errorf("MarkdownStyle() = %q, want light", got)
	}

	theme.ColorProfile = termenv.Ascii
	if got := theme.MarkdownStyle(); got != "notty" {
		t.Errorf("MarkdownStyle() = %q, want notty", got)
	}
}
