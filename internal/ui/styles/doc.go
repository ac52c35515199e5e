// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling of the madlen terminal UI.

All colors are lipgloss.AdaptiveColor values so the palette follows the
terminal background. Theme bundles the styles of the chat screen and picks
the matching glamour markdown style.

# Usage

	theme := styles.NewTheme(cfg.UI.Theme)
	header := theme.Header.Width(width).Render(theme.HeaderTitle.Render("Madlen"))
*/
package styles
