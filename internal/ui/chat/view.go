// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	chatctl "github.com/madlen-ai/madlen-chat/internal/chat"
	"github.com/madlen-ai/madlen-chat/internal/export"
	"github.com/madlen-ai/madlen-chat/internal/model"
	"github.com/madlen-ai/madlen-chat/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "\n  Loading..."
	}

	var body string
	switch m.mode {
	case ModeModelPicker, ModeSessionPicker:
		body = m.renderPicker()
	default:
		body = m.viewport.View()
	}
	if m.showSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), body)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderStatus(),
		m.renderHelp(),
	)
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) showSidebar() bool {
	return m.width >= 80
}

// transcriptWidth is the width left of the sidebar.
func (m Model) transcriptWidth() int {
	w := m.width
	if m.showSidebar() {
		// sidebar column plus its border
		w -= sidebarWidth + 1
	}
	if w < 20 {
		w = 20
	}
	return w
}

// chromeHeight is the height of everything except the transcript.
func (m Model) chromeHeight() int {
	helpLines := 1
	if m.help.ShowAll {
		helpLines = len(m.keys.FullHelp()[0])
	}
	// header + bordered input + status
	return 1 + 3 + 1 + helpLines
}

// =============================================================================
// HEADER AND SIDEBAR
// =============================================================================

func (m Model) renderHeader() string {
	modelName := "no model"
	if info, ok := m.state.Model(); ok {
		modelName = info.DisplayName()
	} else if m.state.SelectedModel != "" {
		modelName = m.state.SelectedModel
	}

	sessionName := "no chat open"
	if s, ok := m.state.ActiveSession(); ok {
		sessionName = s.Title
	} else if m.state.HasSession {
		sessionName = fmt.Sprintf("chat #%d", m.state.SessionID)
	}

	room := m.width - util.StringWidth(m.title) - 2
	info := m.theme.HeaderInfo.Render(util.TruncateWidth(" "+modelName+" · "+sessionName, room))
	title := m.theme.HeaderTitle.Render(m.title)
	return m.theme.Header.Width(m.width).Render(title + info)
}

func (m Model) renderSidebar() string {
	inner := sidebarWidth - 1
	lines := []string{m.theme.SidebarTitle.Render("Sessions")}
	if len(m.state.Sessions) == 0 {
		lines = append(lines, m.theme.Hint.Render("none yet"))
	}
	for _, s := range m.state.Sessions {
		label := util.PadWidth(util.SingleLine(s.Title), inner-2)
		if m.state.HasSession && s.ID == m.state.SessionID {
			lines = append(lines, m.theme.SidebarSelected.Render("› "+label))
			continue
		}
		lines = append(lines, m.theme.SidebarItem.Render("  "+label))
	}

	h := m.viewport.Height
	if m.mode == ModeModelPicker || m.mode == ModeSessionPicker {
		h = lipgloss.Height(m.renderPicker())
	}
	// Title margin takes one line
	if limit := h - 1; len(lines) > limit && limit > 0 {
		lines = lines[:limit]
	}
	return m.theme.Sidebar.
		Width(sidebarWidth).
		Height(h).
		Render(strings.Join(lines, "\n"))
}

// =============================================================================
// PICKER
// =============================================================================

func (m Model) renderPicker() string {
	var (
		title string
		items []string
	)
	if m.mode == ModeModelPicker {
		title = "Choose a model"
		for _, info := range m.state.Models {
			label := info.DisplayName()
			if info.ContextLength > 0 {
				label += fmt.Sprintf("  (%dk context)", info.ContextLength/1000)
			}
			items = append(items, label)
		}
	} else {
		title = "Open a chat"
		for _, s := range m.state.Sessions {
			label := util.SingleLine(s.Title)
			if !s.CreatedAt.IsZero() {
				label += "  " + s.CreatedAt.Local().Format("Jan 2 15:04")
			}
			items = append(items, label)
		}
	}

	// Border takes two lines, the title one more
	rows := m.viewport.Height - 3
	if rows < 1 {
		rows = 1
	}
	start := 0
	if m.picker >= rows {
		start = m.picker - rows + 1
	}
	end := start + rows
	if end > len(items) {
		end = len(items)
	}

	width := m.transcriptWidth() - 4
	lines := []string{m.theme.SidebarTitle.UnsetMarginBottom().Render(title)}
	for i := start; i < end; i++ {
		label := util.TruncateWidth(items[i], width-2)
		if i == m.picker {
			lines = append(lines, m.theme.PickerActive.Render("› "+label))
			continue
		}
		lines = append(lines, "  "+label)
	}
	return m.theme.Picker.Width(width).Render(strings.Join(lines, "\n"))
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func (m Model) renderTranscript() string {
	width := m.transcriptWidth() - 2
	s := m.state

	if !s.HasSession {
		return m.theme.Hint.Width(width).Render(
			"\nNo chat open.\n\nPress C-n to start a new chat or C-s to open an earlier one.")
	}
	if len(s.Messages) == 0 && !s.Loading {
		return m.theme.Hint.Width(width).Render(
			"\nNo messages yet. Type below and press Enter.\n\nChanging the model with C-p reloads this chat.")
	}

	var blocks []string
	for _, msg := range s.Messages {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	if s.Loading {
		blocks = append(blocks, m.spinner.View()+m.theme.Hint.Render(" Thinking..."))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg model.Message, width int) string {
	text := msg.Content.Text()

	var label, body string
	switch msg.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render(msg.Role.DisplayName())
		body = lipgloss.NewStyle().Width(width).Render(text)
	case model.RoleAssistant:
		if chatctl.IsFailureText(text) {
			label = m.theme.ErrorLabel.Render(msg.Role.DisplayName())
			body = lipgloss.NewStyle().Width(width).Render(text)
		} else {
			label = m.theme.AssistantLabel.Render(msg.Role.DisplayName())
			body = m.renderMarkdown(text)
		}
	default:
		label = m.theme.Hint.Render(msg.Role.DisplayName())
		body = m.theme.Hint.Width(width).Render(text)
	}

	parts := []string{label}
	if strings.TrimSpace(text) != "" {
		parts = append(parts, body)
	}
	for _, url := range msg.Content.Images() {
		parts = append(parts, m.theme.Attachment.Render(export.ImagePlaceholder(url)))
	}
	return strings.Join(parts, "\n")
}

func (m Model) renderMarkdown(text string) string {
	if out, ok := m.rendered[text]; ok {
		return out
	}
	out := m.markdown.Render(text)
	m.rendered[text] = out
	return out
}

// =============================================================================
// FOOTER
// =============================================================================

func (m Model) renderInput() string {
	width := m.width - 2
	if width < 10 {
		width = 10
	}
	switch m.mode {
	case ModeTitlePrompt:
		return m.theme.Input.Width(width).Render(m.theme.Prompt.Render("Title:") + m.prompt.View())
	case ModeImagePrompt:
		return m.theme.Input.Width(width).Render(m.theme.Prompt.Render("Image:") + m.prompt.View())
	}
	return m.theme.Input.Width(width).Render(m.input.View())
}

func (m Model) renderStatus() string {
	var parts []string
	if m.state.PendingImageName != "" {
		parts = append(parts, m.theme.Attachment.Render("📎 "+m.state.PendingImageName))
	}
	if m.status != "" {
		if m.statusErr {
			parts = append(parts, m.theme.StatusError.Render(m.status))
		} else {
			parts = append(parts, m.theme.StatusInfo.Render(m.status))
		}
	}
	if m.pending > 0 && !m.state.Loading {
		parts = append(parts, m.spinner.View())
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(" " + strings.Join(parts, "  "))
}

func (m Model) renderHelp() string {
	switch m.mode {
	case ModeModelPicker, ModeSessionPicker:
		return m.help.View(pickerKeys{k: m.keys})
	case ModeTitlePrompt, ModeImagePrompt:
		return m.help.View(pickerKeys{k: m.keys, prompt: true})
	}
	return m.help.View(m.keys)
}
