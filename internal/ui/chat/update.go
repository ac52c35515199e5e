// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/madlen-ai/madlen-chat/internal/api"
	chatctl "github.com/madlen-ai/madlen-chat/internal/chat"
	"github.com/madlen-ai/madlen-chat/internal/model"
	"github.com/madlen-ai/madlen-chat/internal/ui/components"
	"github.com/madlen-ai/madlen-chat/internal/util"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if m.pending == 0 && !m.state.Loading {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case opDoneMsg:
		return m.handleOpDone(msg)

	case sendDoneMsg:
		return m.handleSendDone(msg)

	case copyDoneMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Copy failed: %v", msg.err))
		} else {
			m.setStatus("Code block copied")
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		switch m.mode {
		case ModeModelPicker, ModeSessionPicker:
			return m.updatePicker(msg)
		case ModeTitlePrompt, ModeImagePrompt:
			return m.updatePrompt(msg)
		default:
			return m.updateChat(msg)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		return m.send()

	case key.Matches(msg, m.keys.NewSession):
		return m.openPrompt(ModeTitlePrompt, chatctl.DefaultSessionTitle)

	case key.Matches(msg, m.keys.Attach):
		return m.openPrompt(ModeImagePrompt, "path/to/image.png")

	case key.Matches(msg, m.keys.PickModel):
		if len(m.state.Models) == 0 {
			m.setError("No models available. Press C-r to refresh.")
			return m, nil
		}
		m.mode = ModeModelPicker
		m.picker = 0
		for i, info := range m.state.Models {
			if info.ID == m.state.SelectedModel {
				m.picker = i
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.PickSession):
		if len(m.state.Sessions) == 0 {
			m.setError("No sessions yet. Press C-n to start one.")
			return m, nil
		}
		m.mode = ModeSessionPicker
		m.picker = 0
		for i, s := range m.state.Sessions {
			if m.state.HasSession && s.ID == m.state.SessionID {
				m.picker = i
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.ClearImage):
		if m.state.PendingImage == "" {
			return m, nil
		}
		m.ctrl.ClearImage()
		m.refresh()
		m.setStatus("Image removed")
		return m, nil

	case key.Matches(msg, m.keys.CopyCode):
		return m.copyLastCode()

	case key.Matches(msg, m.keys.Refresh):
		ctrl, ctx := m.ctrl, m.ctx
		return m.startOp(opRefresh, "", func() error {
			return errors.Join(ctrl.ListModels(ctx), ctrl.ListSessions(ctx))
		})

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.state.Models)
	if m.mode == ModeSessionPicker {
		n = len(m.state.Sessions)
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = ModeChat
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.picker > 0 {
			m.picker--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.picker < n-1 {
			m.picker++
		}
		return m, nil

	case key.Matches(msg, m.keys.Accept):
		if m.picker >= n {
			m.mode = ModeChat
			return m, nil
		}
		mode := m.mode
		m.mode = ModeChat
		ctrl, ctx := m.ctrl, m.ctx
		if mode == ModeModelPicker {
			info := m.state.Models[m.picker]
			return m.startOp(opSelectModel, info.DisplayName(), func() error {
				return ctrl.SelectModel(ctx, info.ID)
			})
		}
		s := m.state.Sessions[m.picker]
		return m.startOp(opSelectSession, s.Title, func() error {
			return ctrl.SelectSession(ctx, s.ID)
		})
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closePrompt()
		return m, nil

	case key.Matches(msg, m.keys.Accept):
		value := strings.TrimSpace(m.prompt.Value())
		mode := m.mode
		m.closePrompt()
		ctrl, ctx := m.ctrl, m.ctx

		if mode == ModeTitlePrompt {
			return m.startOp(opCreateSession, "", func() error {
				_, err := ctrl.CreateSession(ctx, value)
				return err
			})
		}
		if value == "" {
			return m, nil
		}
		path := util.ExpandHome(value)
		return m.startOp(opAttach, value, func() error {
			return ctrl.AttachImage(path)
		})
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) openPrompt(mode Mode, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.prompt.Reset()
	m.prompt.Placeholder = placeholder
	m.input.Blur()
	cmd := m.prompt.Focus()
	return m, cmd
}

func (m *Model) closePrompt() {
	m.mode = ModeChat
	m.prompt.Blur()
	m.prompt.Reset()
	m.input.Focus()
}

// =============================================================================
// ACTIONS
// =============================================================================

// send hands the input to the controller. The input box is cleared at once
// and restored if the controller refuses the send.
func (m Model) send() (tea.Model, tea.Cmd) {
	if m.state.Loading {
		m.setError("Still waiting for the previous reply")
		return m, nil
	}
	text := m.input.Value()
	m.input.Reset()
	m.clearStatus()

	ctrl, ctx := m.ctrl, m.ctx
	sendCmd := func() tea.Msg {
		return sendDoneMsg{text: text, err: ctrl.SendText(ctx, text)}
	}
	m.pending++
	spin := m.startSpinner()
	return m, tea.Batch(sendCmd, spin)
}

func (m Model) startOp(op opKind, detail string, fn func() error) (tea.Model, tea.Cmd) {
	m.pending++
	m.clearStatus()
	spin := m.startSpinner()
	return m, tea.Batch(runOp(op, detail, fn), spin)
}

// startSpinner returns a tick unless the spinner is already running.
func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m Model) copyLastCode() (tea.Model, tea.Cmd) {
	for i := len(m.state.Messages) - 1; i >= 0; i-- {
		msg := m.state.Messages[i]
		if msg.Role != model.RoleAssistant {
			continue
		}
		code, ok := components.LastCodeBlock(msg.Content.Text())
		if !ok {
			break
		}
		copyFn := m.copy
		return m, func() tea.Msg {
			return copyDoneMsg{err: copyFn(code)}
		}
	}
	m.setError("No code block in the last reply")
	return m, nil
}

// =============================================================================
// RESULTS
// =============================================================================

func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.pending--
	}
	m.refresh()

	if msg.err != nil {
		m.setError(opFailure(msg.op, msg.err))
		return m, nil
	}

	switch msg.op {
	case opBootstrap:
		if len(m.state.Sessions) == 0 {
			m.setStatus("Press C-n to start a chat")
		}
	case opRefresh:
		m.setStatus(fmt.Sprintf("%d models, %d sessions", len(m.state.Models), len(m.state.Sessions)))
	case opCreateSession:
		if s, ok := m.state.ActiveSession(); ok {
			m.setStatus("Started " + s.Title)
		}
	case opSelectSession:
		m.setStatus("Opened " + msg.detail)
	case opSelectModel:
		m.input.Reset()
		m.setStatus("Model: " + msg.detail)
	case opAttach:
		m.setStatus("Attached " + m.state.PendingImageName)
	}
	return m, nil
}

func (m Model) handleSendDone(msg sendDoneMsg) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.pending--
	}
	m.refresh()

	if msg.err != nil {
		if m.input.Value() == "" {
			m.input.SetValue(msg.text)
			m.input.CursorEnd()
		}
		switch {
		case errors.Is(msg.err, chatctl.ErrNoSession):
			m.setError("Start a chat with C-n or open one with C-s first")
		case errors.Is(msg.err, chatctl.ErrEmptyInput):
			m.clearStatus()
		default:
			m.setError(msg.err.Error())
		}
	}
	return m, nil
}

// opFailure describes a failed operation for the status line.
func opFailure(op opKind, err error) string {
	detail := api.Detail(err)
	switch op {
	case opBootstrap, opRefresh:
		return "Could not reach the backend: " + detail
	case opCreateSession:
		return "Could not create chat: " + detail
	case opSelectSession:
		return "Could not load messages: " + detail
	case opSelectModel:
		if errors.Is(err, chatctl.ErrUnknownModel) {
			return "That model is no longer listed"
		}
		return "Could not reload messages: " + detail
	case opAttach:
		if errors.Is(err, chatctl.ErrImageTooLarge) || errors.Is(err, chatctl.ErrNotImage) {
			return err.Error()
		}
		return "Could not attach image: " + err.Error()
	}
	return err.Error()
}

// =============================================================================
// STATE SYNC
// =============================================================================

// refresh re-reads the controller and re-renders the transcript.
func (m *Model) refresh() {
	m.state = m.ctrl.Snapshot()
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom || len(m.state.Messages) != m.shownCount || m.state.Loading {
		m.viewport.GotoBottom()
	}
	m.shownCount = len(m.state.Messages)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true

	mdWidth := m.transcriptWidth() - 4
	if m.wrap > 0 && m.wrap < mdWidth {
		mdWidth = m.wrap
	}
	if err := m.markdown.SetWidth(mdWidth); err == nil && m.markdown.Width() != m.renderWidth {
		m.rendered = make(map[string]string)
		m.renderWidth = m.markdown.Width()
	}
	m.input.Width = width - 4
	m.prompt.Width = width - 4
	m.help.Width = width
	m.layout()
	m.refresh()
}

// layout sizes the viewport to what the header and footer leave.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	m.viewport.Width = m.transcriptWidth()
	h := m.height - m.chromeHeight()
	if h < 3 {
		h = 3
	}
	m.viewport.Height = h
}

func (m *Model) setStatus(text string) {
	m.status = text
	m.statusErr = false
}

func (m *Model) setError(text string) {
	m.status = text
	m.statusErr = true
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
}
