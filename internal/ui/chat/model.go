// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	chatctl "github.com/madlen-ai/madlen-chat/internal/chat"
	"github.com/madlen-ai/madlen-chat/internal/model"
	"github.com/madlen-ai/madlen-chat/internal/ui/components"
	"github.com/madlen-ai/madlen-chat/internal/ui/styles"
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the client state the screen drives. *chat.Controller
// satisfies it.
type Controller interface {
	Snapshot() chatctl.State
	Bootstrap(ctx context.Context) error
	ListModels(ctx context.Context) error
	ListSessions(ctx context.Context) error
	CreateSession(ctx context.Context, title string) (model.Session, error)
	SelectSession(ctx context.Context, id int64) error
	SelectModel(ctx context.Context, id string) error
	ClearImage()
	AttachImage(path string) error
	SendText(ctx context.Context, text string) error
}

// =============================================================================
// SCREEN MODE
// =============================================================================

// Mode is what currently owns the keyboard.
type Mode int

const (
	ModeChat Mode = iota
	ModeTitlePrompt
	ModeImagePrompt
	ModeModelPicker
	ModeSessionPicker
)

// sidebarWidth is the session list width on terminals wide enough for it.
const sidebarWidth = 28

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures the chat screen.
type Options struct {
	// Theme is "dark", "light" or "auto"
	Theme string

	// CodeStyle is the chroma style for code fences
	CodeStyle string

	// WordWrap caps the markdown width; 0 follows the terminal
	WordWrap int

	// AppTitle is shown in the header
	AppTitle string

	// Copy writes to the clipboard. Defaults to the system clipboard.
	Copy func(string) error
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx  context.Context
	ctrl Controller

	// Styling
	theme    *styles.Theme
	markdown *components.Markdown
	title    string
	wrap     int

	// Dimensions
	width  int
	height int
	ready  bool

	// Last controller snapshot
	state chatctl.State

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	prompt   textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap

	mode     Mode
	picker   int
	spinning bool
	pending  int // controller operations in flight

	status    string
	statusErr bool

	// rendered caches assistant markdown by message text
	rendered    map[string]string
	renderWidth int
	shownCount  int

	copy func(string) error
}

// New creates the chat screen over ctrl. ctx bounds every backend call.
func New(ctx context.Context, ctrl Controller, opts Options) (Model, error) {
	theme := styles.NewTheme(opts.Theme)
	md, err := components.NewMarkdown(theme.MarkdownStyle(), opts.CodeStyle, 80)
	if err != nil {
		return Model{}, err
	}

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.Prompt = "> "
	input.PromptStyle = theme.Prompt
	input.CharLimit = 0
	input.Focus()

	prompt := textinput.New()
	prompt.Prompt = "  "
	prompt.PromptStyle = theme.Prompt

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = theme.StatusInfo

	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	title := opts.AppTitle
	if title == "" {
		title = "Madlen AI Chat"
	}

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		theme:    theme,
		markdown: md,
		title:    title,
		wrap:     opts.WordWrap,
		viewport: viewport.New(80, 20),
		input:    input,
		prompt:   prompt,
		spinner:  sp,
		help:     help.New(),
		keys:     DefaultKeyMap(),
		rendered: make(map[string]string),
		copy:     copyFn,
		state:    ctrl.Snapshot(),
		// Init starts the bootstrap and the spinner
		pending:  1,
		spinning: true,
	}, nil
}

// Init loads models and sessions.
func (m Model) Init() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return tea.Batch(
		textinput.Blink,
		runOp(opBootstrap, "", func() error { return ctrl.Bootstrap(ctx) }),
		m.spinner.Tick,
	)
}

// Mode returns the current screen mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Status returns the status line text.
func (m Model) Status() string {
	return m.status
}

// State returns the last controller snapshot the screen rendered.
func (m Model) State() chatctl.State {
	return m.state
}

// Run shows the chat screen until the user quits or ctx is cancelled.
func Run(ctx context.Context, ctrl Controller, opts Options) error {
	m, err := New(ctx, ctrl, opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("chat screen: %w", err)
	}
	return nil
}
