// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	chatctl "github.com/madlen-ai/madlen-chat/internal/chat"
	"github.com/madlen-ai/madlen-chat/internal/config"
	"github.com/madlen-ai/madlen-chat/internal/export"
	"github.com/madlen-ai/madlen-chat/internal/model"
	"github.com/madlen-ai/madlen-chat/internal/ui/components"
	"github.com/madlen-ai/madlen-chat/internal/ui/styles"
	"github.com/madlen-ai/madlen-chat/internal/util"
)

// errQuit ends the REPL loop.
var errQuit = errors.New("quit")

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-mode chat. It drives the same controller as the
// full-screen view.
type REPL struct {
	ctrl        *chatctl.Controller
	out         io.Writer
	markdown    *components.Markdown
	historyFile string
}

// NewREPL creates a line-mode chat writing to out.
func NewREPL(ctrl *chatctl.Controller, cfg *config.Config, out io.Writer) (*REPL, error) {
	md, err := newMarkdown(cfg)
	if err != nil {
		return nil, err
	}
	return &REPL{
		ctrl:        ctrl,
		out:         out,
		markdown:    md,
		historyFile: cfg.Client.HistoryFile,
	}, nil
}

// newMarkdown builds the renderer used for replies printed to stdout.
func newMarkdown(cfg *config.Config) (*components.Markdown, error) {
	style := "notty"
	if ColorsEnabled() {
		style = styles.NewTheme(cfg.UI.Theme).MarkdownStyle()
	}
	width := GetTerminalWidth() - 2
	if cfg.UI.WordWrap > 0 && cfg.UI.WordWrap < width {
		width = cfg.UI.WordWrap
	}
	return components.NewMarkdown(style, cfg.UI.CodeStyle, width)
}

// Run reads lines until /quit, Ctrl+C or Ctrl+D.
func (r *REPL) Run(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	r.loadHistory(line)
	defer r.saveHistory(line)

	if err := r.ctrl.Bootstrap(ctx); err != nil {
		fmt.Fprintf(r.out, "%s %s\n", WarningStyle.Render("Warning:"), err)
	}
	r.printBanner()

	for {
		input, err := line.Prompt(r.prompt())
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}

		err = r.Handle(ctx, input)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// prompt is plain text: liner measures the prompt width itself.
func (r *REPL) prompt() string {
	if r.ctrl.Snapshot().PendingImage != "" {
		return "madlen [image]> "
	}
	return "madlen> "
}

func (r *REPL) loadHistory(line *liner.State) {
	if r.historyFile == "" {
		return
	}
	if f, err := os.Open(r.historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
}

func (r *REPL) saveHistory(line *liner.State) {
	if r.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}

func (r *REPL) printBanner() {
	st := r.ctrl.Snapshot()
	fmt.Fprintln(r.out, TitleStyle.Render("madlen chat"))
	if info, ok := st.Model(); ok {
		fmt.Fprintln(r.out, Field("Model", info.DisplayName()))
	}
	fmt.Fprintln(r.out, Field("Sessions", strconv.Itoa(len(st.Sessions))))
	if !st.HasSession {
		fmt.Fprintln(r.out, DimStyle.Render("Start with /new [title] or /open <id>. /help lists commands."))
	}
}

// =============================================================================
// INPUT HANDLING
// =============================================================================

// Handle processes one input line: a slash command or a message.
func (r *REPL) Handle(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	if strings.HasPrefix(input, "/") {
		return r.command(ctx, input)
	}
	if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
		return errQuit
	}
	return r.send(ctx, input)
}

func (r *REPL) send(ctx context.Context, text string) error {
	err := r.ctrl.SendText(ctx, text)
	switch {
	case errors.Is(err, chatctl.ErrNoSession):
		r.ctrl.SetInput("")
		return &UsageError{Reason: "no session is open", Example: "/new Trip planning"}
	case err != nil:
		return err
	}

	msgs := r.ctrl.Snapshot().Messages
	if n := len(msgs); n > 0 && msgs[n-1].Role == model.RoleAssistant {
		r.printMessage(msgs[n-1])
	}
	return nil
}

func (r *REPL) command(ctx context.Context, input string) error {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/quit", "/q", "/exit":
		return errQuit

	case "/help", "/h":
		r.printHelp()
		return nil

	case "/models":
		if err := r.ctrl.ListModels(ctx); err != nil {
			return err
		}
		st := r.ctrl.Snapshot()
		if len(st.Models) == 0 {
			fmt.Fprintln(r.out, DimStyle.Render("No models available."))
		}
		for _, info := range st.Models {
			marker := "  "
			if info.ID == st.SelectedModel {
				marker = HighlightStyle.Render("* ")
			}
			fmt.Fprintf(r.out, "%s%s %s\n", marker, info.ID, DimStyle.Render(info.Name))
		}
		return nil

	case "/model":
		if arg == "" {
			return &UsageError{Reason: "/model needs a model id", Example: "/model meta-llama/llama-3.3-70b-instruct:free"}
		}
		if err := r.ctrl.SelectModel(ctx, arg); err != nil {
			return err
		}
		fmt.Fprintln(r.out, SuccessStyle.Render("Model: ")+arg)
		return nil

	case "/sessions":
		if err := r.ctrl.ListSessions(ctx); err != nil {
			return err
		}
		st := r.ctrl.Snapshot()
		if len(st.Sessions) == 0 {
			fmt.Fprintln(r.out, DimStyle.Render("No sessions yet. Start one with /new."))
		}
		for _, s := range st.Sessions {
			marker := "  "
			if st.HasSession && s.ID == st.SessionID {
				marker = HighlightStyle.Render("* ")
			}
			fmt.Fprintf(r.out, "%s#%d %s\n", marker, s.ID, s.Title)
		}
		return nil

	case "/new":
		s, err := r.ctrl.CreateSession(ctx, arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "%s #%d %s\n", SuccessStyle.Render("Started"), s.ID, s.Title)
		return nil

	case "/open":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return &UsageError{Reason: "/open needs a session id", Example: "/open 3"}
		}
		if err := r.ctrl.SelectSession(ctx, id); err != nil {
			return err
		}
		msgs := r.ctrl.Snapshot().Messages
		fmt.Fprintf(r.out, "%s #%d (%d messages)\n", SuccessStyle.Render("Opened"), id, len(msgs))
		for _, msg := range msgs {
			r.printMessage(msg)
		}
		return nil

	case "/image":
		if arg == "" {
			return &UsageError{Reason: "/image needs a file path", Example: "/image ~/Pictures/cat.png"}
		}
		if err := r.ctrl.AttachImage(util.ExpandHome(arg)); err != nil {
			return err
		}
		st := r.ctrl.Snapshot()
		fmt.Fprintf(r.out, "%s %s %s\n", SuccessStyle.Render("Attached"), st.PendingImageName,
			DimStyle.Render(export.ImagePlaceholder(st.PendingImage)))
		return nil

	case "/noimage":
		r.ctrl.ClearImage()
		fmt.Fprintln(r.out, DimStyle.Render("Image removed."))
		return nil
	}

	return &UsageError{Reason: fmt.Sprintf("unknown command %s", name), Example: "/help"}
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, TitleStyle.Render("Commands"))
	for _, row := range [][2]string{
		{"/models", "list models"},
		{"/model <id>", "switch model"},
		{"/sessions", "list sessions"},
		{"/new [title]", "start a new session"},
		{"/open <id>", "open a session"},
		{"/image <path>", "attach an image"},
		{"/noimage", "drop the attached image"},
		{"/quit", "exit"},
	} {
		fmt.Fprintln(r.out, Field(row[0], row[1]))
	}
}

// printMessage renders one transcript entry.
func (r *REPL) printMessage(msg model.Message) {
	printTranscriptMessage(r.out, r.markdown, msg)
}

// printTranscriptMessage renders one message for line output. Assistant
// text goes through markdown; images are shown as placeholders.
func printTranscriptMessage(w io.Writer, md *components.Markdown, msg model.Message) {
	text := msg.Content.Text()
	switch msg.Role {
	case model.RoleUser:
		fmt.Fprintln(w, UserStyle.Render(msg.Role.DisplayName()))
		if text != "" {
			fmt.Fprintln(w, text)
		}
	case model.RoleAssistant:
		fmt.Fprintln(w, AssistantStyle.Render(msg.Role.DisplayName()))
		if chatctl.IsFailureText(text) {
			fmt.Fprintln(w, WarningStyle.Render(text))
		} else if text != "" {
			fmt.Fprintln(w, md.Render(text))
		}
	default:
		fmt.Fprintln(w, DimStyle.Render(msg.Role.DisplayName()))
		fmt.Fprintln(w, text)
	}
	for _, url := range msg.Content.Images() {
		fmt.Fprintln(w, DimStyle.Render(export.ImagePlaceholder(url)))
	}
	fmt.Fprintln(w)
}
