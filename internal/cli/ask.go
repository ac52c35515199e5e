// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	chatctl "github.com/madlen-ai/madlen-chat/internal/chat"
	"github.com/madlen-ai/madlen-chat/internal/model"
	"github.com/madlen-ai/madlen-chat/internal/util"
)

// errAskFailed is returned when the backend answered with a failure.
var errAskFailed = errors.New("the backend did not answer")

type askOptions struct {
	model     string
	image     string
	title     string
	sessionID int64
}

// AskResult is the --json payload of "madlen ask".
type AskResult struct {
	SessionID int64  `json:"session_id"`
	Model     string `json:"model"`
	Reply     string `json:"reply"`
}

func newAskCommand(a *app) *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question and print the reply",
		Long: `Ask a single question. A new session is created unless --session is
given, so the exchange can be reopened later with "madlen chat --session".`,
		Example: `  madlen ask "What is a goroutine?"
  madlen ask --image diagram.png "Explain this diagram"
  madlen ask -m mistralai/mistral-7b-instruct:free --session 3 "And in Rust?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, a, opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "model id")
	cmd.Flags().StringVar(&opts.image, "image", "", "attach an image (under 5 MB)")
	cmd.Flags().StringVar(&opts.title, "title", "", "title for the new session")
	cmd.Flags().Int64Var(&opts.sessionID, "session", 0, "continue an existing session")
	return cmd
}

func runAsk(cmd *cobra.Command, a *app, opts *askOptions, question string) error {
	ctx := cmd.Context()
	ctrl := a.controller(a.client(), opts.model)

	if err := ctrl.ListModels(ctx); err != nil {
		return err
	}
	if opts.model != "" {
		if err := ctrl.SelectModel(ctx, opts.model); err != nil {
			if errors.Is(err, chatctl.ErrUnknownModel) {
				return &NotFoundError{Resource: "model", ID: opts.model}
			}
			return err
		}
	}

	if opts.sessionID > 0 {
		if err := ctrl.SelectSession(ctx, opts.sessionID); err != nil {
			return err
		}
	} else {
		title := opts.title
		if title == "" {
			title = util.TruncateRunes(util.SingleLine(question), 40)
		}
		if _, err := ctrl.CreateSession(ctx, title); err != nil {
			return err
		}
	}

	if opts.image != "" {
		if err := ctrl.AttachImage(util.ExpandHome(opts.image)); err != nil {
			return err
		}
	}

	if err := ctrl.SendText(ctx, question); err != nil {
		return err
	}

	st := ctrl.Snapshot()
	reply := st.Messages[len(st.Messages)-1]
	text := reply.Content.Text()
	failed := reply.Role == model.RoleAssistant && chatctl.IsFailureText(text)

	if a.jsonOutput {
		if failed {
			return NewJSONErrorResponse("ask", errors.New(text)).Write(a.stdout)
		}
		return NewJSONResponse("ask", AskResult{
			SessionID: st.SessionID,
			Model:     st.SelectedModel,
			Reply:     text,
		}).Write(a.stdout)
	}

	if failed {
		fmt.Fprintln(a.stderr, WarningStyle.Render(text))
		return errAskFailed
	}
	md, err := newMarkdown(a.cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, md.Render(text))
	return nil
}
