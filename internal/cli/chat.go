// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	uichat "github.com/madlen-ai/madlen-chat/internal/ui/chat"
)

type chatOptions struct {
	plain     bool
	model     string
	sessionID int64
}

func newChatCommand(a *app) *cobra.Command {
	opts := &chatOptions{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		Long: `Start an interactive chat with the backend.

The full-screen view is used when stdin and stdout are terminals; otherwise,
or with --plain, a line-mode prompt is used.

Line-mode commands:
  /models            list models
  /model <id>        switch model (clears the chat view)
  /sessions          list sessions
  /new [title]       start a new session
  /open <id>         open a session
  /image <path>      attach an image to the next message
  /noimage           drop the attached image
  /help              show commands
  /quit              exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, a, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.plain, "plain", false, "line-mode chat instead of the full-screen view")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "preferred model id")
	cmd.Flags().Int64Var(&opts.sessionID, "session", 0, "open this session on start")
	return cmd
}

func runChat(cmd *cobra.Command, a *app, opts *chatOptions) error {
	ctx := cmd.Context()
	fullScreen := !opts.plain && Interactive()

	if fullScreen {
		if err := a.useFileLogger(); err != nil {
			return err
		}
	}

	client := a.client()
	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("gateway at %s: %w", client.BaseURL(), err)
	}

	ctrl := a.controller(client, opts.model)
	if opts.sessionID > 0 {
		if err := ctrl.SelectSession(ctx, opts.sessionID); err != nil {
			return err
		}
	}

	if !fullScreen {
		repl, err := NewREPL(ctrl, a.cfg, a.stdout)
		if err != nil {
			return err
		}
		return repl.Run(ctx)
	}

	a.logger.Info("starting chat screen", zap.String("api_url", a.cfg.Client.APIURL))
	return uichat.Run(ctx, ctrl, uichat.Options{
		Theme:     a.cfg.UI.Theme,
		CodeStyle: a.cfg.UI.CodeStyle,
		WordWrap:  a.cfg.UI.WordWrap,
		AppTitle:  a.cfg.OpenRouter.AppTitle,
	})
}
