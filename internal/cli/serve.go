// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/madlen-ai/madlen-chat/internal/openrouter"
	"github.com/madlen-ai/madlen-chat/internal/server"
	"github.com/madlen-ai/madlen-chat/internal/store"
)

type serveOptions struct {
	listen string
	dbPath string
}

func newServeCommand(a *app) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway between chat clients and OpenRouter",
		Long: `Run the HTTP gateway. It lists free OpenRouter models, proxies chat
turns and stores sessions and transcripts in SQLite.

The OpenRouter key is read from OPENROUTER_API_KEY (a .env file in the
working directory is honoured) or openrouter.api_key in the config file.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{logAnnotation: logToStderr},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.listen, "listen", "", "listen address (overrides server.listen)")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides server.db_path)")
	return cmd
}

func runServe(cmd *cobra.Command, a *app, opts *serveOptions) error {
	cfg := a.cfg
	listen := cfg.Server.Listen
	if opts.listen != "" {
		listen = opts.listen
	}
	dbPath := cfg.Server.DBPath
	if opts.dbPath != "" {
		dbPath = opts.dbPath
	}

	upstream := openrouter.NewClient(openrouter.Config{
		APIKey:    cfg.OpenRouter.APIKey,
		BaseURL:   cfg.OpenRouter.BaseURL,
		Referer:   cfg.OpenRouter.Referer,
		Title:     cfg.OpenRouter.AppTitle,
		UserAgent: "madlen/" + Version,
		Timeout:   time.Duration(cfg.OpenRouter.TimeoutSecs) * time.Second,
		Logger:    a.logger,
	})
	if !upstream.IsConfigured() {
		a.logger.Warn("OPENROUTER_API_KEY is not set; /models and /chat will fail")
	}

	st, err := store.Open(dbPath, a.logger)
	if err != nil {
		return err
	}
	defer st.Close()
	a.logger.Info("store opened", zap.String("path", dbPath))

	srv := server.New(upstream, st, server.Options{
		Listen:              listen,
		AllowedOrigins:      cfg.Server.AllowedOrigins,
		RateLimit:           cfg.Server.RateLimit,
		RateBurst:           cfg.Server.RateBurst,
		DefaultSessionTitle: cfg.Client.SessionTitle,
		Logger:              a.logger,
	})
	return srv.ListenAndServe(cmd.Context())
}
