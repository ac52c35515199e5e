// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/madlen-ai/madlen-chat/internal/api"
	chatctl "github.com/madlen-ai/madlen-chat/internal/chat"
	"github.com/madlen-ai/madlen-chat/internal/config"
	"github.com/madlen-ai/madlen-chat/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// logAnnotation selects where a command logs.
const (
	logAnnotation = "madlen/log"
	logToStderr   = "stderr"
)

// =============================================================================
// APPLICATION STATE
// =============================================================================

// app carries what PersistentPreRunE resolves for every command.
type app struct {
	configPath string
	apiURL     string
	verbose    bool
	jsonOutput bool

	cfg    *config.Config
	logger *zap.Logger

	stdout io.Writer
	stderr io.Writer
}

// loadConfig reads configuration, .env and flag overrides.
func (a *app) loadConfig() error {
	if err := config.LoadDotEnv(); err != nil {
		return &configError{err: err}
	}

	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return &configError{err: err}
	}
	if a.apiURL != "" {
		cfg.Client.APIURL = a.apiURL
	}
	cfg.ExpandPaths()
	a.cfg = cfg
	return nil
}

// buildLogger logs to stderr. Commands without the stderr annotation only
// log warnings unless --verbose is set, so their output stays readable.
func (a *app) buildLogger(cmd *cobra.Command) error {
	level := "warn"
	if cmd.Annotations[logAnnotation] == logToStderr {
		level = a.cfg.Log.Level
	}
	logger, err := logging.New(logging.Options{Level: level, Verbose: a.verbose})
	if err != nil {
		return &configError{err: err}
	}
	a.logger = logger
	return nil
}

// useFileLogger redirects logging to the configured log file. Used when the
// terminal belongs to the chat screen.
func (a *app) useFileLogger() error {
	logger, err := logging.New(logging.Options{
		Level:   a.cfg.Log.Level,
		Verbose: a.verbose,
		File:    a.cfg.Log.File,
	})
	if err != nil {
		return err
	}
	_ = a.logger.Sync()
	a.logger = logger
	return nil
}

// client builds the backend client from configuration.
func (a *app) client() *api.Client {
	return api.NewClientWithConfig(&api.ClientConfig{
		BaseURL: a.cfg.Client.APIURL,
		Timeout: time.Duration(a.cfg.Client.TimeoutSecs) * time.Second,
		Logger:  a.logger,
	})
}

// controller builds a chat controller over backend.
func (a *app) controller(backend chatctl.Backend, preferredModel string) *chatctl.Controller {
	if preferredModel == "" {
		preferredModel = a.cfg.Client.DefaultModel
	}
	return chatctl.New(backend, chatctl.Options{
		DefaultSessionTitle: a.cfg.Client.SessionTitle,
		PreferredModel:      preferredModel,
		Logger:              a.logger,
	})
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the madlen command tree writing to stdout and stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, logger: logging.Nop()}

	root := &cobra.Command{
		Use:   "madlen",
		Short: "Terminal chat client and gateway for free OpenRouter models",
		Long: `madlen is a terminal chat client for the madlen gateway.

The gateway ("madlen serve") lists free OpenRouter models, proxies chat
turns and keeps sessions in SQLite. The client talks to it over HTTP.

Run without arguments to start the interactive chat.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			return a.buildLogger(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.madlen/config.toml)")
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "backend base URL (overrides client.api_url)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "JSON output where supported")

	chatCmd := newChatCommand(a)
	root.RunE = chatCmd.RunE
	root.Flags().AddFlagSet(chatCmd.Flags())

	root.AddCommand(
		chatCmd,
		newAskCommand(a),
		newModelsCommand(a),
		newSessionsCommand(a),
		newServeCommand(a),
		newConfigCommand(a),
		newVersionCommand(a),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		PrintError(os.Stderr, err)
		return ExitCode(err)
	}
	return ExitSuccess
}
