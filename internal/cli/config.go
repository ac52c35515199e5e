// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/madlen-ai/madlen-chat/internal/config"
	"github.com/madlen-ai/madlen-chat/internal/util"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show every setting",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if a.jsonOutput {
					fmt.Fprintln(a.stdout, a.cfg.String())
					return nil
				}
				keys := config.GetAllKeys()
				width := 0
				for _, key := range keys {
					width = max(width, util.StringWidth(key)+2)
				}
				for _, key := range keys {
					value, err := a.cfg.Get(key)
					if err != nil {
						return err
					}
					fmt.Fprintln(a.stdout, FieldWidth(key, displayValue(key, value), width))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := a.cfg.Get(args[0])
				if err != nil {
					return &UsageError{Reason: err.Error(), Example: "madlen config get client.api_url"}
				}
				fmt.Fprintln(a.stdout, displayValue(args[0], value))
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one setting and save the config file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, value := args[0], args[1]
				// Save what is on disk, not the flag and env overrides
				cfg, err := loadForWrite(a.configPath)
				if err != nil {
					return err
				}
				if err := cfg.Set(key, value); err != nil {
					return &UsageError{Reason: err.Error(), Example: "madlen config set ui.theme dark"}
				}
				if err := cfg.Validate(); err != nil {
					return &configError{err: err}
				}
				path, err := saveConfig(cfg, a.configPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s %s = %s (%s)\n", SuccessStyle.Render("Saved"), key, displayValue(key, value), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path := a.configPath
				if path == "" {
					p, err := config.ConfigPathTOML()
					if err != nil {
						return err
					}
					path = p
				}
				fmt.Fprintln(a.stdout, path)
				return nil
			},
		},
	)
	return cmd
}

// displayValue redacts secrets and flattens lists.
func displayValue(key string, value any) string {
	if config.IsSecretKey(key) {
		if s, _ := value.(string); s != "" {
			return "[REDACTED]"
		}
		return "(not set)"
	}
	if list, ok := value.([]string); ok {
		return strings.Join(list, ",")
	}
	return fmt.Sprint(value)
}

func loadForWrite(path string) (*config.Config, error) {
	if path == "" {
		p, err := config.ConfigPathTOML()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := config.Default()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	load := config.LoadTOML
	if strings.HasSuffix(path, ".json") {
		load = config.LoadJSON
	}
	if err := load(cfg, path); err != nil {
		return nil, &configError{err: err}
	}
	return cfg, nil
}

func saveConfig(cfg *config.Config, path string) (string, error) {
	if path == "" {
		p, err := config.ConfigPathTOML()
		if err != nil {
			return "", err
		}
		path = p
	}
	if strings.HasSuffix(path, ".json") {
		return path, config.SaveJSON(cfg, path)
	}
	return path, config.SaveTOML(cfg, path)
}
