// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/madlen-ai/madlen-chat/internal/api"
	"github.com/madlen-ai/madlen-chat/internal/export"
	"github.com/madlen-ai/madlen-chat/internal/model"
)

func newSessionsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   "List, create, show and export sessions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsList(cmd, a)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List sessions, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSessionsList(cmd, a)
			},
		},
		&cobra.Command{
			Use:   "new [title]",
			Short: "Create a session",
			RunE: func(cmd *cobra.Command, args []string) error {
				title := strings.TrimSpace(strings.Join(args, " "))
				if title == "" {
					title = a.cfg.Client.SessionTitle
				}
				s, err := a.client().CreateSession(cmd.Context(), title)
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return NewJSONResponse("sessions new", s).Write(a.stdout)
				}
				fmt.Fprintf(a.stdout, "%s #%d %s\n", SuccessStyle.Render("Created"), s.ID, s.Title)
				return nil
			},
		},
		newSessionsShowCommand(a),
		newSessionsExportCommand(a),
	)
	return cmd
}

func runSessionsList(cmd *cobra.Command, a *app) error {
	sessions, err := a.client().ListSessions(cmd.Context())
	if err != nil {
		return err
	}
	if a.jsonOutput {
		return NewJSONResponse("sessions", sessions).Write(a.stdout)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(a.stdout, DimStyle.Render("No sessions yet. Create one with: madlen sessions new <title>"))
		return nil
	}
	for _, s := range sessions {
		created := ""
		if !s.CreatedAt.IsZero() {
			created = DimStyle.Render("  " + s.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(a.stdout, "#%-5d %s%s\n", s.ID, s.Title, created)
	}
	return nil
}

// =============================================================================
// SHOW
// =============================================================================

// transcriptJSON is the --json payload of "sessions show".
type transcriptJSON struct {
	Session  model.Session   `json:"session"`
	Messages []model.Message `json:"messages"`
}

func newSessionsShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a session transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := fetchTranscript(cmd.Context(), a.client(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return NewJSONResponse("sessions show", transcriptJSON{Session: t.Session, Messages: t.Messages}).Write(a.stdout)
			}

			md, err := newMarkdown(a.cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, TitleStyle.Render(t.Session.Title))
			fmt.Fprintln(a.stdout, Separator(40))
			if len(t.Messages) == 0 {
				fmt.Fprintln(a.stdout, DimStyle.Render("No messages yet."))
			}
			for _, msg := range t.Messages {
				printTranscriptMessage(a.stdout, md, msg)
			}
			return nil
		},
	}
}

// =============================================================================
// EXPORT
// =============================================================================

type exportOptions struct {
	format      string
	output      string
	stripImages bool
	noMetadata  bool
}

func newSessionsExportCommand(a *app) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a session transcript",
		Long: `Export a session transcript as markdown, JSON or YAML.

Without -o the export is written to stdout. When -o names a directory, a file
name is derived from the session title.`,
		Example: `  madlen sessions export 3
  madlen sessions export 3 --format json -o trip.json
  madlen sessions export 3 --format yaml -o exports/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsExport(cmd, a, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "md", "output format: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or directory")
	cmd.Flags().BoolVar(&opts.stripImages, "strip-images", false, "replace attached images with placeholders")
	cmd.Flags().BoolVar(&opts.noMetadata, "no-metadata", false, "omit the metadata header")
	return cmd
}

func runSessionsExport(cmd *cobra.Command, a *app, opts *exportOptions, rawID string) error {
	exportOpts := export.DefaultOptions()
	exportOpts.StripImages = opts.stripImages
	exportOpts.IncludeMetadata = !opts.noMetadata

	exporter, err := export.ForFormat(opts.format, exportOpts)
	if err != nil {
		return &UsageError{Reason: err.Error(), Example: "madlen sessions export 3 --format json"}
	}

	t, err := fetchTranscript(cmd.Context(), a.client(), rawID)
	if err != nil {
		return err
	}

	if opts.output == "" {
		content, err := exporter.Export(t)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		_, err = a.stdout.Write(content)
		return err
	}

	dir, path := "", opts.output
	if info, statErr := os.Stat(opts.output); (statErr == nil && info.IsDir()) || strings.HasSuffix(opts.output, string(os.PathSeparator)) {
		dir, path = opts.output, ""
	}
	written, err := export.ExportToFile(t, exporter, dir, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "%s %s\n", SuccessStyle.Render("Exported"), written)
	return nil
}

// fetchTranscript loads a session and its messages from the backend.
func fetchTranscript(ctx context.Context, client *api.Client, rawID string) (*export.Transcript, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return nil, &UsageError{Reason: fmt.Sprintf("invalid session id %q", rawID), Example: "madlen sessions show 3"}
	}

	sessions, err := client.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	session, ok := model.FindSession(sessions, id)
	if !ok {
		return nil, &NotFoundError{Resource: "session", ID: rawID}
	}

	msgs, err := client.SessionMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	return &export.Transcript{Session: session, Messages: msgs}, nil
}
