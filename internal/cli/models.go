// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/madlen-ai/madlen-chat/internal/util"
)

func newModelsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models the backend offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := a.client().ListModels(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return NewJSONResponse("models", models).Write(a.stdout)
			}

			if len(models) == 0 {
				fmt.Fprintln(a.stdout, DimStyle.Render("No models available."))
				return nil
			}
			idWidth := 0
			for _, m := range models {
				if w := util.StringWidth(m.ID); w > idWidth {
					idWidth = w
				}
			}
			for _, m := range models {
				marker := "  "
				if m.ID == a.cfg.Client.DefaultModel {
					marker = HighlightStyle.Render("* ")
				}
				line := marker + util.PadWidth(m.ID, idWidth) + "  " + m.Name
				if m.ContextLength > 0 {
					line += DimStyle.Render(fmt.Sprintf("  %dk context", m.ContextLength/1000))
				}
				fmt.Fprintln(a.stdout, line)
			}
			return nil
		},
	}
}
