// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PackmindHub/packmind-linter/services/linter/language"
)

type languageRow struct {
	Language     language.Language `json:"language"`
	DisplayName  string            `json:"displayName"`
	Extensions   []string          `json:"extensions"`
	ASTSupported bool              `json:"astSupported"`
}

func newLanguagesCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and whether AST programs can run on them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parser := a.newParser()
			var rows []languageRow
			for _, info := range language.All() {
				rows = append(rows, languageRow{
					Language:     info.Language,
					DisplayName:  info.DisplayName,
					Extensions:   info.Extensions,
					ASTSupported: parser.IsLanguageSupported(info.Language),
				})
			}
			if asJSON {
				return writeJSON(a.stdout, rows)
			}

			t := newTable("Language", "ID", "Extensions", "AST")
			for _, r := range rows {
				ast := "no"
				if r.ASTSupported {
					ast = "yes"
				}
				t.Row(r.DisplayName, string(r.Language), strings.Join(r.Extensions, ", "), ast)
			}
			_, err := fmt.Fprintln(a.stdout, t.Render())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
