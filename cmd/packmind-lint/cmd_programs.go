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
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/PackmindHub/packmind-linter/services/linter/programs"
)

func newProgramsCmd(a *app) *cobra.Command {
	programsCmd := &cobra.Command{
		Use:   "programs",
		Short: "Manage the detection programs stored locally",
	}

	importCmd := &cobra.Command{
		Use:   "import [bundle.json]",
		Short: "Import the packages of a detection-program bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, store *programs.Store) error {
				b, err := readBundle(args[0])
				if err != nil {
					return err
				}
				slugs, err := store.Import(ctx, b)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Imported %s: %s\n",
					plural(len(slugs), "package"), strings.Join(slugs, ", "))
				return nil
			})
		},
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, store *programs.Store) error {
				summaries, err := store.List(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(a.stdout, summaries)
				}
				if len(summaries) == 0 {
					fmt.Fprintln(a.stdout, "No packages imported. Run `packmind-lint programs import <bundle.json>`.")
					return nil
				}
				t := newTable("Slug", "Name", "Standards", "Programs", "Imported")
				for _, s := range summaries {
					t.Row(s.Slug, s.Name, strconv.Itoa(s.Standards), strconv.Itoa(s.Programs),
						s.ImportedAt.Local().Format(time.DateTime))
				}
				_, err = fmt.Fprintln(a.stdout, t.Render())
				return err
			})
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	deleteCmd := &cobra.Command{
		Use:   "delete [slug]",
		Short: "Delete a stored package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, store *programs.Store) error {
				if err := store.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Deleted package %s\n", args[0])
				return nil
			})
		},
	}

	programsCmd.AddCommand(importCmd, listCmd, deleteCmd)
	return programsCmd
}

// withStore opens the program store for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(context.Context, *programs.Store) error) (err error) {
	store, db, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close program store: %w", cerr)
		}
	}()
	return fn(ctx, store)
}
