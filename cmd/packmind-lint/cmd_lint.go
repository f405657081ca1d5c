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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/PackmindHub/packmind-linter/services/linter/lint"
	"github.com/PackmindHub/packmind-linter/services/linter/programs"
)

type lintOptions struct {
	changedFiles    bool
	changedLines    bool
	logger          string
	continueOnError bool
	programsFile    string
	watch           bool
	standard        string
	rule            string
}

func newLintCmd(a *app) *cobra.Command {
	opts := &lintOptions{}
	cmd := &cobra.Command{
		Use:   "lint [path]",
		Short: "Lint files against the detection programs of installed packages",
		Long: `Lint walks path (default: the current directory), finds the packmind.json
files that apply to each source file and runs the matching detection programs.

The command exits with status 1 when violations are found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			return a.runLint(cmd.Context(), path, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.changedFiles, "changed-files", false, "Only lint files modified since HEAD")
	f.BoolVar(&opts.changedLines, "changed-lines", false, "Only report violations on lines modified since HEAD")
	f.StringVar(&opts.logger, "logger", string(FormatHuman), "Output format: human, ide or json")
	f.BoolVar(&opts.continueOnError, "continue-on-error", false, "Exit with status 0 even when violations are found")
	f.StringVar(&opts.programsFile, "programs", "", "Read detection programs from this bundle instead of the store")
	f.BoolVar(&opts.watch, "watch", false, "Re-run on every file change")
	f.StringVar(&opts.standard, "standard", "", "Only run the standard with this slug")
	f.StringVar(&opts.rule, "rule", "", "Only run rules with this name or content")
	cmd.MarkFlagsMutuallyExclusive("changed-files", "changed-lines")

	return cmd
}

func (o *lintOptions) diffMode() lint.DiffMode {
	switch {
	case o.changedLines:
		return lint.DiffLines
	case o.changedFiles:
		return lint.DiffFiles
	}
	return lint.DiffNone
}

// runLint runs one lint, or keeps re-running it with --watch.
func (a *app) runLint(ctx context.Context, path string, opts *lintOptions) error {
	format, err := ParseOutputFormat(opts.logger)
	if err != nil {
		return err
	}

	shutdown := a.initTelemetry(ctx)
	defer shutdown()

	source, closeSource, err := a.lintSource(opts.programsFile)
	if err != nil {
		return err
	}
	defer closeSource()

	runner := lint.NewRunner(a.newExecutor(a.newParser()), source,
		lint.WithLogger(a.logger),
		lint.WithConcurrency(a.cfg.Lint.Concurrency),
		lint.WithGit(lint.NewCLIGit(a.cfg.Lint.GitTimeout)))

	cwd, _ := os.Getwd()
	out := newReporter(a.stdout, format, cwd)
	cmd := lint.Command{
		Path:     path,
		DiffMode: opts.diffMode(),
		Standard: opts.standard,
		Rule:     opts.rule,
	}

	report, err := a.lintOnce(ctx, runner, out, cmd)
	if err != nil {
		return err
	}

	if opts.watch {
		return a.watch(ctx, runner, out, cmd)
	}

	if report.Summary.TotalViolations > 0 && !opts.continueOnError {
		return &ExitError{Code: 1}
	}
	return nil
}

// lintOnce runs the linter and prints its report.
func (a *app) lintOnce(ctx context.Context, runner *lint.Runner, out *reporter, cmd lint.Command) (*lint.Report, error) {
	start := time.Now()
	report, err := runner.Lint(ctx, cmd)
	if err != nil {
		return nil, lintError(err)
	}
	if err := out.Report(report); err != nil {
		return nil, err
	}
	if out.format != FormatJSON {
		fmt.Fprintf(a.stderr, "Lint completed in %.2fs\n", time.Since(start).Seconds())
	}
	return report, nil
}

// lintError turns runner errors into the messages users act on.
func lintError(err error) error {
	switch {
	case errors.Is(err, lint.ErrNoConfig):
		return fmt.Errorf("%w: install a package or add a packmind.json to set up linting", err)
	case errors.Is(err, lint.ErrNotGitRepo):
		return fmt.Errorf("%w: --changed-files and --changed-lines require the project to be in a Git repository", err)
	}
	return err
}

// lintSource returns the bundle from --programs, or the program store.
func (a *app) lintSource(bundlePath string) (programs.Source, func(), error) {
	if bundlePath != "" {
		b, err := readBundle(bundlePath)
		if err != nil {
			return nil, nil, err
		}
		return programs.NewStaticSource(b), func() {}, nil
	}

	store, db, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := db.Close(); err != nil {
			a.logger.Warn("Failed to close program store", slog.String("error", err.Error()))
		}
	}, nil
}

// watch re-lints whenever a relevant file under the lint path changes.
// Lint errors are printed and watching continues.
func (a *app) watch(ctx context.Context, runner *lint.Runner, out *reporter, cmd lint.Command) error {
	root, err := filepath.Abs(cmd.Path)
	if err != nil {
		return err
	}
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		root = filepath.Dir(root)
	}

	var wopts []lint.WatcherOption
	wopts = append(wopts, lint.WithWatcherLogger(a.logger))
	if a.cfg.Lint.WatchDebounce > 0 {
		wopts = append(wopts, lint.WithDebounce(a.cfg.Lint.WatchDebounce))
	}
	w, err := lint.NewWatcher(root, wopts...)
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Fprintf(a.stderr, "Watching %s for changes (Ctrl+C to stop)\n", root)
	err = w.Watch(ctx, func(ctx context.Context, changed []string) {
		a.logger.Debug("Change detected", slog.Int("files", len(changed)))
		if _, err := a.lintOnce(ctx, runner, out, cmd); err != nil && ctx.Err() == nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func readBundle(path string) (*programs.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	return programs.DecodeBundle(data)
}
