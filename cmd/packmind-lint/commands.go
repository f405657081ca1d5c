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
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/PackmindHub/packmind-linter/cmd/packmind-lint/config"
	"github.com/PackmindHub/packmind-linter/services/linter/ast"
	"github.com/PackmindHub/packmind-linter/services/linter/execution"
	"github.com/PackmindHub/packmind-linter/services/linter/programs"
	badgerstore "github.com/PackmindHub/packmind-linter/services/linter/storage/badger"
	"github.com/PackmindHub/packmind-linter/services/linter/telemetry"
)

// app carries what every subcommand shares.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool

	cfg    config.LinterConfig
	logger *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "packmind-lint",
		Short: "Run Packmind detection programs against your code",
		Long: `packmind-lint checks source files against the detection programs of the
Packmind standards your project installed (packmind.json).`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "",
		"Path to linter.yaml (default ~/.packmind/linter.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"Log debug output to stderr")

	rootCmd.AddCommand(newLintCmd(a))
	rootCmd.AddCommand(newProgramsCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newLanguagesCmd(a))

	return rootCmd
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	path := a.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(path, a.stderr)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := telemetry.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = telemetry.NewLogger(a.stderr, level, cfg.Log.Format)
	return nil
}

// initTelemetry installs the OpenTelemetry providers from the config.
func (a *app) initTelemetry(ctx context.Context) func() {
	shutdown, err := telemetry.Init(ctx, a.cfg.Telemetry)
	if err != nil {
		a.logger.Warn("Telemetry disabled", slog.String("error", err.Error()))
		return func() {}
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			a.logger.Debug("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}
}

// newParser returns the tree-sitter AST adapter.
func (a *app) newParser() *ast.TreeSitterAdapter {
	return ast.NewTreeSitterAdapter(ast.WithLogger(a.logger))
}

// newExecutor returns an executor configured from linter.yaml.
func (a *app) newExecutor(parser ast.Port) *execution.Executor {
	opts := []execution.Option{execution.WithLogger(a.logger)}
	if a.cfg.Lint.ProgramTimeout > 0 {
		opts = append(opts, execution.WithProgramTimeout(a.cfg.Lint.ProgramTimeout))
	}
	return execution.NewExecutor(parser, opts...)
}

// openStore opens the program store. The caller closes the returned DB.
func (a *app) openStore() (*programs.Store, *badgerstore.DB, error) {
	if a.cfg.Store.Path == "" {
		return nil, nil, fmt.Errorf("store.path is not configured")
	}
	cfg := badgerstore.DefaultConfig(a.cfg.Store.Path)
	cfg.Logger = a.logger
	db, err := badgerstore.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open program store: %w", err)
	}
	return programs.NewStore(db, programs.WithStoreLogger(a.logger)), db, nil
}
