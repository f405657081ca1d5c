// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/PackmindHub/packmind-linter/services/linter/execution"
	"github.com/PackmindHub/packmind-linter/services/linter/language"
	"github.com/PackmindHub/packmind-linter/services/linter/programs"
)

// =============================================================================
// LINT RUNNER
// =============================================================================

// Executor runs the programs of one file.
type Executor interface {
	Execute(ctx context.Context, cmd execution.Command) execution.Result
}

// excludedFileDirs are skipped when listing files to lint.
var excludedFileDirs = map[string]bool{
	"node_modules": true,
	"dist":         true,
	".git":         true,
	"vendor":       true,
}

// Runner lints files of a local checkout.
//
// Description:
//
//	Finds packmind.json targets, resolves their packages through a
//	programs.Source and hands each file with its matching programs to the
//	Executor. Files are processed concurrently.
//
// Thread Safety: Safe for concurrent use. Program caches are per run.
type Runner struct {
	executor    Executor
	source      programs.Source
	git         Git
	logger      *slog.Logger
	concurrency int
}

// Option configures the Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithGit replaces the git client. Nil disables git entirely.
func WithGit(g Git) Option {
	return func(r *Runner) {
		r.git = g
	}
}

// WithConcurrency bounds the number of files linted at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRunner creates a runner.
//
// Inputs:
//
//	executor - Runs detection programs for one file.
//	source - Resolves package slugs from packmind.json to standards.
//	opts - Optional configuration.
func NewRunner(executor Executor, source programs.Source, opts ...Option) *Runner {
	r := &Runner{
		executor:    executor,
		source:      source,
		git:         NewCLIGit(0),
		logger:      slog.Default(),
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// runState is the per-run program cache.
type runState struct {
	cmd       Command
	targets   []Target
	basePath  string
	group     singleflight.Group
	mu        sync.Mutex
	standards map[string][]programs.Standard
}

// fileOutcome is what linting one file produced.
type fileOutcome struct {
	violations []execution.Violation
	standards  []string
	stats      execution.Stats
}

// Lint runs every applicable detection program over the files at cmd.Path.
//
// Description:
//
//	Configs are collected from the ancestors of the lint path up to the
//	git root and from every directory below the git root (or below the
//	lint path outside git). A file is checked by each config whose
//	directory holds it, against the standards whose scope matches the
//	file. Diff modes restrict files, and for DiffLines violations, to
//	changes since HEAD.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	cmd - The lint command.
//
// Outputs:
//
//	*Report - Violations sorted by file, with a summary.
//	error - ErrInvalidInput, ErrPathNotFound, ErrNotGitRepo, ErrNoConfig,
//	        or a program source failure.
//
// Thread Safety: Safe for concurrent use.
func (r *Runner) Lint(ctx context.Context, cmd Command) (report *Report, err error) {
	if strings.TrimSpace(cmd.Path) == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidInput)
	}

	runID := uuid.NewString()
	ctx, span := startRunSpan(ctx, cmd.Path, cmd.DiffMode, runID)
	defer span.End()
	start := time.Now()
	logger := r.logger.With(slog.String("run_id", runID))

	defer func() {
		var s Summary
		if report != nil {
			s = report.Summary
			setRunSpanResult(span, s)
		}
		recordRunMetrics(ctx, cmd.DiffMode, time.Since(start), s, err == nil)
	}()

	absPath, err := filepath.Abs(cmd.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPathNotFound, err)
	}
	if resolved, evalErr := filepath.EvalSymlinks(absPath); evalErr == nil {
		absPath = resolved
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, absPath)
	}

	dir := absPath
	if !info.IsDir() {
		dir = filepath.Dir(absPath)
	}

	gitRoot := ""
	if r.git != nil {
		if root, rootErr := r.git.Root(ctx, dir); rootErr == nil {
			gitRoot = root
		}
	}

	report = &Report{RunID: runID, Violations: []FileViolations{}}
	report.Summary.StandardsChecked = []string{}

	var modifiedFiles map[string]bool
	var modifiedLines []ModifiedLine
	if cmd.DiffMode != DiffNone {
		if gitRoot == "" {
			return nil, fmt.Errorf("%w: %s", ErrNotGitRepo, dir)
		}
		modifiedFiles, modifiedLines, err = r.modified(ctx, cmd.DiffMode, gitRoot)
		if err != nil {
			return nil, err
		}
		logger.Debug("Collected git changes",
			slog.Int("files", len(modifiedFiles)),
			slog.Int("ranges", len(modifiedLines)))
		if len(modifiedFiles) == 0 {
			return report, nil
		}
	}

	finder := configFinder{logger: logger}
	targets, basePath := finder.find(dir, gitRoot)
	if len(targets) == 0 {
		boundary := gitRoot
		if boundary == "" {
			boundary = "filesystem root"
		}
		return nil, fmt.Errorf("%w: between %s and %s", ErrNoConfig, dir, boundary)
	}
	for _, t := range targets {
		logger.Debug("Using config",
			slog.String("path", filepath.Join(t.AbsoluteTargetPath, ConfigFileName)),
			slog.String("target", t.TargetPath))
	}

	var files []string
	if info.IsDir() {
		files, err = listFiles(ctx, absPath)
		if err != nil {
			return nil, err
		}
	} else {
		files = []string{absPath}
	}
	if modifiedFiles != nil {
		kept := files[:0]
		for _, f := range files {
			if modifiedFiles[f] {
				kept = append(kept, f)
			}
		}
		files = kept
	}
	logger.Debug("Found files to lint", slog.Int("count", len(files)))

	state := &runState{
		cmd:       cmd,
		targets:   targets,
		basePath:  basePath,
		standards: make(map[string][]programs.Standard),
	}

	outcomes := make([]fileOutcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, file := range files {
		g.Go(func() error {
			out, err := r.lintFile(gctx, logger, state, file)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	checked := make(map[string]bool)
	for i, out := range outcomes {
		addStats(&report.Stats, out.stats)
		for _, slug := range out.standards {
			checked[slug] = true
		}
		if len(out.violations) > 0 {
			report.Violations = append(report.Violations, FileViolations{
				File:       files[i],
				Violations: out.violations,
			})
		}
	}

	if cmd.DiffMode == DiffLines {
		before := len(report.Violations)
		report.Violations = filterByLines(report.Violations, modifiedLines)
		if report.Violations == nil {
			report.Violations = []FileViolations{}
		}
		logger.Debug("Filtered violations by modified lines",
			slog.Int("files_before", before),
			slog.Int("files_after", len(report.Violations)))
	}

	sort.SliceStable(report.Violations, func(i, j int) bool {
		return report.Violations[i].File < report.Violations[j].File
	})

	for slug := range checked {
		report.Summary.StandardsChecked = append(report.Summary.StandardsChecked, slug)
	}
	sort.Strings(report.Summary.StandardsChecked)
	report.Summary.TotalFiles = len(files)
	report.Summary.ViolatedFiles = len(report.Violations)
	for _, fv := range report.Violations {
		report.Summary.TotalViolations += len(fv.Violations)
	}

	logger.Info("Lint run completed",
		slog.Int("files", report.Summary.TotalFiles),
		slog.Int("violations", report.Summary.TotalViolations),
		slog.Int("program_failures", report.Stats.Failed()),
		slog.Duration("duration", time.Since(start)))

	return report, nil
}

func (r *Runner) modified(ctx context.Context, mode DiffMode, root string) (map[string]bool, []ModifiedLine, error) {
	set := make(map[string]bool)
	switch mode {
	case DiffFiles:
		files, err := r.git.ModifiedFiles(ctx, root)
		if err != nil {
			return nil, nil, err
		}
		for _, f := range files {
			set[f] = true
		}
		return set, nil, nil
	case DiffLines:
		lines, err := r.git.ModifiedLines(ctx, root)
		if err != nil {
			return nil, nil, err
		}
		for _, l := range lines {
			set[l.File] = true
		}
		return set, lines, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown diff mode %q", ErrInvalidInput, mode)
}

// lintFile gathers the programs that apply to file and executes them.
func (r *Runner) lintFile(ctx context.Context, logger *slog.Logger, state *runState, file string) (fileOutcome, error) {
	var out fileOutcome

	lang, ok := language.FromPath(file)
	if !ok {
		return out, nil
	}

	var progs []execution.Program
	seenStandards := make(map[string]bool)
	for _, target := range state.targets {
		if !target.Contains(file) {
			continue
		}
		standards, err := state.standardsFor(ctx, r.source, target)
		if err != nil {
			return out, err
		}

		rel, targetPath := scopePaths(file, state.basePath, target)
		for _, std := range standards {
			if state.cmd.Standard != "" && std.Slug != state.cmd.Standard {
				continue
			}
			if !inScope(rel, targetPath, std.Scope) {
				continue
			}
			if !seenStandards[std.Slug] {
				seenStandards[std.Slug] = true
				out.standards = append(out.standards, std.Slug)
			}
			for _, p := range std.Programs(lang) {
				if !ruleSelected(state.cmd.Rule, p.RuleContent) {
					continue
				}
				progs = append(progs, p)
			}
		}
	}

	if len(progs) == 0 {
		return out, nil
	}

	content, err := os.ReadFile(file)
	if err != nil {
		logger.Error("Error reading file content",
			slog.String("file", file),
			slog.String("error", err.Error()))
		return out, nil
	}

	res := r.executor.Execute(ctx, execution.Command{
		FilePath:    file,
		FileContent: string(content),
		Language:    lang,
		Programs:    progs,
	})
	out.violations = res.Violations
	out.stats = res.Stats
	return out, nil
}

// standardsFor returns the target's standards, fetching each distinct
// package set once per run.
func (s *runState) standardsFor(ctx context.Context, src programs.Source, t Target) ([]programs.Standard, error) {
	slugs := t.PackageSlugs()
	key := strings.Join(slugs, ",")

	s.mu.Lock()
	cached, ok := s.standards[key]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		s.mu.Lock()
		cached, ok := s.standards[key]
		s.mu.Unlock()
		if ok {
			return cached, nil
		}

		stds, err := src.Standards(ctx, slugs)
		if err != nil {
			return nil, fmt.Errorf("load detection programs for %s: %w", key, err)
		}
		s.mu.Lock()
		s.standards[key] = stds
		s.mu.Unlock()
		return stds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]programs.Standard), nil
}

// scopePaths returns the file path and target path used for scope
// matching. Targets above the base path match relative to themselves.
func scopePaths(file, basePath string, t Target) (rel, target string) {
	root, target := basePath, t.TargetPath
	if target == "" {
		root, target = t.AbsoluteTargetPath, "/"
	}
	r, err := filepath.Rel(root, file)
	if err != nil {
		return filepath.ToSlash(file), target
	}
	return "/" + filepath.ToSlash(r), target
}

func ruleSelected(filter, ruleContent string) bool {
	if filter == "" {
		return true
	}
	return ruleContent == filter || execution.RuleName(ruleContent) == filter
}

// listFiles walks root and returns lintable file paths, sorted.
func listFiles(ctx context.Context, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		name := d.Name()
		if d.IsDir() {
			if p != root && excludedFileDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || skippedFile(name) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list files in %s: %w", root, err)
	}
	return files, nil
}

func skippedFile(name string) bool {
	return strings.Contains(name, ".min.") || strings.HasSuffix(name, ".map") || strings.Contains(name, ".map.")
}
