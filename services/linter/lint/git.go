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
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/go-diff/diff"
)

// Git answers the repository questions a lint run needs.
type Git interface {
	// Root returns the top-level directory of the repository holding dir.
	Root(ctx context.Context, dir string) (string, error)

	// ModifiedFiles returns absolute paths of files changed since HEAD
	// plus untracked files.
	ModifiedFiles(ctx context.Context, root string) ([]string, error)

	// ModifiedLines returns the changed line ranges since HEAD. Untracked
	// files count as entirely modified.
	ModifiedLines(ctx context.Context, root string) ([]ModifiedLine, error)
}

// CLIGit implements Git with the git binary.
type CLIGit struct {
	timeout time.Duration
}

// NewCLIGit returns a Git backed by the git command. A zero timeout
// means 30 seconds per command.
func NewCLIGit(timeout time.Duration) *CLIGit {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CLIGit{timeout: timeout}
}

func (g *CLIGit) run(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("git %s: timeout after %v", args[0], g.timeout)
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Root implements Git.
func (g *CLIGit) Root(ctx context.Context, dir string) (string, error) {
	out, err := g.run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotGitRepo, err)
	}
	root := strings.TrimSpace(out)
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return filepath.Clean(root), nil
}

// ModifiedFiles implements Git.
func (g *CLIGit) ModifiedFiles(ctx context.Context, root string) ([]string, error) {
	changed, err := g.diffAgainstHead(ctx, root, "--name-only", "--diff-filter=ACMRT")
	if err != nil {
		return nil, err
	}
	untracked, err := g.untracked(ctx, root)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	for _, name := range splitLines(changed) {
		set[filepath.Join(root, filepath.FromSlash(name))] = true
	}
	for _, name := range untracked {
		set[name] = true
	}

	files := make([]string, 0, len(set))
	for f := range set {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

// ModifiedLines implements Git.
func (g *CLIGit) ModifiedLines(ctx context.Context, root string) ([]ModifiedLine, error) {
	out, err := g.diffAgainstHead(ctx, root, "--unified=0", "--no-color", "--no-ext-diff", "--diff-filter=ACMRT")
	if err != nil {
		return nil, err
	}

	lines, err := parseModifiedLines(root, []byte(out))
	if err != nil {
		return nil, err
	}

	untracked, err := g.untracked(ctx, root)
	if err != nil {
		return nil, err
	}
	for _, f := range untracked {
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		if n := countLines(data); n > 0 {
			lines = append(lines, ModifiedLine{File: f, StartLine: 1, LineCount: n})
		}
	}
	return lines, nil
}

// diffAgainstHead diffs the working tree against HEAD, falling back to the
// index for repositories without commits.
func (g *CLIGit) diffAgainstHead(ctx context.Context, root string, args ...string) (string, error) {
	out, err := g.run(ctx, root, append([]string{"diff", "HEAD"}, args...)...)
	if err == nil {
		return out, nil
	}
	if _, headErr := g.run(ctx, root, "rev-parse", "--verify", "HEAD"); headErr == nil {
		return "", err
	}
	return g.run(ctx, root, append([]string{"diff", "--cached"}, args...)...)
}

func (g *CLIGit) untracked(ctx context.Context, root string) ([]string, error) {
	out, err := g.run(ctx, root, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, name := range splitLines(out) {
		files = append(files, filepath.Join(root, filepath.FromSlash(name)))
	}
	return files, nil
}

// parseModifiedLines extracts added line ranges from a unified diff.
// Hunks that only delete lines are dropped.
func parseModifiedLines(root string, patch []byte) ([]ModifiedLine, error) {
	if len(bytes.TrimSpace(patch)) == 0 {
		return nil, nil
	}
	fileDiffs, err := diff.ParseMultiFileDiff(patch)
	if err != nil {
		return nil, fmt.Errorf("parse git diff: %w", err)
	}

	var out []ModifiedLine
	for _, fd := range fileDiffs {
		name := strings.TrimPrefix(fd.NewName, "b/")
		if name == "" || name == "/dev/null" {
			continue
		}
		file := filepath.Join(root, filepath.FromSlash(name))
		for _, h := range fd.Hunks {
			if h.NewLines <= 0 {
				continue
			}
			out = append(out, ModifiedLine{
				File:      file,
				StartLine: int(h.NewStartLine),
				LineCount: int(h.NewLines),
			})
		}
	}
	return out, nil
}

// filterByLines keeps violations that sit on a modified line.
func filterByLines(files []FileViolations, modified []ModifiedLine) []FileViolations {
	byFile := make(map[string][]ModifiedLine)
	for _, m := range modified {
		byFile[m.File] = append(byFile[m.File], m)
	}

	var out []FileViolations
	for _, fv := range files {
		ranges := byFile[fv.File]
		if len(ranges) == 0 {
			continue
		}
		kept := fv.Violations[:0:0]
		for _, v := range fv.Violations {
			for _, r := range ranges {
				if r.Contains(v.Line) {
					kept = append(kept, v)
					break
				}
			}
		}
		if len(kept) > 0 {
			out = append(out, FileViolations{File: fv.File, Violations: kept})
		}
	}
	return out
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte("\n"))
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}
