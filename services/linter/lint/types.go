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
	"errors"
	"fmt"
	"strings"

	"github.com/PackmindHub/packmind-linter/services/linter/execution"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidInput indicates an unusable command.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPathNotFound indicates the lint path does not exist.
	ErrPathNotFound = errors.New("path does not exist or cannot be accessed")

	// ErrNoConfig indicates no packmind.json was found.
	ErrNoConfig = errors.New("no packmind.json found")

	// ErrNotGitRepo indicates a diff mode outside a git repository.
	ErrNotGitRepo = errors.New("not a git repository")
)

// =============================================================================
// COMMAND
// =============================================================================

// DiffMode restricts linting to changes since HEAD.
type DiffMode string

const (
	DiffNone  DiffMode = ""
	DiffFiles DiffMode = "FILES"
	DiffLines DiffMode = "LINES"
)

// ParseDiffMode accepts "", "files" and "lines" in any case.
func ParseDiffMode(s string) (DiffMode, error) {
	switch DiffMode(strings.ToUpper(strings.TrimSpace(s))) {
	case DiffNone:
		return DiffNone, nil
	case DiffFiles:
		return DiffFiles, nil
	case DiffLines:
		return DiffLines, nil
	}
	return DiffNone, fmt.Errorf("%w: unknown diff mode %q", ErrInvalidInput, s)
}

// Command describes one lint run.
type Command struct {
	// Path is a file or directory, absolute or relative to the working
	// directory.
	Path string

	DiffMode DiffMode

	// Standard, when set, keeps only the standard with this slug.
	Standard string

	// Rule, when set, keeps only rules whose content or rule name
	// (see execution.RuleName) equals it.
	Rule string
}

// =============================================================================
// REPORT
// =============================================================================

// FileViolations holds the violations of one file.
type FileViolations struct {
	File       string                `json:"file"`
	Violations []execution.Violation `json:"violations"`
}

// Summary totals a lint run.
type Summary struct {
	TotalFiles       int      `json:"totalFiles"`
	ViolatedFiles    int      `json:"violatedFiles"`
	TotalViolations  int      `json:"totalViolations"`
	StandardsChecked []string `json:"standardsChecked"`
}

// Report is the outcome of Runner.Lint.
type Report struct {
	RunID string `json:"runId"`

	// Violations is sorted by file path. Files without violations are
	// left out.
	Violations []FileViolations `json:"violations"`

	Summary Summary `json:"summary"`

	// Stats sums the execution stats of every file.
	Stats execution.Stats `json:"stats"`
}

// ModifiedLine is a range of added or changed lines in a file.
type ModifiedLine struct {
	// File is absolute.
	File string

	// StartLine is 1-indexed.
	StartLine int
	LineCount int
}

// Contains reports whether the 1-indexed line falls in the range.
func (m ModifiedLine) Contains(line int) bool {
	return line >= m.StartLine && line < m.StartLine+m.LineCount
}

func addStats(dst *execution.Stats, src execution.Stats) {
	dst.ProgramsReceived += src.ProgramsReceived
	dst.ProgramsMatched += src.ProgramsMatched
	dst.ProgramsSucceeded += src.ProgramsSucceeded
	dst.CompilationFailures += src.CompilationFailures
	dst.ExecutionFailures += src.ExecutionFailures
	dst.Timeouts += src.Timeouts
	dst.MalformedResults += src.MalformedResults
	dst.InvalidMarkers += src.InvalidMarkers
	dst.ProgramsSkipped += src.ProgramsSkipped
}
