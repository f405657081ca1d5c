// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package execution

import (
	"github.com/PackmindHub/packmind-linter/services/linter/language"
)

// =============================================================================
// SOURCE CODE STATE
// =============================================================================

// SourceCodeState selects what checkSourceCode receives.
type SourceCodeState string

const (
	// StateAST programs receive the parsed *ast.Node root.
	StateAST SourceCodeState = "AST"

	// StateRaw programs receive the file content as a string.
	StateRaw SourceCodeState = "RAW"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity is the severity a program reports its violations with.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// orDefault returns s, or SeverityError when s is empty.
func (s Severity) orDefault() Severity {
	if s == "" {
		return SeverityError
	}
	return s
}

// =============================================================================
// COMMAND
// =============================================================================

// Program is one detection program candidate.
type Program struct {
	// StandardSlug identifies the standard the rule belongs to.
	StandardSlug string `json:"standardSlug"`

	// RuleContent is a rule description or a path such as
	// "rules/interface-rule.js". See RuleName.
	RuleContent string `json:"ruleContent"`

	// Code is the program source declaring checkSourceCode.
	Code string `json:"code"`

	SourceCodeState SourceCodeState   `json:"sourceCodeState"`
	Language        language.Language `json:"language"`

	// Severity is copied onto every violation. Empty means ERROR.
	Severity Severity `json:"severity,omitempty"`
}

// Command is a single execution request for one file.
type Command struct {
	FilePath    string            `json:"filePath"`
	FileContent string            `json:"fileContent"`
	Language    language.Language `json:"language"`

	// Programs may mix languages; only those matching Language run.
	Programs []Program `json:"programs"`
}

// =============================================================================
// RESULT
// =============================================================================

// Violation is one normalised finding.
type Violation struct {
	// Line is 1-indexed.
	Line int `json:"line"`

	// Character is a 0-indexed column, 0 when the program gave none.
	Character int `json:"character"`

	Rule     string   `json:"rule"`
	Standard string   `json:"standard"`
	Severity Severity `json:"severity"`
}

// ASTSkipReason explains why the AST phase did not run.
type ASTSkipReason string

const (
	ASTSkipNone                ASTSkipReason = ""
	ASTSkipUnsupportedLanguage ASTSkipReason = "unsupported_language"
	ASTSkipParseFailed         ASTSkipReason = "parse_failed"
	ASTSkipCanceled            ASTSkipReason = "canceled"
)

// Stats reports what happened to each program during an execution.
// It never affects Violations.
type Stats struct {
	ProgramsReceived    int           `json:"programsReceived"`
	ProgramsMatched     int           `json:"programsMatched"`
	ProgramsSucceeded   int           `json:"programsSucceeded"`
	CompilationFailures int           `json:"compilationFailures"`
	ExecutionFailures   int           `json:"executionFailures"`
	Timeouts            int           `json:"timeouts"`
	MalformedResults    int           `json:"malformedResults"`
	InvalidMarkers      int           `json:"invalidMarkers"`
	ProgramsSkipped     int           `json:"programsSkipped"`
	ASTSkipped          ASTSkipReason `json:"astSkipped,omitempty"`
}

// Failed returns the number of programs that contributed nothing because
// of an error.
func (s Stats) Failed() int {
	return s.CompilationFailures + s.ExecutionFailures + s.Timeouts + s.MalformedResults
}

// Result holds the violations found in one file.
//
// Violations from RAW programs come first, then AST programs. Within a
// phase, programs keep their input order and each program's violations
// keep the order the program returned them in.
type Result struct {
	File       string      `json:"file"`
	Violations []Violation `json:"violations"`
	Stats      Stats       `json:"stats"`
}
