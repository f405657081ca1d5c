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
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/PackmindHub/packmind-linter/services/linter/ast"
	"github.com/PackmindHub/packmind-linter/services/linter/sandbox"
)

// DefaultProgramTimeout bounds compiling and running one program.
const DefaultProgramTimeout = 5 * time.Second

// =============================================================================
// EXECUTOR
// =============================================================================

// Compiler turns program source into a callable checkSourceCode.
// *sandbox.Compiler is the production implementation.
type Compiler interface {
	Compile(ctx context.Context, code string) (sandbox.CheckFunc, error)
}

// Executor runs detection programs against one file at a time.
//
// Description:
//
//	Programs are filtered by language, RAW programs run against the file
//	text, then AST programs run against a tree parsed once per call. A
//	failing program, or a failing parse, only costs the violations it
//	would have produced.
//
// Thread Safety: Safe for concurrent use. The executor keeps no state
// between calls beyond its collaborators.
type Executor struct {
	parser         ast.Port
	compiler       Compiler
	logger         *slog.Logger
	programTimeout time.Duration
}

// Option configures the Executor.
type Option func(*Executor)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCompiler replaces the program compiler.
func WithCompiler(compiler Compiler) Option {
	return func(e *Executor) {
		if compiler != nil {
			e.compiler = compiler
		}
	}
}

// WithProgramTimeout bounds each program. Zero or negative disables the
// bound, leaving only the caller's context.
func WithProgramTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.programTimeout = d
	}
}

// NewExecutor creates an executor.
//
// Inputs:
//
//	parser - The AST port used for AST programs. Must not be nil.
//	opts - Optional configuration options.
//
// Outputs:
//
//	*Executor - The configured executor.
func NewExecutor(parser ast.Port, opts ...Option) *Executor {
	e := &Executor{
		parser:         parser,
		compiler:       sandbox.NewCompiler(),
		logger:         slog.Default(),
		programTimeout: DefaultProgramTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the command's programs against its file.
//
// Description:
//
//	Never fails: compilation errors, execution errors, timeouts, malformed
//	results and parse failures are logged, counted in Result.Stats and
//	otherwise ignored. Cancelling ctx stops the remaining programs.
//
// Inputs:
//
//	ctx - Context for cancellation and tracing.
//	cmd - The file and candidate programs.
//
// Outputs:
//
//	Result - Violations for cmd.FilePath. Violations is never nil.
//
// Thread Safety: Safe for concurrent use.
func (e *Executor) Execute(ctx context.Context, cmd Command) (result Result) {
	result = Result{
		File:       cmd.FilePath,
		Violations: []Violation{},
		Stats:      Stats{ProgramsReceived: len(cmd.Programs)},
	}
	if len(cmd.Programs) == 0 {
		return result
	}

	ctx, span := startExecuteSpan(ctx, string(cmd.Language), cmd.FilePath, len(cmd.Programs))
	defer span.End()
	start := time.Now()

	logger := e.logger.With(
		slog.String("file", cmd.FilePath),
		slog.String("language", string(cmd.Language)),
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Unexpected failure while executing detection programs",
				slog.Any("panic", r))
		}
		setExecuteSpanResult(span, len(result.Violations), result.Stats)
		recordExecuteMetrics(ctx, string(cmd.Language), time.Since(start), len(result.Violations))
	}()

	var rawPrograms, astPrograms []Program
	for _, p := range cmd.Programs {
		if p.Language != cmd.Language {
			continue
		}
		result.Stats.ProgramsMatched++
		switch p.SourceCodeState {
		case StateRaw:
			rawPrograms = append(rawPrograms, p)
		case StateAST:
			astPrograms = append(astPrograms, p)
		default:
			logger.Warn("Unknown source code state, skipping program",
				slog.String("standard", p.StandardSlug),
				slog.String("rule", p.RuleContent),
				slog.String("source_code_state", string(p.SourceCodeState)))
			result.Stats.ProgramsSkipped++
		}
	}

	if result.Stats.ProgramsMatched != len(cmd.Programs) {
		logger.Debug("Filtered programs by language",
			slog.Int("received", len(cmd.Programs)),
			slog.Int("matched", result.Stats.ProgramsMatched))
	}
	if len(rawPrograms)+len(astPrograms) == 0 {
		return result
	}

	for _, p := range rawPrograms {
		if ctx.Err() != nil {
			result.Stats.ProgramsSkipped++
			continue
		}
		result.Violations = append(result.Violations,
			e.runProgram(ctx, logger, p, cmd.FileContent, &result.Stats)...)
	}

	if len(astPrograms) == 0 {
		return result
	}

	root, reason := e.parse(ctx, logger, cmd)
	if root == nil {
		result.Stats.ASTSkipped = reason
		result.Stats.ProgramsSkipped += len(astPrograms)
		return result
	}

	for _, p := range astPrograms {
		if ctx.Err() != nil {
			result.Stats.ProgramsSkipped++
			continue
		}
		// Each program gets its own tree so none can alter what the next sees.
		result.Violations = append(result.Violations,
			e.runProgram(ctx, logger, p, root.Clone(), &result.Stats)...)
	}

	return result
}

// parse obtains the shared tree for the AST phase. A nil node means the
// phase is skipped for the returned reason.
func (e *Executor) parse(ctx context.Context, logger *slog.Logger, cmd Command) (*ast.Node, ASTSkipReason) {
	if !e.parser.IsLanguageSupported(cmd.Language) {
		logger.Warn("AST parsing not supported for language, skipping AST programs")
		return nil, ASTSkipUnsupportedLanguage
	}
	if ctx.Err() != nil {
		return nil, ASTSkipCanceled
	}

	root, err := e.parser.ParseSourceCode(ctx, cmd.FileContent, cmd.Language)
	if err == nil && root == nil {
		err = fmt.Errorf("%w: parser returned no tree", ErrParseUnavailable)
	}
	if err != nil {
		logger.Error("Failed to parse source code, skipping AST programs",
			slog.String("error", fmt.Errorf("%w: %w", ErrParseUnavailable, err).Error()))
		return nil, ASTSkipParseFailed
	}
	return root, ASTSkipNone
}

// runProgram compiles and runs one program and maps its result.
func (e *Executor) runProgram(ctx context.Context, logger *slog.Logger, p Program, input any, stats *Stats) (violations []Violation) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", ErrExecution, r)
			e.logFailure(logger, p, err)
			stats.ExecutionFailures++
			outcome = category(err)
			violations = nil
		}
		recordProgramMetrics(ctx, p.SourceCodeState, outcome, time.Since(start))
	}()

	if e.programTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.programTimeout)
		defer cancel()
	}

	check, err := e.compiler.Compile(ctx, p.Code)
	if err == nil && check == nil {
		err = fmt.Errorf("%w: compiler returned no function", ErrCompilation)
	}
	if err == nil {
		var raw any
		raw, err = check(ctx, input)
		if err == nil {
			violations, err = e.toViolations(logger, p, raw, stats)
		}
	}

	if err != nil {
		outcome = category(err)
		switch outcome {
		case "timeout":
			stats.Timeouts++
		case "compilation":
			stats.CompilationFailures++
		case "malformed_result":
			stats.MalformedResults++
			logger.Warn("Program result is not an array",
				slog.String("standard", p.StandardSlug),
				slog.String("rule", p.RuleContent))
			return nil
		default:
			stats.ExecutionFailures++
		}
		e.logFailure(logger, p, err)
		return nil
	}

	stats.ProgramsSucceeded++
	return violations
}

func (e *Executor) logFailure(logger *slog.Logger, p Program, err error) {
	perr := &ProgramError{
		Phase:        p.SourceCodeState,
		StandardSlug: p.StandardSlug,
		RuleContent:  p.RuleContent,
		Err:          err,
	}
	logger.Error("Failed to execute detection program",
		slog.String("phase", string(p.SourceCodeState)),
		slog.String("standard", p.StandardSlug),
		slog.String("rule", p.RuleContent),
		slog.String("category", category(err)),
		slog.String("error", perr.Error()))
}

// toViolations maps a program's raw result to violations. Elements that
// do not decode to a valid line are dropped with a warning.
func (e *Executor) toViolations(logger *slog.Logger, p Program, raw any, stats *Stats) ([]Violation, error) {
	list := reflect.ValueOf(raw)
	for list.IsValid() && list.Kind() == reflect.Interface {
		list = list.Elem()
	}
	if !list.IsValid() || (list.Kind() != reflect.Slice && list.Kind() != reflect.Array) {
		return nil, fmt.Errorf("%w: got %T", ErrMalformedResult, raw)
	}

	rule := RuleName(p.RuleContent)
	severity := p.Severity.orDefault()

	violations := make([]Violation, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		marker, ok := decodeValue(list.Index(i))
		if !ok {
			logger.Warn("Invalid violation format, skipping",
				slog.String("standard", p.StandardSlug),
				slog.String("rule", p.RuleContent),
				slog.Int("index", i))
			stats.InvalidMarkers++
			continue
		}

		line, ok := toLine(marker.Line)
		if !ok {
			logger.Warn("Invalid line number, skipping",
				slog.String("standard", p.StandardSlug),
				slog.String("rule", p.RuleContent),
				slog.Float64("line", marker.Line))
			stats.InvalidMarkers++
			continue
		}

		violations = append(violations, Violation{
			Line:      line,
			Character: int(marker.Character),
			Rule:      rule,
			Standard:  p.StandardSlug,
			Severity:  severity,
		})
	}
	return violations, nil
}
