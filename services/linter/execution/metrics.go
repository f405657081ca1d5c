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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for program execution.
var (
	tracer = otel.Tracer("packmind.linter.execution")
	meter  = otel.Meter("packmind.linter.execution")
)

// Metrics for program execution.
var (
	executeLatency  metric.Float64Histogram
	programLatency  metric.Float64Histogram
	programOutcomes metric.Int64Counter
	violationsFound metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		executeLatency, err = meter.Float64Histogram(
			"linter_execute_duration_seconds",
			metric.WithDescription("Duration of a full execution over one file"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		programLatency, err = meter.Float64Histogram(
			"linter_program_duration_seconds",
			metric.WithDescription("Duration of compiling and running one detection program"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		programOutcomes, err = meter.Int64Counter(
			"linter_programs_total",
			metric.WithDescription("Detection programs run, by phase and outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		violationsFound, err = meter.Int64Counter(
			"linter_violations_total",
			metric.WithDescription("Violations reported by detection programs"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startExecuteSpan creates a span for one Execute call.
func startExecuteSpan(ctx context.Context, lang, filePath string, programCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Executor.Execute",
		trace.WithAttributes(
			attribute.String("linter.language", lang),
			attribute.String("linter.file_path", filePath),
			attribute.Int("linter.program_count", programCount),
		),
	)
}

// setExecuteSpanResult sets the result attributes on an execute span.
func setExecuteSpanResult(span trace.Span, violationCount int, stats Stats) {
	span.SetAttributes(
		attribute.Int("linter.violation_count", violationCount),
		attribute.Int("linter.programs_matched", stats.ProgramsMatched),
		attribute.Int("linter.programs_failed", stats.Failed()),
		attribute.String("linter.ast_skipped", string(stats.ASTSkipped)),
	)
}

// recordExecuteMetrics records metrics for one Execute call.
func recordExecuteMetrics(ctx context.Context, lang string, duration time.Duration, violationCount int) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("language", lang))
	executeLatency.Record(ctx, duration.Seconds(), attrs)
	if violationCount > 0 {
		violationsFound.Add(ctx, int64(violationCount), attrs)
	}
}

// recordProgramMetrics records metrics for one program run.
func recordProgramMetrics(ctx context.Context, phase SourceCodeState, outcome string, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("phase", string(phase)),
		attribute.String("outcome", outcome),
	)
	programLatency.Record(ctx, duration.Seconds(), attrs)
	programOutcomes.Add(ctx, 1, attrs)
}
