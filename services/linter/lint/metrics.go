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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("packmind.linter.lint")
	meter  = otel.Meter("packmind.linter.lint")
)

var (
	runLatency   metric.Float64Histogram
	runTotal     metric.Int64Counter
	filesLinted  metric.Int64Counter
	runViolation metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runLatency, err = meter.Float64Histogram(
			"lint_run_duration_seconds",
			metric.WithDescription("Duration of local lint runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runTotal, err = meter.Int64Counter(
			"lint_runs_total",
			metric.WithDescription("Total number of local lint runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesLinted, err = meter.Int64Counter(
			"lint_files_total",
			metric.WithDescription("Files considered by local lint runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runViolation, err = meter.Int64Histogram(
			"lint_run_violations",
			metric.WithDescription("Violations reported per lint run"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

func startRunSpan(ctx context.Context, path string, mode DiffMode, runID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "lint.Runner.Lint",
		trace.WithAttributes(
			attribute.String("lint.path", path),
			attribute.String("lint.diff_mode", string(mode)),
			attribute.String("lint.run_id", runID),
		),
	)
}

func setRunSpanResult(span trace.Span, s Summary) {
	span.SetAttributes(
		attribute.Int("lint.total_files", s.TotalFiles),
		attribute.Int("lint.violated_files", s.ViolatedFiles),
		attribute.Int("lint.total_violations", s.TotalViolations),
	)
}

func recordRunMetrics(ctx context.Context, mode DiffMode, duration time.Duration, s Summary, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	modeName := string(mode)
	if modeName == "" {
		modeName = "NONE"
	}
	attrs := metric.WithAttributes(
		attribute.String("diff_mode", modeName),
		attribute.Bool("success", success),
	)

	runLatency.Record(ctx, duration.Seconds(), attrs)
	runTotal.Add(ctx, 1, attrs)
	filesLinted.Add(ctx, int64(s.TotalFiles), attrs)
	runViolation.Record(ctx, int64(s.TotalViolations), attrs)
}
