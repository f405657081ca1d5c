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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/mattn/go-isatty"

	"github.com/PackmindHub/packmind-linter/services/linter/execution"
	"github.com/PackmindHub/packmind-linter/services/linter/lint"
)

// OutputFormat selects how lint reports are printed.
type OutputFormat string

const (
	FormatHuman OutputFormat = "human"
	FormatIDE   OutputFormat = "ide"
	FormatJSON  OutputFormat = "json"
)

// ParseOutputFormat validates the --logger flag.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatHuman, FormatIDE, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown logger %q (expected human, ide or json)", s)
}

var (
	colorError   = lipgloss.Color("#E74C3C")
	colorWarning = lipgloss.Color("#F4D03F")
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorMuted   = lipgloss.Color("#2C4A54")
)

// styles holds the lipgloss styles of the human output. All styles are
// plain when the writer is not a terminal.
type styles struct {
	File    lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	if !isTerminal(w) {
		plain := lipgloss.NewStyle()
		return styles{File: plain, Error: plain, Warning: plain, Success: plain, Muted: plain}
	}
	r := lipgloss.NewRenderer(w)
	return styles{
		File:    r.NewStyle().Bold(true).Underline(true),
		Error:   r.NewStyle().Foreground(colorError).Bold(true),
		Warning: r.NewStyle().Foreground(colorWarning).Bold(true),
		Success: r.NewStyle().Foreground(colorSuccess).Bold(true),
		Muted:   r.NewStyle().Foreground(colorMuted),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// reporter prints lint reports in one format. Text formats print
// 1-indexed columns.
type reporter struct {
	w      io.Writer
	format OutputFormat
	styles styles

	// relTo shortens file paths in human output; empty keeps them absolute.
	relTo string
}

func newReporter(w io.Writer, format OutputFormat, relTo string) *reporter {
	return &reporter{w: w, format: format, styles: newStyles(w), relTo: relTo}
}

// Report prints the report.
func (r *reporter) Report(report *lint.Report) error {
	switch r.format {
	case FormatJSON:
		return writeJSON(r.w, report)
	case FormatIDE:
		return r.ide(report)
	default:
		return r.human(report)
	}
}

func (r *reporter) displayPath(file string) string {
	if r.relTo == "" {
		return file
	}
	rel, err := filepath.Rel(r.relTo, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return file
	}
	return rel
}

func (r *reporter) human(report *lint.Report) error {
	var b strings.Builder
	for _, fv := range report.Violations {
		b.WriteString(r.styles.File.Render(r.displayPath(fv.File)))
		b.WriteByte('\n')
		for _, v := range fv.Violations {
			fmt.Fprintf(&b, "  %s  %s  %s  %s\n",
				r.styles.Muted.Render(fmt.Sprintf("%d:%d", v.Line, v.Character+1)),
				r.severity(v.Severity),
				v.Rule,
				r.styles.Muted.Render(v.Standard))
		}
		b.WriteByte('\n')
	}

	s := report.Summary
	if s.TotalViolations == 0 {
		fmt.Fprintf(&b, "%s No violations found (%s checked)\n",
			r.styles.Success.Render("✓"), plural(s.TotalFiles, "file"))
	} else {
		fmt.Fprintf(&b, "%s %s in %s (%s checked)\n",
			r.styles.Error.Render("✗"),
			plural(s.TotalViolations, "violation"),
			plural(s.ViolatedFiles, "file"),
			plural(s.TotalFiles, "file"))
	}
	if len(s.StandardsChecked) > 0 {
		fmt.Fprintf(&b, "%s\n", r.styles.Muted.Render("Standards: "+strings.Join(s.StandardsChecked, ", ")))
	}
	if failed := report.Stats.Failed(); failed > 0 {
		fmt.Fprintf(&b, "%s %s could not run, see logs\n",
			r.styles.Warning.Render("⚠"), plural(failed, "detection program"))
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *reporter) severity(s execution.Severity) string {
	if s == execution.SeverityWarning {
		return r.styles.Warning.Render("warning")
	}
	return r.styles.Error.Render("error")
}

// ide prints one "file:line:column: severity: rule [standard]" line per
// violation.
func (r *reporter) ide(report *lint.Report) error {
	var b strings.Builder
	for _, fv := range report.Violations {
		for _, v := range fv.Violations {
			fmt.Fprintf(&b, "%s:%d:%d: %s: %s [%s]\n",
				fv.File, v.Line, v.Character+1,
				strings.ToLower(string(v.Severity)), v.Rule, v.Standard)
		}
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

// newTable returns a bordered table for list output.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
