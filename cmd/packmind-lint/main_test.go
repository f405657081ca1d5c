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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PackmindHub/packmind-linter/services/linter/execution"
	"github.com/PackmindHub/packmind-linter/services/linter/language"
	"github.com/PackmindHub/packmind-linter/services/linter/lint"
	"github.com/PackmindHub/packmind-linter/services/linter/programs"
)

const todoProgram = `
import "strings"

func checkSourceCode(src string) []int {
	var lines []int
	for i, line := range strings.Split(src, "\n") {
		if strings.Contains(line, "TODO") {
			lines = append(lines, i)
		}
	}
	return lines
}
`

// testEnv is an isolated packmind home plus a project to lint.
type testEnv struct {
	home    string
	project string
	bundle  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	env := &testEnv{
		home:    filepath.Join(base, "home"),
		project: filepath.Join(base, "project"),
		bundle:  filepath.Join(base, "bundle.json"),
	}
	t.Setenv("PACKMIND_LINTER_HOME", env.home)
	t.Setenv("OTEL_TRACES_EXPORTER", "none")
	t.Setenv("OTEL_METRICS_EXPORTER", "none")

	writeTestFile(t, filepath.Join(env.project, "packmind.json"), `{"packages": {"hygiene": "*"}}`)
	writeTestFile(t, filepath.Join(env.project, "main.go"), "package main\n\n// TODO: remove\nfunc main() {}\n")
	writeTestFile(t, filepath.Join(env.project, "clean.go"), "package main\n")

	b := &programs.Bundle{Packages: []programs.Package{{
		Slug: "hygiene",
		Standards: []programs.Standard{{
			Slug: "no-todo",
			Rules: []programs.Rule{{
				Content: "Do not leave TODO comments",
				ActiveDetectionPrograms: []programs.DetectionProgram{{
					Language:        language.Go,
					SourceCodeState: execution.StateRaw,
					Code:            todoProgram,
				}},
			}},
		}},
	}}}
	data, err := programs.EncodeBundle(b)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(env.bundle, data, 0644))
	return env
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_LintWithBundle(t *testing.T) {
	env := newTestEnv(t)

	code, stdout, stderr := runCLI("lint", "--programs", env.bundle, env.project)

	assert.Equal(t, 1, code, stderr)
	assert.Contains(t, stdout, filepath.Join(env.project, "main.go"))
	assert.Contains(t, stdout, "3:1  error  Do not leave TODO comments  no-todo")
	assert.Contains(t, stdout, "✗ 1 violation in 1 file (3 files checked)")
	assert.Contains(t, stderr, "Lint completed in")
	assert.FileExists(t, filepath.Join(env.home, "linter.yaml"))
}

func TestRun_LintContinueOnError(t *testing.T) {
	env := newTestEnv(t)

	code, _, stderr := runCLI("lint", "--continue-on-error", "--programs", env.bundle, env.project)
	assert.Equal(t, 0, code, stderr)
}

func TestRun_LintIDEFormat(t *testing.T) {
	env := newTestEnv(t)

	_, stdout, _ := runCLI("lint", "--logger", "ide", "--programs", env.bundle, env.project)
	assert.Equal(t,
		filepath.Join(env.project, "main.go")+":3:1: error: Do not leave TODO comments [no-todo]\n",
		stdout)
}

func TestRun_LintJSONFormat(t *testing.T) {
	env := newTestEnv(t)

	_, stdout, _ := runCLI("lint", "--logger", "json", "--programs", env.bundle, env.project)

	var report lint.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, lint.Summary{
		TotalFiles:       3,
		ViolatedFiles:    1,
		TotalViolations:  1,
		StandardsChecked: []string{"no-todo"},
	}, report.Summary)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, 3, report.Violations[0].Violations[0].Line)
}

func TestRun_LintNoConfig(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.Remove(filepath.Join(env.project, "packmind.json")))

	code, _, stderr := runCLI("lint", "--programs", env.bundle, env.project)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no packmind.json found")
}

func TestRun_LintInvalidFlags(t *testing.T) {
	env := newTestEnv(t)

	code, _, stderr := runCLI("lint", "--logger", "xml", "--programs", env.bundle, env.project)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown logger")

	code, _, _ = runCLI("lint", "--changed-files", "--changed-lines", env.project)
	assert.Equal(t, 1, code)
}

func TestRun_ProgramsLifecycle(t *testing.T) {
	env := newTestEnv(t)

	code, stdout, stderr := runCLI("programs", "import", env.bundle)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Imported 1 package: hygiene")

	code, stdout, _ = runCLI("programs", "list", "--json")
	require.Equal(t, 0, code)
	var summaries []programs.Summary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "hygiene", summaries[0].Slug)
	assert.Equal(t, 1, summaries[0].Programs)

	// The store now serves lint runs without --programs.
	code, stdout, _ = runCLI("lint", "--logger", "ide", env.project)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "Do not leave TODO comments")

	code, stdout, _ = runCLI("programs", "delete", "hygiene")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Deleted package hygiene")

	code, _, stderr = runCLI("programs", "delete", "hygiene")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, programs.ErrPackageNotFound.Error())
}

func TestRun_Languages(t *testing.T) {
	newTestEnv(t)

	code, stdout, _ := runCLI("languages", "--json")
	require.Equal(t, 0, code)

	var rows []languageRow
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, len(language.All()))

	supported := map[language.Language]bool{}
	for _, r := range rows {
		supported[r.Language] = r.ASTSupported
	}
	assert.True(t, supported[language.TypeScript])
	assert.False(t, supported[language.JSON])

	code, stdout, _ = runCLI("languages")
	require.Equal(t, 0, code)
	assert.True(t, strings.Contains(stdout, "TypeScript"))
}

func TestParseOutputFormat(t *testing.T) {
	f, err := ParseOutputFormat(" IDE ")
	require.NoError(t, err)
	assert.Equal(t, FormatIDE, f)

	_, err = ParseOutputFormat("sarif")
	assert.Error(t, err)
}

func TestReporter_HumanClean(t *testing.T) {
	var buf bytes.Buffer
	r := newReporter(&buf, FormatHuman, "")
	require.NoError(t, r.Report(&lint.Report{Summary: lint.Summary{TotalFiles: 1}}))
	assert.Equal(t, "✓ No violations found (1 file checked)\n", buf.String())
}
