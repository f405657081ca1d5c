// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PackmindHub/packmind-linter/services/linter/ast"
)

const rawProgram = `
import "strings"

func checkSourceCode(src string) []int {
	var lines []int
	for i, line := range strings.Split(src, "\n") {
		if strings.Contains(line, "Sample") {
			lines = append(lines, i)
		}
	}
	return lines
}
`

const astProgram = `package main

import "packmind/detection"

func checkSourceCode(root *detection.Node) []detection.Marker {
	var out []detection.Marker
	for _, n := range root.FindAll("interface_declaration") {
		out = append(out, detection.Marker{Line: n.StartLine, Character: n.StartColumn})
	}
	return out
}
`

func compile(t *testing.T, code string) CheckFunc {
	t.Helper()
	fn, err := NewCompiler().Compile(context.Background(), code)
	require.NoError(t, err)
	require.NotNil(t, fn)
	return fn
}

func TestCompiler_RawProgram(t *testing.T) {
	fn := compile(t, rawProgram)

	got, err := fn(context.Background(), "const a = 1\ninterface Sample {}\n")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
}

func TestCompiler_AstProgram(t *testing.T) {
	fn := compile(t, astProgram)

	root := &ast.Node{
		Type: "program",
		Children: []*ast.Node{
			{Type: "interface_declaration", StartLine: 0, StartColumn: 0},
			{Type: "lexical_declaration", StartLine: 1},
			{Type: "interface_declaration", StartLine: 3, StartColumn: 4},
		},
	}

	got, err := fn(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []Marker{{Line: 0, Character: 0}, {Line: 3, Character: 4}}, got)
}

func TestCompiler_HostLinesHelper(t *testing.T) {
	fn := compile(t, `
import "packmind/detection"

func checkSourceCode(src string) []int {
	var out []int
	for i, l := range detection.Lines(src) {
		if len(l) > 10 {
			out = append(out, i)
		}
	}
	return out
}
`)

	got, err := fn(context.Background(), "short\r\nthis line is long\nok")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
}

func TestCompiler_PrintingIsDiscarded(t *testing.T) {
	fn := compile(t, `
import "fmt"

func checkSourceCode(src string) []int {
	fmt.Println("debugging", src)
	return []int{0}
}
`)

	got, err := fn(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)
}

func TestCompiler_CompilationErrors(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		forbidden bool
	}{
		{"syntax error", "func checkSourceCode(src string) []int { return [}", false},
		{"missing entry point", "func other(src string) []int { return nil }", false},
		{"two parameters", "func checkSourceCode(a, b string) []int { return nil }", false},
		{"no results", "func checkSourceCode(src string) {}", false},
		{"second result not error", "func checkSourceCode(src string) ([]int, int) { return nil, 0 }", false},
		{"other package", "package rules\n\nfunc checkSourceCode(src string) []int { return nil }", false},
		{"os import", "import \"os\"\n\nfunc checkSourceCode(src string) []int { os.Exit(1); return nil }", true},
		{"net/http import", "import \"net/http\"\n\nfunc checkSourceCode(src string) []int { _ = http.Get; return nil }", true},
	}

	c := NewCompiler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := c.Compile(context.Background(), tt.code)
			require.Error(t, err)
			assert.Nil(t, fn)
			assert.ErrorIs(t, err, ErrCompilation)
			assert.Equal(t, tt.forbidden, errors.Is(err, ErrForbiddenImport))
		})
	}
}

func TestCompiler_ErrorResultIsExecutionFailure(t *testing.T) {
	fn := compile(t, `
import "errors"

func checkSourceCode(src string) ([]int, error) {
	if src == "" {
		return nil, errors.New("empty file")
	}
	return []int{0}, nil
}
`)

	_, err := fn(context.Background(), "")
	assert.ErrorIs(t, err, ErrExecution)

	got, err := fn(context.Background(), "content")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)
}

func TestCompiler_PanicIsExecutionFailure(t *testing.T) {
	fn := compile(t, `
func checkSourceCode(src string) []int {
	panic("boom")
}
`)

	_, err := fn(context.Background(), "x")
	assert.ErrorIs(t, err, ErrExecution)
}

func TestCompiler_NonListResultIsReturnedAsIs(t *testing.T) {
	fn := compile(t, `
func checkSourceCode(src string) string {
	return "not a list"
}
`)

	got, err := fn(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "not a list", got)
}

func TestCompiler_InputTypeMismatch(t *testing.T) {
	fn := compile(t, rawProgram)

	_, err := fn(context.Background(), &ast.Node{Type: "program"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompiler_Timeout(t *testing.T) {
	fn := compile(t, `
func checkSourceCode(src string) []int {
	ch := make(chan int)
	<-ch
	return nil
}
`)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := fn(ctx, "x")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCompiler_ProgramsDoNotShareGlobals(t *testing.T) {
	code := `
var calls int

func checkSourceCode(src string) []int {
	calls++
	return []int{calls}
}
`
	c := NewCompiler()

	for i := 0; i < 2; i++ {
		fn, err := c.Compile(context.Background(), code)
		require.NoError(t, err)
		got, err := fn(context.Background(), "x")
		require.NoError(t, err)
		assert.Equal(t, []int{1}, got)
	}
}

func TestCompiler_WithAllowedPackages(t *testing.T) {
	c := NewCompiler(WithAllowedPackages("strings"))
	assert.Equal(t, []string{"strings"}, c.AllowedPackages())

	_, err := c.Compile(context.Background(), "import \"regexp\"\n\nfunc checkSourceCode(src string) []int { _ = regexp.MustCompile; return nil }")
	assert.ErrorIs(t, err, ErrForbiddenImport)
}
