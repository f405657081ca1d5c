// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package programs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PackmindHub/packmind-linter/services/linter/execution"
	"github.com/PackmindHub/packmind-linter/services/linter/language"
)

const sampleBundle = `{
  "packages": [
    {
      "slug": "backend",
      "name": "Backend standards",
      "standards": [
        {
          "slug": "naming",
          "scope": ["src/**/*.ts"],
          "rules": [
            {
              "content": "rules/interface-rule.js",
              "activeDetectionPrograms": [
                {"language": "typescript", "sourceCodeState": "AST", "code": "package main"},
                {"language": "GO", "sourceCodeState": "RAW", "severity": "WARNING", "code": "package main"}
              ]
            }
          ]
        }
      ]
    },
    {"slug": "frontend", "standards": []}
  ]
}`

func TestDecodeBundle(t *testing.T) {
	b, err := DecodeBundle([]byte(sampleBundle))
	require.NoError(t, err)
	require.Len(t, b.Packages, 2)

	backend := b.Packages[0]
	assert.Equal(t, "backend", backend.Slug)
	assert.Equal(t, 2, backend.ProgramCount())

	dps := backend.Standards[0].Rules[0].ActiveDetectionPrograms
	assert.Equal(t, language.TypeScript, dps[0].Language)
	assert.Equal(t, language.Go, dps[1].Language)
	assert.Equal(t, execution.SeverityWarning, dps[1].Severity)
}

func TestDecodeBundle_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing packages", `{}`},
		{"missing slug", `{"packages":[{"standards":[]}]}`},
		{"bad state", `{"packages":[{"slug":"p","standards":[{"slug":"s","rules":[{"content":"r","activeDetectionPrograms":[{"language":"GO","sourceCodeState":"TOKENS","code":"x"}]}]}]}]}`},
		{"bad severity", `{"packages":[{"slug":"p","standards":[{"slug":"s","rules":[{"content":"r","activeDetectionPrograms":[{"language":"GO","sourceCodeState":"RAW","severity":"INFO","code":"x"}]}]}]}]}`},
		{"unknown language", `{"packages":[{"slug":"p","standards":[{"slug":"s","rules":[{"content":"r","activeDetectionPrograms":[{"language":"COBOL","sourceCodeState":"RAW","code":"x"}]}]}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBundle([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidBundle)
		})
	}
}

func TestEncodeBundle_RoundTrip(t *testing.T) {
	b, err := DecodeBundle([]byte(sampleBundle))
	require.NoError(t, err)

	data, err := EncodeBundle(b)
	require.NoError(t, err)

	again, err := DecodeBundle(data)
	require.NoError(t, err)
	assert.Equal(t, b, again)
}

func TestStandard_Programs(t *testing.T) {
	b, err := DecodeBundle([]byte(sampleBundle))
	require.NoError(t, err)

	std := b.Packages[0].Standards[0]
	progs := std.Programs(language.Go)
	require.Len(t, progs, 1)
	assert.Equal(t, execution.Program{
		StandardSlug:    "naming",
		RuleContent:     "rules/interface-rule.js",
		Code:            "package main",
		SourceCodeState: execution.StateRaw,
		Language:        language.Go,
		Severity:        execution.SeverityWarning,
	}, progs[0])

	assert.Empty(t, std.Programs(language.Python))
}

func TestStaticSource(t *testing.T) {
	b, err := DecodeBundle([]byte(sampleBundle))
	require.NoError(t, err)

	src := NewStaticSource(b)
	stds, err := src.Standards(context.Background(), []string{"frontend", "backend"})
	require.NoError(t, err)
	require.Len(t, stds, 1)
	assert.Equal(t, "naming", stds[0].Slug)

	_, err = src.Standards(context.Background(), []string{"missing"})
	assert.ErrorIs(t, err, ErrPackageNotFound)

	empty, err := NewStaticSource(nil).Standards(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
