// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package language

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Language
	}{
		{"enum value", "TYPESCRIPT", TypeScript},
		{"lower case enum value", "typescript", TypeScript},
		{"surrounding whitespace", "  python  ", Python},
		{"display name with symbol", "C#", CSharp},
		{"display name C++", "c++", CPP},
		{"extension", "tsx", TypeScriptTSX},
		{"dotted extension", ".py", Python},
		{"header extension maps to C", "h", C},
		{"cc extension", "cc", CPP},
		{"jsx extension", "JSX", JavaScriptJSX},
		{"display name with space", "javascript jsx", JavaScriptJSX},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse("   ")
	assert.ErrorIs(t, err, ErrEmptyLanguage)
}

func TestParse_Unknown(t *testing.T) {
	_, err := Parse("cobol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownLanguage))
	assert.Contains(t, err.Error(), `"cobol"`)
	assert.Contains(t, err.Error(), "Available languages: Bash")
}

func TestFromPath(t *testing.T) {
	lang, ok := FromPath("src/app/component.TSX")
	require.True(t, ok)
	assert.Equal(t, TypeScriptTSX, lang)

	lang, ok = FromPath("scripts/deploy.sh")
	require.True(t, ok)
	assert.Equal(t, Bash, lang)

	_, ok = FromPath("Makefile")
	assert.False(t, ok)

	_, ok = FromPath("notes.txt")
	assert.False(t, ok)
}

func TestAll_SortedByDisplayName(t *testing.T) {
	all := All()
	require.Len(t, all, len(infos))
	assert.Equal(t, Bash, all[0].Language)

	for i := 1; i < len(all); i++ {
		prev := strings.ToLower(all[i-1].DisplayName)
		cur := strings.ToLower(all[i].DisplayName)
		assert.LessOrEqual(t, prev, cur)
	}
}

func TestExtensions_AreNormalised(t *testing.T) {
	seen := make(map[string]Language)
	for _, info := range All() {
		require.NotEmpty(t, info.Extensions, info.DisplayName)
		for _, ext := range info.Extensions {
			assert.NotEmpty(t, ext)
			assert.False(t, strings.HasPrefix(ext, "."), ext)
			assert.Equal(t, strings.ToLower(ext), ext)
			if other, dup := seen[ext]; dup {
				t.Errorf("extension %q claimed by both %s and %s", ext, other, info.Language)
			}
			seen[ext] = info.Language
		}
	}
}

func TestLanguage_DisplayName(t *testing.T) {
	assert.Equal(t, "C#", CSharp.DisplayName())
	assert.Equal(t, "UNKNOWN", Language("UNKNOWN").DisplayName())
	assert.False(t, Language("UNKNOWN").Valid())
}
