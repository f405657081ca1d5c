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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleName(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"rules/interface-rule.js", "interface-rule"},
		{"a/b/c/deep-rule.go", "deep-rule"},
		{"rules/typed-rule.ts", "rules/typed-rule.ts"},
		{"Interface naming rule", "Interface naming rule"},
		{"interface-rule.js", "interface-rule.js"},
		{"Use async/await instead of callbacks", "Use async/await instead of callbacks"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			assert.Equal(t, tt.want, RuleName(tt.content))
		})
	}
}

func TestDecodeMarker(t *testing.T) {
	type lowerCase struct {
		line      int
		character int
	}

	m, ok := DecodeMarker(3)
	assert.True(t, ok)
	assert.Equal(t, Marker{Kind: NumericMarker, Line: 3}, m)

	m, ok = DecodeMarker(uint8(7))
	assert.True(t, ok)
	assert.Equal(t, 7.0, m.Line)

	m, ok = DecodeMarker(lowerCase{line: 2, character: 9})
	assert.True(t, ok)
	assert.Equal(t, Marker{Kind: PositionedMarker, Line: 2, Character: 9}, m)

	_, ok = DecodeMarker(struct{ Column int }{Column: 1})
	assert.False(t, ok)

	_, ok = DecodeMarker((*int)(nil))
	assert.False(t, ok)
}

func TestToLine(t *testing.T) {
	l, ok := toLine(0)
	assert.True(t, ok)
	assert.Equal(t, 1, l)

	l, ok = toLine(-1)
	assert.True(t, ok)
	assert.Equal(t, 0, l)

	_, ok = toLine(-1.5)
	assert.False(t, ok)

	_, ok = toLine(2.25)
	assert.False(t, ok)
}
