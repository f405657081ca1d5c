// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package programs loads, validates and stores detection program bundles.
//
// A bundle lists packages, each holding standards whose rules carry the
// active detection programs per language:
//
//	{"packages": [{"slug": "backend", "standards": [{"slug": "naming",
//	  "scope": ["src/**/*.ts"], "rules": [{"content": "rules/interface-rule.js",
//	  "activeDetectionPrograms": [{"language": "TYPESCRIPT",
//	  "sourceCodeState": "AST", "code": "..."}]}]}]}]}
package programs

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/kaptinlin/jsonschema"

	"github.com/PackmindHub/packmind-linter/services/linter/execution"
	"github.com/PackmindHub/packmind-linter/services/linter/language"
)

var (
	// ErrInvalidBundle indicates a bundle that is not valid JSON or does
	// not match the bundle schema.
	ErrInvalidBundle = errors.New("invalid detection program bundle")

	// ErrPackageNotFound indicates an unknown package slug.
	ErrPackageNotFound = errors.New("package not found")
)

//go:embed bundle.schema.json
var bundleSchemaJSON []byte

var (
	bundleSchema     *jsonschema.Schema
	bundleSchemaErr  error
	bundleSchemaOnce sync.Once
)

func compiledSchema() (*jsonschema.Schema, error) {
	bundleSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		bundleSchema, bundleSchemaErr = compiler.Compile(bundleSchemaJSON)
	})
	return bundleSchema, bundleSchemaErr
}

// =============================================================================
// TYPES
// =============================================================================

// Bundle is a set of packages with their detection programs.
type Bundle struct {
	Packages []Package `json:"packages"`
}

// Package groups standards under a slug referenced by packmind.json.
type Package struct {
	Slug      string     `json:"slug"`
	Name      string     `json:"name,omitempty"`
	Standards []Standard `json:"standards"`
}

// Standard is a coding standard and its rules.
type Standard struct {
	Slug string `json:"slug"`
	Name string `json:"name,omitempty"`

	// Scope holds glob patterns limiting the files the standard applies
	// to. Empty means every file.
	Scope []string `json:"scope,omitempty"`

	Rules []Rule `json:"rules"`
}

// Rule is one rule of a standard.
type Rule struct {
	ID                      string             `json:"id,omitempty"`
	Content                 string             `json:"content"`
	ActiveDetectionPrograms []DetectionProgram `json:"activeDetectionPrograms"`
}

// DetectionProgram is the active program of a rule for one language.
type DetectionProgram struct {
	Language        language.Language         `json:"language"`
	Severity        execution.Severity        `json:"severity,omitempty"`
	Code            string                    `json:"code"`
	SourceCodeState execution.SourceCodeState `json:"sourceCodeState"`
}

// Programs returns the standard's programs for lang, in rule order.
func (s Standard) Programs(lang language.Language) []execution.Program {
	var out []execution.Program
	for _, rule := range s.Rules {
		for _, dp := range rule.ActiveDetectionPrograms {
			if dp.Language != lang {
				continue
			}
			out = append(out, execution.Program{
				StandardSlug:    s.Slug,
				RuleContent:     rule.Content,
				Code:            dp.Code,
				SourceCodeState: dp.SourceCodeState,
				Language:        dp.Language,
				Severity:        dp.Severity,
			})
		}
	}
	return out
}

// ProgramCount returns the number of detection programs in the package.
func (p Package) ProgramCount() int {
	n := 0
	for _, s := range p.Standards {
		for _, r := range s.Rules {
			n += len(r.ActiveDetectionPrograms)
		}
	}
	return n
}

// =============================================================================
// DECODING
// =============================================================================

// DecodeBundle validates data against the bundle schema and decodes it.
//
// Description:
//
//	Languages are normalised with language.Parse, so "typescript" and
//	"ts" are accepted as well as "TYPESCRIPT".
//
// Outputs:
//
//	*Bundle - The decoded bundle.
//	error - Wraps ErrInvalidBundle on any validation failure.
func DecodeBundle(data []byte) (*Bundle, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile bundle schema: %w", err)
	}

	if res := schema.Validate(raw); !res.IsValid() {
		msgs := make([]string, 0, len(res.Errors))
		for path, evalErr := range res.Errors {
			msgs = append(msgs, fmt.Sprintf("%s: %s", path, evalErr.Message))
		}
		sort.Strings(msgs)
		return nil, fmt.Errorf("%w: %s", ErrInvalidBundle, strings.Join(msgs, "; "))
	}

	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}

	for pi := range bundle.Packages {
		for si := range bundle.Packages[pi].Standards {
			std := &bundle.Packages[pi].Standards[si]
			for ri := range std.Rules {
				for di := range std.Rules[ri].ActiveDetectionPrograms {
					dp := &std.Rules[ri].ActiveDetectionPrograms[di]
					lang, err := language.Parse(string(dp.Language))
					if err != nil {
						return nil, fmt.Errorf("%w: standard %s rule %q: %v",
							ErrInvalidBundle, std.Slug, std.Rules[ri].Content, err)
					}
					dp.Language = lang
				}
			}
		}
	}

	return &bundle, nil
}

// EncodeBundle serialises a bundle.
func EncodeBundle(b *Bundle) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}
