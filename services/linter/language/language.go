// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package language defines the programming languages detection programs
// can target, together with their display names and file extensions.
package language

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Language identifies the programming language of a file or a detection
// program. Values are the upper-case identifiers used on the wire.
type Language string

const (
	Bash          Language = "BASH"
	C             Language = "C"
	CPP           Language = "CPP"
	CSharp        Language = "CSHARP"
	Go            Language = "GO"
	HTML          Language = "HTML"
	Java          Language = "JAVA"
	JavaScript    Language = "JAVASCRIPT"
	JavaScriptJSX Language = "JAVASCRIPT_JSX"
	JSON          Language = "JSON"
	Kotlin        Language = "KOTLIN"
	PHP           Language = "PHP"
	Python        Language = "PYTHON"
	Ruby          Language = "RUBY"
	Rust          Language = "RUST"
	SCSS          Language = "SCSS"
	SQL           Language = "SQL"
	Swift         Language = "SWIFT"
	TypeScript    Language = "TYPESCRIPT"
	TypeScriptTSX Language = "TYPESCRIPT_TSX"
	YAML          Language = "YAML"
)

var (
	// ErrEmptyLanguage is returned by Parse for blank input.
	ErrEmptyLanguage = errors.New("language input cannot be empty")

	// ErrUnknownLanguage is returned by Parse when nothing matches.
	ErrUnknownLanguage = errors.New("unknown programming language")
)

// Info describes a language.
type Info struct {
	Language    Language `json:"language"`
	DisplayName string   `json:"displayName"`

	// Extensions are lower-case and carry no leading dot.
	Extensions []string `json:"fileExtensions"`
}

var infos = map[Language]Info{
	Bash:          {Bash, "Bash", []string{"sh", "bash"}},
	C:             {C, "C", []string{"c", "h"}},
	CPP:           {CPP, "C++", []string{"cpp", "hpp", "cc", "cxx", "c++", "hxx"}},
	CSharp:        {CSharp, "C#", []string{"cs"}},
	Go:            {Go, "Go", []string{"go"}},
	HTML:          {HTML, "HTML", []string{"html", "htm"}},
	Java:          {Java, "Java", []string{"java"}},
	JavaScript:    {JavaScript, "JavaScript", []string{"js", "mjs", "cjs"}},
	JavaScriptJSX: {JavaScriptJSX, "JavaScript JSX", []string{"jsx"}},
	JSON:          {JSON, "JSON", []string{"json"}},
	Kotlin:        {Kotlin, "Kotlin", []string{"kt", "kts"}},
	PHP:           {PHP, "PHP", []string{"php"}},
	Python:        {Python, "Python", []string{"py", "pyi"}},
	Ruby:          {Ruby, "Ruby", []string{"rb"}},
	Rust:          {Rust, "Rust", []string{"rs"}},
	SCSS:          {SCSS, "SCSS", []string{"scss"}},
	SQL:           {SQL, "SQL", []string{"sql"}},
	Swift:         {Swift, "Swift", []string{"swift"}},
	TypeScript:    {TypeScript, "TypeScript", []string{"ts", "mts", "cts"}},
	TypeScriptTSX: {TypeScriptTSX, "TypeScript TSX", []string{"tsx"}},
	YAML:          {YAML, "YAML", []string{"yaml", "yml"}},
}

// byExtension is built once from infos.
var byExtension = func() map[string]Language {
	m := make(map[string]Language)
	for lang, info := range infos {
		for _, ext := range info.Extensions {
			m[ext] = lang
		}
	}
	return m
}()

// String returns the wire identifier.
func (l Language) String() string {
	return string(l)
}

// Valid reports whether l is a known language.
func (l Language) Valid() bool {
	_, ok := infos[l]
	return ok
}

// Info returns the description of l. The second value is false for
// unknown languages.
func (l Language) Info() (Info, bool) {
	info, ok := infos[l]
	return info, ok
}

// DisplayName returns the human-readable name, or the raw value for
// unknown languages.
func (l Language) DisplayName() string {
	if info, ok := infos[l]; ok {
		return info.DisplayName
	}
	return string(l)
}

// All returns every known language sorted by display name.
func All() []Info {
	out := make([]Info, 0, len(infos))
	for _, info := range infos {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].DisplayName) < strings.ToLower(out[j].DisplayName)
	})
	return out
}

// Parse resolves user input to a Language.
//
// Description:
//
//	Input is trimmed and matched case-insensitively, first against the
//	wire identifier, then the display name, then a file extension (with
//	or without a leading dot).
//
// Inputs:
//
//	s - The user-supplied language, e.g. "typescript", "C#", "tsx", ".py".
//
// Outputs:
//
//	Language - The resolved language.
//	error - ErrEmptyLanguage for blank input, ErrUnknownLanguage otherwise.
func Parse(s string) (Language, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", ErrEmptyLanguage
	}

	upper := strings.ToUpper(trimmed)
	if lang := Language(upper); lang.Valid() {
		return lang, nil
	}

	lower := strings.ToLower(trimmed)
	for lang, info := range infos {
		if strings.ToLower(info.DisplayName) == lower {
			return lang, nil
		}
	}

	if lang, ok := byExtension[strings.TrimPrefix(lower, ".")]; ok {
		return lang, nil
	}

	names := make([]string, 0, len(infos))
	for _, info := range All() {
		names = append(names, info.DisplayName)
	}
	return "", fmt.Errorf("%w: %q. Available languages: %s",
		ErrUnknownLanguage, trimmed, strings.Join(names, ", "))
}

// FromPath returns the language of a file based on its extension.
// The second value is false when the extension is not recognised.
func FromPath(path string) (Language, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "", false
	}
	lang, ok := byExtension[ext]
	return lang, ok
}
