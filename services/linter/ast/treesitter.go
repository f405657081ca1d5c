// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/sql"
	"github.com/smacker/go-tree-sitter/swift"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"

	"github.com/PackmindHub/packmind-linter/services/linter/language"
)

const (
	// DefaultMaxFileSize is the largest content the adapter will parse (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize triggers a warning log before parsing (1MB).
	WarnFileSize = 1 * 1024 * 1024
)

// defaultGrammars maps languages to their tree-sitter grammars.
// JavaScript JSX shares the JavaScript grammar, which parses JSX natively.
func defaultGrammars() map[language.Language]*sitter.Language {
	return map[language.Language]*sitter.Language{
		language.Bash:          bash.GetLanguage(),
		language.C:             c.GetLanguage(),
		language.CPP:           cpp.GetLanguage(),
		language.CSharp:        csharp.GetLanguage(),
		language.Go:            golang.GetLanguage(),
		language.HTML:          html.GetLanguage(),
		language.Java:          java.GetLanguage(),
		language.JavaScript:    javascript.GetLanguage(),
		language.JavaScriptJSX: javascript.GetLanguage(),
		language.Kotlin:        kotlin.GetLanguage(),
		language.PHP:           php.GetLanguage(),
		language.Python:        python.GetLanguage(),
		language.Ruby:          ruby.GetLanguage(),
		language.Rust:          rust.GetLanguage(),
		language.SQL:           sql.GetLanguage(),
		language.Swift:         swift.GetLanguage(),
		language.TypeScript:    typescript.GetLanguage(),
		language.TypeScriptTSX: tsx.GetLanguage(),
		language.YAML:          yaml.GetLanguage(),
	}
}

// AdapterOption configures a TreeSitterAdapter.
type AdapterOption func(*TreeSitterAdapter)

// WithMaxFileSize sets the maximum content size in bytes.
func WithMaxFileSize(bytes int64) AdapterOption {
	return func(a *TreeSitterAdapter) {
		if bytes > 0 {
			a.maxFileSize = bytes
		}
	}
}

// WithLogger sets the logger used for parse warnings.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(a *TreeSitterAdapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithGrammar registers or replaces the grammar for a language.
// A nil grammar removes support for the language.
func WithGrammar(lang language.Language, grammar *sitter.Language) AdapterOption {
	return func(a *TreeSitterAdapter) {
		if grammar == nil {
			delete(a.grammars, lang)
			return
		}
		a.grammars[lang] = grammar
	}
}

// TreeSitterAdapter implements Port with tree-sitter grammars.
//
// Description:
//
//	Each ParseSourceCode call creates its own sitter.Parser, parses the
//	content and converts the tree into detached Node values before the
//	tree-sitter tree is closed.
//
// Thread Safety: Safe for concurrent use. The grammar table is read-only
// after construction.
type TreeSitterAdapter struct {
	grammars    map[language.Language]*sitter.Language
	maxFileSize int64
	logger      *slog.Logger
}

// NewTreeSitterAdapter creates an adapter with every bundled grammar.
//
// Inputs:
//
//	opts - Optional configuration (WithMaxFileSize, WithLogger, WithGrammar).
//
// Outputs:
//
//	*TreeSitterAdapter - Ready to use.
func NewTreeSitterAdapter(opts ...AdapterOption) *TreeSitterAdapter {
	a := &TreeSitterAdapter{
		grammars:    defaultGrammars(),
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IsLanguageSupported reports whether a grammar is registered for lang.
func (a *TreeSitterAdapter) IsLanguageSupported(lang language.Language) bool {
	_, ok := a.grammars[lang]
	return ok
}

// SupportedLanguages returns the languages with a grammar, sorted.
func (a *TreeSitterAdapter) SupportedLanguages() []language.Language {
	out := make([]language.Language, 0, len(a.grammars))
	for lang := range a.grammars {
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseSourceCode parses content and returns the root node.
//
// Description:
//
//	Validates size and encoding, parses with the language's grammar and
//	converts the result into a Node tree. Syntax errors do not fail the
//	parse; they surface as ERROR nodes and Node.HasError.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	content - The full file text.
//	lang - The file's language.
//
// Outputs:
//
//	*Node - The root node. Never nil on success.
//	error - ErrUnsupportedLanguage, ErrFileTooLarge, ErrInvalidContent,
//	        ErrContextCanceled or ErrParseFailed, wrapped in *ParseError.
//
// Thread Safety: Safe for concurrent use.
func (a *TreeSitterAdapter) ParseSourceCode(ctx context.Context, content string, lang language.Language) (*Node, error) {
	ctx, span := startParseSpan(ctx, string(lang), len(content))
	defer span.End()

	start := time.Now()

	grammar, ok := a.grammars[lang]
	if !ok {
		recordParseMetrics(ctx, string(lang), time.Since(start), 0, false)
		return nil, newParseError(lang, "no grammar registered", ErrUnsupportedLanguage)
	}

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, string(lang), time.Since(start), 0, false)
		return nil, newParseError(lang, "canceled before start", fmt.Errorf("%w: %v", ErrContextCanceled, err))
	}

	if int64(len(content)) > a.maxFileSize {
		recordParseMetrics(ctx, string(lang), time.Since(start), 0, false)
		return nil, newParseError(lang, "content rejected",
			fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), a.maxFileSize))
	}

	if len(content) > WarnFileSize {
		a.logger.Warn("parsing large file",
			slog.String("language", string(lang)),
			slog.Int("size_bytes", len(content)))
	}

	src := []byte(content)
	if !utf8.Valid(src) {
		recordParseMetrics(ctx, string(lang), time.Since(start), 0, false)
		return nil, newParseError(lang, "content rejected",
			fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent))
	}

	// New parser per call: sitter.Parser is not safe for concurrent use.
	parser := sitter.NewParser()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		recordParseMetrics(ctx, string(lang), time.Since(start), 0, false)
		if ctx.Err() != nil {
			return nil, newParseError(lang, "tree-sitter parse", fmt.Errorf("%w: %v", ErrContextCanceled, err))
		}
		return nil, newParseError(lang, "tree-sitter parse", fmt.Errorf("%w: %v", ErrParseFailed, err))
	}
	defer tree.Close()

	rootNode := tree.RootNode()
	if rootNode == nil {
		recordParseMetrics(ctx, string(lang), time.Since(start), 0, false)
		return nil, newParseError(lang, "tree-sitter returned nil root node", ErrParseFailed)
	}

	count := 0
	root := convert(rootNode, nil, "", src, &count)

	if root.HasError {
		a.logger.Debug("source contains syntax errors",
			slog.String("language", string(lang)))
	}

	setParseSpanResult(span, count, root.HasError)
	recordParseMetrics(ctx, string(lang), time.Since(start), count, true)

	return root, nil
}

// convert copies a tree-sitter node and its descendants into Node values.
func convert(n *sitter.Node, parent *Node, field string, src []byte, count *int) *Node {
	*count++

	start := n.StartPoint()
	end := n.EndPoint()
	out := &Node{
		Type:        n.Type(),
		Field:       field,
		Named:       n.IsNamed(),
		StartLine:   int(start.Row),
		StartColumn: int(start.Column),
		EndLine:     int(end.Row),
		EndColumn:   int(end.Column),
		StartByte:   int(n.StartByte()),
		EndByte:     int(n.EndByte()),
		HasError:    n.HasError(),
		Parent:      parent,
		source:      src,
	}

	childCount := int(n.ChildCount())
	if childCount == 0 {
		return out
	}

	out.Children = make([]*Node, 0, childCount)
	for i := 0; i < childCount; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		out.Children = append(out.Children, convert(child, out, n.FieldNameForChild(i), src, count))
	}
	return out
}
