// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast turns source text into syntax trees for AST detection programs.
//
// The executor depends only on the Port interface. TreeSitterAdapter is the
// production implementation backed by tree-sitter grammars.
package ast

import (
	"context"

	"github.com/PackmindHub/packmind-linter/services/linter/language"
)

// Port is the parsing collaborator used by the program executor.
//
// Description:
//
//	IsLanguageSupported is a cheap capability check. ParseSourceCode parses
//	a whole file and returns the root node. Callers parse a file at most
//	once and share the resulting tree between programs.
//
// Thread Safety:
//
//	Implementations must be safe for concurrent use.
type Port interface {
	// IsLanguageSupported reports whether ParseSourceCode can handle lang.
	IsLanguageSupported(lang language.Language) bool

	// ParseSourceCode parses content written in lang.
	//
	// Returns ErrUnsupportedLanguage for languages without a grammar.
	// Syntax errors inside the content do not fail the parse; they are
	// visible as ERROR nodes and Node.HasError.
	ParseSourceCode(ctx context.Context, content string, lang language.Language) (*Node, error)
}
