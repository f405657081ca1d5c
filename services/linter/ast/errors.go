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
	"errors"
	"fmt"

	"github.com/PackmindHub/packmind-linter/services/linter/language"
)

// Sentinel errors for parse failures.
//
// These errors can be checked using errors.Is() to determine the
// category of failure without inspecting error messages.
var (
	// ErrUnsupportedLanguage indicates that no grammar is registered for
	// the requested language.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrParseFailed indicates that tree-sitter could not produce a tree.
	ErrParseFailed = errors.New("parse failed")

	// ErrInvalidContent indicates content that cannot be parsed at all,
	// such as non-UTF-8 bytes.
	ErrInvalidContent = errors.New("invalid content")

	// ErrFileTooLarge indicates content above the adapter's size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrContextCanceled indicates that parsing was canceled via context.
	ErrContextCanceled = errors.New("parse canceled")
)

// ParseError carries the language a parse was attempted for.
//
// Example:
//
//	root, err := adapter.ParseSourceCode(ctx, src, language.Go)
//	var parseErr *ParseError
//	if errors.As(err, &parseErr) {
//	    slog.Error("parse failed", slog.String("language", string(parseErr.Language)))
//	}
type ParseError struct {
	Language language.Language
	Message  string
	Cause    error
}

// Error formats the error as "<language>: <message>: <cause>".
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Language, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Language, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

func newParseError(lang language.Language, message string, cause error) *ParseError {
	return &ParseError{Language: lang, Message: message, Cause: cause}
}
