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
	"errors"
	"fmt"

	"github.com/PackmindHub/packmind-linter/services/linter/sandbox"
)

// Failure categories. Execute never returns them; they classify what
// gets logged and counted in Stats.
var (
	ErrCompilation      = sandbox.ErrCompilation
	ErrExecution        = sandbox.ErrExecution
	ErrProgramTimeout   = sandbox.ErrTimeout
	ErrMalformedResult  = errors.New("program result is not a list")
	ErrParseUnavailable = errors.New("source could not be parsed")
)

// ProgramError describes the failure of a single program.
type ProgramError struct {
	Phase        SourceCodeState
	StandardSlug string
	RuleContent  string
	Err          error
}

// Error implements error.
func (e *ProgramError) Error() string {
	return fmt.Sprintf("%s program %s/%s: %v", e.Phase, e.StandardSlug, RuleName(e.RuleContent), e.Err)
}

// Unwrap returns the underlying cause.
func (e *ProgramError) Unwrap() error {
	return e.Err
}

// category names the failure for logs and metrics.
func category(err error) string {
	switch {
	case errors.Is(err, ErrProgramTimeout):
		return "timeout"
	case errors.Is(err, ErrCompilation):
		return "compilation"
	case errors.Is(err, ErrMalformedResult):
		return "malformed_result"
	default:
		return "execution"
	}
}
