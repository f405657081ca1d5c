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

import "errors"

var (
	// ErrCompilation indicates the program source could not be turned into
	// a callable checkSourceCode function.
	ErrCompilation = errors.New("program compilation failed")

	// ErrForbiddenImport indicates an import outside the allow-list.
	// Always wrapped together with ErrCompilation.
	ErrForbiddenImport = errors.New("forbidden import")

	// ErrExecution indicates checkSourceCode panicked or returned an error.
	ErrExecution = errors.New("program execution failed")

	// ErrTimeout indicates compilation or execution outlived its context.
	ErrTimeout = errors.New("program timed out")

	// ErrInvalidInput indicates the input cannot be passed to the
	// program's checkSourceCode parameter type.
	ErrInvalidInput = errors.New("input not assignable to checkSourceCode parameter")
)
