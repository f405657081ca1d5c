// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command packmind-lint runs Packmind detection programs against local code.
//
// Usage:
//
//	packmind-lint programs import ./bundle.json
//	packmind-lint lint .
//	packmind-lint lint --changed-lines --logger ide
//	packmind-lint lint --programs ./bundle.json --watch src/
//	packmind-lint serve --port 8090
//
// Example requests against `serve`:
//
//	# Health check
//	curl http://localhost:8090/v1/linter/health
//
//	# Run programs against one file
//	curl -X POST http://localhost:8090/v1/linter/execute \
//	  -H "Content-Type: application/json" \
//	  -d '{"filePath": "a.go", "fileContent": "...", "language": "GO", "programs": [...]}'
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// ExitError ends the process with Code without printing anything.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
