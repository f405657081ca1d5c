// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lint runs detection programs over files of a local checkout.
//
// Programs come from the packages listed in packmind.json files. Each
// packmind.json targets the directory that holds it; every file under that
// directory is checked against the standards of its packages, narrowed by
// each standard's scope globs.
//
// # Diff Modes
//
//	| Mode  | Files checked                  | Violations kept              |
//	|-------|--------------------------------|------------------------------|
//	| none  | every file under the path      | all                          |
//	| FILES | modified and untracked files   | all                          |
//	| LINES | modified and untracked files   | only those on changed lines  |
//
// # Usage
//
//	runner := lint.NewRunner(executor, store)
//	report, err := runner.Lint(ctx, lint.Command{Path: "."})
//	if err != nil {
//	    return err
//	}
//	if report.Summary.TotalViolations > 0 {
//	    // render and exit 1
//	}
//
// # Thread Safety
//
// Runner and Watcher are safe for concurrent use.
package lint
