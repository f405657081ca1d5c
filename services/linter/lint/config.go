// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// ConfigFileName is the per-directory linter configuration file.
const ConfigFileName = "packmind.json"

// ProjectConfig is the content of a packmind.json file. Packages maps a
// package slug to a version constraint, usually "*".
type ProjectConfig struct {
	Packages map[string]string `json:"packages"`
}

// Target is a packmind.json together with the directory it covers.
type Target struct {
	// TargetPath is the directory relative to the base path, "/"-rooted.
	// Empty for a packmind.json above the base path.
	TargetPath string

	// AbsoluteTargetPath is the directory holding packmind.json.
	AbsoluteTargetPath string

	Packages map[string]string
}

// PackageSlugs returns the target's package slugs, sorted.
func (t Target) PackageSlugs() []string {
	slugs := make([]string, 0, len(t.Packages))
	for slug := range t.Packages {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// Contains reports whether absPath lies in the target directory.
func (t Target) Contains(absPath string) bool {
	return pathWithin(absPath, t.AbsoluteTargetPath)
}

// excludedConfigDirs are never searched for nested packmind.json files.
var excludedConfigDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
	".nx":          true,
	"vendor":       true,
}

// ReadProjectConfig reads packmind.json from dir.
//
// Outputs:
//
//	*ProjectConfig - Nil when dir has no packmind.json.
//	error - Non-nil when the file exists but is not valid.
func ReadProjectConfig(dir string) (*ProjectConfig, error) {
	data, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	pkgs, ok := raw["packages"]
	if !ok {
		return nil, errors.New("invalid packmind.json structure, expected { packages: { ... } }")
	}

	var cfg ProjectConfig
	if err := json.Unmarshal(pkgs, &cfg.Packages); err != nil || cfg.Packages == nil {
		return nil, errors.New("invalid packmind.json structure, expected { packages: { ... } }")
	}
	return &cfg, nil
}

// configFinder collects packmind.json targets around a lint path.
type configFinder struct {
	logger *slog.Logger
}

// find returns every target among the ancestors of start up to stop
// (inclusive, or the filesystem root when stop is empty) and the
// descendants of the base path. The base path is stop when set, start
// otherwise; target paths are relative to it.
func (f *configFinder) find(start, stop string) (targets []Target, basePath string) {
	start = filepath.Clean(start)
	if stop != "" {
		stop = filepath.Clean(stop)
	}
	basePath = start
	if stop != "" {
		basePath = stop
	}

	seen := make(map[string]bool)
	add := func(dir string) {
		if seen[dir] {
			return
		}
		seen[dir] = true
		cfg, err := ReadProjectConfig(dir)
		if err != nil {
			f.logger.Warn("Skipping malformed config file",
				slog.String("path", filepath.Join(dir, ConfigFileName)),
				slog.String("error", err.Error()))
			return
		}
		if cfg == nil {
			return
		}
		targets = append(targets, Target{
			TargetPath:         relativeTarget(dir, basePath),
			AbsoluteTargetPath: dir,
			Packages:           cfg.Packages,
		})
	}

	for dir := start; ; {
		add(dir)
		if stop != "" && dir == stop {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	_ = filepath.WalkDir(basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != basePath && excludedConfigDirs[d.Name()] {
			return filepath.SkipDir
		}
		add(p)
		return nil
	})

	sort.Slice(targets, func(i, j int) bool {
		return targets[i].AbsoluteTargetPath < targets[j].AbsoluteTargetPath
	})
	return targets, basePath
}

// relativeTarget returns dir relative to base as a "/"-rooted slash path,
// or "" when dir lies above base.
func relativeTarget(dir, base string) string {
	if dir == base {
		return "/"
	}
	rel, err := filepath.Rel(base, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return "/" + filepath.ToSlash(rel)
}

// pathWithin reports whether p equals dir or lies beneath it.
func pathWithin(p, dir string) bool {
	if p == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(p, dir)
}
