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
	"path"
	"strings"
)

// inScope reports whether file, a "/"-rooted path relative to the base
// path, belongs to target and matches one of scopes. An empty scope list
// covers everything under target.
func inScope(file, target string, scopes []string) bool {
	if len(scopes) == 0 {
		return matchGlob(effectivePattern(target, ""), file)
	}
	for _, scope := range scopes {
		if matchGlob(effectivePattern(target, scope), file) {
			return true
		}
	}
	return false
}

// effectivePattern anchors scope under target. A scope that already starts
// with target is used as is; a trailing "/" means the whole directory.
func effectivePattern(target, scope string) string {
	if target != "/" {
		target = strings.TrimSuffix(target, "/")
	}

	if scope == "" {
		if target == "/" {
			return "/**"
		}
		return target + "/**"
	}

	if scope == target || strings.HasPrefix(scope, target+"/") {
		if strings.HasSuffix(scope, "/") {
			return scope + "**"
		}
		return scope
	}

	clean := strings.TrimPrefix(scope, "/")
	var pattern string
	if target == "/" {
		pattern = "/" + clean
	} else {
		pattern = target + "/" + clean
	}
	if strings.HasSuffix(pattern, "/") {
		pattern += "**"
	}
	return pattern
}

// matchGlob matches a "/"-separated path against a pattern where "**"
// spans any number of segments and "{a,b}" alternates.
func matchGlob(pattern, name string) bool {
	for _, p := range expandBraces(pattern) {
		if matchSegments(strings.Split(p, "/"), strings.Split(name, "/")) {
			return true
		}
	}
	return false
}

func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(name); i++ {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		ok, err := path.Match(pattern[0], name[0])
		if err != nil || !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}

// expandBraces expands the first "{...}" group, recursively.
func expandBraces(pattern string) []string {
	open := strings.IndexByte(pattern, '{')
	if open < 0 {
		return []string{pattern}
	}
	closing := strings.IndexByte(pattern[open:], '}')
	if closing < 0 {
		return []string{pattern}
	}
	closing += open

	var out []string
	for _, alt := range strings.Split(pattern[open+1:closing], ",") {
		out = append(out, expandBraces(pattern[:open]+alt+pattern[closing+1:])...)
	}
	return out
}
