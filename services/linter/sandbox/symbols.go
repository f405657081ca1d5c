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

import (
	"path"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/PackmindHub/packmind-linter/services/linter/ast"
)

// HostPackage is the import path detection programs use for host types.
const HostPackage = "packmind/detection"

// DefaultAllowedPackages are the stdlib packages detection programs may
// import. Nothing here touches the filesystem, network, processes or clock.
var DefaultAllowedPackages = []string{
	"bytes",
	"errors",
	"fmt",
	"math",
	"regexp",
	"slices",
	"sort",
	"strconv",
	"strings",
	"unicode",
	"unicode/utf8",
}

// Marker is a positioned violation a program may return.
// Line and Character are 0-indexed.
type Marker struct {
	Line      int
	Character int
}

// Lines splits source text into lines so that Lines(src)[i] is line i.
func Lines(src string) []string {
	return strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
}

// hostExports returns the symbols of the host package.
func hostExports() interp.Exports {
	return interp.Exports{
		HostPackage + "/detection": {
			"Node":   reflect.ValueOf((*ast.Node)(nil)),
			"Marker": reflect.ValueOf((*Marker)(nil)),
			"Lines":  reflect.ValueOf(Lines),
		},
	}
}

// restrictedStdlib returns the subset of yaegi's stdlib symbol table whose
// import path is in allowed.
func restrictedStdlib(allowed map[string]bool) interp.Exports {
	out := make(interp.Exports)
	for key, syms := range stdlib.Symbols {
		// Keys are "<import path>/<package name>".
		if allowed[path.Dir(key)] {
			out[key] = syms
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
