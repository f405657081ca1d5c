// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package programs

import (
	"context"
	"fmt"
)

// Source resolves package slugs to the standards they contain.
type Source interface {
	// Standards returns the standards of every listed package, in
	// package order. Unknown slugs yield an error wrapping
	// ErrPackageNotFound.
	Standards(ctx context.Context, packageSlugs []string) ([]Standard, error)
}

// StaticSource serves standards from a bundle held in memory.
//
// Thread Safety: Safe for concurrent use; the bundle is never mutated.
type StaticSource struct {
	packages map[string]Package
}

// NewStaticSource indexes the packages of b by slug.
// A later package with the same slug replaces an earlier one.
func NewStaticSource(b *Bundle) *StaticSource {
	s := &StaticSource{packages: make(map[string]Package)}
	if b == nil {
		return s
	}
	for _, p := range b.Packages {
		s.packages[p.Slug] = p
	}
	return s
}

// Standards implements Source.
func (s *StaticSource) Standards(ctx context.Context, packageSlugs []string) ([]Standard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Standard
	for _, slug := range packageSlugs {
		p, ok := s.packages[slug]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, slug)
		}
		out = append(out, p.Standards...)
	}
	return out, nil
}
