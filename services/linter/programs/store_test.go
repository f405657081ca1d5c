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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PackmindHub/packmind-linter/services/linter/storage/badger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewStore(db)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestStore_ImportGetList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b, err := DecodeBundle([]byte(sampleBundle))
	require.NoError(t, err)

	slugs, err := s.Import(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"backend", "frontend"}, slugs)

	sp, err := s.Get(ctx, "backend")
	require.NoError(t, err)
	assert.Equal(t, b.Packages[0], sp.Package)
	assert.Equal(t, 2025, sp.ImportedAt.Year())

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, Summary{
		Slug:       "backend",
		Name:       "Backend standards",
		Standards:  1,
		Programs:   2,
		ImportedAt: sp.ImportedAt,
	}, list[0])
	assert.Equal(t, "frontend", list[1].Slug)
}

func TestStore_ImportReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Import(ctx, &Bundle{Packages: []Package{{Slug: "p", Name: "old"}}})
	require.NoError(t, err)
	_, err = s.Import(ctx, &Bundle{Packages: []Package{{Slug: "p", Name: "new"}}})
	require.NoError(t, err)

	sp, err := s.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "new", sp.Name)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Import(ctx, &Bundle{Packages: []Package{{Slug: "p"}}})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "p"))
	_, err = s.Get(ctx, "p")
	assert.ErrorIs(t, err, ErrPackageNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "p"), ErrPackageNotFound)
}

func TestStore_Standards(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b, err := DecodeBundle([]byte(sampleBundle))
	require.NoError(t, err)
	_, err = s.Import(ctx, b)
	require.NoError(t, err)

	stds, err := s.Standards(ctx, []string{"backend"})
	require.NoError(t, err)
	require.Len(t, stds, 1)
	assert.Equal(t, []string{"src/**/*.ts"}, stds[0].Scope)

	_, err = s.Standards(ctx, []string{"backend", "nope"})
	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func TestStore_ImportNil(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Import(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidBundle)
}
