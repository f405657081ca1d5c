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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/PackmindHub/packmind-linter/services/linter/storage/badger"
)

const packageKeyPrefix = "package/"

// =============================================================================
// STORE
// =============================================================================

// StoredPackage is a package record as persisted by Store.
type StoredPackage struct {
	Package
	ImportedAt time.Time `json:"importedAt"`
}

// Summary describes a stored package without its program code.
type Summary struct {
	Slug       string    `json:"slug"`
	Name       string    `json:"name,omitempty"`
	Standards  int       `json:"standards"`
	Programs   int       `json:"programs"`
	ImportedAt time.Time `json:"importedAt"`
}

// Store persists packages in BadgerDB, one record per slug.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the store logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore wraps an open database. The caller keeps ownership of db.
func NewStore(db *badger.DB, opts ...StoreOption) *Store {
	s := &Store{
		db:     db,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func packageKey(slug string) []byte {
	return []byte(packageKeyPrefix + slug)
}

// Import stores every package of b in a single transaction, replacing
// packages with the same slug.
//
// Outputs:
//
//	[]string - Slugs written, in bundle order.
//	error - Non-nil if encoding or the transaction fails. Nothing is
//	        written in that case.
func (s *Store) Import(ctx context.Context, b *Bundle) ([]string, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil bundle", ErrInvalidBundle)
	}

	importedAt := s.now().UTC()
	slugs := make([]string, 0, len(b.Packages))

	err := s.db.Update(ctx, func(txn *badgerdb.Txn) error {
		for _, p := range b.Packages {
			data, err := json.Marshal(StoredPackage{Package: p, ImportedAt: importedAt})
			if err != nil {
				return fmt.Errorf("encode package %s: %w", p.Slug, err)
			}
			if err := txn.Set(packageKey(p.Slug), data); err != nil {
				return fmt.Errorf("store package %s: %w", p.Slug, err)
			}
			slugs = append(slugs, p.Slug)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Imported detection program packages",
		slog.Int("packages", len(slugs)),
		slog.String("slugs", strings.Join(slugs, ",")))
	return slugs, nil
}

// Get returns the stored package with slug.
func (s *Store) Get(ctx context.Context, slug string) (*StoredPackage, error) {
	data, err := s.db.Get(ctx, packageKey(slug))
	if errors.Is(err, badger.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, slug)
	}
	if err != nil {
		return nil, err
	}

	var sp StoredPackage
	if err := json.Unmarshal(data, &sp); err != nil {
		return nil, fmt.Errorf("decode package %s: %w", slug, err)
	}
	return &sp, nil
}

// List summarises every stored package, ordered by slug.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	var out []Summary
	err := s.db.Scan(ctx, []byte(packageKeyPrefix), func(key, value []byte) error {
		var sp StoredPackage
		if err := json.Unmarshal(value, &sp); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		out = append(out, Summary{
			Slug:       sp.Slug,
			Name:       sp.Name,
			Standards:  len(sp.Standards),
			Programs:   sp.ProgramCount(),
			ImportedAt: sp.ImportedAt,
		})
		return nil
	})
	return out, err
}

// Delete removes the package with slug.
func (s *Store) Delete(ctx context.Context, slug string) error {
	return s.db.Update(ctx, func(txn *badgerdb.Txn) error {
		key := packageKey(slug)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrPackageNotFound, slug)
			}
			return err
		}
		return txn.Delete(key)
	})
}

// Standards implements Source.
func (s *Store) Standards(ctx context.Context, packageSlugs []string) ([]Standard, error) {
	var out []Standard
	for _, slug := range packageSlugs {
		sp, err := s.Get(ctx, slug)
		if err != nil {
			return nil, err
		}
		out = append(out, sp.Standards...)
	}
	return out, nil
}
