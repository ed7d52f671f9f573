// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the WebGen project.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/webgenhq/webgen/internal/store"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// TestDB creates an in-memory test database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	// An in-memory sqlite database exists per connection; pin the pool to
	// one so every query sees the migrated schema.
	db.SetMaxOpenConns(1)

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
	}
}

// TestFileStore creates a file-backed store in a temp directory.
func TestFileStore(t *testing.T) *store.FileStore {
	t.Helper()

	s, err := store.NewFileStore(t.TempDir() + "/webgen.json")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}
