// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package testutil

import "testing"

func TestTestDB_MigratedSchema(t *testing.T) {
	db, cleanup := TestDB(t)
	defer cleanup()

	// Every migrated table must be queryable over the in-memory database.
	for _, table := range []string{"users", "pages", "settings", "footer_links", "sessions"} {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Errorf("querying %s: %v", table, err)
		}
	}
}

func TestTestFileStore(t *testing.T) {
	s := TestFileStore(t)
	if s == nil {
		t.Fatal("expected a store")
	}
}
