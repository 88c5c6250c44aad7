// Package testutil provides test helpers for the run history: a migrated
// throwaway database and a fluent builder for runs.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/textclass/internal/model"
	"github.com/Veraticus/textclass/internal/storage"
)

// TestDB is a migrated database that is closed when the test ends.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a database under t.TempDir and runs the migrations.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &TestDB{Storage: store, t: t}
}

// Seed saves runs, failing the test on the first error.
func (db *TestDB) Seed(runs ...*model.Run) {
	db.t.Helper()
	for _, run := range runs {
		if err := db.Storage.SaveRun(context.Background(), run); err != nil {
			db.t.Fatalf("failed to seed run %s: %v", run.ID, err)
		}
	}
}
