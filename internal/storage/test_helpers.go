package storage

import (
	"path/filepath"
	"testing"
)

// setupTestRepo creates a card repository over a temporary migrated
// database file.
func setupTestRepo(t *testing.T) CardRepository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	migrationMgr, err := NewMigrationManager(dbPath)
	if err != nil {
		t.Fatalf("Failed to create migration manager: %v", err)
	}
	if err := migrationMgr.Up(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	_ = migrationMgr.Close()

	db, err := Open(DefaultConfig(dbPath))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return NewCardRepository(db)
}
