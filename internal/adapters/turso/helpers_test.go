package turso_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/emiliopalmerini/ocwatch/internal/adapters/turso"
	"github.com/emiliopalmerini/ocwatch/internal/domain"
	"github.com/emiliopalmerini/ocwatch/internal/migrate"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	ctx := context.Background()
	if err := migrate.Up(ctx, db); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testStore(t *testing.T) (*turso.Store, *sql.DB) {
	t.Helper()
	db := testDB(t)
	return turso.NewStore(db), db
}

// seedSession inserts a bare session row so child rows can reference it.
func seedSession(t *testing.T, store *turso.Store, id string) {
	t.Helper()
	if err := store.UpsertSession(context.Background(), &domain.Session{ID: id}); err != nil {
		t.Fatalf("Failed to seed session %s: %v", id, err)
	}
}

func seedMessage(t *testing.T, store *turso.Store, sessionID, messageID string) {
	t.Helper()
	if err := store.UpsertMessage(context.Background(), &domain.Message{ID: messageID, SessionID: sessionID}); err != nil {
		t.Fatalf("Failed to seed message %s: %v", messageID, err)
	}
}

// storeWithDB bundles the store under test with the raw handle used for
// read-back assertions.
type storeWithDB struct {
	*turso.Store
	db *sql.DB
}

func strPtr(s string) *string { return &s }
