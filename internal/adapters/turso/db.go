package turso

import (
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/emiliopalmerini/ocwatch/internal/infrastructure/config"
)

// NewDB opens the audit database. A bare URL (file: or :memory:) is used
// as-is; a Turso URL gets the auth token appended.
func NewDB(cfg config.Database) (*sql.DB, error) {
	dsn := cfg.URL
	if cfg.AuthToken != "" {
		dsn = fmt.Sprintf("%s?authToken=%s", cfg.URL, cfg.AuthToken)
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// child rows cascade on session delete
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}
