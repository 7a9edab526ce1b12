// Package turso implements the Store port against a Turso/libsql database.
// The merge rules live in the SQL itself: COALESCE upserts for sessions and
// messages, a strictly-longer-text gate for streaming parts and a status-rank
// gate for tool parts, so replays and out-of-order writes converge.
package turso

import (
	"context"
	"database/sql"
)

const nowExpr = "strftime('%Y-%m-%dT%H:%M:%SZ', 'now')"

// Store persists the audit trail.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ping is the liveness probe used by the health gate.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}
