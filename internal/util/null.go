package util

import (
	"database/sql"
	"time"
)

// NullStringPtr converts a *string to sql.NullString.
// Nil pointers are treated as invalid (null).
func NullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// NullInt64 converts a *int64 to sql.NullInt64.
// Nil pointers are treated as invalid (null).
func NullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

// NullTime converts a *time.Time to an RFC3339 sql.NullString.
// SQLite has no native timestamp type, so times are stored as text.
func NullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// NullBoolPtr converts a *bool to sql.NullInt64 (true=1, false=0).
func NullBoolPtr(b *bool) sql.NullInt64 {
	if b == nil {
		return sql.NullInt64{}
	}
	var v int64
	if *b {
		v = 1
	}
	return sql.NullInt64{Int64: v, Valid: true}
}
