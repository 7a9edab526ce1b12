package domain

import "time"

// Session lifecycle statuses as recorded in the audit trail.
const (
	SessionActive = "active"
	SessionIdle   = "idle"
	SessionError  = "error"
)

// Session is the audit record for one host session. All attribute fields are
// optional: an update event may carry any subset, and absent fields must never
// clobber previously recorded values.
type Session struct {
	ID        string
	ParentID  *string
	ProjectID *string
	Directory *string
	Title     *string
	Version   *string
	Status    *string
	ShareURL  *string
	ModelID   *string
	Provider  *string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// SessionCounters is the point-in-time snapshot of a session's running totals,
// read back from the store only at compaction time.
type SessionCounters struct {
	TokenInput        int64
	TokenOutput       int64
	TokenReasoning    int64
	TokenCacheRead    int64
	TokenCacheWrite   int64
	ContextTokens     int64
	PeakContextTokens int64
	CostUSD           float64
	CompactionCount   int64
}

// TokenDelta is the per-message token contribution applied exactly once to a
// session's counters.
type TokenDelta struct {
	Input      int64
	Output     int64
	Reasoning  int64
	CacheRead  int64
	CacheWrite int64
}

// Empty reports whether the delta carries no input and no output tokens.
// Such updates are treated as non-contributing and may be counted later
// when a fuller update for the same message arrives.
func (d TokenDelta) Empty() bool {
	return d.Input == 0 && d.Output == 0
}

// ContextSize is the context window consumed by the contributing message.
func (d TokenDelta) ContextSize() int64 {
	return d.Input + d.CacheRead
}

// SessionErrorRecord is an append-only error fact attributed to a session.
type SessionErrorRecord struct {
	SessionID  string
	Name       string
	Message    string
	Data       *string
	OccurredAt time.Time
}

// Command is an append-only record of a command executed in a session.
type Command struct {
	SessionID  string
	Command    string
	Arguments  *string
	MessageID  *string
	ExecutedAt time.Time
}

// Compaction is a best-effort snapshot of the session counters taken when the
// host compacts the conversation.
type Compaction struct {
	SessionID         string
	TokenInput        int64
	TokenOutput       int64
	TokenReasoning    int64
	TokenCacheRead    int64
	TokenCacheWrite   int64
	ContextTokens     int64
	PeakContextTokens int64
	CostUSD           float64
	CompactedAt       time.Time
}
