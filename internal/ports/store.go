package ports

import (
	"context"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
)

// Store is the persistence collaborator. Every write is idempotent: replaying
// a call with the same arguments converges to the same durable state, which is
// what lets the pipeline target at-least-once delivery. Implementations apply
// the merge rules (COALESCE upserts, monotonic text growth, status-rank gate)
// inside the statements themselves so convergence does not depend on arrival
// order.
type Store interface {
	// Ping is the liveness probe used by the health gate and the startup
	// fail-closed check.
	Ping(ctx context.Context) error

	// UpsertSession inserts or merges a session row. Absent fields never
	// overwrite recorded values.
	UpsertSession(ctx context.Context, session *domain.Session) error
	// SetSessionStatus flips the lifecycle status only.
	SetSessionStatus(ctx context.Context, sessionID, status string) error
	// DeleteSession removes the session; child rows cascade.
	DeleteSession(ctx context.Context, sessionID string) error
	// AddSessionCost adds a step cost to the session's running total.
	AddSessionCost(ctx context.Context, sessionID string, cost float64) error
	// ApplyTokenDelta adds one message's token contribution to the session
	// counters, sets the live context size and folds it into the peak, and
	// backfills model identity where unset.
	ApplyTokenDelta(ctx context.Context, sessionID string, modelID, provider *string, delta domain.TokenDelta) error
	// GetSessionCounters is the one read-back in the pipeline, used to
	// snapshot counters at compaction time. Returns nil when the session
	// row does not exist.
	GetSessionCounters(ctx context.Context, sessionID string) (*domain.SessionCounters, error)
	// ResetContextAfterCompaction zeroes the live context counter, folds the
	// pre-reset value into the peak and increments the compaction count.
	ResetContextAfterCompaction(ctx context.Context, sessionID string) error

	// UpsertMessage inserts or merges a message row under the coalesce
	// discipline; text only grows.
	UpsertMessage(ctx context.Context, message *domain.Message) error
	// UpdateMessageText refreshes the denormalized message text under the
	// monotonic-length rule.
	UpdateMessageText(ctx context.Context, messageID, text string) error
	// DeleteMessage removes a message; its parts cascade.
	DeleteMessage(ctx context.Context, messageID string) error

	// UpsertMessagePart inserts the part if absent, then conditionally
	// updates it: textual parts only on strictly longer text, status-bearing
	// parts only when the incoming status rank is >= the stored rank.
	UpsertMessagePart(ctx context.Context, part *domain.MessagePart) error
	// AnnotatePartResult attaches a tool result to the part's stored state
	// snapshot, bypassing the status gate.
	AnnotatePartResult(ctx context.Context, partID string, output, errMsg *string) error
	// DeleteMessagePart removes a single part.
	DeleteMessagePart(ctx context.Context, partID string) error

	// InsertToolExecution records a started (or synthesized) tool invocation.
	InsertToolExecution(ctx context.Context, exec *domain.ToolExecution) error
	// CompleteToolExecution fills in result, completion time, duration and
	// success flag for a previously inserted execution.
	CompleteToolExecution(ctx context.Context, exec *domain.ToolExecution) error

	// InsertSessionError appends an error fact.
	InsertSessionError(ctx context.Context, rec *domain.SessionErrorRecord) error
	// InsertCommand appends a command fact.
	InsertCommand(ctx context.Context, cmd *domain.Command) error
	// InsertCompaction appends a counters snapshot.
	InsertCompaction(ctx context.Context, c *domain.Compaction) error
}
