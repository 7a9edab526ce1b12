package turso

import (
	"context"
	"fmt"
	"time"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
	"github.com/emiliopalmerini/ocwatch/internal/util"
)

// InsertSessionError appends an error fact.
func (s *Store) InsertSessionError(ctx context.Context, rec *domain.SessionErrorRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_errors (session_id, name, message, data, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID,
		rec.Name,
		rec.Message,
		util.NullStringPtr(rec.Data),
		rec.OccurredAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session error: %w", err)
	}
	return nil
}

// InsertCommand appends a command fact.
func (s *Store) InsertCommand(ctx context.Context, cmd *domain.Command) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commands (session_id, command, arguments, message_id, executed_at)
		VALUES (?, ?, ?, ?, ?)`,
		cmd.SessionID,
		cmd.Command,
		util.NullStringPtr(cmd.Arguments),
		util.NullStringPtr(cmd.MessageID),
		cmd.ExecutedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert command: %w", err)
	}
	return nil
}

// InsertCompaction appends a counters snapshot.
func (s *Store) InsertCompaction(ctx context.Context, c *domain.Compaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO compactions (session_id, token_input, token_output, token_reasoning, token_cache_read, token_cache_write, context_tokens, peak_context_tokens, cost_usd, compacted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.SessionID,
		c.TokenInput,
		c.TokenOutput,
		c.TokenReasoning,
		c.TokenCacheRead,
		c.TokenCacheWrite,
		c.ContextTokens,
		c.PeakContextTokens,
		c.CostUSD,
		c.CompactedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert compaction: %w", err)
	}
	return nil
}
