package turso

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
	"github.com/emiliopalmerini/ocwatch/internal/util"
)

// UpsertSession inserts the session if absent, then merges the reported
// fields. COALESCE keeps every recorded value that the incoming event does
// not carry, so a late update with nulls never clears known data.
func (s *Store) UpsertSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO sessions (id, parent_id, project_id, directory, title, version, status, share_url, model_id, provider, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, COALESCE(?, 'active'), ?, ?, ?, COALESCE(?, `+nowExpr+`), ?)`,
		session.ID,
		util.NullStringPtr(session.ParentID),
		util.NullStringPtr(session.ProjectID),
		util.NullStringPtr(session.Directory),
		util.NullStringPtr(session.Title),
		util.NullStringPtr(session.Version),
		util.NullStringPtr(session.Status),
		util.NullStringPtr(session.ShareURL),
		util.NullStringPtr(session.ModelID),
		util.NullStringPtr(session.Provider),
		util.NullTime(session.CreatedAt),
		util.NullTime(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE sessions SET
			parent_id = COALESCE(?, parent_id),
			project_id = COALESCE(?, project_id),
			directory = COALESCE(?, directory),
			title = COALESCE(?, title),
			version = COALESCE(?, version),
			status = COALESCE(?, status),
			share_url = COALESCE(?, share_url),
			model_id = COALESCE(?, model_id),
			provider = COALESCE(?, provider),
			updated_at = COALESCE(?, updated_at)
		WHERE id = ?`,
		util.NullStringPtr(session.ParentID),
		util.NullStringPtr(session.ProjectID),
		util.NullStringPtr(session.Directory),
		util.NullStringPtr(session.Title),
		util.NullStringPtr(session.Version),
		util.NullStringPtr(session.Status),
		util.NullStringPtr(session.ShareURL),
		util.NullStringPtr(session.ModelID),
		util.NullStringPtr(session.Provider),
		util.NullTime(session.UpdatedAt),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to merge session: %w", err)
	}
	return nil
}

// SetSessionStatus flips the lifecycle status only.
func (s *Store) SetSessionStatus(ctx context.Context, sessionID, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, updated_at = `+nowExpr+` WHERE id = ?`,
		status, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to set session status: %w", err)
	}
	return nil
}

// DeleteSession removes the session row; messages, parts, executions, errors,
// commands and compactions cascade.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// AddSessionCost adds a step cost to the running total.
func (s *Store) AddSessionCost(ctx context.Context, sessionID string, cost float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET cost_usd = cost_usd + ? WHERE id = ?`,
		cost, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to add session cost: %w", err)
	}
	return nil
}

// ApplyTokenDelta adds one message's token contribution, sets the live
// context size to that message's window and folds it into the peak. Model
// identity is backfilled only where the session has none recorded.
func (s *Store) ApplyTokenDelta(ctx context.Context, sessionID string, modelID, provider *string, delta domain.TokenDelta) error {
	contextSize := delta.ContextSize()
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET
			token_input = token_input + ?,
			token_output = token_output + ?,
			token_reasoning = token_reasoning + ?,
			token_cache_read = token_cache_read + ?,
			token_cache_write = token_cache_write + ?,
			context_tokens = ?,
			peak_context_tokens = MAX(peak_context_tokens, ?),
			model_id = COALESCE(model_id, ?),
			provider = COALESCE(provider, ?),
			updated_at = `+nowExpr+`
		WHERE id = ?`,
		delta.Input,
		delta.Output,
		delta.Reasoning,
		delta.CacheRead,
		delta.CacheWrite,
		contextSize,
		contextSize,
		util.NullStringPtr(modelID),
		util.NullStringPtr(provider),
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to apply token delta: %w", err)
	}
	return nil
}

// GetSessionCounters reads the session's running totals. Returns nil when the
// session does not exist.
func (s *Store) GetSessionCounters(ctx context.Context, sessionID string) (*domain.SessionCounters, error) {
	var c domain.SessionCounters
	err := s.db.QueryRowContext(ctx, `
		SELECT token_input, token_output, token_reasoning, token_cache_read, token_cache_write,
		       context_tokens, peak_context_tokens, cost_usd, compaction_count
		FROM sessions WHERE id = ?`, sessionID,
	).Scan(
		&c.TokenInput, &c.TokenOutput, &c.TokenReasoning, &c.TokenCacheRead, &c.TokenCacheWrite,
		&c.ContextTokens, &c.PeakContextTokens, &c.CostUSD, &c.CompactionCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session counters: %w", err)
	}
	return &c, nil
}

// ResetContextAfterCompaction zeroes the live context counter. The right-hand
// sides evaluate against pre-update values, so the old context size is folded
// into the peak before the reset takes effect.
func (s *Store) ResetContextAfterCompaction(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET
			peak_context_tokens = MAX(peak_context_tokens, context_tokens),
			context_tokens = 0,
			compaction_count = compaction_count + 1,
			updated_at = `+nowExpr+`
		WHERE id = ?`, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset context after compaction: %w", err)
	}
	return nil
}
