package turso

import (
	"context"
	"fmt"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
	"github.com/emiliopalmerini/ocwatch/internal/util"
)

// InsertToolExecution records a tool invocation. The id is generated by the
// pipeline, so replaying the same logical insert is a no-op.
func (s *Store) InsertToolExecution(ctx context.Context, exec *domain.ToolExecution) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO tool_executions (id, session_id, call_id, tool, input, result, error, started_at, completed_at, duration_ms, success)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exec.ID,
		exec.SessionID,
		exec.CallID,
		exec.Tool,
		util.NullStringPtr(exec.Input),
		util.NullStringPtr(exec.Result),
		util.NullStringPtr(exec.Error),
		util.NullTime(exec.StartedAt),
		util.NullTime(exec.CompletedAt),
		util.NullInt64(exec.DurationMS),
		util.NullBoolPtr(exec.Success),
	)
	if err != nil {
		return fmt.Errorf("failed to insert tool execution: %w", err)
	}
	return nil
}

// CompleteToolExecution fills in the outcome of a previously inserted
// execution.
func (s *Store) CompleteToolExecution(ctx context.Context, exec *domain.ToolExecution) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tool_executions SET
			result = COALESCE(?, result),
			error = COALESCE(?, error),
			completed_at = ?,
			duration_ms = ?,
			success = ?
		WHERE id = ?`,
		util.NullStringPtr(exec.Result),
		util.NullStringPtr(exec.Error),
		util.NullTime(exec.CompletedAt),
		util.NullInt64(exec.DurationMS),
		util.NullBoolPtr(exec.Success),
		exec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete tool execution: %w", err)
	}
	return nil
}
