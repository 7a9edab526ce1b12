package turso

import (
	"context"
	"fmt"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
	"github.com/emiliopalmerini/ocwatch/internal/util"
)

// UpsertMessagePart inserts the part if absent, then conditionally updates.
// Streaming text-like parts (text, reasoning) accept an update only when the
// incoming text is non-null and strictly longer than what is stored, which
// makes token-by-token streaming convergent under any arrival order. All
// other parts gate on status rank: an update ranked below the stored rank is
// a no-op, equal rank may refresh (a completed part can still receive a later
// completed snapshot with more output). When the gate passes the content
// snapshot is written whole.
func (s *Store) UpsertMessagePart(ctx context.Context, part *domain.MessagePart) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO message_parts (id, message_id, session_id, type, tool, call_id, text, content, status, status_rank)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?)`,
		part.ID,
		part.MessageID,
		part.SessionID,
		part.Type,
		util.NullStringPtr(part.Tool),
		util.NullStringPtr(part.CallID),
		util.NullStringPtr(part.Text),
		util.NullStringPtr(part.Content),
		part.Status,
		part.StatusRank,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message part: %w", err)
	}

	if domain.IsTextual(part.Type) {
		// tool name merges independently of the text-length gate
		_, err = s.db.ExecContext(ctx,
			`UPDATE message_parts SET tool = COALESCE(?, tool) WHERE id = ?`,
			util.NullStringPtr(part.Tool), part.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to merge part tool: %w", err)
		}

		text := util.NullStringPtr(part.Text)
		_, err = s.db.ExecContext(ctx, `
			UPDATE message_parts SET
				text = ?,
				content = COALESCE(?, content),
				updated_at = `+nowExpr+`
			WHERE id = ? AND ? IS NOT NULL AND length(?) > length(COALESCE(text, ''))`,
			text,
			util.NullStringPtr(part.Content),
			part.ID,
			text, text,
		)
		if err != nil {
			return fmt.Errorf("failed to merge part text: %w", err)
		}
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE message_parts SET
			tool = COALESCE(?, tool),
			call_id = COALESCE(?, call_id),
			text = COALESCE(?, text),
			content = COALESCE(?, content),
			status = NULLIF(?, ''),
			status_rank = ?,
			updated_at = `+nowExpr+`
		WHERE id = ? AND ? >= status_rank`,
		util.NullStringPtr(part.Tool),
		util.NullStringPtr(part.CallID),
		util.NullStringPtr(part.Text),
		util.NullStringPtr(part.Content),
		part.Status,
		part.StatusRank,
		part.ID,
		part.StatusRank,
	)
	if err != nil {
		return fmt.Errorf("failed to merge message part: %w", err)
	}
	return nil
}

// AnnotatePartResult attaches a tool outcome to the part's stored state
// snapshot. Runs outside the status gate: the output of a finished call must
// land even if the part row already reached a terminal status.
func (s *Store) AnnotatePartResult(ctx context.Context, partID string, output, errMsg *string) error {
	status := domain.StatusCompleted
	if errMsg != nil {
		status = domain.StatusError
	}
	rank := domain.StatusRank(status)

	_, err := s.db.ExecContext(ctx, `
		UPDATE message_parts SET
			content = json_set(COALESCE(content, '{}'), '$.state.status', ?, '$.state.output', ?, '$.state.error', ?),
			status = ?,
			status_rank = MAX(status_rank, ?),
			updated_at = `+nowExpr+`
		WHERE id = ?`,
		status,
		util.NullStringPtr(output),
		util.NullStringPtr(errMsg),
		status,
		rank,
		partID,
	)
	if err != nil {
		return fmt.Errorf("failed to annotate part result: %w", err)
	}
	return nil
}

// DeleteMessagePart removes a single part row.
func (s *Store) DeleteMessagePart(ctx context.Context, partID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM message_parts WHERE id = ?`, partID); err != nil {
		return fmt.Errorf("failed to delete message part: %w", err)
	}
	return nil
}
