package turso

import (
	"context"
	"fmt"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
	"github.com/emiliopalmerini/ocwatch/internal/util"
)

// UpsertMessage inserts the message if absent, then merges. Text only ever
// grows (strictly longer wins); content, model and system prompt follow the
// coalesce discipline; an empty role never overwrites a known one.
func (s *Store) UpsertMessage(ctx context.Context, message *domain.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO messages (id, session_id, role, model_id, provider, text, content, system_prompt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, `+nowExpr+`))`,
		message.ID,
		message.SessionID,
		message.Role,
		util.NullStringPtr(message.ModelID),
		util.NullStringPtr(message.Provider),
		util.NullStringPtr(message.Text),
		util.NullStringPtr(message.Content),
		util.NullStringPtr(message.SystemPrompt),
		util.NullTime(message.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	text := util.NullStringPtr(message.Text)
	_, err = s.db.ExecContext(ctx, `
		UPDATE messages SET
			role = COALESCE(NULLIF(?, ''), role),
			model_id = COALESCE(?, model_id),
			provider = COALESCE(?, provider),
			text = CASE WHEN ? IS NOT NULL AND length(?) > length(COALESCE(text, '')) THEN ? ELSE text END,
			content = COALESCE(?, content),
			system_prompt = COALESCE(?, system_prompt),
			updated_at = `+nowExpr+`
		WHERE id = ?`,
		message.Role,
		util.NullStringPtr(message.ModelID),
		util.NullStringPtr(message.Provider),
		text, text, text,
		util.NullStringPtr(message.Content),
		util.NullStringPtr(message.SystemPrompt),
		message.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to merge message: %w", err)
	}
	return nil
}

// UpdateMessageText refreshes the denormalized message text, only when the
// incoming value is strictly longer than what is stored.
func (s *Store) UpdateMessageText(ctx context.Context, messageID, text string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE messages SET text = ?, updated_at = `+nowExpr+`
		WHERE id = ? AND length(?) > length(COALESCE(text, ''))`,
		text, messageID, text,
	)
	if err != nil {
		return fmt.Errorf("failed to update message text: %w", err)
	}
	return nil
}

// DeleteMessage removes the message; its parts cascade.
func (s *Store) DeleteMessage(ctx context.Context, messageID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
