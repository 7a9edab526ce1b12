package pipeline

import (
	"context"
	"strings"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
)

// handleChatMessage buffers the outbound parts of a user turn. The host sends
// chat.message before the message has an identity, so nothing can be written
// yet; the buffer is consumed by the next user message.updated in the session.
func (p *Pipeline) handleChatMessage(ctx context.Context, e *domain.ChatMessageEvent) {
	if e.SessionID == "" {
		return
	}
	p.state.BufferChat(e.SessionID, e.Parts, e.System)
}

func (p *Pipeline) handleMessageUpdated(ctx context.Context, e *domain.MessageUpdatedEvent) {
	info := e.Info
	if info.ID == "" || info.SessionID == "" {
		return
	}

	message := &domain.Message{
		ID:        info.ID,
		SessionID: info.SessionID,
		Role:      info.Role,
		ModelID:   info.ModelID,
		Provider:  info.ProviderID,
		Content:   info.Snapshot(),
		CreatedAt: timeFromMillis(info.Time.Created),
	}
	if len(info.System) > 0 {
		system := strings.Join(info.System, "\n")
		message.SystemPrompt = &system
	}

	parts := info.Parts
	if info.Role == domain.RoleUser && len(parts) == 0 {
		if chat, ok := p.state.TakeChat(info.SessionID); ok {
			parts = chat.Parts
			if message.SystemPrompt == nil {
				message.SystemPrompt = chat.System
			}
		}
	}
	if text := joinTextParts(parts); text != "" {
		message.Text = &text
	}

	steps := []step{
		{"ensure_session", func(ctx context.Context) error {
			return p.store.UpsertSession(ctx, &domain.Session{ID: info.SessionID})
		}},
		{"upsert_message", func(ctx context.Context) error {
			return p.store.UpsertMessage(ctx, message)
		}},
	}
	for i := range parts {
		part := partFromInfo(parts[i], info.ID, info.SessionID)
		if part == nil {
			continue
		}
		steps = append(steps, step{"upsert_message_part", func(ctx context.Context) error {
			return p.store.UpsertMessagePart(ctx, part)
		}})
	}

	// Token counters are cumulative per message; each message contributes to
	// the session exactly once, on the first refresh that carries real usage.
	if info.Role == domain.RoleAssistant && info.Tokens != nil {
		delta := info.Tokens.Delta()
		if !delta.Empty() && p.state.MarkTokensApplied(info.SessionID, info.ID) {
			steps = append(steps, step{"apply_token_delta", func(ctx context.Context) error {
				return p.store.ApplyTokenDelta(ctx, info.SessionID, info.ModelID, info.ProviderID, delta)
			}})
		}
	}

	p.writes.Dispatch(ctx, steps...)
}

func (p *Pipeline) handleMessageRemoved(ctx context.Context, e *domain.MessageRemovedEvent) {
	if e.MessageID == "" {
		return
	}
	id := e.MessageID
	p.writes.Dispatch(ctx, step{"delete_message", func(ctx context.Context) error {
		return p.store.DeleteMessage(ctx, id)
	}})
}

// handlePartUpdated records one streamed part delta. The call-id link is
// registered before anything touches the store so a tool after event can find
// its part even while the store is unavailable.
func (p *Pipeline) handlePartUpdated(ctx context.Context, e *domain.PartUpdatedEvent) {
	info := e.Part
	if info.ID == "" || info.SessionID == "" || info.MessageID == "" {
		return
	}

	if info.Type == domain.PartTypeTool && info.CallID != nil && *info.CallID != "" {
		p.state.LinkPart(*info.CallID, info.ID)
	}

	part := partFromInfo(info, info.MessageID, info.SessionID)
	if part == nil {
		return
	}

	steps := []step{
		{"ensure_session", func(ctx context.Context) error {
			return p.store.UpsertSession(ctx, &domain.Session{ID: info.SessionID})
		}},
		{"ensure_message", func(ctx context.Context) error {
			return p.store.UpsertMessage(ctx, &domain.Message{ID: info.MessageID, SessionID: info.SessionID})
		}},
		{"upsert_message_part", func(ctx context.Context) error {
			return p.store.UpsertMessagePart(ctx, part)
		}},
	}

	if info.Type == domain.PartTypeText && info.Text != nil && *info.Text != "" {
		text := *info.Text
		messageID := info.MessageID
		steps = append(steps, step{"update_message_text", func(ctx context.Context) error {
			return p.store.UpdateMessageText(ctx, messageID, text)
		}})
	}

	if info.Type == domain.PartTypeStepFinish && info.Cost != nil && *info.Cost > 0 {
		cost := *info.Cost
		sessionID := info.SessionID
		steps = append(steps, step{"add_session_cost", func(ctx context.Context) error {
			return p.store.AddSessionCost(ctx, sessionID, cost)
		}})
	}

	p.writes.Dispatch(ctx, steps...)
}

func (p *Pipeline) handlePartRemoved(ctx context.Context, e *domain.PartRemovedEvent) {
	if e.PartID == "" {
		return
	}
	id := e.PartID
	p.writes.Dispatch(ctx, step{"delete_message_part", func(ctx context.Context) error {
		return p.store.DeleteMessagePart(ctx, id)
	}})
}

// partFromInfo maps a host part payload onto the audit record. Parts without
// an id cannot be keyed and are skipped.
func partFromInfo(info domain.PartInfo, messageID, sessionID string) *domain.MessagePart {
	if info.ID == "" {
		return nil
	}
	status := info.Status()
	return &domain.MessagePart{
		ID:         info.ID,
		MessageID:  messageID,
		SessionID:  sessionID,
		Type:       info.Type,
		Tool:       info.Tool,
		CallID:     info.CallID,
		Text:       info.Text,
		Content:    info.Snapshot(),
		Status:     status,
		StatusRank: domain.StatusRank(status),
	}
}

// joinTextParts rebuilds the denormalized message text from its text parts.
func joinTextParts(parts []domain.PartInfo) string {
	var texts []string
	for _, part := range parts {
		if part.Type == domain.PartTypeText && part.Text != nil && *part.Text != "" {
			texts = append(texts, *part.Text)
		}
	}
	return strings.Join(texts, "\n")
}
