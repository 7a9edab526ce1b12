package turso_test

import (
	"context"
	"testing"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
)

func toolPart(id string, status string, content string) *domain.MessagePart {
	p := &domain.MessagePart{
		ID:         id,
		MessageID:  "msg-part-1",
		SessionID:  "sess-part-1",
		Type:       domain.PartTypeTool,
		Tool:       strPtr("bash"),
		CallID:     strPtr("call-1"),
		Status:     status,
		StatusRank: domain.StatusRank(status),
	}
	if content != "" {
		p.Content = strPtr(content)
	}
	return p
}

func partTestStore(t *testing.T) (*storeWithDB, context.Context) {
	t.Helper()
	store, db := testStore(t)
	ctx := context.Background()
	seedSession(t, store, "sess-part-1")
	seedMessage(t, store, "sess-part-1", "msg-part-1")
	return &storeWithDB{store, db}, ctx
}

func TestUpsertMessagePart_StatusNeverRegresses(t *testing.T) {
	s, ctx := partTestStore(t)

	if err := s.UpsertMessagePart(ctx, toolPart("prt-status-1", domain.StatusRunning, `{"state":{"status":"running"}}`)); err != nil {
		t.Fatalf("UpsertMessagePart failed: %v", err)
	}

	// A delayed pending snapshot must not pull the part backwards.
	if err := s.UpsertMessagePart(ctx, toolPart("prt-status-1", domain.StatusPending, `{"state":{"status":"pending"}}`)); err != nil {
		t.Fatalf("UpsertMessagePart failed: %v", err)
	}

	var status string
	var rank int
	if err := s.db.QueryRowContext(ctx, `SELECT status, status_rank FROM message_parts WHERE id = ?`, "prt-status-1").Scan(&status, &rank); err != nil {
		t.Fatalf("reading part status: %v", err)
	}
	if status != domain.StatusRunning || rank != 2 {
		t.Errorf("status = %q rank = %d, want running/2", status, rank)
	}

	// Terminal status still lands.
	if err := s.UpsertMessagePart(ctx, toolPart("prt-status-1", domain.StatusCompleted, `{"state":{"status":"completed"}}`)); err != nil {
		t.Fatalf("UpsertMessagePart failed: %v", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT status FROM message_parts WHERE id = ?`, "prt-status-1").Scan(&status); err != nil {
		t.Fatalf("reading part status: %v", err)
	}
	if status != domain.StatusCompleted {
		t.Errorf("status = %q, want completed", status)
	}
}

func TestUpsertMessagePart_EqualRankRefreshes(t *testing.T) {
	s, ctx := partTestStore(t)

	if err := s.UpsertMessagePart(ctx, toolPart("prt-status-2", domain.StatusCompleted, `{"state":{"status":"completed"}}`)); err != nil {
		t.Fatalf("UpsertMessagePart failed: %v", err)
	}
	// A fuller completed snapshot at equal rank replaces the content.
	if err := s.UpsertMessagePart(ctx, toolPart("prt-status-2", domain.StatusCompleted, `{"state":{"status":"completed","output":"done"}}`)); err != nil {
		t.Fatalf("UpsertMessagePart failed: %v", err)
	}

	var output string
	if err := s.db.QueryRowContext(ctx, `SELECT json_extract(content, '$.state.output') FROM message_parts WHERE id = ?`, "prt-status-2").Scan(&output); err != nil {
		t.Fatalf("reading part content: %v", err)
	}
	if output != "done" {
		t.Errorf("output = %q, want refreshed snapshot", output)
	}
}

func TestUpsertMessagePart_TextualOnlyGrows(t *testing.T) {
	s, ctx := partTestStore(t)

	part := func(text string) *domain.MessagePart {
		return &domain.MessagePart{
			ID:        "prt-text-1",
			MessageID: "msg-part-1",
			SessionID: "sess-part-1",
			Type:      domain.PartTypeReasoning,
			Text:      strPtr(text),
		}
	}

	for _, text := range []string{"thinking ab", "thinking about it", "thinking"} {
		if err := s.UpsertMessagePart(ctx, part(text)); err != nil {
			t.Fatalf("UpsertMessagePart failed: %v", err)
		}
	}

	var text string
	if err := s.db.QueryRowContext(ctx, `SELECT text FROM message_parts WHERE id = ?`, "prt-text-1").Scan(&text); err != nil {
		t.Fatalf("reading part text: %v", err)
	}
	if text != "thinking about it" {
		t.Errorf("text = %q, want the longest streamed value", text)
	}
}

func TestAnnotatePartResult(t *testing.T) {
	s, ctx := partTestStore(t)

	if err := s.UpsertMessagePart(ctx, toolPart("prt-annot-1", domain.StatusRunning, `{"state":{"status":"running"}}`)); err != nil {
		t.Fatalf("UpsertMessagePart failed: %v", err)
	}

	if err := s.AnnotatePartResult(ctx, "prt-annot-1", strPtr("file written"), nil); err != nil {
		t.Fatalf("AnnotatePartResult failed: %v", err)
	}

	var status, stateStatus, output string
	err := s.db.QueryRowContext(ctx, `
		SELECT status, json_extract(content, '$.state.status'), json_extract(content, '$.state.output')
		FROM message_parts WHERE id = ?`, "prt-annot-1",
	).Scan(&status, &stateStatus, &output)
	if err != nil {
		t.Fatalf("reading part: %v", err)
	}
	if status != domain.StatusCompleted || stateStatus != domain.StatusCompleted {
		t.Errorf("status = %q/%q, want completed", status, stateStatus)
	}
	if output != "file written" {
		t.Errorf("output = %q, want annotated result", output)
	}
}

func TestAnnotatePartResult_ErrorOutcome(t *testing.T) {
	s, ctx := partTestStore(t)

	if err := s.UpsertMessagePart(ctx, toolPart("prt-annot-2", domain.StatusRunning, "")); err != nil {
		t.Fatalf("UpsertMessagePart failed: %v", err)
	}
	if err := s.AnnotatePartResult(ctx, "prt-annot-2", nil, strPtr("permission denied")); err != nil {
		t.Fatalf("AnnotatePartResult failed: %v", err)
	}

	var status, errMsg string
	err := s.db.QueryRowContext(ctx, `
		SELECT status, json_extract(content, '$.state.error')
		FROM message_parts WHERE id = ?`, "prt-annot-2",
	).Scan(&status, &errMsg)
	if err != nil {
		t.Fatalf("reading part: %v", err)
	}
	if status != domain.StatusError {
		t.Errorf("status = %q, want error", status)
	}
	if errMsg != "permission denied" {
		t.Errorf("error = %q, want annotated message", errMsg)
	}
}

func TestAnnotatePartResult_MissingPartIsNoop(t *testing.T) {
	s, ctx := partTestStore(t)

	if err := s.AnnotatePartResult(ctx, "prt-missing", strPtr("output"), nil); err != nil {
		t.Errorf("AnnotatePartResult on missing part should be a no-op, got %v", err)
	}
}
