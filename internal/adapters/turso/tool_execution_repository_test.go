package turso_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
)

func TestToolExecution_InsertThenComplete(t *testing.T) {
	store, db := testStore(t)
	ctx := context.Background()

	seedSession(t, store, "sess-tool-1")

	started := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	exec := &domain.ToolExecution{
		ID:        "exec-1",
		SessionID: "sess-tool-1",
		CallID:    "call-tool-1",
		Tool:      "bash",
		Input:     strPtr(`{"command":"ls"}`),
		StartedAt: &started,
	}
	if err := store.InsertToolExecution(ctx, exec); err != nil {
		t.Fatalf("InsertToolExecution failed: %v", err)
	}

	completed := started.Add(1200 * time.Millisecond)
	duration := int64(1200)
	success := true
	done := &domain.ToolExecution{
		ID:          "exec-1",
		SessionID:   "sess-tool-1",
		CallID:      "call-tool-1",
		Tool:        "bash",
		Result:      strPtr("file.txt"),
		CompletedAt: &completed,
		DurationMS:  &duration,
		Success:     &success,
	}
	if err := store.CompleteToolExecution(ctx, done); err != nil {
		t.Fatalf("CompleteToolExecution failed: %v", err)
	}

	var result string
	var durationMS int64
	var successInt int
	err := db.QueryRowContext(ctx,
		`SELECT result, duration_ms, success FROM tool_executions WHERE id = ?`, "exec-1",
	).Scan(&result, &durationMS, &successInt)
	if err != nil {
		t.Fatalf("reading execution: %v", err)
	}
	if result != "file.txt" {
		t.Errorf("result = %q, want file.txt", result)
	}
	if durationMS != 1200 {
		t.Errorf("duration_ms = %d, want 1200", durationMS)
	}
	if successInt != 1 {
		t.Errorf("success = %d, want 1", successInt)
	}
}

func TestInsertToolExecution_ReplayIsNoop(t *testing.T) {
	store, db := testStore(t)
	ctx := context.Background()

	seedSession(t, store, "sess-tool-2")

	exec := &domain.ToolExecution{
		ID:        "exec-replay-1",
		SessionID: "sess-tool-2",
		CallID:    "call-replay-1",
		Tool:      "read",
		Input:     strPtr(`{"path":"a.go"}`),
	}
	if err := store.InsertToolExecution(ctx, exec); err != nil {
		t.Fatalf("InsertToolExecution failed: %v", err)
	}
	exec.Input = strPtr(`{"path":"b.go"}`)
	if err := store.InsertToolExecution(ctx, exec); err != nil {
		t.Fatalf("InsertToolExecution replay failed: %v", err)
	}

	var count int
	var input string
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tool_executions WHERE id = ?`, "exec-replay-1").Scan(&count); err != nil {
		t.Fatalf("counting executions: %v", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT input FROM tool_executions WHERE id = ?`, "exec-replay-1").Scan(&input); err != nil {
		t.Fatalf("reading input: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if input != `{"path":"a.go"}` {
		t.Errorf("input = %q, want first write kept", input)
	}
}

func TestToolExecution_OrphanCompletionWithoutDuration(t *testing.T) {
	store, db := testStore(t)
	ctx := context.Background()

	seedSession(t, store, "sess-tool-3")

	completed := time.Date(2026, 8, 28, 11, 0, 0, 0, time.UTC)
	success := false
	orphan := &domain.ToolExecution{
		ID:          "exec-orphan-1",
		SessionID:   "sess-tool-3",
		CallID:      "call-orphan-1",
		Tool:        "bash",
		Error:       strPtr("killed"),
		CompletedAt: &completed,
		Success:     &success,
	}
	if err := store.InsertToolExecution(ctx, orphan); err != nil {
		t.Fatalf("InsertToolExecution failed: %v", err)
	}

	var startedAt, durationMS sql.NullString
	var errMsg string
	err := db.QueryRowContext(ctx,
		`SELECT started_at, duration_ms, error FROM tool_executions WHERE id = ?`, "exec-orphan-1",
	).Scan(&startedAt, &durationMS, &errMsg)
	if err != nil {
		t.Fatalf("reading execution: %v", err)
	}
	if startedAt.Valid || durationMS.Valid {
		t.Errorf("started_at/duration_ms should stay null for orphans, got %v/%v", startedAt, durationMS)
	}
	if errMsg != "killed" {
		t.Errorf("error = %q, want killed", errMsg)
	}
}
