package pipeline

import (
	"context"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
)

// handleToolBefore opens a tool invocation. The pending execution is tracked
// in memory before the insert is dispatched, so the matching after pairs up
// even when the insert itself is still in flight or was rejected by the gate.
func (p *Pipeline) handleToolBefore(ctx context.Context, e *domain.ToolExecuteBeforeEvent) {
	if e.SessionID == "" || e.CallID == "" || e.Tool == "" {
		return
	}

	var input *string
	if len(e.Args) > 0 {
		s := string(e.Args)
		input = &s
	}

	exec := &pendingExecution{
		ExecutionID: p.newID(),
		SessionID:   e.SessionID,
		Tool:        e.Tool,
		Input:       input,
		StartedAt:   p.now(),
	}
	p.state.TrackTool(e.CallID, exec)

	started := exec.StartedAt
	record := &domain.ToolExecution{
		ID:        exec.ExecutionID,
		SessionID: exec.SessionID,
		CallID:    e.CallID,
		Tool:      exec.Tool,
		Input:     exec.Input,
		StartedAt: &started,
	}
	p.writes.Dispatch(ctx,
		step{"ensure_session", func(ctx context.Context) error {
			return p.store.UpsertSession(ctx, &domain.Session{ID: record.SessionID})
		}},
		step{"insert_tool_execution", func(ctx context.Context) error {
			return p.store.InsertToolExecution(ctx, record)
		}},
	)
}

// handleToolAfter closes a tool invocation. A matched after completes the row
// opened by the before; an orphan after (no pending execution, typically after
// a sweep or a missed before) synthesizes a standalone completed row. Either
// way the result is stamped onto the linked part when one is known.
func (p *Pipeline) handleToolAfter(ctx context.Context, e *domain.ToolExecuteAfterEvent) {
	if e.SessionID == "" || e.CallID == "" {
		return
	}

	completedAt := p.now()
	success := e.Error == nil

	var steps []step
	if exec, ok := p.state.TakeTool(e.CallID); ok {
		duration := completedAt.Sub(exec.StartedAt).Milliseconds()
		record := &domain.ToolExecution{
			ID:          exec.ExecutionID,
			SessionID:   exec.SessionID,
			CallID:      e.CallID,
			Tool:        exec.Tool,
			Result:      e.Output,
			Error:       e.Error,
			CompletedAt: &completedAt,
			DurationMS:  &duration,
			Success:     &success,
		}
		steps = append(steps, step{"complete_tool_execution", func(ctx context.Context) error {
			return p.store.CompleteToolExecution(ctx, record)
		}})
	} else {
		// Start time is unknown for an orphan, so the duration stays null.
		record := &domain.ToolExecution{
			ID:          p.newID(),
			SessionID:   e.SessionID,
			CallID:      e.CallID,
			Tool:        e.Tool,
			Result:      e.Output,
			Error:       e.Error,
			CompletedAt: &completedAt,
			Success:     &success,
		}
		steps = append(steps,
			step{"ensure_session", func(ctx context.Context) error {
				return p.store.UpsertSession(ctx, &domain.Session{ID: record.SessionID})
			}},
			step{"insert_tool_execution", func(ctx context.Context) error {
				return p.store.InsertToolExecution(ctx, record)
			}},
		)
	}

	if partID, ok := p.state.PartFor(e.CallID); ok {
		output, errMsg := e.Output, e.Error
		steps = append(steps, step{"annotate_part_result", func(ctx context.Context) error {
			return p.store.AnnotatePartResult(ctx, partID, output, errMsg)
		}})
	}

	p.writes.Dispatch(ctx, steps...)
}
