package pipeline

import (
	"context"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
)

// handleSessionCompacted snapshots the session counters and resets the live
// context size. This is the only place the pipeline reads the store back, and
// it is best effort: when the read fails or the session row does not exist,
// both the snapshot and the reset are skipped and the next compaction tries
// again. Read, snapshot and reset run as one gated operation so the reset
// never happens without a successful snapshot and the audit trail cannot show
// a zeroed context with no matching compaction row.
func (p *Pipeline) handleSessionCompacted(ctx context.Context, e *domain.SessionCompactedEvent) {
	if e.SessionID == "" {
		return
	}
	sessionID := e.SessionID
	compactedAt := p.now()

	p.writes.Dispatch(ctx, step{"compact_session", func(ctx context.Context) error {
		counters, err := p.store.GetSessionCounters(ctx, sessionID)
		if err != nil {
			return err
		}
		if counters == nil {
			return nil
		}
		snapshot := &domain.Compaction{
			SessionID:         sessionID,
			TokenInput:        counters.TokenInput,
			TokenOutput:       counters.TokenOutput,
			TokenReasoning:    counters.TokenReasoning,
			TokenCacheRead:    counters.TokenCacheRead,
			TokenCacheWrite:   counters.TokenCacheWrite,
			ContextTokens:     counters.ContextTokens,
			PeakContextTokens: counters.PeakContextTokens,
			CostUSD:           counters.CostUSD,
			CompactedAt:       compactedAt,
		}
		if err := p.store.InsertCompaction(ctx, snapshot); err != nil {
			return err
		}
		return p.store.ResetContextAfterCompaction(ctx, sessionID)
	}})
}
