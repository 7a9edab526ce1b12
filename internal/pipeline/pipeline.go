// Package pipeline is the event-correlation and write-behind core. It links
// asynchronous before/after notifications into coherent audit records,
// admits store writes through a health gate, and dispatches every write
// fire-and-forget so event intake never blocks on store latency.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
	"github.com/emiliopalmerini/ocwatch/internal/infrastructure/config"
	"github.com/emiliopalmerini/ocwatch/internal/ports"
)

// Pipeline consumes host lifecycle events and records the audit trail.
type Pipeline struct {
	store   ports.Store
	gate    *HealthGate
	state   *CorrelationState
	writes  *dispatcher
	log     *logrus.Entry
	metrics ports.PipelineMetrics

	sweepInterval time.Duration
	now           func() time.Time
	newID         func() string
}

// New wires the pipeline. metrics may be nil, in which case counters are
// discarded.
func New(store ports.Store, log *logrus.Entry, metrics ports.PipelineMetrics, cfg config.Pipeline) *Pipeline {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	gate := NewHealthGate(cfg.WriteTimeout, cfg.BackoffBase, cfg.BackoffMax)
	return &Pipeline{
		store: store,
		gate:  gate,
		state: NewCorrelationState(correlationTTLs{
			PendingTool: cfg.PendingToolTTL,
			PartLink:    cfg.PartLinkTTL,
			PendingChat: cfg.PendingChatTTL,
			TokenDedup:  cfg.TokenDedupTTL,
		}),
		writes:        newDispatcher(gate, log, metrics),
		log:           log,
		metrics:       metrics,
		sweepInterval: cfg.SweepInterval,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// Gate exposes the health gate, mainly for the startup probe.
func (p *Pipeline) Gate() *HealthGate {
	return p.gate
}

// RunSweeper evicts stale correlation entries on a fixed interval until the
// context is cancelled. It runs independently of event traffic.
func (p *Pipeline) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(p.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for table, n := range p.state.Sweep() {
				p.metrics.SweepEvicted(ctx, table, n)
				p.log.WithFields(logrus.Fields{"table": table, "evicted": n}).Debug("swept stale correlation entries")
			}
		}
	}
}

// Drain waits for in-flight write-behind chains to finish.
func (p *Pipeline) Drain() {
	p.writes.Drain()
}

// Handle processes one bus notification. It never returns an error and never
// panics across the boundary: a malformed event is logged and dropped, and
// all persistence happens write-behind.
func (p *Pipeline) Handle(ctx context.Context, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithFields(logrus.Fields{"type": event.Type, "panic": r}).Error("event handler panicked")
		}
	}()

	payload, err := domain.ParseEventPayload(event.Type, event.Properties)
	if err != nil {
		p.log.WithError(err).WithField("type", event.Type).Debug("dropping unparseable event")
		return
	}
	p.metrics.EventHandled(ctx, event.Type)

	switch e := payload.(type) {
	case *domain.SessionEvent:
		p.handleSessionUpdated(ctx, e)
	case *domain.SessionDeletedEvent:
		p.handleSessionDeleted(ctx, e)
	case *domain.SessionIdleEvent:
		p.handleSessionIdle(ctx, e)
	case *domain.SessionErrorEvent:
		p.handleSessionError(ctx, e)
	case *domain.SessionCompactedEvent:
		p.handleSessionCompacted(ctx, e)
	case *domain.MessageUpdatedEvent:
		p.handleMessageUpdated(ctx, e)
	case *domain.MessageRemovedEvent:
		p.handleMessageRemoved(ctx, e)
	case *domain.PartUpdatedEvent:
		p.handlePartUpdated(ctx, e)
	case *domain.PartRemovedEvent:
		p.handlePartRemoved(ctx, e)
	case *domain.ChatMessageEvent:
		p.handleChatMessage(ctx, e)
	case *domain.CommandExecutedEvent:
		p.handleCommandExecuted(ctx, e)
	case *domain.ToolExecuteBeforeEvent:
		p.handleToolBefore(ctx, e)
	case *domain.ToolExecuteAfterEvent:
		p.handleToolAfter(ctx, e)
	}
}

func (p *Pipeline) handleSessionUpdated(ctx context.Context, e *domain.SessionEvent) {
	if e.Info.ID == "" {
		return
	}
	session := sessionFromInfo(e.Info)
	p.writes.Dispatch(ctx, step{"upsert_session", func(ctx context.Context) error {
		return p.store.UpsertSession(ctx, session)
	}})
}

func (p *Pipeline) handleSessionDeleted(ctx context.Context, e *domain.SessionDeletedEvent) {
	id := e.Info.ID
	if id == "" {
		return
	}
	p.writes.Dispatch(ctx, step{"delete_session", func(ctx context.Context) error {
		return p.store.DeleteSession(ctx, id)
	}})
}

func (p *Pipeline) handleSessionIdle(ctx context.Context, e *domain.SessionIdleEvent) {
	id := e.SessionID
	if id == "" {
		return
	}
	p.writes.Dispatch(ctx, step{"set_session_idle", func(ctx context.Context) error {
		return p.store.SetSessionStatus(ctx, id, domain.SessionIdle)
	}})
}

// handleSessionError drops events without a session identifier: an error that
// cannot be attributed is worse recorded than missing. The error insert and
// the status flip are two independent write-behind operations; a reader may
// observe the status without the error row for a moment.
func (p *Pipeline) handleSessionError(ctx context.Context, e *domain.SessionErrorEvent) {
	if e.SessionID == nil || *e.SessionID == "" {
		p.log.Debug("dropping session error without session id")
		return
	}
	sessionID := *e.SessionID

	rec := &domain.SessionErrorRecord{
		SessionID:  sessionID,
		Name:       "unknown",
		Message:    "unknown",
		OccurredAt: p.now(),
	}
	if e.Error != nil {
		rec.Name = e.Error.Name
		rec.Message = e.Error.Message()
	}

	p.writes.Dispatch(ctx,
		step{"ensure_session", func(ctx context.Context) error {
			return p.store.UpsertSession(ctx, &domain.Session{ID: sessionID})
		}},
		step{"insert_session_error", func(ctx context.Context) error {
			return p.store.InsertSessionError(ctx, rec)
		}},
	)
	p.writes.Dispatch(ctx, step{"set_session_error", func(ctx context.Context) error {
		return p.store.SetSessionStatus(ctx, sessionID, domain.SessionError)
	}})
}

func (p *Pipeline) handleCommandExecuted(ctx context.Context, e *domain.CommandExecutedEvent) {
	if e.SessionID == "" {
		return
	}
	cmd := &domain.Command{
		SessionID:  e.SessionID,
		Command:    e.Command,
		Arguments:  e.Arguments,
		MessageID:  e.MessageID,
		ExecutedAt: p.now(),
	}
	p.writes.Dispatch(ctx,
		step{"ensure_session", func(ctx context.Context) error {
			return p.store.UpsertSession(ctx, &domain.Session{ID: cmd.SessionID})
		}},
		step{"insert_command", func(ctx context.Context) error {
			return p.store.InsertCommand(ctx, cmd)
		}},
	)
}

func sessionFromInfo(info domain.SessionInfo) *domain.Session {
	session := &domain.Session{
		ID:        info.ID,
		ParentID:  info.ParentID,
		ProjectID: info.ProjectID,
		Directory: info.Directory,
		Title:     info.Title,
		Version:   info.Version,
		CreatedAt: timeFromMillis(info.Time.Created),
		UpdatedAt: timeFromMillis(info.Time.Updated),
	}
	if info.Share != nil && info.Share.URL != "" {
		url := info.Share.URL
		session.ShareURL = &url
	}
	return session
}

func timeFromMillis(ms int64) *time.Time {
	if ms == 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

// noopMetrics discards every counter.
type noopMetrics struct{}

func (noopMetrics) EventHandled(context.Context, string) {}

func (noopMetrics) WriteFailed(context.Context, string) {}

func (noopMetrics) GateRejected(context.Context) {}

func (noopMetrics) SweepEvicted(context.Context, string, int64) {}

func (noopMetrics) Close(context.Context) error { return nil }
