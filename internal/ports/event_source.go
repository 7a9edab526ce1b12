package ports

import (
	"context"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
)

// EventHandler consumes one bus notification. Handlers must never block on
// store latency and must never return delivery to an error state: a handler
// that cannot process an event logs and moves on.
type EventHandler func(ctx context.Context, event domain.Event)

// EventSource delivers the host's lifecycle event stream. Run blocks until
// the context is cancelled or the stream ends, invoking the handler once per
// notification in arrival order.
type EventSource interface {
	Run(ctx context.Context, handle EventHandler) error
}
