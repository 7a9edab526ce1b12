package ports

import "context"

// PipelineMetrics exports pipeline counters to an observability backend.
// All methods are fire-and-forget.
type PipelineMetrics interface {
	// EventHandled counts one processed bus notification by kind.
	EventHandled(ctx context.Context, kind string)
	// WriteFailed counts one failed write-behind operation by name.
	WriteFailed(ctx context.Context, op string)
	// GateRejected counts one write refused by the health gate.
	GateRejected(ctx context.Context)
	// SweepEvicted counts correlation entries dropped by the staleness sweep.
	SweepEvicted(ctx context.Context, table string, count int64)
	// Close flushes and shuts down the exporter.
	Close(ctx context.Context) error
}
