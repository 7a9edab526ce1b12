package otel

import "context"

// NoOpExporter is a metrics exporter that does nothing.
type NoOpExporter struct{}

// NewNoOpExporter creates a new no-op exporter for graceful degradation.
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

func (e *NoOpExporter) EventHandled(ctx context.Context, kind string) {}

func (e *NoOpExporter) WriteFailed(ctx context.Context, op string) {}

func (e *NoOpExporter) GateRejected(ctx context.Context) {}

func (e *NoOpExporter) SweepEvicted(ctx context.Context, table string, count int64) {}

func (e *NoOpExporter) Close(ctx context.Context) error {
	return nil
}
