// Package otel exports pipeline counters to an OTEL Collector over OTLP gRPC.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/ocwatch/internal/infrastructure/config"
)

const (
	serviceName    = "ocwatch"
	serviceVersion = "1.0.0"
)

// Exporter reports pipeline activity to an OTEL Collector.
type Exporter struct {
	provider      *sdkmetric.MeterProvider
	meter         metric.Meter
	eventsTotal   metric.Int64Counter
	writesFailed  metric.Int64Counter
	gateRejected  metric.Int64Counter
	sweepEvicted  metric.Int64Counter
}

// NewExporter creates a new OTEL metrics exporter.
func NewExporter(ctx context.Context, cfg config.OTEL) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	eventsTotal, err := meter.Int64Counter(
		"ocwatch_events_handled_total",
		metric.WithDescription("Bus events handled, by event type"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events counter: %w", err)
	}

	writesFailed, err := meter.Int64Counter(
		"ocwatch_writes_failed_total",
		metric.WithDescription("Write-behind operations that returned an error"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating writes counter: %w", err)
	}

	gateRejected, err := meter.Int64Counter(
		"ocwatch_gate_rejected_total",
		metric.WithDescription("Store operations not admitted while the health gate was open"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gate counter: %w", err)
	}

	sweepEvicted, err := meter.Int64Counter(
		"ocwatch_sweep_evicted_total",
		metric.WithDescription("Correlation entries evicted by the staleness sweep"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sweep counter: %w", err)
	}

	return &Exporter{
		provider:     provider,
		meter:        meter,
		eventsTotal:  eventsTotal,
		writesFailed: writesFailed,
		gateRejected: gateRejected,
		sweepEvicted: sweepEvicted,
	}, nil
}

func (e *Exporter) EventHandled(ctx context.Context, kind string) {
	e.eventsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", kind)))
}

func (e *Exporter) WriteFailed(ctx context.Context, op string) {
	e.writesFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

func (e *Exporter) GateRejected(ctx context.Context) {
	e.gateRejected.Add(ctx, 1)
}

func (e *Exporter) SweepEvicted(ctx context.Context, table string, count int64) {
	e.sweepEvicted.Add(ctx, count, metric.WithAttributes(attribute.String("table", table)))
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
