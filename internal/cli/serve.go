package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/ocwatch/internal/adapters/eventsource"
	"github.com/emiliopalmerini/ocwatch/internal/adapters/otel"
	"github.com/emiliopalmerini/ocwatch/internal/adapters/turso"
	"github.com/emiliopalmerini/ocwatch/internal/domain"
	"github.com/emiliopalmerini/ocwatch/internal/infrastructure/config"
	"github.com/emiliopalmerini/ocwatch/internal/pipeline"
	"github.com/emiliopalmerini/ocwatch/internal/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Subscribe to the host event bus and record the audit trail",
	Long: `Subscribe to the host event bus and record the audit trail.

With OCWATCH_EVENT_URL set, events are streamed over a websocket from the
host's bus endpoint. Without it, events are read as newline-delimited JSON
from stdin, which is how the host invokes ocwatch as a plugin.

Examples:
  OCWATCH_EVENT_URL=ws://localhost:4096/event ocwatch serve
  opencode events | ocwatch serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServe()
	if err != nil {
		return err
	}

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	log := logrus.NewEntry(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := turso.NewDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	store := turso.NewStore(db)

	var metrics ports.PipelineMetrics = otel.NewNoOpExporter()
	if cfg.OTEL.Enabled {
		exporter, err := otel.NewExporter(ctx, cfg.OTEL)
		if err != nil {
			return err
		}
		metrics = exporter
	}

	pipe := pipeline.New(store, log.WithField("component", "pipeline"), metrics, cfg.Pipeline)

	// Startup probe is fail-closed: with the store unreachable the process
	// stays up and keeps consuming the stream, but records nothing. Dropping
	// the subscription instead would back-pressure the host bus.
	handle := pipe.Handle
	probeCtx, cancel := context.WithTimeout(ctx, cfg.Pipeline.WriteTimeout)
	probeErr := store.Ping(probeCtx)
	cancel()
	if probeErr != nil {
		log.WithError(probeErr).Error("store unreachable at startup, draining events without recording")
		handle = func(context.Context, domain.Event) {}
	} else {
		go pipe.RunSweeper(ctx)
	}

	var source ports.EventSource
	if cfg.EventSource.URL != "" {
		source = eventsource.NewWebSocket(cfg.EventSource.URL, log.WithField("component", "eventsource"))
	} else {
		source = eventsource.NewStdin(os.Stdin, log.WithField("component", "eventsource"))
	}

	runErr := source.Run(ctx, handle)

	// Shutdown: the source has stopped, let in-flight writes land and flush
	// whatever metrics are pending.
	pipe.Drain()
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelFlush()
	if err := metrics.Close(flushCtx); err != nil {
		log.WithError(err).Warn("failed to flush metrics")
	}

	return runErr
}
