// Package eventsource delivers host bus notifications to the pipeline, either
// over a websocket to the host's event endpoint or as NDJSON on stdin.
package eventsource

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
	"github.com/emiliopalmerini/ocwatch/internal/ports"
)

const (
	reconnectBase = time.Second
	reconnectMax  = 30 * time.Second
)

// WebSocket streams events from the host's bus endpoint. The connection is
// re-dialed with capped backoff whenever it drops; events published while
// disconnected are lost, which the merge rules downstream are built to absorb.
type WebSocket struct {
	url string
	log *logrus.Entry
}

// NewWebSocket creates a websocket event source for the given endpoint URL.
func NewWebSocket(url string, log *logrus.Entry) *WebSocket {
	return &WebSocket{url: url, log: log}
}

// Run reads events until the context is cancelled.
func (w *WebSocket) Run(ctx context.Context, handle ports.EventHandler) error {
	delay := reconnectBase
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		err := w.readLoop(ctx, handle)
		if ctx.Err() != nil {
			return nil
		}
		w.log.WithError(err).WithField("retry_in", delay).Warn("event stream dropped, reconnecting")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > reconnectMax {
			delay = reconnectMax
		}
	}
}

func (w *WebSocket) readLoop(ctx context.Context, handle ports.EventHandler) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", w.url, err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the context is cancelled. The watchdog exits
	// with its connection so reconnect cycles do not pile up goroutines.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	w.log.WithField("url", w.url).Info("connected to event stream")
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("reading event: %w", err)
		}
		var event domain.Event
		if err := json.Unmarshal(data, &event); err != nil {
			w.log.WithError(err).Debug("skipping malformed event frame")
			continue
		}
		handle(ctx, event)
	}
}
