package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// connectivitySignatures classify an error as an availability problem rather
// than a data problem. Only availability problems degrade the gate.
var connectivitySignatures = []string{
	"timeout",
	"timed out",
	"connection",
	"network",
	"unreachable",
	"no such host",
	"broken pipe",
	"database is locked",
}

func isConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range connectivitySignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// HealthGate admits store operations based on recent failure history. Each
// connectivity failure doubles a capped backoff window; while the window is
// open the gate reports unhealthy, writes are not admitted and reads are
// skipped. A single success resets the counter. Recovery is passive: health
// returns by elapsed time, not by an active probe.
type HealthGate struct {
	timeout     time.Duration
	backoffBase time.Duration
	backoffMax  time.Duration
	now         func() time.Time

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
}

// NewHealthGate builds a gate with the given per-operation timeout and
// backoff bounds.
func NewHealthGate(timeout, backoffBase, backoffMax time.Duration) *HealthGate {
	return &HealthGate{
		timeout:     timeout,
		backoffBase: backoffBase,
		backoffMax:  backoffMax,
		now:         time.Now,
	}
}

// Healthy reports whether a new operation may be admitted.
func (g *HealthGate) Healthy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failures == 0 {
		return true
	}
	return g.now().Sub(g.lastFailure) >= g.backoff()
}

// backoff computes the current window. Callers hold g.mu.
func (g *HealthGate) backoff() time.Duration {
	shift := g.failures - 1
	if shift > 30 {
		shift = 30
	}
	d := g.backoffBase << shift
	if d > g.backoffMax || d <= 0 {
		d = g.backoffMax
	}
	return d
}

// Failures returns the consecutive connectivity-failure count.
func (g *HealthGate) Failures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failures
}

// Do runs one store operation raced against the gate's timeout. A timeout or
// an error matching a connectivity signature degrades the gate; any other
// error is treated as a data problem and leaves health untouched. Success
// resets the failure counter immediately.
func (g *HealthGate) Do(ctx context.Context, op func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	err := op(opCtx)
	if err == nil {
		g.mu.Lock()
		g.failures = 0
		g.mu.Unlock()
		return nil
	}

	if isConnectivityError(err) || opCtx.Err() != nil {
		g.mu.Lock()
		g.failures++
		g.lastFailure = g.now()
		g.mu.Unlock()
	}
	return err
}
