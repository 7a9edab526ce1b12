package pipeline

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/ocwatch/internal/ports"
)

// step is one store operation inside a write-behind chain.
type step struct {
	name string
	run  func(context.Context) error
}

// dispatcher runs write-behind chains: one goroutine per event, steps inside
// a chain awaited in order, failures logged and counted but never returned to
// the event path. A panic while building or running a chain is contained at
// the chain boundary.
type dispatcher struct {
	gate    *HealthGate
	log     *logrus.Entry
	metrics ports.PipelineMetrics
	wg      sync.WaitGroup
}

func newDispatcher(gate *HealthGate, log *logrus.Entry, metrics ports.PipelineMetrics) *dispatcher {
	return &dispatcher{gate: gate, log: log, metrics: metrics}
}

// Dispatch submits a chain and returns immediately. The chain detaches from
// the caller's cancellation so shutdown can drain in-flight writes; each step
// still races the gate's own timeout. A data error drops only its step,
// later steps in the chain still attempt to proceed. While the gate is
// unhealthy steps are not admitted at all.
func (d *dispatcher) Dispatch(ctx context.Context, steps ...step) {
	if len(steps) == 0 {
		return
	}

	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.WithField("panic", r).Error("write-behind chain panicked")
			}
		}()

		for _, s := range steps {
			if !d.gate.Healthy() {
				d.metrics.GateRejected(detached)
				d.log.WithField("op", s.name).Debug("write not admitted, store unhealthy")
				continue
			}
			if err := d.gate.Do(detached, s.run); err != nil {
				d.metrics.WriteFailed(detached, s.name)
				d.log.WithError(err).WithField("op", s.name).Warn("write-behind operation failed")
			}
		}
	}()
}

// Drain waits for every in-flight chain to finish.
func (d *dispatcher) Drain() {
	d.wg.Wait()
}
