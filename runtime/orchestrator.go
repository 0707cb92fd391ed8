// Package runtime coordinates rooms and their logs on top of the store and
// runs the event pipeline. It holds no membership state of its own.
package runtime

import (
	"context"
	"huddle/contract"
	"huddle/domain/event"
	"huddle/observability"
	"huddle/runtime/workers"
	"log/slog"
	"sync"
	"time"
)

var _ contract.EventPublisher = (*Orchestrator)(nil)

// Orchestrator owns the event channel, the sinks consuming it and the
// supervised background workers.
type Orchestrator struct {
	mu          sync.Mutex
	log         *slog.Logger
	supervisor  contract.ISupervisor
	monitoring  *observability.MonitoringManager
	events      chan event.DomainEvent
	sinks       []contract.EventSink
	workers     []contract.Worker
	sinkTimeout time.Duration
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	monitoring *observability.MonitoringManager, bufferSize int, sinkTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		log:         log,
		supervisor:  supervisor,
		monitoring:  monitoring,
		events:      make(chan event.DomainEvent, bufferSize),
		sinkTimeout: sinkTimeout,
	}
}

// Publish never blocks: when the buffer is full the event is dropped.
func (o *Orchestrator) Publish(e event.DomainEvent) {
	select {
	case o.events <- e:
	default:
		o.monitoring.IncrEventsDropped()
		o.log.Debug("Event channel full, dropping event", "code", e.RoomCode())
	}
}

// Queue reports the event channel length and capacity.
func (o *Orchestrator) Queue() (int, int) {
	return len(o.events), cap(o.events)
}

func (o *Orchestrator) Add(sinks ...contract.EventSink) *Orchestrator {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sinks = append(o.sinks, sinks...)
	return o
}

func (o *Orchestrator) AddWorkers(w ...contract.Worker) *Orchestrator {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.workers = append(o.workers, w...)
	return o
}

// Start registers the fan-out and every added worker, then blocks until ctx
// is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	fanout := workers.NewEventFanout(o.log, o.events, o.sinkTimeout, o.monitoring).
		Add(o.sinks...)
	o.supervisor.Add(fanout)
	o.supervisor.Add(o.workers...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers", "sinks", len(o.sinks), "workers", len(o.workers)+1)
	o.supervisor.Run(ctx)
}

func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
