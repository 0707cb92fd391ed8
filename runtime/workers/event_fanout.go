package workers

import (
	"context"
	"huddle/contract"
	"huddle/domain/event"
	"huddle/observability"
	"log/slog"
	"time"
)

// EventFanout delivers published domain events to in-process sinks.
//
// Delivery is best effort: no retries, no durability. Each sink gets its own
// timeout so a slow sink delays the pipeline by at most sinkTimeout.
// Sink failures are logged and counted, never reported to the publisher.
type EventFanout struct {
	log         *slog.Logger
	events      <-chan event.DomainEvent
	sinks       []contract.EventSink
	sinkTimeout time.Duration
	monitoring  *observability.MonitoringManager
}

func NewEventFanout(log *slog.Logger, events <-chan event.DomainEvent, sinkTimeout time.Duration,
	monitoring *observability.MonitoringManager) *EventFanout {
	return &EventFanout{log: log, events: events, sinkTimeout: sinkTimeout, monitoring: monitoring}
}

func (w *EventFanout) Add(sinks ...contract.EventSink) *EventFanout {
	w.sinks = append(w.sinks, sinks...)
	return w
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		}
	}
}

// Fanout hands evt to every sink in registration order.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.sinks {
		w.consume(ctx, sink, evt)
	}
}

func (w *EventFanout) consume(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	if w.sinkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.sinkTimeout)
		defer cancel()
	}
	if err := sink.Consume(ctx, evt); err != nil {
		w.monitoring.IncrSinkErrors()
		w.log.Error("Sink failed to consume event", "code", evt.RoomCode(), "error", err)
	}
}
