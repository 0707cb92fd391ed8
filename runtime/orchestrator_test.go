package runtime

import (
	"context"
	"huddle/domain/event"
	"huddle/observability"
	"huddle/runtime/workers"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type channelSink chan event.DomainEvent

func (s channelSink) Consume(_ context.Context, e event.DomainEvent) error {
	s <- e
	return nil
}

func TestOrchestrator_Publish_Reaches_Sinks(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	sink := make(channelSink, 1)
	orchestrator := NewOrchestrator(log, workers.NewSupervisor(log, 0), nil, 4, time.Second).Add(sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		orchestrator.Start(ctx)
		close(done)
	}()

	// When an event is published
	orchestrator.Publish(event.RoomDeleted{Code: "abc123"})

	// Then the sink receives it
	select {
	case e := <-sink:
		req.Equal(event.RoomDeleted{Code: "abc123"}, e)
	case <-time.After(time.Second):
		req.Fail("event not delivered")
	}

	cancel()
	<-done
}

func TestOrchestrator_Publish_Drops_When_Full(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	monitoring := observability.NewMonitoringManager(log)
	orchestrator := NewOrchestrator(log, workers.NewSupervisor(log, 0), monitoring, 1, time.Second)

	// Given nobody drains the channel
	orchestrator.Publish(event.RoomDeleted{Code: "aaa111"})
	orchestrator.Publish(event.RoomDeleted{Code: "bbb222"})

	// Then the second event is dropped without blocking
	size, capacity := orchestrator.Queue()
	req.Equal(1, size)
	req.Equal(1, capacity)
	req.Equal(uint64(1), monitoring.Refresh().EventsDropped)
}
