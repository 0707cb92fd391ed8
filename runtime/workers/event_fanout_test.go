package workers

import (
	"context"
	"errors"
	"huddle/domain"
	"huddle/domain/event"
	"huddle/mocks"
	"huddle/observability"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEventFanout_Fanout(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first := mocks.NewMockEventSink(ctrl)
	second := mocks.NewMockEventSink(ctrl)
	evt := event.RoomCreated{Code: "abc123", Creator: "alice", At: time.Now()}

	// Given two sinks consuming in order
	gomock.InOrder(
		first.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1),
		second.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1),
	)

	fanout := NewEventFanout(log, nil, time.Second, nil).Add(first, second)

	// When an event is fanned out
	fanout.Fanout(context.Background(), evt)
}

func TestEventFanout_SinkTimeout_And_Error(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	monitoring := observability.NewMonitoringManager(log)

	slow := mocks.NewMockEventSink(ctrl)
	next := mocks.NewMockEventSink(ctrl)

	// Given a sink blocking until its deadline
	slow.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ event.DomainEvent) error {
			<-ctx.Done()
			return ctx.Err()
		}).Times(1)
	// And a sink failing right away
	next.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(errors.New("index closed")).Times(1)

	fanout := NewEventFanout(log, nil, 20*time.Millisecond, monitoring).Add(slow, next)

	// When an event is fanned out
	start := time.Now()
	fanout.Fanout(context.Background(), event.RoomDeleted{Code: "abc123", At: time.Now()})

	// Then the slow sink was cut by its timeout and both failures are counted
	req.Less(time.Since(start), time.Second)
	req.Equal(uint64(2), monitoring.Refresh().SinkErrors)
}

func TestEventFanout_Run_Drains_Channel(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := mocks.NewMockEventSink(ctrl)
	events := make(chan event.DomainEvent, 2)
	received := make(chan domain.RoomCode, 2)
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
			received <- e.RoomCode()
			return nil
		}).Times(2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- NewEventFanout(slog.Default(), events, time.Second, nil).Add(sink).Run(ctx) }()

	// Given two published events
	events <- event.RoomDeleted{Code: "aaa111"}
	events <- event.RoomDeleted{Code: "bbb222"}

	// Then they reach the sink in publish order
	req.Equal(domain.RoomCode("aaa111"), <-received)
	req.Equal(domain.RoomCode("bbb222"), <-received)

	// And the worker stops cleanly on cancel
	cancel()
	req.NoError(<-done)
}
