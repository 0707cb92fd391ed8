package runtime

import (
	"context"
	"huddle/domain/event"
	"huddle/infrastructure/storage"
	"huddle/mocks"
	"huddle/observability"
	"huddle/runtime/workers"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_Scenario(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := require.New(t)
	// Reduced to 16 Mo for testing
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)

	// 1. Wire the event pipeline on a real store
	done := make(chan struct{})
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	monitoring := observability.NewMonitoringManager(log)
	supervisor := workers.NewSupervisor(log, 200*time.Millisecond)
	orchestrator := NewOrchestrator(log, supervisor, monitoring, 100, time.Second)

	ctrl := gomock.NewController(t)
	mockSink := mocks.NewMockEventSink(ctrl)
	mockSink.EXPECT().
		Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
			if _, ok := e.(event.MessageAppended); ok {
				close(done) // Signaling the message went through the fan-out
			}
			return nil
		}).
		Times(3)
	orchestrator.Add(mockSink)

	rooms := storage.NewRoomRepository(db, log, time.Second, time.Hour)
	messages := storage.NewMessageRepository(db, log, time.Second)
	registry := NewRoomRegistry(log, rooms, orchestrator, monitoring, 0, 0)
	messageLog := NewMessageLog(log, messages, nil, orchestrator, 100)

	go orchestrator.Start(ctx)

	// Clean everything at the end of the test
	t.Cleanup(func() {
		orchestrator.Stop()
		_ = db.Close()
	})

	// When a room is created, joined and written to
	code, err := registry.CreateRoom(ctx, "alice@example.com")
	req.NoError(err)
	_, err = registry.JoinRoom(ctx, code, "bob@example.com")
	req.NoError(err)
	_, err = messageLog.Append(ctx, code, "alice@example.com", "this message will self destruct in 5 seconds")
	req.NoError(err)

	// Then the events reach the sink in commit order
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("Timeout: message event never reached the sink")
	}
	size, capacity := orchestrator.Queue()
	req.Zero(size)
	req.Equal(100, capacity)
}
