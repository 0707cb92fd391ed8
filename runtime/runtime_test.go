package runtime

import (
	"context"
	"huddle/domain"
	"huddle/domain/event"
	"huddle/infrastructure/storage"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (p *recordingPublisher) Publish(e event.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Events() []event.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.DomainEvent(nil), p.events...)
}

func fixedCodes(codes ...string) CodeGenerator {
	var mu sync.Mutex
	i := 0
	return func() domain.RoomCode {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i%len(codes)]
		i++
		return domain.RoomCode(code)
	}
}

type fixture struct {
	registry  *RoomRegistry
	log       *MessageLog
	rooms     *storage.RoomRepository
	index     *storage.SearchIndex
	publisher *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.Default()
	rooms := storage.NewRoomRepository(db, logger, 2*time.Second, time.Hour)
	messages := storage.NewMessageRepository(db, logger, 2*time.Second)
	publisher := &recordingPublisher{}
	return fixture{
		registry:  NewRoomRegistry(logger, rooms, publisher, nil, 0, 0),
		log:       NewMessageLog(logger, messages, nil, publisher, 0),
		rooms:     rooms,
		publisher: publisher,
	}
}

// newIndexedFixture is newFixture with an in-memory search index behind the log.
func newIndexedFixture(t *testing.T) fixture {
	t.Helper()
	f := newFixture(t)
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	f.index = storage.NewSearchIndex(writer, slog.Default(), 2*time.Second)
	f.log.index = f.index
	return f
}

// appendIndexed appends body and indexes it the way the search sink does.
func appendIndexed(t *testing.T, f fixture, code domain.RoomCode, sender domain.ParticipantID, body string) domain.Message {
	t.Helper()
	ctx := context.Background()
	id, err := f.log.Append(ctx, code, sender, body)
	require.NoError(t, err)
	messages, err := f.log.History(ctx, code, id-1)
	require.NoError(t, err)
	require.NotEmpty(t, messages)
	require.NoError(t, f.index.Index(ctx, messages[0], "en"))
	return messages[0]
}
