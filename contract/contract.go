//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"huddle/domain"
	"huddle/domain/event"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// EventPublisher must never block the caller.
type EventPublisher interface {
	Publish(e event.DomainEvent)
}

// IRoomStore is the room half of the persistent store.
// Every method is a single atomic unit against the store.
type IRoomStore interface {
	// Insert fails with ErrRoomExists when the code is live or still has retained history.
	Insert(ctx context.Context, room domain.Room, requestKey string) error
	Get(ctx context.Context, code domain.RoomCode) (domain.Room, error)
	// CompareAndSwap replaces the participants only if they still equal expected.
	// An empty next deletes the room in the same transaction.
	CompareAndSwap(ctx context.Context, code domain.RoomCode, expected, next []domain.ParticipantID) error
	Delete(ctx context.Context, code domain.RoomCode) error
	List(ctx context.Context) ([]domain.Room, error)
	FindByRequestKey(ctx context.Context, creator domain.ParticipantID, requestKey string) (domain.RoomCode, error)
}

// IMessageStore is the message half of the persistent store.
type IMessageStore interface {
	// Append assigns the next id, failing with ErrRoomNotFound when the room is not live.
	Append(ctx context.Context, message domain.Message) (domain.Message, error)
	ReadAfter(ctx context.Context, code domain.RoomCode, afterID domain.MessageID, limit int, requireLive bool) ([]domain.Message, error)
	// Existing keeps the ids that are still stored under code.
	Existing(ctx context.Context, code domain.RoomCode, ids []domain.MessageID) ([]domain.MessageID, error)
	Purge(ctx context.Context, code domain.RoomCode) (int, error)
	Tombstones(ctx context.Context, deletedBefore time.Time) ([]domain.RoomCode, error)
}

type ISearchIndex interface {
	Index(ctx context.Context, message domain.Message, lang string) error
	Search(ctx context.Context, code domain.RoomCode, terms string, limit int) ([]domain.SearchHit, error)
	DeleteRoom(ctx context.Context, code domain.RoomCode) (int, error)
}

type IRoomRegistry interface {
	CreateRoom(ctx context.Context, creator domain.ParticipantID) (domain.RoomCode, error)
	CreateRoomOnce(ctx context.Context, creator domain.ParticipantID, requestKey string) (domain.RoomCode, error)
	JoinRoom(ctx context.Context, code domain.RoomCode, participant domain.ParticipantID) (domain.ParticipantSnapshot, error)
	LeaveRoom(ctx context.Context, code domain.RoomCode, participant domain.ParticipantID) error
	Snapshot(ctx context.Context, code domain.RoomCode) (domain.ParticipantSnapshot, error)
	Rooms(ctx context.Context) ([]domain.ParticipantSnapshot, error)
}

type IMessageLog interface {
	Append(ctx context.Context, code domain.RoomCode, sender domain.ParticipantID, body string) (domain.MessageID, error)
	Read(ctx context.Context, code domain.RoomCode, afterID domain.MessageID) ([]domain.Message, error)
	History(ctx context.Context, code domain.RoomCode, afterID domain.MessageID) ([]domain.Message, error)
	Search(ctx context.Context, code domain.RoomCode, terms string, limit int) ([]domain.SearchHit, error)
	Purge(ctx context.Context, code domain.RoomCode) (int, error)
	PurgeExpired(ctx context.Context, deletedBefore time.Time) (int, error)
}

// IdleReaper forgets sessions whose last activity is before idleSince.
type IdleReaper interface {
	ReapIdle(ctx context.Context, idleSince time.Time) int
}
