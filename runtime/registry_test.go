package runtime

import (
	"context"
	"fmt"
	"huddle/domain"
	"huddle/domain/event"
	"huddle/errors"
	"huddle/mocks"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRoomRegistry_CreateRoom(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// When alice creates a room
	code, err := f.registry.CreateRoom(ctx, "alice")
	req.NoError(err)

	// Then she is its only participant
	req.Len(code, RoomCodeLength)
	snapshot, err := f.registry.Snapshot(ctx, code)
	req.NoError(err)
	req.Equal([]domain.ParticipantID{"alice"}, snapshot.Participants)
	req.IsType(event.RoomCreated{}, f.publisher.Events()[0])
}

func TestRoomRegistry_CreateRoom_Empty_Creator(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, err := f.registry.CreateRoom(context.Background(), "")
	req.ErrorIs(err, errors.ErrInvalidCommand)

	// Any non empty identifier is accepted, whitespace included
	code, err := f.registry.CreateRoom(context.Background(), " ")
	req.NoError(err)
	snapshot, err := f.registry.Snapshot(context.Background(), code)
	req.NoError(err)
	req.Equal([]domain.ParticipantID{" "}, snapshot.Participants)
}

func TestRoomRegistry_CreateRoom_Retries_On_Collision(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.registry.WithCodeGenerator(fixedCodes("aaa111", "aaa111", "bbb222"))

	first, err := f.registry.CreateRoom(ctx, "alice")
	req.NoError(err)
	second, err := f.registry.CreateRoom(ctx, "bob")
	req.NoError(err)

	req.Equal(domain.RoomCode("aaa111"), first)
	req.Equal(domain.RoomCode("bbb222"), second)
}

func TestRoomRegistry_CreateRoom_Code_Space_Exhausted(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.registry.WithCodeGenerator(fixedCodes("aaa111"))

	_, err := f.registry.CreateRoom(ctx, "alice")
	req.NoError(err)

	_, err = f.registry.CreateRoom(ctx, "bob")
	req.ErrorIs(err, errors.ErrCodeSpaceExhausted)
}

func TestRoomRegistry_CreateRoomOnce(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// Given a create request that is replayed
	first, err := f.registry.CreateRoomOnce(ctx, "alice", "req-1")
	req.NoError(err)
	second, err := f.registry.CreateRoomOnce(ctx, "alice", "req-1")
	req.NoError(err)

	// Then only one room exists
	req.Equal(first, second)
	rooms, err := f.registry.Rooms(ctx)
	req.NoError(err)
	req.Len(rooms, 1)

	// When that room is gone, the same key creates a new one
	req.NoError(f.registry.LeaveRoom(ctx, first, "alice"))
	third, err := f.registry.CreateRoomOnce(ctx, "alice", "req-1")
	req.NoError(err)
	req.NotEqual(first, third)
}

func TestRoomRegistry_JoinRoom_Idempotent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	code, err := f.registry.CreateRoom(ctx, "alice")
	req.NoError(err)

	// When bob joins twice
	first, err := f.registry.JoinRoom(ctx, code, "bob")
	req.NoError(err)
	second, err := f.registry.JoinRoom(ctx, code, "bob")
	req.NoError(err)

	// Then he is listed once, after alice
	req.Equal([]domain.ParticipantID{"alice", "bob"}, first.Participants)
	req.Equal(first, second)
}

func TestRoomRegistry_JoinRoom_Unknown(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, err := f.registry.JoinRoom(context.Background(), "nope00", "bob")
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestRoomRegistry_LeaveRoom_Idempotent_And_Deletes_Empty_Room(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	code, err := f.registry.CreateRoom(ctx, "alice")
	req.NoError(err)
	_, err = f.registry.JoinRoom(ctx, code, "bob")
	req.NoError(err)

	// Leaving twice, or without being a member, changes nothing more
	req.NoError(f.registry.LeaveRoom(ctx, code, "bob"))
	req.NoError(f.registry.LeaveRoom(ctx, code, "bob"))
	req.NoError(f.registry.LeaveRoom(ctx, code, "carol"))
	snapshot, err := f.registry.Snapshot(ctx, code)
	req.NoError(err)
	req.Equal([]domain.ParticipantID{"alice"}, snapshot.Participants)

	// When the last participant leaves the room no longer exists
	req.NoError(f.registry.LeaveRoom(ctx, code, "alice"))
	_, err = f.registry.Snapshot(ctx, code)
	req.ErrorIs(err, errors.ErrRoomNotFound)
	err = f.registry.LeaveRoom(ctx, code, "alice")
	req.ErrorIs(err, errors.ErrRoomNotFound)

	events := f.publisher.Events()
	req.IsType(event.RoomDeleted{}, events[len(events)-1])
}

func TestRoomRegistry_Concurrent_Joins_Lose_No_Update(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	code, err := f.registry.CreateRoom(ctx, "host")
	req.NoError(err)

	// Given N participants joining at once
	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.registry.JoinRoom(ctx, code, domain.ParticipantID(fmt.Sprintf("p%02d", i)))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	// Then every one of them is in the room
	snapshot, err := f.registry.Snapshot(ctx, code)
	req.NoError(err)
	req.Equal(n+1, snapshot.Len())
	for i := range n {
		req.Contains(snapshot.Participants, domain.ParticipantID(fmt.Sprintf("p%02d", i)))
	}
}

func TestRoomRegistry_Retries_CAS_Conflict(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIRoomStore(ctrl)
	registry := NewRoomRegistry(slog.Default(), store, nil, nil, 0, 3)
	ctx := context.Background()

	alice := domain.NewRoom("abc123", "alice", testTime)
	withCarol, _ := alice.WithParticipant("carol")

	// Given carol joined between the first read and the swap
	gomock.InOrder(
		store.EXPECT().Get(gomock.Any(), domain.RoomCode("abc123")).Return(alice, nil),
		store.EXPECT().CompareAndSwap(gomock.Any(), domain.RoomCode("abc123"),
			[]domain.ParticipantID{"alice"}, []domain.ParticipantID{"alice", "bob"}).Return(errors.ErrCASConflict),
		store.EXPECT().Get(gomock.Any(), domain.RoomCode("abc123")).Return(withCarol, nil),
		store.EXPECT().CompareAndSwap(gomock.Any(), domain.RoomCode("abc123"),
			[]domain.ParticipantID{"alice", "carol"}, []domain.ParticipantID{"alice", "carol", "bob"}).Return(nil),
	)

	// Then bob's join is applied on top of carol's
	snapshot, err := registry.JoinRoom(ctx, "abc123", "bob")
	req.NoError(err)
	req.Equal([]domain.ParticipantID{"alice", "carol", "bob"}, snapshot.Participants)
}

func TestRoomRegistry_Gives_Up_After_Max_CAS_Attempts(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIRoomStore(ctrl)
	registry := NewRoomRegistry(slog.Default(), store, nil, nil, 0, 3)

	store.EXPECT().Get(gomock.Any(), gomock.Any()).Return(domain.NewRoom("abc123", "alice", testTime), nil).Times(3)
	store.EXPECT().CompareAndSwap(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.ErrCASConflict).Times(3)

	_, err := registry.JoinRoom(context.Background(), "abc123", "bob")
	req.ErrorIs(err, errors.ErrStorageUnavailable)
}

func TestRoomRegistry_Storage_Unavailable(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIRoomStore(ctrl)
	registry := NewRoomRegistry(slog.Default(), store, nil, nil, 0, 0)

	store.EXPECT().Get(gomock.Any(), gomock.Any()).Return(domain.Room{}, errors.Unavailable(context.DeadlineExceeded))

	_, err := registry.Snapshot(context.Background(), "abc123")
	req.ErrorIs(err, errors.ErrStorageUnavailable)
}
