package storage

import (
	"context"
	"fmt"
	"huddle/domain"
	"huddle/errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func givenRoom(t *testing.T, rooms *RoomRepository, code domain.RoomCode, creator domain.ParticipantID) {
	t.Helper()
	require.NoError(t, rooms.Insert(context.Background(), domain.NewRoom(code, creator, time.Now().UTC()), ""))
}

func TestMessageRepository_Append_Assigns_Increasing_IDs(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	rooms, messages := newTestRepositories(t)
	givenRoom(t, rooms, "abc123", "alice")
	at := time.Now().UTC()

	// Given two messages with the same timestamp
	first, err := messages.Append(ctx, domain.Message{RoomCode: "abc123", Sender: "alice", Body: "hi", SentAt: at})
	req.NoError(err)
	second, err := messages.Append(ctx, domain.Message{RoomCode: "abc123", Sender: "alice", Body: "again", SentAt: at})
	req.NoError(err)

	// Then ids break the tie
	req.Greater(second.ID, first.ID)

	read, err := messages.ReadAfter(ctx, "abc123", 0, 0, true)
	req.NoError(err)
	req.Len(read, 2)
	req.Equal("hi", read[0].Body)
	req.Equal("again", read[1].Body)
	req.True(at.Equal(read[0].SentAt))
}

func TestMessageRepository_Append_Unknown_Room(t *testing.T) {
	req := require.New(t)
	_, messages := newTestRepositories(t)

	_, err := messages.Append(context.Background(), domain.Message{RoomCode: "nope00", Sender: "alice", Body: "hi"})
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestMessageRepository_ReadAfter_Cursor_And_Limit(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	rooms, messages := newTestRepositories(t)
	givenRoom(t, rooms, "abc123", "alice")

	var ids []domain.MessageID
	for i := range 5 {
		m, err := messages.Append(ctx, domain.Message{RoomCode: "abc123", Sender: "alice", Body: fmt.Sprintf("m%d", i), SentAt: time.Now()})
		req.NoError(err)
		ids = append(ids, m.ID)
	}

	// When reading after the second id with a limit of 2
	read, err := messages.ReadAfter(ctx, "abc123", ids[1], 2, true)
	req.NoError(err)

	// Then the next two are returned
	req.Len(read, 2)
	req.Equal(ids[2], read[0].ID)
	req.Equal(ids[3], read[1].ID)

	// And reading after the last id is empty
	read, err = messages.ReadAfter(ctx, "abc123", ids[4], 0, true)
	req.NoError(err)
	req.Empty(read)
}

func TestMessageRepository_Rooms_Are_Isolated(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	rooms, messages := newTestRepositories(t)
	givenRoom(t, rooms, "abc123", "alice")
	givenRoom(t, rooms, "abc1234", "bob")

	_, err := messages.Append(ctx, domain.Message{RoomCode: "abc123", Sender: "alice", Body: "one"})
	req.NoError(err)
	_, err = messages.Append(ctx, domain.Message{RoomCode: "abc1234", Sender: "bob", Body: "two"})
	req.NoError(err)

	read, err := messages.ReadAfter(ctx, "abc123", 0, 0, true)
	req.NoError(err)
	req.Len(read, 1)
	req.Equal("one", read[0].Body)
}

func TestMessageRepository_ReadAfter_Requires_Live_Room(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	rooms, messages := newTestRepositories(t)
	givenRoom(t, rooms, "abc123", "alice")
	_, err := messages.Append(ctx, domain.Message{RoomCode: "abc123", Sender: "alice", Body: "bye"})
	req.NoError(err)

	// Given the room is deleted
	req.NoError(rooms.Delete(ctx, "abc123"))

	// Then a live read fails but the retained history stays readable
	_, err = messages.ReadAfter(ctx, "abc123", 0, 0, true)
	req.ErrorIs(err, errors.ErrRoomNotFound)

	history, err := messages.ReadAfter(ctx, "abc123", 0, 0, false)
	req.NoError(err)
	req.Len(history, 1)
}

func TestMessageRepository_Concurrent_Appends(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	rooms, messages := newTestRepositories(t)
	givenRoom(t, rooms, "abc123", "alice")

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := messages.Append(ctx, domain.Message{RoomCode: "abc123", Sender: "alice", Body: fmt.Sprintf("m%d", i)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	read, err := messages.ReadAfter(ctx, "abc123", 0, 0, true)
	req.NoError(err)
	req.Len(read, n)
	for i := 1; i < len(read); i++ {
		req.Greater(read[i].ID, read[i-1].ID)
	}
}

func TestMessageRepository_Concurrent_Appends_Across_Rooms(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	rooms, messages := newTestRepositories(t)

	// Given 20 rooms with 10 concurrent senders each, all on the same sequence
	const nRooms, perRoom = 20, 10
	codes := make([]domain.RoomCode, nRooms)
	for i := range codes {
		codes[i] = domain.RoomCode(fmt.Sprintf("room%02d", i))
		givenRoom(t, rooms, codes[i], "alice")
	}

	var wg sync.WaitGroup
	errs := make(chan error, nRooms*perRoom)
	for _, code := range codes {
		for i := range perRoom {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := messages.Append(ctx, domain.Message{RoomCode: code, Sender: "alice", Body: fmt.Sprintf("m%d", i)})
				errs <- err
			}()
		}
	}
	wg.Wait()
	close(errs)

	// Then every append succeeds
	for err := range errs {
		req.NoError(err)
	}

	// And ids are unique and ordered inside each room
	seen := make(map[domain.MessageID]bool)
	for _, code := range codes {
		read, err := messages.ReadAfter(ctx, code, 0, 0, true)
		req.NoError(err)
		req.Len(read, perRoom)
		for i, message := range read {
			req.False(seen[message.ID], "id %d assigned twice", message.ID)
			seen[message.ID] = true
			if i > 0 {
				req.Greater(message.ID, read[i-1].ID)
			}
		}
	}
	req.Len(seen, nRooms*perRoom)
}

func TestMessageRepository_ReadAfter_Last_Possible_ID(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	rooms, messages := newTestRepositories(t)
	givenRoom(t, rooms, "abc123", "alice")
	_, err := messages.Append(ctx, domain.Message{RoomCode: "abc123", Sender: "alice", Body: "hi"})
	req.NoError(err)

	// When the cursor is already at the largest id
	read, err := messages.ReadAfter(ctx, "abc123", math.MaxUint64, 0, true)

	// Then nothing is after it
	req.NoError(err)
	req.Empty(read)

	// And liveness is still checked
	req.NoError(rooms.Delete(ctx, "abc123"))
	_, err = messages.ReadAfter(ctx, "abc123", math.MaxUint64, 0, true)
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestMessageRepository_Existing(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	rooms, messages := newTestRepositories(t)
	givenRoom(t, rooms, "abc123", "alice")
	stored, err := messages.Append(ctx, domain.Message{RoomCode: "abc123", Sender: "alice", Body: "hi"})
	req.NoError(err)

	kept, err := messages.Existing(ctx, "abc123", []domain.MessageID{stored.ID, stored.ID + 1})
	req.NoError(err)
	req.Equal([]domain.MessageID{stored.ID}, kept)

	kept, err = messages.Existing(ctx, "zzz999", []domain.MessageID{stored.ID})
	req.NoError(err)
	req.Empty(kept)
}

func TestMessageRepository_Purge(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	rooms, messages := newTestRepositories(t)
	givenRoom(t, rooms, "abc123", "alice")
	for range 3 {
		_, err := messages.Append(ctx, domain.Message{RoomCode: "abc123", Sender: "alice", Body: "x"})
		req.NoError(err)
	}

	// A live room cannot be purged
	_, err := messages.Purge(ctx, "abc123")
	req.ErrorIs(err, errors.ErrRoomStillLive)

	// When the room is deleted then purged
	req.NoError(rooms.Delete(ctx, "abc123"))
	count, err := messages.Purge(ctx, "abc123")
	req.NoError(err)
	req.Equal(3, count)

	// Then nothing is retained and the code is free again
	history, err := messages.ReadAfter(ctx, "abc123", 0, 0, false)
	req.NoError(err)
	req.Empty(history)
	codes, err := messages.Tombstones(ctx, time.Now().Add(time.Minute))
	req.NoError(err)
	req.Empty(codes)
	req.NoError(rooms.Insert(ctx, domain.NewRoom("abc123", "bob", time.Now()), ""))
}

func TestMessageRepository_Tombstones_Before(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	rooms, messages := newTestRepositories(t)
	givenRoom(t, rooms, "abc123", "alice")
	req.NoError(rooms.Delete(ctx, "abc123"))

	codes, err := messages.Tombstones(ctx, time.Now().Add(-time.Hour))
	req.NoError(err)
	req.Empty(codes)

	codes, err = messages.Tombstones(ctx, time.Now().Add(time.Hour))
	req.NoError(err)
	req.Equal([]domain.RoomCode{"abc123"}, codes)
}

func TestDecodeMessage_Skips_Unknown_Fields(t *testing.T) {
	req := require.New(t)
	at := time.Unix(1700000000, 42).UTC()
	original := domain.Message{ID: 7, RoomCode: "abc123", Sender: "alice", Body: "héllo", SentAt: at}

	// Given a record carrying a field from a newer writer
	data := append(encodeMessage(original), 0x30, 0x01) // field 6, varint 1

	decoded, err := decodeMessage(data)
	req.NoError(err)
	req.Equal(original, decoded)

	_, err = decodeMessage([]byte{0x0a})
	req.Error(err)
}
