package storage

import (
	"context"
	"huddle/domain"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDump_Describes_Rooms_And_Messages(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := newTestDB(t)
	rooms := NewRoomRepository(db, slog.Default(), testTimeout, time.Hour)
	messages := NewMessageRepository(db, slog.Default(), testTimeout)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	// Given a room with one message and a creation request key
	room, _ := domain.NewRoom("f3a9c1", "alice", at).WithParticipant("bob")
	req.NoError(rooms.Insert(ctx, room, "req-1"))
	_, err := messages.Append(ctx, domain.Message{RoomCode: "f3a9c1", Sender: "alice", Body: "hello", SentAt: at})
	req.NoError(err)

	// When the whole keyspace is dumped
	entries, err := Dump(ctx, db, "", testTimeout)
	req.NoError(err)

	// Then each key kind is decoded
	byKind := map[string]Entry{}
	for _, e := range entries {
		byKind[e.Kind] = e
	}
	req.Equal("alice, bob", byKind["room"].Detail)
	req.Equal(domain.RoomCode("f3a9c1"), byKind["room"].Room)
	req.Equal("alice: hello", byKind["message"].Detail)
	req.Equal("1", byKind["message"].ID)
	req.Equal(domain.RoomCode("f3a9c1"), byKind["request"].Room)
	req.Equal("last id 1", byKind["sequence"].Detail)
}

func TestDescribe_Reports_Undecodable_Value(t *testing.T) {
	req := require.New(t)

	entry := Describe("room:abc123", []byte("{not json"))
	req.Equal("room", entry.Kind)
	req.Contains(entry.Detail, "decode room abc123")

	entry = Describe("unknown", []byte{1, 2, 3})
	req.Equal("raw", entry.Kind)
	req.Equal("3 bytes", entry.Detail)
}
