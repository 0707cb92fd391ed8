package storage

import (
	"context"
	"huddle/domain"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSearchIndex_Search_In_Room(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := NewSearchIndex(newTestWriter(t), slog.Default(), testTimeout)
	at := time.Now().UTC().Truncate(time.Millisecond)

	// Given messages spread over two rooms
	req.NoError(index.Index(ctx, domain.Message{ID: 1, RoomCode: "abc123", Sender: "alice", Body: "the deploy is broken", SentAt: at}, "en"))
	req.NoError(index.Index(ctx, domain.Message{ID: 2, RoomCode: "abc123", Sender: "bob", Body: "lunch at noon", SentAt: at}, "en"))
	req.NoError(index.Index(ctx, domain.Message{ID: 3, RoomCode: "zzz999", Sender: "carol", Body: "deploy again", SentAt: at}, "en"))

	// When searching one room
	hits, err := index.Search(ctx, "abc123", "deploy", 10)

	// Then only its matching message comes back
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal(domain.MessageID(1), hits[0].ID)
	req.Equal(domain.ParticipantID("alice"), hits[0].Sender)
	req.Equal("the deploy is broken", hits[0].Body)
	req.Equal("en", hits[0].Lang)
	req.True(at.Equal(hits[0].SentAt))
	req.Positive(hits[0].Score)
}

func TestSearchIndex_Search_Case_Insensitive(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := NewSearchIndex(newTestWriter(t), slog.Default(), testTimeout)
	req.NoError(index.Index(ctx, domain.Message{ID: 1, RoomCode: "abc123", Sender: "alice", Body: "Database migration done", SentAt: time.Now()}, "en"))

	for _, terms := range []string{"database", "DATABASE", "DataBase"} {
		hits, err := index.Search(ctx, "abc123", terms, 10)
		req.NoError(err)
		req.Len(hits, 1, terms)
	}
}

func TestSearchIndex_Empty_Terms(t *testing.T) {
	req := require.New(t)
	index := NewSearchIndex(newTestWriter(t), slog.Default(), testTimeout)

	hits, err := index.Search(context.Background(), "abc123", "  ", 10)
	req.NoError(err)
	req.Empty(hits)
}

func TestSearchIndex_DeleteRoom(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := NewSearchIndex(newTestWriter(t), slog.Default(), testTimeout)
	req.NoError(index.Index(ctx, domain.Message{ID: 1, RoomCode: "abc123", Sender: "alice", Body: "hello world", SentAt: time.Now()}, "en"))
	req.NoError(index.Index(ctx, domain.Message{ID: 2, RoomCode: "abc123", Sender: "bob", Body: "hello again", SentAt: time.Now()}, "en"))
	req.NoError(index.Index(ctx, domain.Message{ID: 3, RoomCode: "zzz999", Sender: "carol", Body: "hello there", SentAt: time.Now()}, "en"))

	// When the room is dropped
	deleted, err := index.DeleteRoom(ctx, "abc123")
	req.NoError(err)
	req.Equal(2, deleted)

	// Then its documents are gone and other rooms are untouched
	hits, err := index.Search(ctx, "abc123", "hello", 10)
	req.NoError(err)
	req.Empty(hits)
	hits, err = index.Search(ctx, "zzz999", "hello", 10)
	req.NoError(err)
	req.Len(hits, 1)
}
