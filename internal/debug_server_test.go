package internal

import (
	"context"
	"huddle/domain"
	"huddle/infrastructure/storage"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestInspectHandler_Renders_Rooms(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	// Given a stored room
	rooms := storage.NewRoomRepository(db, slog.Default(), time.Second, time.Hour)
	req.NoError(rooms.Insert(context.Background(), domain.NewRoom("f3a9c1", "alice", time.Now()), ""))

	handler := NewInspectHandler(db, nil, func() map[string]any {
		return map[string]any{"rooms_created": 1}
	})

	// When the default page is requested
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inspect", nil))

	// Then the room row and the stats are rendered
	req.Equal(http.StatusOK, rec.Code)
	req.Contains(rec.Body.String(), "room:f3a9c1")
	req.Contains(rec.Body.String(), "rooms_created")

	// And an empty prefix page says so
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inspect?prefix=gone:", nil))
	req.Contains(rec.Body.String(), "no entries")
}

func TestDefaultMapper(t *testing.T) {
	req := require.New(t)
	row := DefaultMapper("gone:abc123", make([]byte, 8))
	req.Equal("tombstone", row.Type)
	req.Equal("abc123", row.Room)
}
