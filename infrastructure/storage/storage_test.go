package storage

import (
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

const testTimeout = 2 * time.Second

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestWriter(t *testing.T) *bluge.Writer {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return writer
}

func newTestRepositories(t *testing.T) (*RoomRepository, *MessageRepository) {
	db := newTestDB(t)
	return NewRoomRepository(db, slog.Default(), testTimeout, time.Hour),
		NewMessageRepository(db, slog.Default(), testTimeout)
}
