package storage

import (
	"context"
	"fmt"
	"huddle/domain"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

// Entry is a human readable view of one raw key, for inspection tools.
type Entry struct {
	Key    string
	Kind   string
	Room   domain.RoomCode
	ID     string
	At     time.Time
	Detail string
}

// Describe decodes one key/value pair of the layout above.
// Values that fail to decode are reported, never fatal.
func Describe(key string, val []byte) Entry {
	entry := Entry{Key: key, Kind: "raw", Detail: fmt.Sprintf("%d bytes", len(val))}
	switch {
	case strings.HasPrefix(key, roomPrefix):
		entry.Kind = "room"
		entry.Room = codeFromKey([]byte(key), roomPrefix)
		room, err := decodeRoom(entry.Room, val)
		if err != nil {
			entry.Detail = err.Error()
			return entry
		}
		entry.At = room.CreatedAt
		entry.ID = room.Creator.String()
		entry.Detail = strings.Join(lo.Map(room.Participants, func(p domain.ParticipantID, _ int) string {
			return p.String()
		}), ", ")
	case strings.HasPrefix(key, msgPrefix):
		entry.Kind = "message"
		message, err := decodeMessage(val)
		if err != nil {
			entry.Detail = err.Error()
			return entry
		}
		entry.Room = message.RoomCode
		entry.ID = fmt.Sprint(uint64(message.ID))
		entry.At = message.SentAt
		entry.Detail = fmt.Sprintf("%s: %s", message.Sender, message.Body)
	case strings.HasPrefix(key, gonePrefix):
		entry.Kind = "tombstone"
		entry.Room = codeFromKey([]byte(key), gonePrefix)
		entry.At = decodeTime(val)
		entry.Detail = "history retained"
	case strings.HasPrefix(key, idemPrefix):
		entry.Kind = "request"
		entry.Room = domain.RoomCode(val)
		entry.ID = strings.TrimPrefix(key, idemPrefix)
	case key == seqKey:
		entry.Kind = "sequence"
		entry.Detail = fmt.Sprintf("last id %d", decodeUint64(val))
	}
	return entry
}

// Dump lists every entry under prefix. An empty prefix walks the whole keyspace.
func Dump(ctx context.Context, db *badger.DB, prefix string, timeout time.Duration) ([]Entry, error) {
	return bounded(ctx, timeout, func() ([]Entry, error) {
		var entries []Entry
		err := db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				item := it.Item()
				key := string(item.KeyCopy(nil))
				if err := item.Value(func(val []byte) error {
					entries = append(entries, Describe(key, val))
					return nil
				}); err != nil {
					return err
				}
			}
			return nil
		})
		return entries, mapError(err)
	})
}
