package storage

import (
	"context"
	"fmt"
	"huddle/contract"
	"huddle/domain"
	"huddle/errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	purgeBatchSize   = 1000
	maxAppendBackoff = 20 * time.Millisecond
)

var _ contract.IMessageStore = (*MessageRepository)(nil)

type MessageRepository struct {
	db      *badger.DB
	log     *slog.Logger
	timeout time.Duration

	// seqMu serializes appends of this process on seq:msg.
	seqMu sync.Mutex
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, timeout time.Duration) *MessageRepository {
	return &MessageRepository{db: db, log: log, timeout: timeout}
}

// Append stores message under the next id of the global sequence.
// Room liveness, the sequence bump and the write share one transaction, so
// transactions commit in id order: a reader never sees id n+1 without id n.
// Appends are serialized on the sequence; the remaining Badger conflicts
// (a join or leave touching the room) are retried until the deadline.
func (m *MessageRepository) Append(ctx context.Context, message domain.Message) (domain.Message, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	return bounded(ctx, 0, func() (domain.Message, error) {
		for attempt := 1; ; attempt++ {
			stored, err := m.append(ctx, message)
			if !errors.Is(err, badger.ErrConflict) {
				return stored, mapError(err)
			}
			m.log.Debug("Append conflict, retrying", "code", message.RoomCode, "attempt", attempt)
			select {
			case <-ctx.Done():
				return domain.Message{}, errors.Unavailable(fmt.Errorf("append to %s: %w", message.RoomCode, err))
			case <-time.After(appendBackoff(attempt)):
			}
		}
	})
}

func appendBackoff(attempt int) time.Duration {
	ceiling := min(time.Duration(attempt)*time.Millisecond, maxAppendBackoff)
	return ceiling/2 + rand.N(ceiling/2+1)
}

func (m *MessageRepository) append(ctx context.Context, message domain.Message) (domain.Message, error) {
	m.seqMu.Lock()
	defer m.seqMu.Unlock()
	if err := ctx.Err(); err != nil {
		return domain.Message{}, errors.Unavailable(err)
	}
	err := m.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(roomKey(message.RoomCode)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", errors.ErrRoomNotFound, message.RoomCode)
			}
			return err
		}

		var last uint64
		item, err := txn.Get([]byte(seqKey))
		switch {
		case err == nil:
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			last = decodeUint64(val)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		message.ID = domain.MessageID(last + 1)
		if err := txn.Set([]byte(seqKey), encodeUint64(uint64(message.ID))); err != nil {
			return err
		}
		return txn.Set(messageKey(message.RoomCode, message.ID), encodeMessage(message))
	})
	return message, err
}

// ReadAfter returns messages of code with id > afterID in ascending id order.
// A limit <= 0 means no limit. With requireLive, a missing room is ErrRoomNotFound,
// checked in the same read snapshot as the scan.
func (m *MessageRepository) ReadAfter(ctx context.Context, code domain.RoomCode, afterID domain.MessageID, limit int, requireLive bool) ([]domain.Message, error) {
	return bounded(ctx, m.timeout, func() ([]domain.Message, error) {
		var messages []domain.Message
		err := m.db.View(func(txn *badger.Txn) error {
			if requireLive {
				if _, err := getRoom(txn, code); err != nil {
					return err
				}
			}
			if afterID == math.MaxUint64 {
				return nil
			}
			prefix := roomMessagesPrefix(code)
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()

			for it.Seek(messageKey(code, afterID+1)); it.ValidForPrefix(prefix); it.Next() {
				if limit > 0 && len(messages) == limit {
					m.log.Debug(fmt.Sprintf("Maximum of %d message reached", limit))
					break
				}
				err := it.Item().Value(func(val []byte) error {
					message, err := decodeMessage(val)
					if err != nil {
						return err
					}
					messages = append(messages, message)
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, mapError(err)
		}
		return messages, nil
	})
}

// Existing keeps the ids of ids that are still stored under code.
func (m *MessageRepository) Existing(ctx context.Context, code domain.RoomCode, ids []domain.MessageID) ([]domain.MessageID, error) {
	return bounded(ctx, m.timeout, func() ([]domain.MessageID, error) {
		var kept []domain.MessageID
		err := m.db.View(func(txn *badger.Txn) error {
			for _, id := range ids {
				_, err := txn.Get(messageKey(code, id))
				switch {
				case err == nil:
					kept = append(kept, id)
				case !errors.Is(err, badger.ErrKeyNotFound):
					return err
				}
			}
			return nil
		})
		return kept, mapError(err)
	})
}

// Purge deletes the retained history of a deleted room, then its tombstone,
// which makes the code available again. It refuses live rooms.
func (m *MessageRepository) Purge(ctx context.Context, code domain.RoomCode) (int, error) {
	return bounded(ctx, m.timeout, func() (int, error) {
		total := 0
		for {
			deleted, done, err := m.purgeBatch(code)
			total += deleted
			if err != nil {
				return total, mapError(err)
			}
			if done {
				return total, nil
			}
		}
	})
}

func (m *MessageRepository) purgeBatch(code domain.RoomCode) (int, bool, error) {
	deleted := 0
	done := false
	err := m.db.Update(func(txn *badger.Txn) error {
		deleted = 0
		if _, err := txn.Get(roomKey(code)); err == nil {
			return fmt.Errorf("%w: %s", errors.ErrRoomStillLive, code)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		prefix := roomMessagesPrefix(code)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(keys) < purgeBatchSize; it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		deleted = len(keys)
		if len(keys) < purgeBatchSize {
			done = true
			return txn.Delete(goneKey(code))
		}
		return nil
	})
	return deleted, done, err
}

// Tombstones lists rooms deleted strictly before deletedBefore whose history is still retained.
func (m *MessageRepository) Tombstones(ctx context.Context, deletedBefore time.Time) ([]domain.RoomCode, error) {
	return bounded(ctx, m.timeout, func() ([]domain.RoomCode, error) {
		var codes []domain.RoomCode
		err := m.db.View(func(txn *badger.Txn) error {
			prefix := []byte(gonePrefix)
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				item := it.Item()
				val, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				if decodeTime(val).Before(deletedBefore) {
					codes = append(codes, codeFromKey(item.Key(), gonePrefix))
				}
			}
			return nil
		})
		return codes, mapError(err)
	})
}
