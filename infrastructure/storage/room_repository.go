package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"huddle/contract"
	"huddle/domain"
	"huddle/errors"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

var _ contract.IRoomStore = (*RoomRepository)(nil)

// RoomRepository stores one record per live room.
// Each method is exactly one Badger transaction, so concurrent writers on the
// same room are serialized by Badger's conflict detection.
type RoomRepository struct {
	db             *badger.DB
	log            *slog.Logger
	timeout        time.Duration
	idempotencyTTL time.Duration
	now            func() time.Time
}

func NewRoomRepository(db *badger.DB, log *slog.Logger, timeout, idempotencyTTL time.Duration) *RoomRepository {
	return &RoomRepository{
		db:             db,
		log:            log,
		timeout:        timeout,
		idempotencyTTL: idempotencyTTL,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// roomRecord is the persisted shape of a room: participants is the JSON encoded ordered list.
type roomRecord struct {
	Participants []string  `json:"participants"`
	Creator      string    `json:"creator"`
	CreatedAt    time.Time `json:"created_at"`
}

// Insert persists a brand new room. It fails with ErrRoomExists when the code
// is live or when a deleted room with that code still has retained history.
// When requestKey is set, an expiring idempotency record pointing at the code
// is written in the same transaction.
func (r *RoomRepository) Insert(ctx context.Context, room domain.Room, requestKey string) error {
	if room.IsEmpty() {
		return fmt.Errorf("%w: room %s has no participant", errors.ErrInvalidCommand, room.Code)
	}
	data, err := json.Marshal(toRoomRecord(room))
	if err != nil {
		return err
	}
	return boundedErr(ctx, r.timeout, func() error {
		err := r.db.Update(func(txn *badger.Txn) error {
			for _, key := range [][]byte{roomKey(room.Code), goneKey(room.Code)} {
				_, err := txn.Get(key)
				if err == nil {
					return errors.ErrRoomExists
				}
				if !errors.Is(err, badger.ErrKeyNotFound) {
					return err
				}
			}
			if err := txn.Set(roomKey(room.Code), data); err != nil {
				return err
			}
			if requestKey == "" {
				return nil
			}
			entry := badger.NewEntry(idemKey(room.Creator, requestKey), []byte(room.Code))
			if r.idempotencyTTL > 0 {
				entry = entry.WithTTL(r.idempotencyTTL)
			}
			return txn.SetEntry(entry)
		})
		// Two creators raced for the same code: the loser picks another one.
		if errors.Is(err, badger.ErrConflict) {
			return errors.ErrRoomExists
		}
		return mapError(err)
	})
}

func (r *RoomRepository) Get(ctx context.Context, code domain.RoomCode) (domain.Room, error) {
	return bounded(ctx, r.timeout, func() (domain.Room, error) {
		var room domain.Room
		err := r.db.View(func(txn *badger.Txn) error {
			var err error
			room, err = getRoom(txn, code)
			return err
		})
		return room, mapError(err)
	})
}

// CompareAndSwap replaces the participant list of code with next, provided the
// stored list still equals expected. An empty next deletes the room and leaves
// a tombstone, all inside the same transaction: an empty room is never visible.
func (r *RoomRepository) CompareAndSwap(ctx context.Context, code domain.RoomCode, expected, next []domain.ParticipantID) error {
	return boundedErr(ctx, r.timeout, func() error {
		err := r.db.Update(func(txn *badger.Txn) error {
			current, err := getRoom(txn, code)
			if err != nil {
				return err
			}
			if !slices.Equal(current.Participants, expected) {
				return errors.ErrCASConflict
			}
			if len(next) == 0 {
				return deleteRoom(txn, code, r.now())
			}
			current.Participants = next
			data, err := json.Marshal(toRoomRecord(current))
			if err != nil {
				return err
			}
			return txn.Set(roomKey(code), data)
		})
		if errors.Is(err, badger.ErrConflict) {
			return errors.ErrCASConflict
		}
		return mapError(err)
	})
}

// Delete removes a live room regardless of its members. Its history is retained.
func (r *RoomRepository) Delete(ctx context.Context, code domain.RoomCode) error {
	return boundedErr(ctx, r.timeout, func() error {
		err := r.db.Update(func(txn *badger.Txn) error {
			if _, err := getRoom(txn, code); err != nil {
				return err
			}
			return deleteRoom(txn, code, r.now())
		})
		if errors.Is(err, badger.ErrConflict) {
			return errors.ErrCASConflict
		}
		return mapError(err)
	})
}

// List returns every live room ordered by code.
func (r *RoomRepository) List(ctx context.Context) ([]domain.Room, error) {
	return bounded(ctx, r.timeout, func() ([]domain.Room, error) {
		var rooms []domain.Room
		err := r.db.View(func(txn *badger.Txn) error {
			prefix := []byte(roomPrefix)
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				item := it.Item()
				code := codeFromKey(item.Key(), roomPrefix)
				err := item.Value(func(val []byte) error {
					room, err := decodeRoom(code, val)
					if err != nil {
						return err
					}
					rooms = append(rooms, room)
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
		return rooms, mapError(err)
	})
}

// FindByRequestKey returns the code recorded for (creator, requestKey), or ErrRoomNotFound.
func (r *RoomRepository) FindByRequestKey(ctx context.Context, creator domain.ParticipantID, requestKey string) (domain.RoomCode, error) {
	return bounded(ctx, r.timeout, func() (domain.RoomCode, error) {
		var code domain.RoomCode
		err := r.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get(idemKey(creator, requestKey))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrRoomNotFound
			}
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			code = domain.RoomCode(val)
			return err
		})
		return code, mapError(err)
	})
}

func getRoom(txn *badger.Txn, code domain.RoomCode) (domain.Room, error) {
	item, err := txn.Get(roomKey(code))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, fmt.Errorf("%w: %s", errors.ErrRoomNotFound, code)
	}
	if err != nil {
		return domain.Room{}, err
	}
	var room domain.Room
	err = item.Value(func(val []byte) error {
		room, err = decodeRoom(code, val)
		return err
	})
	return room, err
}

func deleteRoom(txn *badger.Txn, code domain.RoomCode, at time.Time) error {
	if err := txn.Delete(roomKey(code)); err != nil {
		return err
	}
	return txn.Set(goneKey(code), encodeTime(at))
}

func decodeRoom(code domain.RoomCode, val []byte) (domain.Room, error) {
	var record roomRecord
	if err := json.Unmarshal(val, &record); err != nil {
		return domain.Room{}, fmt.Errorf("decode room %s: %w", code, err)
	}
	return domain.Room{
		Code: code,
		Participants: lo.Map(record.Participants, func(p string, _ int) domain.ParticipantID {
			return domain.ParticipantID(p)
		}),
		Creator:   domain.ParticipantID(record.Creator),
		CreatedAt: record.CreatedAt,
	}, nil
}

func toRoomRecord(room domain.Room) roomRecord {
	return roomRecord{
		Participants: lo.Map(room.Participants, func(p domain.ParticipantID, _ int) string {
			return string(p)
		}),
		Creator:   string(room.Creator),
		CreatedAt: room.CreatedAt,
	}
}
