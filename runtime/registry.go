package runtime

import (
	"context"
	"fmt"
	"huddle/contract"
	"huddle/domain"
	"huddle/domain/event"
	"huddle/errors"
	"huddle/observability"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

const (
	DefaultMaxCodeAttempts = 8
	DefaultMaxCASAttempts  = 128
)

var _ contract.IRoomRegistry = (*RoomRegistry)(nil)

// RoomRegistry owns room membership. Every mutation is an optimistic
// read-compare-and-swap loop against the store, scoped to one room:
// there is no lock shared between rooms and none held across store calls.
type RoomRegistry struct {
	log             *slog.Logger
	store           contract.IRoomStore
	publisher       contract.EventPublisher
	monitoring      *observability.MonitoringManager
	newCode         CodeGenerator
	maxCodeAttempts int
	maxCASAttempts  int
	now             func() time.Time
}

func NewRoomRegistry(log *slog.Logger, store contract.IRoomStore, publisher contract.EventPublisher,
	monitoring *observability.MonitoringManager, maxCodeAttempts, maxCASAttempts int) *RoomRegistry {
	if maxCodeAttempts <= 0 {
		maxCodeAttempts = DefaultMaxCodeAttempts
	}
	if maxCASAttempts <= 0 {
		maxCASAttempts = DefaultMaxCASAttempts
	}
	return &RoomRegistry{
		log:             log,
		store:           store,
		publisher:       publisher,
		monitoring:      monitoring,
		newCode:         UUIDCodes,
		maxCodeAttempts: maxCodeAttempts,
		maxCASAttempts:  maxCASAttempts,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (r *RoomRegistry) WithCodeGenerator(gen CodeGenerator) *RoomRegistry {
	r.newCode = gen
	return r
}

func (r *RoomRegistry) WithClock(now func() time.Time) *RoomRegistry {
	r.now = now
	return r
}

// CreateRoom creates a room whose only participant is creator.
func (r *RoomRegistry) CreateRoom(ctx context.Context, creator domain.ParticipantID) (domain.RoomCode, error) {
	return r.create(ctx, creator, "")
}

// CreateRoomOnce is CreateRoom made safe to retry: a second call with the same
// creator and requestKey returns the room of the first call while it is live.
func (r *RoomRegistry) CreateRoomOnce(ctx context.Context, creator domain.ParticipantID, requestKey string) (domain.RoomCode, error) {
	if requestKey == "" {
		return r.create(ctx, creator, "")
	}
	code, err := r.store.FindByRequestKey(ctx, creator, requestKey)
	switch {
	case err == nil:
		if _, err := r.store.Get(ctx, code); err == nil {
			r.log.Debug("Create request replayed", "code", code, "creator", creator)
			return code, nil
		} else if !errors.Is(err, errors.ErrRoomNotFound) {
			return "", err
		}
		r.log.Debug("Room of a replayed create request is gone, creating another", "code", code)
	case !errors.Is(err, errors.ErrRoomNotFound):
		return "", err
	}
	return r.create(ctx, creator, requestKey)
}

func (r *RoomRegistry) create(ctx context.Context, creator domain.ParticipantID, requestKey string) (domain.RoomCode, error) {
	if creator.IsZero() {
		return "", fmt.Errorf("%w: empty creator", errors.ErrInvalidCommand)
	}
	for attempt := 1; attempt <= r.maxCodeAttempts; attempt++ {
		room := domain.NewRoom(r.newCode(), creator, r.now())
		err := r.store.Insert(ctx, room, requestKey)
		if errors.Is(err, errors.ErrRoomExists) {
			r.log.Debug("Room code collision", "code", room.Code, "attempt", attempt)
			continue
		}
		if err != nil {
			return "", err
		}
		r.log.Info("Room created", "code", room.Code, "creator", creator)
		r.publish(event.RoomCreated{Code: room.Code, Creator: creator, At: room.CreatedAt})
		return room.Code, nil
	}
	return "", fmt.Errorf("%w: %d attempts", errors.ErrCodeSpaceExhausted, r.maxCodeAttempts)
}

// JoinRoom adds participant to the room. Joining twice is a no-op returning the current snapshot.
func (r *RoomRegistry) JoinRoom(ctx context.Context, code domain.RoomCode, participant domain.ParticipantID) (domain.ParticipantSnapshot, error) {
	if participant.IsZero() {
		return domain.ParticipantSnapshot{}, fmt.Errorf("%w: empty participant", errors.ErrInvalidCommand)
	}
	room, changed, err := r.update(ctx, code, func(current domain.Room) (domain.Room, bool) {
		return current.WithParticipant(participant)
	})
	if err != nil {
		return domain.ParticipantSnapshot{}, err
	}
	if changed {
		r.log.Debug("Participant joined", "code", code, "participant", participant)
		r.publish(event.ParticipantJoined{Code: code, Participant: participant, Participants: room.Snapshot().Participants, At: r.now()})
	}
	return room.Snapshot(), nil
}

// LeaveRoom removes participant. The room is deleted by the same write that
// removes its last participant. Leaving a room one is not part of is a no-op.
func (r *RoomRegistry) LeaveRoom(ctx context.Context, code domain.RoomCode, participant domain.ParticipantID) error {
	room, changed, err := r.update(ctx, code, func(current domain.Room) (domain.Room, bool) {
		return current.WithoutParticipant(participant)
	})
	if err != nil || !changed {
		return err
	}
	at := r.now()
	r.log.Debug("Participant left", "code", code, "participant", participant)
	r.publish(event.ParticipantLeft{Code: code, Participant: participant, Participants: room.Snapshot().Participants, At: at})
	if room.IsEmpty() {
		r.log.Info("Room deleted", "code", code)
		r.publish(event.RoomDeleted{Code: code, At: at})
	}
	return nil
}

func (r *RoomRegistry) Snapshot(ctx context.Context, code domain.RoomCode) (domain.ParticipantSnapshot, error) {
	room, err := r.store.Get(ctx, code)
	if err != nil {
		return domain.ParticipantSnapshot{}, err
	}
	return room.Snapshot(), nil
}

func (r *RoomRegistry) Rooms(ctx context.Context) ([]domain.ParticipantSnapshot, error) {
	rooms, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(rooms, func(room domain.Room, _ int) domain.ParticipantSnapshot {
		return room.Snapshot()
	}), nil
}

// update applies change to the latest stored room until the swap wins.
// Each attempt re-reads the room, so a concurrent writer is never overwritten.
func (r *RoomRegistry) update(ctx context.Context, code domain.RoomCode,
	change func(domain.Room) (domain.Room, bool)) (domain.Room, bool, error) {
	for attempt := 1; attempt <= r.maxCASAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.Room{}, false, errors.Unavailable(err)
		}
		current, err := r.store.Get(ctx, code)
		if err != nil {
			return domain.Room{}, false, err
		}
		next, changed := change(current)
		if !changed {
			return current, false, nil
		}
		err = r.store.CompareAndSwap(ctx, code, current.Participants, next.Participants)
		if err == nil {
			return next, true, nil
		}
		if !errors.Is(err, errors.ErrCASConflict) {
			return domain.Room{}, false, err
		}
		r.monitoring.IncrCASRetries()
		r.log.Debug("Participants changed concurrently, retrying", "code", code, "attempt", attempt)
	}
	r.log.Warn("Giving up on contended room", "code", code, "attempts", r.maxCASAttempts)
	return domain.Room{}, false, errors.Unavailable(fmt.Errorf("room %s contended after %d attempts", code, r.maxCASAttempts))
}

func (r *RoomRegistry) publish(e event.DomainEvent) {
	if r.publisher != nil {
		r.publisher.Publish(e)
	}
}
