package services

import (
	"context"
	"huddle/contract"
	"huddle/domain"
	"huddle/domain/event"
	"huddle/errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type SessionID string

// PollResult is what a client renders on each refresh.
// When Gone is set the session has just been unbound from Room.
type PollResult struct {
	Room     domain.RoomCode
	Snapshot domain.ParticipantSnapshot
	Messages []domain.Message
	Gone     bool
}

// Session is the logical, non persisted binding of one participant to at most one room.
// It caches the bound code but revalidates it against the registry on every call.
type Session struct {
	mu          sync.Mutex
	id          SessionID
	participant domain.ParticipantID
	registry    contract.IRoomRegistry
	messages    contract.IMessageLog
	log         *slog.Logger
	now         func() time.Time

	room   domain.RoomCode
	cursor domain.MessageID
	media  domain.MediaState
	events []event.DomainEvent

	// lastSeen is read without mu by the reaper, in unix nanoseconds.
	lastSeen atomic.Int64
}

func NewSession(id SessionID, participant domain.ParticipantID, devices domain.Devices,
	registry contract.IRoomRegistry, messages contract.IMessageLog, log *slog.Logger, now func() time.Time) *Session {
	s := &Session{
		id:          id,
		participant: participant,
		registry:    registry,
		messages:    messages,
		log:         log.With("session", id, "participant", participant),
		now:         now,
		media:       domain.NewMediaState(devices),
	}
	s.touch()
	return s
}

func (s *Session) ID() SessionID                     { return s.id }
func (s *Session) Participant() domain.ParticipantID { return s.participant }

// Room returns the bound room code, false when unbound.
func (s *Session) Room() (domain.RoomCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room, s.room != ""
}

// LastSeen never waits for a call in progress.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// CreateRoom creates a room and binds the session to it. A non empty
// requestKey makes the call safe to retry after a lost response.
func (s *Session) CreateRoom(ctx context.Context, requestKey string) (domain.RoomCode, error) {
	cmd := domain.CreateRoomCommand{Creator: s.participant, RequestKey: requestKey}
	if err := validateCommand(cmd); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	code, err := s.registry.CreateRoomOnce(ctx, cmd.Creator, cmd.RequestKey)
	if err != nil {
		return "", err
	}
	s.bind(code)
	return code, nil
}

// JoinRoom binds the session to code. A session already bound elsewhere is
// rebound without leaving its previous room.
func (s *Session) JoinRoom(ctx context.Context, code domain.RoomCode) (domain.ParticipantSnapshot, error) {
	cmd := domain.JoinRoomCommand{Room: code, Participant: s.participant}
	if err := validateCommand(cmd); err != nil {
		return domain.ParticipantSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	snapshot, err := s.registry.JoinRoom(ctx, cmd.Room, cmd.Participant)
	if err != nil {
		return domain.ParticipantSnapshot{}, err
	}
	if s.room != "" && s.room != code {
		s.log.Debug("Rebinding without leaving", "from", s.room, "to", code)
	}
	s.bind(code)
	return snapshot, nil
}

// LeaveRoom removes the participant from the bound room and unbinds.
// A room that vanished meanwhile is treated as already left.
func (s *Session) LeaveRoom(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.room == "" {
		return errors.ErrNotInRoom
	}
	cmd := domain.LeaveRoomCommand{Room: s.room, Participant: s.participant}
	if err := validateCommand(cmd); err != nil {
		return err
	}
	err := s.registry.LeaveRoom(ctx, cmd.Room, cmd.Participant)
	if errors.Is(err, errors.ErrRoomNotFound) {
		s.gone()
		return nil
	}
	if err != nil {
		return err
	}
	s.unbind()
	return nil
}

// Snapshot returns the members of the bound room. When the room is gone the
// session unbinds, queues RoomGone and returns an empty snapshot without error.
func (s *Session) Snapshot(ctx context.Context) (domain.ParticipantSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.room == "" {
		return domain.ParticipantSnapshot{}, errors.ErrNotInRoom
	}
	snapshot, err := s.registry.Snapshot(ctx, s.room)
	if errors.Is(err, errors.ErrRoomNotFound) {
		s.gone()
		return domain.ParticipantSnapshot{}, nil
	}
	return snapshot, err
}

// Read returns the messages of the bound room after afterID, healing like Snapshot.
func (s *Session) Read(ctx context.Context, afterID domain.MessageID) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.room == "" {
		return nil, errors.ErrNotInRoom
	}
	cmd := domain.GetMessagesCommand{Room: s.room, AfterID: afterID}
	messages, err := s.messages.Read(ctx, cmd.Room, cmd.AfterID)
	if errors.Is(err, errors.ErrRoomNotFound) {
		s.gone()
		return nil, nil
	}
	return messages, err
}

// Poll returns the snapshot and every message after the session cursor, then
// advances the cursor. Each message is delivered at least once per session.
func (s *Session) Poll(ctx context.Context) (PollResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.room == "" {
		return PollResult{}, errors.ErrNotInRoom
	}
	code := s.room
	snapshot, err := s.registry.Snapshot(ctx, code)
	if errors.Is(err, errors.ErrRoomNotFound) {
		s.gone()
		return PollResult{Room: code, Gone: true}, nil
	}
	if err != nil {
		return PollResult{}, err
	}

	messages, err := s.messages.Read(ctx, code, s.cursor)
	if errors.Is(err, errors.ErrRoomNotFound) {
		s.gone()
		return PollResult{Room: code, Gone: true}, nil
	}
	if err != nil {
		return PollResult{}, err
	}
	s.cursor = domain.LastID(messages, s.cursor)
	return PollResult{Room: code, Snapshot: snapshot, Messages: messages}, nil
}

// Send appends body to the bound room. On a vanished room the session unbinds
// and the RoomNotFound error is returned.
func (s *Session) Send(ctx context.Context, body string) (domain.MessageID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.room == "" {
		return 0, errors.ErrNotInRoom
	}
	cmd := domain.PostMessageCommand{Room: s.room, Sender: s.participant, Body: body}
	if err := validateCommand(cmd); err != nil {
		return 0, err
	}
	id, err := s.messages.Append(ctx, cmd.Room, cmd.Sender, cmd.Body)
	if errors.Is(err, errors.ErrRoomNotFound) {
		s.gone()
	}
	return id, err
}

// ToggleMedia flips one media kind, if the matching device exists.
func (s *Session) ToggleMedia(kind domain.MediaKind) domain.MediaState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.media = s.media.Toggle(kind)
	return s.media
}

// SetStreaming records what the media transport reported. Display only.
func (s *Session) SetStreaming(streaming bool) domain.MediaState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.media.Streaming = streaming
	return s.media
}

func (s *Session) Media() domain.MediaState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media
}

// FlushEvents hands over the queued session events and clears the outbox.
func (s *Session) FlushEvents() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	s.events = nil
	return events
}

func (s *Session) touch() {
	s.lastSeen.Store(s.now().UnixNano())
}

func (s *Session) bind(code domain.RoomCode) {
	s.room = code
	s.cursor = 0
}

func (s *Session) unbind() {
	s.room = ""
	s.cursor = 0
	s.media = s.media.Reset()
}

func (s *Session) gone() {
	code := s.room
	s.unbind()
	s.log.Info("Room gone, session unbound", "code", code)
	s.events = append(s.events, event.RoomGone{Code: code, At: s.now()})
}
