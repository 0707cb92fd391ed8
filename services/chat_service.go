package services

import (
	"context"
	"fmt"
	"huddle/contract"
	"huddle/domain"
	"huddle/errors"
	"huddle/observability"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ contract.IdleReaper = (*ChatService)(nil)

// ChatService keeps the open sessions of this process, by id.
type ChatService struct {
	mu          sync.RWMutex
	log         *slog.Logger
	registry    contract.IRoomRegistry
	messages    contract.IMessageLog
	monitoring  *observability.MonitoringManager
	mediaConfig domain.MediaConfig
	sessions    map[SessionID]*Session
	now         func() time.Time
}

func NewChatService(log *slog.Logger, registry contract.IRoomRegistry, messages contract.IMessageLog,
	monitoring *observability.MonitoringManager, mediaConfig domain.MediaConfig) *ChatService {
	return &ChatService{
		log:         log,
		registry:    registry,
		messages:    messages,
		monitoring:  monitoring,
		mediaConfig: mediaConfig,
		sessions:    make(map[SessionID]*Session),
		now:         time.Now,
	}
}

func (s *ChatService) WithClock(now func() time.Time) *ChatService {
	s.now = now
	return s
}

type openSessionCommand struct {
	Participant domain.ParticipantID `validate:"required"`
}

// OpenSession starts an unbound session for participant with its device availability.
func (s *ChatService) OpenSession(participant domain.ParticipantID, devices domain.Devices) (*Session, error) {
	if err := validateCommand(openSessionCommand{Participant: participant}); err != nil {
		return nil, err
	}
	session := NewSession(SessionID(uuid.NewString()), participant, devices, s.registry, s.messages, s.log, s.now)

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	s.monitoring.SessionOpened()
	s.log.Debug("Session opened", "session", session.ID(), "participant", participant)
	return session, nil
}

func (s *ChatService) Session(id SessionID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrSessionNotFound, id)
	}
	return session, nil
}

// CloseSession forgets the session. The participant stays in its room,
// like a client that stopped polling.
func (s *ChatService) CloseSession(id SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", errors.ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	s.monitoring.SessionClosed()
	return nil
}

// ReapIdle closes the sessions last used before idleSince.
// Sessions busy in a store call are not waited for.
func (s *ChatService) ReapIdle(_ context.Context, idleSince time.Time) int {
	s.mu.RLock()
	var idle []SessionID
	for id, session := range s.sessions {
		if session.LastSeen().Before(idleSince) {
			idle = append(idle, id)
		}
	}
	s.mu.RUnlock()
	if len(idle) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	reaped := 0
	for _, id := range idle {
		session, ok := s.sessions[id]
		if !ok || !session.LastSeen().Before(idleSince) {
			continue
		}
		delete(s.sessions, id)
		s.monitoring.SessionClosed()
		reaped++
	}
	return reaped
}

// Sessions lists open session ids, sorted.
func (s *ChatService) Sessions() []SessionID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]SessionID, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// History reads the archived log of a room, live or deleted but not yet purged.
func (s *ChatService) History(ctx context.Context, code domain.RoomCode, afterID domain.MessageID) ([]domain.Message, error) {
	if err := validateCommand(domain.GetMessagesCommand{Room: code, AfterID: afterID}); err != nil {
		return nil, err
	}
	return s.messages.History(ctx, code, afterID)
}

type searchCommand struct {
	Room  domain.RoomCode `validate:"required"`
	Terms string          `validate:"required"`
	Limit int             `validate:"gte=0"`
}

func (s *ChatService) Search(ctx context.Context, code domain.RoomCode, terms string, limit int) ([]domain.SearchHit, error) {
	if err := validateCommand(searchCommand{Room: code, Terms: terms, Limit: limit}); err != nil {
		return nil, err
	}
	return s.messages.Search(ctx, code, terms, limit)
}

// MediaConfig is handed to clients configuring their media transport.
func (s *ChatService) MediaConfig() domain.MediaConfig {
	return s.mediaConfig
}
