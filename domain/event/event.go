package event

import (
	"huddle/domain"
	"time"
)

// DomainEvent is published after a mutation has been committed.
// Events are informational: consumers never feed them back into the store.
type DomainEvent interface {
	RoomCode() domain.RoomCode
	OccurredAt() time.Time
}

type RoomCreated struct {
	Code    domain.RoomCode
	Creator domain.ParticipantID
	At      time.Time
}

func (e RoomCreated) RoomCode() domain.RoomCode { return e.Code }
func (e RoomCreated) OccurredAt() time.Time     { return e.At }

type ParticipantJoined struct {
	Code         domain.RoomCode
	Participant  domain.ParticipantID
	Participants []domain.ParticipantID
	At           time.Time
}

func (e ParticipantJoined) RoomCode() domain.RoomCode { return e.Code }
func (e ParticipantJoined) OccurredAt() time.Time     { return e.At }

type ParticipantLeft struct {
	Code         domain.RoomCode
	Participant  domain.ParticipantID
	Participants []domain.ParticipantID
	At           time.Time
}

func (e ParticipantLeft) RoomCode() domain.RoomCode { return e.Code }
func (e ParticipantLeft) OccurredAt() time.Time     { return e.At }

// RoomDeleted is published when the last participant left.
type RoomDeleted struct {
	Code domain.RoomCode
	At   time.Time
}

func (e RoomDeleted) RoomCode() domain.RoomCode { return e.Code }
func (e RoomDeleted) OccurredAt() time.Time     { return e.At }

type MessageAppended struct {
	Message domain.Message
	At      time.Time
}

func (e MessageAppended) RoomCode() domain.RoomCode { return e.Message.RoomCode }
func (e MessageAppended) OccurredAt() time.Time     { return e.At }

// RoomPurged is published once the retained history of a deleted room is gone.
type RoomPurged struct {
	Code     domain.RoomCode
	Messages int
	At       time.Time
}

func (e RoomPurged) RoomCode() domain.RoomCode { return e.Code }
func (e RoomPurged) OccurredAt() time.Time     { return e.At }

// RoomGone is a session-local notification: the room a session was bound to
// no longer exists and the session is unbound again.
type RoomGone struct {
	Code domain.RoomCode
	At   time.Time
}

func (e RoomGone) RoomCode() domain.RoomCode { return e.Code }
func (e RoomGone) OccurredAt() time.Time     { return e.At }
