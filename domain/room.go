package domain

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

// RoomCode is the short shareable identifier of a live room.
type RoomCode string

func (c RoomCode) String() string {
	return string(c)
}

// Room is the durable membership record.
// A Room with no participants must never be stored.
type Room struct {
	Code         RoomCode
	Participants []ParticipantID
	Creator      ParticipantID
	CreatedAt    time.Time
}

func NewRoom(code RoomCode, creator ParticipantID, at time.Time) Room {
	return Room{
		Code:         code,
		Participants: []ParticipantID{creator},
		Creator:      creator,
		CreatedAt:    at,
	}
}

func (r Room) Has(participant ParticipantID) bool {
	return lo.Contains(r.Participants, participant)
}

// WithParticipant returns a copy with participant appended, keeping insertion order.
// The second value reports whether the set changed.
func (r Room) WithParticipant(participant ParticipantID) (Room, bool) {
	if r.Has(participant) {
		return r, false
	}
	next := r
	next.Participants = append(slices.Clone(r.Participants), participant)
	return next, true
}

// WithoutParticipant returns a copy with participant removed.
// The second value reports whether the set changed.
func (r Room) WithoutParticipant(participant ParticipantID) (Room, bool) {
	if !r.Has(participant) {
		return r, false
	}
	next := r
	next.Participants = lo.Without(r.Participants, participant)
	return next, true
}

func (r Room) IsEmpty() bool {
	return len(r.Participants) == 0
}

func (r Room) Snapshot() ParticipantSnapshot {
	return ParticipantSnapshot{
		Code:         r.Code,
		Participants: slices.Clone(r.Participants),
	}
}

// ParticipantSnapshot is a read-only membership view for display.
type ParticipantSnapshot struct {
	Code         RoomCode
	Participants []ParticipantID
}

func (s ParticipantSnapshot) Len() int {
	return len(s.Participants)
}
