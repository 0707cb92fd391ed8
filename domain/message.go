// Package domain contains core concepts of the meeting system.
// This file defines Message records and related rules.
// Messages are immutable once appended.
package domain

import (
	"time"
)

// MessageID is assigned by the store and orders the log.
type MessageID uint64

// DisplayTimeLayout is how SentAt is rendered next to a message.
const DisplayTimeLayout = "15:04:05"

// Message represents an immutable chat entry.
// SentAt is for display only, ordering is by ID.
type Message struct {
	ID       MessageID
	RoomCode RoomCode
	Sender   ParticipantID
	Body     string
	SentAt   time.Time
}

func (m Message) DisplayTime() string {
	return m.SentAt.Format(DisplayTimeLayout)
}

// LastID returns the highest id in an ascending batch, or fallback when empty.
func LastID(messages []Message, fallback MessageID) MessageID {
	if len(messages) == 0 {
		return fallback
	}
	return messages[len(messages)-1].ID
}
