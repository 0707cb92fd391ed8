// Package domain contains core concepts of the meeting system.
// This file defines Participant identities.
// No runtime, network, or UI logic should be added here.
package domain

// ParticipantID is an opaque identity supplied by the caller (an e-mail address in practice).
// Only emptiness is checked: whitespace is a valid identifier.
type ParticipantID string

func (p ParticipantID) String() string {
	return string(p)
}

func (p ParticipantID) IsZero() bool {
	return p == ""
}
