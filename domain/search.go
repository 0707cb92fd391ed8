package domain

import "time"

// SearchHit is one message of a room history matching a search.
type SearchHit struct {
	ID     MessageID
	Sender ParticipantID
	Body   string
	SentAt time.Time
	Lang   string
	Score  float64
}
