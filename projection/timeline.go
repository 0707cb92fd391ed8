// Package projection builds the local timeline of one room from polled batches.
// Handles ordering and deduplication.
// Does not emit events or interact with UI directly.
package projection

import (
	"cmp"
	"huddle/domain"
	"slices"
)

// Timeline holds the messages already shown for one room.
// Polls deliver each message at least once, so batches may overlap.
type Timeline struct {
	Room     domain.RoomCode
	Messages []domain.Message
	seen     map[domain.MessageID]struct{}
}

func NewTimeline(room domain.RoomCode) *Timeline {
	return &Timeline{
		Room: room,
		seen: make(map[domain.MessageID]struct{}),
	}
}

// Merge appends the unseen messages of batch and returns them in id order.
func (t *Timeline) Merge(batch []domain.Message) []domain.Message {
	var fresh []domain.Message
	for _, m := range batch {
		if _, ok := t.seen[m.ID]; ok {
			continue
		}
		t.seen[m.ID] = struct{}{}
		fresh = append(fresh, m)
	}
	slices.SortFunc(fresh, func(a, b domain.Message) int {
		return cmp.Compare(a.ID, b.ID)
	})
	t.Messages = append(t.Messages, fresh...)
	return fresh
}

// LastID is the highest id shown, zero when empty.
func (t *Timeline) LastID() domain.MessageID {
	if len(t.Messages) == 0 {
		return 0
	}
	return slices.MaxFunc(t.Messages, func(a, b domain.Message) int {
		return cmp.Compare(a.ID, b.ID)
	}).ID
}
