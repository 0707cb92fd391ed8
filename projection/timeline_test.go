package projection

import (
	"huddle/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeline_Merge_Deduplicates(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("f3a9c1")
	at := time.Now()

	// Given a first batch
	fresh := timeline.Merge([]domain.Message{
		{ID: 1, Sender: "alice", Body: "Hello Bob", SentAt: at},
		{ID: 2, Sender: "bob", Body: "Hi Alice", SentAt: at},
	})
	req.Len(fresh, 2)

	// When a redelivered batch overlaps it
	fresh = timeline.Merge([]domain.Message{
		{ID: 3, Sender: "clara", Body: "Hi all", SentAt: at},
		{ID: 2, Sender: "bob", Body: "Hi Alice", SentAt: at},
	})

	// Then only the new message is returned
	req.Len(fresh, 1)
	req.Equal(domain.MessageID(3), fresh[0].ID)
	req.Len(timeline.Messages, 3)
	req.Equal(domain.MessageID(3), timeline.LastID())
}

func TestTimeline_Merge_Orders_By_ID(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("f3a9c1")

	fresh := timeline.Merge([]domain.Message{{ID: 5}, {ID: 4}})
	req.Equal([]domain.MessageID{4, 5}, []domain.MessageID{fresh[0].ID, fresh[1].ID})
	req.Zero(NewTimeline("abc123").LastID())
}
