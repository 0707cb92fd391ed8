package runtime

import (
	"context"
	"fmt"
	"huddle/contract"
	"huddle/domain"
	"huddle/domain/event"
	"huddle/errors"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/lo"
)

var _ contract.IMessageLog = (*MessageLog)(nil)

// MessageLog is the per room append only log. It never holds state of its own:
// ordering and liveness come from the store.
type MessageLog struct {
	log       *slog.Logger
	store     contract.IMessageStore
	index     contract.ISearchIndex
	publisher contract.EventPublisher
	limit     int
	now       func() time.Time
}

// NewMessageLog builds a log whose reads return at most limit messages, 0 meaning all.
func NewMessageLog(log *slog.Logger, store contract.IMessageStore, index contract.ISearchIndex,
	publisher contract.EventPublisher, limit int) *MessageLog {
	return &MessageLog{
		log:       log,
		store:     store,
		index:     index,
		publisher: publisher,
		limit:     limit,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (l *MessageLog) WithClock(now func() time.Time) *MessageLog {
	l.now = now
	return l
}

// Append stores body verbatim. Sender membership is not checked.
func (l *MessageLog) Append(ctx context.Context, code domain.RoomCode, sender domain.ParticipantID, body string) (domain.MessageID, error) {
	message, err := l.store.Append(ctx, domain.Message{
		RoomCode: code,
		Sender:   sender,
		Body:     body,
		SentAt:   l.now(),
	})
	if err != nil {
		return 0, err
	}
	l.publish(event.MessageAppended{Message: message, At: message.SentAt})
	return message.ID, nil
}

// Read returns the messages of a live room with an id greater than afterID.
func (l *MessageLog) Read(ctx context.Context, code domain.RoomCode, afterID domain.MessageID) ([]domain.Message, error) {
	return l.store.ReadAfter(ctx, code, afterID, l.limit, true)
}

// History is Read without the liveness check: the log of a deleted room stays
// readable until it is purged.
func (l *MessageLog) History(ctx context.Context, code domain.RoomCode, afterID domain.MessageID) ([]domain.Message, error) {
	return l.store.ReadAfter(ctx, code, afterID, l.limit, false)
}

// Search is served by the asynchronous index and may miss the latest messages.
// Hits no longer in the store, left by a purged room that used the same code, are dropped.
func (l *MessageLog) Search(ctx context.Context, code domain.RoomCode, terms string, limit int) ([]domain.SearchHit, error) {
	if l.index == nil {
		return nil, nil
	}
	hits, err := l.index.Search(ctx, code, terms, limit)
	if err != nil || len(hits) == 0 {
		return hits, err
	}
	stored, err := l.store.Existing(ctx, code, lo.Map(hits, func(h domain.SearchHit, _ int) domain.MessageID { return h.ID }))
	if err != nil {
		return nil, err
	}
	return lo.Filter(hits, func(h domain.SearchHit, _ int) bool { return slices.Contains(stored, h.ID) }), nil
}

// Purge deletes the history and tombstone of a deleted room, then its index
// documents. Documents that survive a failed drop never reach Search results.
func (l *MessageLog) Purge(ctx context.Context, code domain.RoomCode) (int, error) {
	count, err := l.store.Purge(ctx, code)
	if err != nil {
		return count, err
	}
	if l.index != nil {
		if dropped, err := l.index.DeleteRoom(ctx, code); err != nil {
			l.log.Error("Search index drop failed", "code", code, "error", err)
		} else {
			l.log.Debug("Search index dropped", "code", code, "documents", dropped)
		}
	}
	l.log.Info("Room history purged", "code", code, "messages", count)
	l.publish(event.RoomPurged{Code: code, Messages: count, At: l.now()})
	return count, nil
}

// PurgeExpired purges every room deleted before deletedBefore and returns how
// many rooms were purged. A failing room does not stop the others.
func (l *MessageLog) PurgeExpired(ctx context.Context, deletedBefore time.Time) (int, error) {
	codes, err := l.store.Tombstones(ctx, deletedBefore)
	if err != nil {
		return 0, err
	}
	purged := 0
	var errs []error
	for _, code := range codes {
		if _, err := l.Purge(ctx, code); err != nil {
			l.log.Error("Purge failed", "code", code, "error", err)
			errs = append(errs, fmt.Errorf("purge %s: %w", code, err))
			continue
		}
		purged++
	}
	return purged, errors.Join(errs...)
}

func (l *MessageLog) publish(e event.DomainEvent) {
	if l.publisher != nil {
		l.publisher.Publish(e)
	}
}
