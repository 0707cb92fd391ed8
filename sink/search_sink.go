package sink

import (
	"context"
	"fmt"
	"huddle/contract"
	"huddle/domain/event"
	"log/slog"

	"github.com/abadojack/whatlanggo"
)

// UndeterminedLang tags messages whose language could not be detected reliably.
const UndeterminedLang = "und"

// SearchSink indexes appended messages. Purged rooms are dropped from the
// index by the message log itself.
type SearchSink struct {
	index contract.ISearchIndex
	log   *slog.Logger
}

func NewSearchSink(index contract.ISearchIndex, log *slog.Logger) *SearchSink {
	return &SearchSink{index: index, log: log}
}

func (s *SearchSink) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageAppended:
		lang := DetectLang(evt.Message.Body)
		if err := s.index.Index(ctx, evt.Message, lang); err != nil {
			return fmt.Errorf("index message %d: %w", evt.Message.ID, err)
		}
		s.log.Debug("Message indexed", "code", evt.Message.RoomCode, "id", evt.Message.ID, "lang", lang)
		return nil
	default:
		return nil
	}
}

// DetectLang returns the ISO 639-1 code of text, or UndeterminedLang.
func DetectLang(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return UndeterminedLang
	}
	if code := info.Lang.Iso6391(); code != "" {
		return code
	}
	return UndeterminedLang
}
