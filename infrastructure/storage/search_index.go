package storage

import (
	"context"
	"fmt"
	"huddle/contract"
	"huddle/domain"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/blugelabs/bluge"
)

const (
	fieldDocID     = "_id"
	fieldDocRoom   = "room"
	fieldDocSeq    = "seq"
	fieldDocSender = "sender"
	fieldDocBody   = "body"
	fieldDocLang   = "lang"
	fieldDocSentAt = "sent_at"

	defaultSearchLimit = 20
)

var _ contract.ISearchIndex = (*SearchIndex)(nil)

// SearchIndex is the full text index over message bodies, partitioned by room code.
// It is fed asynchronously from MessageAppended events and may lag the store.
type SearchIndex struct {
	writer  *bluge.Writer
	log     *slog.Logger
	timeout time.Duration
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger, timeout time.Duration) *SearchIndex {
	return &SearchIndex{writer: writer, log: log, timeout: timeout}
}

func documentID(code domain.RoomCode, id domain.MessageID) string {
	return fmt.Sprintf("%s:%020d", code, uint64(id))
}

// Index adds or replaces the document of message. Indexing the same id twice is harmless.
func (s *SearchIndex) Index(ctx context.Context, message domain.Message, lang string) error {
	doc := bluge.NewDocument(documentID(message.RoomCode, message.ID)).
		AddField(bluge.NewKeywordField(fieldDocRoom, string(message.RoomCode)).StoreValue()).
		AddField(bluge.NewKeywordField(fieldDocSeq, strconv.FormatUint(uint64(message.ID), 10)).StoreValue()).
		AddField(bluge.NewKeywordField(fieldDocSender, string(message.Sender)).StoreValue()).
		AddField(bluge.NewTextField(fieldDocBody, message.Body).StoreValue()).
		AddField(bluge.NewKeywordField(fieldDocLang, lang).StoreValue()).
		AddField(bluge.NewDateTimeField(fieldDocSentAt, message.SentAt).StoreValue())

	return boundedErr(ctx, s.timeout, func() error {
		if err := s.writer.Update(doc.ID(), doc); err != nil {
			return fmt.Errorf("index message %d of %s: %w", message.ID, message.RoomCode, err)
		}
		return nil
	})
}

// Search returns the messages of code whose body matches terms, best match first.
func (s *SearchIndex) Search(ctx context.Context, code domain.RoomCode, terms string, limit int) ([]domain.SearchHit, error) {
	if strings.TrimSpace(terms) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(string(code)).SetField(fieldDocRoom)).
		AddMust(bluge.NewMatchQuery(terms).SetField(fieldDocBody))
	request := bluge.NewTopNSearch(limit, query)

	return bounded(ctx, s.timeout, func() ([]domain.SearchHit, error) {
		reader, err := s.writer.Reader()
		if err != nil {
			return nil, fmt.Errorf("open index reader: %w", err)
		}
		defer func() { _ = reader.Close() }()

		dmi, err := reader.Search(ctx, request)
		if err != nil {
			return nil, fmt.Errorf("search %q in %s: %w", terms, code, err)
		}

		var hits []domain.SearchHit
		match, err := dmi.Next()
		for err == nil && match != nil {
			hit := domain.SearchHit{Score: match.Score}
			var visitErr error
			err = match.VisitStoredFields(func(field string, value []byte) bool {
				switch field {
				case fieldDocSeq:
					var id uint64
					id, visitErr = strconv.ParseUint(string(value), 10, 64)
					hit.ID = domain.MessageID(id)
				case fieldDocSender:
					hit.Sender = domain.ParticipantID(value)
				case fieldDocBody:
					hit.Body = string(value)
				case fieldDocLang:
					hit.Lang = string(value)
				case fieldDocSentAt:
					hit.SentAt, visitErr = bluge.DecodeDateTime(value)
				}
				return visitErr == nil
			})
			if err != nil {
				return nil, err
			}
			if visitErr != nil {
				return nil, fmt.Errorf("decode search hit: %w", visitErr)
			}
			hits = append(hits, hit)
			match, err = dmi.Next()
		}
		if err != nil {
			return nil, err
		}
		return hits, nil
	})
}

// DeleteRoom drops every document of code and returns how many were removed.
func (s *SearchIndex) DeleteRoom(ctx context.Context, code domain.RoomCode) (int, error) {
	return bounded(ctx, s.timeout, func() (int, error) {
		reader, err := s.writer.Reader()
		if err != nil {
			return 0, fmt.Errorf("open index reader: %w", err)
		}
		defer func() { _ = reader.Close() }()

		query := bluge.NewTermQuery(string(code)).SetField(fieldDocRoom)
		dmi, err := reader.Search(ctx, bluge.NewAllMatches(query))
		if err != nil {
			return 0, fmt.Errorf("list documents of %s: %w", code, err)
		}

		batch := bluge.NewBatch()
		deleted := 0
		match, err := dmi.Next()
		for err == nil && match != nil {
			err = match.VisitStoredFields(func(field string, value []byte) bool {
				if field == fieldDocID {
					batch.Delete(bluge.Identifier(value))
					deleted++
					return false
				}
				return true
			})
			if err != nil {
				return 0, err
			}
			match, err = dmi.Next()
		}
		if err != nil {
			return 0, err
		}
		if deleted == 0 {
			return 0, nil
		}
		if err := s.writer.Batch(batch); err != nil {
			return 0, fmt.Errorf("delete documents of %s: %w", code, err)
		}
		s.log.Debug("Search documents deleted", "code", code, "count", deleted)
		return deleted, nil
	})
}
