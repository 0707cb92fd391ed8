package search

import (
	"huddle/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSearchQuery(t *testing.T) {
	req := require.New(t)

	query := NewSearchQuery(`/search "budget review" --room f3a9c1 --limit 5`)
	req.Equal("budget review", query.Terms)
	req.Equal(domain.RoomCode("f3a9c1"), query.Room)
	req.Equal(5, query.Limit)
	req.Equal(domain.RoomCode("f3a9c1"), query.In("abc123"))
}

func TestNewSearchQuery_Defaults(t *testing.T) {
	req := require.New(t)

	// A bad limit and no room keep the defaults
	query := NewSearchQuery("hello --limit nope")
	req.Equal("hello", query.Terms)
	req.Zero(query.Limit)
	req.Equal(domain.RoomCode("abc123"), query.In("abc123"))
}
