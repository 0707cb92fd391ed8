package search

import (
	"huddle/domain"
	"strconv"
	"strings"
)

// Query represents the structured parameters of a history search typed in the client.
// It decouples the raw input from what the index needs.
type Query struct {
	RawInput string          // The original line typed by the user
	Terms    string          // The actual text to search in Bluge
	Room     domain.RoomCode // Target room, the bound one when empty
	Limit    int             // Number of results, the server default when zero
}

// NewSearchQuery parses a raw string to extract command-line style arguments.
// Example: /search "budget review" --room f3a9c1 --limit 5
func NewSearchQuery(input string) Query {
	query := Query{RawInput: input}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		// Handle flags like --room f3a9c1 or --limit 5
		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			key := strings.TrimPrefix(part, "--")
			val := parts[i+1]

			switch key {
			case "room":
				query.Room = domain.RoomCode(val)
			case "limit":
				if limit, err := strconv.Atoi(val); err == nil && limit > 0 {
					query.Limit = limit
				}
			}
			i++ // Skip the value part in next iteration
			continue
		}

		// If it's not a flag, it's a search term
		if !strings.HasPrefix(part, "/") {
			textTerms = append(textTerms, strings.Trim(part, `"`))
		}
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}

// In returns the room to search, falling back to bound.
func (q Query) In(bound domain.RoomCode) domain.RoomCode {
	if q.Room != "" {
		return q.Room
	}
	return bound
}
