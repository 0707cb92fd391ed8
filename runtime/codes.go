package runtime

import (
	"huddle/domain"
	"strings"

	"github.com/google/uuid"
)

// RoomCodeLength is the number of hex characters of a room code.
const RoomCodeLength = 6

// CodeGenerator proposes a candidate room code. Candidates may collide,
// the registry retries on collision.
type CodeGenerator func() domain.RoomCode

// UUIDCodes takes the first hex characters of a random UUID.
func UUIDCodes() domain.RoomCode {
	return domain.RoomCode(strings.ToLower(uuid.NewString()[:RoomCodeLength]))
}
