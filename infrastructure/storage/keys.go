package storage

import (
	"encoding/binary"
	"fmt"
	"huddle/domain"
	"strings"
	"time"
)

// Key layout, one Badger keyspace shared by both repositories:
//
//	room:{code}                -> roomRecord (JSON)
//	msg:{code}:{id %020d}      -> message record (protobuf wire)
//	seq:msg                    -> last assigned message id (uint64, big endian)
//	gone:{code}                -> deletion time of a room whose history is retained
//	idem:{len}:{creator}:{key} -> room code, expires after the idempotency TTL
const (
	roomPrefix = "room:"
	msgPrefix  = "msg:"
	gonePrefix = "gone:"
	idemPrefix = "idem:"
	seqKey     = "seq:msg"
)

func roomKey(code domain.RoomCode) []byte {
	return []byte(roomPrefix + string(code))
}

func goneKey(code domain.RoomCode) []byte {
	return []byte(gonePrefix + string(code))
}

// idemKey length-prefixes the creator, which may itself contain ':'.
func idemKey(creator domain.ParticipantID, requestKey string) []byte {
	return []byte(fmt.Sprintf("%s%d:%s:%s", idemPrefix, len(creator), creator, requestKey))
}

func roomMessagesPrefix(code domain.RoomCode) []byte {
	return []byte(fmt.Sprintf("%s%s:", msgPrefix, code))
}

// messageKey pads the id to 20 digits so that lexicographic order is id order.
func messageKey(code domain.RoomCode, id domain.MessageID) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", msgPrefix, code, uint64(id)))
}

func codeFromKey(key []byte, prefix string) domain.RoomCode {
	return domain.RoomCode(strings.TrimPrefix(string(key), prefix))
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func encodeTime(t time.Time) []byte {
	return encodeUint64(uint64(t.UnixNano()))
}

func decodeTime(b []byte) time.Time {
	return time.Unix(0, int64(decodeUint64(b))).UTC()
}
