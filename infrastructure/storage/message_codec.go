package storage

import (
	"fmt"
	"huddle/domain"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message records use the protobuf wire format directly:
//
//	1: id (varint)  2: room (bytes)  3: sender (bytes)  4: body (bytes)  5: sent_at unix nano (zigzag varint)
const (
	fieldID     protowire.Number = 1
	fieldRoom   protowire.Number = 2
	fieldSender protowire.Number = 3
	fieldBody   protowire.Number = 4
	fieldSentAt protowire.Number = 5
)

func encodeMessage(m domain.Message) []byte {
	b := make([]byte, 0, 32+len(m.Body))
	b = protowire.AppendTag(b, fieldID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.ID))
	b = protowire.AppendTag(b, fieldRoom, protowire.BytesType)
	b = protowire.AppendString(b, string(m.RoomCode))
	b = protowire.AppendTag(b, fieldSender, protowire.BytesType)
	b = protowire.AppendString(b, string(m.Sender))
	b = protowire.AppendTag(b, fieldBody, protowire.BytesType)
	b = protowire.AppendString(b, m.Body)
	b = protowire.AppendTag(b, fieldSentAt, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(m.SentAt.UnixNano()))
	return b
}

func decodeMessage(b []byte) (domain.Message, error) {
	var m domain.Message
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return domain.Message{}, fmt.Errorf("decode message tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldID && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			m.ID = domain.MessageID(v)
		case num == fieldSentAt && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			m.SentAt = time.Unix(0, protowire.DecodeZigZag(v)).UTC()
		case num == fieldRoom && typ == protowire.BytesType:
			var v string
			v, n = protowire.ConsumeString(b)
			m.RoomCode = domain.RoomCode(v)
		case num == fieldSender && typ == protowire.BytesType:
			var v string
			v, n = protowire.ConsumeString(b)
			m.Sender = domain.ParticipantID(v)
		case num == fieldBody && typ == protowire.BytesType:
			m.Body, n = protowire.ConsumeString(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return domain.Message{}, fmt.Errorf("decode message field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return m, nil
}
