// Package room holds the RoomService wire types, its JSON codec and its
// hand written service descriptor.
package room

import "time"

type Devices struct {
	HasCamera     bool `json:"has_camera"`
	HasMicrophone bool `json:"has_microphone"`
}

type MediaState struct {
	HasCamera     bool `json:"has_camera"`
	HasMicrophone bool `json:"has_microphone"`
	VideoEnabled  bool `json:"video_enabled"`
	AudioEnabled  bool `json:"audio_enabled"`
	Streaming     bool `json:"streaming"`
	// Constraints handed to the media transport.
	Video bool `json:"video"`
	Audio bool `json:"audio"`
}

type Message struct {
	ID     uint64    `json:"id"`
	Room   string    `json:"room"`
	Sender string    `json:"sender"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

type SearchHit struct {
	ID     uint64    `json:"id"`
	Sender string    `json:"sender"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
	Lang   string    `json:"lang"`
	Score  float64   `json:"score"`
}

type Empty struct{}

type OpenSessionRequest struct {
	Participant string  `json:"participant"`
	Devices     Devices `json:"devices"`
}

type OpenSessionResponse struct {
	SessionID  string     `json:"session_id"`
	Media      MediaState `json:"media"`
	ICEServers []string   `json:"ice_servers"`
}

type SessionRequest struct {
	SessionID string `json:"session_id"`
}

type CreateRoomRequest struct {
	SessionID  string `json:"session_id"`
	RequestKey string `json:"request_key,omitempty"`
}

type CreateRoomResponse struct {
	Code string `json:"code"`
}

type JoinRoomRequest struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}

// SnapshotResponse is empty with Gone set when the session found its room deleted.
type SnapshotResponse struct {
	Code         string   `json:"code"`
	Participants []string `json:"participants"`
	Gone         bool     `json:"gone,omitempty"`
}

type SendRequest struct {
	SessionID string `json:"session_id"`
	Body      string `json:"body"`
}

type SendResponse struct {
	MessageID uint64 `json:"message_id"`
}

type ReadRequest struct {
	SessionID string `json:"session_id"`
	AfterID   uint64 `json:"after_id"`
}

type MessagesResponse struct {
	Messages []Message `json:"messages"`
	Gone     bool      `json:"gone,omitempty"`
}

type PollResponse struct {
	Code         string     `json:"code"`
	Participants []string   `json:"participants"`
	Messages     []Message  `json:"messages"`
	Gone         bool       `json:"gone,omitempty"`
	Media        MediaState `json:"media"`
}

type HistoryRequest struct {
	Code    string `json:"code"`
	AfterID uint64 `json:"after_id"`
}

type SearchRequest struct {
	Code  string `json:"code"`
	Terms string `json:"terms"`
	Limit int    `json:"limit"`
}

type SearchResponse struct {
	Hits []SearchHit `json:"hits"`
}

type ToggleMediaRequest struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
}

type SetStreamingRequest struct {
	SessionID string `json:"session_id"`
	Streaming bool   `json:"streaming"`
}

type MediaResponse struct {
	Media MediaState `json:"media"`
}
