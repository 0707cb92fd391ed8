package client

import (
	"context"
	"huddle/domain"
	"huddle/errors"
	pb "huddle/proto/room"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
)

// View is what the terminal renders after each poll.
type View struct {
	Snapshot domain.ParticipantSnapshot
	Messages []domain.Message
	Media    domain.MediaState
	Gone     bool
}

// RoomClient drives one remote session. Server status errors are mapped back
// to the domain sentinels so callers can use errors.Is.
type RoomClient struct {
	mu          sync.Mutex
	log         *slog.Logger
	client      pb.RoomServiceClient
	timeout     time.Duration
	sessionID   string
	participant domain.ParticipantID
	iceServers  []string
}

func NewRoomClient(log *slog.Logger, client pb.RoomServiceClient, timeout time.Duration) *RoomClient {
	return &RoomClient{log: log, client: client, timeout: timeout}
}

func (c *RoomClient) Open(ctx context.Context, participant domain.ParticipantID, devices domain.Devices) (domain.MediaState, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.OpenSession(ctx, &pb.OpenSessionRequest{
		Participant: participant.String(),
		Devices:     pb.Devices{HasCamera: devices.HasCamera, HasMicrophone: devices.HasMicrophone},
	})
	if err != nil {
		return domain.MediaState{}, errors.FromGRPCError(err)
	}
	c.mu.Lock()
	c.sessionID = resp.SessionID
	c.participant = participant
	c.iceServers = resp.ICEServers
	c.mu.Unlock()
	c.log.Debug("Session opened", "session", resp.SessionID)
	return fromMediaState(resp.Media), nil
}

func (c *RoomClient) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.client.CloseSession(ctx, &pb.SessionRequest{SessionID: c.session()})
	return errors.FromGRPCError(err)
}

func (c *RoomClient) Participant() domain.ParticipantID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.participant
}

func (c *RoomClient) MediaConfig() domain.MediaConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.MediaConfig{ICEServers: c.iceServers}
}

// CreateRoom sends a fresh request key and reuses it when the first attempt
// ends without a response.
func (c *RoomClient) CreateRoom(ctx context.Context, requestKey string) (domain.RoomCode, error) {
	in := &pb.CreateRoomRequest{SessionID: c.session(), RequestKey: requestKey}
	resp, err := c.createRoom(ctx, in)
	if errors.Is(err, errors.ErrStorageUnavailable) && requestKey != "" {
		c.log.Warn("Retrying room creation", "error", err)
		resp, err = c.createRoom(ctx, in)
	}
	if err != nil {
		return "", err
	}
	return domain.RoomCode(resp.Code), nil
}

func (c *RoomClient) createRoom(ctx context.Context, in *pb.CreateRoomRequest) (*pb.CreateRoomResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.CreateRoom(ctx, in)
	return resp, errors.FromGRPCError(err)
}

func (c *RoomClient) JoinRoom(ctx context.Context, code domain.RoomCode) (domain.ParticipantSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.JoinRoom(ctx, &pb.JoinRoomRequest{SessionID: c.session(), Code: code.String()})
	if err != nil {
		return domain.ParticipantSnapshot{}, errors.FromGRPCError(err)
	}
	return toSnapshot(resp.Code, resp.Participants), nil
}

func (c *RoomClient) LeaveRoom(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.client.LeaveRoom(ctx, &pb.SessionRequest{SessionID: c.session()})
	return errors.FromGRPCError(err)
}

func (c *RoomClient) Send(ctx context.Context, body string) (domain.MessageID, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.Send(ctx, &pb.SendRequest{SessionID: c.session(), Body: body})
	if err != nil {
		return 0, errors.FromGRPCError(err)
	}
	return domain.MessageID(resp.MessageID), nil
}

func (c *RoomClient) Poll(ctx context.Context) (View, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.Poll(ctx, &pb.SessionRequest{SessionID: c.session()})
	if err != nil {
		return View{}, errors.FromGRPCError(err)
	}
	return View{
		Snapshot: toSnapshot(resp.Code, resp.Participants),
		Messages: toMessages(resp.Messages),
		Media:    fromMediaState(resp.Media),
		Gone:     resp.Gone,
	}, nil
}

func (c *RoomClient) History(ctx context.Context, code domain.RoomCode, afterID domain.MessageID) ([]domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.History(ctx, &pb.HistoryRequest{Code: code.String(), AfterID: uint64(afterID)})
	if err != nil {
		return nil, errors.FromGRPCError(err)
	}
	return toMessages(resp.Messages), nil
}

func (c *RoomClient) Search(ctx context.Context, code domain.RoomCode, terms string, limit int) ([]domain.SearchHit, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.Search(ctx, &pb.SearchRequest{Code: code.String(), Terms: terms, Limit: limit})
	if err != nil {
		return nil, errors.FromGRPCError(err)
	}
	return lo.Map(resp.Hits, func(hit pb.SearchHit, _ int) domain.SearchHit {
		return domain.SearchHit{
			ID:     domain.MessageID(hit.ID),
			Sender: domain.ParticipantID(hit.Sender),
			Body:   hit.Body,
			SentAt: hit.SentAt,
			Lang:   hit.Lang,
			Score:  hit.Score,
		}
	}), nil
}

func (c *RoomClient) ToggleMedia(ctx context.Context, kind domain.MediaKind) (domain.MediaState, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.ToggleMedia(ctx, &pb.ToggleMediaRequest{SessionID: c.session(), Kind: string(kind)})
	if err != nil {
		return domain.MediaState{}, errors.FromGRPCError(err)
	}
	return fromMediaState(resp.Media), nil
}

func (c *RoomClient) SetStreaming(ctx context.Context, streaming bool) (domain.MediaState, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.SetStreaming(ctx, &pb.SetStreamingRequest{SessionID: c.session(), Streaming: streaming})
	if err != nil {
		return domain.MediaState{}, errors.FromGRPCError(err)
	}
	return fromMediaState(resp.Media), nil
}

func (c *RoomClient) session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func toSnapshot(code string, participants []string) domain.ParticipantSnapshot {
	return domain.ParticipantSnapshot{
		Code: domain.RoomCode(code),
		Participants: lo.Map(participants, func(p string, _ int) domain.ParticipantID {
			return domain.ParticipantID(p)
		}),
	}
}

func toMessages(messages []pb.Message) []domain.Message {
	return lo.Map(messages, func(m pb.Message, _ int) domain.Message {
		return domain.Message{
			ID:       domain.MessageID(m.ID),
			RoomCode: domain.RoomCode(m.Room),
			Sender:   domain.ParticipantID(m.Sender),
			Body:     m.Body,
			SentAt:   m.SentAt,
		}
	})
}

func fromMediaState(media pb.MediaState) domain.MediaState {
	return domain.MediaState{
		Devices:      domain.Devices{HasCamera: media.HasCamera, HasMicrophone: media.HasMicrophone},
		VideoEnabled: media.VideoEnabled,
		AudioEnabled: media.AudioEnabled,
		Streaming:    media.Streaming,
	}
}
