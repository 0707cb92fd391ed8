package server

import (
	"context"
	"huddle/domain"
	"huddle/domain/event"
	"huddle/errors"
	pb "huddle/proto/room"
	"huddle/runtime"
	"huddle/services"
	"log/slog"

	"github.com/samber/lo"
)

var _ pb.RoomServiceServer = (*RoomServer)(nil)

// RoomServer exposes the ChatService sessions over gRPC.
// Session ids are handed out by OpenSession and carried in every later request.
type RoomServer struct {
	log  *slog.Logger
	chat *services.ChatService
}

func NewRoomServer(log *slog.Logger, chat *services.ChatService) *RoomServer {
	return &RoomServer{log: log, chat: chat}
}

func (s *RoomServer) OpenSession(_ context.Context, req *pb.OpenSessionRequest) (*pb.OpenSessionResponse, error) {
	session, err := s.chat.OpenSession(domain.ParticipantID(req.Participant), domain.Devices{
		HasCamera:     req.Devices.HasCamera,
		HasMicrophone: req.Devices.HasMicrophone,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.OpenSessionResponse{
		SessionID:  string(session.ID()),
		Media:      toMediaState(session.Media()),
		ICEServers: s.chat.MediaConfig().ICEServers,
	}, nil
}

func (s *RoomServer) CloseSession(_ context.Context, req *pb.SessionRequest) (*pb.Empty, error) {
	if err := s.chat.CloseSession(services.SessionID(req.SessionID)); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.Empty{}, nil
}

func (s *RoomServer) CreateRoom(ctx context.Context, req *pb.CreateRoomRequest) (*pb.CreateRoomResponse, error) {
	session, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}
	code, err := session.CreateRoom(ctx, req.RequestKey)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.CreateRoomResponse{Code: code.String()}, nil
}

func (s *RoomServer) JoinRoom(ctx context.Context, req *pb.JoinRoomRequest) (*pb.SnapshotResponse, error) {
	session, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}
	snapshot, err := session.JoinRoom(ctx, domain.RoomCode(req.Code))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return toSnapshotResponse(snapshot, false), nil
}

func (s *RoomServer) LeaveRoom(ctx context.Context, req *pb.SessionRequest) (*pb.Empty, error) {
	session, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}
	if err := session.LeaveRoom(ctx); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	s.drainGone(session)
	return &pb.Empty{}, nil
}

func (s *RoomServer) Send(ctx context.Context, req *pb.SendRequest) (*pb.SendResponse, error) {
	session, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}
	id, err := session.Send(ctx, req.Body)
	s.drainGone(session)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.SendResponse{MessageID: uint64(id)}, nil
}

func (s *RoomServer) Snapshot(ctx context.Context, req *pb.SessionRequest) (*pb.SnapshotResponse, error) {
	session, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}
	snapshot, err := session.Snapshot(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return toSnapshotResponse(snapshot, s.drainGone(session)), nil
}

func (s *RoomServer) Read(ctx context.Context, req *pb.ReadRequest) (*pb.MessagesResponse, error) {
	session, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}
	messages, err := session.Read(ctx, domain.MessageID(req.AfterID))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.MessagesResponse{Messages: toMessages(messages), Gone: s.drainGone(session)}, nil
}

func (s *RoomServer) Poll(ctx context.Context, req *pb.SessionRequest) (*pb.PollResponse, error) {
	session, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}
	result, err := session.Poll(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	s.drainGone(session)
	return &pb.PollResponse{
		Code:         result.Room.String(),
		Participants: participants(result.Snapshot),
		Messages:     toMessages(result.Messages),
		Gone:         result.Gone,
		Media:        toMediaState(session.Media()),
	}, nil
}

func (s *RoomServer) History(ctx context.Context, req *pb.HistoryRequest) (*pb.MessagesResponse, error) {
	messages, err := s.chat.History(ctx, domain.RoomCode(req.Code), domain.MessageID(req.AfterID))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.MessagesResponse{Messages: toMessages(messages)}, nil
}

func (s *RoomServer) Search(ctx context.Context, req *pb.SearchRequest) (*pb.SearchResponse, error) {
	hits, err := s.chat.Search(ctx, domain.RoomCode(req.Code), req.Terms, req.Limit)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.SearchResponse{
		Hits: lo.Map(hits, func(hit domain.SearchHit, _ int) pb.SearchHit {
			return pb.SearchHit{
				ID:     uint64(hit.ID),
				Sender: hit.Sender.String(),
				Body:   hit.Body,
				SentAt: hit.SentAt,
				Lang:   hit.Lang,
				Score:  hit.Score,
			}
		}),
	}, nil
}

func (s *RoomServer) ToggleMedia(_ context.Context, req *pb.ToggleMediaRequest) (*pb.MediaResponse, error) {
	session, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}
	kind := domain.MediaKind(req.Kind)
	if kind != domain.Video && kind != domain.Audio {
		return nil, errors.MapToGRPCError(errors.ErrInvalidCommand)
	}
	return &pb.MediaResponse{Media: toMediaState(session.ToggleMedia(kind))}, nil
}

func (s *RoomServer) SetStreaming(_ context.Context, req *pb.SetStreamingRequest) (*pb.MediaResponse, error) {
	session, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}
	return &pb.MediaResponse{Media: toMediaState(session.SetStreaming(req.Streaming))}, nil
}

func (s *RoomServer) session(id string) (*services.Session, error) {
	session, err := s.chat.Session(services.SessionID(id))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return session, nil
}

// drainGone flushes the session outbox and reports whether its room vanished.
func (s *RoomServer) drainGone(source runtime.EventSource) bool {
	gone := false
	for _, evt := range source.FlushEvents() {
		if e, ok := evt.(event.RoomGone); ok {
			s.log.Info("Session unbound from vanished room", "room", e.Code)
			gone = true
		}
	}
	return gone
}

func toSnapshotResponse(snapshot domain.ParticipantSnapshot, gone bool) *pb.SnapshotResponse {
	return &pb.SnapshotResponse{
		Code:         snapshot.Code.String(),
		Participants: participants(snapshot),
		Gone:         gone,
	}
}

func participants(snapshot domain.ParticipantSnapshot) []string {
	return lo.Map(snapshot.Participants, func(p domain.ParticipantID, _ int) string {
		return p.String()
	})
}

func toMessages(messages []domain.Message) []pb.Message {
	return lo.Map(messages, func(m domain.Message, _ int) pb.Message {
		return pb.Message{
			ID:     uint64(m.ID),
			Room:   m.RoomCode.String(),
			Sender: m.Sender.String(),
			Body:   m.Body,
			SentAt: m.SentAt,
		}
	})
}

func toMediaState(media domain.MediaState) pb.MediaState {
	constraints := media.Constraints()
	return pb.MediaState{
		HasCamera:     media.Devices.HasCamera,
		HasMicrophone: media.Devices.HasMicrophone,
		VideoEnabled:  media.VideoEnabled,
		AudioEnabled:  media.AudioEnabled,
		Streaming:     media.Streaming,
		Video:         constraints.Video,
		Audio:         constraints.Audio,
	}
}
