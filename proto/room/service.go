package room

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "huddle.room.v1.RoomService"

const (
	RoomService_OpenSession_FullMethodName  = "/" + ServiceName + "/OpenSession"
	RoomService_CloseSession_FullMethodName = "/" + ServiceName + "/CloseSession"
	RoomService_CreateRoom_FullMethodName   = "/" + ServiceName + "/CreateRoom"
	RoomService_JoinRoom_FullMethodName     = "/" + ServiceName + "/JoinRoom"
	RoomService_LeaveRoom_FullMethodName    = "/" + ServiceName + "/LeaveRoom"
	RoomService_Send_FullMethodName         = "/" + ServiceName + "/Send"
	RoomService_Snapshot_FullMethodName     = "/" + ServiceName + "/Snapshot"
	RoomService_Read_FullMethodName         = "/" + ServiceName + "/Read"
	RoomService_Poll_FullMethodName         = "/" + ServiceName + "/Poll"
	RoomService_History_FullMethodName      = "/" + ServiceName + "/History"
	RoomService_Search_FullMethodName       = "/" + ServiceName + "/Search"
	RoomService_ToggleMedia_FullMethodName  = "/" + ServiceName + "/ToggleMedia"
	RoomService_SetStreaming_FullMethodName = "/" + ServiceName + "/SetStreaming"
)

// RoomServiceServer is the server API for RoomService.
type RoomServiceServer interface {
	OpenSession(context.Context, *OpenSessionRequest) (*OpenSessionResponse, error)
	CloseSession(context.Context, *SessionRequest) (*Empty, error)
	CreateRoom(context.Context, *CreateRoomRequest) (*CreateRoomResponse, error)
	JoinRoom(context.Context, *JoinRoomRequest) (*SnapshotResponse, error)
	LeaveRoom(context.Context, *SessionRequest) (*Empty, error)
	Send(context.Context, *SendRequest) (*SendResponse, error)
	Snapshot(context.Context, *SessionRequest) (*SnapshotResponse, error)
	Read(context.Context, *ReadRequest) (*MessagesResponse, error)
	Poll(context.Context, *SessionRequest) (*PollResponse, error)
	History(context.Context, *HistoryRequest) (*MessagesResponse, error)
	Search(context.Context, *SearchRequest) (*SearchResponse, error)
	ToggleMedia(context.Context, *ToggleMediaRequest) (*MediaResponse, error)
	SetStreaming(context.Context, *SetStreamingRequest) (*MediaResponse, error)
}

func RegisterRoomServiceServer(s grpc.ServiceRegistrar, srv RoomServiceServer) {
	s.RegisterService(&RoomService_ServiceDesc, srv)
}

// unary builds the method descriptor of one request/response call.
func unary[Req, Resp any](name string, call func(RoomServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RoomServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(RoomServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var RoomService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RoomServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("OpenSession", RoomServiceServer.OpenSession),
		unary("CloseSession", RoomServiceServer.CloseSession),
		unary("CreateRoom", RoomServiceServer.CreateRoom),
		unary("JoinRoom", RoomServiceServer.JoinRoom),
		unary("LeaveRoom", RoomServiceServer.LeaveRoom),
		unary("Send", RoomServiceServer.Send),
		unary("Snapshot", RoomServiceServer.Snapshot),
		unary("Read", RoomServiceServer.Read),
		unary("Poll", RoomServiceServer.Poll),
		unary("History", RoomServiceServer.History),
		unary("Search", RoomServiceServer.Search),
		unary("ToggleMedia", RoomServiceServer.ToggleMedia),
		unary("SetStreaming", RoomServiceServer.SetStreaming),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "huddle/room/v1/room_service",
}

// RoomServiceClient is the client API for RoomService.
type RoomServiceClient interface {
	OpenSession(ctx context.Context, in *OpenSessionRequest, opts ...grpc.CallOption) (*OpenSessionResponse, error)
	CloseSession(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*Empty, error)
	CreateRoom(ctx context.Context, in *CreateRoomRequest, opts ...grpc.CallOption) (*CreateRoomResponse, error)
	JoinRoom(ctx context.Context, in *JoinRoomRequest, opts ...grpc.CallOption) (*SnapshotResponse, error)
	LeaveRoom(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*Empty, error)
	Send(ctx context.Context, in *SendRequest, opts ...grpc.CallOption) (*SendResponse, error)
	Snapshot(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*SnapshotResponse, error)
	Read(ctx context.Context, in *ReadRequest, opts ...grpc.CallOption) (*MessagesResponse, error)
	Poll(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*PollResponse, error)
	History(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*MessagesResponse, error)
	Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error)
	ToggleMedia(ctx context.Context, in *ToggleMediaRequest, opts ...grpc.CallOption) (*MediaResponse, error)
	SetStreaming(ctx context.Context, in *SetStreamingRequest, opts ...grpc.CallOption) (*MediaResponse, error)
}

type roomServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewRoomServiceClient(cc grpc.ClientConnInterface) RoomServiceClient {
	return &roomServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *roomServiceClient) OpenSession(ctx context.Context, in *OpenSessionRequest, opts ...grpc.CallOption) (*OpenSessionResponse, error) {
	return invoke[OpenSessionResponse](ctx, c.cc, RoomService_OpenSession_FullMethodName, in, opts)
}

func (c *roomServiceClient) CloseSession(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, RoomService_CloseSession_FullMethodName, in, opts)
}

func (c *roomServiceClient) CreateRoom(ctx context.Context, in *CreateRoomRequest, opts ...grpc.CallOption) (*CreateRoomResponse, error) {
	return invoke[CreateRoomResponse](ctx, c.cc, RoomService_CreateRoom_FullMethodName, in, opts)
}

func (c *roomServiceClient) JoinRoom(ctx context.Context, in *JoinRoomRequest, opts ...grpc.CallOption) (*SnapshotResponse, error) {
	return invoke[SnapshotResponse](ctx, c.cc, RoomService_JoinRoom_FullMethodName, in, opts)
}

func (c *roomServiceClient) LeaveRoom(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, RoomService_LeaveRoom_FullMethodName, in, opts)
}

func (c *roomServiceClient) Send(ctx context.Context, in *SendRequest, opts ...grpc.CallOption) (*SendResponse, error) {
	return invoke[SendResponse](ctx, c.cc, RoomService_Send_FullMethodName, in, opts)
}

func (c *roomServiceClient) Snapshot(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*SnapshotResponse, error) {
	return invoke[SnapshotResponse](ctx, c.cc, RoomService_Snapshot_FullMethodName, in, opts)
}

func (c *roomServiceClient) Read(ctx context.Context, in *ReadRequest, opts ...grpc.CallOption) (*MessagesResponse, error) {
	return invoke[MessagesResponse](ctx, c.cc, RoomService_Read_FullMethodName, in, opts)
}

func (c *roomServiceClient) Poll(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*PollResponse, error) {
	return invoke[PollResponse](ctx, c.cc, RoomService_Poll_FullMethodName, in, opts)
}

func (c *roomServiceClient) History(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*MessagesResponse, error) {
	return invoke[MessagesResponse](ctx, c.cc, RoomService_History_FullMethodName, in, opts)
}

func (c *roomServiceClient) Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error) {
	return invoke[SearchResponse](ctx, c.cc, RoomService_Search_FullMethodName, in, opts)
}

func (c *roomServiceClient) ToggleMedia(ctx context.Context, in *ToggleMediaRequest, opts ...grpc.CallOption) (*MediaResponse, error) {
	return invoke[MediaResponse](ctx, c.cc, RoomService_ToggleMedia_FullMethodName, in, opts)
}

func (c *roomServiceClient) SetStreaming(ctx context.Context, in *SetStreamingRequest, opts ...grpc.CallOption) (*MediaResponse, error) {
	return invoke[MediaResponse](ctx, c.cc, RoomService_SetStreaming_FullMethodName, in, opts)
}
