package domain

type Command interface {
	Code() RoomCode
}

type CreateRoomCommand struct {
	Creator    ParticipantID `validate:"required"`
	RequestKey string
}

func (c CreateRoomCommand) Code() RoomCode {
	return ""
}

type JoinRoomCommand struct {
	Room        RoomCode      `validate:"required"`
	Participant ParticipantID `validate:"required"`
}

func (c JoinRoomCommand) Code() RoomCode {
	return c.Room
}

type LeaveRoomCommand struct {
	Room        RoomCode      `validate:"required"`
	Participant ParticipantID `validate:"required"`
}

func (c LeaveRoomCommand) Code() RoomCode {
	return c.Room
}

type PostMessageCommand struct {
	Room   RoomCode      `validate:"required"`
	Sender ParticipantID `validate:"required"`
	Body   string        `validate:"required"`
}

func (c PostMessageCommand) Code() RoomCode {
	return c.Room
}

type GetMessagesCommand struct {
	Room    RoomCode `validate:"required"`
	AfterID MessageID
}

func (c GetMessagesCommand) Code() RoomCode {
	return c.Room
}
