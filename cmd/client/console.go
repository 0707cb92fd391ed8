package main

import (
	"bufio"
	"context"
	"fmt"
	"huddle/domain"
	"huddle/domain/search"
	"huddle/errors"
	"huddle/projection"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/samber/lo"
)

// roomSession is the remote session driven by the console.
type roomSession interface {
	CreateRoom(ctx context.Context, requestKey string) (domain.RoomCode, error)
	JoinRoom(ctx context.Context, code domain.RoomCode) (domain.ParticipantSnapshot, error)
	LeaveRoom(ctx context.Context) error
	Send(ctx context.Context, body string) (domain.MessageID, error)
	ToggleMedia(ctx context.Context, kind domain.MediaKind) (domain.MediaState, error)
	History(ctx context.Context, code domain.RoomCode, afterID domain.MessageID) ([]domain.Message, error)
	Search(ctx context.Context, code domain.RoomCode, terms string, limit int) ([]domain.SearchHit, error)
	Participant() domain.ParticipantID
}

type view struct {
	snapshot domain.ParticipantSnapshot
	messages []domain.Message
	gone     bool
}

// console renders polls and turns typed lines into session calls.
type console struct {
	log      *slog.Logger
	session  roomSession
	out      io.Writer
	room     domain.RoomCode
	members  []domain.ParticipantID
	timeline *projection.Timeline
}

func newConsole(log *slog.Logger, session roomSession, out io.Writer) *console {
	return &console{log: log, session: session, out: out}
}

const help = `/create            create a room and join it
/join <code>       join a room
/leave             leave the current room
/video | /audio    toggle a media kind
/history <code>    print the retained log of a room
/search <terms>    search the current room
/quit              exit
anything else is sent to the room`

// Handle executes one input line. It returns false when the user asked to quit.
func (c *console) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	if !strings.HasPrefix(line, "/") {
		c.send(ctx, line)
		return true
	}

	command, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch command {
	case "quit", "exit":
		return false
	case "help":
		fmt.Fprintln(c.out, help)
	case "create":
		code, err := c.session.CreateRoom(ctx, uuid.NewString())
		if c.report(err) {
			return true
		}
		c.bind(code)
		c.members = []domain.ParticipantID{c.session.Participant()}
		c.info("Room %s created, share this code", code)
	case "join":
		snapshot, err := c.session.JoinRoom(ctx, domain.RoomCode(arg))
		if c.report(err) {
			return true
		}
		c.bind(snapshot.Code)
		c.renderMembers(snapshot.Participants)
	case "leave":
		if c.report(c.session.LeaveRoom(ctx)) {
			return true
		}
		c.info("Left %s", c.room)
		c.unbind()
	case "video", "audio":
		media, err := c.session.ToggleMedia(ctx, domain.MediaKind(command))
		if c.report(err) {
			return true
		}
		constraints := media.Constraints()
		c.info("video %s, audio %s", onOff(constraints.Video), onOff(constraints.Audio))
	case "history":
		code := domain.RoomCode(lo.Ternary(arg == "", c.room.String(), arg))
		messages, err := c.session.History(ctx, code, 0)
		if c.report(err) {
			return true
		}
		c.renderMessages(messages)
	case "search":
		query := search.NewSearchQuery(arg)
		hits, err := c.session.Search(ctx, query.In(c.room), query.Terms, query.Limit)
		if c.report(err) {
			return true
		}
		for _, hit := range hits {
			fmt.Fprintf(c.out, "%s %s %s\n",
				color.Gray.Sprint(hit.SentAt.Format(domain.DisplayTimeLayout)),
				color.Cyan.Sprint(hit.Sender),
				hit.Body)
		}
		c.info("%d hit(s)", len(hits))
	default:
		c.warn("Unknown command %q, try /help", command)
	}
	return true
}

// Render prints what changed since the previous poll.
func (c *console) Render(v view) {
	if v.gone {
		c.warn("Room %s no longer exists", c.room)
		c.unbind()
		return
	}
	if v.snapshot.Code != "" && !slices.Equal(v.snapshot.Participants, c.members) {
		c.renderMembers(v.snapshot.Participants)
	}
	if c.timeline != nil {
		c.renderMessages(c.timeline.Merge(v.messages))
	}
}

func (c *console) bind(code domain.RoomCode) {
	if c.room != code {
		c.timeline = projection.NewTimeline(code)
	}
	c.room = code
}

func (c *console) unbind() {
	c.room, c.members, c.timeline = "", nil, nil
}

func (c *console) send(ctx context.Context, body string) {
	_, err := c.session.Send(ctx, body)
	if errors.Is(err, errors.ErrRoomNotFound) {
		c.warn("Room %s no longer exists", c.room)
		c.unbind()
		return
	}
	c.report(err)
}

func (c *console) renderMembers(participants []domain.ParticipantID) {
	c.members = participants
	names := lo.Map(participants, func(p domain.ParticipantID, _ int) string { return p.String() })
	c.info("[%s] %d in room: %s", c.room, len(participants), strings.Join(names, ", "))
}

func (c *console) renderMessages(messages []domain.Message) {
	me := c.session.Participant()
	for _, m := range messages {
		sender := color.Cyan.Sprint(m.Sender)
		if m.Sender == me {
			sender = color.Green.Sprint(m.Sender)
		}
		fmt.Fprintf(c.out, "%s %s: %s\n", color.Gray.Sprint(m.DisplayTime()), sender, m.Body)
	}
}

// report prints err and returns true when there was one.
func (c *console) report(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, errors.ErrRoomNotFound):
		c.warn("No such room")
	case errors.Is(err, errors.ErrNotInRoom):
		c.warn("Join or create a room first")
	case errors.Is(err, errors.ErrInvalidCommand):
		c.warn("Invalid input")
	default:
		c.log.Error("Call failed", "error", err)
		fmt.Fprintln(c.out, color.Red.Sprintf("error: %v", err))
	}
	return true
}

func (c *console) info(format string, args ...any) {
	fmt.Fprintln(c.out, color.Yellow.Sprintf(format, args...))
}

func (c *console) warn(format string, args ...any) {
	fmt.Fprintln(c.out, color.Magenta.Sprintf(format, args...))
}

func onOff(on bool) string {
	return lo.Ternary(on, "on", "off")
}

// readLines forwards stdin lines until EOF or ctx ends.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func pollEvery(interval time.Duration) *time.Ticker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return time.NewTicker(interval)
}
