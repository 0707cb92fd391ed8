package main

import (
	"context"
	"fmt"
	"huddle/domain"
	"huddle/infrastructure/grpc/client"
	"huddle/internal"
	pb "huddle/proto/room"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run opens a session, then polls the bound room every POLL_INTERVAL while
// reading commands from stdin.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	_ = godotenv.Load()
	var config internal.ClientConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if len(os.Args) > 1 {
		config.Participant = os.Args[1]
	}
	if config.Participant == "" {
		return exitConfig, fmt.Errorf("config error: PARTICIPANT or a first argument is required")
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Establish connection to the server.
	conn, err := grpc.NewClient(config.ServerAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	session := client.NewRoomClient(log, pb.NewRoomServiceClient(conn), config.CallTimeout)
	media, err := session.Open(ctx, domain.ParticipantID(config.Participant), domain.Devices{
		HasCamera:     config.HasCamera,
		HasMicrophone: config.HasMicrophone,
	})
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open session: %w", err)
	}
	defer func() { _ = session.Close(context.Background()) }()

	constraints := media.Constraints()
	color.Green.Printf(">>> Connected to %s as %s (video %s, audio %s). Type /help.\n",
		config.ServerAddress, config.Participant, onOff(constraints.Video), onOff(constraints.Audio))

	// 4. Poll and input loop.
	c := newConsole(log, session, os.Stdout)
	lines := readLines(ctx, os.Stdin)
	ticker := pollEvery(config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping client...")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok || !c.Handle(ctx, line) {
				return exitOK, nil
			}
		case <-ticker.C:
			if c.room == "" {
				continue
			}
			v, err := session.Poll(ctx)
			if err != nil {
				c.report(err)
				continue
			}
			c.Render(view{snapshot: v.Snapshot, messages: v.Messages, gone: v.Gone})
		}
	}
}
