package main

import (
	"context"
	"errors"
	"fmt"
	"huddle/domain"
	"huddle/infrastructure/grpc/server"
	"huddle/infrastructure/storage"
	"huddle/internal"
	"huddle/observability"
	pb "huddle/proto/room"
	"huddle/runtime"
	"huddle/runtime/workers"
	"huddle/services"
	"huddle/sink"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"google.golang.org/grpc"

	grpc3 "github.com/mama165/sdk-go/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a fatal error.
// Deferred closes run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Store (BadgerDB) and search index (Bluge)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(buildBlugeConfig(config))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	monitoring := observability.NewMonitoringManager(logger)

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		debugServer := internal.StartDebugServer(logger, db, config.DebugPort, endpoint, internal.DefaultMapper,
			func() map[string]any { return monitoring.Refresh().AsMap() })
		defer func() { _ = internal.ShutdownDebugServer(debugServer, time.Second) }()
	}

	// 3. Repositories, event pipeline and coordination
	roomRepository := storage.NewRoomRepository(db, logger, config.StoreTimeout, config.IdempotencyTTL)
	messageRepository := storage.NewMessageRepository(db, logger, config.StoreTimeout)
	searchIndex := storage.NewSearchIndex(blugeWriter, logger, config.StoreTimeout)

	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(logger, supervisor, monitoring, config.BufferSize, config.SinkTimeout).
		Add(
			sink.NewHandlerSink(monitoring),
			sink.NewSearchSink(searchIndex, logger),
		)

	registry := runtime.NewRoomRegistry(logger, roomRepository, orchestrator, monitoring,
		config.MaxCodeAttempts, config.MaxCASAttempts)
	messageLog := runtime.NewMessageLog(logger, messageRepository, searchIndex, orchestrator,
		lo.FromPtr(config.LimitMessages))
	chatService := services.NewChatService(logger, registry, messageLog, monitoring,
		domain.MediaConfig{ICEServers: config.ICEServerList()})

	orchestrator.AddWorkers(
		workers.NewRetentionWorker(logger, messageLog, config.HistoryRetention, config.RetentionInterval),
		workers.NewSessionReaper(logger, chatService, config.SessionTTL, config.SessionReapInterval),
		workers.NewHeartbeatWorker(logger, monitoring, orchestrator, config.MetricInterval),
	)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)

	// 5. Start the pipeline and the background workers
	go func() {
		logger.Info("Starting orchestrator...")
		orchestrator.Start(ctx)
	}()

	// 6. gRPC Server Setup
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s := grpc.NewServer(grpc.ChainUnaryInterceptor(grpc3.UnaryLoggingInterceptor(logger)))
	pb.RegisterRoomServiceServer(s, server.NewRoomServer(logger, chatService))

	go func() {
		logger.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			logger.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		orchestrator.Stop()
		return exitRuntime, err
	}

	// 8. Graceful Shutdown
	logger.Info("Shutting down gracefully...")
	s.GracefulStop()
	orchestrator.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}

func buildBlugeConfig(config internal.Config) bluge.Config {
	if config.BlugeFilepath == "" {
		return bluge.InMemoryOnlyConfig()
	}
	return bluge.DefaultConfig(config.BlugeFilepath)
}
