package internal

import (
	"strings"
	"time"
)

// Config is decoded from the environment of cmd/server.
type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	// Empty keeps the search index in memory.
	BlugeFilepath string `env:"BLUGE_FILEPATH"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO"`
	Host          string `env:"HOST,default=0.0.0.0"`
	Port          int    `env:"PORT,required=true"`
	DebugPort     int    `env:"DEBUG_PORT,default=8081"`

	BufferSize      int           `env:"BUFFER_SIZE,default=1024"`
	SinkTimeout     time.Duration `env:"SINK_TIMEOUT,default=2s"`
	StoreTimeout    time.Duration `env:"STORE_TIMEOUT,default=3s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`

	MaxCodeAttempts int  `env:"MAX_CODE_ATTEMPTS,default=8"`
	MaxCASAttempts  int  `env:"MAX_CAS_ATTEMPTS,default=128"`
	LimitMessages   *int `env:"LIMIT_MESSAGES"`

	IdempotencyTTL      time.Duration `env:"IDEMPOTENCY_TTL,default=10m"`
	HistoryRetention    time.Duration `env:"HISTORY_RETENTION,default=168h"`
	RetentionInterval   time.Duration `env:"RETENTION_INTERVAL,default=1h"`
	SessionTTL          time.Duration `env:"SESSION_TTL,default=30m"`
	SessionReapInterval time.Duration `env:"SESSION_REAP_INTERVAL,default=1m"`
	MetricInterval      time.Duration `env:"METRIC_INTERVAL,default=30s"`

	// Comma separated STUN/TURN urls handed to the media transport.
	ICEServers string `env:"ICE_SERVERS,default=stun:stun.l.google.com:19302"`
}

func (c Config) ICEServerList() []string {
	return SplitList(c.ICEServers)
}

// ClientConfig is decoded from the environment of cmd/client.
type ClientConfig struct {
	ServerAddress string        `env:"SERVER_ADDRESS,default=localhost:50051"`
	LogLevel      string        `env:"LOG_LEVEL,default=INFO"`
	Participant   string        `env:"PARTICIPANT"`
	PollInterval  time.Duration `env:"POLL_INTERVAL,default=5s"`
	CallTimeout   time.Duration `env:"CALL_TIMEOUT,default=5s"`
	HasCamera     bool          `env:"HAS_CAMERA,default=false"`
	HasMicrophone bool          `env:"HAS_MICROPHONE,default=false"`
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
