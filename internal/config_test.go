package internal

import (
	"os"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("BADGER_FILEPATH", "/tmp/huddle")
	t.Setenv("PORT", "50051")

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	req.NoError(err)

	req.Equal(50051, config.Port)
	req.Equal(8, config.MaxCodeAttempts)
	req.Equal(128, config.MaxCASAttempts)
	req.Equal(168*time.Hour, config.HistoryRetention)
	req.Nil(config.LimitMessages)
	req.Equal([]string{"stun:stun.l.google.com:19302"}, config.ICEServerList())
}

func TestConfig_Required(t *testing.T) {
	req := require.New(t)
	t.Setenv("PORT", "50051")
	t.Setenv("BADGER_FILEPATH", "")
	req.NoError(os.Unsetenv("BADGER_FILEPATH"))

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	req.Error(err)
}

func TestSplitList(t *testing.T) {
	req := require.New(t)
	req.Equal([]string{"stun:a", "turn:b"}, SplitList(" stun:a, ,turn:b "))
	req.Empty(SplitList(""))
}
