package workers

import (
	"context"
	"huddle/contract"
	"log/slog"
	"time"
)

// SessionReaper closes sessions nobody used for ttl.
// Reaping only forgets the session: room membership is left untouched.
type SessionReaper struct {
	log      *slog.Logger
	sessions contract.IdleReaper
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

func NewSessionReaper(log *slog.Logger, sessions contract.IdleReaper, ttl, interval time.Duration) *SessionReaper {
	return &SessionReaper{
		log:      log,
		sessions: sessions,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
	}
}

func (w *SessionReaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := w.sessions.ReapIdle(ctx, w.now().Add(-w.ttl)); n > 0 {
				w.log.Debug("Idle sessions reaped", "count", n)
			}
		}
	}
}
