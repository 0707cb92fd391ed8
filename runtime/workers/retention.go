package workers

import (
	"context"
	"huddle/contract"
	"log/slog"
	"time"
)

// RetentionWorker purges the history of rooms deleted longer than retention ago.
type RetentionWorker struct {
	log        *slog.Logger
	messageLog contract.IMessageLog
	retention  time.Duration
	interval   time.Duration
	now        func() time.Time
}

func NewRetentionWorker(log *slog.Logger, messageLog contract.IMessageLog, retention, interval time.Duration) *RetentionWorker {
	return &RetentionWorker{
		log:        log,
		messageLog: messageLog,
		retention:  retention,
		interval:   interval,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (w *RetentionWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one purge pass. Errors are logged, the next tick tries again.
func (w *RetentionWorker) Sweep(ctx context.Context) int {
	purged, err := w.messageLog.PurgeExpired(ctx, w.now().Add(-w.retention))
	if err != nil {
		w.log.Error("Retention sweep incomplete", "purged", purged, "error", err)
	} else if purged > 0 {
		w.log.Info("Retention sweep", "purged", purged)
	}
	return purged
}
