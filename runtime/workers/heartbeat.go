package workers

import (
	"context"
	"huddle/observability"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// QueueGauge reports the length and capacity of a buffered queue.
type QueueGauge interface {
	Queue() (int, int)
}

// HeartbeatWorker periodically logs the counters with the process CPU, RAM and status.
type HeartbeatWorker struct {
	log        *slog.Logger
	monitoring *observability.MonitoringManager
	queue      QueueGauge
	interval   time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, monitoring *observability.MonitoringManager,
	queue QueueGauge, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, monitoring: monitoring, queue: queue, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.beat(p)
		}
	}
}

func (w *HeartbeatWorker) beat(p *process.Process) {
	if w.queue != nil {
		w.monitoring.UpdateQueue(w.queue.Queue())
	}
	stats := w.monitoring.Refresh()

	rss, cpu, status, err := getSelfStats(p)
	if err != nil {
		w.log.Error("Failed to collect self stats", "err", err)
	}
	w.log.Info("Heartbeat",
		"pid", p.Pid,
		"status", status,
		"cpu_percent", cpu,
		"ram_bytes", rss,
		"sessions", stats.SessionsOpen,
		"rooms_created", stats.RoomsCreated,
		"rooms_deleted", stats.RoomsDeleted,
		"messages", stats.MessagesAppended,
		"messages_per_sec", stats.MessagesPerSec,
		"cas_retries", stats.CASRetries,
		"events_dropped", stats.EventsDropped,
		"queue", stats.QueueSize,
		"queue_cap", stats.QueueCap,
	)
}

// getSelfStats retrieves memory, CPU and OS status for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
