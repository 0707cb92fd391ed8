package observability

import (
	"huddle/domain/event"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// MonitoringStats is a point in time view of the counters, for logs and the debug page.
type MonitoringStats struct {
	RoomsCreated     uint64  `json:"rooms_created"`
	RoomsDeleted     uint64  `json:"rooms_deleted"`
	RoomsPurged      uint64  `json:"rooms_purged"`
	Joins            uint64  `json:"joins"`
	Leaves           uint64  `json:"leaves"`
	MessagesAppended uint64  `json:"messages_appended"`
	MessagesPurged   uint64  `json:"messages_purged"`
	CASRetries       uint64  `json:"cas_retries"`
	EventsDropped    uint64  `json:"events_dropped"`
	SinkErrors       uint64  `json:"sink_errors"`
	SessionsOpen     int64   `json:"sessions_open"`
	MessagesPerSec   float64 `json:"messages_per_sec"`

	AllocMemMb uint64 `json:"alloc_mem_mb"`
	NumGC      uint32 `json:"num_gc"`
	QueueSize  int    `json:"queue_size"`
	QueueCap   int    `json:"queue_cap"`
}

// MonitoringManager holds process wide counters.
// A nil *MonitoringManager is valid and counts nothing.
type MonitoringManager struct {
	log         *slog.Logger
	mu          sync.RWMutex
	latestStats MonitoringStats
	lastCheck   time.Time
	lastAppends uint64

	roomsCreated     atomic.Uint64
	roomsDeleted     atomic.Uint64
	roomsPurged      atomic.Uint64
	joins            atomic.Uint64
	leaves           atomic.Uint64
	messagesAppended atomic.Uint64
	messagesPurged   atomic.Uint64
	casRetries       atomic.Uint64
	eventsDropped    atomic.Uint64
	sinkErrors       atomic.Uint64
	sessionsOpen     atomic.Int64
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{log: log, lastCheck: time.Now()}
}

var _ event.Handler = (*MonitoringManager)(nil)

// Handle counts committed domain events.
func (mm *MonitoringManager) Handle(e event.DomainEvent) {
	if mm == nil {
		return
	}
	switch evt := e.(type) {
	case event.RoomCreated:
		mm.roomsCreated.Add(1)
	case event.ParticipantJoined:
		mm.joins.Add(1)
	case event.ParticipantLeft:
		mm.leaves.Add(1)
	case event.RoomDeleted:
		mm.roomsDeleted.Add(1)
	case event.MessageAppended:
		mm.messagesAppended.Add(1)
	case event.RoomPurged:
		mm.roomsPurged.Add(1)
		mm.messagesPurged.Add(uint64(evt.Messages))
	}
}

func (mm *MonitoringManager) IncrCASRetries() {
	if mm != nil {
		mm.casRetries.Add(1)
	}
}

func (mm *MonitoringManager) IncrEventsDropped() {
	if mm != nil {
		mm.eventsDropped.Add(1)
	}
}

func (mm *MonitoringManager) IncrSinkErrors() {
	if mm != nil {
		mm.sinkErrors.Add(1)
	}
}

func (mm *MonitoringManager) SessionOpened() {
	if mm != nil {
		mm.sessionsOpen.Add(1)
	}
}

func (mm *MonitoringManager) SessionClosed() {
	if mm != nil {
		mm.sessionsOpen.Add(-1)
	}
}

func (mm *MonitoringManager) UpdateQueue(size, capacity int) {
	if mm == nil {
		return
	}
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.latestStats.QueueSize = size
	mm.latestStats.QueueCap = capacity
}

// Refresh recomputes the snapshot returned by GetLatest.
func (mm *MonitoringManager) Refresh() MonitoringStats {
	if mm == nil {
		return MonitoringStats{}
	}
	mm.mu.Lock()
	defer mm.mu.Unlock()

	now := time.Now()
	appends := mm.messagesAppended.Load()
	if elapsed := now.Sub(mm.lastCheck).Seconds(); elapsed > 0 {
		mm.latestStats.MessagesPerSec = float64(appends-mm.lastAppends) / elapsed
	}
	mm.lastCheck = now
	mm.lastAppends = appends

	mm.latestStats.RoomsCreated = mm.roomsCreated.Load()
	mm.latestStats.RoomsDeleted = mm.roomsDeleted.Load()
	mm.latestStats.RoomsPurged = mm.roomsPurged.Load()
	mm.latestStats.Joins = mm.joins.Load()
	mm.latestStats.Leaves = mm.leaves.Load()
	mm.latestStats.MessagesAppended = appends
	mm.latestStats.MessagesPurged = mm.messagesPurged.Load()
	mm.latestStats.CASRetries = mm.casRetries.Load()
	mm.latestStats.EventsDropped = mm.eventsDropped.Load()
	mm.latestStats.SinkErrors = mm.sinkErrors.Load()
	mm.latestStats.SessionsOpen = mm.sessionsOpen.Load()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	mm.latestStats.AllocMemMb = m.Alloc / 1024 / 1024
	mm.latestStats.NumGC = m.NumGC

	return mm.latestStats
}

func (mm *MonitoringManager) GetLatest() MonitoringStats {
	if mm == nil {
		return MonitoringStats{}
	}
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.latestStats
}

// AsMap flattens the stats for the debug page.
func (s MonitoringStats) AsMap() map[string]any {
	return map[string]any{
		"rooms_created":     s.RoomsCreated,
		"rooms_deleted":     s.RoomsDeleted,
		"rooms_purged":      s.RoomsPurged,
		"joins":             s.Joins,
		"leaves":            s.Leaves,
		"messages_appended": s.MessagesAppended,
		"messages_purged":   s.MessagesPurged,
		"cas_retries":       s.CASRetries,
		"events_dropped":    s.EventsDropped,
		"sink_errors":       s.SinkErrors,
		"sessions_open":     s.SessionsOpen,
		"messages_per_sec":  s.MessagesPerSec,
		"alloc_mem_mb":      s.AllocMemMb,
		"num_gc":            s.NumGC,
		"queue_size":        s.QueueSize,
		"queue_cap":         s.QueueCap,
	}
}
