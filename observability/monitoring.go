// Package observability aggregates live counters of the relay and process
// level metrics for the health endpoint and the periodic stats log.
package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/shirou/gopsutil/process"
)

// Stats is a point-in-time snapshot served on /healthz.
type Stats struct {
	ConnectionsOpen    int64   `json:"connections_open"`
	ConnectionsTotal   uint64  `json:"connections_total"`
	EventsHandled      uint64  `json:"events_handled"`
	EmissionsDelivered uint64  `json:"emissions_delivered"`
	EmissionsDropped   uint64  `json:"emissions_dropped"`
	PayloadsRejected   uint64  `json:"payloads_rejected"`
	AllocMemMb         uint64  `json:"alloc_mem_mb"`
	NumGC              uint32  `json:"num_gc"`
	RSSBytes           uint64  `json:"rss_bytes"`
	CPUPercent         float64 `json:"cpu_percent"`
}

// Monitor is safe for concurrent use; hot-path increments are atomic and the
// heavier process probing only happens on snapshot.
type Monitor struct {
	log *slog.Logger

	mu   sync.Mutex
	proc *process.Process

	connectionsOpen    int64
	connectionsTotal   uint64
	eventsHandled      uint64
	emissionsDelivered uint64
	emissionsDropped   uint64
	payloadsRejected   uint64
}

func NewMonitor(log *slog.Logger) *Monitor {
	// Process probing is optional; on failure the snapshot simply omits
	// CPU/RSS figures.
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Self process stats unavailable", "error", err)
		p = nil
	}
	return &Monitor{log: log, proc: p}
}

func (m *Monitor) IncrConnections() {
	atomic.AddInt64(&m.connectionsOpen, 1)
	atomic.AddUint64(&m.connectionsTotal, 1)
}

func (m *Monitor) DecrConnections() {
	atomic.AddInt64(&m.connectionsOpen, -1)
}

func (m *Monitor) IncrEventsHandled() {
	atomic.AddUint64(&m.eventsHandled, 1)
}

func (m *Monitor) IncrEmissionsDelivered() {
	atomic.AddUint64(&m.emissionsDelivered, 1)
}

func (m *Monitor) IncrEmissionsDropped() {
	atomic.AddUint64(&m.emissionsDropped, 1)
}

func (m *Monitor) IncrPayloadsRejected() {
	atomic.AddUint64(&m.payloadsRejected, 1)
}

// Snapshot collects the counters plus Go runtime and OS process metrics.
func (m *Monitor) Snapshot() Stats {
	stats := Stats{
		ConnectionsOpen:    atomic.LoadInt64(&m.connectionsOpen),
		ConnectionsTotal:   atomic.LoadUint64(&m.connectionsTotal),
		EventsHandled:      atomic.LoadUint64(&m.eventsHandled),
		EmissionsDelivered: atomic.LoadUint64(&m.emissionsDelivered),
		EmissionsDropped:   atomic.LoadUint64(&m.emissionsDropped),
		PayloadsRejected:   atomic.LoadUint64(&m.payloadsRejected),
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	stats.AllocMemMb = ms.Alloc / 1024 / 1024
	stats.NumGC = ms.NumGC

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.proc != nil {
		if memInfo, err := m.proc.MemoryInfo(); err == nil {
			stats.RSSBytes = memInfo.RSS
		}
		if cpu, err := m.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
	}
	return stats
}
