package workers

import (
	"context"
	"log/slog"
	"time"

	"chat-server/observability"
)

// StatsWorker periodically logs a monitoring snapshot.
type StatsWorker struct {
	monitor  *observability.Monitor
	interval time.Duration
	log      *slog.Logger
}

func NewStatsWorker(monitor *observability.Monitor, interval time.Duration, log *slog.Logger) *StatsWorker {
	return &StatsWorker{monitor: monitor, interval: interval, log: log}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return nil
		case <-ticker.C:
			stats := w.monitor.Snapshot()
			w.log.Info("Relay stats",
				"connections_open", stats.ConnectionsOpen,
				"events_handled", stats.EventsHandled,
				"emissions_delivered", stats.EmissionsDelivered,
				"emissions_dropped", stats.EmissionsDropped,
				"payloads_rejected", stats.PayloadsRejected,
				"alloc_mem_mb", stats.AllocMemMb,
				"cpu_percent", stats.CPUPercent,
			)
		}
	}
}
