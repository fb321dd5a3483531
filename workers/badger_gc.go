package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// GCWorker runs badger value-log garbage collection on a fixed interval.
// Badger does not garbage collect on its own; without this the value log
// grows without bound on write-heavy chat traffic.
type GCWorker struct {
	db       *badger.DB
	interval time.Duration
	log      *slog.Logger
}

func NewGCWorker(db *badger.DB, interval time.Duration, log *slog.Logger) *GCWorker {
	return &GCWorker{db: db, interval: interval, log: log}
}

func (w *GCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return nil
		case <-ticker.C:
			// One pass per tick; ErrNoRewrite just means nothing to do.
			err := w.db.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				w.log.Warn("Value log GC failed", "error", err)
			}
		}
	}
}
