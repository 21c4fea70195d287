package workers

import (
	"context"
	"time"

	"ngo_connect_backend/internal/logger"
)

// CatalogRefresher rewrites cached rosters from their source.
type CatalogRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// CatalogWorker reloads cached NGO rosters on a fixed interval so matching
// picks up catalog changes without waiting for the cache TTL.
type CatalogWorker struct {
	refresher CatalogRefresher
	interval  time.Duration
}

func NewCatalogWorker(refresher CatalogRefresher, interval time.Duration) *CatalogWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CatalogWorker{refresher: refresher, interval: interval}
}

// Start blocks until ctx is cancelled.
func (w *CatalogWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("catalog worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

// refresh keeps the previous entries when the source fails; they expire on
// their own TTL.
func (w *CatalogWorker) refresh(ctx context.Context) {
	rosters, err := w.refresher.Refresh(ctx)
	logger.WorkerLog("catalog", "refresh", err)
	if err == nil {
		logger.Debug("catalog refreshed", "rosters", rosters)
	}
}
