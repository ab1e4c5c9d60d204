package worker

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"awstatus/internal/catalog"
	"awstatus/internal/store"
)

// Refresher re-fetches the catalog and issue feeds on a fixed interval.
// A failed cycle keeps the previous snapshot and the loop running.
type Refresher struct {
	store    *store.Store
	catalog  *catalog.Catalog
	logger   *zap.Logger
	interval time.Duration
	clock    clockwork.Clock
}

// NewRefresher initializes the refresher with a real clock.
func NewRefresher(st *store.Store, cat *catalog.Catalog, logger *zap.Logger, interval time.Duration) *Refresher {
	return &Refresher{
		store:    st,
		catalog:  cat,
		logger:   logger,
		interval: interval,
		clock:    clockwork.NewRealClock(),
	}
}

// Start runs the refresh loop until the context is canceled. The first
// cycle runs immediately.
func (r *Refresher) Start(ctx context.Context) {
	r.logger.Info("Refresher started", zap.Duration("interval", r.interval))

	for {
		if err := r.refreshOnce(ctx); err != nil {
			if ctx.Err() != nil {
				r.logger.Info("Refresher shutting down")
				return
			}
			r.logger.Error("Refresh failed, keeping previous snapshot", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			r.logger.Info("Refresher shutting down")
			return
		case <-r.clock.After(r.interval):
		}
	}
}

func (r *Refresher) refreshOnce(ctx context.Context) error {
	if err := r.catalog.Refresh(ctx); err != nil {
		return err
	}
	return r.store.Refresh(ctx)
}
