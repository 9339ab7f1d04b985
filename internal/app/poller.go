package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/reportwatch/internal/reports"
	"github.com/five82/reportwatch/internal/state"
)

const defaultHealthInterval = 10 * time.Second

// HealthFetcher is the part of the API client the health poller needs.
type HealthFetcher interface {
	Health(ctx context.Context) (*reports.Health, error)
}

// StartHealthPoller launches a background goroutine that refreshes backend
// health in the store at a fixed cadence until ctx is cancelled. The returned
// channel is closed when the goroutine exits.
func StartHealthPoller(ctx context.Context, store *state.Store, fetcher HealthFetcher, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			refreshHealth(ctx, store, fetcher, logger)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return done
}

func refreshHealth(ctx context.Context, store *state.Store, fetcher HealthFetcher, logger *zap.Logger) {
	health, err := fetcher.Health(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		store.UpdateHealth(nil, err)
		logger.Warn("health poll failed", zap.Error(err))
		return
	}
	store.UpdateHealth(health, nil)
}
