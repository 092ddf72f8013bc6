package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// RunScheduler refreshes immediately and then every interval until ctx is
// cancelled. Refresh failures are logged and the loop keeps going; the
// previous snapshot stays readable, marked stale.
func (o *Orchestrator) RunScheduler(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	log := o.logger.With(slog.Duration("interval", interval))
	log.Info("scheduler started")

	o.scheduledRefresh(ctx, log)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			o.scheduledRefresh(ctx, log)
		}
	}
}

func (o *Orchestrator) scheduledRefresh(ctx context.Context, log *slog.Logger) {
	_, err := o.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrRefreshInProgress):
		log.Debug("scheduled refresh skipped, another replica is refreshing")
	case ctx.Err() != nil:
	default:
		log.Warn("scheduled refresh failed", slog.String("error", err.Error()))
	}
}
