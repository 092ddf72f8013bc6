package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/pipeline"
	"github.com/alanyoungcy/crossarb/internal/server"
	"github.com/alanyoungcy/crossarb/internal/server/handler"
	"github.com/alanyoungcy/crossarb/internal/server/ws"
)

const shutdownTimeout = 5 * time.Second

// ServerMode restores the last published snapshot, then serves the API while
// the scheduler refreshes in the background.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode",
		slog.Duration("refresh_interval", a.cfg.Refresh.Interval.Duration),
	)

	var orch *pipeline.Orchestrator
	hub := ws.NewHub(func() any { return orch.Status() }, a.logger)
	c, err := a.buildCore(deps, hub)
	if err != nil {
		return err
	}
	orch = c.orch

	if sources := a.restoreSources(deps); len(sources) > 0 {
		orch.RestoreFrom(ctx, sources...)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return hub.Run(ctx) })
	if deps.Bus != nil {
		g.Go(func() error { return hub.Relay(ctx, deps.Bus, pipeline.SnapshotChannel) })
	}
	if a.cfg.Refresh.Interval.Duration > 0 {
		g.Go(func() error { return orch.RunScheduler(ctx, a.cfg.Refresh.Interval.Duration) })
	} else {
		a.logger.InfoContext(ctx, "periodic refresh disabled, waiting for POST /api/arbitrage/refresh")
	}

	if a.cfg.Server.Enabled {
		srv := server.New(
			server.Config{
				Port:              a.cfg.Server.Port,
				CORSOrigins:       a.cfg.Server.CORSOrigins,
				APIKey:            a.cfg.Server.APIKey,
				RequestsPerSecond: a.cfg.Server.RequestsPerSecond,
				Burst:             a.cfg.Server.Burst,
			},
			server.Handlers{
				Health: handler.NewHealthHandler(orch, deps.Limits, handler.Settings{
					MatchThreshold:          a.cfg.Matcher.Threshold,
					MinDifferencePercent:    a.cfg.Arbitrage.MinPriceDifferencePercent,
					SuspiciousProfitPercent: a.cfg.Arbitrage.SuspiciousProfitPercent,
					RefreshInterval:         a.cfg.Refresh.Interval.Duration.String(),
				}),
				Arb:     handler.NewArbHandler(orch, a.logger),
				Markets: handler.NewMarketHandler(orch, c.kalshi, a.logger),
				Metrics: deps.Metrics.Handler(),
			},
			hub, deps.Metrics, a.logger,
		)
		g.Go(srv.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutCtx)
		})
	}

	return g.Wait()
}

// ScanMode runs one refresh and writes the snapshot as JSON to the app's
// output. Publishers still receive the snapshot, so a scan can feed the
// shared backends from a cron job.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	c, err := a.buildCore(deps, nil)
	if err != nil {
		return err
	}
	snap, err := c.orch.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("app: scan: %w", err)
	}

	view := domain.SnapshotView{State: domain.StateFresh, Snapshot: &snap}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(view); err != nil {
		return fmt.Errorf("app: scan: encode: %w", err)
	}
	return nil
}
