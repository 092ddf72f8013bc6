package app

import (
	"fmt"

	"github.com/alanyoungcy/crossarb/internal/arbitrage"
	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/matcher"
	"github.com/alanyoungcy/crossarb/internal/notify"
	"github.com/alanyoungcy/crossarb/internal/pipeline"
	"github.com/alanyoungcy/crossarb/internal/platform/kalshi"
	"github.com/alanyoungcy/crossarb/internal/platform/polymarket"
	"github.com/alanyoungcy/crossarb/internal/platform/transport"
	"github.com/alanyoungcy/crossarb/internal/server/ws"
)

// core is the refresh pipeline plus the pieces the API needs beside it.
type core struct {
	orch   *pipeline.Orchestrator
	kalshi *kalshi.Client
}

// venueClient builds the shared transport for one venue API.
func (a *App) venueClient(deps *Dependencies, venue domain.Venue, name, baseURL string) (*transport.Client, error) {
	limiter, err := deps.Limits.For(venue)
	if err != nil {
		return nil, err
	}
	return transport.New(name, baseURL, limiter,
		transport.WithTimeout(a.cfg.Refresh.HTTPTimeout.Duration),
		transport.WithObserver(deps.Metrics),
	), nil
}

// buildCore assembles the fetchers, matcher, detector and orchestrator. hub is
// nil outside server mode.
func (a *App) buildCore(deps *Dependencies, hub *ws.Hub) (*core, error) {
	gammaHTTP, err := a.venueClient(deps, domain.VenuePolymarket, "polymarket_gamma", a.cfg.Polymarket.GammaHost)
	if err != nil {
		return nil, fmt.Errorf("app: polymarket gamma: %w", err)
	}
	clobHTTP, err := a.venueClient(deps, domain.VenuePolymarket, "polymarket_clob", a.cfg.Polymarket.ClobHost)
	if err != nil {
		return nil, fmt.Errorf("app: polymarket clob: %w", err)
	}
	kalshiHTTP, err := a.venueClient(deps, domain.VenueKalshi, "kalshi", a.cfg.Kalshi.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("app: kalshi: %w", err)
	}

	venueA := polymarket.NewFetcher(
		polymarket.NewGammaClient(gammaHTTP),
		polymarket.NewClobClient(clobHTTP),
		polymarket.FetcherConfig{
			MaxMarkets:     a.cfg.Polymarket.MaxMarkets,
			PriceBatchSize: a.cfg.Polymarket.PriceBatchSize,
			Tag:            a.cfg.Polymarket.Tag,
		},
		a.logger,
	)
	kalshiClient := kalshi.NewClient(kalshiHTTP)
	venueB := kalshi.NewFetcher(kalshiClient, kalshi.FetcherConfig{
		Series:         a.cfg.Kalshi.Series,
		IncludeProps:   a.cfg.Kalshi.IncludeProps,
		IncludeFutures: a.cfg.Kalshi.IncludeFutures,
		ExpiryWindow:   a.cfg.Kalshi.ExpiryWindow.Duration,
		MaxMarkets:     a.cfg.Kalshi.MaxMarkets,
	}, a.logger)

	fees := arbitrage.NewFeeSchedule()
	if err := fees.Register(domain.VenuePolymarket, a.cfg.Arbitrage.PolymarketFee); err != nil {
		return nil, fmt.Errorf("app: fees: %w", err)
	}
	if err := fees.Register(domain.VenueKalshi, a.cfg.Arbitrage.KalshiFee); err != nil {
		return nil, fmt.Errorf("app: fees: %w", err)
	}

	orch := pipeline.NewOrchestrator(pipeline.Config{
		VenueA: venueA,
		VenueB: venueB,
		Matcher: matcher.New(matcher.Config{
			Threshold:         a.cfg.Matcher.Threshold,
			DateToleranceDays: a.cfg.Matcher.DateToleranceDays,
		}, a.logger),
		Detector: arbitrage.NewDetector(arbitrage.DetectorConfig{
			MinDifferencePercent:    a.cfg.Arbitrage.MinPriceDifferencePercent,
			SuspiciousProfitPercent: a.cfg.Arbitrage.SuspiciousProfitPercent,
			Fees:                    fees,
			Logger:                  a.logger,
		}),
		StaleAfter: a.cfg.Refresh.StaleAfter.Duration,
		Lock:       deps.Lock,
		LockTTL:    a.cfg.Refresh.LockTTL.Duration,
		Publishers: a.publishers(deps, hub),
		Observer:   deps.Metrics,
		Logger:     a.logger,
	})

	return &core{orch: orch, kalshi: kalshiClient}, nil
}

// publishers lists the snapshot sinks for the enabled backends.
func (a *App) publishers(deps *Dependencies, hub *ws.Hub) []pipeline.Publisher {
	var out []pipeline.Publisher
	if deps.Cache != nil {
		out = append(out, pipeline.CachePublisher{Cache: deps.Cache})
	}
	if deps.Store != nil {
		out = append(out, pipeline.StorePublisher{Store: deps.Store})
	}
	if deps.Blob != nil {
		out = append(out, pipeline.BlobPublisher{Writer: deps.Blob, Path: a.cfg.S3.Key})
	}
	switch {
	case deps.Bus != nil:
		// The hub relays the bus, so every replica pushes the snapshot once.
		out = append(out, pipeline.BusPublisher{Bus: deps.Bus, Channel: pipeline.SnapshotChannel})
	case hub != nil:
		out = append(out, hub)
	}
	if deps.Notifier != nil && deps.Notifier.Enabled() {
		out = append(out, notify.NewAlerter(deps.Notifier, a.cfg.Notify.MinProfitBps))
	}
	return out
}

// restoreSources lists where a previous snapshot may be found, fastest first.
func (a *App) restoreSources(deps *Dependencies) []pipeline.SnapshotSource {
	var out []pipeline.SnapshotSource
	if deps.Cache != nil {
		out = append(out, deps.Cache)
	}
	if deps.Store != nil {
		out = append(out, deps.Store)
	}
	if deps.Blob != nil {
		out = append(out, pipeline.BlobSource{Reader: deps.Blob, Path: a.cfg.S3.Key})
	}
	return out
}
