package kalshi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/normalize"
)

const (
	// DefaultMaxMarkets caps one catalog fetch.
	DefaultMaxMarkets = 1000
	// DefaultExpiryWindow keeps per-game markets expiring within two days.
	DefaultExpiryWindow = 48 * time.Hour

	maxPages  = 20
	marketURL = "https://kalshi.com/markets/"
)

// FetcherConfig tunes the Series → Events → Markets traversal.
type FetcherConfig struct {
	// Series to walk. Empty means DefaultSeries(IncludeProps, IncludeFutures).
	Series         []string
	IncludeProps   bool
	IncludeFutures bool
	ExpiryWindow   time.Duration
	MaxMarkets     int
}

// Fetcher produces normalized Kalshi markets. It implements
// domain.MarketFetcher.
type Fetcher struct {
	client *Client
	cfg    FetcherConfig
	now    func() time.Time
	logger *slog.Logger
}

// NewFetcher creates a Fetcher. Zero config values take package defaults.
func NewFetcher(client *Client, cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	if len(cfg.Series) == 0 {
		cfg.Series = DefaultSeries(cfg.IncludeProps, cfg.IncludeFutures)
	}
	if cfg.ExpiryWindow <= 0 {
		cfg.ExpiryWindow = DefaultExpiryWindow
	}
	if cfg.MaxMarkets <= 0 {
		cfg.MaxMarkets = DefaultMaxMarkets
	}
	return &Fetcher{
		client: client,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With(slog.String("component", "kalshi_fetcher")),
	}
}

// Venue returns domain.VenueKalshi.
func (f *Fetcher) Venue() domain.Venue { return domain.VenueKalshi }

// Series returns the series tickers walked on each fetch.
func (f *Fetcher) Series() []string { return f.cfg.Series }

// FetchMarkets walks every configured series. A series that fails is logged
// and skipped; the fetch fails only when every series failed.
func (f *Fetcher) FetchMarkets(ctx context.Context) ([]domain.Market, error) {
	now := f.now().UTC()
	seen := make(map[string]bool)
	var (
		out      []domain.Market
		errs     []error
		skipped  int
		unpriced int
	)

	for _, series := range f.cfg.Series {
		if len(out) >= f.cfg.MaxMarkets {
			break
		}
		kind := ClassifySeries(series)
		raw, err := f.seriesMarkets(ctx, series)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("kalshi: fetch markets: %w", ctx.Err())
			}
			errs = append(errs, err)
			f.logger.Warn("series fetch failed",
				slog.String("series", series),
				slog.String("error", err.Error()),
			)
			continue
		}
		for i := range raw {
			km := &raw[i]
			if km.Ticker == "" || seen[km.Ticker] || len(out) >= f.cfg.MaxMarkets {
				continue
			}
			seen[km.Ticker] = true
			if kind != SeriesFutures && !f.withinWindow(km.Expiry(), now) {
				skipped++
				continue
			}
			yes, no, ok := km.Prices()
			if !ok {
				unpriced++
				f.logger.Debug("market has no quote", slog.String("ticker", km.Ticker))
				continue
			}
			out = append(out, normalize.Normalize(toDomain(km, series, kind, yes, no, now)))
		}
	}

	if len(errs) == len(f.cfg.Series) && len(errs) > 0 {
		return nil, fmt.Errorf("kalshi: every series failed: %w", errors.Join(errs...))
	}

	f.logger.Info("kalshi catalog fetched",
		slog.Int("series", len(f.cfg.Series)),
		slog.Int("failed_series", len(errs)),
		slog.Int("markets", len(out)),
		slog.Int("outside_window", skipped),
		slog.Int("unpriced", unpriced),
	)
	return out, nil
}

// seriesMarkets pages through a series' open events and collects their
// markets, listing them separately for events returned without nested
// markets.
func (f *Fetcher) seriesMarkets(ctx context.Context, series string) ([]KalshiMarket, error) {
	var out []KalshiMarket
	cursor := ""
	for page := 0; page < maxPages; page++ {
		ep, err := f.client.ListEvents(ctx, series, cursor)
		if err != nil {
			return nil, err
		}
		for _, ev := range ep.Events {
			markets := ev.Markets
			if markets == nil {
				markets, err = f.eventMarkets(ctx, ev.EventTicker)
				if err != nil {
					f.logger.Warn("event markets failed",
						slog.String("event", ev.EventTicker),
						slog.String("error", err.Error()),
					)
					continue
				}
			}
			for _, m := range markets {
				if m.Status != "" && m.Status != "open" && m.Status != "active" {
					continue
				}
				if m.EventTicker == "" {
					m.EventTicker = ev.EventTicker
				}
				if m.SeriesTicker == "" {
					m.SeriesTicker = series
				}
				out = append(out, m)
			}
		}
		if ep.Cursor == "" || ep.Cursor == cursor {
			break
		}
		cursor = ep.Cursor
	}
	return out, nil
}

func (f *Fetcher) eventMarkets(ctx context.Context, eventTicker string) ([]KalshiMarket, error) {
	var out []KalshiMarket
	cursor := ""
	for page := 0; page < maxPages; page++ {
		mp, err := f.client.ListMarkets(ctx, eventTicker, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, mp.Markets...)
		if mp.Cursor == "" || mp.Cursor == cursor {
			break
		}
		cursor = mp.Cursor
	}
	return out, nil
}

// withinWindow keeps markets expiring between now and now+ExpiryWindow.
// Markets with no expiry are kept.
func (f *Fetcher) withinWindow(exp *time.Time, now time.Time) bool {
	if exp == nil {
		return true
	}
	return !exp.Before(now) && !exp.After(now.Add(f.cfg.ExpiryWindow))
}

func toDomain(km *KalshiMarket, series string, kind SeriesKind, yes, no float64, fetchedAt time.Time) domain.Market {
	m := domain.Market{
		VenueID:       km.Ticker,
		Venue:         domain.VenueKalshi,
		RawTitle:      km.Question(),
		VenueCategory: venueCategory(series, kind),
		YesTeam:       km.YesSubTitle,
		YesPrice:      domain.Float(yes),
		NoPrice:       domain.Float(no),
		Volume:        domain.Float(km.Volume),
		Volume24h:     domain.Float(km.Volume24H),
		OpenInterest:  domain.Float(km.OpenInterest),
		Expiration:    km.Expiry(),
		CloseTime:     parseTime(km.CloseTime),
		URL:           marketURL + km.Ticker,
		FetchedAt:     fetchedAt,
	}
	if km.Liquidity > 0 {
		m.Liquidity = domain.Float(km.Liquidity / 100)
	}
	return m
}
