package polymarket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/normalize"
)

const (
	// DefaultMaxMarkets caps one catalog fetch.
	DefaultMaxMarkets = 500
	// DefaultPriceBatchSize is the number of token ids per /prices call.
	DefaultPriceBatchSize = 20

	maxPages = 50
	eventURL = "https://polymarket.com/event/"
)

// singleGamePrefixes are the slug prefixes of per-game events, e.g.
// "nba-uta-cle-2026-01-12".
var singleGamePrefixes = []string{"nba", "nfl", "nhl", "mlb", "wnba", "cbb", "cwbb", "cfb", "atp", "wta", "ufc"}

// FetcherConfig tunes catalog discovery.
type FetcherConfig struct {
	MaxMarkets     int
	PriceBatchSize int
	Tag            string
}

// Fetcher produces normalized Polymarket markets by joining Gamma discovery
// records with live CLOB prices. It implements domain.MarketFetcher.
type Fetcher struct {
	gamma  *GammaClient
	clob   *ClobClient
	cfg    FetcherConfig
	now    func() time.Time
	logger *slog.Logger
}

// NewFetcher creates a Fetcher. Zero config values take package defaults.
func NewFetcher(gamma *GammaClient, clob *ClobClient, cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	if cfg.MaxMarkets <= 0 {
		cfg.MaxMarkets = DefaultMaxMarkets
	}
	if cfg.PriceBatchSize <= 0 {
		cfg.PriceBatchSize = DefaultPriceBatchSize
	}
	return &Fetcher{
		gamma:  gamma,
		clob:   clob,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With(slog.String("component", "polymarket_fetcher")),
	}
}

// Venue returns domain.VenuePolymarket.
func (f *Fetcher) Venue() domain.Venue { return domain.VenuePolymarket }

// discovered is one Gamma market together with the event it was nested in.
type discovered struct {
	market APIMarket
	event  *APIEvent
}

// FetchMarkets discovers open markets and prices them. It fails only when
// discovery yields nothing because every listing call failed.
func (f *Fetcher) FetchMarkets(ctx context.Context) ([]domain.Market, error) {
	recs, err := f.discover(ctx)
	if err != nil {
		return nil, err
	}
	prices := f.fetchPrices(ctx, recs)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("polymarket: fetch markets: %w", err)
	}

	fetchedAt := f.now().UTC()
	out := make([]domain.Market, 0, len(recs))
	dropped := 0
	for i := range recs {
		yes, no, ok := f.pricesFor(&recs[i].market, prices)
		if !ok {
			dropped++
			f.logger.Warn("dropping market without price",
				slog.String("market_id", recs[i].market.ID),
				slog.String("question", recs[i].market.Question),
			)
			continue
		}
		out = append(out, normalize.Normalize(toDomain(recs[i], yes, no, fetchedAt)))
	}

	f.logger.Info("polymarket catalog fetched",
		slog.Int("discovered", len(recs)),
		slog.Int("markets", len(out)),
		slog.Int("dropped", dropped),
	)
	return out, nil
}

// discover walks /events then /markets, deduplicating by market id, until
// MaxMarkets records are collected or both listings are exhausted.
func (f *Fetcher) discover(ctx context.Context) ([]discovered, error) {
	seen := make(map[string]bool)
	var recs []discovered
	add := func(m APIMarket, ev *APIEvent) {
		if m.ID == "" || m.Closed || seen[m.ID] || len(recs) >= f.cfg.MaxMarkets {
			return
		}
		seen[m.ID] = true
		recs = append(recs, discovered{market: m, event: ev})
	}

	var eventsErr error
	for page := 0; page < maxPages && len(recs) < f.cfg.MaxMarkets; page++ {
		events, err := f.gamma.GetEvents(ctx, EventsQuery{Limit: PageSize, Offset: page * PageSize, Tag: f.cfg.Tag})
		if err != nil {
			eventsErr = err
			break
		}
		for i := range events {
			if events[i].Closed {
				continue
			}
			for _, m := range events[i].Markets {
				add(m, &events[i])
			}
		}
		if len(events) < PageSize {
			break
		}
	}
	if eventsErr != nil {
		f.logger.Warn("event listing failed", slog.String("error", eventsErr.Error()))
	}

	var marketsErr error
	for page := 0; page < maxPages && len(recs) < f.cfg.MaxMarkets; page++ {
		markets, err := f.gamma.GetMarkets(ctx, PageSize, page*PageSize)
		if err != nil {
			marketsErr = err
			break
		}
		for _, m := range markets {
			add(m, nil)
		}
		if len(markets) < PageSize {
			break
		}
	}
	if marketsErr != nil {
		f.logger.Warn("market listing failed", slog.String("error", marketsErr.Error()))
	}

	if len(recs) == 0 && eventsErr != nil && marketsErr != nil {
		return nil, fmt.Errorf("polymarket: discover: %w", errors.Join(eventsErr, marketsErr))
	}
	return recs, nil
}

// fetchPrices prices every token in batches. A failed batch is logged and its
// tokens are left out of the result.
func (f *Fetcher) fetchPrices(ctx context.Context, recs []discovered) map[string]float64 {
	var ids []string
	for i := range recs {
		if yes, no, ok := recs[i].market.tokens(); ok {
			ids = append(ids, yes, no)
		}
	}
	prices := make(map[string]float64, len(ids))
	for start := 0; start < len(ids); start += f.cfg.PriceBatchSize {
		if ctx.Err() != nil {
			break
		}
		end := min(start+f.cfg.PriceBatchSize, len(ids))
		batch, err := f.clob.GetPrices(ctx, ids[start:end])
		if err != nil {
			f.logger.Warn("price batch failed",
				slog.Int("offset", start),
				slog.Int("size", end-start),
				slog.String("error", err.Error()),
			)
			continue
		}
		for id, p := range batch {
			prices[id] = p
		}
	}
	return prices
}

// pricesFor prefers live CLOB prices and falls back to the prices embedded in
// the discovery record.
func (f *Fetcher) pricesFor(m *APIMarket, prices map[string]float64) (yes, no float64, ok bool) {
	if yesID, noID, has := m.tokens(); has {
		if y, found := prices[yesID]; found {
			n, found := prices[noID]
			if !found {
				n = 1 - y
			}
			return y, n, true
		}
	}
	return m.discoveryPrices()
}

func toDomain(rec discovered, yes, no float64, fetchedAt time.Time) domain.Market {
	m := rec.market
	out := domain.Market{
		VenueID:       m.ID,
		Venue:         domain.VenuePolymarket,
		RawTitle:      m.Question,
		Slug:          m.Slug,
		VenueCategory: m.Category,
		YesTeam:       m.yesOutcome(),
		YesPrice:      domain.Float(yes),
		NoPrice:       domain.Float(no),
		Volume:        m.Volume.Ptr(),
		Volume24h:     m.Volume24hr.Ptr(),
		Liquidity:     m.Liquidity.Ptr(),
		Expiration:    parseTime(m.EndDate),
		FetchedAt:     fetchedAt,
	}
	eventSlug := m.Slug
	if ev := rec.event; ev != nil {
		if out.RawTitle == "" {
			out.RawTitle = ev.Title
		}
		if out.Slug == "" {
			out.Slug = ev.Slug
		}
		if out.VenueCategory == "" {
			out.VenueCategory = ev.Category
		}
		if out.Expiration == nil {
			out.Expiration = parseTime(ev.EndDate)
		}
		if ev.Slug != "" {
			eventSlug = ev.Slug
		}
	}
	if cat := singleGameCategory(eventSlug); cat != "" {
		out.VenueCategory = cat
	}
	if eventSlug != "" {
		out.URL = eventURL + eventSlug
	}
	return out
}

// singleGameCategory tags per-game slugs as "single_game_<prefix>".
func singleGameCategory(slug string) string {
	parts := strings.Split(strings.ToLower(slug), "-")
	if len(parts) < 4 {
		return ""
	}
	for _, p := range singleGamePrefixes {
		if parts[0] == p {
			return "single_game_" + p
		}
	}
	return ""
}
