// Package pipeline runs refresh cycles: fetch both venue catalogs, match,
// detect, and swap in the resulting snapshot.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/alanyoungcy/crossarb/internal/arbitrage"
	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/matcher"
)

const (
	// DefaultStaleAfter marks a snapshot stale once it is this old.
	DefaultStaleAfter = 5 * time.Minute
	// DefaultLockTTL bounds how long a crashed replica can hold the refresh lock.
	DefaultLockTTL = 2 * time.Minute
	// DefaultRefreshTimeout bounds one shared refresh cycle.
	DefaultRefreshTimeout = 2 * time.Minute

	refreshLockKey = "crossarb:refresh"
	flightKey      = "refresh"
)

// RefreshObserver receives one callback per finished refresh.
type RefreshObserver interface {
	ObserveRefresh(outcome string, elapsed time.Duration, opportunities int)
}

// Config wires an Orchestrator.
type Config struct {
	// VenueA and VenueB are fetched concurrently; pairs always put A's market
	// first.
	VenueA     domain.MarketFetcher
	VenueB     domain.MarketFetcher
	Matcher    *matcher.Matcher
	Detector   *arbitrage.Detector
	StaleAfter time.Duration
	// RefreshTimeout bounds a refresh cycle. The cycle is shared by every
	// waiting caller, so it does not follow any one caller's context.
	RefreshTimeout time.Duration

	// Lock, when set, keeps replicas from refreshing at the same time.
	Lock    domain.LockManager
	LockTTL time.Duration

	Publishers []Publisher
	Observer   RefreshObserver
	Logger     *slog.Logger
}

// catalogs holds the markets from the last successful refresh.
type catalogs map[domain.Venue][]domain.Market

// Orchestrator owns the current snapshot. Refreshes are serialized; readers
// never block on a refresh and always see a complete snapshot.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	current  atomic.Pointer[domain.Snapshot]
	markets  atomic.Pointer[catalogs]
	group    singleflight.Group
	inFlight atomic.Bool

	mu          sync.Mutex
	lastErr     error
	lastAttempt time.Time
}

// NewOrchestrator creates an Orchestrator with no snapshot.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultRefreshTimeout
	}
	return &Orchestrator{
		cfg:    cfg,
		logger: cfg.Logger.With(slog.String("component", "orchestrator")),
		now:    time.Now,
	}
}

// Refresh runs a full fetch, match and detect cycle and installs the result.
// A call made while another refresh is running waits for it and shares its
// result. On failure the previous snapshot is kept and the error is either a
// *domain.RefreshError (a venue catalog could not be fetched) or wraps
// domain.ErrRefreshInProgress (another replica holds the refresh lock).
// Cancelling ctx abandons the wait only; the cycle itself runs to completion
// for the other callers.
func (o *Orchestrator) Refresh(ctx context.Context) (domain.Snapshot, error) {
	ch := o.group.DoChan(flightKey, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.RefreshTimeout)
		defer cancel()
		return o.refresh(rctx)
	})
	select {
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Snapshot{}, res.Err
		}
		return res.Val.(domain.Snapshot).Clone(), nil
	}
}

// TryRefresh is Refresh for callers that would rather be told to come back:
// it fails fast with domain.ErrRefreshInProgress while a refresh is running.
func (o *Orchestrator) TryRefresh(ctx context.Context) (domain.Snapshot, error) {
	if o.inFlight.Load() {
		return domain.Snapshot{}, domain.ErrRefreshInProgress
	}
	return o.Refresh(ctx)
}

func (o *Orchestrator) refresh(ctx context.Context) (domain.Snapshot, error) {
	o.inFlight.Store(true)
	defer o.inFlight.Store(false)

	start := o.now()
	o.mu.Lock()
	o.lastAttempt = start
	o.mu.Unlock()

	if o.cfg.Lock != nil {
		unlock, err := o.cfg.Lock.Acquire(ctx, refreshLockKey, o.cfg.LockTTL)
		switch {
		case errors.Is(err, domain.ErrLockHeld):
			o.observe("locked", start, 0)
			return domain.Snapshot{}, fmt.Errorf("orchestrator: %w", domain.ErrRefreshInProgress)
		case err != nil:
			o.logger.Warn("refresh lock unavailable, continuing without it",
				slog.String("error", err.Error()),
			)
		default:
			defer unlock()
		}
	}

	cats, err := o.fetchAll(ctx)
	if err != nil {
		o.fail(err)
		o.observe("failed", start, 0)
		return domain.Snapshot{}, err
	}

	a, b := cats[o.cfg.VenueA.Venue()], cats[o.cfg.VenueB.Venue()]
	res := o.cfg.Matcher.Match(a, b, 0)
	opps := o.cfg.Detector.Detect(res.Pairs)

	snap := domain.Snapshot{
		ID:            uuid.NewString(),
		Opportunities: opps,
		Summary:       domain.Summarize(opps),
		MarketCounts: map[domain.Venue]int{
			o.cfg.VenueA.Venue(): len(a),
			o.cfg.VenueB.Venue(): len(b),
		},
		MatchedPairs: len(res.Pairs),
		LastUpdated:  o.now().UTC(),
	}

	o.current.Store(&snap)
	o.markets.Store(&cats)
	o.mu.Lock()
	o.lastErr = nil
	o.mu.Unlock()

	elapsed := o.now().Sub(start)
	o.logger.Info("refresh complete",
		slog.String("snapshot_id", snap.ID),
		slog.Int("markets_a", len(a)),
		slog.Int("markets_b", len(b)),
		slog.Int("pairs", len(res.Pairs)),
		slog.Int("opportunities", len(opps)),
		slog.Int("profitable", snap.Summary.ProfitableCount),
		slog.Duration("elapsed", elapsed),
	)
	o.observe("ok", start, len(opps))
	o.publish(ctx, snap)
	return snap, nil
}

// fetchAll fetches both catalogs concurrently. Every venue that fails is
// reported in the returned *domain.RefreshError.
func (o *Orchestrator) fetchAll(ctx context.Context) (catalogs, error) {
	fetchers := []domain.MarketFetcher{o.cfg.VenueA, o.cfg.VenueB}
	results := make([][]domain.Market, len(fetchers))
	errs := make([]error, len(fetchers))

	var g errgroup.Group
	for i, f := range fetchers {
		g.Go(func() error {
			results[i], errs[i] = f.FetchMarkets(ctx)
			return nil
		})
	}
	_ = g.Wait()

	var failures []domain.VenueFailure
	cats := make(catalogs, len(fetchers))
	for i, f := range fetchers {
		if errs[i] != nil {
			o.logger.Warn("venue fetch failed",
				slog.String("venue", string(f.Venue())),
				slog.String("error", errs[i].Error()),
			)
			failures = append(failures, domain.VenueFailure{Venue: f.Venue(), Err: errs[i]})
			continue
		}
		cats[f.Venue()] = results[i]
	}
	if len(failures) > 0 {
		return nil, &domain.RefreshError{Failures: failures}
	}
	return cats, nil
}

func (o *Orchestrator) fail(err error) {
	o.mu.Lock()
	o.lastErr = err
	o.mu.Unlock()
	o.logger.Error("refresh failed", slog.String("error", err.Error()))
}

func (o *Orchestrator) observe(outcome string, start time.Time, opps int) {
	if o.cfg.Observer != nil {
		o.cfg.Observer.ObserveRefresh(outcome, o.now().Sub(start), opps)
	}
}

// Snapshot returns the current snapshot narrowed by filter. It never triggers
// a fetch. Before the first successful refresh the view is StateNoData.
func (o *Orchestrator) Snapshot(filter domain.SnapshotFilter) domain.SnapshotView {
	o.mu.Lock()
	lastErr := o.lastErr
	o.mu.Unlock()

	view := domain.SnapshotView{State: domain.StateNoData}
	if lastErr != nil {
		view.LastError = lastErr.Error()
	}
	cur := o.current.Load()
	if cur == nil {
		return view
	}

	now := o.now()
	filtered := filter.Apply(*cur, now)
	view.Snapshot = &filtered
	view.State = domain.StateFresh
	if lastErr != nil || now.Sub(cur.LastUpdated) > o.cfg.StaleAfter {
		view.State = domain.StateStale
	}
	return view
}

// Markets returns the venue's catalog from the last successful refresh.
func (o *Orchestrator) Markets(venue domain.Venue) ([]domain.Market, error) {
	if venue != o.cfg.VenueA.Venue() && venue != o.cfg.VenueB.Venue() {
		return nil, fmt.Errorf("orchestrator: markets %q: %w", venue, domain.ErrUnknownVenue)
	}
	cats := o.markets.Load()
	if cats == nil {
		return nil, domain.ErrNoData
	}
	return append([]domain.Market(nil), (*cats)[venue]...), nil
}

// Status describes the orchestrator for health and status endpoints.
type Status struct {
	State         domain.SnapshotState `json:"state"`
	SnapshotID    string               `json:"snapshot_id,omitempty"`
	LastUpdated   *time.Time           `json:"last_updated,omitempty"`
	LastAttempt   *time.Time           `json:"last_attempt,omitempty"`
	LastError     string               `json:"last_error,omitempty"`
	Refreshing    bool                 `json:"refreshing"`
	IsStale       bool                 `json:"is_stale"`
	MarketCounts  map[domain.Venue]int `json:"market_counts,omitempty"`
	MatchedPairs  int                  `json:"matched_pairs"`
	Opportunities int                  `json:"opportunities"`
	StaleAfter    string               `json:"stale_after"`
}

// Status reports the current refresh state.
func (o *Orchestrator) Status() Status {
	view := o.Snapshot(domain.SnapshotFilter{})
	st := Status{
		State:      view.State,
		LastError:  view.LastError,
		Refreshing: o.inFlight.Load(),
		IsStale:    view.State == domain.StateStale,
		StaleAfter: o.cfg.StaleAfter.String(),
	}
	o.mu.Lock()
	if !o.lastAttempt.IsZero() {
		t := o.lastAttempt.UTC()
		st.LastAttempt = &t
	}
	o.mu.Unlock()
	if s := view.Snapshot; s != nil {
		t := s.LastUpdated
		st.SnapshotID = s.ID
		st.LastUpdated = &t
		st.MarketCounts = s.MarketCounts
		st.MatchedPairs = s.MatchedPairs
		st.Opportunities = len(s.Opportunities)
	}
	return st
}
