package domain

import "context"

// MarketFetcher fetches and normalizes one venue's catalog. The orchestrator
// only ever sees this interface, never venue-specific types.
type MarketFetcher interface {
	Venue() Venue
	FetchMarkets(ctx context.Context) ([]Market, error)
}

// SnapshotStore persists the most recent snapshot. Saving replaces whatever was
// stored before; no history is kept.
type SnapshotStore interface {
	SaveLatest(ctx context.Context, snap Snapshot) error
	GetLatest(ctx context.Context) (Snapshot, error)
}
