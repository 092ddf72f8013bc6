package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// querier is the subset of pgxpool.Pool the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SnapshotStore implements domain.SnapshotStore on the single-row
// latest_snapshot table.
type SnapshotStore struct {
	db querier
}

// NewSnapshotStore creates a SnapshotStore on the client's pool.
func NewSnapshotStore(c *Client) *SnapshotStore {
	return &SnapshotStore{db: c.Pool()}
}

// SaveLatest replaces the stored snapshot.
func (s *SnapshotStore) SaveLatest(ctx context.Context, snap domain.Snapshot) error {
	const query = `
		INSERT INTO latest_snapshot (slot, snapshot_id, opportunities, profitable, payload, last_updated, saved_at)
		VALUES (1, $1, $2, $3, $4, $5, NOW())
		ON CONFLICT (slot) DO UPDATE SET
			snapshot_id   = EXCLUDED.snapshot_id,
			opportunities = EXCLUDED.opportunities,
			profitable    = EXCLUDED.profitable,
			payload       = EXCLUDED.payload,
			last_updated  = EXCLUDED.last_updated,
			saved_at      = NOW()`

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("postgres: marshal snapshot %s: %w", snap.ID, err)
	}
	if _, err := s.db.Exec(ctx, query,
		snap.ID, len(snap.Opportunities), snap.Summary.ProfitableCount, payload, snap.LastUpdated,
	); err != nil {
		return fmt.Errorf("postgres: save snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// GetLatest returns the stored snapshot, or domain.ErrNoData when the table is
// empty.
func (s *SnapshotStore) GetLatest(ctx context.Context) (domain.Snapshot, error) {
	var payload []byte
	err := s.db.QueryRow(ctx, `SELECT payload FROM latest_snapshot WHERE slot = 1`).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Snapshot{}, domain.ErrNoData
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("postgres: get snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("postgres: unmarshal snapshot: %w", err)
	}
	return snap, nil
}

var _ domain.SnapshotStore = (*SnapshotStore)(nil)
