package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// DefaultSnapshotTTL bounds how long a snapshot survives without a refresh.
const DefaultSnapshotTTL = 30 * time.Minute

const snapshotKey = "crossarb:snapshot:latest"

// SnapshotCache implements domain.SnapshotCache with a single JSON string key.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache creates a SnapshotCache. A non-positive ttl uses
// DefaultSnapshotTTL.
func NewSnapshotCache(c *Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotCache{rdb: c.Underlying(), ttl: ttl}
}

// SetLatest replaces the cached snapshot.
func (sc *SnapshotCache) SetLatest(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot %s: %w", snap.ID, err)
	}
	if err := sc.rdb.Set(ctx, snapshotKey, data, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// GetLatest returns the cached snapshot, or domain.ErrNoData if none is cached.
func (sc *SnapshotCache) GetLatest(ctx context.Context) (domain.Snapshot, error) {
	data, err := sc.rdb.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, domain.ErrNoData
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("redis: get snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("redis: unmarshal snapshot: %w", err)
	}
	return snap, nil
}

var _ domain.SnapshotCache = (*SnapshotCache)(nil)
