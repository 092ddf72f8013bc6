package domain

import (
	"context"
	"time"
)

// SnapshotCache keeps the latest snapshot in a shared cache so other replicas
// and consumers can read it without recomputing.
type SnapshotCache interface {
	SetLatest(ctx context.Context, snap Snapshot) error
	GetLatest(ctx context.Context) (Snapshot, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
