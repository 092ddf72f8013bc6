package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

const (
	// SnapshotChannel carries a compact summary of every new snapshot.
	SnapshotChannel = "crossarb:snapshots"
	// LatestSnapshotPath is the object key the blob publisher overwrites.
	LatestSnapshotPath = "snapshots/latest.json"

	publishTimeout = 10 * time.Second
)

// Publisher receives every successfully built snapshot.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, snap domain.Snapshot) error
}

// publish fans snap out to every publisher. Failures are logged and never fail
// the refresh.
func (o *Orchestrator) publish(ctx context.Context, snap domain.Snapshot) {
	for _, p := range o.cfg.Publishers {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		err := p.Publish(pctx, snap.Clone())
		cancel()
		if err != nil {
			o.logger.Warn("snapshot publish failed",
				slog.String("publisher", p.Name()),
				slog.String("snapshot_id", snap.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc struct {
	Label string
	Fn    func(ctx context.Context, snap domain.Snapshot) error
}

func (p PublisherFunc) Name() string { return p.Label }

func (p PublisherFunc) Publish(ctx context.Context, snap domain.Snapshot) error {
	return p.Fn(ctx, snap)
}

// ---------------------------------------------------------------------------
// Cache
// ---------------------------------------------------------------------------

// CachePublisher writes the snapshot to the shared cache.
type CachePublisher struct {
	Cache domain.SnapshotCache
}

func (CachePublisher) Name() string { return "cache" }

func (p CachePublisher) Publish(ctx context.Context, snap domain.Snapshot) error {
	if err := p.Cache.SetLatest(ctx, snap); err != nil {
		return fmt.Errorf("pipeline: cache publish: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Signal bus
// ---------------------------------------------------------------------------

// SnapshotEvent is the payload sent on SnapshotChannel.
type SnapshotEvent struct {
	SnapshotID  string         `json:"snapshot_id"`
	LastUpdated time.Time      `json:"last_updated"`
	Summary     domain.Summary `json:"summary"`
}

// BusPublisher announces each snapshot on the signal bus.
type BusPublisher struct {
	Bus     domain.SignalBus
	Channel string
}

func (BusPublisher) Name() string { return "bus" }

func (p BusPublisher) Publish(ctx context.Context, snap domain.Snapshot) error {
	channel := p.Channel
	if channel == "" {
		channel = SnapshotChannel
	}
	payload, err := json.Marshal(SnapshotEvent{
		SnapshotID:  snap.ID,
		LastUpdated: snap.LastUpdated,
		Summary:     snap.Summary,
	})
	if err != nil {
		return fmt.Errorf("pipeline: bus publish: marshal: %w", err)
	}
	if err := p.Bus.Publish(ctx, channel, payload); err != nil {
		return fmt.Errorf("pipeline: bus publish: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

// StorePublisher replaces the persisted latest snapshot.
type StorePublisher struct {
	Store domain.SnapshotStore
}

func (StorePublisher) Name() string { return "store" }

func (p StorePublisher) Publish(ctx context.Context, snap domain.Snapshot) error {
	if err := p.Store.SaveLatest(ctx, snap); err != nil {
		return fmt.Errorf("pipeline: store publish: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// BlobPublisher overwrites a single JSON object with the latest snapshot.
type BlobPublisher struct {
	Writer domain.BlobWriter
	Path   string
}

func (BlobPublisher) Name() string { return "blob" }

func (p BlobPublisher) Publish(ctx context.Context, snap domain.Snapshot) error {
	path := p.Path
	if path == "" {
		path = LatestSnapshotPath
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("pipeline: blob publish: marshal: %w", err)
	}
	if err := p.Writer.Put(ctx, path, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("pipeline: blob publish %s: %w", path, err)
	}
	return nil
}
