package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// SnapshotSource yields the last snapshot some earlier process published.
// domain.SnapshotCache and domain.SnapshotStore both satisfy it.
type SnapshotSource interface {
	GetLatest(ctx context.Context) (domain.Snapshot, error)
}

// BlobSource reads the snapshot object written by BlobPublisher.
type BlobSource struct {
	Reader domain.BlobReader
	Path   string
}

// GetLatest downloads and decodes the snapshot object.
func (s BlobSource) GetLatest(ctx context.Context) (domain.Snapshot, error) {
	path := s.Path
	if path == "" {
		path = LatestSnapshotPath
	}
	body, err := s.Reader.Get(ctx, path)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Snapshot{}, domain.ErrNoData
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("pipeline: blob source: %w", err)
	}
	defer body.Close()

	var snap domain.Snapshot
	if err := json.NewDecoder(body).Decode(&snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("pipeline: blob source: decode %s: %w", path, err)
	}
	return snap, nil
}

// Restore installs snap as the current snapshot unless one already exists.
// Its age decides whether readers see it as fresh or stale.
func (o *Orchestrator) Restore(snap domain.Snapshot) bool {
	s := snap.Clone()
	return o.current.CompareAndSwap(nil, &s)
}

// RestoreFrom tries each source in order and restores the first snapshot
// found. Source errors are logged and skipped.
func (o *Orchestrator) RestoreFrom(ctx context.Context, sources ...SnapshotSource) bool {
	for _, src := range sources {
		snap, err := src.GetLatest(ctx)
		if errors.Is(err, domain.ErrNoData) {
			continue
		}
		if err != nil {
			o.logger.Warn("snapshot restore failed", slog.String("error", err.Error()))
			continue
		}
		if snap.ID == "" {
			continue
		}
		if o.Restore(snap) {
			o.logger.Info("snapshot restored",
				slog.String("snapshot_id", snap.ID),
				slog.Time("last_updated", snap.LastUpdated),
				slog.Int("opportunities", len(snap.Opportunities)),
			)
			return true
		}
		return false
	}
	return false
}
