package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

type sourceFunc func(ctx context.Context) (domain.Snapshot, error)

func (f sourceFunc) GetLatest(ctx context.Context) (domain.Snapshot, error) { return f(ctx) }

type memBlob map[string][]byte

func (m memBlob) Get(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := m[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestOrchestrator_RestoreFrom(t *testing.T) {
	stored := domain.Snapshot{ID: "old", LastUpdated: fetchedAt.Add(-time.Hour)}
	data, err := json.Marshal(stored)
	require.NoError(t, err)

	broken := sourceFunc(func(context.Context) (domain.Snapshot, error) {
		return domain.Snapshot{}, errors.New("redis down")
	})
	empty := sourceFunc(func(context.Context) (domain.Snapshot, error) {
		return domain.Snapshot{}, domain.ErrNoData
	})
	blob := BlobSource{Reader: memBlob{LatestSnapshotPath: data}}

	o := newOrchestrator(t,
		staticFetcher(domain.VenuePolymarket, gameA()),
		staticFetcher(domain.VenueKalshi, gameB()))

	require.True(t, o.RestoreFrom(context.Background(), broken, empty, blob))
	view := o.Snapshot(domain.SnapshotFilter{})
	assert.Equal(t, domain.StateStale, view.State)
	assert.Equal(t, "old", view.Snapshot.ID)

	// A restored snapshot never replaces one that already exists.
	assert.False(t, o.Restore(domain.Snapshot{ID: "newer"}))

	snap, err := o.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.ID, o.Snapshot(domain.SnapshotFilter{}).Snapshot.ID)
	assert.Equal(t, domain.StateFresh, o.Snapshot(domain.SnapshotFilter{}).State)
}

func TestBlobSource_Missing(t *testing.T) {
	_, err := BlobSource{Reader: memBlob{}}.GetLatest(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoData)
}
