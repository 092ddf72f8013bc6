package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"postgres://arb:pw@db:5432/crossarb?sslmode=disable",
		DSN(ClientConfig{Host: "db", Database: "crossarb", User: "arb", Password: "pw"}))
	assert.Equal(t,
		"postgres://arb:pw@db:6543/crossarb?sslmode=require",
		DSN(ClientConfig{Host: "db", Port: 6543, Database: "crossarb", User: "arb", Password: "pw", SSLMode: "require"}))
	assert.Equal(t, "postgres://x", DSN(ClientConfig{DSN: "postgres://x", Host: "ignored"}))
}

func TestMigrationFiles(t *testing.T) {
	names, err := migrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_init.sql", names[0])
}

type fakeRow struct {
	payload []byte
	err     error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.payload
	return nil
}

type fakeDB struct {
	args []any
	row  fakeRow
}

func (f *fakeDB) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	f.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return f.row
}

func TestSnapshotStore(t *testing.T) {
	snap := domain.Snapshot{
		ID:            "snap-9",
		Opportunities: []domain.ArbitrageOpportunity{{ID: "o1", Profitable: true}, {ID: "o2"}},
		Summary:       domain.Summary{Total: 2, ProfitableCount: 1},
		LastUpdated:   time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("save", func(t *testing.T) {
		db := &fakeDB{}
		store := &SnapshotStore{db: db}
		require.NoError(t, store.SaveLatest(context.Background(), snap))
		require.Len(t, db.args, 5)
		assert.Equal(t, "snap-9", db.args[0])
		assert.Equal(t, 2, db.args[1])
		assert.Equal(t, 1, db.args[2])
	})

	t.Run("get", func(t *testing.T) {
		payload, err := json.Marshal(snap)
		require.NoError(t, err)
		store := &SnapshotStore{db: &fakeDB{row: fakeRow{payload: payload}}}
		got, err := store.GetLatest(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "snap-9", got.ID)
		assert.Len(t, got.Opportunities, 2)
	})

	t.Run("empty", func(t *testing.T) {
		store := &SnapshotStore{db: &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}}
		_, err := store.GetLatest(context.Background())
		assert.ErrorIs(t, err, domain.ErrNoData)
	})

	t.Run("driver error", func(t *testing.T) {
		store := &SnapshotStore{db: &fakeDB{row: fakeRow{err: errors.New("conn reset")}}}
		_, err := store.GetLatest(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNoData)
	})
}
