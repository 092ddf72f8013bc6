package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/crossarb/internal/config"
	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/notify"
	"github.com/alanyoungcy/crossarb/internal/server/ws"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeVenues serves empty Gamma and Kalshi catalogs. kalshiStatus overrides
// the Kalshi response code when non-zero.
func fakeVenues(t *testing.T, kalshiStatus int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/gamma/"):
			_, _ = w.Write([]byte(`[]`))
		case r.URL.Path == "/kalshi/events":
			if kalshiStatus != 0 {
				w.WriteHeader(kalshiStatus)
				return
			}
			_, _ = w.Write([]byte(`{"events":[],"cursor":""}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func scanConfig(baseURL string) *config.Config {
	cfg := config.Defaults()
	cfg.Mode = "scan"
	cfg.Polymarket.GammaHost = baseURL + "/gamma"
	cfg.Polymarket.ClobHost = baseURL + "/clob"
	cfg.Kalshi.BaseURL = baseURL + "/kalshi"
	cfg.Kalshi.Series = []string{"KXNBAGAME"}
	return &cfg
}

func TestScanMode_WritesSnapshot(t *testing.T) {
	venues := fakeVenues(t, 0)
	a := New(scanConfig(venues.URL), testLogger())
	var out bytes.Buffer
	a.out = &out
	defer a.Close()

	require.NoError(t, a.Run(context.Background()))

	var view domain.SnapshotView
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))
	assert.Equal(t, domain.StateFresh, view.State)
	require.NotNil(t, view.Snapshot)
	assert.NotEmpty(t, view.Snapshot.ID)
	assert.Empty(t, view.Snapshot.Opportunities)
	assert.Equal(t, 0, view.Snapshot.MarketCounts[domain.VenueKalshi])
}

func TestScanMode_VenueFailure(t *testing.T) {
	venues := fakeVenues(t, http.StatusInternalServerError)
	a := New(scanConfig(venues.URL), testLogger())
	var out bytes.Buffer
	a.out = &out
	defer a.Close()

	err := a.Run(context.Background())
	require.Error(t, err)

	var rerr *domain.RefreshError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, []domain.Venue{domain.VenueKalshi}, rerr.Venues())
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Zero(t, out.Len())
}

func TestRun_UnknownMode(t *testing.T) {
	cfg := config.Defaults()
	cfg.Mode = "trade"
	a := New(&cfg, testLogger())
	defer a.Close()
	require.ErrorContains(t, a.Run(context.Background()), "unsupported mode")
}

func TestWire_DefaultsNeedNoBackends(t *testing.T) {
	cfg := config.Defaults()
	deps, cleanup, err := Wire(context.Background(), &cfg, testLogger())
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, deps.Cache)
	assert.Nil(t, deps.Store)
	assert.Nil(t, deps.Blob)
	assert.False(t, deps.Notifier.Enabled())

	status := deps.Limits.Status()
	require.Len(t, status, 2)
	assert.Equal(t, domain.VenueKalshi, status[0].Venue)
	assert.Equal(t, 10, status[0].Limit)
	assert.Equal(t, domain.VenuePolymarket, status[1].Venue)
	assert.Equal(t, 60, status[1].Limit)
}

type nopBus struct{}

func (nopBus) Publish(context.Context, string, []byte) error { return nil }
func (nopBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return make(chan []byte), nil
}

func publisherNames(a *App, deps *Dependencies, hub *ws.Hub) []string {
	var names []string
	for _, p := range a.publishers(deps, hub) {
		names = append(names, p.Name())
	}
	return names
}

func TestPublishers(t *testing.T) {
	cfg := config.Defaults()
	a := New(&cfg, testLogger())
	hub := ws.NewHub(nil, testLogger())

	t.Run("hub only", func(t *testing.T) {
		deps := &Dependencies{Notifier: notify.NewNotifier(nil, testLogger())}
		assert.Equal(t, []string{"ws"}, publisherNames(a, deps, hub))
	})

	t.Run("bus replaces direct hub push", func(t *testing.T) {
		deps := &Dependencies{Bus: nopBus{}}
		assert.Equal(t, []string{"bus"}, publisherNames(a, deps, hub))
	})

	t.Run("alerts when a sender is configured", func(t *testing.T) {
		deps := &Dependencies{
			Notifier: notify.NewNotifier([]notify.Sender{notify.NewDiscordSender("http://127.0.0.1:1/hook")}, testLogger()),
		}
		assert.Equal(t, []string{"notify"}, publisherNames(a, deps, nil))
	})
}
