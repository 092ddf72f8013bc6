package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/pipeline"
	"github.com/alanyoungcy/crossarb/internal/platform/kalshi"
	"github.com/alanyoungcy/crossarb/internal/ratelimit"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type mockService struct {
	mock.Mock
}

func (m *mockService) Snapshot(f domain.SnapshotFilter) domain.SnapshotView {
	return m.Called(f).Get(0).(domain.SnapshotView)
}

func (m *mockService) TryRefresh(ctx context.Context) (domain.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

func (m *mockService) Status() pipeline.Status {
	return m.Called().Get(0).(pipeline.Status)
}

func (m *mockService) Markets(v domain.Venue) ([]domain.Market, error) {
	args := m.Called(v)
	markets, _ := args.Get(0).([]domain.Market)
	return markets, args.Error(1)
}

var updated = time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)

func freshView() domain.SnapshotView {
	opps := []domain.ArbitrageOpportunity{{ID: "o1", ProfitBps: 970, Profitable: true}}
	return domain.SnapshotView{
		State: domain.StateFresh,
		Snapshot: &domain.Snapshot{
			ID:            "snap-1",
			Opportunities: opps,
			Summary:       domain.Summarize(opps),
			LastUpdated:   updated,
		},
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestArbHandler_List(t *testing.T) {
	t.Run("no data", func(t *testing.T) {
		svc := &mockService{}
		svc.On("Snapshot", domain.SnapshotFilter{}).Return(domain.SnapshotView{State: domain.StateNoData})
		h := NewArbHandler(svc, quietLogger())

		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/api/arbitrage", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "no_data", body["state"])
		assert.Equal(t, []any{}, body["opportunities"])
	})

	t.Run("filters are parsed", func(t *testing.T) {
		svc := &mockService{}
		svc.On("Snapshot", mock.MatchedBy(func(f domain.SnapshotFilter) bool {
			return f.MinDifferencePercent != nil && *f.MinDifferencePercent == 5 &&
				f.ExpiringWithinHours != nil && *f.ExpiringWithinHours == 24 &&
				f.Search == "lakers" && f.League == "nba" && f.ProfitableOnly
		})).Return(freshView())
		h := NewArbHandler(svc, quietLogger())

		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet,
			"/api/arbitrage?min_difference=5&expiring_within_hours=24&search=lakers&league=nba&profitable_only=true", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "fresh", body["state"])
		assert.Equal(t, "snap-1", body["snapshot_id"])
		assert.Len(t, body["opportunities"], 1)
		svc.AssertExpectations(t)
	})

	t.Run("bad filter", func(t *testing.T) {
		h := NewArbHandler(&mockService{}, quietLogger())
		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/api/arbitrage?min_difference=abc", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestArbHandler_Top(t *testing.T) {
	svc := &mockService{}
	svc.On("Snapshot", domain.SnapshotFilter{Limit: maxTopLimit}).Return(freshView())
	h := NewArbHandler(svc, quietLogger())

	rec := httptest.NewRecorder()
	h.Top(rec, httptest.NewRequest(http.MethodGet, "/api/arbitrage/top?limit=500", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestArbHandler_Refresh(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"ok", nil, http.StatusOK},
		{"in progress", domain.ErrRefreshInProgress, http.StatusConflict},
		{"venue failed", &domain.RefreshError{Failures: []domain.VenueFailure{{Venue: domain.VenueKalshi, Err: domain.ErrUpstream}}}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{}
			svc.On("TryRefresh", mock.Anything).Return(domain.Snapshot{ID: "snap-2", LastUpdated: updated}, tc.err)
			h := NewArbHandler(svc, quietLogger())

			rec := httptest.NewRecorder()
			h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/arbitrage/refresh", nil))
			assert.Equal(t, tc.code, rec.Code)
			if tc.code == http.StatusBadGateway {
				assert.Equal(t, []any{"kalshi"}, decode(t, rec)["failed_venues"])
			}
		})
	}
}

func TestMarketHandler_List(t *testing.T) {
	markets := []domain.Market{
		{VenueID: "k-1", RawTitle: "Lakers at Celtics", NormalizedName: "celtics vs lakers"},
		{VenueID: "k-2", RawTitle: "Knicks at Heat", NormalizedName: "heat vs knicks"},
	}
	svc := &mockService{}
	svc.On("Markets", domain.VenueKalshi).Return(markets, nil)
	svc.On("Markets", domain.Venue("manifold")).Return(nil, domain.ErrUnknownVenue)
	svc.On("Markets", domain.VenuePolymarket).Return(nil, domain.ErrNoData)
	h := NewMarketHandler(svc, nil, quietLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/markets/{venue}", h.List)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets/kalshi?search=lakers", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 1.0, body["total"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets/manifold", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets/polymarket", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type seriesFunc func(ctx context.Context, category string) ([]kalshi.KalshiSeries, error)

func (f seriesFunc) ListSeries(ctx context.Context, category string) ([]kalshi.KalshiSeries, error) {
	return f(ctx, category)
}

func TestMarketHandler_Series(t *testing.T) {
	h := NewMarketHandler(&mockService{}, seriesFunc(func(_ context.Context, category string) ([]kalshi.KalshiSeries, error) {
		assert.Equal(t, "Sports", category)
		return []kalshi.KalshiSeries{{Ticker: "KXNBAGAME", Title: "NBA Game"}}, nil
	}), quietLogger())

	rec := httptest.NewRecorder()
	h.Series(rec, httptest.NewRequest(http.MethodGet, "/api/kalshi/series?category=Sports", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, decode(t, rec)["total"])

	rec = httptest.NewRecorder()
	NewMarketHandler(&mockService{}, nil, quietLogger()).Series(rec, httptest.NewRequest(http.MethodGet, "/api/kalshi/series", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

type staticLimits []ratelimit.Status

func (s staticLimits) Status() []ratelimit.Status { return s }

func TestHealthHandler(t *testing.T) {
	svc := &mockService{}
	svc.On("Status").Return(pipeline.Status{State: domain.StateStale, IsStale: true})
	limits := staticLimits{{Venue: domain.VenueKalshi, Limit: 10, Available: 7, Window: "1m0s"}}
	h := NewHealthHandler(svc, limits, Settings{MatchThreshold: 0.75})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "stale", body["data_state"])
	rl := body["rate_limits"].([]any)[0].(map[string]any)
	assert.Equal(t, 7.0, rl["available_requests"])

	rec = httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, true, body["refresh"].(map[string]any)["is_stale"])
	assert.Equal(t, 0.75, body["settings"].(map[string]any)["match_threshold"])
}
