package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := New()

	r.ObserveRequest("kalshi", "ok", 120*time.Millisecond)
	r.ObserveRequest("kalshi", "rate_limited", time.Second)
	r.ObserveRequest("kalshi", "ok", 80*time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.VenueRequests.WithLabelValues("kalshi", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.VenueRequests.WithLabelValues("kalshi", "rate_limited")))

	r.ObserveRefresh("ok", 3*time.Second, 7)
	r.ObserveRefresh("failed", time.Second, 0)
	assert.Equal(t, 7.0, testutil.ToFloat64(r.Opportunities))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Refreshes.WithLabelValues("failed")))
	assert.Greater(t, testutil.ToFloat64(r.LastRefresh), 0.0)

	r.ObserveHTTP(http.MethodGet, "/api/arbitrage", 200)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.HTTPRequests.WithLabelValues("GET", "/api/arbitrage", "200")))
}

func TestRegistry_Handler(t *testing.T) {
	r := New()
	r.ObserveRefresh("ok", time.Second, 2)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "crossarb_opportunities 2")
	assert.Contains(t, string(body), "crossarb_refreshes_total{outcome=\"ok\"} 1")
}
