package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

type countingLimiter struct{ n atomic.Int32 }

func (l *countingLimiter) Acquire(ctx context.Context) error {
	l.n.Add(1)
	return ctx.Err()
}

type recordingObserver struct{ outcomes []string }

func (o *recordingObserver) ObserveRequest(_ string, outcome string, _ time.Duration) {
	o.outcomes = append(o.outcomes, outcome)
}

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			_, _ = w.Write([]byte(`{"ok":true}`))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/denied":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	lim := &countingLimiter{}
	obs := &recordingObserver{}
	c := New("test", srv.URL, lim, WithObserver(obs), WithTimeout(time.Second))
	ctx := context.Background()

	body, err := c.Get(ctx, "/ok", url.Values{"page": {"2"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	_, err = c.Get(ctx, "/missing", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.Get(ctx, "/limited", nil)
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	_, err = c.Get(ctx, "/denied", nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = c.Get(ctx, "/boom", nil)
	assert.ErrorIs(t, err, domain.ErrUpstream)

	assert.Equal(t, int32(5), lim.n.Load(), "one limiter slot per request")
	assert.Equal(t, []string{"ok", "not_found", "rate_limited", "error", "error"}, obs.outcomes)
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("flaky", srv.URL, nil)
	for i := 0; i < 5; i++ {
		_, err := c.Get(context.Background(), "/x", nil)
		require.ErrorIs(t, err, domain.ErrUpstream)
	}
	_, err := c.Get(context.Background(), "/x", nil)
	assert.ErrorIs(t, err, domain.ErrCircuitOpen)
	assert.Equal(t, int32(5), hits.Load())
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := New("slow", srv.URL, nil, WithTimeout(50*time.Millisecond))
	_, err := c.Get(context.Background(), "/", nil)
	assert.Error(t, err)
}

func TestCheckHTTPStatus(t *testing.T) {
	assert.NoError(t, CheckHTTPStatus(http.StatusOK, nil))
	assert.NoError(t, CheckHTTPStatus(http.StatusNoContent, nil))
	assert.ErrorIs(t, CheckHTTPStatus(http.StatusUnauthorized, nil), domain.ErrUnauthorized)
}
