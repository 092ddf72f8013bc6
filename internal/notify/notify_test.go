package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type recordingSender struct {
	name   string
	err    error
	titles []string
	bodies []string
}

func (r *recordingSender) Send(_ context.Context, title, message string) error {
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, message)
	return r.err
}

func (r *recordingSender) Name() string { return r.name }

func TestTelegramSender(t *testing.T) {
	var got map[string]string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewTelegramSender(srv.URL, "tok", "42")
	require.NoError(t, s.Send(context.Background(), "Title", "body"))
	assert.Equal(t, "/bottok/sendMessage", path)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "*Title*\nbody", got["text"])
}

func TestDiscordSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad webhook"))
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discord: unexpected status 400: bad webhook")
}

func TestNotifier_OneFailureDoesNotStopOthers(t *testing.T) {
	bad := &recordingSender{name: "bad", err: errors.New("boom")}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, quietLogger())

	err := n.Notify(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: boom")
	assert.Equal(t, []string{"t"}, good.titles)
}

func opp(a, b string, bps float64, profitable, suspicious bool) domain.ArbitrageOpportunity {
	return domain.ArbitrageOpportunity{
		Pair: domain.MatchedPair{
			A: domain.Market{VenueID: a, RawTitle: "Market " + a},
			B: domain.Market{VenueID: b},
		},
		Strategy:   domain.StrategyYesANoB,
		BuyOn:      domain.VenuePolymarket,
		SellOn:     domain.VenueKalshi,
		YesPrice:   0.42,
		NoPrice:    0.45,
		ProfitBps:  bps,
		Profitable: profitable,
		Suspicious: suspicious,
	}
}

func TestAlerter(t *testing.T) {
	rec := &recordingSender{name: "rec"}
	a := NewAlerter(NewNotifier([]Sender{rec}, quietLogger()), 100)

	snap := domain.Snapshot{Opportunities: []domain.ArbitrageOpportunity{
		opp("a1", "b1", 970, true, false),
		opp("a2", "b2", 2500, true, true),
		opp("a3", "b3", 50, true, false),
		opp("a4", "b4", -20, false, false),
	}}
	require.NoError(t, a.Publish(context.Background(), snap))
	require.Len(t, rec.titles, 1)
	assert.Equal(t, "1 new cross-venue arbitrage opportunity", rec.titles[0])
	assert.Contains(t, rec.bodies[0], "Market a1")
	assert.Contains(t, rec.bodies[0], "net 970 bps")
	assert.NotContains(t, rec.bodies[0], "Market a2")

	// Still present: no repeat.
	require.NoError(t, a.Publish(context.Background(), snap))
	assert.Len(t, rec.titles, 1)

	// Gone for one snapshot, then back: announced again.
	require.NoError(t, a.Publish(context.Background(), domain.Snapshot{}))
	require.NoError(t, a.Publish(context.Background(), snap))
	assert.Len(t, rec.titles, 2)
}

func TestFormat_Truncates(t *testing.T) {
	var opps []domain.ArbitrageOpportunity
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		opps = append(opps, opp("a"+id, "b"+id, 500, true, false))
	}
	out := Format(opps)
	assert.Contains(t, out, "Market a5")
	assert.NotContains(t, out, "Market a6")
	assert.Contains(t, out, "...and 2 more")
}
