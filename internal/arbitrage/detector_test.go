package arbitrage

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

var detectedAt = time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)

func testFees(t *testing.T) *FeeSchedule {
	t.Helper()
	fees := NewFeeSchedule()
	require.NoError(t, fees.Register(domain.VenuePolymarket, 0.02))
	require.NoError(t, fees.Register(domain.VenueKalshi, 0.01))
	return fees
}

func newTestDetector(t *testing.T, minDiff float64) *Detector {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	d := NewDetector(DetectorConfig{
		MinDifferencePercent: minDiff,
		Fees:                 testFees(t),
		Logger:               logger,
	})
	d.now = func() time.Time { return detectedAt }
	n := 0
	d.newID = func() string { n++; return "opp-" + string(rune('0'+n)) }
	return d
}

func priced(venue domain.Venue, id string, yes, no float64) domain.Market {
	return domain.Market{
		Venue: venue, VenueID: id, NormalizedName: "boston celtics vs los angeles lakers",
		Category: "nba", Kind: domain.KindMoneyline,
		AwayTeam: "Los Angeles Lakers", HomeTeam: "Boston Celtics",
		YesPrice: domain.Float(yes), NoPrice: domain.Float(no),
	}
}

func pair(a, b domain.Market) domain.MatchedPair {
	return domain.MatchedPair{A: a, B: b, Score: 0.9, Method: domain.MatchTeamDate}
}

func TestEvaluate_FeeApplicationOrder(t *testing.T) {
	d := newTestDetector(t, 0)
	opp, err := d.Evaluate(pair(
		priced(domain.VenuePolymarket, "a", 0.40, 0.60),
		priced(domain.VenueKalshi, "b", 0.50, 0.50),
	))
	require.NoError(t, err)

	assert.Equal(t, domain.StrategyYesANoB, opp.Strategy)
	assert.InDelta(t, 0.90, opp.TotalCost, 1e-9)
	assert.InDelta(t, 0.10, opp.GrossProfit, 1e-9)
	// 2% of gross for the YES venue, then 1% of gross for the NO venue.
	assert.InDelta(t, 0.02*0.10+0.01*0.10, opp.Fees, 1e-9)
	assert.InDelta(t, 0.097, opp.NetProfit, 1e-9)
	assert.InDelta(t, 970, opp.ProfitBps, 1e-6)
	assert.True(t, opp.Profitable)
	assert.Equal(t, domain.ArbSimple, opp.Type)
}

func TestEvaluate_EndToEndScenario(t *testing.T) {
	d := newTestDetector(t, 2)
	a := priced(domain.VenuePolymarket, "pm", 0.42, 0.58)
	b := priced(domain.VenueKalshi, "k", 0.55, 0.45)

	opps := d.Detect([]domain.MatchedPair{pair(a, b)})
	require.Len(t, opps, 1)
	opp := opps[0]
	assert.Equal(t, domain.StrategyYesANoB, opp.Strategy)
	assert.Equal(t, domain.VenuePolymarket, opp.BuyOn)
	assert.Equal(t, domain.VenueKalshi, opp.SellOn)
	assert.InDelta(t, 0.42, opp.YesPrice, 1e-9)
	assert.InDelta(t, 0.45, opp.NoPrice, 1e-9)
	assert.InDelta(t, 0.87, opp.TotalCost, 1e-9)
	assert.InDelta(t, 0.13, opp.GrossProfit, 1e-9)
	assert.InDelta(t, 0.13, opp.PriceDifference, 1e-9)
	assert.InDelta(t, 0.13/0.485*100, opp.PriceDifferencePercent, 1e-9)
	assert.False(t, opp.Suspicious)
	assert.Equal(t, "nba", opp.League)
	assert.Equal(t, domain.KindMoneyline, opp.MarketType)
	assert.Equal(t, detectedAt, opp.DetectedAt)
	assert.NotEmpty(t, opp.ID)
}

func TestEvaluate_SwappingVenuesSwapsSides(t *testing.T) {
	d := newTestDetector(t, 0)
	a := priced(domain.VenuePolymarket, "pm", 0.42, 0.58)
	b := priced(domain.VenueKalshi, "k", 0.55, 0.45)

	fwd, err := d.Evaluate(pair(a, b))
	require.NoError(t, err)
	rev, err := d.Evaluate(pair(b, a))
	require.NoError(t, err)

	assert.Equal(t, fwd.Pair.A.Venue, fwd.BuyOn)
	assert.Equal(t, fwd.Pair.B.Venue, fwd.SellOn)
	assert.Equal(t, rev.Pair.B.Venue, rev.BuyOn)
	assert.Equal(t, rev.Pair.A.Venue, rev.SellOn)
	assert.Equal(t, domain.StrategyNoAYesB, rev.Strategy)

	assert.InDelta(t, fwd.PriceDifference, rev.PriceDifference, 1e-12)
	assert.InDelta(t, fwd.PriceDifferencePercent, rev.PriceDifferencePercent, 1e-12)
	assert.InDelta(t, fwd.NetProfit, rev.NetProfit, 1e-12)
}

func TestEvaluate_PicksHigherNetProfit(t *testing.T) {
	d := newTestDetector(t, 0)
	opp, err := d.Evaluate(pair(
		priced(domain.VenuePolymarket, "a", 0.70, 0.25),
		priced(domain.VenueKalshi, "b", 0.60, 0.45),
	))
	require.NoError(t, err)
	// 0.25 + 0.60 = 0.85 beats 0.70 + 0.45 = 1.15.
	assert.Equal(t, domain.StrategyNoAYesB, opp.Strategy)
	assert.Equal(t, domain.VenueKalshi, opp.BuyOn)
	assert.Equal(t, domain.VenuePolymarket, opp.SellOn)
	assert.InDelta(t, 0.85, opp.TotalCost, 1e-9)
}

func TestEvaluate_ArbTypes(t *testing.T) {
	d := newTestDetector(t, 0)
	tests := []struct {
		name       string
		yesA, noA  float64
		yesB, noB  float64
		want       domain.ArbType
		profitable bool
	}{
		{"net positive", 0.40, 0.60, 0.50, 0.50, domain.ArbSimple, true},
		{"no gross edge", 0.50, 0.52, 0.50, 0.52, domain.ArbNone, false},
		{"zero edge", 0.50, 0.50, 0.50, 0.50, domain.ArbNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opp, err := d.Evaluate(pair(
				priced(domain.VenuePolymarket, "a", tt.yesA, tt.noA),
				priced(domain.VenueKalshi, "b", tt.yesB, tt.noB),
			))
			require.NoError(t, err)
			assert.Equal(t, tt.want, opp.Type)
			assert.Equal(t, tt.profitable, opp.Profitable)
		})
	}
}

func TestEvaluate_SpreadWhenFeesEraseEdge(t *testing.T) {
	fees := NewFeeSchedule()
	require.NoError(t, fees.Register(domain.VenuePolymarket, 0.6))
	require.NoError(t, fees.Register(domain.VenueKalshi, 0.5))
	d := NewDetector(DetectorConfig{Fees: fees, Logger: slog.Default()})

	opp, err := d.Evaluate(pair(
		priced(domain.VenuePolymarket, "a", 0.48, 0.52),
		priced(domain.VenueKalshi, "b", 0.50, 0.50),
	))
	require.NoError(t, err)
	assert.Greater(t, opp.GrossProfit, 0.0)
	assert.LessOrEqual(t, opp.NetProfit, 0.0)
	assert.Equal(t, domain.ArbSpread, opp.Type)
	assert.False(t, opp.Profitable)
}

func TestEvaluate_SuspiciousProfit(t *testing.T) {
	d := newTestDetector(t, 0)
	opp, err := d.Evaluate(pair(
		priced(domain.VenuePolymarket, "a", 0.20, 0.80),
		priced(domain.VenueKalshi, "b", 0.80, 0.20),
	))
	require.NoError(t, err)
	assert.True(t, opp.Profitable)
	assert.True(t, opp.Suspicious, "profit %.1f%% should be flagged", opp.ProfitPercent)

	d.suspicious = 200
	opp, err = d.Evaluate(opp.Pair)
	require.NoError(t, err)
	assert.False(t, opp.Suspicious)
}

func TestEvaluate_AlignsOppositePolarity(t *testing.T) {
	d := newTestDetector(t, 0)
	a := priced(domain.VenuePolymarket, "a", 0.42, 0.58)
	a.YesTeam = "Los Angeles Lakers"
	b := priced(domain.VenueKalshi, "b", 0.45, 0.55)
	b.YesTeam = "Boston Celtics"

	opp, err := d.Evaluate(pair(a, b))
	require.NoError(t, err)
	assert.True(t, opp.Aligned)
	assert.Equal(t, "Los Angeles Lakers", opp.Team)
	// B's YES on the Lakers is its NO on the Celtics: 0.55.
	assert.InDelta(t, 0.13, opp.PriceDifference, 1e-9)
	assert.InDelta(t, 0.87, opp.TotalCost, 1e-9)

	b.YesTeam = "Miami Heat"
	opp, err = d.Evaluate(pair(a, b))
	require.NoError(t, err)
	assert.False(t, opp.Aligned, "a team outside the game is not a polarity flip")
}

func TestDetect_FiltersSortsAndSkips(t *testing.T) {
	d := newTestDetector(t, 2)
	missing := priced(domain.VenueKalshi, "missing", 0.5, 0.5)
	missing.NoPrice = nil

	pairs := []domain.MatchedPair{
		pair(priced(domain.VenuePolymarket, "small", 0.50, 0.50), priced(domain.VenueKalshi, "small-b", 0.505, 0.495)),
		pair(priced(domain.VenuePolymarket, "mid", 0.45, 0.55), priced(domain.VenueKalshi, "mid-b", 0.50, 0.50)),
		pair(priced(domain.VenuePolymarket, "skip", 0.40, 0.60), missing),
		pair(priced(domain.VenuePolymarket, "big", 0.40, 0.60), priced(domain.VenueKalshi, "big-b", 0.50, 0.50)),
	}
	opps := d.Detect(pairs)
	require.Len(t, opps, 2)
	assert.Equal(t, "big", opps[0].Pair.A.VenueID)
	assert.Equal(t, "mid", opps[1].Pair.A.VenueID)
	assert.GreaterOrEqual(t, opps[0].ProfitBps, opps[1].ProfitBps)
	for _, o := range opps {
		assert.GreaterOrEqual(t, o.PriceDifferencePercent, 2.0)
	}
}

func TestDetect_KeepsUnprofitableAboveThreshold(t *testing.T) {
	d := newTestDetector(t, 2)
	opps := d.Detect([]domain.MatchedPair{pair(
		priced(domain.VenuePolymarket, "a", 0.50, 0.55),
		priced(domain.VenueKalshi, "b", 0.60, 0.52),
	)})
	require.Len(t, opps, 1)
	assert.False(t, opps[0].Profitable)
	assert.Less(t, opps[0].ProfitBps, 0.0)
}

func TestFeeSchedule(t *testing.T) {
	fees := testFees(t)
	assert.Equal(t, []domain.Venue{domain.VenueKalshi, domain.VenuePolymarket}, fees.Venues())
	assert.Error(t, fees.Register(domain.VenueKalshi, 1.5))

	_, err := fees.Rate("other")
	assert.ErrorIs(t, err, domain.ErrUnknownVenue)

	charged, err := fees.Charge(Legs{YesVenue: domain.VenueKalshi, NoVenue: domain.VenuePolymarket}, -0.2)
	require.NoError(t, err)
	assert.Zero(t, charged)
}
