package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotClone_SharesNothingWithOriginal(t *testing.T) {
	game := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	expiry := game.Add(30 * time.Hour)
	orig := Snapshot{
		ID: "snap-1",
		Opportunities: []ArbitrageOpportunity{{
			ID: "opp-1",
			Pair: MatchedPair{
				A: Market{VenueID: "a", YesPrice: Float(0.42), NoPrice: Float(0.58), Volume: Float(100), GameDate: Time(game), Expiration: Time(expiry)},
				B: Market{VenueID: "b", YesPrice: Float(0.55), NoPrice: Float(0.45), Liquidity: Float(50), CloseTime: Time(expiry)},
			},
		}},
		Summary:      Summary{ByLeague: map[string]int{"nba": 1}, ByType: map[string]int{"simple": 1}},
		MarketCounts: map[Venue]int{VenueKalshi: 1},
	}

	c := orig.Clone()
	require.Len(t, c.Opportunities, 1)
	pair := &c.Opportunities[0].Pair
	*pair.A.YesPrice = 0.99
	*pair.A.NoPrice = 0.01
	*pair.A.Volume = 0
	*pair.A.GameDate = game.AddDate(0, 0, 1)
	*pair.A.Expiration = expiry.Add(time.Hour)
	*pair.B.Liquidity = 0
	*pair.B.CloseTime = expiry.Add(time.Hour)
	c.Summary.ByLeague["nba"] = 9
	c.MarketCounts[VenueKalshi] = 9
	c.Opportunities[0].ID = "changed"

	o := orig.Opportunities[0]
	assert.Equal(t, "opp-1", o.ID)
	assert.Equal(t, 0.42, *o.Pair.A.YesPrice)
	assert.Equal(t, 0.58, *o.Pair.A.NoPrice)
	assert.Equal(t, 100.0, *o.Pair.A.Volume)
	assert.True(t, game.Equal(*o.Pair.A.GameDate))
	assert.True(t, expiry.Equal(*o.Pair.A.Expiration))
	assert.Equal(t, 50.0, *o.Pair.B.Liquidity)
	assert.True(t, expiry.Equal(*o.Pair.B.CloseTime))
	assert.Equal(t, 1, orig.Summary.ByLeague["nba"])
	assert.Equal(t, 1, orig.MarketCounts[VenueKalshi])

	assert.Nil(t, pair.B.Volume, "nil fields stay nil")
}

func TestMarketClone_NilFieldsStayNil(t *testing.T) {
	m := Market{VenueID: "x"}
	assert.Equal(t, m, m.Clone())
}
