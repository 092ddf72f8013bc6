// Package arbitrage evaluates matched cross-venue pairs. Each pair is priced
// under the two opposite-side strategies, fees are charged per venue on the
// gross edge, and the better strategy becomes the pair's opportunity.
package arbitrage

import "github.com/alanyoungcy/crossarb/internal/domain"

// Quote holds the four prices of a pair after polarity alignment.
type Quote struct {
	VenueA, VenueB domain.Venue
	YesA, NoA      float64
	YesB, NoB      float64
}

// Legs is the position a strategy takes: YES on one venue, NO on the other.
type Legs struct {
	YesVenue domain.Venue
	NoVenue  domain.Venue
	YesPrice float64
	NoPrice  float64
}

// Cost is the combined price of both legs.
func (l Legs) Cost() float64 { return l.YesPrice + l.NoPrice }

// Strategy picks the legs for one side combination.
type Strategy interface {
	Name() domain.ArbStrategy
	Legs(q Quote) Legs
}

// YesANoB buys YES on venue A and NO on venue B.
type YesANoB struct{}

// Name returns the strategy identifier.
func (YesANoB) Name() domain.ArbStrategy { return domain.StrategyYesANoB }

// Legs returns YES on A and NO on B.
func (YesANoB) Legs(q Quote) Legs {
	return Legs{YesVenue: q.VenueA, NoVenue: q.VenueB, YesPrice: q.YesA, NoPrice: q.NoB}
}

// NoAYesB buys NO on venue A and YES on venue B.
type NoAYesB struct{}

// Name returns the strategy identifier.
func (NoAYesB) Name() domain.ArbStrategy { return domain.StrategyNoAYesB }

// Legs returns YES on B and NO on A.
func (NoAYesB) Legs(q Quote) Legs {
	return Legs{YesVenue: q.VenueB, NoVenue: q.VenueA, YesPrice: q.YesB, NoPrice: q.NoA}
}

// DefaultStrategies is the evaluation order. On equal net profit the earlier
// strategy wins.
func DefaultStrategies() []Strategy {
	return []Strategy{YesANoB{}, NoAYesB{}}
}
