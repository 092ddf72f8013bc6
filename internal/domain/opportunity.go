package domain

import "time"

// ArbStrategy is one of the two opposite-side combinations evaluated per pair.
type ArbStrategy string

const (
	// StrategyYesANoB buys YES on the pair's A market and NO on its B market.
	StrategyYesANoB ArbStrategy = "yes_a_no_b"
	// StrategyNoAYesB buys NO on the pair's A market and YES on its B market.
	StrategyNoAYesB ArbStrategy = "no_a_yes_b"
)

// ArbType tags how an opportunity relates to fees.
type ArbType string

const (
	// ArbSimple is profitable after fees.
	ArbSimple ArbType = "simple"
	// ArbSpread has a positive gross edge that fees erase.
	ArbSpread ArbType = "spread"
	// ArbNone has no gross edge at all; surfaced only for monitoring.
	ArbNone ArbType = "none"
)

// ArbitrageOpportunity is computed from one MatchedPair on every refresh.
type ArbitrageOpportunity struct {
	ID   string      `json:"id"`
	Pair MatchedPair `json:"pair"`

	Strategy ArbStrategy `json:"strategy"`
	// BuyOn is the venue where YES is bought; SellOn is where NO is bought.
	BuyOn    Venue   `json:"buy_on"`
	SellOn   Venue   `json:"sell_on"`
	YesPrice float64 `json:"yes_price"`
	NoPrice  float64 `json:"no_price"`

	TotalCost     float64 `json:"total_cost"`
	GrossProfit   float64 `json:"gross_profit"`
	Fees          float64 `json:"fees"`
	NetProfit     float64 `json:"net_profit"`
	ProfitBps     float64 `json:"profit_bps"`
	ProfitPercent float64 `json:"profit_percent"`

	PriceDifference        float64 `json:"price_difference"`
	PriceDifferencePercent float64 `json:"price_difference_percent"`

	Profitable bool    `json:"profitable"`
	Suspicious bool    `json:"suspicious"`
	Type       ArbType `json:"arb_type"`

	League     string     `json:"league,omitempty"`
	MarketType MarketKind `json:"market_type"`
	Team       string     `json:"team,omitempty"`
	// Aligned is set when venue B's sides were swapped so both YES outcomes
	// refer to the same team.
	Aligned bool `json:"polarity_aligned,omitempty"`

	DetectedAt time.Time `json:"detected_at"`
}

// NearestExpiry is the earliest expiration or close time across both legs.
func (o ArbitrageOpportunity) NearestExpiry() *time.Time {
	a, b := o.Pair.A.NearestExpiry(), o.Pair.B.NearestExpiry()
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Before(*a):
		return b
	default:
		return a
	}
}
