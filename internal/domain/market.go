package domain

import "time"

// Venue identifies one of the two prediction-market platforms.
type Venue string

const (
	// VenuePolymarket is venue A: discovery and pricing live on separate APIs.
	VenuePolymarket Venue = "polymarket"
	// VenueKalshi is venue B: markets hang off a series/event hierarchy.
	VenueKalshi Venue = "kalshi"
)

// Valid reports whether v is a known venue.
func (v Venue) Valid() bool {
	return v == VenuePolymarket || v == VenueKalshi
}

// MarketKind classifies what a binary market settles on.
type MarketKind string

const (
	KindMoneyline  MarketKind = "moneyline"
	KindSpread     MarketKind = "spread"
	KindOverUnder  MarketKind = "over_under"
	KindPlayerProp MarketKind = "player_prop"
	KindFutures    MarketKind = "futures"
	KindOther      MarketKind = "other"
)

// Market is a venue-tagged binary market in the common shape produced by the
// venue clients. Nullable attributes are pointers.
type Market struct {
	VenueID        string     `json:"venue_id"`
	Venue          Venue      `json:"venue"`
	RawTitle       string     `json:"raw_title"`
	NormalizedName string     `json:"normalized_name"`
	Slug           string     `json:"slug,omitempty"`
	Category       string     `json:"category,omitempty"`
	VenueCategory  string     `json:"venue_category,omitempty"`
	Kind           MarketKind `json:"market_kind"`
	AwayTeam       string     `json:"away_team,omitempty"`
	HomeTeam       string     `json:"home_team,omitempty"`
	// YesTeam is the team a YES position pays out on, when the venue says so.
	YesTeam  string     `json:"yes_team,omitempty"`
	GameDate *time.Time `json:"game_date,omitempty"`

	YesPrice *float64 `json:"yes_price,omitempty"`
	NoPrice  *float64 `json:"no_price,omitempty"`

	Volume       *float64 `json:"volume,omitempty"`
	Volume24h    *float64 `json:"volume_24h,omitempty"`
	OpenInterest *float64 `json:"open_interest,omitempty"`
	Liquidity    *float64 `json:"liquidity,omitempty"`

	Expiration *time.Time `json:"expiration,omitempty"`
	CloseTime  *time.Time `json:"close_time,omitempty"`
	URL        string     `json:"url,omitempty"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// Prices returns the YES and NO prices. ok is false when either is missing or
// outside [0,1], in which case the market cannot be scored.
func (m Market) Prices() (yes, no float64, ok bool) {
	if m.YesPrice == nil || m.NoPrice == nil {
		return 0, 0, false
	}
	yes, no = *m.YesPrice, *m.NoPrice
	if yes < 0 || yes > 1 || no < 0 || no > 1 {
		return 0, 0, false
	}
	return yes, no, true
}

// HasTeams reports whether both sides of a head-to-head were extracted.
func (m Market) HasTeams() bool {
	return m.AwayTeam != "" && m.HomeTeam != ""
}

// NearestExpiry returns the earliest of Expiration and CloseTime, or nil.
func (m Market) NearestExpiry() *time.Time {
	switch {
	case m.Expiration == nil:
		return m.CloseTime
	case m.CloseTime == nil:
		return m.Expiration
	case m.CloseTime.Before(*m.Expiration):
		return m.CloseTime
	default:
		return m.Expiration
	}
}

// Clone returns a copy of m that shares no pointers with it.
func (m Market) Clone() Market {
	out := m
	for _, p := range []**float64{&out.YesPrice, &out.NoPrice, &out.Volume, &out.Volume24h, &out.OpenInterest, &out.Liquidity} {
		if *p != nil {
			*p = Float(**p)
		}
	}
	for _, p := range []**time.Time{&out.GameDate, &out.Expiration, &out.CloseTime} {
		if *p != nil {
			*p = Time(**p)
		}
	}
	return out
}

// Float returns a pointer to f. Handy for optional numeric fields.
func Float(f float64) *float64 { return &f }

// Time returns a pointer to t.
func Time(t time.Time) *time.Time { return &t }
