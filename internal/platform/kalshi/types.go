package kalshi

import (
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Kalshi API DTOs
// --------------------------------------------------------------------------

// KalshiSeries is a collection of related events, e.g. every NBA game.
type KalshiSeries struct {
	Ticker    string   `json:"ticker"`
	Title     string   `json:"title"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	Frequency string   `json:"frequency,omitempty"`
}

// KalshiEvent is one occurrence within a series, e.g. a single game.
type KalshiEvent struct {
	EventTicker       string         `json:"event_ticker"`
	SeriesTicker      string         `json:"series_ticker"`
	Title             string         `json:"title"`
	SubTitle          string         `json:"sub_title"`
	Category          string         `json:"category"`
	MutuallyExclusive bool           `json:"mutually_exclusive"`
	Markets           []KalshiMarket `json:"markets,omitempty"`
}

// KalshiMarket represents a market as returned by the Kalshi REST API. Prices
// are in cents.
type KalshiMarket struct {
	Ticker                 string  `json:"ticker"`
	EventTicker            string  `json:"event_ticker"`
	SeriesTicker           string  `json:"series_ticker"`
	Title                  string  `json:"title"`
	Subtitle               string  `json:"subtitle"`
	YesSubTitle            string  `json:"yes_sub_title"`
	Status                 string  `json:"status"` // "open", "closed", "settled"
	YesBid                 float64 `json:"yes_bid"`
	YesAsk                 float64 `json:"yes_ask"`
	NoBid                  float64 `json:"no_bid"`
	NoAsk                  float64 `json:"no_ask"`
	LastPrice              float64 `json:"last_price"`
	Volume                 float64 `json:"volume"`
	Volume24H              float64 `json:"volume_24h"`
	OpenInterest           float64 `json:"open_interest"`
	Liquidity              float64 `json:"liquidity"`
	Category               string  `json:"category"`
	CloseTime              string  `json:"close_time"`
	ExpirationTime         string  `json:"expiration_time"`
	ExpectedExpirationTime string  `json:"expected_expiration_time"`
	Result                 string  `json:"result"` // "yes", "no", "" (unsettled)
}

// ExchangeStatus reports whether the exchange is accepting activity.
type ExchangeStatus struct {
	ExchangeActive bool `json:"exchange_active"`
	TradingActive  bool `json:"trading_active"`
}

// Question joins title and subtitle the way the market is displayed.
func (m *KalshiMarket) Question() string {
	if m.Subtitle == "" {
		return m.Title
	}
	return m.Title + " - " + m.Subtitle
}

// Prices converts cent quotes to dollars. YES is the last trade, else the
// ask, else the bid; NO is the ask, else the bid, else the complement of YES.
// ok is false when no YES quote exists at all.
func (m *KalshiMarket) Prices() (yes, no float64, ok bool) {
	yc := firstPositive(m.LastPrice, m.YesAsk, m.YesBid)
	if yc == 0 {
		return 0, 0, false
	}
	nc := firstPositive(m.NoAsk, m.NoBid)
	if nc == 0 {
		nc = 100 - yc
	}
	return yc / 100, nc / 100, true
}

// Expiry is the expected expiration, falling back to the contractual one.
func (m *KalshiMarket) Expiry() *time.Time {
	if t := parseTime(m.ExpectedExpirationTime); t != nil {
		return t
	}
	return parseTime(m.ExpirationTime)
}

func firstPositive(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
