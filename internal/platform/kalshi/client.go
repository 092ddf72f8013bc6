package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/alanyoungcy/crossarb/internal/platform/transport"
)

// PageSize is the number of records requested per page.
const PageSize = 200

// Client is the REST client for the public Kalshi market-data API.
type Client struct {
	http *transport.Client
}

// NewClient creates a Kalshi client on top of a transport client whose base
// URL is the API root, e.g. "https://api.elections.kalshi.com/trade-api/v2".
func NewClient(http *transport.Client) *Client {
	return &Client{http: http}
}

// GetExchangeStatus reports whether the exchange is up.
func (c *Client) GetExchangeStatus(ctx context.Context) (ExchangeStatus, error) {
	body, err := c.http.Get(ctx, "/exchange/status", nil)
	if err != nil {
		return ExchangeStatus{}, fmt.Errorf("kalshi: exchange status: %w", err)
	}
	var st ExchangeStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return ExchangeStatus{}, fmt.Errorf("kalshi: decode exchange status: %w", err)
	}
	return st, nil
}

// ListSeries returns every series, optionally restricted to a category.
func (c *Client) ListSeries(ctx context.Context, category string) ([]KalshiSeries, error) {
	var out []KalshiSeries
	cursor := ""
	for page := 0; page < maxPages; page++ {
		params := url.Values{}
		if category != "" {
			params.Set("category", category)
		}
		if cursor != "" {
			params.Set("cursor", cursor)
		}
		body, err := c.http.Get(ctx, "/series", params)
		if err != nil {
			return nil, fmt.Errorf("kalshi: list series: %w", err)
		}
		var resp struct {
			Series []KalshiSeries `json:"series"`
			Cursor string         `json:"cursor"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("kalshi: decode series: %w", err)
		}
		out = append(out, resp.Series...)
		if resp.Cursor == "" || resp.Cursor == cursor {
			break
		}
		cursor = resp.Cursor
	}
	return out, nil
}

// GetSeries returns one series by ticker.
func (c *Client) GetSeries(ctx context.Context, ticker string) (KalshiSeries, error) {
	body, err := c.http.Get(ctx, "/series/"+url.PathEscape(ticker), nil)
	if err != nil {
		return KalshiSeries{}, fmt.Errorf("kalshi: get series %s: %w", ticker, err)
	}
	var resp struct {
		Series KalshiSeries `json:"series"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return KalshiSeries{}, fmt.Errorf("kalshi: decode series: %w", err)
	}
	return resp.Series, nil
}

// EventsPage is one page of events plus the cursor for the next one.
type EventsPage struct {
	Events []KalshiEvent `json:"events"`
	Cursor string        `json:"cursor"`
}

// ListEvents returns one page of open events in a series, with nested
// markets when the API provides them.
func (c *Client) ListEvents(ctx context.Context, seriesTicker, cursor string) (EventsPage, error) {
	params := url.Values{}
	params.Set("series_ticker", seriesTicker)
	params.Set("status", "open")
	params.Set("with_nested_markets", "true")
	params.Set("limit", strconv.Itoa(PageSize))
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	body, err := c.http.Get(ctx, "/events", params)
	if err != nil {
		return EventsPage{}, fmt.Errorf("kalshi: list events %s: %w", seriesTicker, err)
	}
	var page EventsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return EventsPage{}, fmt.Errorf("kalshi: decode events: %w", err)
	}
	return page, nil
}

// MarketsPage is one page of markets plus the cursor for the next one.
type MarketsPage struct {
	Markets []KalshiMarket `json:"markets"`
	Cursor  string         `json:"cursor"`
}

// ListMarkets returns one page of the markets in an event.
func (c *Client) ListMarkets(ctx context.Context, eventTicker, cursor string) (MarketsPage, error) {
	params := url.Values{}
	params.Set("event_ticker", eventTicker)
	params.Set("limit", strconv.Itoa(PageSize))
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	body, err := c.http.Get(ctx, "/markets", params)
	if err != nil {
		return MarketsPage{}, fmt.Errorf("kalshi: list markets %s: %w", eventTicker, err)
	}
	var page MarketsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return MarketsPage{}, fmt.Errorf("kalshi: decode markets: %w", err)
	}
	return page, nil
}
