package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/alanyoungcy/crossarb/internal/platform/transport"
)

// PageSize is the Gamma API's maximum page size.
const PageSize = 100

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery and metadata.
type GammaClient struct {
	http *transport.Client
}

// NewGammaClient creates a Gamma client on top of a transport client whose
// base URL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(http *transport.Client) *GammaClient {
	return &GammaClient{http: http}
}

// EventsQuery selects one page of events.
type EventsQuery struct {
	Limit  int
	Offset int
	Tag    string
}

// GetEvents returns one page of open events, with their nested markets.
func (g *GammaClient) GetEvents(ctx context.Context, q EventsQuery) ([]APIEvent, error) {
	params := pageParams(q.Limit, q.Offset)
	if q.Tag != "" {
		params.Set("tag_slug", q.Tag)
	}

	body, err := g.http.Get(ctx, "/events", params)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get events: %w", err)
	}

	var events []APIEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode events: %w", err)
	}
	return events, nil
}

// GetMarkets returns one page of open markets.
func (g *GammaClient) GetMarkets(ctx context.Context, limit, offset int) ([]APIMarket, error) {
	body, err := g.http.Get(ctx, "/markets", pageParams(limit, offset))
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets: %w", err)
	}

	var markets []APIMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}
	return markets, nil
}

func pageParams(limit, offset int) url.Values {
	if limit <= 0 || limit > PageSize {
		limit = PageSize
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("active", "true")
	params.Set("closed", "false")
	return params
}
