package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/alanyoungcy/crossarb/internal/platform/transport"
)

// ClobClient reads live prices from the Polymarket CLOB (Central Limit Order
// Book) API.
type ClobClient struct {
	http *transport.Client
}

// NewClobClient creates a CLOB client on top of a transport client whose base
// URL is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewClobClient(http *transport.Client) *ClobClient {
	return &ClobClient{http: http}
}

// GetPrices returns the current price of each token id. Tokens the CLOB does
// not quote are absent from the result.
func (c *ClobClient) GetPrices(ctx context.Context, tokenIDs []string) (map[string]float64, error) {
	if len(tokenIDs) == 0 {
		return map[string]float64{}, nil
	}
	params := url.Values{}
	params.Set("token_ids", strings.Join(tokenIDs, ","))

	body, err := c.http.Get(ctx, "/prices", params)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: get prices: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("polymarket/clob: decode prices: %w", err)
	}
	out := make(map[string]float64, len(raw))
	for id, v := range raw {
		if p, ok := parseCLOBPrice(v); ok {
			out[id] = p
		}
	}
	return out, nil
}
