// Package alpaca wraps the Alpaca market-data API as a provider.DataProvider:
// the one concrete external data source wired into this module.
package alpaca

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"pairsim/pairsimerr"
	"pairsim/pricebar"
)

// Client fetches daily bars from Alpaca and translates them into
// decimal-backed PriceBars at the one documented decimal boundary.
type Client struct {
	data *marketdata.Client
}

// New constructs a Client against the live Alpaca market-data endpoint.
func New(apiKey, apiSecret string) *Client {
	return &Client{
		data: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
	}
}

// Fetch retrieves daily bars for every symbol over [start, end] and merges
// them into one slice. adjusted selects split/dividend-adjusted prices via
// the SIP adjustment the SDK supports; AdjClose is always set equal to Close
// (adjusted or raw, as requested), since Alpaca's bar schema carries a
// single close.
func (c *Client) Fetch(ctx context.Context, symbols []string, start, end time.Time, adjusted bool) ([]pricebar.PriceBar, error) {
	out := make([]pricebar.PriceBar, 0)
	for _, symbol := range symbols {
		req := marketdata.GetBarsRequest{
			TimeFrame:  marketdata.OneDay,
			Start:      start,
			End:        end,
			PageLimit:  10000,
			Adjustment: marketdata.Raw,
		}
		if adjusted {
			req.Adjustment = marketdata.SplitAndDividend
		}

		bars, err := c.data.GetBars(symbol, req)
		if err != nil {
			return nil, fmt.Errorf("alpaca: fetching bars for %s: %w", symbol, err)
		}
		if len(bars) == 0 {
			return nil, &pairsimerr.InsufficientDataError{Symbol: symbol, Details: "provider returned zero bars for requested range"}
		}

		for _, b := range bars {
			pb, err := pricebar.NewPriceBar(
				symbol,
				b.Timestamp,
				decimal.NewFromFloat(b.Open),
				decimal.NewFromFloat(b.High),
				decimal.NewFromFloat(b.Low),
				decimal.NewFromFloat(b.Close),
				decimal.NewFromFloat(b.Close),
				int64(b.Volume),
			)
			if err != nil {
				return nil, fmt.Errorf("alpaca: %s %s: %w", symbol, b.Timestamp.Format("2006-01-02"), err)
			}
			out = append(out, pb)
		}
	}
	return out, nil
}
