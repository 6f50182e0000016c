// Package provider defines the external-data-source contract the core
// never depends on directly: something that can fetch a symbol set's price
// history for a date range.
package provider

import (
	"context"
	"time"

	"pairsim/pricebar"
)

// DataProvider fetches historical price bars for symbols over
// [start, end]. adjusted requests split/dividend-adjusted prices where the
// concrete provider supports it.
type DataProvider interface {
	Fetch(ctx context.Context, symbols []string, start, end time.Time, adjusted bool) ([]pricebar.PriceBar, error)
}
