// Package pricebar holds the immutable OHLCV row and corporate-action types
// that sit at the bottom of the dependency chain, plus the one place the
// decimal-at-rest / float-in-simulation boundary is crossed.
package pricebar

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar is one day's OHLCV row for one symbol, stored in exact decimal.
// Immutable after construction.
type PriceBar struct {
	Symbol   string
	Date     time.Time
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	AdjClose decimal.Decimal
	Volume   int64
}

// NewPriceBar validates and constructs a PriceBar. Invariants enforced:
// high >= low, open/close >= 0, low <= open <= high, low <= close <= high.
// The last two are stricter than the reference this spec was distilled
// from, which checks only high >= low and non-negativity.
func NewPriceBar(symbol string, date time.Time, open, high, low, close, adjClose decimal.Decimal, volume int64) (PriceBar, error) {
	if high.LessThan(low) {
		return PriceBar{}, fmt.Errorf("pricebar %s %s: high %s < low %s", symbol, date.Format("2006-01-02"), high, low)
	}
	if open.IsNegative() || close.IsNegative() {
		return PriceBar{}, fmt.Errorf("pricebar %s %s: negative open/close", symbol, date.Format("2006-01-02"))
	}
	if volume < 0 {
		return PriceBar{}, fmt.Errorf("pricebar %s %s: negative volume %d", symbol, date.Format("2006-01-02"), volume)
	}
	if open.LessThan(low) || open.GreaterThan(high) {
		return PriceBar{}, fmt.Errorf("pricebar %s %s: open %s outside [low, high] = [%s, %s]", symbol, date.Format("2006-01-02"), open, low, high)
	}
	if close.LessThan(low) || close.GreaterThan(high) {
		return PriceBar{}, fmt.Errorf("pricebar %s %s: close %s outside [low, high] = [%s, %s]", symbol, date.Format("2006-01-02"), close, low, high)
	}
	return PriceBar{
		Symbol:   symbol,
		Date:     date,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    close,
		AdjClose: adjClose,
		Volume:   volume,
	}, nil
}

// Bar is the float64 representation used everywhere inside the simulation
// once a PriceBar has crossed the decimal boundary.
type Bar struct {
	Symbol   string
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   int64
}

// Float converts a PriceBar to its float64 simulation representation. This
// is the one documented place the decimal->float boundary is crossed for
// price data.
func (p PriceBar) Float() Bar {
	return Bar{
		Symbol:   p.Symbol,
		Date:     p.Date,
		Open:     toFloat(p.Open),
		High:     toFloat(p.High),
		Low:      toFloat(p.Low),
		Close:    toFloat(p.Close),
		AdjClose: toFloat(p.AdjClose),
		Volume:   p.Volume,
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// PriceColumn selects which Bar field a caller means by "the price".
type PriceColumn int

const (
	// ColumnAdjClose is the default price column per spec.
	ColumnAdjClose PriceColumn = iota
	ColumnClose
	ColumnOpen
	ColumnHigh
	ColumnLow
)

// Price returns the value of the selected column.
func (b Bar) Price(col PriceColumn) float64 {
	switch col {
	case ColumnClose:
		return b.Close
	case ColumnOpen:
		return b.Open
	case ColumnHigh:
		return b.High
	case ColumnLow:
		return b.Low
	default:
		return b.AdjClose
	}
}

// CorporateActionType enumerates the kinds of corporate action recognized.
type CorporateActionType int

const (
	Split CorporateActionType = iota
	Dividend
	Delisting
	Merger
)

func (k CorporateActionType) String() string {
	switch k {
	case Split:
		return "SPLIT"
	case Dividend:
		return "DIVIDEND"
	case Delisting:
		return "DELISTING"
	case Merger:
		return "MERGER"
	default:
		return "UNKNOWN"
	}
}

// CorporateAction is an immutable record of a split/dividend/delisting/
// merger event. The core assumes AdjClose on PriceBar already reflects all
// known splits and dividends; this type is carried for audit and for
// upstream adjustment pipelines, not consumed by the simulation loop.
type CorporateAction struct {
	Symbol string
	Date   time.Time
	Kind   CorporateActionType
	Value  decimal.Decimal
}
