// Package commission provides pluggable fee calculators keyed on absolute
// share count and price.
package commission

import "math"

// Model computes a commission for a fill of absShares shares at price.
type Model interface {
	Calculate(absShares, price float64) float64
}

// Zero never charges a fee.
type Zero struct{}

func (Zero) Calculate(absShares, price float64) float64 { return 0 }

// PerShare charges rate per share, floored at Min and optionally capped at
// Max (Max <= 0 means uncapped).
type PerShare struct {
	Rate float64
	Min  float64
	Max  float64
}

func (c PerShare) Calculate(absShares, price float64) float64 {
	fee := math.Max(c.Min, c.Rate*absShares)
	if c.Max > 0 {
		fee = math.Min(fee, c.Max)
	}
	return fee
}

// Percentage charges rate * notional, floored at Min.
type Percentage struct {
	Rate float64
	Min  float64
}

func (c Percentage) Calculate(absShares, price float64) float64 {
	return math.Max(c.Min, c.Rate*absShares*price)
}

// IBKRTiered models Interactive Brokers' tiered commission schedule:
// rate per share plus a flat exchange fee per share, floored at Min, and
// then capped at MaxPct of notional. The cap is applied last and is
// allowed to push the result below Min; this ordering is deliberate, not
// a bug.
type IBKRTiered struct {
	Rate        float64
	ExchangeFee float64
	Min         float64
	MaxPct      float64
}

func (c IBKRTiered) Calculate(absShares, price float64) float64 {
	fee := c.Rate*absShares + c.ExchangeFee*absShares
	fee = math.Max(c.Min, fee)
	cap := c.MaxPct * absShares * price
	return math.Min(fee, cap)
}
