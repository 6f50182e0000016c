package portfolio

import "time"

// Trade is an immutable executed fill. Side LONG means cash out (buy or
// short-cover); SHORT means cash in (sell or short-open).
type Trade struct {
	Date       time.Time
	Symbol     string
	Side       Side
	Shares     float64 // always > 0
	Price      float64 // always > 0
	Commission float64 // >= 0
	PairID     string  // empty if not part of a pair
}

// SignedShares is +Shares for LONG, -Shares for SHORT.
func (t Trade) SignedShares() float64 {
	if t.Side == Short {
		return -t.Shares
	}
	return t.Shares
}

// Notional is the unsigned dollar size of the trade, before commission.
func (t Trade) Notional() float64 { return t.Shares * t.Price }
