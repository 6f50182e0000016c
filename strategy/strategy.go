// Package strategy defines the callback contract the simulation loop
// drives: a pure (date, PIT) -> Signal function plus lifecycle hooks.
package strategy

import (
	"time"

	"pairsim/pit"
	"pairsim/portfolio"
	"pairsim/signal"
)

// Strategy is anything exposing a stable name, an OnBar callback, and the
// optional lifecycle hooks below. OnBar may keep internal state between
// calls; it must not access any data outside the PIT it is given.
type Strategy interface {
	Name() string
	OnBar(date time.Time, view pit.PointInTime) (signal.Signal, error)
	OnStart(start, end time.Time)
	OnEnd()
	OnFill(trade portfolio.Trade)
}

// Base supplies no-op defaults for the lifecycle hooks so concrete
// strategies need only embed it and implement Name/OnBar.
type Base struct {
	trades []portfolio.Trade
}

func (*Base) OnStart(start, end time.Time) {}
func (*Base) OnEnd()                       {}

// OnFill records every fill; embedders needing fill history can read
// b.Trades() without re-implementing the hook.
func (b *Base) OnFill(trade portfolio.Trade) {
	b.trades = append(b.trades, trade)
}

// Trades returns every fill recorded via OnFill so far.
func (b *Base) Trades() []portfolio.Trade {
	out := make([]portfolio.Trade, len(b.trades))
	copy(out, b.trades)
	return out
}
