// Package portfolio owns the cash/position/pair-position state machine:
// the one place shares, cash, and realized P&L are mutated during a
// backtest.
package portfolio

import (
	"log"
	"os"
	"time"

	"pairsim/pairsimerr"
)

// EquityPoint is one (date, equity) sample of the equity curve.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}

// Portfolio tracks cash, per-symbol positions, per-pair linked positions,
// and the equity curve. Owned exclusively by the runner; a strategy may
// read it but has no mutating API available to it.
type Portfolio struct {
	InitialCapital     float64
	Cash               float64
	positions          map[string]Position
	pairPositions      map[string]PairPosition
	equityCurve        []EquityPoint
	cumulativeCommission float64

	logger *log.Logger
}

// New constructs a Portfolio starting fully in cash.
func New(initialCapital float64) *Portfolio {
	return &Portfolio{
		InitialCapital: initialCapital,
		Cash:           initialCapital,
		positions:      make(map[string]Position),
		pairPositions:  make(map[string]PairPosition),
		equityCurve:    make([]EquityPoint, 0),
		logger:         log.New(os.Stderr, "[PORTFOLIO] ", log.LstdFlags),
	}
}

// Equity is cash plus the market value of every position and pair position.
func (p *Portfolio) Equity() float64 {
	total := p.Cash
	for _, pos := range p.positions {
		total += pos.MarketValue()
	}
	for _, pp := range p.pairPositions {
		total += pp.MarketValue()
	}
	return total
}

// GrossExposure is the sum of absolute market values across positions.
func (p *Portfolio) GrossExposure() float64 {
	total := 0.0
	for _, pos := range p.positions {
		total += absFloat(pos.MarketValue())
	}
	for _, pp := range p.pairPositions {
		total += absFloat(pp.LongLeg.MarketValue()) + absFloat(pp.ShortLeg.MarketValue())
	}
	return total
}

// NetExposure is the signed sum of market values.
func (p *Portfolio) NetExposure() float64 {
	total := 0.0
	for _, pos := range p.positions {
		total += pos.MarketValue()
	}
	for _, pp := range p.pairPositions {
		total += pp.MarketValue()
	}
	return total
}

// RealizedPnL sums realized P&L across all currently-tracked positions.
// Closed (deleted) positions' realized P&L is folded into cash already, so
// this reflects only open positions' running realized total.
func (p *Portfolio) RealizedPnL() float64 {
	total := 0.0
	for _, pos := range p.positions {
		total += pos.RealizedPnL
	}
	for _, pp := range p.pairPositions {
		total += pp.LongLeg.RealizedPnL + pp.ShortLeg.RealizedPnL
	}
	return total
}

// UnrealizedPnL sums unrealized P&L across all open positions.
func (p *Portfolio) UnrealizedPnL() float64 {
	total := 0.0
	for _, pos := range p.positions {
		total += pos.UnrealizedPnL()
	}
	for _, pp := range p.pairPositions {
		total += pp.LongLeg.UnrealizedPnL() + pp.ShortLeg.UnrealizedPnL()
	}
	return total
}

// TotalCommission is the running sum of commission paid.
func (p *Portfolio) TotalCommission() float64 { return p.cumulativeCommission }

// NumPositions is the count of open single-symbol positions (excludes pair legs).
func (p *Portfolio) NumPositions() int { return len(p.positions) }

// NumPairPositions is the count of open pair positions.
func (p *Portfolio) NumPairPositions() int { return len(p.pairPositions) }

// EquityCurve returns the recorded equity samples in recording order.
func (p *Portfolio) EquityCurve() []EquityPoint {
	out := make([]EquityPoint, len(p.equityCurve))
	copy(out, p.equityCurve)
	return out
}

// GetPosition returns the position for symbol, if any.
func (p *Portfolio) GetPosition(symbol string) (Position, bool) {
	pos, ok := p.positions[symbol]
	return pos, ok
}

// GetPairPosition returns the pair position for pairID, if any.
func (p *Portfolio) GetPairPosition(pairID string) (PairPosition, bool) {
	pp, ok := p.pairPositions[pairID]
	return pp, ok
}

// HasPair reports whether pairID is currently open.
func (p *Portfolio) HasPair(pairID string) bool {
	_, ok := p.pairPositions[pairID]
	return ok
}

// IterPositions calls fn for every open single-symbol position.
func (p *Portfolio) IterPositions(fn func(Position)) {
	for _, pos := range p.positions {
		fn(pos)
	}
}

// IterPairPositions calls fn for every open pair position.
func (p *Portfolio) IterPairPositions(fn func(PairPosition)) {
	for _, pp := range p.pairPositions {
		fn(pp)
	}
}

// GetAllSymbols returns every symbol with an open position, including pair legs.
func (p *Portfolio) GetAllSymbols() []string {
	out := make([]string, 0, len(p.positions)+2*len(p.pairPositions))
	for sym := range p.positions {
		out = append(out, sym)
	}
	for _, pp := range p.pairPositions {
		out = append(out, pp.LongLeg.Symbol, pp.ShortLeg.Symbol)
	}
	return out
}

// UpdatePrices mutates CurrentPrice on every held position matched in
// prices; symbols not held are silently ignored.
func (p *Portfolio) UpdatePrices(prices map[string]float64) {
	for sym, pos := range p.positions {
		if px, ok := prices[sym]; ok {
			pos.CurrentPrice = px
			p.positions[sym] = pos
		}
	}
	for pairID, pp := range p.pairPositions {
		if px, ok := prices[pp.LongLeg.Symbol]; ok {
			pp.LongLeg.CurrentPrice = px
		}
		if px, ok := prices[pp.ShortLeg.Symbol]; ok {
			pp.ShortLeg.CurrentPrice = px
		}
		p.pairPositions[pairID] = pp
	}
}

// RecordEquity appends an (date, equity) sample. Callers must advance the
// date monotonically.
func (p *Portfolio) RecordEquity(date time.Time) {
	p.equityCurve = append(p.equityCurve, EquityPoint{Date: date, Equity: p.Equity()})
}

// ExecuteTrade is the core state transition for a single-symbol (non-pair)
// trade: it fails with InsufficientCapitalError iff side=LONG and the total
// cost exceeds cash. It updates the matching position via AddShares and
// adjusts cash, returning the realized P&L of this fill (nonzero only when
// the trade closes or flips the position).
func (p *Portfolio) ExecuteTrade(t Trade) (float64, error) {
	signed := t.SignedShares()
	cost := t.Notional() + t.Commission

	if t.Side == Long && cost > p.Cash {
		return 0, &pairsimerr.InsufficientCapitalError{Required: cost, Available: p.Cash, Symbol: t.Symbol}
	}

	pos, ok := p.positions[t.Symbol]
	if !ok {
		pos = Position{Symbol: t.Symbol, CurrentPrice: t.Price}
	}
	pos.CurrentPrice = t.Price
	pos, realized := AddShares(pos, signed, t.Price)
	pos.RealizedPnL += realized

	if t.Side == Long {
		p.Cash -= t.Notional() + t.Commission
	} else {
		p.Cash += t.Notional() - t.Commission
	}
	p.cumulativeCommission += t.Commission

	if pos.IsFlat() {
		delete(p.positions, t.Symbol)
	} else {
		p.positions[t.Symbol] = pos
	}

	return realized, nil
}

// OpenPair atomically validates cash for the long leg, creates both legs
// (short leg with negative shares), records commission and cash flows, and
// stores the pair position. Callers must not reopen an already-active
// pairID.
func (p *Portfolio) OpenPair(pairID string, longTrade, shortTrade Trade, hedgeRatio float64, entryDate time.Time) error {
	longCost := longTrade.Notional() + longTrade.Commission
	if longCost > p.Cash {
		return &pairsimerr.InsufficientCapitalError{Required: longCost, Available: p.Cash, Symbol: longTrade.Symbol}
	}

	longLeg := Position{Symbol: longTrade.Symbol, Shares: longTrade.Shares, AvgEntryPrice: longTrade.Price, CurrentPrice: longTrade.Price}
	shortLeg := Position{Symbol: shortTrade.Symbol, Shares: -shortTrade.Shares, AvgEntryPrice: shortTrade.Price, CurrentPrice: shortTrade.Price}

	p.Cash -= longCost
	p.Cash += shortTrade.Notional() - shortTrade.Commission
	p.cumulativeCommission += longTrade.Commission + shortTrade.Commission

	p.pairPositions[pairID] = PairPosition{
		PairID:     pairID,
		LongLeg:    longLeg,
		ShortLeg:   shortLeg,
		HedgeRatio: hedgeRatio,
		EntryDate:  entryDate,
	}
	p.logger.Printf("opened pair %s: long=%s short=%s hedge=%.4f", pairID, longTrade.Symbol, shortTrade.Symbol, hedgeRatio)
	return nil
}

// ClosePair requires the pair to exist; it computes realized P&L as the
// delta against the stored entry price on each leg and removes the pair
// from the portfolio.
func (p *Portfolio) ClosePair(pairID string, longCloseTrade, shortCloseTrade Trade) (float64, error) {
	pp, ok := p.pairPositions[pairID]
	if !ok {
		return 0, &pairsimerr.ExecutionError{Symbol: pairID, Reason: "close_pair: no active pair with this id"}
	}

	longRealized := pp.LongLeg.Shares * (longCloseTrade.Price - pp.LongLeg.AvgEntryPrice)
	shortRealized := (-pp.ShortLeg.Shares) * (pp.ShortLeg.AvgEntryPrice - shortCloseTrade.Price)

	p.Cash += longCloseTrade.Notional() - longCloseTrade.Commission
	p.Cash -= shortCloseTrade.Notional() + shortCloseTrade.Commission
	p.cumulativeCommission += longCloseTrade.Commission + shortCloseTrade.Commission

	delete(p.pairPositions, pairID)
	p.logger.Printf("closed pair %s: pnl=%.2f", pairID, longRealized+shortRealized)
	return longRealized + shortRealized, nil
}

// Reset restores the portfolio to its initial, fully-in-cash state.
func (p *Portfolio) Reset() {
	p.Cash = p.InitialCapital
	p.positions = make(map[string]Position)
	p.pairPositions = make(map[string]PairPosition)
	p.equityCurve = make([]EquityPoint, 0)
	p.cumulativeCommission = 0
}
