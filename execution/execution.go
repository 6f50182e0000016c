// Package execution implements the close-price, no-slippage execution
// model: it turns a Signal plus the current price vector into Trades and
// mutates the portfolio accordingly. No partial fills, no market impact.
package execution

import (
	"fmt"
	"sort"
	"time"

	"pairsim/commission"
	"pairsim/pairsimerr"
	"pairsim/portfolio"
	"pairsim/signal"
)

// MinShareThreshold is the small-trade threshold below which a weight
// rebalance is skipped rather than emitting a near-zero trade.
const MinShareThreshold = 0.01

// ClosePriceExecution is the sole execution model: it fills every trade at
// the supplied current-day price, with the supplied commission model.
type ClosePriceExecution struct {
	Commission commission.Model
}

// New constructs a ClosePriceExecution with the given commission model.
func New(comm commission.Model) ClosePriceExecution {
	return ClosePriceExecution{Commission: comm}
}

// Apply dispatches on signal.Kind and executes against p, mutating p and
// returning every trade emitted, in execution order.
func (e ClosePriceExecution) Apply(sig signal.Signal, prices map[string]float64, p *portfolio.Portfolio, date time.Time, capitalPerPair float64) ([]portfolio.Trade, error) {
	switch sig.Kind {
	case signal.None:
		return nil, nil
	case signal.Pair:
		switch sig.PairOp {
		case signal.Open:
			return e.openPair(sig, prices, p, date, capitalPerPair)
		case signal.Close:
			return e.closePair(sig, prices, p, date)
		default:
			return nil, &pairsimerr.InvalidSignalError{Signal: sig, Reason: "unknown pair op"}
		}
	case signal.Weight:
		return e.weightRebalance(sig, prices, p, date)
	default:
		return nil, &pairsimerr.InvalidSignalError{Signal: sig, Reason: "unknown signal kind"}
	}
}

func (e ClosePriceExecution) openPair(sig signal.Signal, prices map[string]float64, p *portfolio.Portfolio, date time.Time, capitalPerPair float64) ([]portfolio.Trade, error) {
	longPrice, ok := prices[sig.LongSymbol]
	if !ok {
		return nil, &pairsimerr.ExecutionError{Symbol: sig.LongSymbol, Reason: "no price available to open pair"}
	}
	shortPrice, ok := prices[sig.ShortSymbol]
	if !ok {
		return nil, &pairsimerr.ExecutionError{Symbol: sig.ShortSymbol, Reason: "no price available to open pair"}
	}

	longNotional := capitalPerPair / (1 + sig.HedgeRatio)
	shortNotional := longNotional * sig.HedgeRatio
	longShares := longNotional / longPrice
	shortShares := shortNotional / shortPrice

	longComm := e.Commission.Calculate(longShares, longPrice)
	shortComm := e.Commission.Calculate(shortShares, shortPrice)

	longTrade := portfolio.Trade{Date: date, Symbol: sig.LongSymbol, Side: portfolio.Long, Shares: longShares, Price: longPrice, Commission: longComm, PairID: sig.PairID}
	shortTrade := portfolio.Trade{Date: date, Symbol: sig.ShortSymbol, Side: portfolio.Short, Shares: shortShares, Price: shortPrice, Commission: shortComm, PairID: sig.PairID}

	if err := p.OpenPair(sig.PairID, longTrade, shortTrade, sig.HedgeRatio, date); err != nil {
		return nil, err
	}
	return []portfolio.Trade{longTrade, shortTrade}, nil
}

func (e ClosePriceExecution) closePair(sig signal.Signal, prices map[string]float64, p *portfolio.Portfolio, date time.Time) ([]portfolio.Trade, error) {
	pp, ok := p.GetPairPosition(sig.PairID)
	if !ok {
		return nil, &pairsimerr.ExecutionError{Symbol: sig.PairID, Reason: "cannot close: no active pair with this id"}
	}

	longPrice, ok := prices[pp.LongLeg.Symbol]
	if !ok {
		return nil, &pairsimerr.ExecutionError{Symbol: pp.LongLeg.Symbol, Reason: "no price available to close pair"}
	}
	shortPrice, ok := prices[pp.ShortLeg.Symbol]
	if !ok {
		return nil, &pairsimerr.ExecutionError{Symbol: pp.ShortLeg.Symbol, Reason: "no price available to close pair"}
	}

	longShares := pp.LongLeg.Shares       // sell this many
	shortShares := -pp.ShortLeg.Shares    // buy to cover this many

	longComm := e.Commission.Calculate(longShares, longPrice)
	shortComm := e.Commission.Calculate(shortShares, shortPrice)

	longCloseTrade := portfolio.Trade{Date: date, Symbol: pp.LongLeg.Symbol, Side: portfolio.Short, Shares: longShares, Price: longPrice, Commission: longComm, PairID: sig.PairID}
	shortCloseTrade := portfolio.Trade{Date: date, Symbol: pp.ShortLeg.Symbol, Side: portfolio.Long, Shares: shortShares, Price: shortPrice, Commission: shortComm, PairID: sig.PairID}

	if _, err := p.ClosePair(sig.PairID, longCloseTrade, shortCloseTrade); err != nil {
		return nil, err
	}
	return []portfolio.Trade{longCloseTrade, shortCloseTrade}, nil
}

func (e ClosePriceExecution) weightRebalance(sig signal.Signal, prices map[string]float64, p *portfolio.Portfolio, date time.Time) ([]portfolio.Trade, error) {
	equity := p.Equity()

	symbols := make([]string, 0, len(sig.Weights))
	for sym := range sig.Weights {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols) // stable, documented ordering for reproducibility

	trades := make([]portfolio.Trade, 0, len(symbols))
	for _, sym := range symbols {
		weight := sig.Weights[sym]
		price, ok := prices[sym]
		if !ok {
			return nil, &pairsimerr.ExecutionError{Symbol: sym, Reason: "no price available for weight rebalance"}
		}

		currentShares := 0.0
		if pos, ok := p.GetPosition(sym); ok {
			currentShares = pos.Shares
		}

		targetShares := equity * weight / price
		diff := targetShares - currentShares
		if absFloat(diff) < MinShareThreshold {
			continue
		}

		side := portfolio.Long
		if diff < 0 {
			side = portfolio.Short
		}
		shares := absFloat(diff)
		comm := e.Commission.Calculate(shares, price)

		t := portfolio.Trade{Date: date, Symbol: sym, Side: side, Shares: shares, Price: price, Commission: comm}
		if _, err := p.ExecuteTrade(t); err != nil {
			return nil, fmt.Errorf("weight rebalance for %s: %w", sym, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
