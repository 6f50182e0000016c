// Package roundtrip reconstructs entry/exit pairs from a flat trade log.
//
// The replay state always tracks exact per-symbol share counts as it walks
// a pair's trades; it never falls back to reconstructing share counts from
// a filtered trade-log slice, which produces nonsensical results under
// averaging-in.
package roundtrip

import (
	"sort"
	"time"

	"pairsim/portfolio"
	"pairsim/tradelog"
)

// RoundTrip is a derived, never-mutated record of one matched pair
// entry/exit.
type RoundTrip struct {
	PairID         string
	EntryDate      time.Time
	ExitDate       time.Time
	HasExit        bool
	LongSymbol     string
	ShortSymbol    string
	LongEntryPrice float64
	ShortEntryPrice float64
	LongExitPrice  float64
	ShortExitPrice float64
	LongShares     float64
	ShortShares    float64
	PnL            float64
	HoldingDays    int
	ReturnPct      float64
	Commission     float64
	IsOpen         bool
}

type legState struct {
	symbol       string
	side         portfolio.Side // side of the opening trade: Long or Short
	shares       float64        // running signed shares
	avgEntry     float64
	entryPrice   float64
	entryDate    time.Time
	exitPrice    float64
	exitDate     time.Time
	hasExit      bool
	commission   float64
}

// Match groups trades in log by pair id and replays each group's trades in
// date order, tracking exact share counts per symbol, to produce one
// RoundTrip per pair group with exactly two symbols. finalPrices and
// endDate are used only when includeOpen is true, to mark still-open legs
// to market. Pairs with fewer or more than two distinct symbols, or with
// malformed trade sequences (no identifiable long/short leg), are silently
// skipped.
func Match(log *tradelog.TradeLog, finalPrices map[string]float64, includeOpen bool, endDate *time.Time) []RoundTrip {
	out := make([]RoundTrip, 0)
	for _, pairID := range log.PairIDs() {
		trades := log.ByPairID(pairID)
		sort.Slice(trades, func(i, j int) bool { return trades[i].Date.Before(trades[j].Date) })

		legs := make(map[string]*legState)
		order := make([]string, 0, 2)
		for _, t := range trades {
			ls, ok := legs[t.Symbol]
			if !ok {
				ls = &legState{symbol: t.Symbol, side: t.Side, entryPrice: t.Price, entryDate: t.Date}
				legs[t.Symbol] = ls
				order = append(order, t.Symbol)
			}
			signed := t.SignedShares()
			newShares := ls.shares + signed
			if ls.shares == 0 {
				ls.avgEntry = t.Price
			} else if (ls.shares > 0) == (signed > 0) {
				ls.avgEntry = (ls.shares*ls.avgEntry + signed*t.Price) / newShares
			}
			ls.shares = newShares
			ls.commission += t.Commission
			if ls.shares == 0 {
				ls.exitPrice = t.Price
				ls.exitDate = t.Date
				ls.hasExit = true
			}
		}

		if len(order) != 2 {
			continue // only two-symbol pair groups are reconstructible round-trips
		}

		var longLeg, shortLeg *legState
		for _, sym := range order {
			ls := legs[sym]
			switch ls.side {
			case portfolio.Long:
				longLeg = ls
			case portfolio.Short:
				shortLeg = ls
			}
		}
		if longLeg == nil || shortLeg == nil {
			continue // malformed: no clear long/short leg
		}

		rt := RoundTrip{
			PairID:          pairID,
			EntryDate:       minTime(longLeg.entryDate, shortLeg.entryDate),
			LongSymbol:      longLeg.symbol,
			ShortSymbol:     shortLeg.symbol,
			LongEntryPrice:  longLeg.entryPrice,
			ShortEntryPrice: shortLeg.entryPrice,
			LongShares:      absFloat(initialShares(trades, longLeg.symbol)),
			ShortShares:     absFloat(initialShares(trades, shortLeg.symbol)),
			Commission:      longLeg.commission + shortLeg.commission,
		}

		bothClosed := longLeg.hasExit && shortLeg.hasExit
		if bothClosed {
			rt.HasExit = true
			rt.ExitDate = maxTime(longLeg.exitDate, shortLeg.exitDate)
			rt.LongExitPrice = longLeg.exitPrice
			rt.ShortExitPrice = shortLeg.exitPrice
			rt.HoldingDays = int(rt.ExitDate.Sub(rt.EntryDate).Hours() / 24)
		} else if includeOpen && finalPrices != nil && endDate != nil {
			longPx, lok := finalPrices[longLeg.symbol]
			shortPx, sok := finalPrices[shortLeg.symbol]
			if lok && sok {
				rt.HasExit = true
				rt.IsOpen = true
				rt.ExitDate = *endDate
				rt.LongExitPrice = longPx
				rt.ShortExitPrice = shortPx
				rt.HoldingDays = int(rt.ExitDate.Sub(rt.EntryDate).Hours() / 24)
			}
		}

		if !rt.HasExit {
			continue // open leg with no mark-to-market available: not a round-trip yet
		}

		rt.PnL = rt.LongShares*(rt.LongExitPrice-rt.LongEntryPrice) +
			rt.ShortShares*(rt.ShortEntryPrice-rt.ShortExitPrice) - rt.Commission
		entryNotional := rt.LongShares*rt.LongEntryPrice + rt.ShortShares*rt.ShortEntryPrice
		if entryNotional != 0 {
			rt.ReturnPct = rt.PnL / entryNotional
		}

		out = append(out, rt)
	}
	return out
}

// initialShares returns the absolute share size of the opening trade for
// symbol within trades (the first trade touching that symbol), which is
// the entry size a round-trip reports regardless of any later averaging.
func initialShares(trades []portfolio.Trade, symbol string) float64 {
	for _, t := range trades {
		if t.Symbol == symbol {
			return t.Shares
		}
	}
	return 0
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
