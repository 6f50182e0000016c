// Package tradelog is the append-only record of every executed trade.
package tradelog

import (
	"sort"
	"time"

	"pairsim/portfolio"
)

// TradeLog stores trades in append order and supports filtering by
// symbol, pair id, or date range.
type TradeLog struct {
	trades []portfolio.Trade
}

// New returns an empty trade log.
func New() *TradeLog { return &TradeLog{} }

// Append records a trade.
func (l *TradeLog) Append(t portfolio.Trade) { l.trades = append(l.trades, t) }

// AppendAll records every trade in ts, in order.
func (l *TradeLog) AppendAll(ts []portfolio.Trade) {
	l.trades = append(l.trades, ts...)
}

// All returns every recorded trade in append order.
func (l *TradeLog) All() []portfolio.Trade {
	out := make([]portfolio.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Len is the number of recorded trades.
func (l *TradeLog) Len() int { return len(l.trades) }

// BySymbol returns trades for one symbol, in append order.
func (l *TradeLog) BySymbol(symbol string) []portfolio.Trade {
	out := make([]portfolio.Trade, 0)
	for _, t := range l.trades {
		if t.Symbol == symbol {
			out = append(out, t)
		}
	}
	return out
}

// ByPairID returns trades for one pair id, in append order.
func (l *TradeLog) ByPairID(pairID string) []portfolio.Trade {
	out := make([]portfolio.Trade, 0)
	for _, t := range l.trades {
		if t.PairID == pairID {
			out = append(out, t)
		}
	}
	return out
}

// ByDateRange returns trades with start <= date <= end, in append order.
func (l *TradeLog) ByDateRange(start, end time.Time) []portfolio.Trade {
	out := make([]portfolio.Trade, 0)
	for _, t := range l.trades {
		if !t.Date.Before(start) && !t.Date.After(end) {
			out = append(out, t)
		}
	}
	return out
}

// PairIDs returns the sorted, unique, non-empty pair ids present in the log.
func (l *TradeLog) PairIDs() []string {
	seen := make(map[string]struct{})
	for _, t := range l.trades {
		if t.PairID != "" {
			seen[t.PairID] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Row is a flat tabular projection of a Trade, used by Rows() for
// spreadsheet/CSV-style export.
type Row struct {
	Date       time.Time
	Symbol     string
	Side       string
	Shares     float64
	Price      float64
	Commission float64
	PairID     string
}

// Rows converts the log to its tabular projection, in append order.
func (l *TradeLog) Rows() []Row {
	out := make([]Row, len(l.trades))
	for i, t := range l.trades {
		out[i] = Row{
			Date:       t.Date,
			Symbol:     t.Symbol,
			Side:       t.Side.String(),
			Shares:     t.Shares,
			Price:      t.Price,
			Commission: t.Commission,
			PairID:     t.PairID,
		}
	}
	return out
}
