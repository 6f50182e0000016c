package engine

import (
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"pairsim/constraint"
	"pairsim/execution"
	"pairsim/pairsimerr"
	"pairsim/pit"
	"pairsim/portfolio"
	"pairsim/pricebar"
	"pairsim/report"
	"pairsim/roundtrip"
	"pairsim/signal"
	"pairsim/strategy"
	"pairsim/tradelog"
)

// Runner orchestrates the clock, PIT advancement, strategy dispatch, and
// execution. It owns the Portfolio exclusively; the strategy may read it
// but has no mutating API available.
type Runner struct {
	config    BacktestConfig
	execution execution.ClosePriceExecution
	logger    *log.Logger
}

// NewRunner constructs a Runner from a validated config.
func NewRunner(config BacktestConfig) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Runner{
		config:    config,
		execution: execution.New(config.Commission),
		logger:    log.New(os.Stderr, "[RUNNER] ", log.LstdFlags),
	}, nil
}

// Run executes the simulation loop over bars from start to end.
//
// Per bar the PIT is first advanced to the trading date (so "visible
// data" and the strategy's own view agree, and on_bar(d) observes prices
// through d inclusive, as required by the concurrency model's ordering
// guarantee); then the current-day price vector is read off that same
// advanced view, the portfolio is marked to market, the strategy is
// dispatched, any signal is constraint-checked and executed, and equity is
// recorded. This resolves an apparent step-lettering ambiguity between the
// spec's informal per-day control-flow sketch and its literal algorithm
// listing in favor of the explicit, unambiguous ordering guarantee that
// on_bar(d) sees data through date d.
// bars is the full underlying dataset: it may (and for strategies with a
// formation/lookback period, should) extend before StartDate so that the
// first trading day's PIT view already has history to look back over. Only
// bars with date in [StartDate, EndDate] generate a trading day; earlier
// bars are visible only as lookback, never iterated as their own day.
func (r *Runner) Run(strat strategy.Strategy, bars []pricebar.Bar) (*report.BacktestResult, error) {
	p := portfolio.New(r.config.InitialCapital)
	log := tradelog.New()

	strat.OnStart(r.config.StartDate, r.config.EndDate)

	tradingDates := uniqueSortedDates(bars, r.config.StartDate, r.config.EndDate)
	if len(tradingDates) == 0 {
		return nil, &pairsimerr.BacktestError{Phase: "trading_dates", Message: "no trading dates in range"}
	}

	view := pit.New(bars, tradingDates[0].AddDate(0, 0, -1))
	for _, d := range tradingDates {
		var err error
		view, err = view.AdvanceTo(d)
		if err != nil {
			return nil, fmt.Errorf("runner: advancing to %s: %w", d.Format("2006-01-02"), err)
		}

		prices := currentPrices(view, r.config.PriceColumn)
		p.UpdatePrices(prices)

		sig, err := strat.OnBar(d, view)
		if err != nil {
			return nil, &pairsimerr.StrategyError{Name: strat.Name(), Date: d, Cause: err}
		}

		if !sig.IsNone() {
			if valid, reason := sig.Valid(); !valid {
				return nil, &pairsimerr.InvalidSignalError{Signal: sig, Reason: reason}
			}
			sig, err = constraint.Apply(sig, p, r.config.Constraints)
			if err != nil {
				return nil, err
			}
			trades, err := r.execution.Apply(sig, prices, p, d, r.config.CapitalPerPair)
			if err != nil {
				return nil, err
			}
			log.AppendAll(trades)
			for _, t := range trades {
				strat.OnFill(t)
			}
		}

		p.RecordEquity(d)
	}

	strat.OnEnd()

	endDate := r.config.EndDate
	finalPrices := currentPrices(view, r.config.PriceColumn)
	roundTrips := roundtrip.Match(log, finalPrices, true, &endDate)

	return report.New(strat.Name(), r.config.InitialCapital, r.config.RiskFreeRate, p, log, roundTrips, uuid.New()), nil
}

func currentPrices(view pit.PointInTime, col pricebar.PriceColumn) map[string]float64 {
	prices := make(map[string]float64)
	for _, sym := range view.Symbols() {
		if bar, ok := view.GetLatest(sym); ok {
			prices[sym] = bar.Price(col)
		}
	}
	return prices
}

func uniqueSortedDates(bars []pricebar.Bar, start, end time.Time) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, b := range bars {
		if !b.Date.Before(start) && !b.Date.After(end) {
			seen[b.Date] = struct{}{}
		}
	}
	out := make([]time.Time, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// NoneSignal is a convenience zero-valued Signal for strategies that want
// to make "no signal this bar" explicit in their own code.
var NoneSignal = signal.Signal{}
