package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pairsim/commission"
	"pairsim/engine"
	"pairsim/pairsimerr"
	"pairsim/pit"
	"pairsim/pricebar"
	"pairsim/signal"
	"pairsim/strategy"
	"pairsim/strategy/ggr"
)

// flatStrategy never emits a signal.
type flatStrategy struct{ strategy.Base }

func (flatStrategy) Name() string { return "flat" }
func (flatStrategy) OnBar(time.Time, pit.PointInTime) (signal.Signal, error) {
	return signal.Signal{}, nil
}

// scriptedStrategy emits a fixed signal on a fixed date, per test scenario.
type scriptedStrategy struct {
	strategy.Base
	script map[string]signal.Signal
}

func (scriptedStrategy) Name() string { return "scripted" }
func (s scriptedStrategy) OnBar(date time.Time, _ pit.PointInTime) (signal.Signal, error) {
	if sig, ok := s.script[date.Format("2006-01-02")]; ok {
		return sig, nil
	}
	return signal.Signal{}, nil
}

func businessDays(start, end time.Time) []time.Time {
	out := make([]time.Time, 0)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			out = append(out, d)
		}
	}
	return out
}

func flatBars(symbol string, dates []time.Time, price float64) []pricebar.Bar {
	out := make([]pricebar.Bar, len(dates))
	for i, d := range dates {
		out[i] = pricebar.Bar{Symbol: symbol, Date: d, Open: price, High: price, Low: price, Close: price, AdjClose: price, Volume: 1000}
	}
	return out
}

func TestFlatStrategyTradesNothing(t *testing.T) {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)
	dates := businessDays(start, end)
	bars := flatBars("A", dates, 100)

	config := engine.BacktestConfig{
		StartDate:      start,
		EndDate:        end,
		InitialCapital: 100000,
		CapitalPerPair: 10000,
		PriceColumn:    pricebar.ColumnAdjClose,
		Commission:     commission.Zero{},
	}
	runner, err := engine.NewRunner(config)
	require.NoError(t, err)

	result, err := runner.Run(&flatStrategy{}, bars)
	require.NoError(t, err)

	require.Equal(t, 0, result.TradeLog.Len())
	require.Equal(t, 100000.0, result.EquityCurve()[len(result.EquityCurve())-1].Equity)
	require.Len(t, result.EquityCurve(), len(dates))
}

func TestOneRoundTripNoMove(t *testing.T) {
	start := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC) // a Monday
	day2 := start.AddDate(0, 0, 1)
	dates := []time.Time{start, day2}
	bars := append(flatBars("A", dates, 100), flatBars("B", dates, 100)...)

	script := map[string]signal.Signal{
		start.Format("2006-01-02"): signal.NewPairSignal(signal.Open, "A", "B", 1.0, "", nil),
		day2.Format("2006-01-02"):  signal.NewPairSignal(signal.Close, "A", "B", 1.0, "", nil),
	}

	config := engine.BacktestConfig{
		StartDate:      start,
		EndDate:        day2,
		InitialCapital: 100000,
		CapitalPerPair: 10000,
		PriceColumn:    pricebar.ColumnAdjClose,
		Commission:     commission.Zero{},
	}
	runner, err := engine.NewRunner(config)
	require.NoError(t, err)

	result, err := runner.Run(&scriptedStrategy{script: script}, bars)
	require.NoError(t, err)

	require.Equal(t, 4, result.TradeLog.Len())
	require.Len(t, result.RoundTrips, 1)
	rt := result.RoundTrips[0]
	require.InDelta(t, 0, rt.PnL, 1e-9)
	require.InDelta(t, 0, rt.ReturnPct, 1e-9)
	require.Equal(t, 1, rt.HoldingDays)
}

func TestProfitableLongLeg(t *testing.T) {
	start := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
	day2 := start.AddDate(0, 0, 1)
	barsA := []pricebar.Bar{
		{Symbol: "A", Date: start, Open: 100, High: 100, Low: 100, Close: 100, AdjClose: 100, Volume: 1000},
		{Symbol: "A", Date: day2, Open: 110, High: 110, Low: 110, Close: 110, AdjClose: 110, Volume: 1000},
	}
	barsB := flatBars("B", []time.Time{start, day2}, 100)
	bars := append(barsA, barsB...)

	script := map[string]signal.Signal{
		start.Format("2006-01-02"): signal.NewPairSignal(signal.Open, "A", "B", 1.0, "", nil),
		day2.Format("2006-01-02"):  signal.NewPairSignal(signal.Close, "A", "B", 1.0, "", nil),
	}

	config := engine.BacktestConfig{
		StartDate:      start,
		EndDate:        day2,
		InitialCapital: 100000,
		CapitalPerPair: 10000,
		PriceColumn:    pricebar.ColumnAdjClose,
		Commission:     commission.Zero{},
	}
	runner, err := engine.NewRunner(config)
	require.NoError(t, err)

	result, err := runner.Run(&scriptedStrategy{script: script}, bars)
	require.NoError(t, err)

	require.Len(t, result.RoundTrips, 1)
	rt := result.RoundTrips[0]
	require.InDelta(t, 500, rt.PnL, 1e-6)
	require.InDelta(t, 0.05, rt.ReturnPct, 1e-6)
}

func TestInsufficientCapitalOnPairOpen(t *testing.T) {
	start := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	dates := []time.Time{start, end}
	bars := append(flatBars("A", dates, 100), flatBars("B", dates, 100)...)

	script := map[string]signal.Signal{
		start.Format("2006-01-02"): signal.NewPairSignal(signal.Open, "A", "B", 1.0, "", nil),
	}

	config := engine.BacktestConfig{
		StartDate:      start,
		EndDate:        end,
		InitialCapital: 1000,
		CapitalPerPair: 10000,
		PriceColumn:    pricebar.ColumnAdjClose,
		Commission:     commission.Zero{},
	}
	runner, err := engine.NewRunner(config)
	require.NoError(t, err)

	_, err = runner.Run(&scriptedStrategy{script: script}, bars)
	require.Error(t, err)
	var capErr *pairsimerr.InsufficientCapitalError
	require.True(t, errors.As(err, &capErr))
}

func TestLookAheadGuard(t *testing.T) {
	ref := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)
	bars := flatBars("A", businessDays(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)), 100)
	view := pit.New(bars, ref)

	_, err := view.Slice(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	var laErr *pairsimerr.LookAheadError
	require.True(t, errors.As(err, &laErr))

	_, err = view.AdvanceTo(time.Date(2020, 6, 14, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	require.True(t, errors.As(err, &laErr))
}

// syntheticCoMovingPair builds a 252-day series for A and B sharing a common
// shock, with a deliberate 30-day divergence starting at day 150 and
// re-convergence from day 180, matching S6's construction.
func syntheticCoMovingPair(start time.Time) []pricebar.Bar {
	const n = 252
	pxA, pxB := 100.0, 100.0
	out := make([]pricebar.Bar, 0, 2*n)
	d := start
	for i := 0; i < n; i++ {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		shock := pseudoNoise(i, 1) * 0.01
		noiseA := pseudoNoise(i, 2) * 0.002
		noiseB := pseudoNoise(i, 3) * 0.002

		driftA, driftB := 0.0, 0.0
		if i >= 150 && i < 180 {
			driftA = 0.01
			driftB = -0.008
		}

		pxA *= 1 + shock + noiseA + driftA
		pxB *= 1 + shock + noiseB + driftB

		out = append(out,
			pricebar.Bar{Symbol: "A", Date: d, Open: pxA, High: pxA, Low: pxA, Close: pxA, AdjClose: pxA, Volume: 1000},
			pricebar.Bar{Symbol: "B", Date: d, Open: pxB, High: pxB, Low: pxB, Close: pxB, AdjClose: pxB, Volume: 1000},
		)
		d = d.AddDate(0, 0, 1)
	}
	return out
}

// pseudoNoise is a small deterministic generator standing in for random
// noise so the test is reproducible without a seeded RNG dependency.
func pseudoNoise(i, salt int) float64 {
	x := float64((i*2654435761+salt*40503)%1000) / 1000.0
	return x - 0.5
}

func TestGGRDistanceStrategyOnSyntheticPair(t *testing.T) {
	start := time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)
	bars := syntheticCoMovingPair(start)

	tradingEnd := bars[len(bars)-1].Date
	config := engine.BacktestConfig{
		StartDate:      bars[0].Date,
		EndDate:        tradingEnd,
		InitialCapital: 1000000,
		CapitalPerPair: 50000,
		PriceColumn:    pricebar.ColumnAdjClose,
		Commission:     commission.Zero{},
	}
	runner, err := engine.NewRunner(config)
	require.NoError(t, err)

	strat := ggr.New([]string{"A", "B"})
	strat.FormationPeriod = 120
	strat.Lookback = 60
	strat.EntryThreshold = 1.5
	strat.MaxHoldingDays = 10
	strat.MinCorrelation = 0.5

	result, err := runner.Run(strat, bars)
	require.NoError(t, err)

	trades := result.TradeLog.All()
	require.NotEmpty(t, trades, "expected at least one trade once the divergence widens the spread")

	for _, rt := range result.RoundTrips {
		require.LessOrEqual(t, rt.HoldingDays, 14) // max_holding_days=10 bars; 10 weekday bars span 14 calendar days
	}
}
