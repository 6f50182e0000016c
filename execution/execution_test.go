package execution_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pairsim/commission"
	"pairsim/execution"
	"pairsim/portfolio"
	"pairsim/signal"
)

func TestOpenThenCloseNoMoveZeroCommission(t *testing.T) {
	p := portfolio.New(100000)
	e := execution.New(commission.Zero{})
	day1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	prices := map[string]float64{"A": 100, "B": 100}

	open := signal.NewPairSignal(signal.Open, "A", "B", 1.0, "", nil)
	trades, err := e.Apply(open, prices, p, day1, 10000)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	require.Equal(t, 50.0, trades[0].Shares) // 10000/(1+1)/100 = 50

	close := signal.NewPairSignal(signal.Close, "A", "B", 1.0, open.PairID, nil)
	closeTrades, err := e.Apply(close, prices, p, day2, 10000)
	require.NoError(t, err)
	require.Len(t, closeTrades, 2)
	require.False(t, p.HasPair(open.PairID))
	require.InDelta(t, 100000, p.Equity(), 1e-6)
}

func TestOpenPairProfitableLongLeg(t *testing.T) {
	p := portfolio.New(100000)
	e := execution.New(commission.Zero{})
	day1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	open := signal.NewPairSignal(signal.Open, "A", "B", 1.0, "", nil)
	_, err := e.Apply(open, map[string]float64{"A": 100, "B": 100}, p, day1, 10000)
	require.NoError(t, err)

	p.UpdatePrices(map[string]float64{"A": 110, "B": 100})
	close := signal.NewPairSignal(signal.Close, "A", "B", 1.0, open.PairID, nil)
	_, err = e.Apply(close, map[string]float64{"A": 110, "B": 100}, p, day2, 10000)
	require.NoError(t, err)
	require.InDelta(t, 100500, p.Equity(), 1e-6)
}

func TestOpenPairInsufficientCapital(t *testing.T) {
	p := portfolio.New(1000)
	e := execution.New(commission.Zero{})
	open := signal.NewPairSignal(signal.Open, "A", "B", 1.0, "", nil)
	_, err := e.Apply(open, map[string]float64{"A": 100, "B": 100}, p, time.Now(), 10000)
	require.Error(t, err)
}

func TestWeightSignalSkipsBelowThreshold(t *testing.T) {
	p := portfolio.New(100000)
	e := execution.New(commission.Zero{})
	sig := signal.NewWeightSignal(map[string]float64{"A": 0.0000001}, true, nil)
	trades, err := e.Apply(sig, map[string]float64{"A": 100}, p, time.Now(), 0)
	require.NoError(t, err)
	require.Empty(t, trades)
}

func TestWeightSignalRebalanceSizesToEquity(t *testing.T) {
	p := portfolio.New(100000)
	e := execution.New(commission.Zero{})
	sig := signal.NewWeightSignal(map[string]float64{"A": 0.5}, true, nil)
	trades, err := e.Apply(sig, map[string]float64{"A": 100}, p, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.InDelta(t, 500.0, trades[0].Shares, 1e-6) // 100000*0.5/100
}

func TestCloseWithoutOpenIsExecutionError(t *testing.T) {
	p := portfolio.New(100000)
	e := execution.New(commission.Zero{})
	close := signal.NewPairSignal(signal.Close, "A", "B", 1.0, "A_B", nil)
	_, err := e.Apply(close, map[string]float64{"A": 100, "B": 100}, p, time.Now(), 0)
	require.Error(t, err)
}
