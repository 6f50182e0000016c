package roundtrip_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pairsim/portfolio"
	"pairsim/roundtrip"
	"pairsim/tradelog"
)

func TestMatchZeroMoveZeroCommission(t *testing.T) {
	log := tradelog.New()
	day1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	log.AppendAll([]portfolio.Trade{
		{Date: day1, Symbol: "A", Side: portfolio.Long, Shares: 50, Price: 100, PairID: "A_B"},
		{Date: day1, Symbol: "B", Side: portfolio.Short, Shares: 50, Price: 100, PairID: "A_B"},
		{Date: day2, Symbol: "A", Side: portfolio.Short, Shares: 50, Price: 100, PairID: "A_B"},
		{Date: day2, Symbol: "B", Side: portfolio.Long, Shares: 50, Price: 100, PairID: "A_B"},
	})

	rts := roundtrip.Match(log, nil, false, nil)
	require.Len(t, rts, 1)
	require.InDelta(t, 0.0, rts[0].PnL, 1e-9)
	require.Equal(t, 1, rts[0].HoldingDays)
	require.False(t, rts[0].IsOpen)
}

func TestMatchProfitableLongLeg(t *testing.T) {
	log := tradelog.New()
	day1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	log.AppendAll([]portfolio.Trade{
		{Date: day1, Symbol: "A", Side: portfolio.Long, Shares: 50, Price: 100, PairID: "A_B"},
		{Date: day1, Symbol: "B", Side: portfolio.Short, Shares: 50, Price: 100, PairID: "A_B"},
		{Date: day2, Symbol: "A", Side: portfolio.Short, Shares: 50, Price: 110, PairID: "A_B"},
		{Date: day2, Symbol: "B", Side: portfolio.Long, Shares: 50, Price: 100, PairID: "A_B"},
	})

	rts := roundtrip.Match(log, nil, false, nil)
	require.Len(t, rts, 1)
	require.InDelta(t, 500.0, rts[0].PnL, 1e-9)
	require.InDelta(t, 0.05, rts[0].ReturnPct, 1e-9)
}

func TestMatchSkipsSingleSymbolGroup(t *testing.T) {
	log := tradelog.New()
	log.Append(portfolio.Trade{Date: time.Now(), Symbol: "A", Side: portfolio.Long, Shares: 10, Price: 100, PairID: "solo"})
	rts := roundtrip.Match(log, nil, false, nil)
	require.Empty(t, rts)
}

func TestMatchIncludesOpenWhenRequested(t *testing.T) {
	log := tradelog.New()
	day1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	log.AppendAll([]portfolio.Trade{
		{Date: day1, Symbol: "A", Side: portfolio.Long, Shares: 50, Price: 100, PairID: "A_B"},
		{Date: day1, Symbol: "B", Side: portfolio.Short, Shares: 50, Price: 100, PairID: "A_B"},
	})
	end := day1.AddDate(0, 0, 5)
	rts := roundtrip.Match(log, map[string]float64{"A": 105, "B": 100}, true, &end)
	require.Len(t, rts, 1)
	require.True(t, rts[0].IsOpen)
	require.InDelta(t, 250.0, rts[0].PnL, 1e-9)
}

func TestMatchWithCommissionIsNeverPositiveOnZeroMove(t *testing.T) {
	log := tradelog.New()
	day1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	log.AppendAll([]portfolio.Trade{
		{Date: day1, Symbol: "A", Side: portfolio.Long, Shares: 50, Price: 100, Commission: 1, PairID: "A_B"},
		{Date: day1, Symbol: "B", Side: portfolio.Short, Shares: 50, Price: 100, Commission: 1, PairID: "A_B"},
		{Date: day2, Symbol: "A", Side: portfolio.Short, Shares: 50, Price: 100, Commission: 1, PairID: "A_B"},
		{Date: day2, Symbol: "B", Side: portfolio.Long, Shares: 50, Price: 100, Commission: 1, PairID: "A_B"},
	})
	rts := roundtrip.Match(log, nil, false, nil)
	require.Len(t, rts, 1)
	require.LessOrEqual(t, rts[0].PnL, 0.0)
}
