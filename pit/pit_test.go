package pit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pairsim/pit"
	"pairsim/pricebar"
)

func bar(symbol string, date time.Time, px float64) pricebar.Bar {
	return pricebar.Bar{Symbol: symbol, Date: date, Open: px, High: px, Low: px, Close: px, AdjClose: px, Volume: 100}
}

func dates(days ...int) []time.Time {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, len(days))
	for i, d := range days {
		out[i] = base.AddDate(0, 0, d)
	}
	return out
}

func TestGetDataOnlySeesPastAndPresent(t *testing.T) {
	ds := dates(0, 1, 2, 3)
	bars := []pricebar.Bar{bar("A", ds[0], 1), bar("A", ds[1], 2), bar("A", ds[2], 3), bar("A", ds[3], 4)}
	p := pit.New(bars, ds[1])
	got := p.GetData()
	require.Len(t, got, 2)
	for _, b := range got {
		require.False(t, b.Date.After(ds[1]))
	}
}

func TestSliceRaisesLookAheadWhenEndAfterReference(t *testing.T) {
	ds := dates(0, 1, 2)
	bars := []pricebar.Bar{bar("A", ds[0], 1), bar("A", ds[1], 2), bar("A", ds[2], 3)}
	p := pit.New(bars, ds[1])
	_, err := p.Slice(ds[0], ds[2])
	require.Error(t, err)
}

func TestAdvanceToRejectsBackwardMovement(t *testing.T) {
	ds := dates(0, 1, 2)
	p := pit.New(nil, ds[1])
	_, err := p.AdvanceTo(ds[0])
	require.Error(t, err)
}

func TestAdvanceToSameDateIsNoOp(t *testing.T) {
	ds := dates(0, 1)
	p := pit.New(nil, ds[1])
	p2, err := p.AdvanceTo(ds[1])
	require.NoError(t, err)
	require.Equal(t, p.ReferenceDate(), p2.ReferenceDate())
}

func TestAdvanceToDoesNotMutateOriginal(t *testing.T) {
	ds := dates(0, 1, 2)
	bars := []pricebar.Bar{bar("A", ds[0], 1), bar("A", ds[2], 3)}
	p := pit.New(bars, ds[0])
	p2, err := p.AdvanceTo(ds[2])
	require.NoError(t, err)
	require.Len(t, p.GetData(), 1)
	require.Len(t, p2.GetData(), 2)
}

func TestGetLatestFiltersBySymbol(t *testing.T) {
	ds := dates(0, 1)
	bars := []pricebar.Bar{bar("A", ds[0], 1), bar("B", ds[1], 2)}
	p := pit.New(bars, ds[1])
	latest, ok := p.GetLatest("A")
	require.True(t, ok)
	require.Equal(t, "A", latest.Symbol)
}

func TestSymbolsAreTimelessAndSorted(t *testing.T) {
	ds := dates(0, 5)
	bars := []pricebar.Bar{bar("B", ds[1], 1), bar("A", ds[1], 1)}
	p := pit.New(bars, ds[0])
	require.Equal(t, []string{"A", "B"}, p.Symbols())
}
