package portfolio_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pairsim/portfolio"
)

func TestAddSharesOpensFromFlat(t *testing.T) {
	pos, realized := portfolio.AddShares(portfolio.Position{Symbol: "A"}, 10, 100)
	require.Equal(t, 0.0, realized)
	require.Equal(t, 10.0, pos.Shares)
	require.Equal(t, 100.0, pos.AvgEntryPrice)
}

func TestAddSharesAveragesInSameSign(t *testing.T) {
	pos := portfolio.Position{Symbol: "A", Shares: 10, AvgEntryPrice: 100}
	pos, realized := portfolio.AddShares(pos, 10, 120)
	require.Equal(t, 0.0, realized)
	require.Equal(t, 20.0, pos.Shares)
	require.InDelta(t, 110.0, pos.AvgEntryPrice, 1e-9)
}

func TestAddSharesPartialClose(t *testing.T) {
	pos := portfolio.Position{Symbol: "A", Shares: 10, AvgEntryPrice: 100}
	pos, realized := portfolio.AddShares(pos, -4, 110)
	require.InDelta(t, 4*10.0, realized, 1e-9)
	require.Equal(t, 6.0, pos.Shares)
	require.InDelta(t, 100.0, pos.AvgEntryPrice, 1e-9) // unchanged on partial close
}

func TestAddSharesFullClose(t *testing.T) {
	pos := portfolio.Position{Symbol: "A", Shares: 10, AvgEntryPrice: 100}
	pos, realized := portfolio.AddShares(pos, -10, 90)
	require.InDelta(t, -100.0, realized, 1e-9)
	require.Equal(t, 0.0, pos.Shares)
	require.Equal(t, 0.0, pos.AvgEntryPrice)
}

func TestAddSharesFlip(t *testing.T) {
	pos := portfolio.Position{Symbol: "A", Shares: 10, AvgEntryPrice: 100}
	pos, realized := portfolio.AddShares(pos, -15, 90)
	require.InDelta(t, -100.0, realized, 1e-9) // closes the 10 shares at a 10 loss each
	require.Equal(t, -5.0, pos.Shares)
	require.InDelta(t, 90.0, pos.AvgEntryPrice, 1e-9) // reopened short at fill price
}

func TestAddSharesShortSidePnLSign(t *testing.T) {
	pos := portfolio.Position{Symbol: "A", Shares: -10, AvgEntryPrice: 100}
	pos, realized := portfolio.AddShares(pos, 10, 90) // cover at a profit
	require.InDelta(t, 100.0, realized, 1e-9)
	require.Equal(t, 0.0, pos.Shares)
}
