package signal_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pairsim/signal"
)

func TestNewPairSignalDefaults(t *testing.T) {
	sig := signal.NewPairSignal(signal.Open, "A", "B", 0, "", nil)
	require.Equal(t, 1.0, sig.HedgeRatio)
	require.Equal(t, "A_B", sig.PairID)
	require.Equal(t, signal.Pair, sig.Kind)
}

func TestNewPairSignalExplicitPairID(t *testing.T) {
	sig := signal.NewPairSignal(signal.Close, "A", "B", 1.5, "custom", nil)
	require.Equal(t, "custom", sig.PairID)
	require.Equal(t, 1.5, sig.HedgeRatio)
}

func TestIsNone(t *testing.T) {
	require.True(t, signal.Signal{}.IsNone())
	require.False(t, signal.NewPairSignal(signal.Open, "A", "B", 1, "", nil).IsNone())
}

func TestValidPairSignal(t *testing.T) {
	ok, reason := signal.NewPairSignal(signal.Open, "A", "B", 1, "", nil).Valid()
	require.True(t, ok)
	require.Empty(t, reason)
}

func TestValidPairSignalRejectsSameSymbol(t *testing.T) {
	ok, reason := signal.NewPairSignal(signal.Open, "A", "A", 1, "", nil).Valid()
	require.False(t, ok)
	require.NotEmpty(t, reason)
}

func TestValidPairSignalRejectsNonPositiveHedgeRatio(t *testing.T) {
	sig := signal.NewPairSignal(signal.Open, "A", "B", 1, "", nil)
	sig.HedgeRatio = 0
	ok, _ := sig.Valid()
	require.False(t, ok)
}

func TestValidWeightSignalRejectsEmptyWeights(t *testing.T) {
	ok, reason := signal.NewWeightSignal(map[string]float64{}, true, nil).Valid()
	require.False(t, ok)
	require.NotEmpty(t, reason)
}

func TestValidWeightSignal(t *testing.T) {
	ok, _ := signal.NewWeightSignal(map[string]float64{"A": 0.5, "B": -0.5}, true, nil).Valid()
	require.True(t, ok)
}

func TestValidNoneSignal(t *testing.T) {
	ok, _ := signal.Signal{}.Valid()
	require.True(t, ok)
}
