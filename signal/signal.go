// Package signal defines the tagged-variant instruction a strategy emits
// each bar: open or close a pair, rebalance toward target weights, or
// nothing at all. Execution dispatches on Kind exhaustively rather than by
// inheritance.
package signal

// Kind tags which variant a Signal carries.
type Kind int

const (
	// None means the strategy emitted nothing this bar.
	None Kind = iota
	Pair
	Weight
)

// PairOp distinguishes opening from closing a pair position.
type PairOp int

const (
	Open PairOp = iota
	Close
)

// Signal is exactly one of a PairSignal, a WeightSignal, or nothing,
// selected by Kind. Construct via NewPairSignal/NewWeightSignal rather
// than composing a Signal literal directly.
type Signal struct {
	Kind Kind

	// Populated when Kind == Pair.
	PairOp      PairOp
	LongSymbol  string
	ShortSymbol string
	HedgeRatio  float64
	PairID      string
	Metadata    map[string]any

	// Populated when Kind == Weight.
	Weights   map[string]float64
	Rebalance bool
}

// NewPairSignal builds a PairSignal variant. hedgeRatio defaults to 1.0
// when zero is passed. pairID defaults to "{long}_{short}" when empty.
func NewPairSignal(op PairOp, longSymbol, shortSymbol string, hedgeRatio float64, pairID string, metadata map[string]any) Signal {
	if hedgeRatio == 0 {
		hedgeRatio = 1.0
	}
	if pairID == "" {
		pairID = longSymbol + "_" + shortSymbol
	}
	return Signal{
		Kind:        Pair,
		PairOp:      op,
		LongSymbol:  longSymbol,
		ShortSymbol: shortSymbol,
		HedgeRatio:  hedgeRatio,
		PairID:      pairID,
		Metadata:    metadata,
	}
}

// NewWeightSignal builds a WeightSignal variant.
func NewWeightSignal(weights map[string]float64, rebalance bool, metadata map[string]any) Signal {
	return Signal{Kind: Weight, Weights: weights, Rebalance: rebalance, Metadata: metadata}
}

// IsNone reports whether this Signal carries no instruction.
func (s Signal) IsNone() bool { return s.Kind == None }

// Valid reports whether the signal is internally well-formed: a PairSignal
// needs two distinct symbols and a positive hedge ratio; a WeightSignal
// needs a non-empty weight map.
func (s Signal) Valid() (bool, string) {
	switch s.Kind {
	case None:
		return true, ""
	case Pair:
		if s.LongSymbol == s.ShortSymbol {
			return false, "long_symbol and short_symbol must differ"
		}
		if s.HedgeRatio <= 0 {
			return false, "hedge_ratio must be positive"
		}
		return true, ""
	case Weight:
		if len(s.Weights) == 0 {
			return false, "weights must be non-empty"
		}
		return true, ""
	default:
		return false, "unknown signal kind"
	}
}
