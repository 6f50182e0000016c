// Package constraint implements pluggable filters applied between a
// strategy's signal and execution: dollar-neutrality, position limits, and
// a cap on the number of simultaneously open pairs.
package constraint

import (
	"pairsim/pairsimerr"
	"pairsim/portfolio"
	"pairsim/signal"
)

// Constraint validates and, where possible, adjusts a signal before it
// reaches execution.
type Constraint interface {
	Name() string
	Validate(sig signal.Signal, p *portfolio.Portfolio) bool
	Adjust(sig signal.Signal, p *portfolio.Portfolio) (signal.Signal, error)
}

// DollarNeutral rebalances a WeightSignal so its long and short sides carry
// equal notional, without changing the signal's aggregate gross exposure.
// PairSignal is left untouched: it is inherently neutral at hedge_ratio = 1.
type DollarNeutral struct{}

func (DollarNeutral) Name() string { return "dollar_neutral" }

func (DollarNeutral) Validate(sig signal.Signal, p *portfolio.Portfolio) bool {
	if sig.Kind != signal.Weight {
		return true
	}
	longTotal, shortTotal := splitWeights(sig.Weights)
	return approxEqual(longTotal, -shortTotal, 1e-6)
}

func (DollarNeutral) Adjust(sig signal.Signal, p *portfolio.Portfolio) (signal.Signal, error) {
	if sig.Kind != signal.Weight {
		return sig, nil
	}
	return signal.NewWeightSignal(normalizeWeights(sig.Weights), sig.Rebalance, sig.Metadata), nil
}

func splitWeights(weights map[string]float64) (longTotal, shortTotal float64) {
	for _, w := range weights {
		if w > 0 {
			longTotal += w
		} else {
			shortTotal += w
		}
	}
	return
}

// normalizeWeights rebalances the long and short sides to an equal target
// gross exposure, preserving the input's aggregate gross exposure rather
// than forcing it to any fixed value: target is the average of the two
// sides' magnitudes, and each side is scaled toward it independently.
func normalizeWeights(weights map[string]float64) map[string]float64 {
	longTotal, shortTotal := splitWeights(weights)
	shortTotal = -shortTotal // make positive
	if longTotal == 0 || shortTotal == 0 {
		out := make(map[string]float64, len(weights))
		for sym, w := range weights {
			out[sym] = w
		}
		return out
	}
	target := (longTotal + shortTotal) / 2
	longScale := target / longTotal
	shortScale := target / shortTotal
	out := make(map[string]float64, len(weights))
	for sym, w := range weights {
		if w > 0 {
			out[sym] = w * longScale
		} else {
			out[sym] = w * shortScale
		}
	}
	return out
}

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

// PositionLimit clips each weight to +-MaxPositionPct; if gross exposure
// still exceeds MaxGrossExposure after clipping, it scales every weight
// down uniformly.
type PositionLimit struct {
	MaxPositionPct  float64
	MaxGrossExposure float64
}

func (PositionLimit) Name() string { return "position_limit" }

func (c PositionLimit) Validate(sig signal.Signal, p *portfolio.Portfolio) bool {
	if sig.Kind != signal.Weight {
		return true
	}
	gross := 0.0
	for _, w := range sig.Weights {
		if absFloat(w) > c.MaxPositionPct {
			return false
		}
		gross += absFloat(w)
	}
	return gross <= c.MaxGrossExposure
}

func (c PositionLimit) Adjust(sig signal.Signal, p *portfolio.Portfolio) (signal.Signal, error) {
	if sig.Kind != signal.Weight {
		return sig, nil
	}
	clipped := make(map[string]float64, len(sig.Weights))
	gross := 0.0
	for sym, w := range sig.Weights {
		if w > c.MaxPositionPct {
			w = c.MaxPositionPct
		} else if w < -c.MaxPositionPct {
			w = -c.MaxPositionPct
		}
		clipped[sym] = w
		gross += absFloat(w)
	}
	if gross > c.MaxGrossExposure && gross > 0 {
		scale := c.MaxGrossExposure / gross
		for sym := range clipped {
			clipped[sym] *= scale
		}
	}
	return signal.NewWeightSignal(clipped, sig.Rebalance, sig.Metadata), nil
}

// MaxPairs rejects an OPEN PairSignal once the portfolio already holds Max
// open pairs.
type MaxPairs struct {
	Max int
}

func (MaxPairs) Name() string { return "max_pairs" }

func (c MaxPairs) Validate(sig signal.Signal, p *portfolio.Portfolio) bool {
	if sig.Kind != signal.Pair || sig.PairOp != signal.Open {
		return true
	}
	return p.NumPairPositions() < c.Max
}

func (c MaxPairs) Adjust(sig signal.Signal, p *portfolio.Portfolio) (signal.Signal, error) {
	if c.Validate(sig, p) {
		return sig, nil
	}
	return signal.Signal{}, &pairsimerr.ConstraintViolationError{
		ConstraintName: c.Name(),
		Signal:         sig,
		Details:        "max open pairs reached, cannot open another",
	}
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Apply runs every constraint's Validate/Adjust pair in order (the slice
// order is the application order), returning the adjusted signal or the
// first ConstraintViolationError encountered.
func Apply(sig signal.Signal, p *portfolio.Portfolio, constraints []Constraint) (signal.Signal, error) {
	for _, c := range constraints {
		if c.Validate(sig, p) {
			continue
		}
		adjusted, err := c.Adjust(sig, p)
		if err != nil {
			return signal.Signal{}, err
		}
		sig = adjusted
	}
	return sig, nil
}
