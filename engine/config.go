// Package engine implements the simulation loop: the runner that advances
// a single simulated clock through every trading day, invoking the
// strategy under point-in-time discipline and executing its signals.
package engine

import (
	"fmt"
	"time"

	"pairsim/commission"
	"pairsim/constraint"
	"pairsim/pricebar"
)

// BacktestConfig bundles every parameter the runner needs, validated once
// at construction time rather than via a flag/env framework.
type BacktestConfig struct {
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	CapitalPerPair float64
	PriceColumn    pricebar.PriceColumn
	Commission     commission.Model
	Constraints    []constraint.Constraint
	RiskFreeRate   float64
}

// Validate checks the invariants the runner relies on: start before end, a
// positive initial capital, and a positive capital-per-pair. A
// capital-per-pair larger than initial capital is deliberately allowed to
// pass validation: the resulting InsufficientCapitalError at trade time is
// the documented behavior, not a configuration error.
func (c BacktestConfig) Validate() error {
	if !c.StartDate.Before(c.EndDate) {
		return fmt.Errorf("backtest config: start_date %s must be before end_date %s",
			c.StartDate.Format("2006-01-02"), c.EndDate.Format("2006-01-02"))
	}
	if c.InitialCapital <= 0 {
		return fmt.Errorf("backtest config: initial_capital must be positive, got %.2f", c.InitialCapital)
	}
	if c.CapitalPerPair <= 0 {
		return fmt.Errorf("backtest config: capital_per_pair must be positive, got %.2f", c.CapitalPerPair)
	}
	if c.Commission == nil {
		return fmt.Errorf("backtest config: commission model is required")
	}
	return nil
}

// Duration is the simulated span in calendar days.
func (c BacktestConfig) Duration() int {
	return int(c.EndDate.Sub(c.StartDate).Hours() / 24)
}
