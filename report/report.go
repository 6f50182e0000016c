// Package report assembles the final output of a backtest run: the
// strategy's identity, the terminal portfolio state, the full trade log,
// matched round-trips, and the computed performance metrics, plus a handful
// of derived tabular/series views standing in for the reference
// implementation's dataframe export.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"pairsim/metrics"
	"pairsim/portfolio"
	"pairsim/roundtrip"
	"pairsim/tradelog"
)

// BacktestResult is the immutable record of one completed run.
type BacktestResult struct {
	RunID          uuid.UUID
	StrategyName   string
	InitialCapital float64
	Portfolio      *portfolio.Portfolio
	TradeLog       *tradelog.TradeLog
	RoundTrips     []roundtrip.RoundTrip
	Metrics        metrics.PerformanceMetrics
}

// New assembles a BacktestResult, computing PerformanceMetrics from the
// portfolio's recorded equity curve and the matched round-trips.
func New(strategyName string, initialCapital, riskFreeRate float64, p *portfolio.Portfolio, log *tradelog.TradeLog, roundTrips []roundtrip.RoundTrip, runID uuid.UUID) *BacktestResult {
	m := metrics.Calculate(p.EquityCurve(), roundTrips, initialCapital, riskFreeRate)
	return &BacktestResult{
		RunID:          runID,
		StrategyName:   strategyName,
		InitialCapital: initialCapital,
		Portfolio:      p,
		TradeLog:       log,
		RoundTrips:     roundTrips,
		Metrics:        m,
	}
}

// Summary renders a short human-readable overview suitable for a CLI
// printout.
func (r *BacktestResult) Summary() string {
	curve := r.Portfolio.EquityCurve()
	var finalEquity float64
	if len(curve) > 0 {
		finalEquity = curve[len(curve)-1].Equity
	}
	return fmt.Sprintf(
		"run %s: strategy=%s initial=%.2f final=%.2f total_return=%.4f sharpe=%.4f max_drawdown=%.4f trades=%d round_trips=%d",
		r.RunID, r.StrategyName, r.InitialCapital, finalEquity,
		r.Metrics.TotalReturn, r.Metrics.Sharpe, r.Metrics.MaxDrawdown,
		r.TradeLog.Len(), len(r.RoundTrips),
	)
}

// EquityCurve returns the recorded (date, equity) series.
func (r *BacktestResult) EquityCurve() []portfolio.EquityPoint {
	return r.Portfolio.EquityCurve()
}

// DailyReturns derives day-over-day simple returns from the equity curve.
func (r *BacktestResult) DailyReturns() []float64 {
	curve := r.Portfolio.EquityCurve()
	out := make([]float64, 0, len(curve))
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			continue
		}
		out = append(out, (curve[i].Equity-prev)/prev)
	}
	return out
}

// CumulativeReturns derives the running return relative to initial capital
// at every equity-curve point.
func (r *BacktestResult) CumulativeReturns() []float64 {
	curve := r.Portfolio.EquityCurve()
	out := make([]float64, len(curve))
	for i, pt := range curve {
		if r.InitialCapital == 0 {
			continue
		}
		out[i] = (pt.Equity - r.InitialCapital) / r.InitialCapital
	}
	return out
}

// TradesDF returns the flat tabular projection of every executed trade.
func (r *BacktestResult) TradesDF() []tradelog.Row {
	return r.TradeLog.Rows()
}

// Duration is the span between the first and last recorded equity sample.
func (r *BacktestResult) Duration() time.Duration {
	curve := r.Portfolio.EquityCurve()
	if len(curve) < 2 {
		return 0
	}
	return curve[len(curve)-1].Date.Sub(curve[0].Date)
}
