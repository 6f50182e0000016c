// Package metrics computes performance and risk statistics from an equity
// curve and a set of matched round-trips: returns, Sharpe, drawdown,
// VaR/CVaR, rolling windows, and trade-derived statistics.
package metrics

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"pairsim/portfolio"
	"pairsim/roundtrip"
)

// MinTradingDaysForMetrics is the floor below which metrics are returned
// zeroed rather than computed on too little data.
const MinTradingDaysForMetrics = 20

const TradingDaysPerYear = 252.0

// PerformanceMetrics bundles the full set of return/risk statistics
// required by the simulator's metrics engine.
type PerformanceMetrics struct {
	TotalReturn        float64
	AnnualizedReturn   float64
	AnnualizedVolatility float64
	Sharpe             float64
	MaxDrawdown        float64
	MaxDrawdownDuration int // calendar days
	VaR95              float64
	CVaR95             float64
	DownsideVolatility float64
	Sortino            float64
	Calmar             float64
	Skewness           float64
	ExcessKurtosis     float64

	WinRate         float64
	ProfitFactor    float64
	AvgHoldingDays  float64
	BestTradePct    float64
	WorstTradePct   float64
	NumRoundTrips   int
}

// DrawdownPeriod is a maximal contiguous span where equity sat below its
// prior running peak.
type DrawdownPeriod struct {
	StartDate     time.Time
	TroughDate    time.Time
	RecoveryDate  *time.Time
	PeakEquity    float64
	TroughEquity  float64
	DrawdownPct   float64 // <= 0
	DurationDays  int
	RecoveryDays  *int
}

// RiskProfile supplements PerformanceMetrics with the full drawdown-period
// decomposition and rolling-window series, ported from the reference
// implementation's risk_analysis module (a SPEC_FULL addition beyond
// spec.md's scalar metrics).
type RiskProfile struct {
	DrawdownPeriods []DrawdownPeriod
	RollingSharpe   []float64
	RollingVol      []float64
	RollingReturn   []float64
	RollingMaxDD    []float64
}

func dailyReturns(curve []portfolio.EquityPoint) []float64 {
	out := make([]float64, 0, len(curve))
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			continue
		}
		r := (curve[i].Equity - prev) / prev
		if !math.IsInf(r, 0) && !math.IsNaN(r) {
			out = append(out, r)
		}
	}
	return out
}

// Calculate computes PerformanceMetrics from an equity curve, the matched
// round-trips, initial capital, and an annual risk-free rate. Below
// MinTradingDaysForMetrics equity points it returns a zero-valued struct
// rather than raising.
func Calculate(curve []portfolio.EquityPoint, rts []roundtrip.RoundTrip, initialCapital, riskFreeRate float64) PerformanceMetrics {
	if len(curve) < MinTradingDaysForMetrics {
		return PerformanceMetrics{}
	}

	finalEquity := curve[len(curve)-1].Equity
	m := PerformanceMetrics{}
	m.TotalReturn = (finalEquity - initialCapital) / initialCapital

	n := float64(len(curve))
	if initialCapital > 0 && finalEquity > 0 {
		m.AnnualizedReturn = math.Pow(finalEquity/initialCapital, TradingDaysPerYear/n) - 1
	}

	daily := dailyReturns(curve)
	if len(daily) > 1 {
		meanDaily := stat.Mean(daily, nil)
		stdDaily := stat.StdDev(daily, nil)
		m.AnnualizedVolatility = stdDaily * math.Sqrt(TradingDaysPerYear)
		if stdDaily > 0 {
			m.Sharpe = (meanDaily - riskFreeRate/TradingDaysPerYear) / stdDaily * math.Sqrt(TradingDaysPerYear)
		}
	}

	_, maxDD, maxDDDuration := drawdown(curve)
	m.MaxDrawdown = maxDD
	m.MaxDrawdownDuration = maxDDDuration

	m.VaR95 = historicalVaR(daily, 0.95)
	m.CVaR95 = historicalCVaR(daily, m.VaR95)

	downside := negativeOnly(daily)
	if len(downside) > 1 {
		m.DownsideVolatility = stat.StdDev(downside, nil) * math.Sqrt(TradingDaysPerYear)
	}
	if m.DownsideVolatility > 0 {
		m.Sortino = (m.AnnualizedReturn - riskFreeRate) / m.DownsideVolatility
	}
	if m.MaxDrawdown != 0 {
		m.Calmar = m.AnnualizedReturn / math.Abs(m.MaxDrawdown)
	}

	if len(daily) >= 4 {
		m.Skewness = stat.Skew(daily, nil)
		m.ExcessKurtosis = stat.ExKurtosis(daily, nil)
	}

	applyTradeMetrics(&m, rts)

	return m
}

func drawdown(curve []portfolio.EquityPoint) ([]float64, float64, int) {
	ddCurve := make([]float64, len(curve))
	runningMax := curve[0].Equity
	maxDD := 0.0
	maxDDDuration := 0

	peakDate := curve[0].Date
	inDrawdown := false

	for i, pt := range curve {
		if pt.Equity > runningMax {
			if inDrawdown {
				duration := int(pt.Date.Sub(peakDate).Hours() / 24)
				if duration > maxDDDuration {
					maxDDDuration = duration
				}
				inDrawdown = false
			}
			runningMax = pt.Equity
			peakDate = pt.Date
		}
		dd := 0.0
		if runningMax > 0 {
			dd = (pt.Equity - runningMax) / runningMax
		}
		ddCurve[i] = dd
		if dd < maxDD {
			maxDD = dd
		}
		if dd < 0 {
			inDrawdown = true
		}
	}
	if inDrawdown {
		duration := int(curve[len(curve)-1].Date.Sub(peakDate).Hours() / 24)
		if duration > maxDDDuration {
			maxDDDuration = duration
		}
	}
	return ddCurve, maxDD, maxDDDuration
}

// AnalyzeDrawdowns decomposes the equity curve into every maximal
// contiguous drawdown span: peak, trough, optional recovery, and duration.
func AnalyzeDrawdowns(curve []portfolio.EquityPoint) []DrawdownPeriod {
	periods := make([]DrawdownPeriod, 0)
	if len(curve) == 0 {
		return periods
	}

	runningMax := curve[0].Equity
	peakDate := curve[0].Date
	var current *DrawdownPeriod

	for _, pt := range curve {
		if pt.Equity >= runningMax {
			if current != nil {
				recovery := pt.Date
				recoveryDays := int(recovery.Sub(current.TroughDate).Hours() / 24)
				current.RecoveryDate = &recovery
				current.RecoveryDays = &recoveryDays
				current.DurationDays = int(recovery.Sub(current.StartDate).Hours() / 24)
				periods = append(periods, *current)
				current = nil
			}
			runningMax = pt.Equity
			peakDate = pt.Date
			continue
		}

		ddPct := (pt.Equity - runningMax) / runningMax
		if current == nil {
			current = &DrawdownPeriod{
				StartDate:    peakDate,
				TroughDate:   pt.Date,
				PeakEquity:   runningMax,
				TroughEquity: pt.Equity,
				DrawdownPct:  ddPct,
			}
		} else if pt.Equity < current.TroughEquity {
			current.TroughDate = pt.Date
			current.TroughEquity = pt.Equity
			current.DrawdownPct = ddPct
		}
	}
	if current != nil {
		current.DurationDays = int(curve[len(curve)-1].Date.Sub(current.StartDate).Hours() / 24)
		periods = append(periods, *current)
	}
	return periods
}

func historicalVaR(daily []float64, confidence float64) float64 {
	if len(daily) == 0 {
		return 0
	}
	sorted := append([]float64(nil), daily...)
	sort.Float64s(sorted)
	idx := int((1 - confidence) * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func historicalCVaR(daily []float64, varValue float64) float64 {
	tail := make([]float64, 0)
	for _, r := range daily {
		if r <= varValue {
			tail = append(tail, r)
		}
	}
	if len(tail) == 0 {
		return 0
	}
	return stat.Mean(tail, nil)
}

func negativeOnly(daily []float64) []float64 {
	out := make([]float64, 0, len(daily))
	for _, r := range daily {
		if r < 0 {
			out = append(out, r)
		}
	}
	return out
}

func applyTradeMetrics(m *PerformanceMetrics, rts []roundtrip.RoundTrip) {
	closed := make([]roundtrip.RoundTrip, 0, len(rts))
	for _, rt := range rts {
		if rt.HasExit && !rt.IsOpen {
			closed = append(closed, rt)
		}
	}
	m.NumRoundTrips = len(closed)
	if len(closed) == 0 {
		return
	}

	wins, grossProfit, grossLoss, totalHoldingDays := 0, 0.0, 0.0, 0
	best, worst := math.Inf(-1), math.Inf(1)
	for _, rt := range closed {
		if rt.PnL > 0 {
			wins++
			grossProfit += rt.PnL
		} else {
			grossLoss += -rt.PnL
		}
		totalHoldingDays += rt.HoldingDays
		if rt.ReturnPct > best {
			best = rt.ReturnPct
		}
		if rt.ReturnPct < worst {
			worst = rt.ReturnPct
		}
	}
	m.WinRate = float64(wins) / float64(len(closed))
	m.AvgHoldingDays = float64(totalHoldingDays) / float64(len(closed))
	m.BestTradePct = best
	m.WorstTradePct = worst
	if grossLoss > 0 {
		m.ProfitFactor = grossProfit / grossLoss
	}
}

// RollingWindow computes rolling Sharpe, volatility, return, and
// max-drawdown over a caller-supplied window of equity points.
func RollingWindow(curve []portfolio.EquityPoint, window int, riskFreeRate float64) RiskProfile {
	rp := RiskProfile{
		RollingSharpe: make([]float64, 0),
		RollingVol:    make([]float64, 0),
		RollingReturn: make([]float64, 0),
		RollingMaxDD:  make([]float64, 0),
	}
	if window < 2 || len(curve) < window {
		return rp
	}
	for i := window; i <= len(curve); i++ {
		sub := curve[i-window : i]
		daily := dailyReturns(sub)
		if len(daily) < 2 {
			rp.RollingSharpe = append(rp.RollingSharpe, 0)
			rp.RollingVol = append(rp.RollingVol, 0)
			rp.RollingReturn = append(rp.RollingReturn, 0)
			rp.RollingMaxDD = append(rp.RollingMaxDD, 0)
			continue
		}
		meanDaily := stat.Mean(daily, nil)
		stdDaily := stat.StdDev(daily, nil)
		sharpe := 0.0
		if stdDaily > 0 {
			sharpe = (meanDaily - riskFreeRate/TradingDaysPerYear) / stdDaily * math.Sqrt(TradingDaysPerYear)
		}
		_, maxDD, _ := drawdown(sub)
		rp.RollingSharpe = append(rp.RollingSharpe, sharpe)
		rp.RollingVol = append(rp.RollingVol, stdDaily*math.Sqrt(TradingDaysPerYear))
		rp.RollingReturn = append(rp.RollingReturn, (sub[len(sub)-1].Equity-sub[0].Equity)/sub[0].Equity)
		rp.RollingMaxDD = append(rp.RollingMaxDD, maxDD)
	}
	return rp
}
