// Package validation implements the data-quality checks that support the
// core: gap detection, missing-data repair, price/adjustment sanity
// checks, and calendar alignment across symbols.
package validation

import (
	"math"
	"sort"
	"time"

	"pairsim/pairsimerr"
	"pairsim/pricebar"
)

// Gap describes a detected break in a per-symbol date sequence.
type Gap struct {
	Symbol            string
	PriorDate         time.Time
	NextDate          time.Time
	CalendarDaysDelta int
	TradingDaysMissed int
}

// FindGaps flags any consecutive-date delta greater than 5 calendar days
// in a sorted per-symbol date sequence, estimating trading days missed as
// floor(delta*5/7) - 1.
func FindGaps(symbol string, dates []time.Time) []Gap {
	sorted := append([]time.Time(nil), dates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	gaps := make([]Gap, 0)
	for i := 1; i < len(sorted); i++ {
		delta := int(sorted[i].Sub(sorted[i-1]).Hours() / 24)
		if delta > 5 {
			missed := int(math.Floor(float64(delta)*5.0/7.0)) - 1
			gaps = append(gaps, Gap{
				Symbol:            symbol,
				PriorDate:         sorted[i-1],
				NextDate:          sorted[i],
				CalendarDaysDelta: delta,
				TradingDaysMissed: missed,
			})
		}
	}
	return gaps
}

// MissingDataStrategy selects how gaps in a price series are repaired.
type MissingDataStrategy int

const (
	Raise MissingDataStrategy = iota
	Drop
	ForwardFill
	BackwardFill
	Interpolate
)

// HandleMissingData repairs gaps in a sorted per-symbol bar sequence
// according to strategy. ForwardFill and BackwardFill first check that no
// run of consecutive missing values exceeds maxConsecutive trading days;
// exceeding it raises a DataQualityError. Interpolate is unconditional.
// Raise always fails if any gap is present. Drop returns the sorted bars
// unchanged: missing days are already absent, so nothing is removed and
// the gap boundaries are left in place.
func HandleMissingData(symbol string, bars []pricebar.Bar, strategy MissingDataStrategy, maxConsecutive int) ([]pricebar.Bar, error) {
	sorted := append([]pricebar.Bar(nil), bars...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	dates := make([]time.Time, len(sorted))
	for i, b := range sorted {
		dates[i] = b.Date
	}
	gaps := FindGaps(symbol, dates)
	if len(gaps) == 0 {
		return sorted, nil
	}

	switch strategy {
	case Raise:
		return nil, &pairsimerr.DataQualityError{CheckName: "gap_detection", Symbol: symbol, Details: "gaps present and strategy is raise"}
	case Drop:
		return sorted, nil
	case ForwardFill, BackwardFill:
		if err := checkConsecutiveMissing(symbol, gaps, maxConsecutive); err != nil {
			return nil, err
		}
		return fillGaps(sorted, gaps, strategy), nil
	case Interpolate:
		return interpolateGaps(sorted, gaps), nil
	default:
		return sorted, nil
	}
}

func checkConsecutiveMissing(symbol string, gaps []Gap, maxConsecutive int) error {
	for _, g := range gaps {
		if g.TradingDaysMissed > maxConsecutive {
			return &pairsimerr.DataQualityError{
				CheckName: "consecutive_missing",
				Symbol:    symbol,
				Details:   "gap exceeds max_consecutive trading days",
			}
		}
	}
	return nil
}

func fillGaps(sorted []pricebar.Bar, gaps []Gap, strategy MissingDataStrategy) []pricebar.Bar {
	// Synthetic fill bars are inserted at the prior/next boundary using
	// the neighboring bar's prices, one per missing trading day estimate.
	out := make([]pricebar.Bar, 0, len(sorted))
	gapAfter := make(map[time.Time]Gap)
	for _, g := range gaps {
		gapAfter[g.PriorDate] = g
	}
	for i, b := range sorted {
		out = append(out, b)
		g, ok := gapAfter[b.Date]
		if !ok {
			continue
		}
		var fillSource pricebar.Bar
		if strategy == ForwardFill {
			fillSource = b
		} else if i+1 < len(sorted) {
			fillSource = sorted[i+1]
		} else {
			continue
		}
		for d := 1; d <= g.TradingDaysMissed; d++ {
			synthetic := fillSource
			synthetic.Date = b.Date.AddDate(0, 0, d)
			out = append(out, synthetic)
		}
	}
	return out
}

func interpolateGaps(sorted []pricebar.Bar, gaps []Gap) []pricebar.Bar {
	out := make([]pricebar.Bar, 0, len(sorted))
	gapAfter := make(map[time.Time]Gap)
	for _, g := range gaps {
		gapAfter[g.PriorDate] = g
	}
	for i, b := range sorted {
		out = append(out, b)
		g, ok := gapAfter[b.Date]
		if !ok || i+1 >= len(sorted) {
			continue
		}
		next := sorted[i+1]
		steps := g.TradingDaysMissed + 1
		for d := 1; d <= g.TradingDaysMissed; d++ {
			frac := float64(d) / float64(steps)
			synthetic := pricebar.Bar{
				Symbol:   b.Symbol,
				Date:     b.Date.AddDate(0, 0, d),
				Open:     lerp(b.Open, next.Open, frac),
				High:     lerp(b.High, next.High, frac),
				Low:      lerp(b.Low, next.Low, frac),
				Close:    lerp(b.Close, next.Close, frac),
				AdjClose: lerp(b.AdjClose, next.AdjClose, frac),
			}
			out = append(out, synthetic)
		}
	}
	return out
}

func lerp(a, b, frac float64) float64 { return a + (b-a)*frac }

// SanityIssue describes one failed price sanity check.
type SanityIssue struct {
	Symbol string
	Date   time.Time
	Check  string
	Detail string
}

// ExtremeMoveThreshold is the default per-symbol next-day return magnitude
// above which a sanity check flags a possible bad print.
const ExtremeMoveThreshold = 0.50

// AdjustmentJumpThreshold is the default day-over-day adjustment-factor
// change above which a possible unexplained adjustment is flagged.
const AdjustmentJumpThreshold = 0.10

// CheckPriceSanity flags negative prices, high<low, close outside
// [low, high], and per-symbol next-day return magnitude above threshold.
func CheckPriceSanity(bars []pricebar.Bar, threshold float64) []SanityIssue {
	issues := make([]SanityIssue, 0)
	sorted := append([]pricebar.Bar(nil), bars...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	for i, b := range sorted {
		if b.Open < 0 || b.Close < 0 || b.High < 0 || b.Low < 0 {
			issues = append(issues, SanityIssue{b.Symbol, b.Date, "negative_price", "a price field is negative"})
		}
		if b.High < b.Low {
			issues = append(issues, SanityIssue{b.Symbol, b.Date, "high_lt_low", "high is below low"})
		}
		if b.Close < b.Low || b.Close > b.High {
			issues = append(issues, SanityIssue{b.Symbol, b.Date, "close_outside_range", "close is outside [low, high]"})
		}
		if i > 0 && sorted[i-1].Close != 0 {
			move := (b.Close - sorted[i-1].Close) / sorted[i-1].Close
			if math.Abs(move) > threshold {
				issues = append(issues, SanityIssue{b.Symbol, b.Date, "extreme_move", "next-day return exceeds threshold"})
			}
		}
	}
	return issues
}

// CheckAdjustedPrices flags a day-over-day jump in the AdjClose/Close
// adjustment factor larger than threshold, which may indicate an
// unexplained or unmodeled corporate action.
func CheckAdjustedPrices(bars []pricebar.Bar, threshold float64) []SanityIssue {
	issues := make([]SanityIssue, 0)
	sorted := append([]pricebar.Bar(nil), bars...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var prevFactor float64
	havePrev := false
	for _, b := range sorted {
		if b.Close == 0 {
			continue
		}
		factor := b.AdjClose / b.Close
		if havePrev && prevFactor != 0 {
			change := math.Abs(factor-prevFactor) / prevFactor
			if change > threshold {
				issues = append(issues, SanityIssue{b.Symbol, b.Date, "adjustment_jump", "adjustment factor changed sharply"})
			}
		}
		prevFactor = factor
		havePrev = true
	}
	return issues
}

// JoinMode selects how two date sets are combined for calendar alignment.
type JoinMode int

const (
	Inner JoinMode = iota
	Outer
	Left
	Right
)

// AlignCalendars restricts a and b to the date set implied by mode and
// returns both, sorted ascending. Outer is, deliberately, a pass-through:
// it returns both inputs unchanged rather than computing a true union join.
func AlignCalendars(a, b []pricebar.Bar, mode JoinMode) ([]pricebar.Bar, []pricebar.Bar) {
	sortByDate := func(bars []pricebar.Bar) []pricebar.Bar {
		out := append([]pricebar.Bar(nil), bars...)
		sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
		return out
	}
	as, bs := sortByDate(a), sortByDate(b)

	switch mode {
	case Outer:
		return as, bs
	case Left:
		dateSet := dateSetOf(as)
		return as, filterByDates(bs, dateSet)
	case Right:
		dateSet := dateSetOf(bs)
		return filterByDates(as, dateSet), bs
	default: // Inner
		common := intersectDates(dateSetOf(as), dateSetOf(bs))
		return filterByDates(as, common), filterByDates(bs, common)
	}
}

func dateSetOf(bars []pricebar.Bar) map[time.Time]struct{} {
	out := make(map[time.Time]struct{}, len(bars))
	for _, b := range bars {
		out[b.Date] = struct{}{}
	}
	return out
}

func intersectDates(a, b map[time.Time]struct{}) map[time.Time]struct{} {
	out := make(map[time.Time]struct{})
	for d := range a {
		if _, ok := b[d]; ok {
			out[d] = struct{}{}
		}
	}
	return out
}

func filterByDates(bars []pricebar.Bar, dates map[time.Time]struct{}) []pricebar.Bar {
	out := make([]pricebar.Bar, 0, len(bars))
	for _, b := range bars {
		if _, ok := dates[b.Date]; ok {
			out = append(out, b)
		}
	}
	return out
}
