// Package pit implements the point-in-time data view: a read-only cursor
// over a set of price bars bounded by a reference date, enforcing that a
// strategy can never observe a bar from the future relative to its clock.
package pit

import (
	"sort"
	"time"

	"pairsim/pairsimerr"
	"pairsim/pricebar"
)

// PointInTime is an immutable cursor over a fixed underlying set of bars.
// AdvanceTo never mutates the receiver; it returns a new value with a later
// reference date. Old values remain valid after a later one is produced.
type PointInTime struct {
	bars         []pricebar.Bar // full underlying set, sorted by (symbol, date)
	referenceDate time.Time
}

// New builds a PointInTime view over bars, bounded initially by
// referenceDate. bars need not be pre-sorted.
func New(bars []pricebar.Bar, referenceDate time.Time) PointInTime {
	sorted := make([]pricebar.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Symbol != sorted[j].Symbol {
			return sorted[i].Symbol < sorted[j].Symbol
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return PointInTime{bars: sorted, referenceDate: referenceDate}
}

// ReferenceDate returns the cursor's current bound.
func (p PointInTime) ReferenceDate() time.Time { return p.referenceDate }

// GetData returns every bar visible at the current reference date.
func (p PointInTime) GetData() []pricebar.Bar {
	out := make([]pricebar.Bar, 0, len(p.bars))
	for _, b := range p.bars {
		if !b.Date.After(p.referenceDate) {
			out = append(out, b)
		}
	}
	return out
}

// ForSymbol returns visible bars restricted to one symbol, in date order.
func (p PointInTime) ForSymbol(symbol string) []pricebar.Bar {
	out := make([]pricebar.Bar, 0)
	for _, b := range p.bars {
		if b.Symbol == symbol && !b.Date.After(p.referenceDate) {
			out = append(out, b)
		}
	}
	return out
}

// GetLatest returns the last visible bar, optionally restricted to one
// symbol. Returns false if nothing is visible.
func (p PointInTime) GetLatest(symbol string) (pricebar.Bar, bool) {
	var latest pricebar.Bar
	found := false
	for _, b := range p.bars {
		if symbol != "" && b.Symbol != symbol {
			continue
		}
		if b.Date.After(p.referenceDate) {
			continue
		}
		if !found || b.Date.After(latest.Date) {
			latest = b
			found = true
		}
	}
	return latest, found
}

// Slice returns rows with start <= date <= min(end, referenceDate). It
// fails with a LookAheadError if end is after the reference date.
func (p PointInTime) Slice(start time.Time, end time.Time) ([]pricebar.Bar, error) {
	if end.After(p.referenceDate) {
		return nil, &pairsimerr.LookAheadError{AccessDate: p.referenceDate, DataDate: end}
	}
	out := make([]pricebar.Bar, 0)
	for _, b := range p.bars {
		if !b.Date.Before(start) && !b.Date.After(end) {
			out = append(out, b)
		}
	}
	return out, nil
}

// AdvanceTo returns a new PointInTime with reference date newDate. Fails
// with a LookAheadError if newDate is before the current reference date:
// backward advancement is a structural bug, the guarantee is total-order
// monotonic time. AdvanceTo to the current reference date is a no-op that
// returns an equal value.
func (p PointInTime) AdvanceTo(newDate time.Time) (PointInTime, error) {
	if newDate.Before(p.referenceDate) {
		return PointInTime{}, &pairsimerr.LookAheadError{AccessDate: p.referenceDate, DataDate: newDate}
	}
	return PointInTime{bars: p.bars, referenceDate: newDate}, nil
}

// Symbols returns the sorted unique symbol set. Set membership is timeless
// and is not limited by the reference date.
func (p PointInTime) Symbols() []string {
	seen := make(map[string]struct{})
	for _, b := range p.bars {
		seen[b.Symbol] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of visible bars.
func (p PointInTime) Len() int { return len(p.GetData()) }
