// Package universe provides the symbol-membership capability: given an
// optional as-of date, return the set of symbols considered tradeable.
package universe

import (
	"sort"
	"time"
)

// Universe returns the symbol set valid as of an optional date. A nil
// asOf means "as of now" / "ignore point-in-time membership" depending on
// the implementation (see each type's doc comment).
type Universe interface {
	Symbols(asOf *time.Time) ([]string, error)
}

// Static is a fixed symbol list that ignores asOf entirely.
//
// This carries survivorship risk: a symbol present today that was
// delisted mid-history, or a symbol added to an index after the backtest
// start date, will be treated as tradeable for the entire simulated
// period. Use this only for the common case (a static sector or index
// list) where no historical constituent record is available; callers
// who need accurate historical membership must use PointInTime.
type Static struct {
	symbols []string
}

// NewStatic builds a Static universe from a fixed symbol list.
func NewStatic(symbols []string) Static {
	sorted := append([]string(nil), symbols...)
	sort.Strings(sorted)
	return Static{symbols: sorted}
}

func (s Static) Symbols(asOf *time.Time) ([]string, error) {
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out, nil
}

// MembershipEvent records a symbol entering or leaving a universe on a
// given date.
type MembershipEvent struct {
	Symbol string
	Date   time.Time
	Added  bool // true = joined the universe; false = left it
}

// PointInTime reconstructs universe membership as of any date from an
// explicit, caller-supplied log of addition/removal events. This is the
// accurate alternative to Static for callers who have historical
// constituent data.
type PointInTime struct {
	events []MembershipEvent
}

// NewPointInTime builds a point-in-time universe from membership events.
// Events need not be supplied in date order.
func NewPointInTime(events []MembershipEvent) PointInTime {
	sorted := append([]MembershipEvent(nil), events...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	return PointInTime{events: sorted}
}

// Symbols reconstructs membership as of asOf by replaying every event with
// Date <= asOf. A nil asOf replays the entire event log (equivalent to "as
// of the last known event").
func (p PointInTime) Symbols(asOf *time.Time) ([]string, error) {
	members := make(map[string]struct{})
	for _, e := range p.events {
		if asOf != nil && e.Date.After(*asOf) {
			break
		}
		if e.Added {
			members[e.Symbol] = struct{}{}
		} else {
			delete(members, e.Symbol)
		}
	}
	out := make([]string, 0, len(members))
	for s := range members {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
