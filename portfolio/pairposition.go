package portfolio

import "time"

// PairPosition links two Position records under the convention that
// LongLeg.Shares > 0 and ShortLeg.Shares < 0. A pair is closed, and removed
// from the owning Portfolio, the moment both legs return to flat.
type PairPosition struct {
	PairID     string
	LongLeg    Position
	ShortLeg   Position
	HedgeRatio float64
	EntryDate  time.Time
}

// MarketValue is the sum of both legs' market value.
func (pp PairPosition) MarketValue() float64 {
	return pp.LongLeg.MarketValue() + pp.ShortLeg.MarketValue()
}

// IsFullyClosed reports whether both legs are flat.
func (pp PairPosition) IsFullyClosed() bool {
	return pp.LongLeg.IsFlat() && pp.ShortLeg.IsFlat()
}
