// Package ggr implements the reference distance-based pair-trading
// strategy (Gatev, Goetzmann & Rouwenhorst 2006): formation via minimum
// sum-of-squared-deviations of cumulative returns, trading via z-score of
// the normalized spread with a time stop.
package ggr

import (
	"log"
	"math"
	"os"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"pairsim/pit"
	"pairsim/portfolio"
	"pairsim/pricebar"
	"pairsim/signal"
)

// Defaults for the distance-method parameters.
const (
	DefaultFormationPeriod = 120
	DefaultLookback        = 120
	DefaultEntryThreshold  = 2.0
	DefaultExitThreshold   = 0.5
	DefaultMaxHoldingDays  = 20
	DefaultTopNPairs       = 5
	DefaultMinCorrelation  = 0.8

	minOverlapFraction = 0.8
)

// PairCandidate is one formed pair: two symbols, their formation-window
// correlation, and their sum-of-squared-deviations distance.
type PairCandidate struct {
	SymbolA string
	SymbolB string
	Corr    float64
	SSD     float64
}

func (c PairCandidate) pairID() string { return c.SymbolA + "_" + c.SymbolB }

type pairState struct {
	daysHeld int
	entryZ   float64
	open     bool
	pairID   string
}

// Strategy is the GGR distance-based pair strategy.
type Strategy struct {
	Symbols         []string
	FormationPeriod int
	Lookback        int
	EntryThreshold  float64
	ExitThreshold   float64
	MaxHoldingDays  int
	TopNPairs       int
	MinCorrelation  float64
	PriceColumn     pricebar.PriceColumn

	formed  bool
	pairs   []PairCandidate
	active  map[string]*pairState
	trades  []portfolio.Trade
	logger  *log.Logger
}

// New constructs a Strategy with the reference defaults; zero-valued
// fields in a caller-built Strategy are not auto-filled, so prefer New and
// override only what differs.
func New(symbols []string) *Strategy {
	return &Strategy{
		Symbols:         symbols,
		FormationPeriod: DefaultFormationPeriod,
		Lookback:        DefaultLookback,
		EntryThreshold:  DefaultEntryThreshold,
		ExitThreshold:   DefaultExitThreshold,
		MaxHoldingDays:  DefaultMaxHoldingDays,
		TopNPairs:       DefaultTopNPairs,
		MinCorrelation:  DefaultMinCorrelation,
		PriceColumn:     pricebar.ColumnAdjClose,
		active:          make(map[string]*pairState),
		logger:          log.New(os.Stderr, "[GGR] ", log.LstdFlags),
	}
}

func (s *Strategy) Name() string { return "ggr_distance" }

func (s *Strategy) OnStart(start, end time.Time) {
	s.logger.Printf("starting GGR distance strategy over %d symbols, %s to %s", len(s.Symbols), start.Format("2006-01-02"), end.Format("2006-01-02"))
}

func (s *Strategy) OnEnd() {}

func (s *Strategy) OnFill(trade portfolio.Trade) {
	s.trades = append(s.trades, trade)
}

// OnBar implements the single-signal-per-bar policy exactly as specified:
// exits are checked across all active pairs (sorted pair id order) before
// any entry is considered, and only the first matching exit or entry is
// returned.
func (s *Strategy) OnBar(date time.Time, view pit.PointInTime) (signal.Signal, error) {
	if !s.formed {
		if s.tryFormation(view) {
			s.formed = true
		} else {
			return signal.Signal{}, nil
		}
	}

	if sig, ok := s.checkExits(date, view); ok {
		return sig, nil
	}
	if sig, ok := s.checkEntries(view); ok {
		return sig, nil
	}
	return signal.Signal{}, nil
}

// tryFormation attempts pair formation once every symbol has at least
// FormationPeriod visible bars. It computes cumulative returns per symbol
// over the formation window, filters pairs by minimum overlap and minimum
// correlation, ranks survivors by ascending SSD, and keeps the top N.
func (s *Strategy) tryFormation(view pit.PointInTime) bool {
	for _, sym := range s.Symbols {
		if len(view.ForSymbol(sym)) < s.FormationPeriod {
			return false
		}
	}

	candidates := make([]PairCandidate, 0)
	for i := 0; i < len(s.Symbols); i++ {
		for j := i + 1; j < len(s.Symbols); j++ {
			a, b := s.Symbols[i], s.Symbols[j]
			normA, normB, overlap := s.alignedCumulativeReturns(view, a, b, s.FormationPeriod)
			if float64(overlap) < minOverlapFraction*float64(s.FormationPeriod) {
				continue
			}
			if len(normA) < 2 {
				continue
			}
			corr := stat.Correlation(normA, normB, nil)
			if corr < s.MinCorrelation {
				continue
			}
			ssd := 0.0
			for k := range normA {
				d := normA[k] - normB[k]
				ssd += d * d
			}
			candidates = append(candidates, PairCandidate{SymbolA: a, SymbolB: b, Corr: corr, SSD: ssd})
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].SSD < candidates[j].SSD })
	if len(candidates) > s.TopNPairs {
		candidates = candidates[:s.TopNPairs]
	}
	s.pairs = candidates
	s.logger.Printf("formation complete: %d pairs selected", len(s.pairs))
	return true
}

// alignedCumulativeReturns returns the cumulative-return series for a and
// b over their common dates within the last `window` bars of each
// symbol's visible history, plus the overlap count.
func (s *Strategy) alignedCumulativeReturns(view pit.PointInTime, a, b string, window int) ([]float64, []float64, int) {
	barsA := lastN(view.ForSymbol(a), window)
	barsB := lastN(view.ForSymbol(b), window)

	pxB := make(map[time.Time]float64, len(barsB))
	for _, bar := range barsB {
		pxB[bar.Date] = bar.Price(s.PriceColumn)
	}

	var p0A, p0B float64
	haveBase := false
	normA := make([]float64, 0, len(barsA))
	normB := make([]float64, 0, len(barsA))
	for _, bar := range barsA {
		pb, ok := pxB[bar.Date]
		if !ok {
			continue
		}
		pa := bar.Price(s.PriceColumn)
		if !haveBase {
			p0A, p0B = pa, pb
			haveBase = true
		}
		if p0A == 0 || p0B == 0 {
			continue
		}
		normA = append(normA, pa/p0A-1)
		normB = append(normB, pb/p0B-1)
	}
	return normA, normB, len(normA)
}

func lastN(bars []pricebar.Bar, n int) []pricebar.Bar {
	if len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}

func (s *Strategy) checkExits(date time.Time, view pit.PointInTime) (signal.Signal, bool) {
	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		st := s.active[id]
		st.daysHeld++

		cand := s.candidateByPairID(id)
		if cand == nil {
			continue
		}
		z, ok := s.currentZScore(view, *cand)

		exit := false
		switch {
		case st.daysHeld >= s.MaxHoldingDays:
			exit = true
		case ok && math.Abs(z) <= s.ExitThreshold:
			exit = true
		case ok && sign(z) != sign(st.entryZ) && st.entryZ != 0:
			exit = true // spread crossed zero relative to entry
		}

		if exit {
			longSym, shortSym := s.legsForEntry(*cand, st.entryZ)
			sig := signal.NewPairSignal(signal.Close, longSym, shortSym, 1.0, id, nil)
			delete(s.active, id)
			return sig, true
		}
	}
	return signal.Signal{}, false
}

func (s *Strategy) checkEntries(view pit.PointInTime) (signal.Signal, bool) {
	for _, cand := range s.pairs {
		id := cand.pairID()
		if _, active := s.active[id]; active {
			continue
		}
		z, ok := s.currentZScore(view, cand)
		if !ok || math.IsNaN(z) || math.IsInf(z, 0) {
			continue
		}
		if math.Abs(z) <= s.EntryThreshold {
			continue
		}

		longSym, shortSym := s.legsForEntry(cand, z)
		s.active[id] = &pairState{daysHeld: 0, entryZ: z, open: true, pairID: id}
		sig := signal.NewPairSignal(signal.Open, longSym, shortSym, 1.0, id, nil)
		return sig, true
	}
	return signal.Signal{}, false
}

// legsForEntry resolves which symbol is long and which is short given the
// sign of z at entry: z > 0 means a is rich relative to b (short a, long
// b); z < 0 means the opposite.
func (s *Strategy) legsForEntry(cand PairCandidate, z float64) (longSym, shortSym string) {
	if z > 0 {
		return cand.SymbolB, cand.SymbolA
	}
	return cand.SymbolA, cand.SymbolB
}

func (s *Strategy) candidateByPairID(id string) *PairCandidate {
	for i := range s.pairs {
		if s.pairs[i].pairID() == id {
			return &s.pairs[i]
		}
	}
	return nil
}

// currentZScore computes the z-score of the normalized spread (normA -
// normB) over the last Lookback bars. Returns false if the spread has zero
// standard deviation or insufficient overlap.
func (s *Strategy) currentZScore(view pit.PointInTime, cand PairCandidate) (float64, bool) {
	normA, normB, overlap := s.alignedCumulativeReturns(view, cand.SymbolA, cand.SymbolB, s.Lookback)
	if overlap < 2 {
		return 0, false
	}
	spread := make([]float64, len(normA))
	for i := range normA {
		spread[i] = normA[i] - normB[i]
	}
	mean := stat.Mean(spread, nil)
	sd := stat.StdDev(spread, nil)
	if sd == 0 {
		return 0, false
	}
	z := (spread[len(spread)-1] - mean) / sd
	return z, true
}

func sign(f float64) int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

// ActivePairs returns the pair ids currently open.
func (s *Strategy) ActivePairs() []string {
	out := make([]string, 0, len(s.active))
	for id := range s.active {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IdentifiedPairs returns the pairs selected at formation.
func (s *Strategy) IdentifiedPairs() []PairCandidate {
	out := make([]PairCandidate, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// Reset clears all formation and trading state so the strategy can be
// reused for another run.
func (s *Strategy) Reset() {
	s.formed = false
	s.pairs = nil
	s.active = make(map[string]*pairState)
	s.trades = nil
}
