// Package cache implements an on-disk CSV cache for price history: one CSV
// file per symbol plus a JSON metadata sidecar recording what range is
// cached and when it was last refreshed. Refill of multiple stale symbols
// runs concurrently; this is the only concurrency anywhere in the module,
// confined to this external I/O layer and never touching Portfolio, PIT, or
// Runner state.
package cache

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"pairsim/internal/provider"
	"pairsim/pricebar"
)

func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// symbolPattern bounds what a symbol may look like before it is used to
// build a file path: uppercase alphanumerics, dot, and hyphen, 1-10 chars.
// Rejects anything that could traverse out of the cache directory.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,9}$`)

// Meta is one symbol's cache-validity record.
type Meta struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	DownloadedAt time.Time `json:"downloaded_at"`
	RowCount     int       `json:"row_count"`
}

// CSVCache stores price bars as one CSV file per symbol under Dir, with a
// single shared metadata sidecar file "_metadata.json".
type CSVCache struct {
	Dir      string
	Provider provider.DataProvider
}

// New constructs a CSVCache rooted at dir, backed by p for refills.
func New(dir string, p provider.DataProvider) (*CSVCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: creating cache dir %s: %w", dir, err)
	}
	return &CSVCache{Dir: dir, Provider: p}, nil
}

func (c *CSVCache) metaPath() string {
	return filepath.Join(c.Dir, "_metadata.json")
}

func (c *CSVCache) symbolPath(symbol string) (string, error) {
	if !symbolPattern.MatchString(symbol) {
		return "", fmt.Errorf("cache: rejected symbol %q: fails validation pattern", symbol)
	}
	return filepath.Join(c.Dir, symbol+".csv"), nil
}

func (c *CSVCache) readMeta() (map[string]Meta, error) {
	data, err := os.ReadFile(c.metaPath())
	if os.IsNotExist(err) {
		return make(map[string]Meta), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: reading metadata: %w", err)
	}
	meta := make(map[string]Meta)
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("cache: parsing metadata: %w", err)
	}
	return meta, nil
}

func (c *CSVCache) writeMeta(meta map[string]Meta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: encoding metadata: %w", err)
	}
	return os.WriteFile(c.metaPath(), data, 0o644)
}

// valid reports whether the cached range for symbol already covers
// [start, end].
func valid(m Meta, start, end time.Time) bool {
	return !m.Start.After(start) && !m.End.Before(end)
}

// Get returns cached bars for symbol over [start, end], refilling from the
// provider first if the cache is stale or missing.
func (c *CSVCache) Get(ctx context.Context, symbol string, start, end time.Time) ([]pricebar.PriceBar, error) {
	meta, err := c.readMeta()
	if err != nil {
		return nil, err
	}
	if m, ok := meta[symbol]; !ok || !valid(m, start, end) {
		if err := c.refillOne(ctx, symbol, start, end, meta); err != nil {
			return nil, err
		}
	}
	return c.readCSV(symbol)
}

// RefillStale refills every symbol in symbols whose cached range does not
// cover [start, end], concurrently, bounded by ctx's cancellation.
func (c *CSVCache) RefillStale(ctx context.Context, symbols []string, start, end time.Time) error {
	meta, err := c.readMeta()
	if err != nil {
		return err
	}

	stale := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if m, ok := meta[sym]; !ok || !valid(m, start, end) {
			stale = append(stale, sym)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	results := make(map[string][]pricebar.PriceBar, len(stale))
	for _, sym := range stale {
		sym := sym
		g.Go(func() error {
			bars, err := c.Provider.Fetch(gctx, []string{sym}, start, end, true)
			if err != nil {
				return fmt.Errorf("cache: refilling %s: %w", sym, err)
			}
			results[sym] = bars
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for sym, bars := range results {
		if err := c.writeCSV(sym, bars); err != nil {
			return err
		}
		meta[sym] = Meta{Start: start, End: end, DownloadedAt: time.Now(), RowCount: len(bars)}
	}
	return c.writeMeta(meta)
}

func (c *CSVCache) refillOne(ctx context.Context, symbol string, start, end time.Time, meta map[string]Meta) error {
	bars, err := c.Provider.Fetch(ctx, []string{symbol}, start, end, true)
	if err != nil {
		return fmt.Errorf("cache: refilling %s: %w", symbol, err)
	}
	if err := c.writeCSV(symbol, bars); err != nil {
		return err
	}
	meta[symbol] = Meta{Start: start, End: end, DownloadedAt: time.Now(), RowCount: len(bars)}
	return c.writeMeta(meta)
}

var csvHeader = []string{"date", "open", "high", "low", "close", "adj_close", "volume"}

func (c *CSVCache) writeCSV(symbol string, bars []pricebar.PriceBar) error {
	path, err := c.symbolPath(symbol)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cache: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range bars {
		row := []string{
			b.Date.Format("2006-01-02"),
			b.Open.String(),
			b.High.String(),
			b.Low.String(),
			b.Close.String(),
			b.AdjClose.String(),
			strconv.FormatInt(b.Volume, 10),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("cache: writing row for %s: %w", symbol, err)
		}
	}
	return nil
}

func (c *CSVCache) readCSV(symbol string) ([]pricebar.PriceBar, error) {
	path, err := c.symbolPath(symbol)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cache: reading %s: %w", path, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("cache: %s has no header row", path)
	}

	out := make([]pricebar.PriceBar, 0, len(rows)-1)
	for _, row := range rows[1:] {
		pb, err := parseRow(symbol, row)
		if err != nil {
			return nil, err
		}
		out = append(out, pb)
	}
	return out, nil
}

func parseRow(symbol string, row []string) (pricebar.PriceBar, error) {
	if len(row) != 7 {
		return pricebar.PriceBar{}, fmt.Errorf("cache: malformed row for %s: want 7 fields, got %d", symbol, len(row))
	}
	date, err := time.Parse("2006-01-02", row[0])
	if err != nil {
		return pricebar.PriceBar{}, fmt.Errorf("cache: parsing date for %s: %w", symbol, err)
	}
	open, err1 := parseDecimal(row[1])
	high, err2 := parseDecimal(row[2])
	low, err3 := parseDecimal(row[3])
	closePx, err4 := parseDecimal(row[4])
	adjClose, err5 := parseDecimal(row[5])
	for _, e := range []error{err1, err2, err3, err4, err5} {
		if e != nil {
			return pricebar.PriceBar{}, fmt.Errorf("cache: parsing price field for %s: %w", symbol, e)
		}
	}
	volume, err := strconv.ParseInt(row[6], 10, 64)
	if err != nil {
		return pricebar.PriceBar{}, fmt.Errorf("cache: parsing volume for %s: %w", symbol, err)
	}
	return pricebar.NewPriceBar(symbol, date, open, high, low, closePx, adjClose, volume)
}
