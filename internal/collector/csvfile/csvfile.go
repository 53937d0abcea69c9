// Package csvfile reads daily history exported as one CSV file per symbol.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/trendscreen/internal/collector"
	"github.com/newthinker/trendscreen/internal/core"
)

// Dir serves <dir>/<SYMBOL>.csv files with a header containing Date, Close
// (or Adj Close) and Volume columns. Empty cells are missing values.
type Dir struct {
	path string
}

// New creates a collector rooted at path.
func New(path string) *Dir {
	return &Dir{path: path}
}

func (d *Dir) Name() string {
	return "csv"
}

func (d *Dir) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (collector.Series, error) {
	if strings.ContainsAny(symbol, `/\`) || strings.Contains(symbol, "..") {
		return collector.Series{}, fmt.Errorf("invalid symbol: %s", symbol)
	}

	f, err := os.Open(filepath.Join(d.path, symbol+".csv"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return collector.Series{}, core.WrapError(core.ErrNoData, fmt.Errorf("no file for %s", symbol))
		}
		return collector.Series{}, fmt.Errorf("opening %s: %w", symbol, err)
	}
	defer f.Close()

	bars, err := parse(f)
	if err != nil {
		return collector.Series{}, fmt.Errorf("parsing %s: %w", symbol, err)
	}

	out := bars[:0]
	for _, b := range bars {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		out = append(out, b)
	}
	return collector.Series{Symbol: symbol, Bars: out}, nil
}

func parse(r io.Reader) ([]collector.Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	dateCol, ok := cols["date"]
	if !ok {
		return nil, fmt.Errorf("missing Date column")
	}
	closeCol, ok := cols["adj close"]
	if !ok {
		if closeCol, ok = cols["close"]; !ok {
			return nil, fmt.Errorf("missing Close column")
		}
	}
	volCol, ok := cols["volume"]
	if !ok {
		return nil, fmt.Errorf("missing Volume column")
	}

	var bars []collector.Bar
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		date, err := core.ParseDate(strings.TrimSpace(rec[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("bad date %q: %w", rec[dateCol], err)
		}
		bars = append(bars, collector.Bar{
			Time:   date,
			Close:  number(rec[closeCol]),
			Volume: number(rec[volCol]),
		})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func number(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
