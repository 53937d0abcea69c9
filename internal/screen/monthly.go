package screen

import (
	"fmt"
	"math"
	"time"

	"github.com/newthinker/trendscreen/internal/collector"
	"github.com/newthinker/trendscreen/internal/core"
)

// MonthlyTable holds one close per symbol per calendar month. Dates are
// each month's last trading date present in the daily snapshot.
type MonthlyTable struct {
	Dates []time.Time
	Close map[string][]float64
}

// Len returns the number of monthly rows.
func (m *MonthlyTable) Len() int {
	return len(m.Dates)
}

// Latest returns the last row's date.
func (m *MonthlyTable) Latest() time.Time {
	return m.Dates[len(m.Dates)-1]
}

// Resample reduces the daily closes to the last available close per calendar
// month. Months without any trading date keep a row of missing values keyed
// by the calendar month end.
func Resample(snap *collector.Snapshot, tickers []string) *MonthlyTable {
	table := &MonthlyTable{Close: make(map[string][]float64, len(tickers))}
	if snap.Len() == 0 {
		for _, t := range tickers {
			table.Close[t] = []float64{}
		}
		return table
	}

	// Row index of each month, contiguous from the first to the last month.
	first := core.MonthStart(snap.Dates[0])
	last := core.MonthStart(snap.Dates[snap.Len()-1])
	var months []time.Time
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
		table.Dates = append(table.Dates, m.AddDate(0, 1, -1))
	}
	rowOf := func(t time.Time) int {
		y, mo, _ := t.Date()
		fy, fm, _ := first.Date()
		return (y-fy)*12 + int(mo-fm)
	}

	for _, d := range snap.Dates {
		table.Dates[rowOf(d)] = d
	}

	for _, t := range tickers {
		col := make([]float64, len(months))
		for i := range col {
			col[i] = math.NaN()
		}
		if daily, ok := snap.Column(collector.FieldClose, t); ok {
			for i, v := range daily {
				if !math.IsNaN(v) {
					col[rowOf(snap.Dates[i])] = v
				}
			}
		}
		table.Close[t] = col
	}

	return table
}

// Finalize drops the trailing row when it falls in the calendar month of now,
// because that month can still change.
func (m *MonthlyTable) Finalize(now time.Time) {
	if m.Len() == 0 {
		return
	}
	if !core.SameMonth(m.Latest(), now.In(m.Latest().Location())) {
		return
	}
	m.Dates = m.Dates[:len(m.Dates)-1]
	for t, col := range m.Close {
		m.Close[t] = col[:len(col)-1]
	}
}

// Monthly resamples, finalizes and checks that enough history remains.
func Monthly(snap *collector.Snapshot, tickers []string, now time.Time, cfg Config) (*MonthlyTable, error) {
	table := Resample(snap, tickers)
	table.Finalize(now)

	need := cfg.MinMonths()
	if table.Len() < need {
		return nil, core.WrapError(core.ErrInsufficientHistory,
			fmt.Errorf("have %d finalized months, need %d", table.Len(), need))
	}
	return table, nil
}
