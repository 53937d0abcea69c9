package screen

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/newthinker/trendscreen/internal/collector"
	"github.com/newthinker/trendscreen/internal/core"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// weekdays returns every Monday to Friday in [from, to].
func weekdays(from, to time.Time) []time.Time {
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			out = append(out, d)
		}
	}
	return out
}

// compound builds n monthly levels starting at 100 from a return pattern.
func compound(n int, ret func(m int) float64) []float64 {
	out := make([]float64, n)
	x := 100.0
	for m := range out {
		if m > 0 {
			x *= 1 + ret(m)
		}
		out[m] = x
	}
	return out
}

func scale(v []float64, k float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * k
	}
	return out
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

type dailySpec struct {
	monthly []float64 // close level per month since the first date
	volume  float64
}

// dailySnapshot spreads monthly levels over every weekday of their month.
func dailySnapshot(t *testing.T, dates []time.Time, specs map[string]dailySpec) *collector.Snapshot {
	t.Helper()
	snap := collector.NewSnapshot(dates)
	first := core.MonthStart(dates[0])
	for ticker, sp := range specs {
		closes := make([]float64, len(dates))
		vols := make([]float64, len(dates))
		for i, d := range dates {
			m := (d.Year()-first.Year())*12 + int(d.Month()-first.Month())
			closes[i] = sp.monthly[m]
			vols[i] = sp.volume
		}
		require.NoError(t, snap.Set(collector.FieldClose, ticker, closes))
		require.NoError(t, snap.Set(collector.FieldVolume, ticker, vols))
	}
	return snap
}

func monthlyTable(cols map[string][]float64) *MonthlyTable {
	n := 0
	for _, c := range cols {
		n = len(c)
	}
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = date(2020, time.January, 1).AddDate(0, i+1, -1)
	}
	return &MonthlyTable{Dates: dates, Close: cols}
}

func symbols(tickers ...string) []core.Symbol {
	out := make([]core.Symbol, len(tickers))
	for i, t := range tickers {
		out[i] = core.NewSymbol(t)
	}
	return out
}
