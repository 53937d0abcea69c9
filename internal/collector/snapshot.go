package collector

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Field names a snapshot table.
type Field string

const (
	FieldClose  Field = "Close"
	FieldVolume Field = "Volume"
)

// Snapshot is a date x symbol table per field. All columns share Dates and
// hold NaN where a symbol has no observation on a date.
type Snapshot struct {
	Dates  []time.Time
	fields map[Field]map[string][]float64
}

// NewSnapshot creates an empty snapshot over the given dates.
func NewSnapshot(dates []time.Time) *Snapshot {
	return &Snapshot{
		Dates:  dates,
		fields: make(map[Field]map[string][]float64),
	}
}

// Set stores a column. values must align with Dates.
func (s *Snapshot) Set(field Field, symbol string, values []float64) error {
	if len(values) != len(s.Dates) {
		return fmt.Errorf("column %s/%s has %d values, snapshot has %d dates", field, symbol, len(values), len(s.Dates))
	}
	cols, ok := s.fields[field]
	if !ok {
		cols = make(map[string][]float64)
		s.fields[field] = cols
	}
	cols[symbol] = values
	return nil
}

// HasField reports whether any column exists for field.
func (s *Snapshot) HasField(field Field) bool {
	return len(s.fields[field]) > 0
}

// Column returns the values of field for symbol.
func (s *Snapshot) Column(field Field, symbol string) ([]float64, bool) {
	v, ok := s.fields[field][symbol]
	return v, ok
}

// Symbols returns the symbols that have a column for field, sorted.
func (s *Snapshot) Symbols(field Field) []string {
	out := make([]string, 0, len(s.fields[field]))
	for sym := range s.fields[field] {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of dates.
func (s *Snapshot) Len() int {
	return len(s.Dates)
}

// BuildSnapshot aligns per-symbol series on the union of their dates.
func BuildSnapshot(series []Series) *Snapshot {
	seen := make(map[time.Time]struct{})
	for _, s := range series {
		for _, b := range s.Bars {
			seen[dateKey(b.Time)] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}

	snap := NewSnapshot(dates)
	for _, s := range series {
		closes := nanSlice(len(dates))
		volumes := nanSlice(len(dates))
		for _, b := range s.Bars {
			i := index[dateKey(b.Time)]
			closes[i] = b.Close
			volumes[i] = b.Volume
		}
		// lengths always match Dates here
		_ = snap.Set(FieldClose, s.Symbol, closes)
		_ = snap.Set(FieldVolume, s.Symbol, volumes)
	}
	return snap
}

// dateKey drops the clock so bars from different exchanges align by day.
func dateKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
