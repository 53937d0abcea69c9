package screen

import (
	"math"

	"github.com/newthinker/trendscreen/internal/indicator"
)

// Dedup flags near-duplicate symbols. Every pair i<j in universe order whose
// monthly return correlation is at least threshold drops its member with the
// lower traded value; on a tie, or when neither value is defined, the later
// symbol goes. Already-dropped symbols still take part in later pairs.
func Dedup(table *MonthlyTable, tickers []string, tradedValue map[string]float64, threshold float64) (map[string]bool, []CorrelatedPair) {
	returns := make([][]float64, len(tickers))
	for i, t := range tickers {
		returns[i] = indicator.PctChange(table.Close[t])
	}

	drop := make(map[string]bool, len(tickers))
	var pairs []CorrelatedPair
	for i := 0; i < len(tickers); i++ {
		for j := i + 1; j < len(tickers); j++ {
			c := indicator.Pearson(returns[i], returns[j])
			if math.IsNaN(c) || c < threshold {
				continue
			}

			a, b := tickers[i], tickers[j]
			loser := b
			if orNegInf(tradedValue[a]) < orNegInf(tradedValue[b]) {
				loser = a
			}
			drop[loser] = true
			pairs = append(pairs, CorrelatedPair{A: a, B: b, Correlation: c, Dropped: loser})
		}
	}
	return drop, pairs
}

func orNegInf(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}
