package screen

import (
	"math"

	"github.com/newthinker/trendscreen/internal/indicator"
)

// Score holds the monthly trend metrics of one symbol at the as-of row.
type Score struct {
	Close    float64
	MA       float64
	Momentum float64
	TrendOK  bool
	Score    float64
}

// ScoreSymbol evaluates the last row of a monthly close column. A symbol
// is trending when its close is strictly above its MAMonths mean; only
// trending symbols carry their momentum as score, the rest score -Inf.
func ScoreSymbol(closes []float64, cfg Config) Score {
	s := Score{Close: math.NaN(), MA: math.NaN(), Momentum: math.NaN(), Score: math.Inf(-1)}
	n := len(closes)
	if n == 0 {
		return s
	}

	t := n - 1
	s.Close = closes[t]
	s.MA = indicator.TrailingMean(closes, cfg.MAMonths)
	if base := t - cfg.MomMonths; base >= 0 {
		s.Momentum = indicator.Ratio(closes[t], closes[base])
	}

	// Comparisons with NaN are false, so undefined inputs never trend.
	s.TrendOK = s.Close > s.MA
	if s.TrendOK {
		s.Score = s.Momentum
	}
	return s
}

// ScoreAll scores every ticker of the monthly table.
func ScoreAll(table *MonthlyTable, tickers []string, cfg Config) map[string]Score {
	out := make(map[string]Score, len(tickers))
	for _, t := range tickers {
		out[t] = ScoreSymbol(table.Close[t], cfg)
	}
	return out
}
