package screen

import (
	"math"

	"github.com/newthinker/trendscreen/internal/collector"
	"github.com/newthinker/trendscreen/internal/core"
	"github.com/newthinker/trendscreen/internal/indicator"
)

// LiquidityMetric is a symbol's average traded value and its verdict.
type LiquidityMetric struct {
	TradedValue float64
	Threshold   float64
	OK          bool
}

// Liquidity computes the trailing LiquidityWindow-day mean of close x volume
// at the snapshot's last date. The mean is undefined, and the symbol fails,
// when the window is short or holds a missing value.
func Liquidity(snap *collector.Snapshot, symbols []core.Symbol, cfg Config) map[string]LiquidityMetric {
	out := make(map[string]LiquidityMetric, len(symbols))
	for _, sym := range symbols {
		tv := tradedValue(snap, sym.Ticker, cfg.LiquidityWindow)
		thr := cfg.LiquidityThreshold(sym.Market)
		out[sym.Ticker] = LiquidityMetric{
			TradedValue: tv,
			Threshold:   thr,
			OK:          !math.IsNaN(tv) && tv >= thr,
		}
	}
	return out
}

func tradedValue(snap *collector.Snapshot, ticker string, window int) float64 {
	closes, ok := snap.Column(collector.FieldClose, ticker)
	if !ok {
		return math.NaN()
	}
	volumes, ok := snap.Column(collector.FieldVolume, ticker)
	if !ok {
		return math.NaN()
	}
	if len(closes) < window {
		return math.NaN()
	}

	start := len(closes) - window
	products := make([]float64, window)
	for i := range products {
		products[i] = closes[start+i] * volumes[start+i]
	}
	return indicator.TrailingMean(products, window)
}
