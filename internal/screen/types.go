package screen

import (
	"math"
	"time"

	"github.com/newthinker/trendscreen/internal/core"
)

// Row is one symbol's screening outcome at the as-of month. Undefined
// metrics are NaN. Rank is 0 for symbols outside the final universe.
type Row struct {
	Symbol      core.Symbol
	Close       float64
	MA          float64
	Momentum    float64
	TrendOK     bool
	Score       float64
	TradedValue float64
	LiquidityOK bool
	DupDrop     bool
	InFinal     bool
	Rank        int
	Pick        bool
}

// Ticker returns the row's ticker string.
func (r Row) Ticker() string {
	return r.Symbol.Ticker
}

// HasPrice reports whether the as-of close is usable as a reference price.
func (r Row) HasPrice() bool {
	return !math.IsNaN(r.Close) && r.Close > 0
}

// CorrelatedPair records a pair at or above the correlation threshold and
// which member it removed.
type CorrelatedPair struct {
	A, B        string
	Correlation float64
	Dropped     string
}

// Meta describes a run for audit and reporting.
type Meta struct {
	RunID              string    `json:"run_id"`
	AsOf               string    `json:"asof_month_end"`
	GeneratedAt        time.Time `json:"generated_at_utc"`
	TopN               int       `json:"top_n"`
	MAMonths           int       `json:"ma_months"`
	MomMonths          int       `json:"mom_months"`
	CorrThreshold      float64   `json:"corr_threshold"`
	LiqThresholdJPY    float64   `json:"liq_threshold_jpy"`
	LiqThresholdUSD    float64   `json:"liq_threshold_usd"`
	LiquidityWindow    int       `json:"liquidity_window"`
	PortfolioValue     float64   `json:"portfolio_value"`
	UniverseCount      int       `json:"universe_count"`
	FinalUniverseCount int       `json:"final_universe_count"`
	FinalUniverse      []string  `json:"final_universe"`
	Picks              []string  `json:"picks"`
}

// Result is everything a run produces. Rows follow universe order; Ranked
// and Picks follow rank order.
type Result struct {
	AsOf   time.Time
	Rows   []Row
	Ranked []Row
	Picks  []Row
	Pairs  []CorrelatedPair
	Meta   Meta
}

// PickTickers returns the picked tickers in rank order.
func (r *Result) PickTickers() []string {
	out := make([]string, len(r.Picks))
	for i, p := range r.Picks {
		out[i] = p.Ticker()
	}
	return out
}

// Prices maps every symbol with a defined as-of close to that close.
func (r *Result) Prices() map[string]float64 {
	out := make(map[string]float64, len(r.Rows))
	for _, row := range r.Rows {
		if !math.IsNaN(row.Close) {
			out[row.Ticker()] = row.Close
		}
	}
	return out
}
