// Package report renders screening results as tables, status JSON, an HTML
// dashboard and an XLSX workbook.
package report

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/newthinker/trendscreen/internal/orders"
	"github.com/newthinker/trendscreen/internal/screen"
)

// Table is a named header plus string rows, the common shape of every
// tabular artifact.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Table names double as artifact base names.
const (
	TableRanking   = "ranking"
	TablePicks     = "picks"
	TableOrders    = "orders"
	TableScreenAll = "screen_all"
	TableMeta      = "meta"
	TablePairs     = "pairs"
)

// TickerColumn heads the symbol column of every table.
const TickerColumn = "Ticker"

// Float renders a number; undefined values are blank and infinities are
// written as -inf/inf.
func Float(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func boolean(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func rankHeader(cfg screen.Config) []string {
	return []string{
		TickerColumn,
		"market",
		"close",
		fmt.Sprintf("ma%d", cfg.MAMonths),
		fmt.Sprintf("mom%d", cfg.MomMonths),
		"trend_ok",
		"score",
		fmt.Sprintf("avg_traded_value_%dd_native", cfg.LiquidityWindow),
		"liq_ok",
		"dup_drop",
		"in_final",
	}
}

func rankCells(r screen.Row) []string {
	return []string{
		r.Ticker(),
		string(r.Symbol.Market),
		Float(r.Close),
		Float(r.MA),
		Float(r.Momentum),
		boolean(r.TrendOK),
		Float(r.Score),
		Float(r.TradedValue),
		boolean(r.LiquidityOK),
		boolean(r.DupDrop),
		boolean(r.InFinal),
	}
}

func rankedTable(name string, rows []screen.Row, cfg screen.Config) *Table {
	t := &Table{Name: name, Header: append(rankHeader(cfg), "rank", "pick")}
	for _, r := range rows {
		t.Rows = append(t.Rows, append(rankCells(r), strconv.Itoa(r.Rank), boolean(r.Pick)))
	}
	return t
}

// Ranking lists the final universe in rank order.
func Ranking(res *screen.Result, cfg screen.Config) *Table {
	return rankedTable(TableRanking, res.Ranked, cfg)
}

// Picks lists the top-N rows in rank order.
func Picks(res *screen.Result, cfg screen.Config) *Table {
	return rankedTable(TablePicks, res.Picks, cfg)
}

// ScreenAll lists every universe symbol with the reasons it failed.
// rank and pick are blank outside the final universe.
func ScreenAll(res *screen.Result, cfg screen.Config) *Table {
	t := &Table{
		Name:   TableScreenAll,
		Header: append(rankHeader(cfg), "rank", "pick", "fail_liq", "fail_dup", "fail_trend"),
	}
	for _, r := range res.Rows {
		rank, pick := "", ""
		if r.InFinal {
			rank, pick = strconv.Itoa(r.Rank), boolean(r.Pick)
		}
		cells := append(rankCells(r), rank, pick,
			boolean(!r.LiquidityOK), boolean(r.DupDrop), boolean(!r.TrendOK))
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// Orders renders the order sheet. Unknown quantities and prices are blank.
func Orders(list []orders.Order) *Table {
	t := &Table{
		Name:   TableOrders,
		Header: []string{TickerColumn, "action", "side", "qty", "ref_price", "target_notional", "note"},
	}
	for _, o := range list {
		t.Rows = append(t.Rows, []string{
			o.Symbol,
			string(o.Action),
			string(o.Side),
			o.Quantity.String(),
			optional(o.RefPrice),
			optional(o.TargetNotional),
			o.Note,
		})
	}
	return t
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return Float(*v)
}

// Meta renders run metadata as a single row.
func Meta(m screen.Meta) *Table {
	return &Table{
		Name: TableMeta,
		Header: []string{
			"run_id", "asof_month_end", "generated_at_utc", "top_n", "ma_months", "mom_months",
			"corr_threshold", "liq_threshold_jpy", "liq_threshold_usd", "liquidity_window",
			"portfolio_value", "universe_count", "final_universe_count",
		},
		Rows: [][]string{{
			m.RunID,
			m.AsOf,
			Timestamp(m.GeneratedAt),
			strconv.Itoa(m.TopN),
			strconv.Itoa(m.MAMonths),
			strconv.Itoa(m.MomMonths),
			Float(m.CorrThreshold),
			Float(m.LiqThresholdJPY),
			Float(m.LiqThresholdUSD),
			strconv.Itoa(m.LiquidityWindow),
			Float(m.PortfolioValue),
			strconv.Itoa(m.UniverseCount),
			strconv.Itoa(m.FinalUniverseCount),
		}},
	}
}

// Pairs lists correlated pairs and which member was removed.
func Pairs(pairs []screen.CorrelatedPair) *Table {
	t := &Table{Name: TablePairs, Header: []string{"a", "b", "correlation", "dropped"}}
	for _, p := range pairs {
		t.Rows = append(t.Rows, []string{p.A, p.B, Float(p.Correlation), p.Dropped})
	}
	return t
}

// Column returns the values of the named column.
func (t *Table) Column(name string) []string {
	idx := -1
	for i, h := range t.Header {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		if idx < len(r) {
			out = append(out, r[idx])
		}
	}
	return out
}

const timestampLayout = "2006-01-02 15:04:05"

// Timestamp formats t as a UTC wall-clock string.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
