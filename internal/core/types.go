package core

import (
	"strings"
	"time"
)

// Market classifies a symbol by the market it trades on. The market picks
// the liquidity threshold and the native currency of reference prices.
type Market string

const (
	MarketUS Market = "US"
	MarketJP Market = "JP"
)

// JPSuffix is the ticker suffix of Tokyo Stock Exchange listings.
const JPSuffix = ".T"

// ParseMarket resolves an explicit market label. Empty input falls back to
// classifying the ticker by suffix.
func ParseMarket(label, ticker string) (Market, bool) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "":
		return ClassifyTicker(ticker), true
	case "JP", "JPY", "TSE":
		return MarketJP, true
	case "US", "USD":
		return MarketUS, true
	default:
		return "", false
	}
}

// ClassifyTicker derives the market from the ticker suffix convention.
func ClassifyTicker(ticker string) Market {
	if strings.HasSuffix(ticker, JPSuffix) {
		return MarketJP
	}
	return MarketUS
}

// Currency returns the native currency code of the market.
func (m Market) Currency() string {
	if m == MarketJP {
		return "JPY"
	}
	return "USD"
}

// Symbol is a ticker with its resolved market. Immutable for a run.
type Symbol struct {
	Ticker string
	Market Market
}

// NewSymbol builds a symbol classified by suffix.
func NewSymbol(ticker string) Symbol {
	return Symbol{Ticker: ticker, Market: ClassifyTicker(ticker)}
}

func (s Symbol) String() string {
	return s.Ticker
}

// Tickers extracts the ticker strings preserving order.
func Tickers(symbols []Symbol) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = s.Ticker
	}
	return out
}

// DateLayout is the ISO 8601 calendar date layout used for as-of dates.
const DateLayout = "2006-01-02"

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses YYYY-MM-DD in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// MonthStart truncates t to the first instant of its calendar month.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}
