package universe

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/newthinker/trendscreen/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_DedupesAndClassifies(t *testing.T) {
	in := "ticker,name\n" +
		"1306.T,TOPIX ETF\n" +
		" SPY ,S&P 500\n" +
		",blank\n" +
		"SPY,duplicate\n" +
		"VWO,Emerging\n"

	symbols, err := Parse(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []core.Symbol{
		{Ticker: "1306.T", Market: core.MarketJP},
		{Ticker: "SPY", Market: core.MarketUS},
		{Ticker: "VWO", Market: core.MarketUS},
	}, symbols)
}

func TestParse_ExplicitMarketWins(t *testing.T) {
	in := "ticker,market\nFOO.T,US\nBAR,JP\nBAZ,\n"

	symbols, err := Parse(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, symbols, 3)
	assert.Equal(t, core.MarketUS, symbols[0].Market)
	assert.Equal(t, core.MarketJP, symbols[1].Market)
	assert.Equal(t, core.MarketUS, symbols[2].Market)
}

func TestParse_RejectsUnknownMarket(t *testing.T) {
	_, err := Parse(strings.NewReader("ticker,market\nFOO,HK\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParse_RejectsBadTicker(t *testing.T) {
	_, err := Parse(strings.NewReader("ticker\n../etc/passwd\n"))
	assert.Error(t, err)
}

func TestParse_MissingTickerColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("symbol\nSPY\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ticker")
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.True(t, errors.Is(err, core.ErrUniverseTooSmall))
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffticker\nA\nB\nC\n"), 0644))

	symbols, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, core.Tickers(symbols))
	assert.NoError(t, Check(symbols))
}

func TestCheck_TooSmall(t *testing.T) {
	err := Check([]core.Symbol{core.NewSymbol("A"), core.NewSymbol("B")})
	assert.True(t, errors.Is(err, core.ErrUniverseTooSmall))
}
