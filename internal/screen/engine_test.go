package screen

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/trendscreen/internal/collector"
	"github.com/newthinker/trendscreen/internal/core"
)

// engineSnapshot covers January 2023 to June 2024. A and B move together
// with B trading twice A's value; D is illiquid.
func engineSnapshot(t *testing.T) *collector.Snapshot {
	a := compound(18, func(m int) float64 {
		if m%2 == 0 {
			return 0.02
		}
		return -0.005
	})
	dates := weekdays(date(2023, time.January, 1), date(2024, time.June, 28))
	return dailySnapshot(t, dates, map[string]dailySpec{
		"A": {monthly: a, volume: 20_000},
		"B": {monthly: scale(a, 2), volume: 20_000},
		"C": {monthly: compound(18, func(m int) float64 {
			if m%3 == 0 {
				return 0.03
			}
			return 0
		}), volume: 20_000},
		"D": {monthly: compound(18, func(m int) float64 {
			if m%4 < 2 {
				return 0.01
			}
			return -0.01
		}), volume: 1},
	})
}

func newTestEngine(t *testing.T) *Engine {
	e, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	return e
}

func TestEngine_Run(t *testing.T) {
	e := newTestEngine(t)
	now := date(2024, time.July, 15)

	res, err := e.Run(symbols("A", "B", "C", "D"), engineSnapshot(t), now)
	require.NoError(t, err)

	assert.Equal(t, date(2024, time.June, 28), res.AsOf)
	assert.Equal(t, []string{"A", "B", "C", "D"}, tickersOf(res.Rows))

	byTicker := make(map[string]Row)
	for _, r := range res.Rows {
		byTicker[r.Ticker()] = r
	}
	assert.True(t, byTicker["A"].LiquidityOK)
	assert.True(t, byTicker["C"].LiquidityOK)
	assert.False(t, byTicker["D"].LiquidityOK)
	assert.True(t, byTicker["A"].DupDrop)
	assert.False(t, byTicker["B"].DupDrop)
	assert.Equal(t, 0, byTicker["A"].Rank)

	// C has the stronger 12-month momentum.
	assert.Equal(t, []string{"C", "B"}, tickersOf(res.Ranked))
	assert.Equal(t, []string{"C", "B"}, res.PickTickers())

	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "A", res.Pairs[0].Dropped)

	assert.NotEmpty(t, res.Meta.RunID)
	assert.Equal(t, "2024-06-28", res.Meta.AsOf)
	assert.Equal(t, 4, res.Meta.UniverseCount)
	assert.Equal(t, 2, res.Meta.FinalUniverseCount)
	assert.Equal(t, []string{"C", "B"}, res.Meta.FinalUniverse)
	assert.Equal(t, now, res.Meta.GeneratedAt)

	prices := res.Prices()
	assert.InDelta(t, byTicker["D"].Close, prices["D"], 1e-9)
	assert.Len(t, prices, 4)
}

func TestEngine_RunDropsOpenMonth(t *testing.T) {
	e := newTestEngine(t)
	snap := engineSnapshot(t)

	// Rerunning in the last data month scores on May 2024.
	res, err := e.Run(symbols("A", "B", "C", "D"), snap, date(2024, time.June, 30))
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.May, 31), res.AsOf)
}

func TestEngine_UniverseTooSmall(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Run(symbols("A", "B"), engineSnapshot(t), date(2024, time.July, 15))
	assert.ErrorIs(t, err, core.ErrUniverseTooSmall)
}

func TestEngine_MissingField(t *testing.T) {
	e := newTestEngine(t)
	dates := weekdays(date(2024, time.January, 1), date(2024, time.June, 28))
	snap := collector.NewSnapshot(dates)
	require.NoError(t, snap.Set(collector.FieldClose, "A", nans(len(dates))))

	_, err := e.Run(symbols("A", "B", "C"), snap, date(2024, time.July, 15))
	assert.ErrorIs(t, err, core.ErrMissingField)

	_, err = e.Run(symbols("X", "Y", "Z"), engineSnapshot(t), date(2024, time.July, 15))
	assert.ErrorIs(t, err, core.ErrMissingField)
}

func TestEngine_MissingSymbolDegrades(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Run(symbols("A", "B", "C", "GONE"), engineSnapshot(t), date(2024, time.July, 15))
	require.NoError(t, err)

	gone := res.Rows[3]
	assert.False(t, gone.LiquidityOK)
	assert.False(t, gone.TrendOK)
	assert.True(t, math.IsNaN(gone.Close))
	assert.False(t, gone.InFinal)
}

func TestEngine_EmptyFinalUniverse(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LiqThresholdUSD = math.MaxFloat64
	e, err := New(cfg, nil)
	require.NoError(t, err)

	_, err = e.Run(symbols("A", "B", "C", "D"), engineSnapshot(t), date(2024, time.July, 15))
	assert.ErrorIs(t, err, core.ErrEmptyUniverse)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TopN = 0
	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}
