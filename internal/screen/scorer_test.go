package screen

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreSymbol_Trending(t *testing.T) {
	cfg := Config{MAMonths: 3, MomMonths: 2}
	s := ScoreSymbol([]float64{10, 11, 12, 13, 15}, cfg)

	assert.Equal(t, 15.0, s.Close)
	assert.InDelta(t, (12.0+13+15)/3, s.MA, 1e-12)
	assert.InDelta(t, 15.0/12-1, s.Momentum, 1e-12)
	assert.True(t, s.TrendOK)
	assert.Equal(t, s.Momentum, s.Score)
}

func TestScoreSymbol_NotTrendingScoresNegInf(t *testing.T) {
	cfg := Config{MAMonths: 3, MomMonths: 2}
	s := ScoreSymbol([]float64{15, 14, 13, 12, 11}, cfg)

	assert.False(t, s.TrendOK)
	assert.True(t, math.IsInf(s.Score, -1))
	assert.InDelta(t, 11.0/13-1, s.Momentum, 1e-12)
}

func TestScoreSymbol_CloseEqualToMAIsNotTrending(t *testing.T) {
	cfg := Config{MAMonths: 3, MomMonths: 2}
	s := ScoreSymbol([]float64{5, 5, 5, 5}, cfg)
	assert.False(t, s.TrendOK)
}

func TestScoreSymbol_Undefined(t *testing.T) {
	cfg := Config{MAMonths: 3, MomMonths: 2}

	gap := ScoreSymbol([]float64{10, math.NaN(), 12, 13, 15}, Config{MAMonths: 4, MomMonths: 2})
	assert.True(t, math.IsNaN(gap.MA))
	assert.False(t, gap.TrendOK)
	assert.True(t, math.IsInf(gap.Score, -1))
	assert.False(t, math.IsNaN(gap.Momentum))

	base := ScoreSymbol([]float64{10, 11, 12, math.NaN(), 15, 16}, cfg)
	assert.True(t, math.IsNaN(base.Momentum))

	short := ScoreSymbol([]float64{10, 11}, cfg)
	assert.True(t, math.IsNaN(short.Momentum))
	assert.True(t, math.IsNaN(short.MA))

	empty := ScoreSymbol(nil, cfg)
	assert.True(t, math.IsNaN(empty.Close))
}

func TestScoreSymbol_TrendingWithUndefinedMomentum(t *testing.T) {
	cfg := Config{MAMonths: 2, MomMonths: 3}
	s := ScoreSymbol([]float64{math.NaN(), 1, 2, 3}, cfg)

	assert.True(t, s.TrendOK)
	assert.True(t, math.IsNaN(s.Score))
}
