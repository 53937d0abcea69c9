package collector

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildSnapshot_AlignsOnUnionOfDates(t *testing.T) {
	series := []Series{
		{Symbol: "SPY", Bars: []Bar{
			{Time: day(2024, 1, 2), Close: 470, Volume: 1000},
			{Time: day(2024, 1, 3), Close: 468, Volume: 1100},
		}},
		{Symbol: "1306.T", Bars: []Bar{
			{Time: day(2024, 1, 3), Close: 2400, Volume: 50000},
			{Time: day(2024, 1, 4), Close: 2420, Volume: 52000},
		}},
	}

	snap := BuildSnapshot(series)
	require.Equal(t, 3, snap.Len())
	assert.True(t, snap.Dates[0].Equal(day(2024, 1, 2)))
	assert.True(t, snap.Dates[2].Equal(day(2024, 1, 4)))

	spy, ok := snap.Column(FieldClose, "SPY")
	require.True(t, ok)
	assert.Equal(t, 470.0, spy[0])
	assert.True(t, math.IsNaN(spy[2]), "missing date must be NaN, not zero")

	jp, ok := snap.Column(FieldVolume, "1306.T")
	require.True(t, ok)
	assert.True(t, math.IsNaN(jp[0]))
	assert.Equal(t, 52000.0, jp[2])

	assert.Equal(t, []string{"1306.T", "SPY"}, snap.Symbols(FieldClose))
	assert.True(t, snap.HasField(FieldVolume))
}

func TestBuildSnapshot_IgnoresClock(t *testing.T) {
	series := []Series{
		{Symbol: "A", Bars: []Bar{{Time: time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC), Close: 1, Volume: 1}}},
		{Symbol: "B", Bars: []Bar{{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 2, Volume: 2}}},
	}
	snap := BuildSnapshot(series)
	assert.Equal(t, 1, snap.Len())
}

func TestSnapshot_SetLengthMismatch(t *testing.T) {
	snap := NewSnapshot([]time.Time{day(2024, 1, 2)})
	err := snap.Set(FieldClose, "A", []float64{1, 2})
	assert.Error(t, err)
	assert.False(t, snap.HasField(FieldClose))
}
