package csvfile

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/trendscreen/internal/collector"
	"github.com/newthinker/trendscreen/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir_ImplementsCollector(t *testing.T) {
	var _ collector.Collector = (*Dir)(nil)
}

func TestDir_FetchHistory(t *testing.T) {
	dir := t.TempDir()
	data := "Date,Close,Adj Close,Volume\n" +
		"2024-01-03,101,100,5000\n" +
		"2024-01-02,99,98,4000\n" +
		"2024-01-04,,,\n" +
		"2023-12-29,95,94,1000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SPY.csv"), []byte(data), 0644))

	d := New(dir)
	series, err := d.FetchHistory(context.Background(), "SPY",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, series.Bars, 3)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), series.Bars[0].Time)
	assert.Equal(t, 98.0, series.Bars[0].Close, "adjusted close preferred")
	assert.Equal(t, 5000.0, series.Bars[1].Volume)
	assert.True(t, math.IsNaN(series.Bars[2].Close))
	assert.True(t, math.IsNaN(series.Bars[2].Volume))
}

func TestDir_MissingFile(t *testing.T) {
	d := New(t.TempDir())
	_, err := d.FetchHistory(context.Background(), "NOPE", time.Time{}, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNoData))
}

func TestDir_RejectsPathTraversal(t *testing.T) {
	d := New(t.TempDir())
	_, err := d.FetchHistory(context.Background(), "../secret", time.Time{}, time.Now())
	assert.Error(t, err)
}

func TestDir_MissingColumns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "X.csv"), []byte("Date,Close\n2024-01-02,1\n"), 0644))

	_, err := New(dir).FetchHistory(context.Background(), "X", time.Time{}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Volume")
}
