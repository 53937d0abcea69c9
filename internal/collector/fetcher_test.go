package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/trendscreen/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyCollector fails the first failures[symbol] calls for each symbol.
type flakyCollector struct {
	mu       sync.Mutex
	failures map[string]int
	calls    map[string]int
}

func newFlakyCollector(failures map[string]int) *flakyCollector {
	return &flakyCollector{failures: failures, calls: make(map[string]int)}
}

func (f *flakyCollector) Name() string { return "flaky" }

func (f *flakyCollector) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[symbol]++
	if f.calls[symbol] <= f.failures[symbol] {
		return Series{}, errors.New("upstream unavailable")
	}
	return Series{Symbol: symbol, Bars: []Bar{{Time: day(2024, 1, 2), Close: 10, Volume: 100}}}, nil
}

type recordingObserver struct {
	statuses []string
}

func (r *recordingObserver) RecordFetch(provider, status string, duration float64) {
	r.statuses = append(r.statuses, status)
}

func newTestFetcher(c Collector, cfg RetryConfig) (*Fetcher, *[]time.Duration) {
	f := NewFetcher(c, cfg, nil)
	var waits []time.Duration
	f.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return f, &waits
}

func TestFetcher_RecoversWithinAttempts(t *testing.T) {
	c := newFlakyCollector(map[string]int{"SPY": 2})
	f, waits := newTestFetcher(c, RetryConfig{Attempts: 3, Delay: 2 * time.Second})
	obs := &recordingObserver{}
	f.SetObserver(obs)

	s, err := f.Fetch(context.Background(), "SPY", day(2020, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, "SPY", s.Symbol)
	assert.Equal(t, 3, c.calls["SPY"])
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, *waits)
	assert.Equal(t, []string{"error", "error", "ok"}, obs.statuses)
}

func TestFetcher_GivesUpAfterAttempts(t *testing.T) {
	c := newFlakyCollector(map[string]int{"SPY": 10})
	f, waits := newTestFetcher(c, RetryConfig{Attempts: 3, Delay: time.Second})

	_, err := f.Fetch(context.Background(), "SPY", day(2020, 1, 1), day(2024, 1, 31))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrCollectorFailed))
	assert.Equal(t, 3, c.calls["SPY"])
	// no wait after the final attempt
	assert.Len(t, *waits, 2)
}

func TestFetcher_BreakerFailsFast(t *testing.T) {
	c := newFlakyCollector(map[string]int{"A": 10, "B": 10})
	f, _ := newTestFetcher(c, RetryConfig{Attempts: 3, BreakerFailures: 2})

	_, err := f.Fetch(context.Background(), "A", day(2020, 1, 1), day(2024, 1, 31))
	require.Error(t, err)
	assert.Equal(t, 2, c.calls["A"], "breaker should open after two consecutive failures")

	_, err = f.Fetch(context.Background(), "B", day(2020, 1, 1), day(2024, 1, 31))
	require.Error(t, err)
	assert.Equal(t, 0, c.calls["B"], "open breaker should not reach the provider")
}

func TestFetcher_FetchAllSkipsFailedSymbols(t *testing.T) {
	c := newFlakyCollector(map[string]int{"BAD": 10})
	f, _ := newTestFetcher(c, RetryConfig{Attempts: 2})

	snap, failed, err := f.FetchAll(context.Background(), []string{"A", "BAD", "C"}, day(2020, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, []string{"BAD"}, failed)
	assert.Equal(t, []string{"A", "C"}, snap.Symbols(FieldClose))
}

func TestFetcher_FetchAllNothingFetched(t *testing.T) {
	c := newFlakyCollector(map[string]int{"A": 10, "B": 10})
	f, _ := newTestFetcher(c, RetryConfig{Attempts: 1})

	_, failed, err := f.FetchAll(context.Background(), []string{"A", "B"}, day(2020, 1, 1), day(2024, 1, 31))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNoData))
	assert.Equal(t, []string{"A", "B"}, failed)
}

func TestFetcher_CancelledContext(t *testing.T) {
	c := newFlakyCollector(nil)
	f, _ := newTestFetcher(c, RetryConfig{Attempts: 3})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, "SPY", day(2020, 1, 1), day(2024, 1, 31))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrCollectorTimeout))
}
