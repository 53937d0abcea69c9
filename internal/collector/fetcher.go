package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/trendscreen/internal/core"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RetryConfig bounds how hard the fetcher pushes on a provider.
type RetryConfig struct {
	// Attempts is the total number of tries per symbol.
	Attempts int
	// Delay is the fixed wait between attempts.
	Delay time.Duration
	// RatePerSecond paces requests. Zero disables pacing.
	RatePerSecond float64
	// BreakerFailures opens the circuit after this many consecutive failures.
	// Zero disables the breaker.
	BreakerFailures uint32
}

// DefaultRetryConfig mirrors the acquisition defaults: 3 tries, 2s apart.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:        3,
		Delay:           2 * time.Second,
		RatePerSecond:   2,
		BreakerFailures: 5,
	}
}

// Fetcher wraps a Collector with bounded retry, pacing and a circuit breaker.
type Fetcher struct {
	collector Collector
	cfg       RetryConfig
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	observer  FetchObserver
	logger    *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a retrying fetcher around c.
func NewFetcher(c Collector, cfg RetryConfig, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	f := &Fetcher{
		collector: c,
		cfg:       cfg,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger.With(zap.String("provider", c.Name())),
		sleep:     sleepCtx,
	}

	if cfg.BreakerFailures > 0 {
		threshold := cfg.BreakerFailures
		f.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    c.Name(),
			Timeout: time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				f.logger.Warn("provider circuit state changed",
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}

	return f
}

// SetObserver registers a per-attempt observer, typically metrics.
func (f *Fetcher) SetObserver(o FetchObserver) {
	f.observer = o
}

// Fetch retrieves one symbol, retrying up to Attempts times with a fixed delay.
// An empty series counts as a failed attempt.
func (f *Fetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) (Series, error) {
	var lastErr error

	for attempt := 1; attempt <= f.cfg.Attempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return Series{}, core.WrapError(core.ErrCollectorTimeout, err)
		}

		began := time.Now()
		series, err := f.call(ctx, symbol, start, end)
		f.observe(err, time.Since(began))

		if err == nil {
			if attempt > 1 {
				f.logger.Info("fetch recovered", zap.String("symbol", symbol), zap.Int("attempt", attempt))
			}
			return series, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return Series{}, core.WrapError(core.ErrCollectorTimeout, ctx.Err())
		}
		if errors.Is(err, gobreaker.ErrOpenState) {
			break
		}

		f.logger.Debug("fetch attempt failed",
			zap.String("symbol", symbol),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt < f.cfg.Attempts {
			if err := f.sleep(ctx, f.cfg.Delay); err != nil {
				return Series{}, core.WrapError(core.ErrCollectorTimeout, err)
			}
		}
	}

	return Series{}, core.WrapError(core.ErrCollectorFailed,
		fmt.Errorf("%s: giving up after %d attempts: %w", symbol, f.cfg.Attempts, lastErr))
}

// FetchAll fetches every symbol in order and aligns the results. Symbols that
// still fail after retries are left out of the snapshot and returned as
// failed; the run only aborts when nothing could be fetched.
func (f *Fetcher) FetchAll(ctx context.Context, symbols []string, start, end time.Time) (*Snapshot, []string, error) {
	series := make([]Series, 0, len(symbols))
	var failed []string
	var lastErr error

	for _, sym := range symbols {
		s, err := f.Fetch(ctx, sym, start, end)
		if err != nil {
			if errors.Is(err, core.ErrCollectorTimeout) {
				return nil, nil, err
			}
			f.logger.Warn("symbol fetch failed", zap.String("symbol", sym), zap.Error(err))
			failed = append(failed, sym)
			lastErr = err
			continue
		}
		series = append(series, s)
	}

	if len(series) == 0 {
		return nil, failed, core.WrapError(core.ErrNoData,
			fmt.Errorf("no symbol could be fetched: %w", lastErr))
	}

	return BuildSnapshot(series), failed, nil
}

func (f *Fetcher) call(ctx context.Context, symbol string, start, end time.Time) (Series, error) {
	fetch := func() (Series, error) {
		s, err := f.collector.FetchHistory(ctx, symbol, start, end)
		if err != nil {
			return Series{}, err
		}
		if len(s.Bars) == 0 {
			return Series{}, fmt.Errorf("%s returned no bars", f.collector.Name())
		}
		return s, nil
	}

	if f.breaker == nil {
		return fetch()
	}

	out, err := f.breaker.Execute(func() (interface{}, error) {
		return fetch()
	})
	if err != nil {
		return Series{}, err
	}
	return out.(Series), nil
}

func (f *Fetcher) observe(err error, d time.Duration) {
	if f.observer == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	f.observer.RecordFetch(f.collector.Name(), status, d.Seconds())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
