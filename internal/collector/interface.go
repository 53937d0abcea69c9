package collector

import (
	"context"
	"time"
)

// Config holds collector configuration
type Config struct {
	Timeout time.Duration
	BaseURL string
}

// Bar is one daily observation. Missing values are NaN, never zero.
type Bar struct {
	Time   time.Time
	Close  float64
	Volume float64
}

// Series is the ordered daily history of one symbol.
type Series struct {
	Symbol string
	Bars   []Bar
}

// Collector defines the interface for daily price/volume providers
type Collector interface {
	// Name returns the provider identifier used in config and metrics.
	Name() string

	// FetchHistory returns daily bars in [start, end], dates strictly increasing.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) (Series, error)
}

// FetchObserver receives one call per fetch attempt.
type FetchObserver interface {
	RecordFetch(provider, status string, duration float64)
}
