package notifier

import (
	"context"
	"time"

	"github.com/newthinker/trendscreen/internal/orders"
)

// Summary is what a finished run reports.
type Summary struct {
	RunID        string
	AsOf         string
	PreviousAsOf string
	GeneratedAt  time.Time
	Picks        []string
	Orders       []orders.Order
	Failed       []string
	DryRun       bool
}

// Notifier delivers run summaries
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Notify sends one run summary
	Notify(ctx context.Context, s Summary) error
}
