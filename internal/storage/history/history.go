// Package history persists monthly pick sets and the run artifacts built
// from them.
package history

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/newthinker/trendscreen/internal/config"
	"github.com/newthinker/trendscreen/internal/core"
	"github.com/newthinker/trendscreen/internal/storage/archive"
)

// PickSnapshot is the pick set of one as-of month end.
type PickSnapshot struct {
	AsOf    time.Time
	Symbols []string
}

// Store is an append-only, date-ordered log of pick sets.
type Store interface {
	// LatestBefore returns the newest snapshot strictly before asOf, or nil.
	LatestBefore(ctx context.Context, asOf time.Time) (*PickSnapshot, error)

	// Append records a snapshot. A second snapshot for the same date replaces
	// the first.
	Append(ctx context.Context, snap PickSnapshot) error

	// List returns every snapshot, oldest first.
	List(ctx context.Context) ([]PickSnapshot, error)

	io.Closer
}

// Open selects the backend named in cfg. The archive backend shares st with
// the artifact writer.
func Open(ctx context.Context, cfg config.HistoryConfig, st archive.Storage) (Store, error) {
	switch cfg.Backend {
	case "", "archive":
		return NewArchiveStore(st), nil
	case "postgres":
		return NewPostgres(ctx, cfg.DSN)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown history backend %q", cfg.Backend))
	}
}

// Latest returns the last n snapshots, oldest first.
func Latest(ctx context.Context, s Store, n int) ([]PickSnapshot, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}
