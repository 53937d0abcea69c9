package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/newthinker/trendscreen/internal/core"
)

const pickHistorySchema = `
CREATE TABLE IF NOT EXISTS pick_history (
	asof       DATE PRIMARY KEY,
	symbols    TEXT[] NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// DefaultQueryTimeout bounds every statement.
const DefaultQueryTimeout = 10 * time.Second

type pickRow struct {
	AsOf    time.Time      `db:"asof"`
	Symbols pq.StringArray `db:"symbols"`
}

func (r pickRow) snapshot() PickSnapshot {
	return PickSnapshot{AsOf: dateOnly(r.AsOf), Symbols: []string(r.Symbols)}
}

// Postgres keeps pick sets in the pick_history table.
type Postgres struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgres connects, pings and creates the table if needed.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("postgres dsn is empty"))
	}
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("opening database: %w", err))
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	p := NewPostgresFromDB(db)
	pingCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("pinging database: %w", err))
	}
	if err := p.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgresFromDB wraps an existing connection pool.
func NewPostgresFromDB(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, timeout: DefaultQueryTimeout}
}

// Migrate creates the pick_history table.
func (p *Postgres) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if _, err := p.db.ExecContext(ctx, pickHistorySchema); err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("creating pick_history: %w", err))
	}
	return nil
}

func (p *Postgres) LatestBefore(ctx context.Context, asOf time.Time) (*PickSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var row pickRow
	err := p.db.GetContext(ctx, &row, `
		SELECT asof, symbols
		FROM pick_history
		WHERE asof < $1
		ORDER BY asof DESC
		LIMIT 1`, core.FormatDate(asOf))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("querying previous picks: %w", err))
	}
	snap := row.snapshot()
	return &snap, nil
}

func (p *Postgres) Append(ctx context.Context, snap PickSnapshot) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	symbols := snap.Symbols
	if symbols == nil {
		symbols = []string{}
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO pick_history (asof, symbols)
		VALUES ($1, $2)
		ON CONFLICT (asof) DO UPDATE SET
			symbols = EXCLUDED.symbols,
			created_at = now()`,
		core.FormatDate(snap.AsOf), pq.Array(symbols))
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("saving picks for %s: %w", core.FormatDate(snap.AsOf), err))
	}
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]PickSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var rows []pickRow
	if err := p.db.SelectContext(ctx, &rows, `SELECT asof, symbols FROM pick_history ORDER BY asof`); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("listing picks: %w", err))
	}
	out := make([]PickSnapshot, len(rows))
	for i, r := range rows {
		out[i] = r.snapshot()
	}
	return out, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
