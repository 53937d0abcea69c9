package history

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/trendscreen/internal/core"
)

// Set TRENDSCREEN_TEST_DSN to a disposable database to run these.
func testPostgres(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("TRENDSCREEN_TEST_DSN")
	if dsn == "" {
		t.Skip("TRENDSCREEN_TEST_DSN not set")
	}
	p, err := NewPostgres(context.Background(), dsn)
	require.NoError(t, err)
	_, err = p.db.Exec(`TRUNCATE pick_history`)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPostgres_LatestBeforeIsStrict(t *testing.T) {
	p := testPostgres(t)
	ctx := context.Background()

	require.NoError(t, p.Append(ctx, PickSnapshot{AsOf: date(2024, time.April, 30), Symbols: []string{"A", "B"}}))
	require.NoError(t, p.Append(ctx, PickSnapshot{AsOf: date(2024, time.May, 31), Symbols: []string{"B", "C"}}))

	prev, err := p.LatestBefore(ctx, date(2024, time.May, 31))
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, []string{"A", "B"}, prev.Symbols)

	prev, err = p.LatestBefore(ctx, date(2024, time.April, 30))
	require.NoError(t, err)
	assert.Nil(t, prev)
}

func TestPostgres_AppendReplacesSameDate(t *testing.T) {
	p := testPostgres(t)
	ctx := context.Background()

	require.NoError(t, p.Append(ctx, PickSnapshot{AsOf: date(2024, time.May, 31), Symbols: []string{"A"}}))
	require.NoError(t, p.Append(ctx, PickSnapshot{AsOf: date(2024, time.May, 31), Symbols: []string{"B"}}))

	all, err := p.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{"B"}, all[0].Symbols)
	assert.Equal(t, date(2024, time.May, 31), all[0].AsOf)
}

func TestNewPostgres_RequiresDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrConfigMissing)
}
