package screen

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newthinker/trendscreen/internal/collector"
	"github.com/newthinker/trendscreen/internal/core"
	"github.com/newthinker/trendscreen/internal/universe"
)

// Engine runs the monthly screen over a fetched snapshot.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// New creates an engine. A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Config returns the engine parameters.
func (e *Engine) Config() Config {
	return e.cfg
}

// Run screens symbols on snap as of now. Rows keep universe order.
func (e *Engine) Run(symbols []core.Symbol, snap *collector.Snapshot, now time.Time) (*Result, error) {
	if err := universe.Check(symbols); err != nil {
		return nil, err
	}
	if err := checkFields(snap, symbols); err != nil {
		return nil, err
	}

	tickers := core.Tickers(symbols)
	liq := Liquidity(snap, symbols, e.cfg)

	table, err := Monthly(snap, tickers, now, e.cfg)
	if err != nil {
		return nil, err
	}
	asOf := table.Latest()

	scores := ScoreAll(table, tickers, e.cfg)

	// Every universe symbol takes part in de-duplication, liquid or not.
	liquid := 0
	tv := make(map[string]float64, len(symbols))
	for _, t := range tickers {
		if liq[t].OK {
			liquid++
		}
		tv[t] = liq[t].TradedValue
	}
	drop, pairs := Dedup(table, tickers, tv, e.cfg.CorrThreshold)

	rows := make([]Row, len(symbols))
	for i, sym := range symbols {
		s := scores[sym.Ticker]
		rows[i] = Row{
			Symbol:      sym,
			Close:       s.Close,
			MA:          s.MA,
			Momentum:    s.Momentum,
			TrendOK:     s.TrendOK,
			Score:       s.Score,
			TradedValue: liq[sym.Ticker].TradedValue,
			LiquidityOK: liq[sym.Ticker].OK,
			DupDrop:     drop[sym.Ticker],
		}
	}

	ranked, err := Rank(rows, e.cfg.TopN)
	if err != nil {
		return nil, err
	}

	res := &Result{
		AsOf:   asOf,
		Rows:   rows,
		Ranked: ranked,
		Pairs:  pairs,
	}
	for _, r := range ranked {
		if r.Pick {
			res.Picks = append(res.Picks, r)
		}
	}

	final := make([]string, len(ranked))
	for i, r := range ranked {
		final[i] = r.Ticker()
	}
	res.Meta = Meta{
		RunID:              uuid.NewString(),
		AsOf:               core.FormatDate(asOf),
		GeneratedAt:        now.UTC(),
		TopN:               e.cfg.TopN,
		MAMonths:           e.cfg.MAMonths,
		MomMonths:          e.cfg.MomMonths,
		CorrThreshold:      e.cfg.CorrThreshold,
		LiqThresholdJPY:    e.cfg.LiqThresholdJPY,
		LiqThresholdUSD:    e.cfg.LiqThresholdUSD,
		LiquidityWindow:    e.cfg.LiquidityWindow,
		PortfolioValue:     e.cfg.PortfolioValue,
		UniverseCount:      len(symbols),
		FinalUniverseCount: len(ranked),
		FinalUniverse:      final,
		Picks:              res.PickTickers(),
	}

	e.logger.Info("screen complete",
		zap.String("asof", res.Meta.AsOf),
		zap.Int("universe", len(symbols)),
		zap.Int("liquid", liquid),
		zap.Int("dup_dropped", len(drop)),
		zap.Int("final", len(ranked)),
		zap.Strings("picks", res.Meta.Picks),
	)
	return res, nil
}

// checkFields fails when a field table is absent or no requested symbol has
// a close column. Individual missing columns only degrade that symbol.
func checkFields(snap *collector.Snapshot, symbols []core.Symbol) error {
	if snap == nil {
		return core.WrapError(core.ErrMissingField, fmt.Errorf("no snapshot"))
	}
	for _, f := range []collector.Field{collector.FieldClose, collector.FieldVolume} {
		if !snap.HasField(f) {
			return core.WrapError(core.ErrMissingField, fmt.Errorf("field %s absent", f))
		}
	}
	for _, sym := range symbols {
		if _, ok := snap.Column(collector.FieldClose, sym.Ticker); ok {
			return nil
		}
	}
	return core.WrapError(core.ErrMissingField,
		fmt.Errorf("no %s column for any of %d requested symbols", collector.FieldClose, len(symbols)))
}
