package app

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/trendscreen/internal/collector"
	"github.com/newthinker/trendscreen/internal/collector/csvfile"
	"github.com/newthinker/trendscreen/internal/collector/yahoo"
	"github.com/newthinker/trendscreen/internal/config"
	"github.com/newthinker/trendscreen/internal/core"
	"github.com/newthinker/trendscreen/internal/metrics"
	"github.com/newthinker/trendscreen/internal/notifier"
	"github.com/newthinker/trendscreen/internal/notifier/telegram"
	"github.com/newthinker/trendscreen/internal/notifier/webhook"
	"github.com/newthinker/trendscreen/internal/orders"
	"github.com/newthinker/trendscreen/internal/report"
	"github.com/newthinker/trendscreen/internal/screen"
	"github.com/newthinker/trendscreen/internal/storage/archive"
	"github.com/newthinker/trendscreen/internal/storage/history"
	"github.com/newthinker/trendscreen/internal/universe"
)

// Outcome is what one screening run produced.
type Outcome struct {
	Result   *screen.Result
	Orders   []orders.Order
	Previous *history.PickSnapshot
	Failed   []string
	DryRun   bool
}

// PreviousAsOf returns the date of the previous pick set, or "".
func (o *Outcome) PreviousAsOf() string {
	if o.Previous == nil {
		return ""
	}
	return core.FormatDate(o.Previous.AsOf)
}

// App wires acquisition, screening, persistence and notification into a
// single monthly run.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	engine     *screen.Engine
	collectors *collector.Registry
	notifiers  *notifier.Registry
	artifacts  *history.Artifacts
	history    history.Store
	metrics    *metrics.Registry
	version    string
}

// New builds an App from configuration. Storage and the history backend
// are opened here; call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine, err := screen.New(screen.FromSettings(cfg.Screen), logger)
	if err != nil {
		return nil, err
	}

	st, err := archive.Open(cfg.Storage)
	if err != nil {
		return nil, err
	}
	hist, err := history.Open(ctx, cfg.Storage.History, st)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:        cfg,
		logger:     logger,
		engine:     engine,
		collectors: collector.NewRegistry(),
		notifiers:  notifier.NewRegistry(),
		artifacts:  history.NewArtifacts(st),
		history:    hist,
		version:    "dev",
	}

	a.collectors.Register(yahoo.New(collector.Config{Timeout: cfg.Collector.Timeout}))
	if cfg.Collector.Path != "" {
		a.collectors.Register(csvfile.New(cfg.Collector.Path))
	}

	if err := a.registerNotifiers(); err != nil {
		hist.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) registerNotifiers() error {
	names := make([]string, 0, len(a.cfg.Notifiers))
	for name := range a.cfg.Notifiers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		n := a.cfg.Notifiers[name]
		if !n.Enabled {
			continue
		}
		var impl notifier.Notifier
		switch name {
		case "telegram":
			impl = telegram.New(n.BotToken, n.ChatID)
		case "webhook":
			impl = webhook.New(n.URL, n.Headers)
		default:
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown notifier %q", name))
		}
		if err := a.notifiers.Register(impl); err != nil {
			return err
		}
		a.logger.Info("notifier enabled", zap.String("notifier", name))
	}
	return nil
}

// RegisterCollector adds or replaces a provider.
func (a *App) RegisterCollector(c collector.Collector) {
	a.collectors.Register(c)
}

// RegisterNotifier adds a notifier.
func (a *App) RegisterNotifier(n notifier.Notifier) error {
	return a.notifiers.Register(n)
}

// SetMetrics enables run and fetch metrics.
func (a *App) SetMetrics(reg *metrics.Registry) {
	a.metrics = reg
}

// SetVersion sets the version shown on the dashboard.
func (a *App) SetVersion(v string) {
	a.version = v
}

// History returns every persisted pick set, oldest first.
func (a *App) History(ctx context.Context) ([]history.PickSnapshot, error) {
	return a.history.List(ctx)
}

// Close releases the history backend.
func (a *App) Close() error {
	return a.history.Close()
}

// Run performs one screening run as of now. A dry run computes and
// notifies but writes nothing.
func (a *App) Run(ctx context.Context, now time.Time, dryRun bool) (*Outcome, error) {
	began := time.Now()
	out, err := a.run(ctx, now, dryRun)

	if a.metrics != nil {
		status := "ok"
		switch {
		case err != nil:
			status = "error"
		case dryRun:
			status = "dry_run"
		}
		a.metrics.RecordRun(status, time.Since(began).Seconds(), time.Now())
	}

	if err != nil {
		a.logger.Error("screen run failed", zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (a *App) run(ctx context.Context, now time.Time, dryRun bool) (*Outcome, error) {
	symbols, err := universe.Load(a.cfg.Universe.Path)
	if err != nil {
		return nil, err
	}

	snap, failed, err := a.fetch(ctx, core.Tickers(symbols), now)
	if err != nil {
		return nil, err
	}

	res, err := a.engine.Run(symbols, snap, now)
	if err != nil {
		return nil, err
	}

	prev, err := a.history.LatestBefore(ctx, res.AsOf)
	if err != nil {
		return nil, fmt.Errorf("loading previous picks: %w", err)
	}
	var prevPicks []string
	if prev != nil {
		prevPicks = prev.Symbols
	}

	list := orders.Diff(prevPicks, res.PickTickers(), res.Prices(), orders.Sizing{
		PortfolioValue: a.cfg.Screen.PortfolioValue,
		TopN:           a.cfg.Screen.TopN,
	})

	out := &Outcome{
		Result:   res,
		Orders:   list,
		Previous: prev,
		Failed:   failed,
		DryRun:   dryRun,
	}

	if dryRun {
		a.logger.Info("dry run, skipping artifacts", zap.String("asof", res.Meta.AsOf))
	} else if err := a.persist(ctx, out, now); err != nil {
		return nil, err
	}

	a.notify(ctx, out)
	a.record(symbols, out)

	return out, nil
}

func (a *App) fetch(ctx context.Context, tickers []string, now time.Time) (*collector.Snapshot, []string, error) {
	c, err := a.collectors.MustGet(a.cfg.Collector.Provider)
	if err != nil {
		return nil, nil, core.WrapError(core.ErrConfigInvalid, err)
	}

	f := collector.NewFetcher(c, collector.RetryConfig{
		Attempts:        a.cfg.Collector.Retries,
		Delay:           a.cfg.Collector.RetryDelay,
		RatePerSecond:   a.cfg.Collector.RatePerSecond,
		BreakerFailures: uint32(a.cfg.Collector.BreakerFailures),
	}, a.logger)
	if a.metrics != nil {
		f.SetObserver(a.metrics)
	}

	start := now.AddDate(-a.cfg.Collector.PeriodYears, 0, 0)
	a.logger.Info("fetching history",
		zap.String("provider", c.Name()),
		zap.Int("symbols", len(tickers)),
		zap.String("start", core.FormatDate(start)),
	)
	return f.FetchAll(ctx, tickers, start, now)
}

// persist writes every artifact, then the pick set, then the dashboard
// which compares the two newest pick sets.
func (a *App) persist(ctx context.Context, out *Outcome, now time.Time) error {
	res := out.Result
	cfg := a.engine.Config()
	asOf := res.Meta.AsOf

	tables := []*report.Table{
		report.Orders(out.Orders),
		report.Picks(res, cfg),
		report.Ranking(res, cfg),
		report.ScreenAll(res, cfg),
		report.Meta(res.Meta),
		report.Pairs(res.Pairs),
	}
	for _, t := range tables {
		if err := a.artifacts.PutTable(ctx, asOf, t); err != nil {
			return fmt.Errorf("writing %s: %w", t.Name, err)
		}
	}

	if err := a.artifacts.PutStatus(ctx, report.NewStatus(res.Meta, out.PreviousAsOf(), out.Failed)); err != nil {
		return fmt.Errorf("writing status: %w", err)
	}
	if err := a.artifacts.PutAsOf(ctx, asOf); err != nil {
		return fmt.Errorf("writing asof: %w", err)
	}

	if a.cfg.Report.XLSX {
		var buf bytes.Buffer
		if err := report.WriteWorkbook(&buf, tables...); err != nil {
			return err
		}
		if err := a.artifacts.PutFile(ctx, fmt.Sprintf("screen_%s.xlsx", asOf), buf.Bytes()); err != nil {
			return fmt.Errorf("writing workbook: %w", err)
		}
	}

	if err := a.history.Append(ctx, history.PickSnapshot{AsOf: res.AsOf, Symbols: res.PickTickers()}); err != nil {
		return fmt.Errorf("recording picks: %w", err)
	}

	if a.cfg.Report.HTML {
		if err := a.writeDashboard(ctx, out, tables, now); err != nil {
			return err
		}
	}

	a.logger.Info("artifacts written",
		zap.String("asof", asOf),
		zap.Int("tables", len(tables)),
		zap.Bool("xlsx", a.cfg.Report.XLSX),
		zap.Bool("html", a.cfg.Report.HTML),
	)
	return nil
}

func (a *App) writeDashboard(ctx context.Context, out *Outcome, tables []*report.Table, now time.Time) error {
	res := out.Result
	d := &report.Dashboard{
		AsOf:        res.Meta.AsOf,
		GeneratedAt: report.Timestamp(res.Meta.GeneratedAt),
		RenderedAt:  report.Timestamp(now.UTC()),
		Version:     a.version,
		Orders:      tables[0],
		Picks:       tables[1],
		Ranking:     tables[2],
		ScreenAll:   tables[3],
		Meta:        tables[4],
	}

	snaps, err := history.Latest(ctx, a.history, 2)
	if err != nil {
		return fmt.Errorf("loading pick history: %w", err)
	}
	if n := len(snaps); n > 0 {
		cur := snaps[n-1]
		d.CurAsOf = core.FormatDate(cur.AsOf)
		d.CurPicks = cur.Symbols
		var prevPicks []string
		if n > 1 {
			prev := snaps[n-2]
			d.PrevAsOf = core.FormatDate(prev.AsOf)
			d.PrevPicks = prev.Symbols
			prevPicks = prev.Symbols
		}
		d.Changes = report.ComparePicks(cur.Symbols, prevPicks)
	}

	for _, g := range []struct{ title, name string }{
		{"Picks", report.TablePicks},
		{"Orders", report.TableOrders},
		{"Ranking", report.TableRanking},
	} {
		files, err := a.artifacts.HistoryFiles(ctx, g.name, a.cfg.Report.HistoryLinks)
		if err != nil {
			return fmt.Errorf("listing %s history: %w", g.name, err)
		}
		d.History = append(d.History, report.HistoryGroup{Title: g.title, Files: files})
	}

	var buf bytes.Buffer
	if err := report.RenderDashboard(&buf, d); err != nil {
		return err
	}
	if err := a.artifacts.PutFile(ctx, "dashboard.html", buf.Bytes()); err != nil {
		return fmt.Errorf("writing dashboard: %w", err)
	}
	return nil
}

func (a *App) notify(ctx context.Context, out *Outcome) {
	if a.notifiers.Len() == 0 {
		return
	}

	res := out.Result
	errs := a.notifiers.NotifyAll(ctx, notifier.Summary{
		RunID:        res.Meta.RunID,
		AsOf:         res.Meta.AsOf,
		PreviousAsOf: out.PreviousAsOf(),
		GeneratedAt:  res.Meta.GeneratedAt,
		Picks:        res.PickTickers(),
		Orders:       out.Orders,
		Failed:       out.Failed,
		DryRun:       out.DryRun,
	})

	for _, name := range a.notifiers.Names() {
		status := "ok"
		if err, failed := errs[name]; failed {
			status = "error"
			a.logger.Warn("notification failed", zap.String("notifier", name), zap.Error(err))
		}
		if a.metrics != nil {
			a.metrics.RecordNotification(name, status)
		}
	}
}

func (a *App) record(symbols []core.Symbol, out *Outcome) {
	if a.metrics == nil {
		return
	}
	res := out.Result

	liquid := 0
	for _, r := range res.Rows {
		if r.LiquidityOK {
			liquid++
		}
	}
	a.metrics.SetSymbols("universe", len(symbols))
	a.metrics.SetSymbols("fetched", len(symbols)-len(out.Failed))
	a.metrics.SetSymbols("liquid", liquid)
	a.metrics.SetSymbols("final", res.Meta.FinalUniverseCount)
	a.metrics.SetSymbols("picks", len(res.Picks))

	for _, o := range out.Orders {
		a.metrics.RecordOrder(string(o.Action))
	}
}
