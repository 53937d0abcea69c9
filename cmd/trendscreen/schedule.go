package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/trendscreen/internal/metrics"
)

var (
	scheduleCron     string
	scheduleRunFirst bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the screen on a cron schedule",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron expression (overrides schedule.cron)")
	scheduleCmd.Flags().BoolVar(&scheduleRunFirst, "run-now", false, "run once immediately before waiting for the schedule")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, cfg, a, err := setup(ctx)
	defer log.Sync()
	if err != nil {
		return err
	}
	defer a.Close()

	spec := cfg.Schedule.Cron
	if scheduleCron != "" {
		spec = scheduleCron
	}
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return fmt.Errorf("loading timezone %q: %w", cfg.Schedule.Timezone, err)
	}

	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry()
		a.SetMetrics(reg)

		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, reg.Handler(log))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			log.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr), zap.String("path", cfg.Metrics.Path))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	job := func() {
		// Failures are logged by the app; the next tick retries.
		a.Run(ctx, time.Now().In(loc), false)
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(log)))),
	)
	if _, err := c.AddFunc(spec, job); err != nil {
		return fmt.Errorf("registering schedule %q: %w", spec, err)
	}

	if scheduleRunFirst {
		job()
	}

	c.Start()
	log.Info("scheduler started", zap.String("cron", spec), zap.String("timezone", loc.String()))

	<-ctx.Done()

	log.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}
