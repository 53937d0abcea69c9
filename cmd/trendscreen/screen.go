package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/trendscreen/internal/core"
	"github.com/newthinker/trendscreen/internal/notifier"
)

var (
	screenNow    string
	screenDryRun bool
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Run the monthly screen once",
	Long: `Fetch daily history for the universe, score the last finished month and
write rankings, picks and orders. With --dry-run nothing is persisted.`,
	RunE: runScreen,
}

func init() {
	screenCmd.Flags().StringVar(&screenNow, "now", "", "evaluation date (YYYY-MM-DD), default today")
	screenCmd.Flags().BoolVar(&screenDryRun, "dry-run", false, "compute and print without writing artifacts")
	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	now := time.Now()
	if screenNow != "" {
		d, err := core.ParseDate(screenNow)
		if err != nil {
			return fmt.Errorf("invalid --now: %w", err)
		}
		now = d
	}

	log, _, a, err := setup(ctx)
	defer log.Sync()
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.Run(ctx, now, screenDryRun)
	if err != nil {
		return err
	}

	log.Info("screen finished",
		zap.String("asof", out.Result.Meta.AsOf),
		zap.Strings("picks", out.Result.PickTickers()),
		zap.Int("orders", len(out.Orders)),
		zap.Bool("dry_run", out.DryRun),
	)

	fmt.Fprint(cmd.OutOrStdout(), notifier.Text(notifier.Summary{
		RunID:        out.Result.Meta.RunID,
		AsOf:         out.Result.Meta.AsOf,
		PreviousAsOf: out.PreviousAsOf(),
		GeneratedAt:  out.Result.Meta.GeneratedAt,
		Picks:        out.Result.PickTickers(),
		Orders:       out.Orders,
		Failed:       out.Failed,
		DryRun:       out.DryRun,
	}))
	return nil
}
