package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/newthinker/trendscreen/internal/core"
	"github.com/newthinker/trendscreen/internal/storage/history"
)

var historyLast int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List persisted monthly pick sets",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLast, "last", "n", 12, "number of most recent pick sets to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	log, _, a, err := setup(ctx)
	defer log.Sync()
	if err != nil {
		return err
	}
	defer a.Close()

	snaps, err := a.History(ctx)
	if err != nil {
		return err
	}
	if historyLast > 0 && len(snaps) > historyLast {
		snaps = snaps[len(snaps)-historyLast:]
	}
	if len(snaps) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no pick history")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ASOF\tPICKS\tCHANGES")
	var prev *history.PickSnapshot
	for i := range snaps {
		s := snaps[i]
		fmt.Fprintf(w, "%s\t%s\t%s\n", core.FormatDate(s.AsOf), strings.Join(s.Symbols, ","), changes(prev, s))
		prev = &snaps[i]
	}
	return w.Flush()
}

// changes summarizes the move from prev to cur as +ADDED -DROPPED.
func changes(prev *history.PickSnapshot, cur history.PickSnapshot) string {
	if prev == nil {
		return "-"
	}
	old := make(map[string]bool, len(prev.Symbols))
	for _, s := range prev.Symbols {
		old[s] = true
	}
	now := make(map[string]bool, len(cur.Symbols))
	var parts []string
	for _, s := range cur.Symbols {
		now[s] = true
		if !old[s] {
			parts = append(parts, "+"+s)
		}
	}
	for _, s := range prev.Symbols {
		if !now[s] {
			parts = append(parts, "-"+s)
		}
	}
	if len(parts) == 0 {
		return "="
	}
	return strings.Join(parts, " ")
}
