package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"path"
	"sort"
)

//go:embed templates/*
var templateFS embed.FS

var dashboardTmpl = template.Must(
	template.New("dashboard.html").
		Funcs(template.FuncMap{"base": path.Base}).
		ParseFS(templateFS, "templates/dashboard.html"),
)

// Change actions shown on the dashboard.
const (
	ChangeKeep = "KEEP"
	ChangeAdd  = "ADD"
	ChangeDrop = "DROP"
)

// PickChange is one symbol's move between two pick sets.
type PickChange struct {
	Ticker string
	Action string
}

// ComparePicks lists KEEPs, then ADDs, then DROPs, each sorted by ticker.
func ComparePicks(current, previous []string) []PickChange {
	cur := make(map[string]bool, len(current))
	for _, t := range current {
		cur[t] = true
	}
	prev := make(map[string]bool, len(previous))
	for _, t := range previous {
		prev[t] = true
	}

	var keep, add, drop []string
	for t := range cur {
		if prev[t] {
			keep = append(keep, t)
		} else {
			add = append(add, t)
		}
	}
	for t := range prev {
		if !cur[t] {
			drop = append(drop, t)
		}
	}

	var out []PickChange
	for _, group := range []struct {
		action  string
		tickers []string
	}{{ChangeKeep, keep}, {ChangeAdd, add}, {ChangeDrop, drop}} {
		sort.Strings(group.tickers)
		for _, t := range group.tickers {
			out = append(out, PickChange{Ticker: t, Action: group.action})
		}
	}
	return out
}

// HistoryGroup is a titled list of links to history files, newest first.
type HistoryGroup struct {
	Title string
	Files []string
}

// Dashboard is everything the HTML page shows.
type Dashboard struct {
	AsOf        string
	GeneratedAt string
	RenderedAt  string
	Version     string

	CurAsOf   string
	PrevAsOf  string
	CurPicks  []string
	PrevPicks []string
	Changes   []PickChange

	Orders    *Table
	Picks     *Table
	Ranking   *Table
	Meta      *Table
	ScreenAll *Table

	History []HistoryGroup
}

// RenderDashboard writes the dashboard page.
func RenderDashboard(w io.Writer, d *Dashboard) error {
	if err := dashboardTmpl.Execute(w, d); err != nil {
		return fmt.Errorf("rendering dashboard: %w", err)
	}
	return nil
}
