package report

import (
	"encoding/json"

	"github.com/newthinker/trendscreen/internal/screen"
)

// Status is the machine-readable summary of a run.
type Status struct {
	RunID           string   `json:"run_id"`
	AsOf            string   `json:"asof_month_end"`
	GeneratedAt     string   `json:"generated_at_utc"`
	TopN            int      `json:"top_n"`
	MAMonths        int      `json:"ma_months"`
	MomMonths       int      `json:"mom_months"`
	CorrThreshold   float64  `json:"corr_threshold"`
	LiqThresholdJPY float64  `json:"liq_threshold_jpy"`
	LiqThresholdUSD float64  `json:"liq_threshold_usd"`
	UniverseCount   int      `json:"universe_count"`
	FinalUniverse   []string `json:"final_universe"`
	Picks           []string `json:"picks"`
	PreviousAsOf    string   `json:"previous_asof,omitempty"`
	FailedSymbols   []string `json:"failed_symbols,omitempty"`
}

// NewStatus builds the status from run metadata. previousAsOf is empty on
// a first run.
func NewStatus(m screen.Meta, previousAsOf string, failed []string) Status {
	return Status{
		RunID:           m.RunID,
		AsOf:            m.AsOf,
		GeneratedAt:     Timestamp(m.GeneratedAt),
		TopN:            m.TopN,
		MAMonths:        m.MAMonths,
		MomMonths:       m.MomMonths,
		CorrThreshold:   m.CorrThreshold,
		LiqThresholdJPY: m.LiqThresholdJPY,
		LiqThresholdUSD: m.LiqThresholdUSD,
		UniverseCount:   m.UniverseCount,
		FinalUniverse:   nonNil(m.FinalUniverse),
		Picks:           nonNil(m.Picks),
		PreviousAsOf:    previousAsOf,
		FailedSymbols:   failed,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// EncodeJSON renders the status indented with a trailing newline.
func (s Status) EncodeJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
