package screen

import (
	"fmt"

	"github.com/newthinker/trendscreen/internal/config"
	"github.com/newthinker/trendscreen/internal/core"
)

// Config holds the fixed parameters of a screening run.
type Config struct {
	TopN            int
	MAMonths        int
	MomMonths       int
	CorrThreshold   float64
	LiqThresholdJPY float64
	LiqThresholdUSD float64
	PortfolioValue  float64
	LiquidityWindow int
}

// DefaultConfig returns the standard monthly parameters.
func DefaultConfig() Config {
	return Config{
		TopN:            3,
		MAMonths:        10,
		MomMonths:       12,
		CorrThreshold:   0.95,
		LiqThresholdJPY: 50_000_000,
		LiqThresholdUSD: 1_000_000,
		PortfolioValue:  1_000_000,
		LiquidityWindow: 60,
	}
}

// FromSettings maps the loaded config section onto engine parameters.
func FromSettings(s config.ScreenConfig) Config {
	return Config{
		TopN:            s.TopN,
		MAMonths:        s.MAMonths,
		MomMonths:       s.MomMonths,
		CorrThreshold:   s.CorrThreshold,
		LiqThresholdJPY: s.LiqThresholdJPY,
		LiqThresholdUSD: s.LiqThresholdUSD,
		PortfolioValue:  s.PortfolioValue,
		LiquidityWindow: s.LiquidityWindow,
	}
}

// Validate rejects parameters the algorithms cannot run with.
func (c Config) Validate() error {
	switch {
	case c.TopN < 1:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("top_n must be at least 1, got %d", c.TopN))
	case c.MAMonths < 1:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("ma_months must be positive, got %d", c.MAMonths))
	case c.MomMonths < 1:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("mom_months must be positive, got %d", c.MomMonths))
	case c.LiquidityWindow < 1:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("liquidity_window must be positive, got %d", c.LiquidityWindow))
	case c.PortfolioValue <= 0:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("portfolio_value must be positive, got %f", c.PortfolioValue))
	}
	return nil
}

// LiquidityThreshold returns the minimum average traded value for market m.
func (c Config) LiquidityThreshold(m core.Market) float64 {
	if m == core.MarketJP {
		return c.LiqThresholdJPY
	}
	return c.LiqThresholdUSD
}

// MinMonths is the number of finalized months a run needs.
func (c Config) MinMonths() int {
	return max(c.MAMonths, c.MomMonths) + 2
}
