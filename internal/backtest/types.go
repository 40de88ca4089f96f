// Package backtest simulates the EMA/RSI trading rule over historical
// bars and sweeps parameter grids for the best-performing configuration.
package backtest

import (
	"github.com/quantforge/stratsweep/internal/core"
	"github.com/quantforge/stratsweep/internal/signal"
)

// ParameterSet identifies one backtest run. It is immutable once built
// by the sweep generator, which also enforces EMAFast < EMASlow.
type ParameterSet struct {
	EMAFast       int
	EMASlow       int
	RSIPeriod     int
	RSIBuy        float64
	RSISell       float64
	StopLossPct   float64
	TakeProfitPct float64
}

// Rule returns the signal configuration for this parameter set.
func (p ParameterSet) Rule() signal.Rule {
	return signal.Rule{
		EMAFast:   p.EMAFast,
		EMASlow:   p.EMASlow,
		RSIPeriod: p.RSIPeriod,
		RSIBuy:    p.RSIBuy,
		RSISell:   p.RSISell,
	}
}

// Outcome is the resolved result of a simulated trade.
type Outcome int

const (
	// OutcomeExpired means neither exit level was touched inside the
	// lookahead window. Expired trades are dropped from all statistics.
	OutcomeExpired Outcome = iota
	OutcomeWin
	OutcomeLoss
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "WIN"
	case OutcomeLoss:
		return "LOSS"
	default:
		return "EXPIRED"
	}
}

// TradeOutcome describes one resolved trade. It is consumed only by the
// aggregation loop; individual outcomes are never persisted.
type TradeOutcome struct {
	EntryIndex int
	ExitOffset int
	Direction  core.Action
	Result     Outcome
}

// RunConfig holds run-level settings that are not swept.
type RunConfig struct {
	StartingBalance float64
	RiskPerTrade    float64
	// MaxLookahead bounds the forward scan per trade. Zero or negative
	// means unbounded: scan to the end of the series.
	MaxLookahead int
}

// DefaultRunConfig returns the standard run settings.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		StartingBalance: 1000,
		RiskPerTrade:    20,
		MaxLookahead:    300,
	}
}

// RunResult aggregates one parameter set's performance over a series.
type RunResult struct {
	Params  ParameterSet
	Balance float64
	Wins    int
	Losses  int
	Trades  int
	WinRate float64
}
