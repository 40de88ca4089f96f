package backtest

import (
	"github.com/quantforge/stratsweep/internal/core"
	"github.com/quantforge/stratsweep/internal/signal"
)

// Run backtests a single parameter set over the series. Every non-NONE
// signal in [0, n-2] is resolved independently; overlapping trades (a
// new signal firing while a previous trade's window is still open) are
// each counted. No position book is simulated; changing that would
// change every published statistic.
func Run(series core.Series, params ParameterSet, cfg RunConfig) RunResult {
	result := RunResult{Params: params, Balance: cfg.StartingBalance}

	n := len(series)
	if n < 2 {
		return result
	}

	closes := series.Closes()
	opens := series.Opens()
	highs := series.Highs()
	lows := series.Lows()

	rule := params.Rule()
	frame := signal.BuildFrame(closes, rule)
	resolver := Resolver{MaxLookahead: cfg.MaxLookahead}

	for i := 0; i < n-1; i++ {
		direction := frame.Classify(i, rule)
		if direction == core.ActionNone {
			continue
		}

		outcome, ok := resolver.Resolve(opens, highs, lows, i, direction, params.StopLossPct, params.TakeProfitPct)
		if !ok || outcome.Result == OutcomeExpired {
			continue
		}

		result.Trades++
		if outcome.Result == OutcomeWin {
			result.Wins++
			result.Balance += winProfit(cfg.RiskPerTrade, params.StopLossPct, params.TakeProfitPct)
		} else {
			result.Losses++
			result.Balance -= cfg.RiskPerTrade
		}
	}

	if result.Trades > 0 {
		result.WinRate = float64(result.Wins) / float64(result.Trades) * 100
	}
	return result
}

// winProfit sizes a winning trade by its reward-to-risk ratio. A zero
// stop-loss percentage would divide by zero, so it degrades to sizing
// by the take-profit percentage alone.
func winProfit(riskPerTrade, slPct, tpPct float64) float64 {
	if slPct == 0 {
		return riskPerTrade * tpPct
	}
	return riskPerTrade * (tpPct / slPct)
}
