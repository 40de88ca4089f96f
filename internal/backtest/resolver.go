package backtest

import (
	"math"

	"github.com/quantforge/stratsweep/internal/core"
)

// Resolver determines a trade's outcome by scanning forward from the
// entry bar for the first touch of its stop-loss or take-profit level.
// It is stateless: identical inputs always produce identical outcomes.
type Resolver struct {
	// MaxLookahead bounds the scan window per trade. Zero or negative
	// scans to the end of the series.
	MaxLookahead int
}

// Resolve evaluates a signal emitted at bar index i. The entry fills at
// open[i+1], so i must be below len(opens)-1; signals are never emitted
// for the final bar. The returned bool is false when the trade is
// skipped entirely (non-finite or zero entry price).
//
// Within the window [i+1, i+1+MaxLookahead) the first offsets touching
// the take-profit and stop-loss levels are compared. Both touched on
// the same bar resolves to LOSS: the intrabar path is unknowable from
// OHLC alone, so the tie goes to the worst case. Neither touched means
// the trade expires and must be excluded from every statistic.
func (r Resolver) Resolve(opens, highs, lows []float64, i int, direction core.Action, slPct, tpPct float64) (TradeOutcome, bool) {
	n := len(opens)
	entry := opens[i+1]
	if math.IsNaN(entry) || math.IsInf(entry, 0) || entry == 0 {
		return TradeOutcome{}, false
	}

	var sl, tp float64
	if direction == core.ActionBuy {
		sl = entry * (1 - slPct)
		tp = entry * (1 + tpPct)
	} else {
		sl = entry * (1 + slPct)
		tp = entry * (1 - tpPct)
	}

	end := n
	if r.MaxLookahead > 0 && i+1+r.MaxLookahead < n {
		end = i + 1 + r.MaxLookahead
	}

	tHit, sHit := -1, -1
	for j := i + 1; j < end; j++ {
		offset := j - (i + 1)
		if tHit < 0 {
			if (direction == core.ActionBuy && highs[j] >= tp) ||
				(direction == core.ActionSell && lows[j] <= tp) {
				tHit = offset
			}
		}
		if sHit < 0 {
			if (direction == core.ActionBuy && lows[j] <= sl) ||
				(direction == core.ActionSell && highs[j] >= sl) {
				sHit = offset
			}
		}
		if tHit >= 0 && sHit >= 0 {
			break
		}
	}

	out := TradeOutcome{EntryIndex: i, Direction: direction}
	switch {
	case tHit < 0 && sHit < 0:
		out.Result = OutcomeExpired
		out.ExitOffset = -1
	case sHit < 0:
		out.Result = OutcomeWin
		out.ExitOffset = tHit
	case tHit < 0:
		out.Result = OutcomeLoss
		out.ExitOffset = sHit
	case tHit < sHit:
		out.Result = OutcomeWin
		out.ExitOffset = tHit
	default:
		// sHit <= tHit, including the equal-offset tie.
		out.Result = OutcomeLoss
		out.ExitOffset = sHit
	}
	return out, true
}
